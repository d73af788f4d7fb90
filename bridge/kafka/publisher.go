// Package kafka forwards device notifications to a Kafka topic. Like the
// other bridges, it is a one-way forwarder.
package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/padl/surrogate/logging"
	"github.com/padl/surrogate/wire"
)

// Config describes one Kafka cluster/topic target.
type Config struct {
	Name    string
	Brokers []string
	Topic   string
	Enabled bool
}

// Event is the JSON envelope published to the topic.
type Event struct {
	Event     string        `json:"event"`
	Params    []interface{} `json:"params"`
	Timestamp string        `json:"timestamp"`
}

// Publisher forwards device events to one Kafka cluster.
type Publisher struct {
	cfg     Config
	mu      sync.RWMutex
	writer  *kafkago.Writer
	running bool
}

func NewPublisher(cfg Config) *Publisher {
	return &Publisher{cfg: cfg}
}

func (p *Publisher) Name() string    { return p.cfg.Name }
func (p *Publisher) IsRunning() bool { p.mu.RLock(); defer p.mu.RUnlock(); return p.running }

func (p *Publisher) Start() error {
	p.mu.RLock()
	if p.running {
		p.mu.RUnlock()
		return nil
	}
	p.mu.RUnlock()

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(p.cfg.Brokers...),
		Topic:        p.cfg.Topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
	}

	p.mu.Lock()
	p.writer = writer
	p.running = true
	p.mu.Unlock()
	logging.DebugConnectSuccess("bridge/kafka", p.cfg.Topic, "writer ready")
	return nil
}

func (p *Publisher) Stop() {
	p.mu.Lock()
	if !p.running || p.writer == nil {
		p.mu.Unlock()
		return
	}
	writer := p.writer
	p.writer = nil
	p.running = false
	p.mu.Unlock()

	_ = writer.Close()
	logging.DebugDisconnect("bridge/kafka", p.cfg.Topic, "stopped")
}

// Forward publishes one device event as a JSON message keyed by event name.
func (p *Publisher) Forward(code wire.Code, params wire.Params) {
	p.mu.RLock()
	writer, running := p.writer, p.running
	p.mu.RUnlock()
	if !running {
		return
	}

	values := make([]interface{}, len(params))
	for i, prm := range params {
		switch prm.Kind {
		case wire.KindString:
			values[i] = prm.Str
		case wire.KindInt:
			values[i] = prm.Int
		case wire.KindBool:
			values[i] = prm.Bool
		default:
			values[i] = nil
		}
	}

	payload, err := json.Marshal(Event{
		Event:     code.Name(),
		Params:    values,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logging.DebugError("bridge/kafka", "marshal", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	msg := kafkago.Message{Key: []byte(code.Name()), Value: payload}
	if err := writer.WriteMessages(ctx, msg); err != nil {
		logging.DebugError("bridge/kafka", "write message", err)
	}
}
