// Package mqtt forwards device notifications to an MQTT broker as a
// one-way bridge: it never subscribes to anything and never feeds values
// back into the protocol engine (§D non-goals).
package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/padl/surrogate/logging"
	"github.com/padl/surrogate/wire"
)

// Config describes one broker connection.
type Config struct {
	Name      string
	Broker    string
	Port      int
	ClientID  string
	Username  string
	Password  string
	UseTLS    bool
	RootTopic string
	Enabled   bool
}

// Event is the JSON envelope published for every forwarded notification.
type Event struct {
	Event     string        `json:"event"`
	Params    []interface{} `json:"params"`
	Timestamp string        `json:"timestamp"`
}

// Publisher forwards device events to a single MQTT broker.
type Publisher struct {
	cfg     Config
	mu      sync.RWMutex
	client  pahomqtt.Client
	running bool
}

func NewPublisher(cfg Config) *Publisher {
	return &Publisher{cfg: cfg}
}

func (p *Publisher) Name() string { return p.cfg.Name }

func (p *Publisher) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// Start connects to the broker. Matches the teacher's pattern of building
// client options without holding the lock, then committing state under it.
func (p *Publisher) Start() error {
	p.mu.RLock()
	if p.running {
		p.mu.RUnlock()
		return nil
	}
	p.mu.RUnlock()

	opts := pahomqtt.NewClientOptions()
	scheme := "tcp"
	if p.cfg.UseTLS {
		scheme = "ssl"
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, p.cfg.Broker, p.cfg.Port))
	opts.SetClientID(p.cfg.ClientID)
	if p.cfg.Username != "" {
		opts.SetUsername(p.cfg.Username)
		opts.SetPassword(p.cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)

	client := pahomqtt.NewClient(opts)
	logging.DebugConnect("bridge/mqtt", p.Address())
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("bridge/mqtt: connection timeout")
	}
	if err := token.Error(); err != nil {
		logging.DebugConnectError("bridge/mqtt", p.Address(), err)
		return err
	}
	logging.DebugConnectSuccess("bridge/mqtt", p.Address(), "connected")

	p.mu.Lock()
	p.client = client
	p.running = true
	p.mu.Unlock()
	return nil
}

func (p *Publisher) Stop() {
	p.mu.Lock()
	if !p.running || p.client == nil {
		p.mu.Unlock()
		return
	}
	client := p.client
	p.client = nil
	p.running = false
	p.mu.Unlock()

	client.Disconnect(500)
	logging.DebugDisconnect("bridge/mqtt", p.Address(), "stopped")
}

// Forward publishes one device event (notification or reply) as retained
// JSON under <root_topic>/<event_name>.
func (p *Publisher) Forward(code wire.Code, params wire.Params) {
	p.mu.RLock()
	client, running := p.client, p.running
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
		logging.DebugError("bridge/mqtt", "marshal", err)
		return
	}

	topic := fmt.Sprintf("%s/%s", p.cfg.RootTopic, code.Name())
	token := client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(2 * time.Second) {
		logging.DebugError("bridge/mqtt", "publish timeout", fmt.Errorf("topic %s", topic))
	}
}

func (p *Publisher) Address() string {
	scheme := "tcp"
	if p.cfg.UseTLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, p.cfg.Broker, p.cfg.Port)
}
