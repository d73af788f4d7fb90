// Package redis forwards device notifications to a Redis channel via
// PUBLISH. Like bridge/mqtt, this is a one-way forwarder: nothing ever
// subscribes back into the protocol engine.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/padl/surrogate/logging"
	"github.com/padl/surrogate/wire"
)

// Config describes one Redis connection.
type Config struct {
	Name    string
	Addr    string
	Channel string
	DB      int
	Enabled bool
}

// Event is the JSON envelope published on the configured channel.
type Event struct {
	Event     string        `json:"event"`
	Params    []interface{} `json:"params"`
	Timestamp string        `json:"timestamp"`
}

// Publisher forwards device events to one Redis instance.
type Publisher struct {
	cfg     Config
	mu      sync.RWMutex
	client  *redis.Client
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

	client := redis.NewClient(&redis.Options{Addr: p.cfg.Addr, DB: p.cfg.DB})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logging.DebugConnectError("bridge/redis", p.cfg.Addr, err)
		return err
	}
	logging.DebugConnectSuccess("bridge/redis", p.cfg.Addr, "connected")

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

	_ = client.Close()
	logging.DebugDisconnect("bridge/redis", p.cfg.Addr, "stopped")
}

// Forward publishes one device event as JSON on the configured channel.
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
		logging.DebugError("bridge/redis", "marshal", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Publish(ctx, p.cfg.Channel, payload).Err(); err != nil {
		logging.DebugError("bridge/redis", fmt.Sprintf("publish %s", p.cfg.Channel), err)
	}
}
