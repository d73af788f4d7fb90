package kafka

import (
	"sync"

	"github.com/padl/surrogate/wire"
)

// Manager fans event forwarding out to every configured Kafka target.
type Manager struct {
	mu         sync.RWMutex
	publishers map[string]*Publisher
}

func NewManager() *Manager {
	return &Manager{publishers: make(map[string]*Publisher)}
}

func (m *Manager) Add(pub *Publisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishers[pub.Name()] = pub
}

func (m *Manager) StartAll() int {
	m.mu.RLock()
	pubs := make([]*Publisher, 0, len(m.publishers))
	for _, p := range m.publishers {
		pubs = append(pubs, p)
	}
	m.mu.RUnlock()

	started := 0
	for _, p := range pubs {
		if p.cfg.Enabled && !p.IsRunning() {
			if err := p.Start(); err == nil {
				started++
			}
		}
	}
	return started
}

func (m *Manager) StopAll() {
	m.mu.RLock()
	pubs := make([]*Publisher, 0, len(m.publishers))
	for _, p := range m.publishers {
		pubs = append(pubs, p)
	}
	m.mu.RUnlock()

	for _, p := range pubs {
		p.Stop()
	}
}

func (m *Manager) Forward(code wire.Code, params wire.Params) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.publishers {
		if p.IsRunning() {
			p.Forward(code, params)
		}
	}
}
