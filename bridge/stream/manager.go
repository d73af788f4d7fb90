package stream

import (
	"sync"

	"github.com/padl/surrogate/wire"
)

// Manager fans event forwarding out to every configured stream server.
type Manager struct {
	mu      sync.RWMutex
	servers map[string]*Server
}

func NewManager() *Manager {
	return &Manager{servers: make(map[string]*Server)}
}

func (m *Manager) Add(s *Server) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.servers[s.Name()] = s
}

func (m *Manager) StartAll() int {
	m.mu.RLock()
	servers := make([]*Server, 0, len(m.servers))
	for _, s := range m.servers {
		servers = append(servers, s)
	}
	m.mu.RUnlock()

	started := 0
	for _, s := range servers {
		if s.cfg.Enabled && !s.IsRunning() {
			if err := s.Start(); err == nil {
				started++
			}
		}
	}
	return started
}

func (m *Manager) StopAll() {
	m.mu.RLock()
	servers := make([]*Server, 0, len(m.servers))
	for _, s := range m.servers {
		servers = append(servers, s)
	}
	m.mu.RUnlock()

	for _, s := range servers {
		s.Stop()
	}
}

func (m *Manager) Forward(code wire.Code, params wire.Params) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.servers {
		if s.IsRunning() {
			s.Forward(code, params)
		}
	}
}
