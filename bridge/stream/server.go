// Package stream implements a TCP notification server for Surrogate: a
// one-way, newline-delimited-JSON broadcast of device events, with a
// ring buffer so a reconnecting client can ask for everything it missed.
// It is grounded on the same fan-out-plus-ring-buffer shape as the other
// bridges, but speaks its own tiny line protocol instead of an external
// broker, for operators who just want `nc host port` visibility.
package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/padl/surrogate/logging"
	"github.com/padl/surrogate/wire"
)

// StatusProvider supplies a snapshot for the "snapshot" query, typically
// an adapter wrapping an *engine.Controller.
type StatusProvider interface {
	Snapshot() interface{}
}

// Config describes a stream bridge's listen address and buffer depth.
type Config struct {
	Name       string
	ListenAddr string
	BufferSize int
	Enabled    bool
}

type subscriber struct {
	id   uint64
	conn net.Conn
	send chan []byte
}

// Server is a TCP server that streams device notifications to connected
// clients as newline-delimited JSON.
type Server struct {
	cfg Config

	mu       sync.RWMutex
	ln       net.Listener
	clients  map[uint64]*subscriber
	nextID   uint64
	ring     *EventRing
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup

	provider StatusProvider
	count    atomic.Int64
}

func NewPublisher(cfg Config) *Server {
	return &Server{cfg: cfg, clients: make(map[uint64]*subscriber)}
}

// SetProvider registers the status snapshot source used to answer
// "snapshot" queries from clients.
func (s *Server) SetProvider(p StatusProvider) { s.provider = p }

func (s *Server) Name() string    { return s.cfg.Name }
func (s *Server) IsRunning() bool { s.mu.RLock(); defer s.mu.RUnlock(); return s.running }

// HasClients reports whether at least one client is connected, letting
// Forward skip serialization work when nobody is listening.
func (s *Server) HasClients() bool { return s.count.Load() > 0 }

func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("stream: listen %s: %w", s.cfg.ListenAddr, err)
	}
	s.ln = ln
	s.ring = NewEventRing(s.cfg.BufferSize)
	s.stopChan = make(chan struct{})
	s.running = true
	s.mu.Unlock()

	logging.DebugConnectSuccess("bridge/stream", s.cfg.ListenAddr, "listening")
	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.ln.Close()
	for _, c := range s.clients {
		close(c.send)
		c.conn.Close()
	}
	s.clients = make(map[uint64]*subscriber)
	s.count.Store(0)
	s.mu.Unlock()

	s.wg.Wait()
	logging.DebugDisconnect("bridge/stream", s.cfg.ListenAddr, "stopped")
}

// Forward broadcasts one device event to every connected client and stores
// it in the replay ring.
func (s *Server) Forward(code wire.Code, params wire.Params) {
	if !s.IsRunning() {
		return
	}

	values := make([]interface{}, len(params))
	for i, p := range params {
		switch p.Kind {
		case wire.KindString:
			values[i] = p.Str
		case wire.KindInt:
			values[i] = p.Int
		case wire.KindBool:
			values[i] = p.Bool
		default:
			values[i] = nil
		}
	}

	s.broadcast(map[string]interface{}{
		"type":   "event",
		"event":  code.Name(),
		"params": values,
	})
}

func (s *Server) broadcast(msg map[string]interface{}) {
	msg["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	data = append(data, '\n')
	now := time.Now().UTC()

	s.mu.RLock()
	if s.ring != nil {
		s.ring.Add(data, now)
	}
	for _, c := range s.clients {
		select {
		case c.send <- data:
		default:
		}
	}
	s.mu.RUnlock()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.stopChan:
				return
			default:
				logging.DebugError("bridge/stream", "accept", err)
				continue
			}
		}

		s.mu.Lock()
		id := s.nextID
		s.nextID++
		c := &subscriber{id: id, conn: conn, send: make(chan []byte, 256)}
		s.clients[id] = c
		s.count.Add(1)
		s.mu.Unlock()

		s.wg.Add(2)
		go s.writer(c)
		go s.reader(c)
		go s.sendSnapshot(c)
	}
}

func (s *Server) removeClient(c *subscriber) {
	s.mu.Lock()
	if _, ok := s.clients[c.id]; ok {
		delete(s.clients, c.id)
		s.count.Add(-1)
		close(c.send)
		c.conn.Close()
	}
	s.mu.Unlock()
}

func (s *Server) writer(c *subscriber) {
	defer s.wg.Done()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if _, err := c.conn.Write(data); err != nil {
			s.removeClient(c)
			return
		}
	}
}

func (s *Server) reader(c *subscriber) {
	defer s.wg.Done()
	defer s.removeClient(c)

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	for scanner.Scan() {
		var req map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue
		}
		switch req["type"] {
		case "snapshot":
			s.sendSnapshot(c)
		case "replay":
			since, _ := req["since"].(string)
			s.handleReplay(c, since)
		}
	}
}

func (s *Server) sendSnapshot(c *subscriber) {
	if s.provider == nil {
		return
	}
	s.sendTo(c, map[string]interface{}{"type": "snapshot", "data": s.provider.Snapshot()})
}

func (s *Server) handleReplay(c *subscriber, sinceStr string) {
	ts, err := time.Parse(time.RFC3339Nano, sinceStr)
	if err != nil {
		if ts, err = time.Parse(time.RFC3339, sinceStr); err != nil {
			return
		}
	}

	s.mu.RLock()
	ring := s.ring
	s.mu.RUnlock()
	if ring == nil {
		return
	}

	for _, data := range ring.Since(ts) {
		select {
		case c.send <- data:
		default:
			return
		}
	}
}

func (s *Server) sendTo(c *subscriber, msg map[string]interface{}) {
	defer func() { recover() }()
	msg["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	data = append(data, '\n')
	select {
	case c.send <- data:
	default:
	}
}
