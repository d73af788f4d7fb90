// Package statusapi provides a read-only HTTP/WebSocket view of the
// controller's peer registry and device configuration. It has no mutating
// endpoints and no authentication: operators use it for dashboards, not
// for controlling the emulator (that is what a real control connection on
// port 10003 is for).
package statusapi

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/padl/surrogate/engine"
)

// Config describes the bind address for the status API.
type Config struct {
	Host string
	Port int
}

// Server is a read-only HTTP server exposing controller state.
type Server struct {
	cfg        Config
	controller *engine.Controller

	mu      sync.RWMutex
	server  *http.Server
	router  chi.Router
	running bool

	hub *eventHub
}

// NewServer builds the status API router against the given controller.
func NewServer(cfg Config, controller *engine.Controller) *Server {
	s := &Server{cfg: cfg, controller: controller, hub: newEventHub()}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)

	h := &handlers{controller: s.controller, hub: s.hub}

	r.Get("/status", h.handleStatus)
	r.Get("/peers", h.handlePeers)
	r.Get("/events", h.handleWS)

	s.router = r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start begins serving and starts the peer-state poll loop feeding the
// WebSocket event hub.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.hub.pollLoop(s.controller)

	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}
	}()

	s.running = true
	return nil
}

// Stop halts the HTTP server and the poll loop.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.server == nil {
		return nil
	}

	s.hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	s.running = false
	s.server = nil
	return err
}

func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Server) Address() string {
	return fmt.Sprintf("http://%s:%d", s.cfg.Host, s.cfg.Port)
}
