package statusapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/padl/surrogate/engine"
	"github.com/padl/surrogate/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Read-only status feed, no auth by design; allow any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// snapshotEvent is broadcast to every connected WebSocket client on each
// poll tick.
type snapshotEvent struct {
	Device DeviceResponse `json:"device"`
	Peers  []PeerResponse `json:"peers"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan snapshotEvent
}

// eventHub fans the periodic registry snapshot out to connected clients.
// There is no write path back into the controller: clients are read-only
// subscribers.
type eventHub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	done    chan struct{}
	once    sync.Once
}

func newEventHub() *eventHub {
	return &eventHub{
		clients: make(map[*wsClient]struct{}),
		done:    make(chan struct{}),
	}
}

func (h *eventHub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *eventHub) unregister(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *eventHub) broadcast(ev snapshotEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			logging.DebugLog("statusapi", "client buffer full, dropping snapshot")
		}
	}
}

// Stop shuts the hub down and closes every client's send channel. Safe to
// call once.
func (h *eventHub) Stop() {
	h.once.Do(func() {
		close(h.done)
		h.mu.Lock()
		for c := range h.clients {
			delete(h.clients, c)
			close(c.send)
		}
		h.mu.Unlock()
	})
}

// pollLoop periodically snapshots the controller and broadcasts it to
// every connected client, in the style of a status-change poller rather
// than a true event stream (the dispatcher has no public subscription
// point for peer transitions).
func (h *eventHub) pollLoop(c *engine.Controller) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.broadcast(snapshotEvent{
				Device: deviceSnapshot(c),
				Peers:  peersSnapshot(c),
			})
		}
	}
}

func (h *handlers) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.DebugError("statusapi", "websocket upgrade", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan snapshotEvent, 16)}
	h.hub.register(client)

	// Write the current snapshot immediately so a client doesn't wait for
	// the next tick.
	client.send <- snapshotEvent{
		Device: deviceSnapshot(h.controller),
		Peers:  peersSnapshot(h.controller),
	}

	go h.writePump(client)
	h.readPump(client)
}

// readPump discards any client input (the feed is read-only) and exits on
// close or error, triggering unregistration.
func (h *handlers) readPump(client *wsClient) {
	defer func() {
		h.hub.unregister(client)
		client.conn.Close()
	}()
	client.conn.SetReadLimit(512)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *handlers) writePump(client *wsClient) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-client.send:
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
