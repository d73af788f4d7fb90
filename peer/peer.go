// Package peer implements the per-TCP-connection session: read
// accumulator, write buffer, message framing, and port-status tracking.
//
// A Peer's exported mutator methods are only ever called from the owning
// engine's single task-processing goroutine (see package engine); the read
// half runs on its own goroutine but only ever posts closures back onto
// that goroutine instead of touching Peer fields directly. This keeps the
// "single-threaded cooperative loop" semantics of the original protocol
// engine without a per-peer mutex.
package peer

import (
	"net"
	"strings"
	"time"
)

// Loop is the narrow surface a Peer needs from its owning engine: a way to
// serialize work back onto the single dispatch goroutine.
type Loop interface {
	Post(func())
}

// Dispatcher receives one complete, CR-stripped wire line at a time, in
// arrival order, for a given peer.
type Dispatcher interface {
	Dispatch(p *Peer, line string)
}

// Lifecycle receives peer transport events: stream error/EOF and full close.
// Implemented by the engine so the peer registry can run expiry and master
// clearing without the peer package knowing about either.
type Lifecycle interface {
	OnPeerError(p *Peer, err error)
	OnPeerClosed(p *Peer)
}

// Peer is one connected TCP controller.
type Peer struct {
	Conn   net.Conn
	Addr   *net.TCPAddr
	Name   string
	Status PortStatus

	// LastActivity is stamped on every successful read and forced to the
	// zero Time on stream error/close so the next expiry sweep removes it.
	LastActivity time.Time

	accum    strings.Builder
	writeBuf []byte
	written  int

	loop       Loop
	dispatcher Dispatcher
	lifecycle  Lifecycle

	closed bool
	done   chan struct{}
}

// New creates a peer wrapping an already-accepted connection. Initial
// port-status is Closed and LastActivity is zero, per the control
// acceptor's contract (§4.F).
func New(conn net.Conn, loop Loop, dispatcher Dispatcher, lifecycle Lifecycle) *Peer {
	p := &Peer{
		Conn:       conn,
		Status:     Closed,
		loop:       loop,
		dispatcher: dispatcher,
		lifecycle:  lifecycle,
		done:       make(chan struct{}),
	}
	if tcpAddr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		p.Addr = tcpAddr
	}
	p.Name = conn.RemoteAddr().String()
	return p
}

// Start launches the read goroutine. Must be called once, after New.
func (p *Peer) Start() {
	go p.readLoop()
}

// Wait blocks until the read goroutine has returned, which happens shortly
// after Close shuts down the underlying connection. Used by the registry
// to drain in-flight peer goroutines on shutdown.
func (p *Peer) Wait() {
	<-p.done
}

func (p *Peer) readLoop() {
	defer close(p.done)
	buf := make([]byte, 4096)
	for {
		n, err := p.Conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			p.loop.Post(func() { p.onRead(chunk) })
		}
		if err != nil {
			p.loop.Post(func() { p.onReadError(err) })
			return
		}
	}
}

// onRead runs on the loop goroutine: append to the accumulator, stamp
// activity, and split into complete messages only when the accumulator
// ends in CR (§4.C). CRLF is not recognized as a second terminator, per
// the original's documented limitation.
func (p *Peer) onRead(data []byte) {
	p.LastActivity = time.Now()
	p.accum.Write(data)
	s := p.accum.String()
	if !strings.HasSuffix(s, "\r") {
		return
	}
	p.accum.Reset()
	lines := strings.Split(strings.TrimSuffix(s, "\r"), "\r")
	for _, line := range lines {
		p.dispatcher.Dispatch(p, line)
	}
	p.Flush()
}

// onReadError runs on the loop goroutine on EOF or a read error.
func (p *Peer) onReadError(err error) {
	wasMaster := p.Status == Connected
	if p.Status >= Open {
		p.Status = Closed
	}
	p.LastActivity = time.Time{}
	_ = wasMaster // master clearing is the registry's responsibility via Lifecycle
	p.lifecycle.OnPeerError(p, err)
}

// Enqueue appends raw bytes to the write buffer without flushing. Used by
// the dispatcher to batch a reply and a following notification into one
// write.
func (p *Peer) Enqueue(b []byte) {
	p.writeBuf = append(p.writeBuf, b...)
}

// Flush writes as many buffered bytes as the stream accepts, starting at
// the cursor. When the cursor reaches the buffer length, both reset to
// zero/empty (§4.C).
func (p *Peer) Flush() error {
	if p.closed || p.written >= len(p.writeBuf) {
		if p.written >= len(p.writeBuf) && len(p.writeBuf) > 0 {
			p.writeBuf = p.writeBuf[:0]
			p.written = 0
		}
		return nil
	}
	n, err := p.Conn.Write(p.writeBuf[p.written:])
	p.written += n
	if p.written >= len(p.writeBuf) {
		p.writeBuf = p.writeBuf[:0]
		p.written = 0
	}
	if err != nil {
		p.closeWrite(err)
	}
	return err
}

// Send enqueues and immediately flushes.
func (p *Peer) Send(b []byte) error {
	p.Enqueue(b)
	return p.Flush()
}

// PendingBytes returns the bytes currently queued for write but not yet
// flushed to the connection.
func (p *Peer) PendingBytes() []byte { return p.writeBuf }

// DiscardPending clears the write buffer without writing it, used by tests
// that inspect one reply at a time.
func (p *Peer) DiscardPending() {
	p.writeBuf = p.writeBuf[:0]
	p.written = 0
}

func (p *Peer) closeWrite(err error) {
	_ = p.Conn.Close()
}

// Close closes both halves of the stream and marks the peer closed. Safe
// to call more than once.
func (p *Peer) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.Status = Closed
	p.LastActivity = time.Time{}
	_ = p.Conn.Close()
	p.lifecycle.OnPeerClosed(p)
}
