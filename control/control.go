// Package control implements the TCP control acceptor (§4.F): it binds the
// control port, applies host restriction on accept, and hands surviving
// connections off as new peers.
package control

import (
	"net"

	"github.com/padl/surrogate/logging"
)

const Port = 10003

// HostMatcher answers whether an accepted peer's address is permitted under
// the current restrict_to_specified_host setting.
type HostMatcher interface {
	Allowed(addr net.IP) bool
}

// PeerFactory hands a freshly accepted, filtered connection off to the
// registry as a new peer (§4.C, §4.D).
type PeerFactory interface {
	NewPeer(conn net.Conn)
}

// Acceptor owns the control-port TCP listener.
type Acceptor struct {
	Hosts   HostMatcher
	Factory PeerFactory

	ln *net.TCPListener
}

func NewAcceptor(hosts HostMatcher, factory PeerFactory) *Acceptor {
	return &Acceptor{Hosts: hosts, Factory: factory}
}

// Open binds the control port on localAddr ("" for all interfaces) with
// SO_REUSEADDR (net.ListenTCP already sets this by default on Unix).
func (a *Acceptor) Open(localAddr string) error {
	ip := net.IPv4zero
	if localAddr != "" {
		ip = net.ParseIP(localAddr)
	}
	ln, err := net.ListenTCP("tcp4", &net.TCPAddr{IP: ip, Port: Port})
	if err != nil {
		return err
	}
	a.ln = ln
	return nil
}

// Close invalidates the listener, guaranteeing no further Serve callbacks
// fire (§5 cancellation).
func (a *Acceptor) Close() error {
	if a.ln == nil {
		return nil
	}
	return a.ln.Close()
}

// Serve accepts connections until the listener is closed or errors. Intended
// to run on its own goroutine; acceptance filtering and peer construction
// are posted back onto the controller's loop via post.
func (a *Acceptor) Serve(post func(func())) {
	for {
		conn, err := a.ln.Accept()
		if err != nil {
			return
		}
		post(func() { a.accept(conn) })
	}
}

func (a *Acceptor) accept(conn net.Conn) {
	addr, ok := conn.RemoteAddr().(*net.TCPAddr)
	if ok && a.Hosts != nil && !a.Hosts.Allowed(addr.IP) {
		logging.DebugLog("control", "rejecting %s: host restriction", addr)
		_ = conn.Close()
		return
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	a.Factory.NewPeer(conn)
}
