package control

import (
	"net"
	"testing"
)

// fakeConn wraps a net.Pipe half to report an arbitrary TCP remote address,
// since net.Pipe's own addresses aren't usable for host-restriction tests.
type fakeConn struct {
	net.Conn
	remote *net.TCPAddr
}

func (f *fakeConn) RemoteAddr() net.Addr { return f.remote }

type recordingFactory struct {
	accepted []net.Conn
}

func (r *recordingFactory) NewPeer(conn net.Conn) {
	r.accepted = append(r.accepted, conn)
}

type allowlist struct{ allowed net.IP }

func (a allowlist) Allowed(addr net.IP) bool { return addr.Equal(a.allowed) }

func TestAcceptRejectsRestrictedHost(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	conn := &fakeConn{Conn: server, remote: &net.TCPAddr{IP: net.ParseIP("10.0.0.9"), Port: 5555}}

	factory := &recordingFactory{}
	a := &Acceptor{Hosts: allowlist{allowed: net.ParseIP("10.0.0.1")}, Factory: factory}

	done := make(chan struct{})
	go func() { a.accept(conn); close(done) }()
	<-done

	if len(factory.accepted) != 0 {
		t.Fatal("factory should not have received a restricted peer")
	}
}

func TestAcceptHandsOffAllowedHost(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	conn := &fakeConn{Conn: server, remote: &net.TCPAddr{IP: net.ParseIP("10.0.0.1"), Port: 5555}}

	factory := &recordingFactory{}
	a := &Acceptor{Hosts: allowlist{allowed: net.ParseIP("10.0.0.1")}, Factory: factory}

	a.accept(conn)

	if len(factory.accepted) != 1 {
		t.Fatalf("accepted = %d, want 1", len(factory.accepted))
	}
}
