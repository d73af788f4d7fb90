package dispatch

import (
	"net"
	"testing"
	"time"

	"github.com/padl/surrogate/config"
	"github.com/padl/surrogate/peer"
	"github.com/padl/surrogate/registry"
	"github.com/padl/surrogate/wire"
)

// inlineLoop runs posted closures synchronously, which is sufficient for
// dispatcher unit tests that never need real concurrency.
type inlineLoop struct{}

func (inlineLoop) Post(fn func()) { fn() }
func (inlineLoop) Schedule(d time.Duration, fn func()) func() {
	return func() {}
}

func newTestPeer(t *testing.T, lifecycle peer.Lifecycle, disp peer.Dispatcher) (*peer.Peer, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	p := peer.New(server, inlineLoop{}, disp, lifecycle)
	return p, client
}

type noopLifecycle struct{}

func (noopLifecycle) OnPeerError(p *peer.Peer, err error) {}
func (noopLifecycle) OnPeerClosed(p *peer.Peer)            {}

func newTestDispatcher() *Dispatcher {
	opts := config.Defaults()
	reg := registry.New(inlineLoop{}, func(p *peer.Peer, ev string, err error) {})
	return &Dispatcher{Options: opts, Registry: reg}
}

func TestAliveRequestSucceeds(t *testing.T) {
	d := newTestDispatcher()
	p, _ := newTestPeer(t, noopLifecycle{}, d)

	d.Dispatch(p, "?aliverequest")

	want := ":aliverequest,0\r"
	if got := string(p.PendingBytes()); got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

func TestGetHardwareConfigInvalidVersion(t *testing.T) {
	d := newTestDispatcher()
	p, _ := newTestPeer(t, noopLifecycle{}, d)

	d.Dispatch(p, "?ghwconf,3")

	want := ":ghwconf,3,2\r"
	if got := string(p.PendingBytes()); got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

func TestSetKeyModeRequiresMasterWhenNotMaster(t *testing.T) {
	d := newTestDispatcher()
	p, _ := newTestPeer(t, noopLifecycle{}, d)

	d.Dispatch(p, "&skeymode,1,1,0")

	want := ":skeymode,1,1,0,4\r"
	if got := string(p.PendingBytes()); got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

func TestSetMasterThenGetMaster(t *testing.T) {
	d := newTestDispatcher()
	p, _ := newTestPeer(t, noopLifecycle{}, d)

	d.Dispatch(p, "%smaster,1")
	if !d.Registry.IsMaster(p) {
		t.Fatal("peer should be master after SetMaster(1)")
	}
	if p.Status != peer.Connected {
		t.Errorf("status = %v, want Connected", p.Status)
	}

	p.DiscardPending()
	d.Dispatch(p, "?gmaster")
	want := ":gmaster,0,1\r"
	if got := string(p.PendingBytes()); got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

func TestSetAliveTimeOutOfRange(t *testing.T) {
	d := newTestDispatcher()
	p, _ := newTestPeer(t, noopLifecycle{}, d)

	d.Dispatch(p, "&salivetime,90")
	want := ":salivetime,90,2\r"
	if got := string(p.PendingBytes()); got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

func TestUnknownEventProducesStubErrorReply(t *testing.T) {
	d := newTestDispatcher()
	p, _ := newTestPeer(t, noopLifecycle{}, d)

	d.Dispatch(p, "?bogus")
	want := "?bogus,0\r"
	if got := string(p.PendingBytes()); got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

func TestApplicationFallbackForUnhandledCode(t *testing.T) {
	d := newTestDispatcher()
	called := false
	d.App = ApplicationHandlerFunc(func(p *peer.Peer, ev wire.Event, params wire.Params, sendReply func(wire.Status, wire.Params)) wire.Status {
		called = true
		if sendReply != nil {
			sendReply(wire.Success, wire.Params{wire.Int(5), wire.Int(1)})
		}
		return wire.Success
	})
	p, _ := newTestPeer(t, noopLifecycle{}, d)
	d.Registry.SetMaster(p, true)

	d.Dispatch(p, "&sledstate,5,1")
	if !called {
		t.Fatal("application handler was not invoked")
	}
	want := ":sledstate,0,5,1\r"
	if got := string(p.PendingBytes()); got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}
