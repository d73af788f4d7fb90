package engine

import (
	"net"
	"testing"

	"github.com/padl/surrogate/config"
	"github.com/padl/surrogate/peer"
	"github.com/padl/surrogate/wire"
)

func TestCreateInstallsDefaultAliveTime(t *testing.T) {
	c := Create(config.Defaults(), nil)
	if got := c.Registry.AliveTime(); got != 20 {
		t.Errorf("AliveTime = %d, want 20", got)
	}
}

func TestNotifyWithNoPeersFails(t *testing.T) {
	c := Create(config.Defaults(), nil)
	if status := c.Notify(wire.SetLedState, wire.Params{wire.Int(5), wire.Int(1)}); status != wire.SocketError {
		t.Errorf("status = %v, want SocketError", status)
	}
}

func TestNotifyWritesToEveryPeer(t *testing.T) {
	c := Create(config.Defaults(), nil)
	server, client := net.Pipe()
	defer client.Close()

	p := peer.New(server, c.Loop, c.Dispatch, c.Registry)
	c.Registry.Add(p)

	readDone := make(chan string, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := client.Read(buf)
		readDone <- string(buf[:n])
	}()

	if status := c.Notify(wire.SetLedState, wire.Params{wire.Int(5), wire.Int(1)}); status != wire.Success {
		t.Fatalf("status = %v, want Success", status)
	}

	want := "!sledstate,5,1\r"
	if got := <-readDone; got != want {
		t.Errorf("notification = %q, want %q", got, want)
	}
}

type recordingBridge struct {
	codes  []wire.Code
	params []wire.Params
}

func (r *recordingBridge) Forward(code wire.Code, params wire.Params) {
	r.codes = append(r.codes, code)
	r.params = append(r.params, params)
}

func TestNotifyForwardsToRegisteredBridges(t *testing.T) {
	c := Create(config.Defaults(), nil)
	server, client := net.Pipe()
	defer client.Close()
	defer server.Close()

	p := peer.New(server, c.Loop, c.Dispatch, c.Registry)
	c.Registry.Add(p)
	go func() {
		buf := make([]byte, 64)
		client.Read(buf)
	}()

	b := &recordingBridge{}
	c.AddBridge(b)

	if status := c.Notify(wire.SetLedState, wire.Params{wire.Int(5), wire.Int(1)}); status != wire.Success {
		t.Fatalf("status = %v, want Success", status)
	}

	if len(b.codes) != 1 || b.codes[0] != wire.SetLedState {
		t.Fatalf("forwarded codes = %v, want [SetLedState]", b.codes)
	}
}

func TestNotifyWithNoPeersDoesNotForward(t *testing.T) {
	c := Create(config.Defaults(), nil)
	b := &recordingBridge{}
	c.AddBridge(b)

	c.Notify(wire.SetLedState, wire.Params{wire.Int(5), wire.Int(1)})
	if len(b.codes) != 0 {
		t.Errorf("forwarded codes = %v, want none (no peers)", b.codes)
	}
}

func TestBeginDiscoverabilityTwiceRefused(t *testing.T) {
	c := Create(config.Defaults(), nil)
	status := c.BeginDiscoverability("")
	if status != wire.Success {
		t.Fatalf("first BeginDiscoverability = %v, want Success", status)
	}
	defer c.EndDiscoverability()

	if status := c.BeginDiscoverability(""); status != wire.InvalidRequest {
		t.Errorf("second BeginDiscoverability = %v, want InvalidRequest", status)
	}
}
