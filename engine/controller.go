package engine

import (
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/padl/surrogate/config"
	"github.com/padl/surrogate/control"
	"github.com/padl/surrogate/discovery"
	"github.com/padl/surrogate/dispatch"
	"github.com/padl/surrogate/logging"
	"github.com/padl/surrogate/peer"
	"github.com/padl/surrogate/registry"
	"github.com/padl/surrogate/wire"
)

// BridgeForwarder receives every device notification the controller emits
// through Notify/NotifyDeferred. The bridge managers in bridge/mqtt,
// bridge/redis, bridge/kafka, and bridge/stream all implement this
// structurally via their own Forward method; the controller never imports
// those packages, so wiring one in is purely the embedding host's choice.
// Forwarding is one-way: nothing a BridgeForwarder does can feed a value
// back into the protocol engine.
type BridgeForwarder interface {
	Forward(code wire.Code, params wire.Params)
}

// Controller is the façade described in §4.H: it owns the loop, the
// registry, the dispatcher, and the discovery/control sockets, and exposes
// the narrow operations an embedding application needs.
type Controller struct {
	Options  *config.Options
	Loop     *Loop
	Registry *registry.Registry
	Dispatch *dispatch.Dispatcher

	hosts      *hostRestriction
	discoverer *discovery.Responder
	acceptor   *control.Acceptor
	running    bool
	bridges    []BridgeForwarder
}

// AddBridge registers a one-way event forwarder. Every notification sent
// via Notify or NotifyDeferred is mirrored to it after being queued for
// peers; registration order is also forwarding order.
func (c *Controller) AddBridge(b BridgeForwarder) {
	c.bridges = append(c.bridges, b)
}

func (c *Controller) forwardToBridges(code wire.Code, params wire.Params) {
	for _, b := range c.bridges {
		b.Forward(code, params)
	}
}

// Create builds the controller with defaults, populates configuration,
// installs a default alive_time of 20s (via registry.New), and starts the
// loop goroutine that runs every posted socket and timer task.
func Create(opts *config.Options, app dispatch.ApplicationHandler) *Controller {
	loop := NewLoop()
	go loop.Run()
	notify := func(p *peer.Peer, portEvent string, err error) {
		if app == nil {
			return
		}
		code := wire.PortError
		if portEvent == "PortClosed" {
			code = wire.PortClosed
		}
		app.Handle(p, wire.Event{Code: code, Type: wire.DeviceNotification}, nil, nil)
	}

	reg := registry.New(loop, notify)
	disp := &dispatch.Dispatcher{
		Options:  opts,
		Registry: reg,
		App:      app,
		Log: func(p *peer.Peer, ev wire.Event, status wire.Status) {
			logging.DebugLog("dispatch", "%s %s -> %s", p.Name, ev.Code.Name(), status)
		},
	}

	c := &Controller{
		Options:  opts,
		Loop:     loop,
		Registry: reg,
		Dispatch: disp,
		hosts:    newHostRestriction(loop),
	}
	c.hosts.Refresh(opts)
	opts.OnChange(func() { c.hosts.Refresh(opts) })
	return c
}

// NewPeer implements control.PeerFactory: it wraps an accepted connection
// and registers it with the peer registry.
func (c *Controller) NewPeer(conn net.Conn) {
	p := peer.New(conn, c.Loop, c.Dispatch, c.Registry)
	c.Registry.Add(p)
	p.Start()
}

// BeginDiscoverability creates both sockets, schedules them on the loop, and
// emits one broadcast EnumerateDevices announcement. Returns InvalidRequest
// if already running. The UDP discovery socket and the TCP control listener
// are brought up concurrently; if either fails to bind, both are rolled
// back together rather than leaving one socket open with no peer.
func (c *Controller) BeginDiscoverability(localInterface string) wire.Status {
	if c.running {
		return wire.InvalidRequest
	}

	resp := discovery.NewResponder(c.Options, c.hosts, c.Options.DeviceID)
	acc := control.NewAcceptor(c.hosts, c)

	var g errgroup.Group
	g.Go(resp.Open)
	g.Go(func() error { return acc.Open(localInterface) })

	if err := g.Wait(); err != nil {
		logging.DebugError("engine", "begin discoverability", err)
		_ = resp.Close()
		_ = acc.Close()
		return wire.SocketError
	}

	c.discoverer = resp
	c.acceptor = acc
	c.running = true

	go resp.Serve(c.Loop.Post)
	go acc.Serve(c.Loop.Post)

	c.discoverer.Announce()
	return wire.Success
}

// EndDiscoverability invalidates both listener sockets, clears master, and
// closes and drops all peers (§4.H, §5 cancellation).
func (c *Controller) EndDiscoverability() {
	if !c.running {
		return
	}
	_ = c.discoverer.Close()
	_ = c.acceptor.Close()
	c.discoverer = nil
	c.acceptor = nil
	c.running = false
	c.Registry.Shutdown()
}

// AnnounceDiscoverability triggers one announcement using the
// restriction-resolved destination set.
func (c *Controller) AnnounceDiscoverability() {
	if c.discoverer != nil {
		c.discoverer.Announce()
	}
}

// Notify enqueues event as a DeviceNotification to every peer and flushes
// immediately; fails with SocketError if there are no peers.
func (c *Controller) Notify(code wire.Code, params wire.Params) wire.Status {
	peers := c.Registry.Peers()
	if len(peers) == 0 {
		return wire.SocketError
	}
	msg := wire.Message{Event: wire.Event{Code: code, Type: wire.DeviceNotification}, Params: params}
	line := wire.Serialize(msg)
	for _, p := range peers {
		p.Enqueue(line)
		_ = p.Flush()
	}
	c.forwardToBridges(code, params)
	return wire.Success
}

// NotifyDeferred is the enqueue-only half of Notify.
func (c *Controller) NotifyDeferred(code wire.Code, params wire.Params) wire.Status {
	peers := c.Registry.Peers()
	if len(peers) == 0 {
		return wire.SocketError
	}
	msg := wire.Message{Event: wire.Event{Code: code, Type: wire.DeviceNotification}, Params: params}
	line := wire.Serialize(msg)
	for _, p := range peers {
		p.Enqueue(line)
	}
	c.forwardToBridges(code, params)
	return wire.Success
}

// SendDeferred is the flush-only half of Notify, for batching several
// NotifyDeferred calls into one write per peer.
func (c *Controller) SendDeferred() {
	for _, p := range c.Registry.Peers() {
		_ = p.Flush()
	}
}

// GetOptions returns the mutable configuration mapping, not a copy (§4.H).
func (c *Controller) GetOptions() *config.Options {
	return c.Options
}
