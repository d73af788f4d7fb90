// Package dispatch implements the event dispatch table (§4.B) and the
// three-stage dispatch pipeline (§4.G): type/mask check, master gate,
// built-in handler, application-handler fallback.
package dispatch

import (
	"github.com/padl/surrogate/config"
	"github.com/padl/surrogate/peer"
	"github.com/padl/surrogate/registry"
	"github.com/padl/surrogate/wire"
)

// ApplicationHandler is the external collaborator implementing device
// semantics (LEDs, keys, rotary state, identity) that this package never
// defines itself — it is specified only by its contract (§1).
//
// For a host request (Get/Set), sendReply is non-nil and the handler is
// expected to invoke it at most once with the final status and any
// outbound parameters; if the handler returns without calling it, the
// dispatcher calls it on the handler's behalf using the returned status
// (mapping Continue to InvalidRequest). For a notification, sendReply is
// nil and the return value is not transmitted.
type ApplicationHandler interface {
	Handle(p *peer.Peer, ev wire.Event, params wire.Params, sendReply func(wire.Status, wire.Params)) wire.Status
}

// ApplicationHandlerFunc adapts a function to ApplicationHandler.
type ApplicationHandlerFunc func(p *peer.Peer, ev wire.Event, params wire.Params, sendReply func(wire.Status, wire.Params)) wire.Status

func (f ApplicationHandlerFunc) Handle(p *peer.Peer, ev wire.Event, params wire.Params, sendReply func(wire.Status, wire.Params)) wire.Status {
	return f(p, ev, params, sendReply)
}

// Dispatcher routes parsed requests through the event table and, when
// needed, the application handler, and writes replies back to the
// originating peer.
type Dispatcher struct {
	Options  *config.Options
	Registry *registry.Registry
	App      ApplicationHandler

	// Log, if set, receives every protocol error for diagnostics (unknown
	// event, invalid parameter, master-only rejection). Optional.
	Log func(p *peer.Peer, ev wire.Event, status wire.Status)
}

// Dispatch implements peer.Dispatcher: it parses one CR-stripped line and
// runs it through the pipeline. Parse failures that produce a stub error
// reply (§4.A) are sent verbatim; parse failures that produce nothing
// (empty line, unrecognized tag) are silently dropped.
func (d *Dispatcher) Dispatch(p *peer.Peer, line string) {
	msg, errReply, ok := wire.ParseLine(line)
	if !ok {
		if errReply != nil {
			p.Enqueue(errReply)
		}
		return
	}
	d.process(p, msg.Event, msg.Params)
}

// process runs the §4.G pipeline for one parsed inbound message.
func (d *Dispatcher) process(p *peer.Peer, ev wire.Event, params wire.Params) {
	// Stage 1: type/mask check. Only inbound (host) types ever reach here
	// from the wire codec, so this mainly guards against a zero Code.
	if ev.Code <= 0 || !ev.Type.IsHostRequest() && ev.Type != wire.HostNotification {
		return
	}

	row, known := table[ev.Code]

	// Stage 2: master gate. No handler has run, so status echoes the
	// untouched request params and is appended last (scenario 6).
	if !d.Registry.IsMaster(p) && isMasterOnly(ev.Code, ev.Type) {
		d.replyAt(p, ev, wire.RequiresMaster, params, wire.StatusAtEnd)
		return
	}

	// Stage 3: type match.
	if !known || row.validTypes&ev.Type == 0 {
		d.replyAt(p, ev, wire.InvalidRequest, params, wire.StatusAtEnd)
		return
	}

	// Stage 4: built-in handler.
	status := wire.Continue
	out := params
	if row.handler != nil {
		out, status = row.handler(d, p, params.Clone())
		if status != wire.Continue && ev.Type.IsHostRequest() {
			d.replyAt(p, ev, status, out, row.statusAt)
			return
		}
	}

	// Stage 5: application fallback.
	d.fallback(p, ev, out, status)
}

func (d *Dispatcher) fallback(p *peer.Peer, ev wire.Event, params wire.Params, builtinStatus wire.Status) {
	if d.App == nil {
		if ev.Type.IsHostRequest() {
			d.replyAt(p, ev, wire.InvalidRequest, params, wire.StatusAtEnd)
		}
		return
	}

	if !ev.Type.IsHostRequest() {
		// Notification: no reply callback, return value is not transmitted.
		d.App.Handle(p, ev, params, nil)
		return
	}

	sent := false
	sendReply := func(status wire.Status, outParams wire.Params) {
		if sent {
			return
		}
		sent = true
		// Explicit application replies build their own params from scratch,
		// so status goes at the front (the ergonomic default for embedders).
		d.replyAt(p, ev, status, outParams, wire.StatusAtFront)
	}
	status := d.App.Handle(p, ev, params, sendReply)
	if !sent {
		if status == wire.Continue {
			status = wire.InvalidRequest
		}
		// The handler never called sendReply: nothing new was produced, so
		// this follows the no-handler-ran convention and appends status.
		d.replyAt(p, ev, status, params, wire.StatusAtEnd)
	}
}

// reply is replyAt with StatusAtFront, the position explicit application
// replies use; see replyAt for the general form.
func (d *Dispatcher) reply(p *peer.Peer, ev wire.Event, status wire.Status, params wire.Params) {
	d.replyAt(p, ev, status, params, wire.StatusAtFront)
}

// replyAt builds and enqueues (but does not flush) a DeviceReply/
// DeviceNotification for ev, inserting status at index, and logging protocol
// errors if a Log hook is set.
func (d *Dispatcher) replyAt(p *peer.Peer, ev wire.Event, status wire.Status, params wire.Params, index int) {
	if status != wire.Success && d.Log != nil {
		d.Log(p, ev, status)
	}
	msg := wire.BuildReplyAt(ev.Code, ev.Type, status, params, index)
	p.Enqueue(wire.Serialize(msg))
}
