// Package simdevice is a sample application handler for the device
// controller's Key/Led/Rotation/Ring get/set events and Identify: the
// codes the built-in dispatch table routes through to the application
// because the control surface's physical state belongs to the embedding
// host, not the protocol engine. Both example host binaries (surrogated
// and surrogatetui) share it so they emulate the same device.
package simdevice

import (
	"sync"

	"github.com/padl/surrogate/peer"
	"github.com/padl/surrogate/wire"
)

// State holds the simulated key/LED/rotary state for every addressed
// control on the surface, keyed by the control's numeric ID.
type State struct {
	mu        sync.Mutex
	keys      map[int32]bool
	leds      map[int32]bool
	intensity map[int32]int32
	rotations map[int32]int32
	ringLeds  map[int32]bool
}

func New() *State {
	return &State{
		keys:      make(map[int32]bool),
		leds:      make(map[int32]bool),
		intensity: make(map[int32]int32),
		rotations: make(map[int32]int32),
		ringLeds:  make(map[int32]bool),
	}
}

func (d *State) Handle(p *peer.Peer, ev wire.Event, params wire.Params, sendReply func(wire.Status, wire.Params)) wire.Status {
	switch ev.Code {
	case wire.Identify:
		return wire.Success

	case wire.GetKeyState:
		id, ok := params.PopInt()
		if !ok {
			return wire.InvalidParameter
		}
		d.mu.Lock()
		on := d.keys[id]
		d.mu.Unlock()
		sendReply(wire.Success, wire.Params{wire.Int(id), wire.Bool(on)})
		return wire.Success

	case wire.SetKeyState:
		id, ok := params.PopInt()
		if !ok {
			return wire.InvalidParameter
		}
		on, ok := popBool(&params)
		if !ok {
			return wire.InvalidParameter
		}
		d.mu.Lock()
		d.keys[id] = on
		d.mu.Unlock()
		return wire.Success

	case wire.GetLedState:
		id, ok := params.PopInt()
		if !ok {
			return wire.InvalidParameter
		}
		d.mu.Lock()
		on := d.leds[id]
		d.mu.Unlock()
		sendReply(wire.Success, wire.Params{wire.Int(id), wire.Bool(on)})
		return wire.Success

	case wire.SetLedState:
		id, ok := params.PopInt()
		if !ok {
			return wire.InvalidParameter
		}
		on, ok := popBool(&params)
		if !ok {
			return wire.InvalidParameter
		}
		d.mu.Lock()
		d.leds[id] = on
		d.mu.Unlock()
		return wire.Success

	case wire.GetLedIntensity:
		id, ok := params.PopInt()
		if !ok {
			return wire.InvalidParameter
		}
		d.mu.Lock()
		level := d.intensity[id]
		d.mu.Unlock()
		sendReply(wire.Success, wire.Params{wire.Int(id), wire.Int(level)})
		return wire.Success

	case wire.SetLedIntensity:
		id, ok := params.PopInt()
		if !ok {
			return wire.InvalidParameter
		}
		level, ok := params.PopInt()
		if !ok {
			return wire.InvalidParameter
		}
		d.mu.Lock()
		d.intensity[id] = level
		d.mu.Unlock()
		return wire.Success

	case wire.GetRotationCount:
		id, ok := params.PopInt()
		if !ok {
			return wire.InvalidParameter
		}
		d.mu.Lock()
		count := d.rotations[id]
		d.mu.Unlock()
		sendReply(wire.Success, wire.Params{wire.Int(id), wire.Int(count)})
		return wire.Success

	case wire.SetRotationCount:
		id, ok := params.PopInt()
		if !ok {
			return wire.InvalidParameter
		}
		count, ok := params.PopInt()
		if !ok {
			return wire.InvalidParameter
		}
		d.mu.Lock()
		d.rotations[id] = count
		d.mu.Unlock()
		return wire.Success

	case wire.GetRingLedState:
		id, ok := params.PopInt()
		if !ok {
			return wire.InvalidParameter
		}
		d.mu.Lock()
		on := d.ringLeds[id]
		d.mu.Unlock()
		sendReply(wire.Success, wire.Params{wire.Int(id), wire.Bool(on)})
		return wire.Success

	case wire.SetRingLedState:
		id, ok := params.PopInt()
		if !ok {
			return wire.InvalidParameter
		}
		on, ok := popBool(&params)
		if !ok {
			return wire.InvalidParameter
		}
		d.mu.Lock()
		d.ringLeds[id] = on
		d.mu.Unlock()
		return wire.Success

	case wire.PortError, wire.PortClosed, wire.PortOpen, wire.PortReady, wire.PortConnected:
		return wire.Success

	default:
		return wire.InvalidRequest
	}
}

// popBool accepts a Bool param or, as the wire parser yields for 1/0, an Int.
func popBool(p *wire.Params) (bool, bool) {
	v, ok := p.Pop()
	if !ok {
		return false, false
	}
	switch v.Kind {
	case wire.KindBool:
		return v.Bool, true
	case wire.KindInt:
		return v.Int != 0, true
	}
	return false, false
}
