package dispatch

import (
	"github.com/padl/surrogate/peer"
	"github.com/padl/surrogate/wire"
)

func handleAliveRequest(d *Dispatcher, p *peer.Peer, params wire.Params) (wire.Params, wire.Status) {
	return params, wire.Success
}

// handleGetDeviceID prepends device_name, device_id to the echoed params.
func handleGetDeviceID(d *Dispatcher, p *peer.Peer, params wire.Params) (wire.Params, wire.Status) {
	out := append(wire.Params{wire.String(d.Options.DeviceName), wire.Int(d.Options.DeviceID)}, params...)
	return out, wire.Success
}

func handleSetDeviceID(d *Dispatcher, p *peer.Peer, params wire.Params) (wire.Params, wire.Status) {
	id, ok := params.PopInt()
	if !ok || id < 1 {
		return params, wire.InvalidParameter
	}
	name, ok := params.PopString()
	if !ok {
		return params, wire.InvalidParameter
	}
	d.Options.SetDeviceID(id, name)
	// Continue lets the application observe the identity change.
	return params, wire.Continue
}

// handleGetHardwareConfig leaves the version parameter at index 0 and
// inserts 1, system_type_and_version, serial_number after it.
func handleGetHardwareConfig(d *Dispatcher, p *peer.Peer, params wire.Params) (wire.Params, wire.Status) {
	if len(params) < 1 {
		return params, wire.InvalidParameter
	}
	if params[0].Kind != wire.KindInt || params[0].Int != 2 {
		return params, wire.InvalidParameter
	}
	out := wire.Params{params[0], wire.Int(1), wire.String(d.Options.SystemTypeAndVersion), wire.String(d.Options.SerialNumber)}
	out = append(out, params[1:]...)
	return out, wire.Success
}

func handleGetSoftwareVersion(d *Dispatcher, p *peer.Peer, params wire.Params) (wire.Params, wire.Status) {
	if len(params) < 1 {
		return params, wire.InvalidParameter
	}
	if params[0].Kind != wire.KindInt || params[0].Int != 2 {
		return params, wire.InvalidParameter
	}
	out := wire.Params{
		params[0],
		wire.String(d.Options.CPUFirmwareTag),
		wire.String(d.Options.CPUFirmwareVersion),
		wire.String(d.Options.RecoveryFirmwareTag),
		wire.String(d.Options.RecoveryFirmwareVersion),
	}
	out = append(out, params[1:]...)
	return out, wire.Success
}

func handleGetDeviceInfo(d *Dispatcher, p *peer.Peer, params wire.Params) (wire.Params, wire.Status) {
	out := append(wire.Params{wire.String(d.Options.ModelID), wire.Int(0), wire.String(d.Options.SerialNumber)}, params...)
	return out, wire.Success
}

func handleGetMaster(d *Dispatcher, p *peer.Peer, params wire.Params) (wire.Params, wire.Status) {
	v := int32(0)
	if d.Registry.IsMaster(p) {
		v = 1
	}
	out := append(wire.Params{wire.Int(v)}, params...)
	return out, wire.Success
}

func handleSetMaster(d *Dispatcher, p *peer.Peer, params wire.Params) (wire.Params, wire.Status) {
	v, ok := params.PopInt()
	if !ok {
		return params, wire.InvalidParameter
	}
	d.Registry.SetMaster(p, v != 0)
	return params, wire.Success
}

func handleGetAliveTime(d *Dispatcher, p *peer.Peer, params wire.Params) (wire.Params, wire.Status) {
	out := append(wire.Params{wire.Int(int32(d.Registry.AliveTime()))}, params...)
	return out, wire.Success
}

// handleSetAliveTime validates in place; the request's own seconds parameter
// stays in params so the reply can echo it ahead of the appended status.
func handleSetAliveTime(d *Dispatcher, p *peer.Peer, params wire.Params) (wire.Params, wire.Status) {
	if len(params) < 1 || params[0].Kind != wire.KindInt || !d.Registry.SetAliveTime(int(params[0].Int)) {
		return params, wire.InvalidParameter
	}
	if p.Status < peer.Ready {
		p.Status = peer.Ready
	}
	return params, wire.Success
}

func handleGetIPAddress(d *Dispatcher, p *peer.Peer, params wire.Params) (wire.Params, wire.Status) {
	placeholders := wire.Params{wire.Int(1), wire.Null(), wire.Null(), wire.Null(), wire.Null()}
	out := append(placeholders, params...)
	return out, wire.Success
}

func handleSetIPAddress(d *Dispatcher, p *peer.Peer, params wire.Params) (wire.Params, wire.Status) {
	return params, wire.Continue
}

// handleGetKeyMode leaves key_number at index 0 and inserts 1, 0 after it.
func handleGetKeyMode(d *Dispatcher, p *peer.Peer, params wire.Params) (wire.Params, wire.Status) {
	if len(params) < 1 {
		return params, wire.InvalidParameter
	}
	if params[0].Kind != wire.KindInt || params[0].Int < 1 || params[0].Int > 12 {
		return params, wire.InvalidParameter
	}
	out := wire.Params{params[0], wire.Int(1), wire.Int(0)}
	out = append(out, params[1:]...)
	return out, wire.Success
}

// handleSetKeyMode validates in place; key, mode, and the reserved third
// parameter stay in params so the reply can echo them ahead of status.
func handleSetKeyMode(d *Dispatcher, p *peer.Peer, params wire.Params) (wire.Params, wire.Status) {
	if len(params) < 3 {
		return params, wire.InvalidParameter
	}
	if params[0].Kind != wire.KindInt || params[0].Int < 1 || params[0].Int > 12 {
		return params, wire.InvalidParameter
	}
	if params[1].Kind != wire.KindInt || params[1].Int != 1 {
		return params, wire.InvalidParameter
	}
	if params[2].Kind != wire.KindInt {
		return params, wire.InvalidParameter
	}
	return params, wire.Success
}
