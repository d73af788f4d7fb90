package dispatch

import (
	"github.com/padl/surrogate/peer"
	"github.com/padl/surrogate/wire"
)

// Handler is a built-in handler closure (§4.B): given the dispatcher
// context and a mutable copy of the request parameters, it returns the
// (possibly modified) parameters and a status. Status Continue means "not
// handled, fall through to the application handler".
type Handler func(d *Dispatcher, p *peer.Peer, params wire.Params) (wire.Params, wire.Status)

// entry is one row of the static event table. statusAt is the index at
// which a reply built from this handler's own (non-Continue) return value
// inserts the status parameter: most get-style handlers with nothing to
// echo use the front (0); a couple that keep one leading input parameter
// in place insert right after it (1); set-style handlers that only
// validate, and any request the table or master gate rejects before a
// handler ever runs, echo the untouched input and append status last
// (wire.StatusAtEnd). See DESIGN.md for how this was resolved against the
// spec's literal worked examples.
type entry struct {
	validTypes wire.Type
	handler    Handler
	statusAt   int
}

// table is the dense static mapping described in §4.B. Codes with a nil
// handler are valid-type-checked and master-gated exactly like any other
// code, but fall straight through to the application handler (§4.G stage
// 5) since the table records no built-in behavior for them.
var table = map[wire.Code]entry{
	wire.AliveRequest:       {wire.HostGetRequest, handleAliveRequest, wire.StatusAtFront},
	wire.Identify:           {wire.HostSetRequest, nil, wire.StatusAtEnd},
	wire.GetHardwareConfig:  {wire.HostGetRequest, handleGetHardwareConfig, 1},
	wire.GetSoftwareVersion: {wire.HostGetRequest, handleGetSoftwareVersion, 1},
	wire.GetDeviceInfo:      {wire.HostGetRequest, handleGetDeviceInfo, wire.StatusAtFront},
	wire.GetMaster:          {wire.HostGetRequest, handleGetMaster, wire.StatusAtFront},
	wire.SetMaster:          {wire.HostNotification, handleSetMaster, wire.StatusAtEnd},
	wire.GetAliveTime:       {wire.HostGetRequest, handleGetAliveTime, wire.StatusAtFront},
	wire.SetAliveTime:       {wire.HostSetRequest, handleSetAliveTime, wire.StatusAtEnd},
	wire.GetDeviceID:        {wire.HostGetRequest, handleGetDeviceID, wire.StatusAtFront},
	wire.SetDeviceID:        {wire.HostNotification, handleSetDeviceID, wire.StatusAtEnd},
	wire.GetIPAddress:       {wire.HostGetRequest, handleGetIPAddress, wire.StatusAtFront},
	wire.SetIPAddress:       {wire.HostSetRequest, handleSetIPAddress, wire.StatusAtEnd},
	wire.GetKeyMode:         {wire.HostGetRequest, handleGetKeyMode, 1},
	wire.SetKeyMode:         {wire.HostSetRequest, handleSetKeyMode, wire.StatusAtEnd},
	wire.GetKeyState:        {wire.HostGetRequest, nil, wire.StatusAtEnd},
	wire.SetKeyState:        {wire.HostSetRequest, nil, wire.StatusAtEnd},
	wire.GetLedState:        {wire.HostGetRequest, nil, wire.StatusAtEnd},
	wire.SetLedState:        {wire.HostSetRequest, nil, wire.StatusAtEnd},
	wire.GetLedIntensity:    {wire.HostGetRequest, nil, wire.StatusAtEnd},
	wire.SetLedIntensity:    {wire.HostSetRequest, nil, wire.StatusAtEnd},
	wire.GetRotationCount:   {wire.HostGetRequest, nil, wire.StatusAtEnd},
	wire.SetRotationCount:   {wire.HostSetRequest, nil, wire.StatusAtEnd},
	wire.GetRingLedState:    {wire.HostGetRequest, nil, wire.StatusAtEnd},
	wire.SetRingLedState:    {wire.HostSetRequest, nil, wire.StatusAtEnd},
}

// isMasterOnly implements the §3 invariant exactly: master-only requests
// are any event code at or above GetKeyMode, except a get-style request
// for that same code range (anyone may query key mode, LED state, etc.;
// only mutating it requires mastership).
func isMasterOnly(code wire.Code, t wire.Type) bool {
	if t == wire.HostGetRequest {
		return false
	}
	return code >= wire.GetKeyMode
}
