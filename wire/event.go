// Package wire implements the MOM textual wire protocol: event/type/status
// constants, the static event table, and the line codec.
package wire

// Code identifies an event independent of its direction (request, reply,
// notification). Values below match the original protocol's numbering so
// that packed wire forms stay bit-compatible with captured traffic.
type Code int

const (
	AliveRequest Code = iota + 1
	Identify
	GetHardwareConfig
	GetSoftwareVersion
	GetDeviceInfo
	GetMaster
	SetMaster
	GetAliveTime
	SetAliveTime
	GetDeviceID
	SetDeviceID
	GetIPAddress
	SetIPAddress
	GetKeyMode
	SetKeyMode
	GetKeyState
	SetKeyState
	GetLedState
	SetLedState
	GetLedIntensity
	SetLedIntensity
	GetRotationCount
	SetRotationCount
	GetRingLedState
	SetRingLedState
	EnumerateDevices

	// API-internal codes. Never appear on the wire; used only as the Code
	// field of events handed to the application handler out-of-band.
	PortError
	PortClosed
	PortOpen
	PortReady
	PortConnected

	codeMax
)

// Type is a bitmask: exactly one bit is set on any real Event, but the
// event table and master-gating logic compare codes against mask unions.
type Type uint32

const (
	HostGetRequest Type = 1 << iota
	HostSetRequest
	HostNotification
	DeviceReply
	DeviceNotification
)

// IsHostRequest reports whether t is one of the two request (non-notification,
// non-reply) inbound types.
func (t Type) IsHostRequest() bool {
	return t&(HostGetRequest|HostSetRequest) != 0
}

// Event is the struct form of the packed 32-bit wire event: a code and a
// type bit, kept separate per the design note preferring {code, type} over
// a packed integer away from the wire boundary.
type Event struct {
	Code Code
	Type Type
}

// name is the fixed wire identifier table, indexed by Code. Entries with an
// empty string are the API-internal codes that never serialize.
var name = [codeMax]string{
	AliveRequest:       "aliverequest",
	Identify:           "sidentify",
	GetHardwareConfig:  "ghwconf",
	GetSoftwareVersion: "gswver",
	GetDeviceInfo:      "gdevinfo",
	GetMaster:          "gmaster",
	SetMaster:          "smaster",
	GetAliveTime:       "galivetime",
	SetAliveTime:       "salivetime",
	GetDeviceID:        "gdevid",
	SetDeviceID:        "sdevid",
	GetIPAddress:       "gip",
	SetIPAddress:       "sip",
	GetKeyMode:         "gkeymode",
	SetKeyMode:         "skeymode",
	GetKeyState:        "gkeystate",
	SetKeyState:        "skeystate",
	GetLedState:        "gledstate",
	SetLedState:        "sledstate",
	GetLedIntensity:    "gledint",
	SetLedIntensity:    "sledint",
	GetRotationCount:   "grotcount",
	SetRotationCount:   "srotcount",
	GetRingLedState:    "gringledstate",
	SetRingLedState:    "sringledstate",
	EnumerateDevices:   "edev",
}

var codeByName map[string]Code

func init() {
	codeByName = make(map[string]Code, len(name))
	for code, n := range name {
		if n != "" {
			codeByName[n] = Code(code)
		}
	}
}

// Name returns the wire identifier for code, or "" if code never appears on
// the wire (API-internal codes, or out of range).
func (c Code) Name() string {
	if c <= 0 || int(c) >= len(name) {
		return ""
	}
	return name[c]
}

// LookupCode resolves a wire event name (without the leading tag character)
// to its Code. Names longer than 16 characters never match, matching the
// original parser's early length cutoff.
func LookupCode(n string) (Code, bool) {
	if len(n) > 16 {
		return 0, false
	}
	c, ok := codeByName[n]
	return c, ok
}
