package discovery

import (
	"github.com/padl/surrogate/config"
	"github.com/padl/surrogate/wire"
)

// buildEnumerateDevices renders the fixed-layout EnumerateDevices message
// (§6): it never goes through wire.BuildReplyAt since its status is always
// the trailing field of a hand-specified template, not a handler result.
//
//	:edev,<device_id>,1,'<device_name>','<model_id>',0,'<serial_number>',<status>\r
//
// announce selects the DeviceNotification tag for unsolicited broadcasts;
// a solicited probe replies as DeviceReply.
func buildEnumerateDevices(deviceID int32, opts *config.Options, announce bool) []byte {
	typ := wire.DeviceReply
	if announce {
		typ = wire.DeviceNotification
	}
	params := wire.Params{
		wire.Int(deviceID),
		wire.Int(1),
		wire.String(opts.DeviceName),
		wire.String(opts.ModelID),
		wire.Int(0),
		wire.String(opts.SerialNumber),
		wire.StatusParam(wire.Success),
	}
	msg := wire.Message{Event: wire.Event{Code: wire.EnumerateDevices, Type: typ}, Params: params}
	return wire.Serialize(msg)
}
