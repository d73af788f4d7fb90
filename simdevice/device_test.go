package simdevice

import (
	"testing"

	"github.com/padl/surrogate/wire"
)

func TestSetThenGetKeyStateRoundTrips(t *testing.T) {
	d := New()
	var gotStatus wire.Status
	var gotParams wire.Params
	reply := func(s wire.Status, p wire.Params) {
		gotStatus = s
		gotParams = p
	}

	if status := d.Handle(nil, wire.Event{Code: wire.SetKeyState}, wire.Params{wire.Int(3), wire.Bool(true)}, reply); status != wire.Success {
		t.Fatalf("SetKeyState status = %v, want Success", status)
	}

	status := d.Handle(nil, wire.Event{Code: wire.GetKeyState}, wire.Params{wire.Int(3)}, reply)
	if status != wire.Success {
		t.Fatalf("GetKeyState status = %v, want Success", status)
	}
	if gotStatus != wire.Success {
		t.Fatalf("reply status = %v, want Success", gotStatus)
	}
	if len(gotParams) != 2 || gotParams[1].Kind != wire.KindBool || !gotParams[1].Bool {
		t.Fatalf("reply params = %+v, want [3, true]", gotParams)
	}
}

func TestGetKeyStateDefaultsToFalse(t *testing.T) {
	d := New()
	var gotParams wire.Params
	reply := func(_ wire.Status, p wire.Params) { gotParams = p }

	d.Handle(nil, wire.Event{Code: wire.GetKeyState}, wire.Params{wire.Int(9)}, reply)
	if len(gotParams) != 2 || gotParams[1].Bool {
		t.Fatalf("reply params = %+v, want key 9 to default false", gotParams)
	}
}

func TestMissingParamIsInvalidParameter(t *testing.T) {
	d := New()
	status := d.Handle(nil, wire.Event{Code: wire.GetKeyState}, wire.Params{}, func(wire.Status, wire.Params) {})
	if status != wire.InvalidParameter {
		t.Errorf("status = %v, want InvalidParameter", status)
	}
}

func TestIdentifyAlwaysSucceeds(t *testing.T) {
	d := New()
	if status := d.Handle(nil, wire.Event{Code: wire.Identify}, nil, func(wire.Status, wire.Params) {}); status != wire.Success {
		t.Errorf("status = %v, want Success", status)
	}
}

func TestUnknownCodeIsInvalidRequest(t *testing.T) {
	d := New()
	status := d.Handle(nil, wire.Event{Code: wire.Code(9999)}, nil, func(wire.Status, wire.Params) {})
	if status != wire.InvalidRequest {
		t.Errorf("status = %v, want InvalidRequest", status)
	}
}
