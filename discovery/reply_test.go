package discovery

import (
	"testing"

	"github.com/padl/surrogate/config"
)

func TestBuildEnumerateDevicesReply(t *testing.T) {
	opts := config.Defaults()
	opts.DeviceName = "MOM"
	opts.ModelID = "710"
	opts.SerialNumber = "71000000000"

	got := string(buildEnumerateDevices(10, opts, false))
	want := ":edev,10,1,'MOM','710',0,'71000000000',0\r"
	if got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

func TestBuildEnumerateDevicesAnnouncement(t *testing.T) {
	opts := config.Defaults()
	got := string(buildEnumerateDevices(10, opts, true))
	if got[0] != '!' {
		t.Errorf("announcement tag = %q, want '!' prefix", got[:1])
	}
}
