package statusapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/padl/surrogate/config"
	"github.com/padl/surrogate/engine"
)

func newTestController(t *testing.T) *engine.Controller {
	t.Helper()
	return engine.Create(config.Defaults(), nil)
}

func TestHandleStatusReportsDeviceDefaults(t *testing.T) {
	c := newTestController(t)
	h := &handlers{controller: c, hub: newEventHub()}

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	h.handleStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp DeviceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.DeviceID != 10 || resp.DeviceName != "MOM" {
		t.Errorf("unexpected device snapshot: %+v", resp)
	}
	if resp.PeerCount != 0 || resp.HasMaster {
		t.Errorf("expected no peers/master on fresh controller, got %+v", resp)
	}
}

func TestHandlePeersEmptyOnFreshController(t *testing.T) {
	c := newTestController(t)
	h := &handlers{controller: c, hub: newEventHub()}

	req := httptest.NewRequest(http.MethodGet, "/peers", nil)
	rec := httptest.NewRecorder()
	h.handlePeers(rec, req)

	var resp []PeerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp) != 0 {
		t.Errorf("len(resp) = %d, want 0", len(resp))
	}
}

func TestServerAddressFormatting(t *testing.T) {
	c := newTestController(t)
	s := NewServer(Config{Host: "127.0.0.1", Port: 8090}, c)
	if got, want := s.Address(), "http://127.0.0.1:8090"; got != want {
		t.Errorf("Address() = %q, want %q", got, want)
	}
}
