package statusapi

import (
	"encoding/json"
	"net/http"

	"github.com/padl/surrogate/engine"
)

// DeviceResponse is the JSON response for GET /status.
type DeviceResponse struct {
	DeviceID     int32  `json:"device_id"`
	DeviceName   string `json:"device_name"`
	ModelID      string `json:"model_id"`
	SerialNumber string `json:"serial_number"`
	AliveTime    int    `json:"alive_time"`
	PeerCount    int    `json:"peer_count"`
	HasMaster    bool   `json:"has_master"`
	MasterAddr   string `json:"master_addr,omitempty"`
}

// PeerResponse is the JSON response for one entry in GET /peers.
type PeerResponse struct {
	Addr         string `json:"addr"`
	Status       string `json:"status"`
	IsMaster     bool   `json:"is_master"`
	LastActivity string `json:"last_activity,omitempty"`
}

type handlers struct {
	controller *engine.Controller
	hub        *eventHub
}

func (h *handlers) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func deviceSnapshot(c *engine.Controller) DeviceResponse {
	opts := c.GetOptions()
	reg := c.Registry
	resp := DeviceResponse{
		DeviceID:     opts.DeviceID,
		DeviceName:   opts.DeviceName,
		ModelID:      opts.ModelID,
		SerialNumber: opts.SerialNumber,
		AliveTime:    reg.AliveTime(),
		PeerCount:    len(reg.Peers()),
	}
	if m := reg.Master(); m != nil {
		resp.HasMaster = true
		resp.MasterAddr = m.Name
	}
	return resp
}

func peersSnapshot(c *engine.Controller) []PeerResponse {
	peers := c.Registry.Peers()
	out := make([]PeerResponse, 0, len(peers))
	for _, p := range peers {
		pr := PeerResponse{
			Addr:     p.Name,
			Status:   p.Status.String(),
			IsMaster: c.Registry.IsMaster(p),
		}
		if !p.LastActivity.IsZero() {
			pr.LastActivity = p.LastActivity.UTC().Format("2006-01-02T15:04:05Z07:00")
		}
		out = append(out, pr)
	}
	return out
}

func (h *handlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, deviceSnapshot(h.controller))
}

func (h *handlers) handlePeers(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, peersSnapshot(h.controller))
}
