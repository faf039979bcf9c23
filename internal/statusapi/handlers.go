package statusapi

import (
	"net/http"
	"time"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/casimir/scene"
)

// handler serves casimir's read-only status endpoints.
type handler struct {
	scene     *scene.Scene
	startTime time.Time
}

func newHandler(sc *scene.Scene) *handler {
	return &handler{scene: sc, startTime: time.Now()}
}

// Liveness handles GET /healthz - a plain liveness probe. It always
// succeeds as long as the HTTP server itself is responsive.
func (h *handler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	writeJSON(w, http.StatusOK, healthyResponse(map[string]interface{}{
		"service":    "casimir",
		"started_at": h.startTime.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// statusResponse is the payload served by GET /status.
type statusResponse struct {
	MaxDevices     int                  `json:"max_devices"`
	ActiveDevices  int                  `json:"active_devices"`
	ConnectedSlots []scene.DeviceStatus `json:"connected_slots"`
}

// Status handles GET /status - a snapshot of every currently connected
// emulated device.
func (h *handler) Status(w http.ResponseWriter, r *http.Request) {
	devices := h.scene.Devices()
	writeJSON(w, http.StatusOK, healthyResponse(statusResponse{
		MaxDevices:     scene.MaxDevices,
		ActiveDevices:  len(devices),
		ConnectedSlots: devices,
	}))
}
