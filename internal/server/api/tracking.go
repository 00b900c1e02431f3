package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/mudra/internal/config"
)

// Tracker controls camera tracking through the persisted HandTracking
// setting.
type Tracker interface {
	SettingsStore
	CameraRunning() bool
}

// TrackingHandler serves /api/tracking: GET reports whether the camera
// is running, POST {"camera": bool} starts or stops it.
type TrackingHandler struct {
	tracker Tracker
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(t Tracker) *TrackingHandler {
	return &TrackingHandler{tracker: t}
}

type trackingState struct {
	Camera bool `json:"camera"`
}

func (h *TrackingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, trackingState{Camera: h.tracker.CameraRunning()})
	case http.MethodPost:
		var req trackingState
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if _, err := h.tracker.UpdateSettings(func(c *config.Retarget) { c.HandTracking = req.Camera }); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, trackingState{Camera: h.tracker.CameraRunning()})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
