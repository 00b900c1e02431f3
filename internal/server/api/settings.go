package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ayusman/mudra/internal/config"
)

// SettingsStore reads and updates the retargeting tunables.
type SettingsStore interface {
	Settings() config.Retarget
	UpdateSettings(fn func(*config.Retarget)) (config.Retarget, error)
}

// SettingsHandler serves GET and PUT on /api/settings. A PUT body is merged
// onto the current settings so clients may send only the fields they change.
type SettingsHandler struct {
	settings SettingsStore
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(s SettingsStore) *SettingsHandler {
	return &SettingsHandler{settings: s}
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.settings.Settings())
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}
	var decoded config.Retarget
	if err := json.Unmarshal(body, &decoded); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	got, err := h.settings.UpdateSettings(func(c *config.Retarget) {
		// body already decoded once above, so this cannot fail.
		_ = json.Unmarshal(body, c)
	})
	switch {
	case errors.Is(err, config.ErrOutOfRange):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeJSON(w, http.StatusServiceUnavailable, settingsError{Error: err.Error(), Settings: got})
	default:
		writeJSON(w, http.StatusOK, got)
	}
}

// settingsError reports a failed side effect, such as the camera not
// starting, along with the settings that were stored.
type settingsError struct {
	Error    string          `json:"error"`
	Settings config.Retarget `json:"settings"`
}
