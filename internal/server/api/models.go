package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/store"
)

// ModelSelector installs a hand model on the local hands.
type ModelSelector interface {
	LoadModel(ctx context.Context, id string)
	ModelID() string
}

// ModelHandler handles HTTP requests for hand model resources.
type ModelHandler struct {
	store    *store.Store
	selector ModelSelector
}

// NewModelHandler creates a new ModelHandler. A nil selector disables the
// select endpoint.
func NewModelHandler(s *store.Store, sel ModelSelector) *ModelHandler {
	return &ModelHandler{store: s, selector: sel}
}

// ServeHTTP routes /api/models, /api/models/{id} and
// /api/models/{id}/select.
func (h *ModelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/models")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id, action, _ := strings.Cut(path, "/")
	if action == "select" {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.selectModel(w, r, id)
		return
	}
	if action != "" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type modelRequest struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	BoneAxis string `json:"boneAxis"`
}

type modelResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	BoneAxis  string `json:"boneAxis"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type listModelsResponse struct {
	Models []modelResponse `json:"models"`
}

var boneAxes = map[string]bool{"x": true, "y": true, "z": true, "xn": true, "yn": true, "zn": true}

func (h *ModelHandler) toResponse(m *store.HandModel) modelResponse {
	return modelResponse{
		ID:        m.ID,
		Name:      m.Name,
		Path:      m.Path,
		BoneAxis:  m.BoneAxis,
		Active:    h.selector != nil && h.selector.ModelID() == m.ID,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
		UpdatedAt: m.UpdatedAt.Format(time.RFC3339),
	}
}

func (req modelRequest) validate() string {
	switch {
	case req.Name == "":
		return "Name is required"
	case req.Path == "":
		return "Path is required"
	case req.BoneAxis != "" && !boneAxes[req.BoneAxis]:
		return "Invalid bone axis"
	}
	return ""
}

func (h *ModelHandler) list(w http.ResponseWriter, r *http.Request) {
	models, err := h.store.HandModels().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list models")
		return
	}

	resp := listModelsResponse{Models: make([]modelResponse, 0, len(models))}
	for _, m := range models {
		resp.Models = append(resp.Models, h.toResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ModelHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	m, err := h.store.HandModels().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Model not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get model")
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(m))
}

func (h *ModelHandler) create(w http.ResponseWriter, r *http.Request) {
	var req modelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	m := &store.HandModel{Name: req.Name, Path: req.Path, BoneAxis: req.BoneAxis}
	if err := h.store.HandModels().Create(m); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create model")
		return
	}
	writeJSON(w, http.StatusCreated, h.toResponse(m))
}

func (h *ModelHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var req modelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	m, err := h.store.HandModels().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Model not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get model")
		return
	}

	if req.Name == "" {
		req.Name = m.Name
	}
	if req.Path == "" {
		req.Path = m.Path
	}
	if req.BoneAxis == "" {
		req.BoneAxis = m.BoneAxis
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	m.Name, m.Path, m.BoneAxis = req.Name, req.Path, req.BoneAxis

	if err := h.store.HandModels().Update(m); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update model")
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(m))
}

func (h *ModelHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if id == store.DefaultModelID {
		writeError(w, http.StatusConflict, "The default model cannot be deleted")
		return
	}
	if err := h.store.HandModels().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Model not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete model")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// selectModel starts loading the model onto the local hands. The load is
// asynchronous; the response only confirms the model exists.
func (h *ModelHandler) selectModel(w http.ResponseWriter, r *http.Request, id string) {
	if h.selector == nil {
		writeError(w, http.StatusServiceUnavailable, "Model selection unavailable")
		return
	}
	m, err := h.store.HandModels().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Model not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get model")
		return
	}

	h.selector.LoadModel(context.WithoutCancel(r.Context()), m.ID)
	writeJSON(w, http.StatusAccepted, h.toResponse(m))
}
