package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/simplecms/mediacore/pkg/mediacore"
)

// PresetHandler handles preset registry endpoints
type PresetHandler struct {
	service mediacore.Service
}

// NewPresetHandler creates a new preset handler
func NewPresetHandler(service mediacore.Service) *PresetHandler {
	return &PresetHandler{service: service}
}

// Routes returns the router for preset endpoints
func (h *PresetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/new", h.Create)
	r.Get("/{preset}", h.Get)
	r.Post("/{preset}", h.Update)
	r.Delete("/{preset}", h.Delete)
	return r
}

type presetPayload struct {
	Name   string   `json:"name"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Types  []string `json:"types"`
}

// List handles GET /media/preset
func (h *PresetHandler) List(w http.ResponseWriter, r *http.Request) {
	presets, err := h.service.ListPresets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, presets)
}

// Create handles POST /media/preset/new
func (h *PresetHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := presetRequest(w, r)
	if !ok {
		return
	}
	preset, err := h.service.CreatePreset(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, preset)
}

// Get handles GET /media/preset/{preset}
func (h *PresetHandler) Get(w http.ResponseWriter, r *http.Request) {
	preset, err := h.service.GetPreset(r.Context(), chi.URLParam(r, "preset"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, preset)
}

// Update handles POST /media/preset/{preset}
func (h *PresetHandler) Update(w http.ResponseWriter, r *http.Request) {
	req, ok := presetRequest(w, r)
	if !ok {
		return
	}
	preset, err := h.service.UpdatePreset(r.Context(), chi.URLParam(r, "preset"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, preset)
}

// Delete handles DELETE /media/preset/{preset}
func (h *PresetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePreset(r.Context(), chi.URLParam(r, "preset")); err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"ok": true})
}

func presetRequest(w http.ResponseWriter, r *http.Request) (mediacore.SavePresetRequest, bool) {
	var payload presetPayload
	if err := render.DecodeJSON(r.Body, &payload); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorBody{Error: "invalid_body", Message: "request body must be a JSON object"})
		return mediacore.SavePresetRequest{}, false
	}
	return mediacore.SavePresetRequest{
		Name:   payload.Name,
		Width:  payload.Width,
		Height: payload.Height,
		Types:  payload.Types,
	}, true
}
