package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/simplecms/mediacore/pkg/mediacore"
	"github.com/simplecms/mediacore/pkg/mediacore/render"
)

// ImgHandler serves rendered derivatives. Everything it emits is safe to
// cache forever: the path plus ETag fully determine the bytes.
type ImgHandler struct {
	renderer *render.Renderer
}

// NewImgHandler creates a new derivative handler
func NewImgHandler(renderer *render.Renderer) *ImgHandler {
	return &ImgHandler{renderer: renderer}
}

// Routes returns the router for the public image endpoint
func (h *ImgHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{preset}/{a}/{b}/{hash}.{type}", h.Get)
	return r
}

// Get handles GET /img/{preset}/{aa}/{bb}/{hash}.{type}
func (h *ImgHandler) Get(w http.ResponseWriter, r *http.Request) {
	req := render.Request{
		Preset:      chi.URLParam(r, "preset"),
		A:           chi.URLParam(r, "a"),
		B:           chi.URLParam(r, "b"),
		Hash:        chi.URLParam(r, "hash"),
		Type:        chi.URLParam(r, "type"),
		IfNoneMatch: r.Header.Get("If-None-Match"),
	}

	result, err := h.renderer.Render(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", render.CacheControl)
	w.Header().Set("ETag", result.ETag)

	if result.NotModified {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if !result.LastModified.IsZero() {
		w.Header().Set("Last-Modified", result.LastModified.UTC().Format(http.TimeFormat))
	}
	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", req.Hash+"."+mediacore.NormalizeType(req.Type)))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(result.Bytes)))
	w.WriteHeader(http.StatusOK)
	w.Write(result.Bytes)
}
