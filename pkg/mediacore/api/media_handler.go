package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/simplecms/mediacore/pkg/mediacore"
)

const maxUploadMemory = 32 << 20

// MediaHandler handles upload, listing and crop editing endpoints
type MediaHandler struct {
	service mediacore.Service
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(service mediacore.Service) *MediaHandler {
	return &MediaHandler{service: service}
}

// Routes returns the router for media endpoints
func (h *MediaHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/new", h.Upload)
	r.Get("/crop/{hash}", h.GetCrops)
	r.Post("/crop/{preset}/{hash}", h.SaveCrop)
	r.Post("/crop-group/{ratioKey}/{hash}", h.SaveCropGroup)
	return r
}

// List handles GET /media?page=&pageSize=
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 24
	}

	result, err := h.service.ListAssets(r.Context(), page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// Upload handles POST /media/new (multipart: file, altText, meta)
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorBody{Error: "missing_file", Message: "malformed multipart request"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorBody{Error: "missing_file", Message: "no file received"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorBody{Error: "missing_file", Message: "file could not be read"})
		return
	}

	var meta map[string]interface{}
	if raw := strings.TrimSpace(r.FormValue("meta")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, errorBody{Error: "invalid_meta", Message: "meta must be a JSON object"})
			return
		}
	}

	asset, err := h.service.Upload(r.Context(), mediacore.UploadRequest{
		Data:       data,
		FileName:   header.Filename,
		ClientMime: header.Header.Get("Content-Type"),
		AltText:    r.FormValue("altText"),
		UploadedBy: uploaderFrom(r),
		Meta:       meta,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("media uploaded", "hash", asset.Hash, "mime", asset.Mime, "bytes", asset.Bytes)
	render.JSON(w, r, asset)
}

// GetCrops handles GET /media/crop/{hash}: the crop editor read model,
// presets grouped by ratio key with any stored rectangles.
func (h *MediaHandler) GetCrops(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.GetCropsForAsset(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, groups)
}

// SaveCrop handles POST /media/crop/{preset}/{hash} (form: x,y,w,h)
func (h *MediaHandler) SaveCrop(w http.ResponseWriter, r *http.Request) {
	rect, ok := rectFromForm(w, r)
	if !ok {
		return
	}

	_, err := h.service.SaveCrop(r.Context(), mediacore.SaveCropRequest{
		PresetName: chi.URLParam(r, "preset"),
		AssetHash:  chi.URLParam(r, "hash"),
		Rect:       rect,
		UpdatedBy:  uploaderFrom(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"ok": true})
}

// SaveCropGroup handles POST /media/crop-group/{ratioKey}/{hash}
func (h *MediaHandler) SaveCropGroup(w http.ResponseWriter, r *http.Request) {
	rect, ok := rectFromForm(w, r)
	if !ok {
		return
	}

	updated, err := h.service.SaveCropGroup(r.Context(), mediacore.SaveCropGroupRequest{
		RatioKey:  chi.URLParam(r, "ratioKey"),
		AssetHash: chi.URLParam(r, "hash"),
		Rect:      rect,
		UpdatedBy: uploaderFrom(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"ok": true, "updated": updated})
}

// rectFromForm parses the x,y,w,h form fields. Values use an invariant
// decimal point regardless of locale.
func rectFromForm(w http.ResponseWriter, r *http.Request) (mediacore.CropRect, bool) {
	var rect mediacore.CropRect
	fields := []struct {
		name string
		dst  *float64
	}{
		{"x", &rect.X}, {"y", &rect.Y}, {"w", &rect.W}, {"h", &rect.H},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue(f.name)), 64)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, errorBody{Error: "invalid_rect", Message: "x, y, w and h must be decimal numbers"})
			return rect, false
		}
		*f.dst = v
	}
	return rect, true
}

// uploaderFrom identifies the acting user. Authentication is handled
// upstream; a reverse proxy or session middleware sets the header.
func uploaderFrom(r *http.Request) string {
	if u := r.Header.Get("X-User"); u != "" {
		return u
	}
	return "system"
}
