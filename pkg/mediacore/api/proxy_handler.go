package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/simplecms/mediacore/pkg/mediacore"
)

// proxyCacheControl is shorter-lived than the rendered derivative policy
// because work and thumbnail objects are overwritten on re-upload.
const proxyCacheControl = "private, max-age=3600"

// ProxyHandler streams work and thumbnail objects straight from the blob
// store, for the editing UI that needs originals-sized previews without
// going through a preset.
type ProxyHandler struct {
	blobs   mediacore.BlobStore
	buckets mediacore.Buckets
}

// NewProxyHandler creates a new blob proxy handler
func NewProxyHandler(blobs mediacore.BlobStore, buckets mediacore.Buckets) *ProxyHandler {
	return &ProxyHandler{blobs: blobs, buckets: buckets}
}

// Routes returns the router for proxy endpoints
func (h *ProxyHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{bucket}/{a}/{b}/{file}", h.Get)
	return r
}

// Get handles GET /cmsimg/{bucket}/{a}/{b}/{file}
func (h *ProxyHandler) Get(w http.ResponseWriter, r *http.Request) {
	bucket, ok := h.resolveBucket(chi.URLParam(r, "bucket"))
	if !ok {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorBody{Error: "invalid_bucket", Message: "unknown bucket alias"})
		return
	}

	a := chi.URLParam(r, "a")
	b := chi.URLParam(r, "b")
	file := chi.URLParam(r, "file")
	if !validShard(a) || !validShard(b) || !validFileName(file) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorBody{Error: "invalid_path", Message: "malformed object path"})
		return
	}

	obj, err := h.blobs.Get(r.Context(), bucket, a+"/"+b+"/"+file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", proxyCacheControl)
	if obj.ETag != "" {
		w.Header().Set("ETag", obj.ETag)
	}
	if !obj.LastModified.IsZero() {
		w.Header().Set("Last-Modified", obj.LastModified.UTC().Format(http.TimeFormat))
	}
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", file))
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(obj.Data)
}

// resolveBucket maps the public alias to the configured bucket name. The
// originals bucket is deliberately not exposed.
func (h *ProxyHandler) resolveBucket(alias string) (string, bool) {
	switch alias {
	case "work":
		return h.buckets.Work, true
	case "thumbnail":
		return h.buckets.Thumbnail, true
	default:
		return "", false
	}
}

func validShard(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func validFileName(s string) bool {
	if s == "" || strings.ContainsAny(s, "/\\") || strings.Contains(s, "..") {
		return false
	}
	return true
}
