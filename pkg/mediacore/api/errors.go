package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/simplecms/mediacore/pkg/mediacore"
)

// errorBody is the JSON error envelope: a stable machine-readable code plus a
// human-readable message. Internals never leak.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError maps service errors onto the HTTP status/code contract.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if coded, ok := mediacore.AsError(err); ok {
		render.Status(r, coded.Status)
		render.JSON(w, r, errorBody{Error: coded.Code, Message: coded.Message})
		return
	}

	switch {
	case errors.Is(err, mediacore.ErrPresetNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorBody{Error: "preset_not_found", Message: "unknown preset"})
	case errors.Is(err, mediacore.ErrAssetNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorBody{Error: "asset_not_found", Message: "unknown asset"})
	case errors.Is(err, mediacore.ErrCropNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorBody{Error: "crop_not_found", Message: "no crop stored"})
	case errors.Is(err, mediacore.ErrObjectNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorBody{Error: "object_not_found", Message: "object not found"})
	case errors.Is(err, mediacore.ErrObjectForbidden):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, errorBody{Error: "object_forbidden", Message: "access to object denied"})
	default:
		var codecErr *mediacore.CodecError
		if errors.As(err, &codecErr) {
			slog.Error("codec failure", "error", err)
			render.Status(r, http.StatusUnsupportedMediaType)
			render.JSON(w, r, errorBody{Error: "codec_error", Message: "image could not be processed"})
			return
		}

		var storageErr *mediacore.StorageError
		if errors.As(err, &storageErr) {
			slog.Error("storage failure", "error", err)
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, errorBody{Error: "storage_error", Message: "object store unavailable"})
			return
		}

		slog.Error("internal error", "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errorBody{Error: "internal_error", Message: "internal server error"})
	}
}
