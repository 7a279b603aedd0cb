// Package render implements the stateless derivative pipeline: it turns
// (preset, hash, type, optional crop) into encoded image bytes plus a
// deterministic cache key, and relies entirely on HTTP semantics for reuse.
package render

import (
	"context"
	"errors"
	"image"
	"math"
	"runtime"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/semaphore"

	"github.com/simplecms/mediacore/pkg/mediacore"
	"github.com/simplecms/mediacore/pkg/mediacore/codec"
)

// CacheControl is emitted on every 200 and 304: derivatives are pure
// functions of their cache key, so they are safe to cache forever.
const CacheControl = "public, max-age=31536000, immutable"

// Request identifies one derivative.
type Request struct {
	Preset      string
	A           string
	B           string
	Hash        string
	Type        string
	IfNoneMatch string
}

// Result is a rendered derivative, or a conditional hit when NotModified is
// set (in which case Bytes is empty).
type Result struct {
	Bytes        []byte
	ContentType  string
	ETag         string
	LastModified time.Time
	NotModified  bool
}

// Renderer executes the pipeline. It holds no mutable state besides the
// external stores; requests run fully in parallel, with decode and encode
// bounded by a semaphore since every cache miss pays full codec work.
type Renderer struct {
	repo     mediacore.Repository
	blobs    mediacore.BlobStore
	buckets  mediacore.Buckets
	encoders codec.Registry
	sem      *semaphore.Weighted
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithBuckets overrides the logical bucket names.
func WithBuckets(buckets mediacore.Buckets) RendererOption {
	return func(r *Renderer) {
		r.buckets = buckets
	}
}

// WithEncoders replaces the encoder registry.
func WithEncoders(reg codec.Registry) RendererOption {
	return func(r *Renderer) {
		r.encoders = reg
	}
}

// WithConcurrency bounds simultaneous decode/encode work. Values below 1
// fall back to GOMAXPROCS.
func WithConcurrency(n int) RendererOption {
	return func(r *Renderer) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		r.sem = semaphore.NewWeighted(int64(n))
	}
}

// NewRenderer creates a renderer reading presets and crops from repo and work
// copies from blobs. The encoder registry is built once here and shared by
// reference; nothing is discovered at runtime.
func NewRenderer(repo mediacore.Repository, blobs mediacore.BlobStore, opts ...RendererOption) *Renderer {
	r := &Renderer{
		repo:     repo,
		blobs:    blobs,
		buckets:  mediacore.DefaultBuckets(),
		encoders: codec.NewRegistry(),
		sem:      semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render runs the pipeline. Each stage is an early-exit gate; no stage
// retries, the caller or CDN owns retry policy.
func (r *Renderer) Render(ctx context.Context, req Request) (*Result, error) {
	// Path validation happens before any I/O.
	if !isHex(req.A, 2) || !isHex(req.B, 2) || !isHex(req.Hash, 64) {
		return nil, mediacore.NewError(400, "invalid_path", "malformed image path")
	}

	preset, err := r.repo.GetPresetByName(ctx, req.Preset)
	if err != nil {
		if errors.Is(err, mediacore.ErrPresetNotFound) {
			return nil, mediacore.NewError(404, "preset_not_found", "unknown preset")
		}
		return nil, err
	}

	t := mediacore.NormalizeType(req.Type)
	enc, known := r.encoders[t]
	if !known {
		return nil, mediacore.NewError(415, "unsupported_type", "unknown output type")
	}
	if !preset.AllowsType(t) {
		return nil, mediacore.NewError(415, "type_not_allowed_for_preset", "output type not allowed for this preset")
	}

	// Absent crop means no crop; any other repository failure is terminal.
	var crop *mediacore.CropRect
	stored, err := r.repo.GetCrop(ctx, req.Hash, preset.Name)
	switch {
	case err == nil:
		crop = &stored.Rect
	case errors.Is(err, mediacore.ErrCropNotFound):
	default:
		return nil, err
	}

	etag := ETag(req.Hash, preset, t, crop)

	// Conditional hit short-circuits before the source fetch; cache hits are
	// the dominant traffic pattern behind a CDN.
	if matchesETag(req.IfNoneMatch, etag) {
		return &Result{ETag: etag, ContentType: enc.ContentType(), NotModified: true}, nil
	}

	workKey := req.A + "/" + req.B + "/" + req.Hash + ".webp"
	obj, err := r.blobs.Get(ctx, r.buckets.Work, workKey)
	if err != nil {
		if errors.Is(err, mediacore.ErrObjectNotFound) {
			return nil, mediacore.NewError(404, "source_not_found", "work copy not found")
		}
		return nil, &mediacore.StorageError{Bucket: r.buckets.Work, Key: workKey, Op: "get", Err: err}
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.sem.Release(1)

	img, _, err := codec.Decode(obj.Data)
	if err != nil {
		return nil, &mediacore.CodecError{Op: "decode", Err: err}
	}

	// Crop before resize: normalized coordinates refer to the decoded
	// image's pixel space, not the output's.
	if crop != nil {
		img = imaging.Crop(img, cropPixels(*crop, img.Bounds()))
	}

	img = resizeForPreset(img, preset)

	// Decoding dropped any EXIF/ICC payload from the source, so the encode
	// below cannot leak metadata even if the original was stored unstripped.
	data, err := enc.Encode(img)
	if err != nil {
		return nil, &mediacore.CodecError{Op: "encode", Err: err}
	}

	return &Result{
		Bytes:        data,
		ContentType:  enc.ContentType(),
		ETag:         etag,
		LastModified: obj.LastModified,
	}, nil
}

// cropPixels converts a normalized rectangle to absolute pixels against the
// decoded bounds, clamped to a non-empty region fully inside the image.
func cropPixels(rect mediacore.CropRect, bounds image.Rectangle) image.Rectangle {
	w := bounds.Dx()
	h := bounds.Dy()

	x0 := clampInt(int(math.Round(rect.X*float64(w))), 0, w-1)
	y0 := clampInt(int(math.Round(rect.Y*float64(h))), 0, h-1)
	cw := clampInt(int(math.Round(rect.W*float64(w))), 1, w-x0)
	ch := clampInt(int(math.Round(rect.H*float64(h))), 1, h-y0)

	return image.Rect(bounds.Min.X+x0, bounds.Min.Y+y0, bounds.Min.X+x0+cw, bounds.Min.Y+y0+ch)
}

// resizeForPreset applies the preset's resize policy: cover when both target
// dimensions are set, fit when exactly one is, no resize otherwise.
func resizeForPreset(img image.Image, preset *mediacore.MediaPreset) image.Image {
	switch {
	case preset.Width > 0 && preset.Height > 0:
		return imaging.Fill(img, preset.Width, preset.Height, imaging.Center, imaging.CatmullRom)
	case preset.Width > 0:
		return imaging.Resize(img, preset.Width, 0, imaging.CatmullRom)
	case preset.Height > 0:
		return imaging.Resize(img, 0, preset.Height, imaging.CatmullRom)
	default:
		return img
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isHex(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
