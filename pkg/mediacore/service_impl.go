package mediacore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/simplecms/mediacore/pkg/mediacore/codec"
	"github.com/simplecms/mediacore/pkg/mediacore/objectkey"
)

// ThumbnailMaxWidth bounds the ingestion thumbnail; aspect is preserved.
const ThumbnailMaxWidth = 320

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,63}$`)

// UploadConfig controls ingestion validation and normalization.
type UploadConfig struct {
	// MaxBytes rejects payloads above this size with 413.
	MaxBytes int64

	// AllowedMime is the client MIME allowlist checked before decoding.
	AllowedMime []string

	// StripMetadata re-encodes uploads without EXIF/ICC before hashing.
	// Changing it changes what the content hash represents: with stripping
	// on, identical pixels with different metadata hash identically.
	StripMetadata bool
}

// DefaultUploadConfig matches the conventional deployment.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		MaxBytes:      20_000_000,
		AllowedMime:   []string{"image/jpeg", "image/png", "image/webp"},
		StripMetadata: true,
	}
}

// service implements the Service interface
type service struct {
	repository    Repository
	blobs         BlobStore
	buckets       Buckets
	upload        UploadConfig
	publicBaseURL string
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the catalog repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the object store for the service
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobs = store
	}
}

// WithBuckets overrides the logical bucket names
func WithBuckets(buckets Buckets) Option {
	return func(s *service) {
		s.buckets = buckets
	}
}

// WithUploadConfig overrides ingestion validation settings
func WithUploadConfig(cfg UploadConfig) Option {
	return func(s *service) {
		s.upload = cfg
	}
}

// WithPublicBaseURL sets the base URL prepended to original object keys
func WithPublicBaseURL(base string) Option {
	return func(s *service) {
		s.publicBaseURL = strings.TrimRight(base, "/")
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		buckets: DefaultBuckets(),
		upload:  DefaultUploadConfig(),
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}

	return s, nil
}

// Ingestion

func (s *service) Upload(ctx context.Context, req UploadRequest) (*MediaAsset, error) {
	mime := strings.ToLower(strings.TrimSpace(req.ClientMime))
	if mime == "" {
		mime = "application/octet-stream"
	}
	if !s.mimeAllowed(mime) {
		return nil, NewError(415, "unsupported_mime", "MIME type not allowed")
	}
	if len(req.Data) == 0 {
		return nil, NewError(400, "missing_file", "no file received")
	}
	if int64(len(req.Data)) > s.upload.MaxBytes {
		return nil, NewError(413, "file_too_large", fmt.Sprintf("file exceeds max %d bytes", s.upload.MaxBytes))
	}

	img, format, err := codec.Decode(req.Data)
	if err != nil {
		return nil, NewError(415, "unsupported_mime", "file is not a supported image")
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	// The hash covers the bytes actually persisted as original: the
	// stripped re-encode when stripping is on, the raw upload otherwise.
	originalPayload := req.Data
	if s.upload.StripMetadata {
		enc, err := codec.EncoderForFormat(format)
		if err != nil {
			return nil, NewError(415, "unsupported_mime", "only jpeg, png and webp are supported")
		}
		originalPayload, err = enc.Encode(img)
		if err != nil {
			return nil, &CodecError{Op: "strip", Err: err}
		}
	}

	sum := sha256.Sum256(originalPayload)
	hash := hex.EncodeToString(sum[:])

	ext := codec.FormatExt(format)
	canonicalMime := codec.FormatMime(format)
	originalKey := objectkey.ForHash(hash, ext)

	originalURL := originalKey
	if s.publicBaseURL != "" {
		originalURL = s.publicBaseURL + "/" + originalKey
	}

	if err := s.blobs.Put(ctx, s.buckets.Originals, originalKey, originalPayload, canonicalMime); err != nil {
		return nil, &StorageError{Bucket: s.buckets.Originals, Key: originalKey, Op: "put", Err: err}
	}

	// Work copy and thumbnail are regenerable from the original; failures
	// must never fail the upload.
	workKey := objectkey.ForHash(hash, "webp")
	s.putDerivative(ctx, s.buckets.Work, workKey, img, codec.WebpEncoder{Quality: codec.QualityDefault})
	s.putDerivative(ctx, s.buckets.Thumbnail, workKey, thumbnailOf(img), codec.WebpEncoder{Quality: codec.QualityThumbnail})

	asset := &MediaAsset{
		ID:          uuid.New(),
		Hash:        hash,
		OriginalURL: originalURL,
		Mime:        canonicalMime,
		Width:       width,
		Height:      height,
		Bytes:       int64(len(originalPayload)),
		UploadedBy:  req.UploadedBy,
		CreatedAt:   time.Now().UTC(),
		Meta:        req.Meta,
	}
	if alt := strings.TrimSpace(req.AltText); alt != "" {
		asset.AltText = &alt
	}

	// Catalog insert failure is fatal. The object-store writes above are not
	// rolled back: keys are content-addressed, so a retry rewrites the same
	// bytes under the same keys.
	if err := s.repository.CreateAsset(ctx, asset); err != nil {
		return nil, fmt.Errorf("create asset: %w", err)
	}

	return asset, nil
}

// putDerivative encodes and stores a best-effort derivative. Errors are
// logged and swallowed; the original is the durable source of truth.
func (s *service) putDerivative(ctx context.Context, bucket, key string, img image.Image, enc codec.Encoder) {
	data, err := enc.Encode(img)
	if err != nil {
		slog.Warn("derivative encode failed", "bucket", bucket, "key", key, "error", err)
		return
	}
	if err := s.blobs.Put(ctx, bucket, key, data, enc.ContentType()); err != nil {
		slog.Warn("derivative upload failed", "bucket", bucket, "key", key, "error", err)
	}
}

func (s *service) mimeAllowed(mime string) bool {
	for _, allowed := range s.upload.AllowedMime {
		if strings.EqualFold(allowed, mime) {
			return true
		}
	}
	return false
}

func (s *service) ListAssets(ctx context.Context, page, pageSize int) (*AssetPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > 100 {
		pageSize = 100
	}

	items, total, err := s.repository.ListAssets(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	if items == nil {
		items = []*MediaAsset{}
	}

	return &AssetPage{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

func (s *service) GetAssetByHash(ctx context.Context, hash string) (*MediaAsset, error) {
	return s.repository.GetAssetByHash(ctx, hash)
}

// Preset registry

func (s *service) CreatePreset(ctx context.Context, req SavePresetRequest) (*MediaPreset, error) {
	preset, err := presetFromRequest(req)
	if err != nil {
		return nil, err
	}

	switch _, err := s.repository.GetPresetByName(ctx, preset.Name); {
	case err == nil:
		return nil, NewError(409, "preset_exists", "a preset with this name already exists")
	case !errors.Is(err, ErrPresetNotFound):
		return nil, fmt.Errorf("check preset name: %w", err)
	}

	preset.ID = uuid.New()
	now := time.Now().UTC()
	preset.CreatedAt = now
	preset.UpdatedAt = now

	if err := s.repository.CreatePreset(ctx, preset); err != nil {
		return nil, fmt.Errorf("create preset: %w", err)
	}
	return preset, nil
}

func (s *service) UpdatePreset(ctx context.Context, name string, req SavePresetRequest) (*MediaPreset, error) {
	existing, err := s.repository.GetPresetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	updated, err := presetFromRequest(req)
	if err != nil {
		return nil, err
	}

	// Renaming is allowed. Crops reference presets by name, so a rename
	// orphans existing crop rows; they are not migrated.
	if updated.Name != existing.Name {
		switch _, err := s.repository.GetPresetByName(ctx, updated.Name); {
		case err == nil:
			return nil, NewError(409, "preset_exists", "a preset with this name already exists")
		case !errors.Is(err, ErrPresetNotFound):
			return nil, fmt.Errorf("check preset name: %w", err)
		}
		slog.Info("preset renamed, existing crops keep the old name",
			"old", existing.Name, "new", updated.Name)
	}

	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdatePreset(ctx, updated); err != nil {
		return nil, fmt.Errorf("update preset: %w", err)
	}
	return updated, nil
}

func (s *service) GetPreset(ctx context.Context, name string) (*MediaPreset, error) {
	return s.repository.GetPresetByName(ctx, name)
}

func (s *service) ListPresets(ctx context.Context) ([]*MediaPreset, error) {
	return s.repository.ListPresets(ctx)
}

func (s *service) DeletePreset(ctx context.Context, name string) error {
	return s.repository.DeletePreset(ctx, name)
}

func presetFromRequest(req SavePresetRequest) (*MediaPreset, error) {
	name := strings.ToLower(strings.TrimSpace(req.Name))
	if !slugPattern.MatchString(name) {
		return nil, NewError(400, "invalid_slug", "name must be 2-64 chars of lowercase letters, digits, '-' and '_'")
	}
	// "new" collides with the creation route.
	if name == "new" {
		return nil, NewError(400, "invalid_slug", "the name 'new' is reserved")
	}
	if req.Width < 0 || req.Width > 10000 || req.Height < 0 || req.Height > 10000 {
		return nil, NewError(400, "invalid_preset", "width and height must be within [0,10000]")
	}

	types := normalizeTypes(req.Types)
	if len(types) == 0 {
		return nil, NewError(400, "invalid_preset", "at least one output type is required")
	}
	for _, t := range types {
		if !typeInUniverse(t) {
			return nil, NewError(400, "invalid_preset", fmt.Sprintf("output type %q is not allowed", t))
		}
	}

	preset := &MediaPreset{
		Name:   name,
		Width:  req.Width,
		Height: req.Height,
		Types:  types,
	}
	preset.DeriveRatio()
	return preset, nil
}

func normalizeTypes(types []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range types {
		t = NormalizeType(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func typeInUniverse(t string) bool {
	for _, u := range AllowedTypesUniverse {
		if t == u {
			return true
		}
	}
	return false
}

// NormalizeType canonicalizes an output type name: trimmed, lowercased, with
// the "jpeg" alias mapped to "jpg".
func NormalizeType(ext string) string {
	t := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(ext, ".")))
	if t == "jpeg" {
		t = TypeJpg
	}
	return t
}

// Crop store

func (s *service) SaveCrop(ctx context.Context, req SaveCropRequest) (*MediaAssetCrop, error) {
	if err := req.Rect.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.repository.GetPresetByName(ctx, req.PresetName); err != nil {
		return nil, err
	}

	crop := &MediaAssetCrop{
		ID:         uuid.New(),
		AssetHash:  req.AssetHash,
		PresetName: req.PresetName,
		Rect:       req.Rect,
		UpdatedBy:  req.UpdatedBy,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := s.repository.UpsertCrop(ctx, crop); err != nil {
		return nil, fmt.Errorf("upsert crop: %w", err)
	}
	return crop, nil
}

func (s *service) SaveCropGroup(ctx context.Context, req SaveCropGroupRequest) (int, error) {
	if err := req.Rect.Validate(); err != nil {
		return 0, err
	}

	presets, err := s.repository.ListPresetsByRatioKey(ctx, req.RatioKey)
	if err != nil {
		return 0, fmt.Errorf("list presets by ratio: %w", err)
	}
	if len(presets) == 0 {
		return 0, NewError(404, "ratio_not_found", "no preset matches this ratio key")
	}

	now := time.Now().UTC()
	for _, p := range presets {
		crop := &MediaAssetCrop{
			ID:         uuid.New(),
			AssetHash:  req.AssetHash,
			PresetName: p.Name,
			Rect:       req.Rect,
			UpdatedBy:  req.UpdatedBy,
			UpdatedAt:  now,
		}
		if err := s.repository.UpsertCrop(ctx, crop); err != nil {
			return 0, fmt.Errorf("upsert crop for preset %s: %w", p.Name, err)
		}
	}
	return len(presets), nil
}

func (s *service) GetCrop(ctx context.Context, assetHash, presetName string) (*MediaAssetCrop, error) {
	return s.repository.GetCrop(ctx, assetHash, presetName)
}

func (s *service) GetCropsForAsset(ctx context.Context, assetHash string) ([]*RatioGroup, error) {
	presets, err := s.repository.ListPresets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	crops, err := s.repository.ListCropsByAssetHash(ctx, assetHash)
	if err != nil {
		return nil, fmt.Errorf("list crops: %w", err)
	}

	byPreset := make(map[string]*MediaAssetCrop, len(crops))
	for _, c := range crops {
		byPreset[c.PresetName] = c
	}

	var groups []*RatioGroup
	index := make(map[string]*RatioGroup)
	for _, p := range presets {
		g, ok := index[p.RatioKey]
		if !ok {
			g = &RatioGroup{RatioKey: p.RatioKey}
			index[p.RatioKey] = g
			groups = append(groups, g)
		}
		g.Presets = append(g.Presets, &PresetCrop{Preset: p, Crop: byPreset[p.Name]})
	}
	return groups, nil
}

// thumbnailOf scales the image down to ThumbnailMaxWidth, preserving aspect
// ratio. Images already narrower are left untouched.
func thumbnailOf(img image.Image) image.Image {
	if img.Bounds().Dx() <= ThumbnailMaxWidth {
		return img
	}
	return imaging.Resize(img, ThumbnailMaxWidth, 0, imaging.CatmullRom)
}
