package mediacore

import (
	"context"
	"time"
)

// BlobStore defines the object store contract the core consumes. Errors from
// Get must be classified: a missing object unwraps to ErrObjectNotFound,
// denied access to ErrObjectForbidden; anything else is surfaced as-is.
type BlobStore interface {
	// Put stores an object under bucket+key with the given content type.
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error

	// Get retrieves an object with its metadata.
	Get(ctx context.Context, bucket, key string) (*StoredObject, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, bucket, key string) error
}

// StoredObject is an object read back from a BlobStore.
type StoredObject struct {
	Data         []byte
	ContentType  string
	ETag         string
	LastModified time.Time
}

// Buckets names the three logical buckets the pipeline writes to.
type Buckets struct {
	Originals string
	Work      string
	Thumbnail string
}

// DefaultBuckets returns the conventional bucket names.
func DefaultBuckets() Buckets {
	return Buckets{Originals: "originals", Work: "work", Thumbnail: "thumbnail"}
}

// Repository defines the catalog contract: asset metadata, preset definitions
// and crop rectangles. Implementations must honor context cancellation on
// every call.
type Repository interface {
	// Asset operations
	CreateAsset(ctx context.Context, asset *MediaAsset) error
	GetAssetByHash(ctx context.Context, hash string) (*MediaAsset, error)
	ListAssets(ctx context.Context, limit, offset int) ([]*MediaAsset, int64, error)

	// Preset operations
	CreatePreset(ctx context.Context, preset *MediaPreset) error
	UpdatePreset(ctx context.Context, preset *MediaPreset) error
	GetPresetByName(ctx context.Context, name string) (*MediaPreset, error)
	ListPresets(ctx context.Context) ([]*MediaPreset, error)
	ListPresetsByRatioKey(ctx context.Context, ratioKey string) ([]*MediaPreset, error)
	DeletePreset(ctx context.Context, name string) error

	// Crop operations. UpsertCrop inserts on first save for the
	// (asset_hash, preset_name) key and overwrites in place thereafter.
	UpsertCrop(ctx context.Context, crop *MediaAssetCrop) error
	GetCrop(ctx context.Context, assetHash, presetName string) (*MediaAssetCrop, error)
	ListCropsByAssetHash(ctx context.Context, assetHash string) ([]*MediaAssetCrop, error)
}
