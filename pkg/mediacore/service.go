package mediacore

import "context"

// Service is the media core: ingestion, preset registry and crop store.
// Rendering lives in the render package and reads through the same Repository
// and BlobStore.
type Service interface {
	// Ingestion
	Upload(ctx context.Context, req UploadRequest) (*MediaAsset, error)
	ListAssets(ctx context.Context, page, pageSize int) (*AssetPage, error)
	GetAssetByHash(ctx context.Context, hash string) (*MediaAsset, error)

	// Preset registry
	CreatePreset(ctx context.Context, req SavePresetRequest) (*MediaPreset, error)
	UpdatePreset(ctx context.Context, name string, req SavePresetRequest) (*MediaPreset, error)
	GetPreset(ctx context.Context, name string) (*MediaPreset, error)
	ListPresets(ctx context.Context) ([]*MediaPreset, error)
	DeletePreset(ctx context.Context, name string) error

	// Crop store
	SaveCrop(ctx context.Context, req SaveCropRequest) (*MediaAssetCrop, error)
	SaveCropGroup(ctx context.Context, req SaveCropGroupRequest) (int, error)
	GetCrop(ctx context.Context, assetHash, presetName string) (*MediaAssetCrop, error)
	GetCropsForAsset(ctx context.Context, assetHash string) ([]*RatioGroup, error)
}
