package mediacore

// UploadRequest carries one uploaded file into ingestion.
type UploadRequest struct {
	Data       []byte
	FileName   string
	ClientMime string
	AltText    string
	UploadedBy string
	Meta       map[string]interface{}
}

// SavePresetRequest creates or updates a preset. Ratio fields are always
// derived server-side; any client-supplied values are ignored.
type SavePresetRequest struct {
	Name   string
	Width  int
	Height int
	Types  []string
}

// SaveCropRequest upserts the crop rectangle for one (asset, preset) pair.
type SaveCropRequest struct {
	PresetName string
	AssetHash  string
	Rect       CropRect
	UpdatedBy  string
}

// SaveCropGroupRequest upserts the same rectangle for every preset sharing a
// ratio key.
type SaveCropGroupRequest struct {
	RatioKey  string
	AssetHash string
	Rect      CropRect
	UpdatedBy string
}
