package mediacore

import (
	"time"

	"github.com/google/uuid"
)

// Output types understood by the pipeline. "jpeg" is accepted on the wire and
// normalized to "jpg" before it reaches any of these.
const (
	TypeWebp = "webp"
	TypeJpg  = "jpg"
	TypePng  = "png"
)

// AllowedTypesUniverse is the full set of output types a preset may allow.
var AllowedTypesUniverse = []string{TypeWebp, TypeJpg, TypePng}

// RatioKeyFree marks presets with an unconstrained axis; they belong to no
// ratio group.
const RatioKeyFree = "free"

// MediaAsset is a catalog row for one uploaded image. Hash is the SHA-256 of
// the bytes actually persisted as "original" (post metadata-strip when that is
// enabled), not necessarily of the client's raw upload.
type MediaAsset struct {
	ID          uuid.UUID              `json:"id"`
	Hash        string                 `json:"hash"`
	OriginalURL string                 `json:"original_url"`
	Mime        string                 `json:"mime"`
	Width       int                    `json:"width"`
	Height      int                    `json:"height"`
	Bytes       int64                  `json:"bytes"`
	AltText     *string                `json:"alt_text,omitempty"`
	UploadedBy  string                 `json:"uploaded_by"`
	CreatedAt   time.Time              `json:"created_at"`
	Meta        map[string]interface{} `json:"meta,omitempty"`
}

// MediaPreset is a named output specification. Width/Height of 0 mean the axis
// is unconstrained. RatioW/RatioH/RatioKey are derived from the dimensions and
// never client-supplied.
type MediaPreset struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Types     []string  `json:"types"`
	RatioW    int       `json:"ratio_w"`
	RatioH    int       `json:"ratio_h"`
	RatioKey  string    `json:"ratio_key"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AllowsType reports whether the preset permits the given normalized output
// type.
func (p *MediaPreset) AllowsType(t string) bool {
	for _, allowed := range p.Types {
		if allowed == t {
			return true
		}
	}
	return false
}

// DeriveRatio recomputes RatioW/RatioH/RatioKey from Width and Height.
func (p *MediaPreset) DeriveRatio() {
	p.RatioW, p.RatioH, p.RatioKey = ReduceRatio(p.Width, p.Height)
}

// MediaAssetCrop is a normalized crop rectangle for one (asset, preset) pair.
// Created on first save, overwritten thereafter; never soft-deleted.
type MediaAssetCrop struct {
	ID         uuid.UUID `json:"id"`
	AssetHash  string    `json:"asset_hash"`
	PresetName string    `json:"preset_name"`
	Rect       CropRect  `json:"rect"`
	UpdatedBy  string    `json:"updated_by"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CropRect is a crop region expressed as fractions of image width/height,
// independent of actual pixel dimensions.
type CropRect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// RectEpsilon absorbs float rounding on the far edges of a crop rectangle.
const RectEpsilon = 1e-6

// Validate checks the rectangle invariants: 0<=x,y; w,h>0; x+w and y+h within
// 1 plus tolerance.
func (r CropRect) Validate() error {
	if r.X < 0 || r.Y < 0 || r.W <= 0 || r.H <= 0 {
		return NewError(400, "invalid_rect", "crop rectangle out of range")
	}
	if r.X+r.W > 1+RectEpsilon || r.Y+r.H > 1+RectEpsilon {
		return NewError(400, "invalid_rect", "crop rectangle exceeds image bounds")
	}
	return nil
}

// AssetPage is one page of the asset listing, newest first.
type AssetPage struct {
	Items    []*MediaAsset `json:"items"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Total    int64         `json:"total"`
}

// PresetCrop pairs a preset with the crop currently stored for one asset, if
// any. It backs the crop editor read model.
type PresetCrop struct {
	Preset *MediaPreset    `json:"preset"`
	Crop   *MediaAssetCrop `json:"crop,omitempty"`
}

// RatioGroup collects the presets sharing one ratio key for an asset.
type RatioGroup struct {
	RatioKey string        `json:"ratio_key"`
	Presets  []*PresetCrop `json:"presets"`
}
