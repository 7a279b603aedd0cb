// Package memory provides an in-memory catalog repository for tests and
// development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/simplecms/mediacore/pkg/mediacore"
)

// Repository implements mediacore.Repository using in-memory storage
type Repository struct {
	mu      sync.RWMutex
	assets  []*mediacore.MediaAsset
	presets map[uuid.UUID]*mediacore.MediaPreset
	crops   map[string]*mediacore.MediaAssetCrop // "hash\x00preset" -> crop
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		presets: make(map[uuid.UUID]*mediacore.MediaPreset),
		crops:   make(map[string]*mediacore.MediaAssetCrop),
	}
}

// Asset operations

func (r *Repository) CreateAsset(ctx context.Context, asset *mediacore.MediaAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Duplicate hashes are allowed: re-uploading identical content creates a
	// new row sharing the hash.
	assetCopy := *asset
	r.assets = append(r.assets, &assetCopy)
	return nil
}

func (r *Repository) GetAssetByHash(ctx context.Context, hash string) (*mediacore.MediaAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Newest row wins when several share a hash.
	var found *mediacore.MediaAsset
	for _, a := range r.assets {
		if a.Hash == hash && (found == nil || a.CreatedAt.After(found.CreatedAt)) {
			found = a
		}
	}
	if found == nil {
		return nil, mediacore.ErrAssetNotFound
	}
	assetCopy := *found
	return &assetCopy, nil
}

func (r *Repository) ListAssets(ctx context.Context, limit, offset int) ([]*mediacore.MediaAsset, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sorted := make([]*mediacore.MediaAsset, len(r.assets))
	copy(sorted, r.assets)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	total := int64(len(sorted))
	if offset >= len(sorted) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(sorted) {
		end = len(sorted)
	}

	var result []*mediacore.MediaAsset
	for _, a := range sorted[offset:end] {
		assetCopy := *a
		result = append(result, &assetCopy)
	}
	return result, total, nil
}

// Preset operations

func (r *Repository) CreatePreset(ctx context.Context, preset *mediacore.MediaPreset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	presetCopy := *preset
	r.presets[preset.ID] = &presetCopy
	return nil
}

func (r *Repository) UpdatePreset(ctx context.Context, preset *mediacore.MediaPreset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.presets[preset.ID]; !exists {
		return mediacore.ErrPresetNotFound
	}
	presetCopy := *preset
	r.presets[preset.ID] = &presetCopy
	return nil
}

func (r *Repository) GetPresetByName(ctx context.Context, name string) (*mediacore.MediaPreset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.presets {
		if p.Name == name {
			presetCopy := *p
			return &presetCopy, nil
		}
	}
	return nil, mediacore.ErrPresetNotFound
}

func (r *Repository) ListPresets(ctx context.Context) ([]*mediacore.MediaPreset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*mediacore.MediaPreset
	for _, p := range r.presets {
		presetCopy := *p
		result = append(result, &presetCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (r *Repository) ListPresetsByRatioKey(ctx context.Context, ratioKey string) ([]*mediacore.MediaPreset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*mediacore.MediaPreset
	for _, p := range r.presets {
		if p.RatioKey == ratioKey {
			presetCopy := *p
			result = append(result, &presetCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (r *Repository) DeletePreset(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, p := range r.presets {
		if p.Name == name {
			delete(r.presets, id)
			return nil
		}
	}
	return mediacore.ErrPresetNotFound
}

// Crop operations

func cropKey(hash, preset string) string {
	return hash + "\x00" + preset
}

func (r *Repository) UpsertCrop(ctx context.Context, crop *mediacore.MediaAssetCrop) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := cropKey(crop.AssetHash, crop.PresetName)
	if existing, ok := r.crops[key]; ok {
		// Overwrite in place, keeping the original row identity.
		crop.ID = existing.ID
	}
	cropCopy := *crop
	r.crops[key] = &cropCopy
	return nil
}

func (r *Repository) GetCrop(ctx context.Context, assetHash, presetName string) (*mediacore.MediaAssetCrop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	crop, exists := r.crops[cropKey(assetHash, presetName)]
	if !exists {
		return nil, mediacore.ErrCropNotFound
	}
	cropCopy := *crop
	return &cropCopy, nil
}

func (r *Repository) ListCropsByAssetHash(ctx context.Context, assetHash string) ([]*mediacore.MediaAssetCrop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*mediacore.MediaAssetCrop
	for _, c := range r.crops {
		if c.AssetHash == assetHash {
			cropCopy := *c
			result = append(result, &cropCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PresetName < result[j].PresetName
	})
	return result, nil
}
