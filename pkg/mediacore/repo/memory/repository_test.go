package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplecms/mediacore/pkg/mediacore"
	"github.com/simplecms/mediacore/pkg/mediacore/repo/memory"
)

const hashA = "aabbccddeeff00112233445566778899aabbccddeeff00112233445566778899"
const hashB = "bbbbccddeeff00112233445566778899aabbccddeeff00112233445566778899"

func asset(hash string, createdAt time.Time) *mediacore.MediaAsset {
	return &mediacore.MediaAsset{
		ID:        uuid.New(),
		Hash:      hash,
		Mime:      "image/jpeg",
		Width:     800,
		Height:    600,
		Bytes:     1234,
		CreatedAt: createdAt,
	}
}

func preset(name string, width, height int) *mediacore.MediaPreset {
	p := &mediacore.MediaPreset{
		ID:     uuid.New(),
		Name:   name,
		Width:  width,
		Height: height,
		Types:  []string{"webp"},
	}
	p.DeriveRatio()
	return p
}

func TestAssetDuplicateHashes(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	older := asset(hashA, time.Now().UTC().Add(-time.Hour))
	newer := asset(hashA, time.Now().UTC())

	require.NoError(t, repo.CreateAsset(ctx, older))
	require.NoError(t, repo.CreateAsset(ctx, newer))

	got, err := repo.GetAssetByHash(ctx, hashA)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID, "newest row wins on hash lookup")

	_, err = repo.GetAssetByHash(ctx, hashB)
	assert.ErrorIs(t, err, mediacore.ErrAssetNotFound)
}

func TestListAssetsPaging(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.CreateAsset(ctx, asset(hashA, base.Add(time.Duration(i)*time.Minute))))
	}

	items, total, err := repo.ListAssets(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, items, 2)
	assert.True(t, items[0].CreatedAt.After(items[1].CreatedAt), "newest first")

	items, _, err = repo.ListAssets(ctx, 2, 4)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, total, err = repo.ListAssets(ctx, 2, 100)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int64(5), total)
}

func TestPresetCRUD(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	hero := preset("hero", 1920, 1080)
	require.NoError(t, repo.CreatePreset(ctx, hero))

	got, err := repo.GetPresetByName(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, hero.ID, got.ID)

	// Reads return copies; mutating a result never touches stored state.
	got.Width = 1
	refetched, err := repo.GetPresetByName(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, 1920, refetched.Width)

	hero.Width = 1280
	hero.Height = 720
	require.NoError(t, repo.UpdatePreset(ctx, hero))
	updated, err := repo.GetPresetByName(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, 1280, updated.Width)

	missing := preset("ghost", 100, 100)
	assert.ErrorIs(t, repo.UpdatePreset(ctx, missing), mediacore.ErrPresetNotFound)

	require.NoError(t, repo.DeletePreset(ctx, "hero"))
	assert.ErrorIs(t, repo.DeletePreset(ctx, "hero"), mediacore.ErrPresetNotFound)
	_, err = repo.GetPresetByName(ctx, "hero")
	assert.ErrorIs(t, err, mediacore.ErrPresetNotFound)
}

func TestListPresetsByRatioKey(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	require.NoError(t, repo.CreatePreset(ctx, preset("hero", 1920, 1080)))
	require.NoError(t, repo.CreatePreset(ctx, preset("card", 640, 360)))
	require.NoError(t, repo.CreatePreset(ctx, preset("square", 500, 500)))

	wide, err := repo.ListPresetsByRatioKey(ctx, "16:9")
	require.NoError(t, err)
	require.Len(t, wide, 2)
	assert.Equal(t, "card", wide[0].Name, "sorted by name")
	assert.Equal(t, "hero", wide[1].Name)

	none, err := repo.ListPresetsByRatioKey(ctx, "21:9")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpsertCrop(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	first := &mediacore.MediaAssetCrop{
		ID:         uuid.New(),
		AssetHash:  hashA,
		PresetName: "hero",
		Rect:       mediacore.CropRect{X: 0, Y: 0, W: 1, H: 1},
		UpdatedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.UpsertCrop(ctx, first))

	second := &mediacore.MediaAssetCrop{
		ID:         uuid.New(),
		AssetHash:  hashA,
		PresetName: "hero",
		Rect:       mediacore.CropRect{X: 0.1, Y: 0.1, W: 0.5, H: 0.5},
		UpdatedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.UpsertCrop(ctx, second))

	got, err := repo.GetCrop(ctx, hashA, "hero")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID, "row identity survives overwrites")
	assert.Equal(t, second.Rect, got.Rect)

	_, err = repo.GetCrop(ctx, hashA, "card")
	assert.ErrorIs(t, err, mediacore.ErrCropNotFound)
	_, err = repo.GetCrop(ctx, hashB, "hero")
	assert.ErrorIs(t, err, mediacore.ErrCropNotFound)
}

func TestListCropsByAssetHash(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	for _, name := range []string{"hero", "card"} {
		require.NoError(t, repo.UpsertCrop(ctx, &mediacore.MediaAssetCrop{
			ID:         uuid.New(),
			AssetHash:  hashA,
			PresetName: name,
			Rect:       mediacore.CropRect{X: 0, Y: 0, W: 1, H: 1},
			UpdatedAt:  time.Now().UTC(),
		}))
	}
	require.NoError(t, repo.UpsertCrop(ctx, &mediacore.MediaAssetCrop{
		ID:         uuid.New(),
		AssetHash:  hashB,
		PresetName: "hero",
		Rect:       mediacore.CropRect{X: 0, Y: 0, W: 1, H: 1},
		UpdatedAt:  time.Now().UTC(),
	}))

	crops, err := repo.ListCropsByAssetHash(ctx, hashA)
	require.NoError(t, err)
	require.Len(t, crops, 2)
	assert.Equal(t, "card", crops[0].PresetName, "sorted by preset name")
	assert.Equal(t, "hero", crops[1].PresetName)
}
