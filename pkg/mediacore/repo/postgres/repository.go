// Package postgres implements the catalog repository on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simplecms/mediacore/pkg/mediacore"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements mediacore.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("duplicate entry in %s", operation)
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found in %s", operation)
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
// The name check keeps this from misfiring should the insert ever span
// more than one table.
func isUniqueViolation(err error, table string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && (pgErr.TableName == "" || pgErr.TableName == table)
}

// Asset operations

func (r *Repository) CreateAsset(ctx context.Context, asset *mediacore.MediaAsset) error {
	query := `
		INSERT INTO media_asset (
			id, hash, original_url, mime, width, height, bytes,
			alt_text, uploaded_by, created_at, meta
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	meta := asset.Meta
	if meta == nil {
		meta = map[string]interface{}{}
	}

	_, err := r.db.Exec(ctx, query,
		asset.ID, asset.Hash, asset.OriginalURL, asset.Mime,
		asset.Width, asset.Height, asset.Bytes,
		asset.AltText, asset.UploadedBy, asset.CreatedAt, meta)

	if err != nil {
		return r.handlePostgresError("create asset", err)
	}
	return nil
}

func (r *Repository) GetAssetByHash(ctx context.Context, hash string) (*mediacore.MediaAsset, error) {
	query := `
		SELECT id, hash, original_url, mime, width, height, bytes,
		       alt_text, uploaded_by, created_at, meta
		FROM media_asset WHERE hash = $1
		ORDER BY created_at DESC LIMIT 1`

	var asset mediacore.MediaAsset
	err := r.db.QueryRow(ctx, query, hash).Scan(
		&asset.ID, &asset.Hash, &asset.OriginalURL, &asset.Mime,
		&asset.Width, &asset.Height, &asset.Bytes,
		&asset.AltText, &asset.UploadedBy, &asset.CreatedAt, &asset.Meta)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mediacore.ErrAssetNotFound
		}
		return nil, r.handlePostgresError("get asset by hash", err)
	}
	return &asset, nil
}

func (r *Repository) ListAssets(ctx context.Context, limit, offset int) ([]*mediacore.MediaAsset, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM media_asset`).Scan(&total); err != nil {
		return nil, 0, r.handlePostgresError("count assets", err)
	}

	query := `
		SELECT id, hash, original_url, mime, width, height, bytes,
		       alt_text, uploaded_by, created_at, meta
		FROM media_asset
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, r.handlePostgresError("list assets", err)
	}
	defer rows.Close()

	var assets []*mediacore.MediaAsset
	for rows.Next() {
		var asset mediacore.MediaAsset
		if err := rows.Scan(
			&asset.ID, &asset.Hash, &asset.OriginalURL, &asset.Mime,
			&asset.Width, &asset.Height, &asset.Bytes,
			&asset.AltText, &asset.UploadedBy, &asset.CreatedAt, &asset.Meta); err != nil {
			return nil, 0, r.handlePostgresError("scan asset", err)
		}
		assets = append(assets, &asset)
	}
	return assets, total, rows.Err()
}

// Preset operations

func (r *Repository) CreatePreset(ctx context.Context, preset *mediacore.MediaPreset) error {
	query := `
		INSERT INTO media_preset (
			id, name, width, height, types, ratio_w, ratio_h, ratio_key,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		preset.ID, preset.Name, preset.Width, preset.Height, preset.Types,
		preset.RatioW, preset.RatioH, preset.RatioKey,
		preset.CreatedAt, preset.UpdatedAt)

	if err != nil {
		// Concurrent creates race past the service-level name check and
		// land on the unique index; surface the same conflict either way.
		if isUniqueViolation(err, "media_preset") {
			return mediacore.NewError(409, "preset_exists", "a preset with this name already exists")
		}
		return r.handlePostgresError("create preset", err)
	}
	return nil
}

func (r *Repository) UpdatePreset(ctx context.Context, preset *mediacore.MediaPreset) error {
	query := `
		UPDATE media_preset SET
			name = $2, width = $3, height = $4, types = $5,
			ratio_w = $6, ratio_h = $7, ratio_key = $8, updated_at = $9
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		preset.ID, preset.Name, preset.Width, preset.Height, preset.Types,
		preset.RatioW, preset.RatioH, preset.RatioKey, preset.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err, "media_preset") {
			return mediacore.NewError(409, "preset_exists", "a preset with this name already exists")
		}
		return r.handlePostgresError("update preset", err)
	}
	if tag.RowsAffected() == 0 {
		return mediacore.ErrPresetNotFound
	}
	return nil
}

const presetColumns = `id, name, width, height, types, ratio_w, ratio_h, ratio_key, created_at, updated_at`

func scanPreset(row pgx.Row) (*mediacore.MediaPreset, error) {
	var preset mediacore.MediaPreset
	err := row.Scan(
		&preset.ID, &preset.Name, &preset.Width, &preset.Height, &preset.Types,
		&preset.RatioW, &preset.RatioH, &preset.RatioKey,
		&preset.CreatedAt, &preset.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &preset, nil
}

func (r *Repository) GetPresetByName(ctx context.Context, name string) (*mediacore.MediaPreset, error) {
	query := `SELECT ` + presetColumns + ` FROM media_preset WHERE name = $1`

	preset, err := scanPreset(r.db.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mediacore.ErrPresetNotFound
		}
		return nil, r.handlePostgresError("get preset by name", err)
	}
	return preset, nil
}

func (r *Repository) listPresets(ctx context.Context, query string, args ...interface{}) ([]*mediacore.MediaPreset, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("list presets", err)
	}
	defer rows.Close()

	var presets []*mediacore.MediaPreset
	for rows.Next() {
		preset, err := scanPreset(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan preset", err)
		}
		presets = append(presets, preset)
	}
	return presets, rows.Err()
}

func (r *Repository) ListPresets(ctx context.Context) ([]*mediacore.MediaPreset, error) {
	return r.listPresets(ctx, `SELECT `+presetColumns+` FROM media_preset ORDER BY name`)
}

func (r *Repository) ListPresetsByRatioKey(ctx context.Context, ratioKey string) ([]*mediacore.MediaPreset, error) {
	return r.listPresets(ctx, `SELECT `+presetColumns+` FROM media_preset WHERE ratio_key = $1 ORDER BY name`, ratioKey)
}

func (r *Repository) DeletePreset(ctx context.Context, name string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM media_preset WHERE name = $1`, name)
	if err != nil {
		return r.handlePostgresError("delete preset", err)
	}
	if tag.RowsAffected() == 0 {
		return mediacore.ErrPresetNotFound
	}
	return nil
}

// Crop operations

func (r *Repository) UpsertCrop(ctx context.Context, crop *mediacore.MediaAssetCrop) error {
	// Single-statement upsert: concurrent saves to the same key race at
	// last-write-wins, and readers never observe a torn rectangle.
	query := `
		INSERT INTO media_asset_crop (
			id, asset_hash, preset_name, x, y, w, h, updated_by, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (asset_hash, preset_name) DO UPDATE SET
			x = EXCLUDED.x, y = EXCLUDED.y, w = EXCLUDED.w, h = EXCLUDED.h,
			updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		crop.ID, crop.AssetHash, crop.PresetName,
		crop.Rect.X, crop.Rect.Y, crop.Rect.W, crop.Rect.H,
		crop.UpdatedBy, crop.UpdatedAt)

	if err != nil {
		return r.handlePostgresError("upsert crop", err)
	}
	return nil
}

func (r *Repository) GetCrop(ctx context.Context, assetHash, presetName string) (*mediacore.MediaAssetCrop, error) {
	query := `
		SELECT id, asset_hash, preset_name, x, y, w, h, updated_by, updated_at
		FROM media_asset_crop WHERE asset_hash = $1 AND preset_name = $2`

	var crop mediacore.MediaAssetCrop
	err := r.db.QueryRow(ctx, query, assetHash, presetName).Scan(
		&crop.ID, &crop.AssetHash, &crop.PresetName,
		&crop.Rect.X, &crop.Rect.Y, &crop.Rect.W, &crop.Rect.H,
		&crop.UpdatedBy, &crop.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mediacore.ErrCropNotFound
		}
		return nil, r.handlePostgresError("get crop", err)
	}
	return &crop, nil
}

func (r *Repository) ListCropsByAssetHash(ctx context.Context, assetHash string) ([]*mediacore.MediaAssetCrop, error) {
	query := `
		SELECT id, asset_hash, preset_name, x, y, w, h, updated_by, updated_at
		FROM media_asset_crop WHERE asset_hash = $1 ORDER BY preset_name`

	rows, err := r.db.Query(ctx, query, assetHash)
	if err != nil {
		return nil, r.handlePostgresError("list crops", err)
	}
	defer rows.Close()

	var crops []*mediacore.MediaAssetCrop
	for rows.Next() {
		var crop mediacore.MediaAssetCrop
		if err := rows.Scan(
			&crop.ID, &crop.AssetHash, &crop.PresetName,
			&crop.Rect.X, &crop.Rect.Y, &crop.Rect.W, &crop.Rect.H,
			&crop.UpdatedBy, &crop.UpdatedAt); err != nil {
			return nil, r.handlePostgresError("scan crop", err)
		}
		crops = append(crops, &crop)
	}
	return crops, rows.Err()
}
