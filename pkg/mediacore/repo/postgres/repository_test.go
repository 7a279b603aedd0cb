package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplecms/mediacore/pkg/mediacore"
	"github.com/simplecms/mediacore/pkg/mediacore/repo/postgres"
)

// errorDB returns the same error from every call.
type errorDB struct {
	err error
}

func (d errorDB) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, d.err
}

func (d errorDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, d.err
}

func (d errorDB) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return errorRow{err: d.err}
}

type errorRow struct{ err error }

func (r errorRow) Scan(...interface{}) error { return r.err }

func TestPresetUniqueViolationIsNameConflict(t *testing.T) {
	ctx := context.Background()
	repo := postgres.New(errorDB{err: &pgconn.PgError{
		Code:           "23505",
		TableName:      "media_preset",
		ConstraintName: "media_preset_name_key",
	}})

	preset := &mediacore.MediaPreset{
		ID: uuid.New(), Name: "hero", Width: 100, Height: 100, Types: []string{"webp"},
	}

	err := repo.CreatePreset(ctx, preset)
	coded, ok := mediacore.AsError(err)
	require.True(t, ok, "expected a coded conflict, got %v", err)
	assert.Equal(t, 409, coded.Status)
	assert.Equal(t, "preset_exists", coded.Code)

	err = repo.UpdatePreset(ctx, preset)
	coded, ok = mediacore.AsError(err)
	require.True(t, ok, "expected a coded conflict, got %v", err)
	assert.Equal(t, "preset_exists", coded.Code)
}

func TestPresetOtherErrorsStayUncoded(t *testing.T) {
	ctx := context.Background()
	repo := postgres.New(errorDB{err: errors.New("connection reset")})

	err := repo.CreatePreset(ctx, &mediacore.MediaPreset{ID: uuid.New(), Name: "hero"})
	require.Error(t, err)
	_, ok := mediacore.AsError(err)
	assert.False(t, ok, "plain database failures must not read as conflicts")
}

// newTestRepository connects to TEST_DATABASE_URL and applies the real
// migration so the tests exercise the shipped DDL. TEST_DATABASE_URL
// should point at a throwaway database; the mediacore schema is dropped
// afterwards.
func newTestRepository(t *testing.T) *postgres.Repository {
	t.Helper()

	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping PostgreSQL tests")
	}

	ctx := context.Background()
	cfg, err := pgxpool.ParseConfig(databaseURL)
	require.NoError(t, err)
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `SET search_path TO mediacore`)
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	ddl, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "migrations", "001_mediacore.sql"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(ddl))
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DROP SCHEMA mediacore CASCADE`)
	})

	return postgres.NewWithPool(pool)
}

func TestCreateAssetAltTextNullable(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	hash := strings.Repeat("ab", 32)
	asset := &mediacore.MediaAsset{
		ID:          uuid.New(),
		Hash:        hash,
		OriginalURL: fmt.Sprintf("/cmsimg/originals/ab/ab/%s.jpg", hash),
		Mime:        "image/jpeg",
		Width:       10,
		Height:      10,
		Bytes:       123,
		UploadedBy:  "tester",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.CreateAsset(ctx, asset), "assets without alt text must insert")

	got, err := repo.GetAssetByHash(ctx, hash)
	require.NoError(t, err)
	assert.Nil(t, got.AltText)

	alt := "a gradient"
	withAlt := *asset
	withAlt.ID = uuid.New()
	withAlt.Hash = strings.Repeat("cd", 32)
	withAlt.AltText = &alt
	require.NoError(t, repo.CreateAsset(ctx, &withAlt))

	got, err = repo.GetAssetByHash(ctx, withAlt.Hash)
	require.NoError(t, err)
	require.NotNil(t, got.AltText)
	assert.Equal(t, alt, *got.AltText)
}
