// Package config builds mediacore services from declarative configuration.
package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simplecms/mediacore/pkg/mediacore"
	"github.com/simplecms/mediacore/pkg/mediacore/render"
	memoryrepo "github.com/simplecms/mediacore/pkg/mediacore/repo/memory"
	repopg "github.com/simplecms/mediacore/pkg/mediacore/repo/postgres"
	fsstorage "github.com/simplecms/mediacore/pkg/mediacore/storage/fs"
	memorystorage "github.com/simplecms/mediacore/pkg/mediacore/storage/memory"
	s3storage "github.com/simplecms/mediacore/pkg/mediacore/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:         "8080",
		Environment:  "development",
		DatabaseType: "memory",
		DBSchema:     "mediacore",
		Storage: StorageConfig{
			Type: "memory",
		},
		Buckets:           mediacore.DefaultBuckets(),
		Upload:            mediacore.DefaultUploadConfig(),
		RenderConcurrency: 0, // 0 = GOMAXPROCS
	}
}

// ServerConfig represents server configuration for the mediacore service.
// It is constructed once during initialization and treated as immutable.
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"
	DBSchema     string // Postgres schema to use (default: mediacore)

	// Object store configuration
	Storage StorageConfig
	Buckets mediacore.Buckets

	// Ingestion
	Upload        mediacore.UploadConfig
	PublicBaseURL string

	// Rendering
	RenderConcurrency int
}

// StorageConfig selects and configures the blob store backend.
type StorageConfig struct {
	Type string // "memory", "fs", "s3"

	// fs
	BaseDir string

	// s3
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	UsePathStyle    bool
	BucketPrefix    string
	CreateBuckets   bool
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}
	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	switch c.Storage.Type {
	case "memory":
	case "fs":
		if c.Storage.BaseDir == "" {
			return errors.New("storage base_dir is required for fs storage")
		}
	case "s3":
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload max_bytes must be positive")
	}
	if len(c.Upload.AllowedMime) == 0 {
		return errors.New("upload allowed_mime must not be empty")
	}

	return nil
}

// Components bundles the constructed service graph. Service and Renderer
// share one Repository and one BlobStore.
type Components struct {
	Service    mediacore.Service
	Renderer   *render.Renderer
	Repository mediacore.Repository
	BlobStore  mediacore.BlobStore
}

// Build creates the service and renderer from the configuration.
func (c *ServerConfig) Build() (*Components, error) {
	repo, err := c.buildRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	blobs, err := c.buildBlobStore()
	if err != nil {
		return nil, fmt.Errorf("failed to build blob store: %w", err)
	}

	svc, err := mediacore.New(
		mediacore.WithRepository(repo),
		mediacore.WithBlobStore(blobs),
		mediacore.WithBuckets(c.Buckets),
		mediacore.WithUploadConfig(c.Upload),
		mediacore.WithPublicBaseURL(c.PublicBaseURL),
	)
	if err != nil {
		return nil, err
	}

	renderer := render.NewRenderer(repo, blobs,
		render.WithBuckets(c.Buckets),
		render.WithConcurrency(c.RenderConcurrency),
	)

	return &Components{
		Service:    svc,
		Renderer:   renderer,
		Repository: repo,
		BlobStore:  blobs,
	}, nil
}

// searchPathStatement quotes the schema so it is always treated as a
// single identifier, whatever characters the environment supplied.
func searchPathStatement(schema string) string {
	return "SET search_path TO " + pgx.Identifier{schema}.Sanitize()
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository() (mediacore.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return memoryrepo.New(), nil
	case "postgres":
		cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		schema := c.DBSchema
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			if schema == "" {
				return nil
			}
			_, err := conn.Exec(ctx, searchPathStatement(schema))
			return err
		}
		pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// buildBlobStore creates a BlobStore based on the configuration
func (c *ServerConfig) buildBlobStore() (mediacore.BlobStore, error) {
	switch c.Storage.Type {
	case "memory":
		return memorystorage.New(), nil
	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir: c.Storage.BaseDir,
		})
	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 c.Storage.Region,
			AccessKeyID:            c.Storage.AccessKeyID,
			SecretAccessKey:        c.Storage.SecretAccessKey,
			Endpoint:               c.Storage.Endpoint,
			UsePathStyle:           c.Storage.UsePathStyle,
			BucketPrefix:           c.Storage.BucketPrefix,
			CreateBucketIfNotExist: c.Storage.CreateBuckets,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
}
