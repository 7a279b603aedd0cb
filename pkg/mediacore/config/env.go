package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// WithEnv applies environment variable overrides using the provided prefix.
//
// Environment variable mapping:
//
//	PORT                  - Server port (default: "8080")
//	ENVIRONMENT           - Runtime environment (default: "development")
//	DATABASE_URL          - postgres connection string; empty or "memory"
//	                        selects the in-memory catalog
//	MEDIA_DB_SCHEMA       - Postgres schema (default: "mediacore")
//	STORAGE_TYPE          - "memory", "fs" or "s3"
//	FS_BASE_DIR           - base directory for fs storage
//	S3_REGION, S3_ENDPOINT, S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY,
//	S3_USE_PATH_STYLE, S3_BUCKET_PREFIX, S3_CREATE_BUCKETS
//	BUCKET_ORIGINALS, BUCKET_WORK, BUCKET_THUMBNAIL - logical bucket names
//	PUBLIC_BASE_URL       - prepended to original object keys
//	UPLOAD_MAX_BYTES      - ingestion size limit
//	UPLOAD_ALLOWED_MIME   - comma-separated MIME allowlist
//	UPLOAD_STRIP_METADATA - strip EXIF/ICC before hashing (default: true)
//	RENDER_CONCURRENCY    - decode/encode ceiling (default: GOMAXPROCS)
func WithEnv(prefix string) Option {
	return func(c *ServerConfig) error {
		if v, ok := lookupEnv(prefix, "PORT"); ok && v != "" {
			c.Port = v
		}
		if v, ok := lookupEnv(prefix, "ENVIRONMENT"); ok && v != "" {
			c.Environment = v
		}

		if err := applyDatabaseEnv(prefix, c); err != nil {
			return err
		}
		if err := applyStorageEnv(prefix, c); err != nil {
			return err
		}

		if v, ok := lookupEnv(prefix, "BUCKET_ORIGINALS"); ok && v != "" {
			c.Buckets.Originals = v
		}
		if v, ok := lookupEnv(prefix, "BUCKET_WORK"); ok && v != "" {
			c.Buckets.Work = v
		}
		if v, ok := lookupEnv(prefix, "BUCKET_THUMBNAIL"); ok && v != "" {
			c.Buckets.Thumbnail = v
		}

		if v, ok := lookupEnv(prefix, "PUBLIC_BASE_URL"); ok {
			c.PublicBaseURL = v
		}

		if v, ok := lookupEnv(prefix, "UPLOAD_MAX_BYTES"); ok && v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid UPLOAD_MAX_BYTES: %w", err)
			}
			c.Upload.MaxBytes = n
		}
		if v, ok := lookupEnv(prefix, "UPLOAD_ALLOWED_MIME"); ok && v != "" {
			var mimes []string
			for _, m := range strings.Split(v, ",") {
				if m = strings.TrimSpace(m); m != "" {
					mimes = append(mimes, m)
				}
			}
			c.Upload.AllowedMime = mimes
		}
		if v, ok := lookupEnv(prefix, "UPLOAD_STRIP_METADATA"); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid UPLOAD_STRIP_METADATA: %w", err)
			}
			c.Upload.StripMetadata = b
		}

		if v, ok := lookupEnv(prefix, "RENDER_CONCURRENCY"); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid RENDER_CONCURRENCY: %w", err)
			}
			c.RenderConcurrency = n
		}

		return nil
	}
}

func applyDatabaseEnv(prefix string, c *ServerConfig) error {
	dbURL, hasURL := lookupEnv(prefix, "DATABASE_URL")

	if !hasURL || dbURL == "" || dbURL == "memory" {
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
		return nil
	}

	if strings.HasPrefix(dbURL, "postgresql://") || strings.HasPrefix(dbURL, "postgres://") {
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
	} else {
		return fmt.Errorf("unsupported DATABASE_URL scheme: %s", dbURL)
	}

	if v, ok := lookupEnv(prefix, "MEDIA_DB_SCHEMA"); ok && v != "" {
		c.DBSchema = v
	}
	return nil
}

func applyStorageEnv(prefix string, c *ServerConfig) error {
	storageType, ok := lookupEnv(prefix, "STORAGE_TYPE")
	if !ok || storageType == "" {
		return nil
	}

	switch storageType {
	case "memory":
		c.Storage = StorageConfig{Type: "memory"}
	case "fs":
		baseDir, _ := lookupEnv(prefix, "FS_BASE_DIR")
		c.Storage = StorageConfig{Type: "fs", BaseDir: baseDir}
	case "s3":
		cfg := StorageConfig{Type: "s3"}
		cfg.Region, _ = lookupEnv(prefix, "S3_REGION")
		cfg.Endpoint, _ = lookupEnv(prefix, "S3_ENDPOINT")
		cfg.AccessKeyID, _ = lookupEnv(prefix, "S3_ACCESS_KEY_ID")
		cfg.SecretAccessKey, _ = lookupEnv(prefix, "S3_SECRET_ACCESS_KEY")
		cfg.BucketPrefix, _ = lookupEnv(prefix, "S3_BUCKET_PREFIX")
		if v, ok := lookupEnv(prefix, "S3_USE_PATH_STYLE"); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid S3_USE_PATH_STYLE: %w", err)
			}
			cfg.UsePathStyle = b
		}
		if v, ok := lookupEnv(prefix, "S3_CREATE_BUCKETS"); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid S3_CREATE_BUCKETS: %w", err)
			}
			cfg.CreateBuckets = b
		}
		c.Storage = cfg
	default:
		return fmt.Errorf("unsupported STORAGE_TYPE: %s", storageType)
	}
	return nil
}

func lookupEnv(prefix, key string) (string, bool) {
	if prefix != "" {
		if v, ok := os.LookupEnv(prefix + key); ok {
			return v, true
		}
	}
	return os.LookupEnv(key)
}
