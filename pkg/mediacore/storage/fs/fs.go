// Package fs provides a filesystem blob store. Buckets map to directories
// under the base directory; content types ride along in sidecar files so
// reads return what writes declared.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/simplecms/mediacore/pkg/mediacore"
)

// Config options for the filesystem backend
type Config struct {
	BaseDir string // Base directory for storing objects
}

// Backend is a filesystem implementation of the mediacore.BlobStore interface
type Backend struct {
	baseDir string
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}
	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Backend{baseDir: config.BaseDir}, nil
}

func (b *Backend) path(bucket, key string) (string, error) {
	if strings.Contains(bucket, "..") || strings.Contains(key, "..") {
		return "", errors.New("invalid object key")
	}
	return filepath.Join(b.baseDir, bucket, filepath.FromSlash(key)), nil
}

// Put stores an object under bucket+key
func (b *Backend) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	path, err := b.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	if contentType != "" {
		if err := os.WriteFile(path+".mime", []byte(contentType), 0644); err != nil {
			return fmt.Errorf("failed to write content type: %w", err)
		}
	}
	return nil
}

// Get retrieves an object with its metadata
func (b *Backend) Get(ctx context.Context, bucket, key string) (*mediacore.StoredObject, error) {
	path, err := b.path(bucket, key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, mediacore.ErrObjectNotFound
	} else if os.IsPermission(err) {
		return nil, mediacore.ErrObjectForbidden
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, mediacore.ErrObjectForbidden
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}

	contentType := ""
	if mime, err := os.ReadFile(path + ".mime"); err == nil {
		contentType = string(mime)
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	sum := sha256.Sum256(data)
	return &mediacore.StoredObject{
		Data:         data,
		ContentType:  contentType,
		ETag:         hex.EncodeToString(sum[:16]),
		LastModified: info.ModTime(),
	}, nil
}

// Delete removes an object; deleting a missing object is not an error
func (b *Backend) Delete(ctx context.Context, bucket, key string) error {
	path, err := b.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	os.Remove(path + ".mime")
	return nil
}
