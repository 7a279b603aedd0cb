// Package memory provides an in-memory blob store for tests and development.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/simplecms/mediacore/pkg/mediacore"
)

type object struct {
	data         []byte
	contentType  string
	etag         string
	lastModified time.Time
}

// Backend is an in-memory implementation of the mediacore.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects: make(map[string]object),
	}
}

func storageKey(bucket, key string) string {
	return bucket + "/" + key
}

// Put stores an object under bucket+key
func (b *Backend) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)

	sum := sha256.Sum256(data)
	b.objects[storageKey(bucket, key)] = object{
		data:         stored,
		contentType:  contentType,
		etag:         hex.EncodeToString(sum[:16]),
		lastModified: time.Now().UTC(),
	}
	return nil
}

// Get retrieves an object with its metadata
func (b *Backend) Get(ctx context.Context, bucket, key string) (*mediacore.StoredObject, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[storageKey(bucket, key)]
	if !exists {
		return nil, mediacore.ErrObjectNotFound
	}

	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return &mediacore.StoredObject{
		Data:         data,
		ContentType:  obj.contentType,
		ETag:         obj.etag,
		LastModified: obj.lastModified,
	}, nil
}

// Delete removes an object; deleting a missing object is not an error
func (b *Backend) Delete(ctx context.Context, bucket, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.objects, storageKey(bucket, key))
	return nil
}
