package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplecms/mediacore/pkg/mediacore"
	"github.com/simplecms/mediacore/pkg/mediacore/storage/memory"
)

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	data := []byte("hello world")
	require.NoError(t, backend.Put(ctx, "work", "aa/bb/key.webp", data, "image/webp"))

	obj, err := backend.Get(ctx, "work", "aa/bb/key.webp")
	require.NoError(t, err)
	assert.Equal(t, data, obj.Data)
	assert.Equal(t, "image/webp", obj.ContentType)
	assert.NotEmpty(t, obj.ETag)
	assert.False(t, obj.LastModified.IsZero())
}

func TestBucketsAreIsolated(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	require.NoError(t, backend.Put(ctx, "work", "key", []byte("work copy"), "image/webp"))

	_, err := backend.Get(ctx, "thumbnail", "key")
	assert.ErrorIs(t, err, mediacore.ErrObjectNotFound)
}

func TestGetMissing(t *testing.T) {
	backend := memory.New()

	_, err := backend.Get(context.Background(), "work", "absent")
	assert.ErrorIs(t, err, mediacore.ErrObjectNotFound)
}

func TestOverwriteReplacesObject(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	require.NoError(t, backend.Put(ctx, "work", "key", []byte("v1"), "image/webp"))
	first, err := backend.Get(ctx, "work", "key")
	require.NoError(t, err)

	require.NoError(t, backend.Put(ctx, "work", "key", []byte("v2"), "image/webp"))
	second, err := backend.Get(ctx, "work", "key")
	require.NoError(t, err)

	assert.Equal(t, []byte("v2"), second.Data)
	assert.NotEqual(t, first.ETag, second.ETag)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	require.NoError(t, backend.Put(ctx, "work", "key", []byte("x"), "image/webp"))
	require.NoError(t, backend.Delete(ctx, "work", "key"))

	_, err := backend.Get(ctx, "work", "key")
	assert.ErrorIs(t, err, mediacore.ErrObjectNotFound)

	// Deleting a missing object is not an error.
	assert.NoError(t, backend.Delete(ctx, "work", "key"))
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	require.NoError(t, backend.Put(ctx, "work", "key", []byte("abc"), "image/webp"))

	obj, err := backend.Get(ctx, "work", "key")
	require.NoError(t, err)
	obj.Data[0] = 'X'

	again, err := backend.Get(ctx, "work", "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again.Data)
}
