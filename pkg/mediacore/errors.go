package mediacore

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrAssetNotFound indicates an asset was not found in the catalog
	ErrAssetNotFound = errors.New("asset not found")

	// ErrPresetNotFound indicates a preset was not found
	ErrPresetNotFound = errors.New("preset not found")

	// ErrCropNotFound indicates no crop is stored for an (asset, preset) pair
	ErrCropNotFound = errors.New("crop not found")

	// ErrObjectNotFound indicates an object was not found in the blob store
	ErrObjectNotFound = errors.New("object not found")

	// ErrObjectForbidden indicates the blob store denied access to an object
	ErrObjectForbidden = errors.New("object access forbidden")
)

// Error is a user-facing error with a stable machine-readable code. Handlers
// render it as {error: code, message: ...} with the carried HTTP status; it
// never wraps internals, so nothing leaks.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a coded user-facing error.
func NewError(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// AsError extracts a coded *Error from err, if one is in the chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// StorageError represents a failed blob store operation. Per-request fatal;
// nothing in the pipeline retries.
type StorageError struct {
	Bucket string
	Key    string
	Op     string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s in bucket %s: %v", e.Op, e.Key, e.Bucket, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// CodecError represents undecodable or unencodable image bytes.
type CodecError struct {
	Op  string
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec operation %s failed: %v", e.Op, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}
