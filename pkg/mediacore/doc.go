// Package mediacore provides a content-addressable media ingestion and
// derivative rendering core.
//
// Uploaded images are hashed, normalized and stored once in a BlobStore;
// named presets describe output dimensions and formats; per-asset crop
// rectangles are editable per preset or per ratio group. The render package
// turns (preset, hash, type, optional crop) into encoded bytes with a
// deterministic ETag so derivatives can be cached forever by HTTP semantics
// alone; nothing rendered is ever persisted.
//
// The package is library-first: construct a Service with functional options
// and plug in any Repository (catalog) and BlobStore (object store)
// implementation:
//
//	svc, err := mediacore.New(
//	    mediacore.WithRepository(memory.New()),
//	    mediacore.WithBlobStore(memorystorage.New()),
//	)
package mediacore
