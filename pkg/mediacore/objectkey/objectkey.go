// Package objectkey derives sharded object keys from content hashes.
//
// Keys take the form {hash[0:2]}/{hash[2:4]}/{hash}.{ext}. The two-level
// 256x256-bucket prefix bounds directory fan-out in the object store.
package objectkey

import "fmt"

// Shard returns the two prefix segments for a content hash. The hash must be
// at least 4 characters; callers validate full hashes before reaching here.
func Shard(hash string) (a, b string) {
	return hash[0:2], hash[2:4]
}

// ForHash builds the object key for a content hash and file extension.
func ForHash(hash, ext string) string {
	a, b := Shard(hash)
	return fmt.Sprintf("%s/%s/%s.%s", a, b, hash, ext)
}
