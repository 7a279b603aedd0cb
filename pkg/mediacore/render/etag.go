package render

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/simplecms/mediacore/pkg/mediacore"
)

// ETag computes the deterministic cache key for one derivative. It is a pure
// function of the semantic rendering inputs: content hash, preset name,
// output dimensions, output type and the crop rectangle (each coordinate
// rounded to 6 decimal places, or "nocrop"). Wall-clock time and request
// order never participate, so repeated renders of the same inputs carry
// identical tags and any change to crop, preset or type changes the tag.
func ETag(hash string, preset *mediacore.MediaPreset, outputType string, crop *mediacore.CropRect) string {
	cropPart := "nocrop"
	if crop != nil {
		cropPart = fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", crop.X, crop.Y, crop.W, crop.H)
	}

	seed := fmt.Sprintf("%s|%s|%dx%d|%s|%s", hash, preset.Name, preset.Width, preset.Height, outputType, cropPart)
	sum := sha256.Sum256([]byte(seed))
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// matchesETag reports whether an If-None-Match header value contains the
// given tag. Weak validators compare by their opaque part.
func matchesETag(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == etag || candidate == "*" {
			return true
		}
	}
	return false
}
