package tgscreenshots

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ImageExtensions lists the file extensions treated as screenshots.
// Matching is case-insensitive.
var ImageExtensions = []string{".png", ".jpg", ".jpeg"}

// IsImage reports whether path has one of the ImageExtensions.
func IsImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// HashBytes returns the content fingerprint used as the dedup key.
//
// xxHash64 is not collision resistant against an adversary. Two different
// screenshots colliding would make the second one look already sent; that
// risk is accepted for a local dedup signal.
func HashBytes(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// HashFile reads the whole file once and returns its fingerprint.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return HashBytes(data), nil
}
