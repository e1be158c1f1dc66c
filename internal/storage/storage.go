// Package storage holds the file stores media bytes are written to.
package storage

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrStorageUnavailable is returned while the backing store is failing fast.
	ErrStorageUnavailable = errors.New("file storage is unavailable")
	ErrInvalidPath        = errors.New("invalid storage path")
)

// cleanKey normalises a slash separated relative path and rejects anything
// that could escape the store root.
func cleanKey(p string) (string, error) {
	if p == "" || strings.ContainsRune(p, 0) || strings.Contains(p, `\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	if strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidPath, p)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
		}
	}
	cleaned := path.Clean(p)
	if cleaned == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
