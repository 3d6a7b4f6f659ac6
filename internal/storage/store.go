// Package storage persists cache objects (uploaded files and embedding
// vectors) to the local filesystem or an S3-compatible bucket.
package storage

import (
	"errors"
	"path"
	"strings"
)

// ErrNotFound is returned by Get when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// Key joins slash-separated key segments, dropping empty ones.
func Key(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return path.Join(nonEmpty...)
}
