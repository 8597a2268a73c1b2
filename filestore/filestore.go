// Package filestore persists generated icons and exposes them by URL.
package filestore

import (
	"context"
	"errors"
	"mime"
	"path"
	"strings"
)

// ErrInvalidName is returned for file names escaping the cache root.
var ErrInvalidName = errors.New("invalid cache file name")

// Cache is a content addressed file cache.
type Cache interface {
	// Set stores data under filename. An existing file is kept unless force is set.
	Set(ctx context.Context, filename string, data []byte, force bool) error
	// Exists reports whether filename is cached.
	Exists(ctx context.Context, filename string) (bool, error)
	// URL returns the public address of filename.
	URL(filename string) string
}

// clean validates a slash separated relative file name.
func clean(filename string) (string, error) {
	if filename == "" || strings.HasPrefix(filename, "/") || strings.Contains(filename, "\\") {
		return "", ErrInvalidName
	}
	c := path.Clean(filename)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", ErrInvalidName
	}
	return c, nil
}

func joinURL(base, filename string) string {
	return strings.TrimRight(base, "/") + "/" + filename
}

func contentType(filename string) string {
	if t := mime.TypeByExtension(path.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}
