package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUnsupportedImage rejects uploads that are not one of the image
// formats the storefront can render.
var ErrUnsupportedImage = errors.New("unsupported image format")

type PutInput struct {
	// Filename is only consulted for its extension.
	Filename    string
	ContentType string
	Size        int64
}

type PutResult struct {
	Key string
	URL string
}

// Storage holds product imagery. Keys are opaque; the URL is what gets
// persisted on the image record and served to the storefront.
type Storage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
	Delete(ctx context.Context, key string) error
}

// imageExt resolves the stored extension for a product photo from the
// upload's filename, falling back to the declared content type when
// the filename carries none. Anything outside the accepted formats is
// refused before a byte is written.
func imageExt(filename, contentType string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return ext, nil
	}
	switch strings.ToLower(contentType) {
	case "image/png":
		return ".png", nil
	case "image/jpeg":
		return ".jpg", nil
	case "image/webp":
		return ".webp", nil
	case "image/gif":
		return ".gif", nil
	}
	return "", ErrUnsupportedImage
}

// contentTypeFor maps a vetted extension back to the type the image is
// served with, so response headers never depend on what the uploading
// browser claimed.
func contentTypeFor(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	}
	return "application/octet-stream"
}

// imageKey names an upload: month partition to keep listings
// navigable, uuid so concurrent admin uploads never collide.
func imageKey(ext string) string {
	return time.Now().UTC().Format("2006/01") + "/" + uuid.NewString() + ext
}
