package storage

import (
	"context"
	"io"
)

// ObjectStore is the blob storage behind post images and avatars. Every
// upload lives under its own random key prefix ("directory"), so replacing
// an object means deleting the old prefix and writing under a fresh one.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error

	// Get streams an object. The caller must close the reader.
	Get(ctx context.Context, key string) (body io.ReadCloser, contentType string, err error)

	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every object under the prefix, emulating a
	// directory delete.
	DeletePrefix(ctx context.Context, prefix string) error

	// PublicURL returns the public-facing URL for a key.
	PublicURL(key string) string
}
