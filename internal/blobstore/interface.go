package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Open when no blob is stored under the key.
var ErrNotFound = errors.New("blob not found")

// BlobPutResult describes one persisted blob payload.
type BlobPutResult struct {
	Key       string
	SHA256    string
	SizeBytes int64
}

// BlobStore is the byte-storage abstraction used by the gallery format bundle.
//
// A failed Put must not leave a readable partial blob under key. Delete of a
// missing key is not an error.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (BlobPutResult, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
