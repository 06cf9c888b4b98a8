package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"

	"evalgallery/internal/blobstore"
)

// stagedWrites records every blob written during one multi-format call so
// the whole set can be undone when a later write fails.
type stagedWrites struct {
	blobs blobstore.BlobStore
	keys  []string
}

func newStagedWrites(blobs blobstore.BlobStore) *stagedWrites {
	return &stagedWrites{blobs: blobs}
}

func (s *stagedWrites) put(ctx context.Context, key string, r io.Reader) (blobstore.BlobPutResult, error) {
	res, err := s.blobs.Put(ctx, key, r)
	// A failed Put may still have created the object on some backends.
	s.keys = append(s.keys, key)
	return res, err
}

// written returns the keys staged so far.
func (s *stagedWrites) written() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// rollback deletes every staged key, newest first. It keeps going after a
// failed delete and reports all failures together.
func (s *stagedWrites) rollback(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for i := len(s.keys) - 1; i >= 0; i-- {
		if err := s.blobs.Delete(ctx, s.keys[i]); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", s.keys[i], err))
		}
	}
	s.keys = nil
	return errors.Join(errs...)
}
