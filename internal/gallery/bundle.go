package gallery

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"evalgallery/internal/blobstore"
	"evalgallery/internal/models"
)

const revisionBytes = 6

// FormatBundle stores the physical files of one attachment, one blob per
// format, with all-or-nothing multi-format writes.
type FormatBundle struct {
	blobs  blobstore.BlobStore
	logger *slog.Logger
}

// NewFormatBundle constructs a FormatBundle over blobs.
func NewFormatBundle(blobs blobstore.BlobStore, logger *slog.Logger) *FormatBundle {
	if logger == nil {
		logger = slog.Default()
	}
	return &FormatBundle{blobs: blobs, logger: logger.With("component", "format_bundle")}
}

// Put stores every file of one attachment. It refuses to overwrite a format
// that is already stored, and on any write failure removes every blob written
// by this call before returning.
func (b *FormatBundle) Put(ctx context.Context, scope models.Scope, attachmentID string, files map[models.Format]Source) ([]models.FormatVariant, error) {
	formats, err := bundleFormats(files)
	if err != nil {
		return nil, err
	}

	for _, f := range formats {
		key := BlobKey(scope, attachmentID, f)
		exists, err := b.blobs.Exists(ctx, key)
		if err != nil {
			return nil, persistenceFailure(CodeBlobReadFailure, err, fmt.Sprintf("check %s", key))
		}
		if exists {
			return nil, persistenceFailure(CodeFormatAlreadyStored, nil, fmt.Sprintf("format %s already stored for %s", f, attachmentID))
		}
	}

	staged := newStagedWrites(b.blobs)
	now := time.Now().UTC()
	variants := make([]models.FormatVariant, 0, len(formats))
	for _, f := range formats {
		key := BlobKey(scope, attachmentID, f)
		res, err := b.write(ctx, staged, key, files[f])
		if err != nil {
			written := staged.written()
			if rbErr := staged.rollback(ctx); rbErr != nil {
				b.logger.Error("format rollback incomplete", "attachment_id", attachmentID, "keys", written, "error", rbErr)
				err = errors.Join(err, rbErr)
			} else {
				b.logger.Warn("format write rolled back", "attachment_id", attachmentID, "format", f, "keys", written, "error", err)
			}
			return nil, persistenceFailure(CodeBlobWriteFailure, err, fmt.Sprintf("store format %s", f))
		}
		variants = append(variants, models.FormatVariant{
			AttachmentID: attachmentID,
			Format:       f,
			BlobKey:      res.Key,
			SHA256:       res.SHA256,
			SizeBytes:    res.SizeBytes,
			CreatedAt:    now,
		})
	}
	return variants, nil
}

// Replace writes a new revision of one format under a fresh key and returns
// its variant. The stored revision is untouched; the caller records the
// returned variant and then discards the previous key, or discards the new
// key if recording fails.
func (b *FormatBundle) Replace(ctx context.Context, scope models.Scope, attachmentID string, format models.Format, src Source) (models.FormatVariant, error) {
	if !models.IsValidFormat(format) {
		return models.FormatVariant{}, invalidArgument(CodeInvalidFormat, "invalid format: %s", format)
	}
	if src == nil {
		return models.FormatVariant{}, invalidArgument(CodeMissingFiles, "file for format %s is required", format)
	}
	key, err := revisionKey(scope, attachmentID, format)
	if err != nil {
		return models.FormatVariant{}, persistenceFailure(CodeBlobWriteFailure, err, fmt.Sprintf("name revision of %s", format))
	}
	r, err := src.Open()
	if err != nil {
		return models.FormatVariant{}, persistenceFailure(CodeBlobReadFailure, err, fmt.Sprintf("open source for %s", format))
	}
	defer r.Close()

	res, err := b.blobs.Put(ctx, key, r)
	if err != nil {
		if delErr := b.blobs.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			b.logger.Error("partial revision left behind", "attachment_id", attachmentID, "key", key, "error", delErr)
		}
		return models.FormatVariant{}, persistenceFailure(CodeBlobWriteFailure, err, fmt.Sprintf("store format %s", format))
	}
	return models.FormatVariant{
		AttachmentID: attachmentID,
		Format:       format,
		BlobKey:      res.Key,
		SHA256:       res.SHA256,
		SizeBytes:    res.SizeBytes,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Discard deletes blobs by key. Missing keys are not an error.
func (b *FormatBundle) Discard(ctx context.Context, keys ...string) error {
	if err := b.discard(ctx, keys); err != nil {
		return persistenceFailure(CodeBlobDeleteFailure, err, "discard blobs")
	}
	return nil
}

func (b *FormatBundle) discard(ctx context.Context, keys []string) error {
	var errs []error
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := b.blobs.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// RemoveAll deletes the blob of every known format for one attachment, plus
// any revision keys passed in extra. Keys that were never stored are skipped
// silently.
func (b *FormatBundle) RemoveAll(ctx context.Context, scope models.Scope, attachmentID string, extra ...string) error {
	keys := make([]string, 0, len(models.AllFormats())+len(extra))
	for _, f := range models.AllFormats() {
		keys = append(keys, BlobKey(scope, attachmentID, f))
	}
	for _, key := range extra {
		if !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	if err := b.discard(ctx, keys); err != nil {
		return persistenceFailure(CodeBlobDeleteFailure, err, fmt.Sprintf("remove formats of %s", attachmentID))
	}
	return nil
}

// Get opens one format stored under its initial key.
func (b *FormatBundle) Get(ctx context.Context, scope models.Scope, attachmentID string, format models.Format) (*Content, error) {
	if !models.IsValidFormat(format) {
		return nil, invalidArgument(CodeInvalidFormat, "invalid format: %s", format)
	}
	return b.open(ctx, BlobKey(scope, attachmentID, format), attachmentID, format)
}

// Open opens the blob a recorded variant points at.
func (b *FormatBundle) Open(ctx context.Context, variant models.FormatVariant) (*Content, error) {
	content, err := b.open(ctx, variant.BlobKey, variant.AttachmentID, variant.Format)
	if err != nil {
		return nil, err
	}
	content.SizeBytes = variant.SizeBytes
	content.SHA256 = variant.SHA256
	return content, nil
}

func (b *FormatBundle) open(ctx context.Context, key, attachmentID string, format models.Format) (*Content, error) {
	rc, err := b.blobs.Open(ctx, key)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, notFound(CodeFormatNotFound, "format %s not stored for %s", format, attachmentID)
	}
	if err != nil {
		return nil, persistenceFailure(CodeBlobReadFailure, err, fmt.Sprintf("open format %s", format))
	}
	return &Content{Format: format, SizeBytes: -1, Body: rc}, nil
}

func (b *FormatBundle) write(ctx context.Context, staged *stagedWrites, key string, src Source) (blobstore.BlobPutResult, error) {
	r, err := src.Open()
	if err != nil {
		return blobstore.BlobPutResult{}, err
	}
	defer r.Close()
	return staged.put(ctx, key, r)
}

// bundleFormats validates a file map and returns its formats in canonical order.
func bundleFormats(files map[models.Format]Source) ([]models.Format, error) {
	if len(files) == 0 {
		return nil, invalidArgument(CodeMissingFiles, "at least one format file is required")
	}
	formats := make([]models.Format, 0, len(files))
	for f, src := range files {
		if !models.IsValidFormat(f) {
			return nil, invalidArgument(CodeInvalidFormat, "invalid format: %s", f)
		}
		if src == nil {
			return nil, invalidArgument(CodeMissingFiles, "file for format %s is required", f)
		}
		formats = append(formats, f)
	}
	return models.SortFormats(formats), nil
}

// revisionKey names a replacement blob next to the initial key of format.
func revisionKey(scope models.Scope, attachmentID string, format models.Format) (string, error) {
	var raw [revisionBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return BlobKey(scope, attachmentID, format) + ".r" + hex.EncodeToString(raw[:]), nil
}
