package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"evalgallery/internal/blobstore"
	"evalgallery/internal/config"
	"evalgallery/internal/gallery"
	"evalgallery/internal/models"
	"evalgallery/internal/store"
)

// galleryRuntime holds the opened metadata store and the attachment store
// built over it.
type galleryRuntime struct {
	meta        *store.Store
	attachments *gallery.AttachmentStore
}

func (r *galleryRuntime) Close() error {
	if r == nil || r.meta == nil {
		return nil
	}
	return r.meta.Close()
}

// errEphemeralStorage rejects the memory backend for one-shot commands: its
// blobs vanish on exit while the metadata rows they describe persist.
var errEphemeralStorage = errors.New("storage.backend memory is only supported by srv")

// openRuntime opens the stores named by cfg. persistent is false only for the
// long-running server, the one process that may keep blobs in memory.
func openRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger, persistent bool) (*galleryRuntime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config not initialized")
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if persistent && strings.EqualFold(strings.TrimSpace(cfg.Storage.Backend), config.StorageBackendMemory) {
		return nil, errEphemeralStorage
	}

	granularity, err := models.ParseCoverGranularity(cfg.CoverGranularity)
	if err != nil {
		return nil, err
	}
	blobs, err := openBlobStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	logger.Debug("opening database", "path", cfg.DBPath)
	meta, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	attachments, err := gallery.NewAttachmentStore(meta, blobs, gallery.Options{
		Logger:           logger,
		Paths:            gallery.ServletPaths{Prefix: cfg.ServletPrefix},
		CoverGranularity: granularity,
	})
	if err != nil {
		meta.Close()
		return nil, err
	}
	return &galleryRuntime{meta: meta, attachments: attachments}, nil
}

func openBlobStore(ctx context.Context, storage config.StorageConfig) (blobstore.BlobStore, error) {
	switch strings.ToLower(strings.TrimSpace(storage.Backend)) {
	case config.StorageBackendLocal, "":
		if storage.Root == "" {
			return nil, fmt.Errorf("storage.root is required for the local backend")
		}
		return blobstore.NewLocalFS(storage.Root)
	case config.StorageBackendMemory:
		return blobstore.NewMemory(), nil
	case config.StorageBackendS3:
		s3, err := blobstore.NewS3(blobstore.S3Options{
			Endpoint:  storage.S3Endpoint,
			Bucket:    storage.S3Bucket,
			Region:    storage.S3Region,
			AccessKey: storage.S3AccessKey,
			SecretKey: storage.S3SecretKey,
			UseSSL:    storage.S3UseSSL,
		})
		if err != nil {
			return nil, err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("prepare bucket %s: %w", storage.S3Bucket, err)
		}
		return s3, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", storage.Backend)
	}
}

// withGallery opens the runtime for the duration of fn.
func withGallery(ctx context.Context, cfg *config.Config, fn func(*gallery.AttachmentStore) error) error {
	if remoteAPI {
		return errRemoteUnsupported
	}
	rt, err := openRuntime(ctx, cfg, slog.Default(), true)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt.attachments)
}
