package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"evalgallery/internal/blobstore"
	"evalgallery/internal/models"
	"evalgallery/internal/store"
)

// Options tunes an AttachmentStore. Zero values select defaults.
type Options struct {
	Logger           *slog.Logger
	Paths            PathBuilder
	CoverGranularity models.CoverGranularity
}

// AttachmentStore manages attachment grids: metadata in a GalleryStore and
// files in a FormatBundle. Mutations on one scope are serialized; distinct
// scopes never block each other.
type AttachmentStore struct {
	meta   store.GalleryStore
	bundle *FormatBundle
	paths  PathBuilder
	locks  *scopeLocks
	covers *CoverRegistry
	logger *slog.Logger
	now    func() time.Time
}

// NewAttachmentStore constructs an AttachmentStore.
func NewAttachmentStore(meta store.GalleryStore, blobs blobstore.BlobStore, opts Options) (*AttachmentStore, error) {
	if meta == nil {
		return nil, fmt.Errorf("gallery store is required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	paths := opts.Paths
	if paths == nil {
		paths = ServletPaths{Prefix: DefaultServletPrefix}
	}
	granularity, err := models.ParseCoverGranularity(string(opts.CoverGranularity))
	if err != nil {
		return nil, err
	}

	s := &AttachmentStore{
		meta:   meta,
		bundle: NewFormatBundle(blobs, logger),
		paths:  paths,
		locks:  newScopeLocks(),
		logger: logger.With("component", "attachment_store"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	s.covers = &CoverRegistry{attachments: s, granularity: granularity, logger: logger.With("component", "cover_registry")}
	return s, nil
}

// Covers returns the cover registry sharing this store's locks.
func (s *AttachmentStore) Covers() *CoverRegistry {
	return s.covers
}

// Bundle returns the format bundle backing this store.
func (s *AttachmentStore) Bundle() *FormatBundle {
	return s.bundle
}

// Find returns the current grid of scope.
func (s *AttachmentStore) Find(ctx context.Context, scope models.Scope) (models.Grid, error) {
	if err := validateScope(scope); err != nil {
		return nil, err
	}
	unlock := s.locks.rlock(scope)
	defer unlock()
	return s.grid(ctx, scope)
}

// Get returns one attachment by id.
func (s *AttachmentStore) Get(ctx context.Context, id string) (models.Attachment, error) {
	stored, err := s.meta.GetAttachment(ctx, id)
	if err != nil {
		return models.Attachment{}, persistenceFailure(CodeStoreFailure, err, "load attachment")
	}
	if stored == nil {
		return models.Attachment{}, notFound(CodeAttachmentNotFound, "attachment %s not found", id)
	}
	return *stored, nil
}

// Create stores files as a new attachment at (column, row). Either every
// format and the metadata row are persisted, or nothing is.
func (s *AttachmentStore) Create(ctx context.Context, files map[models.Format]Source, scope models.Scope, label string, column, row int) (models.Grid, error) {
	if err := validateScope(scope); err != nil {
		return nil, err
	}
	formats := make([]models.Format, 0, len(files))
	for f := range files {
		formats = append(formats, f)
	}
	if err := validateInput(createInput{Label: label, Column: column, Row: row, Formats: formats}); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(scope)
	defer unlock()

	grid, err := s.grid(ctx, scope)
	if err != nil {
		return nil, err
	}
	if _, taken := grid.At(column, row); taken {
		return nil, positionOccupied(column, row)
	}

	id, err := store.GenerateAttachmentID(func(candidate string) (bool, error) {
		return s.meta.AttachmentIDExists(ctx, candidate)
	})
	if err != nil {
		return nil, persistenceFailure(CodeStoreFailure, err, "generate attachment id")
	}

	variants, err := s.bundle.Put(ctx, scope, id, files)
	if err != nil {
		return nil, err
	}

	now := s.now()
	attachment := &models.Attachment{
		ID:        id,
		Scope:     scope,
		Label:     label,
		Column:    column,
		Row:       row,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.meta.CreateAttachment(ctx, attachment, variants); err != nil {
		if rbErr := s.bundle.RemoveAll(context.WithoutCancel(ctx), scope, id); rbErr != nil {
			s.logger.Error("create rollback incomplete", "scope", scope.Key(), "attachment_id", id, "error", rbErr)
		}
		if errors.Is(err, store.ErrPositionTaken) {
			return nil, positionOccupied(column, row)
		}
		return nil, persistenceFailure(CodeStoreFailure, err, "insert attachment")
	}

	s.logger.Debug("attachment created", "scope", scope.Key(), "attachment_id", id, "column", column, "row", row, "formats", attachment.Formats)
	return s.grid(ctx, scope)
}

// Delete removes attachment, its files and any cover pointing at it.
func (s *AttachmentStore) Delete(ctx context.Context, attachment models.Attachment) (models.Grid, error) {
	if err := validateScope(attachment.Scope); err != nil {
		return nil, err
	}
	unlock := s.locks.lock(attachment.Scope)
	defer unlock()

	stored, err := s.resolve(ctx, attachment)
	if err != nil {
		return nil, err
	}
	variants, err := s.meta.ListFormatVariants(ctx, stored.ID)
	if err != nil {
		return nil, persistenceFailure(CodeStoreFailure, err, "list formats")
	}
	if err := s.meta.DeleteAttachment(ctx, stored.ID); err != nil {
		return nil, persistenceFailure(CodeStoreFailure, err, "delete attachment")
	}
	// Metadata is gone, so leftover blobs are unreachable; RemoveAll is
	// idempotent and a later delete of the same keys is harmless.
	if err := s.bundle.RemoveAll(ctx, stored.Scope, stored.ID, variantKeys(variants)...); err != nil {
		s.logger.Warn("attachment files not fully removed", "scope", stored.Scope.Key(), "attachment_id", stored.ID, "error", err)
	}

	s.logger.Debug("attachment deleted", "scope", stored.Scope.Key(), "attachment_id", stored.ID)
	return s.grid(ctx, stored.Scope)
}

// Move relocates attachment to (column, row), shifting occupants in row-major
// order when the target is taken. Moving onto the current slot writes nothing.
func (s *AttachmentStore) Move(ctx context.Context, attachment models.Attachment, column, row int) (models.Grid, error) {
	if err := validateScope(attachment.Scope); err != nil {
		return nil, err
	}
	if err := validateInput(moveInput{Column: column, Row: row}); err != nil {
		return nil, err
	}
	unlock := s.locks.lock(attachment.Scope)
	defer unlock()

	stored, err := s.resolve(ctx, attachment)
	if err != nil {
		return nil, err
	}
	entries, err := s.list(ctx, stored.Scope)
	if err != nil {
		return nil, err
	}

	updates := planMove(entries, *stored, models.Position{Column: column, Row: row})
	if len(updates) == 0 {
		return models.NewGrid(entries), nil
	}
	if err := s.meta.UpdatePositions(ctx, stored.Scope, updates, s.now()); err != nil {
		return nil, persistenceFailure(CodeStoreFailure, err, "update positions")
	}

	s.logger.Debug("attachment moved", "scope", stored.Scope.Key(), "attachment_id", stored.ID, "column", column, "row", row, "shifted", len(updates)-1)
	return s.grid(ctx, stored.Scope)
}

// Rename replaces the label of attachment.
func (s *AttachmentStore) Rename(ctx context.Context, attachment models.Attachment, label string) (models.Attachment, error) {
	if err := validateScope(attachment.Scope); err != nil {
		return models.Attachment{}, err
	}
	if err := validateInput(renameInput{Label: label}); err != nil {
		return models.Attachment{}, err
	}
	unlock := s.locks.lock(attachment.Scope)
	defer unlock()

	stored, err := s.resolve(ctx, attachment)
	if err != nil {
		return models.Attachment{}, err
	}
	now := s.now()
	if err := s.meta.RenameAttachment(ctx, stored.ID, label, now); err != nil {
		return models.Attachment{}, persistenceFailure(CodeStoreFailure, err, "rename attachment")
	}
	stored.Label = label
	stored.UpdatedAt = now
	s.logger.Debug("attachment renamed", "scope", stored.Scope.Key(), "attachment_id", stored.ID)
	return *stored, nil
}

// ReplaceFormat overwrites or adds one format of an existing attachment.
// The new bytes are written under a fresh key and only become visible once
// the metadata row points at them; on failure the previous revision stays
// readable.
func (s *AttachmentStore) ReplaceFormat(ctx context.Context, attachment models.Attachment, format models.Format, src Source) (models.Attachment, error) {
	if err := validateScope(attachment.Scope); err != nil {
		return models.Attachment{}, err
	}
	unlock := s.locks.lock(attachment.Scope)
	defer unlock()

	stored, err := s.resolve(ctx, attachment)
	if err != nil {
		return models.Attachment{}, err
	}
	previous, err := s.meta.ListFormatVariants(ctx, stored.ID)
	if err != nil {
		return models.Attachment{}, persistenceFailure(CodeStoreFailure, err, "list formats")
	}
	variant, err := s.bundle.Replace(ctx, stored.Scope, stored.ID, format, src)
	if err != nil {
		return models.Attachment{}, err
	}
	now := s.now()
	if err := s.meta.PutFormatVariant(ctx, variant, now); err != nil {
		if delErr := s.bundle.Discard(context.WithoutCancel(ctx), variant.BlobKey); delErr != nil {
			s.logger.Error("replace rollback incomplete", "attachment_id", stored.ID, "format", format, "key", variant.BlobKey, "error", delErr)
		}
		return models.Attachment{}, persistenceFailure(CodeStoreFailure, err, "record format")
	}
	for _, v := range previous {
		if v.Format != format || v.BlobKey == variant.BlobKey {
			continue
		}
		if err := s.bundle.Discard(ctx, v.BlobKey); err != nil {
			s.logger.Warn("previous format revision not removed", "attachment_id", stored.ID, "format", format, "key", v.BlobKey, "error", err)
		}
	}

	if !stored.HasFormat(format) {
		stored.Formats = models.SortFormats(append(stored.Formats, format))
	}
	stored.UpdatedAt = now
	s.logger.Debug("attachment format replaced", "scope", stored.Scope.Key(), "attachment_id", stored.ID, "format", format)
	return *stored, nil
}

// ContentByFormat opens every stored format of attachment. If any format
// cannot be opened, the streams already opened are closed and nothing is
// returned.
func (s *AttachmentStore) ContentByFormat(ctx context.Context, attachment models.Attachment) (map[models.Format]*Content, error) {
	if err := validateScope(attachment.Scope); err != nil {
		return nil, err
	}
	unlock := s.locks.rlock(attachment.Scope)
	defer unlock()

	stored, err := s.resolve(ctx, attachment)
	if err != nil {
		return nil, err
	}
	variants, err := s.meta.ListFormatVariants(ctx, stored.ID)
	if err != nil {
		return nil, persistenceFailure(CodeStoreFailure, err, "list formats")
	}

	contents := make(map[models.Format]*Content, len(variants))
	for _, v := range variants {
		content, err := s.bundle.Open(ctx, v)
		if err != nil {
			closeContents(contents)
			s.logger.Warn("attachment content incomplete", "scope", stored.Scope.Key(), "attachment_id", stored.ID, "format", v.Format, "error", err)
			return nil, persistenceFailure(CodeIncompleteContent, err, fmt.Sprintf("read format %s", v.Format))
		}
		contents[v.Format] = content
	}
	return contents, nil
}

// Content opens one stored format of attachment.
func (s *AttachmentStore) Content(ctx context.Context, attachment models.Attachment, format models.Format) (*Content, error) {
	if err := validateScope(attachment.Scope); err != nil {
		return nil, err
	}
	unlock := s.locks.rlock(attachment.Scope)
	defer unlock()

	stored, err := s.resolve(ctx, attachment)
	if err != nil {
		return nil, err
	}
	return s.openFormat(ctx, stored.ID, format)
}

// ContentByID opens one stored format of the attachment id within scope. The
// row is loaded under the scope lock, so a move racing the read does not
// fail it. A missing id or one owned by another scope is ErrNotFound.
func (s *AttachmentStore) ContentByID(ctx context.Context, scope models.Scope, id string, format models.Format) (*Content, error) {
	if err := validateScope(scope); err != nil {
		return nil, err
	}
	if !models.IsValidFormat(format) {
		return nil, invalidArgument(CodeInvalidFormat, "invalid format: %s", format)
	}
	unlock := s.locks.rlock(scope)
	defer unlock()

	stored, err := s.meta.GetAttachment(ctx, id)
	if err != nil {
		return nil, persistenceFailure(CodeStoreFailure, err, "load attachment")
	}
	if stored == nil || stored.Scope != scope {
		return nil, notFound(CodeAttachmentNotFound, "attachment %s not found in %s", id, scope)
	}
	return s.openFormat(ctx, stored.ID, format)
}

func (s *AttachmentStore) openFormat(ctx context.Context, id string, format models.Format) (*Content, error) {
	variants, err := s.meta.ListFormatVariants(ctx, id)
	if err != nil {
		return nil, persistenceFailure(CodeStoreFailure, err, "list formats")
	}
	for _, v := range variants {
		if v.Format == format {
			return s.bundle.Open(ctx, v)
		}
	}
	return nil, notFound(CodeFormatNotFound, "format %s not stored for %s", format, id)
}

// ServletPathByFormat returns the addressable path of every format attachment owns.
func (s *AttachmentStore) ServletPathByFormat(attachment models.Attachment) map[models.Format]string {
	out := make(map[models.Format]string, len(attachment.Formats))
	for _, f := range models.SortFormats(attachment.Formats) {
		out[f] = s.paths.Path(attachment.Scope, attachment.ID, f)
	}
	return out
}

// Compact packs scope into a gap-free row-major layout columns wide.
func (s *AttachmentStore) Compact(ctx context.Context, scope models.Scope, columns int) (models.Grid, error) {
	if err := validateScope(scope); err != nil {
		return nil, err
	}
	if err := validateInput(compactInput{Columns: columns}); err != nil {
		return nil, err
	}
	unlock := s.locks.lock(scope)
	defer unlock()

	entries, err := s.list(ctx, scope)
	if err != nil {
		return nil, err
	}
	updates := compactLayout(entries, columns)
	if len(updates) == 0 {
		return models.NewGrid(entries), nil
	}
	if err := s.meta.UpdatePositions(ctx, scope, updates, s.now()); err != nil {
		return nil, persistenceFailure(CodeStoreFailure, err, "compact positions")
	}
	s.logger.Debug("gallery compacted", "scope", scope.Key(), "columns", columns, "moved", len(updates))
	return s.grid(ctx, scope)
}

// resolve loads the stored row of attachment and checks that the caller's
// copy still matches its scope and slot. Callers hold the scope lock.
func (s *AttachmentStore) resolve(ctx context.Context, attachment models.Attachment) (*models.Attachment, error) {
	if attachment.ID == "" {
		return nil, invalidArgument(CodeUnknownAttachment, "attachment id is required")
	}
	stored, err := s.meta.GetAttachment(ctx, attachment.ID)
	if err != nil {
		return nil, persistenceFailure(CodeStoreFailure, err, "load attachment")
	}
	if stored == nil {
		return nil, invalidArgument(CodeUnknownAttachment, "unknown attachment %s", attachment.ID)
	}
	if stored.Scope != attachment.Scope {
		return nil, invalidArgument(CodeUnknownAttachment, "attachment %s is not in scope %s", attachment.ID, attachment.Scope)
	}
	if stored.Position() != attachment.Position() {
		return nil, invalidArgument(CodeStaleAttachment, "attachment %s is no longer at (%d,%d)", attachment.ID, attachment.Column, attachment.Row)
	}
	return stored, nil
}

func (s *AttachmentStore) list(ctx context.Context, scope models.Scope) ([]models.Attachment, error) {
	entries, err := s.meta.ListAttachmentsByScope(ctx, scope)
	if err != nil {
		return nil, persistenceFailure(CodeStoreFailure, err, "list attachments")
	}
	return entries, nil
}

func (s *AttachmentStore) grid(ctx context.Context, scope models.Scope) (models.Grid, error) {
	entries, err := s.list(ctx, scope)
	if err != nil {
		return nil, err
	}
	return models.NewGrid(entries), nil
}

func variantKeys(variants []models.FormatVariant) []string {
	keys := make([]string, 0, len(variants))
	for _, v := range variants {
		keys = append(keys, v.BlobKey)
	}
	return keys
}
