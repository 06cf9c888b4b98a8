package store

import (
	"context"
	"errors"
	"time"

	"evalgallery/internal/models"
)

var (
	// ErrPositionTaken is returned when a write would put two attachments in
	// the same slot of one scope.
	ErrPositionTaken = errors.New("grid position already taken")
	// ErrAttachmentNotFound is returned by updates that target a missing row.
	ErrAttachmentNotFound = errors.New("attachment not found")
)

// PositionUpdate relocates one attachment.
type PositionUpdate struct {
	ID     string
	Column int
	Row    int
}

// GalleryStore is the metadata persistence surface for attachments, their
// format variants and covers.
type GalleryStore interface {
	AttachmentIDExists(ctx context.Context, id string) (bool, error)
	CreateAttachment(ctx context.Context, attachment *models.Attachment, variants []models.FormatVariant) error
	GetAttachment(ctx context.Context, id string) (*models.Attachment, error)
	ListAttachmentsByScope(ctx context.Context, scope models.Scope) ([]models.Attachment, error)
	ListFormatVariants(ctx context.Context, attachmentID string) ([]models.FormatVariant, error)
	DeleteAttachment(ctx context.Context, id string) error
	UpdatePositions(ctx context.Context, scope models.Scope, updates []PositionUpdate, updatedAt time.Time) error
	RenameAttachment(ctx context.Context, id, label string, updatedAt time.Time) error
	PutFormatVariant(ctx context.Context, variant models.FormatVariant, updatedAt time.Time) error

	SetCover(ctx context.Context, key models.CoverKey, attachmentID string, updatedAt time.Time) error
	GetCover(ctx context.Context, key models.CoverKey) (string, bool, error)
	ClearCover(ctx context.Context, key models.CoverKey) error
}

var _ GalleryStore = (*Store)(nil)
