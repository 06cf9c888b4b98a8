package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"evalgallery/internal/models"
)

const attachmentColumns = "id, office_id, mission_id, bien_id, gallery, label, grid_col, grid_row, created_at, updated_at"
const variantColumns = "attachment_id, format, blob_key, sha256, size_bytes, created_at"
const scopePredicate = "office_id = ? AND mission_id = ? AND bien_id = ? AND gallery = ?"

// AttachmentIDExists checks whether an attachment row exists by id.
func (s *Store) AttachmentIDExists(ctx context.Context, id string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM attachments WHERE id = ? LIMIT 1", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateAttachment inserts one attachment row and its format variants in one
// transaction. A slot collision returns ErrPositionTaken.
func (s *Store) CreateAttachment(ctx context.Context, attachment *models.Attachment, variants []models.FormatVariant) (err error) {
	if attachment == nil {
		return fmt.Errorf("attachment is required")
	}
	if len(variants) == 0 {
		return fmt.Errorf("at least one format variant is required")
	}

	now := time.Now().UTC()
	if attachment.CreatedAt.IsZero() {
		attachment.CreatedAt = now
	}
	if attachment.UpdatedAt.IsZero() {
		attachment.UpdatedAt = attachment.CreatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO attachments (`+attachmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		attachment.ID,
		attachment.Scope.OfficeID,
		attachment.Scope.MissionID,
		attachment.Scope.BienID,
		string(attachment.Scope.Gallery),
		attachment.Label,
		attachment.Column,
		attachment.Row,
		formatTime(attachment.CreatedAt),
		formatTime(attachment.UpdatedAt),
	); err != nil {
		if isPositionConstraint(err) {
			err = ErrPositionTaken
		}
		return err
	}

	formats := make([]models.Format, 0, len(variants))
	for i := range variants {
		v := &variants[i]
		v.AttachmentID = attachment.ID
		if v.CreatedAt.IsZero() {
			v.CreatedAt = attachment.CreatedAt
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO attachment_formats (`+variantColumns+`)
			VALUES (?, ?, ?, ?, ?, ?)
		`, v.AttachmentID, string(v.Format), v.BlobKey, v.SHA256, v.SizeBytes, formatTime(v.CreatedAt)); err != nil {
			return err
		}
		formats = append(formats, v.Format)
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	attachment.Formats = models.SortFormats(formats)
	return nil
}

// GetAttachment returns one attachment with its formats, or nil when missing.
func (s *Store) GetAttachment(ctx context.Context, id string) (*models.Attachment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+attachmentColumns+` FROM attachments WHERE id = ?`, id)
	attachment, err := scanAttachment(row)
	if err != nil || attachment == nil {
		return attachment, err
	}

	variants, err := s.ListFormatVariants(ctx, id)
	if err != nil {
		return nil, err
	}
	attachment.Formats = variantFormats(variants)
	return attachment, nil
}

// ListAttachmentsByScope lists every attachment of one scope in row-major order.
func (s *Store) ListAttachmentsByScope(ctx context.Context, scope models.Scope) ([]models.Attachment, error) {
	args := scopeArgs(scope)
	rows, err := s.db.QueryContext(ctx, `SELECT `+attachmentColumns+` FROM attachments WHERE `+scopePredicate+` ORDER BY grid_row ASC, grid_col ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attachments := []models.Attachment{}
	index := map[string]int{}
	for rows.Next() {
		attachment, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		if attachment == nil {
			continue
		}
		index[attachment.ID] = len(attachments)
		attachments = append(attachments, *attachment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(attachments) == 0 {
		return attachments, nil
	}

	formatRows, err := s.db.QueryContext(ctx, `
		SELECT f.attachment_id, f.format
		FROM attachment_formats f
		JOIN attachments a ON a.id = f.attachment_id
		WHERE a.office_id = ? AND a.mission_id = ? AND a.bien_id = ? AND a.gallery = ?`, args...)
	if err != nil {
		return nil, err
	}
	defer formatRows.Close()

	for formatRows.Next() {
		var attachmentID, format string
		if err := formatRows.Scan(&attachmentID, &format); err != nil {
			return nil, err
		}
		if i, ok := index[attachmentID]; ok {
			attachments[i].Formats = append(attachments[i].Formats, models.Format(format))
		}
	}
	if err := formatRows.Err(); err != nil {
		return nil, err
	}
	for i := range attachments {
		attachments[i].Formats = models.SortFormats(attachments[i].Formats)
	}
	return attachments, nil
}

// ListFormatVariants lists stored variants of one attachment in canonical format order.
func (s *Store) ListFormatVariants(ctx context.Context, attachmentID string) ([]models.FormatVariant, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+variantColumns+` FROM attachment_formats WHERE attachment_id = ?`, attachmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byFormat := map[models.Format]models.FormatVariant{}
	for rows.Next() {
		variant, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		byFormat[variant.Format] = variant
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	variants := make([]models.FormatVariant, 0, len(byFormat))
	for _, f := range models.AllFormats() {
		if v, ok := byFormat[f]; ok {
			variants = append(variants, v)
		}
	}
	return variants, nil
}

// DeleteAttachment removes an attachment, its variants and any cover pointing
// at it in one transaction.
func (s *Store) DeleteAttachment(ctx context.Context, id string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM covers WHERE attachment_id = ?", id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM attachment_formats WHERE attachment_id = ?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM attachments WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		err = ErrAttachmentNotFound
		return err
	}
	return tx.Commit()
}

// UpdatePositions applies a batch of moves within one scope atomically. Rows
// are first parked on unique negative columns so that swaps and shifts never
// trip the slot uniqueness constraint mid-transaction.
func (s *Store) UpdatePositions(ctx context.Context, scope models.Scope, updates []PositionUpdate, updatedAt time.Time) (err error) {
	if len(updates) == 0 {
		return nil
	}
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	scoped := append([]any{}, scopeArgs(scope)...)
	for i, u := range updates {
		args := append([]any{-(i + 1), -1, u.ID}, scoped...)
		res, execErr := tx.ExecContext(ctx, `UPDATE attachments SET grid_col = ?, grid_row = ? WHERE id = ? AND `+scopePredicate, args...)
		if execErr != nil {
			err = execErr
			return err
		}
		affected, execErr := res.RowsAffected()
		if execErr != nil {
			err = execErr
			return err
		}
		if affected == 0 {
			err = fmt.Errorf("%w: %s", ErrAttachmentNotFound, u.ID)
			return err
		}
	}

	stamp := formatTime(updatedAt)
	for _, u := range updates {
		if _, err = tx.ExecContext(ctx, `UPDATE attachments SET grid_col = ?, grid_row = ?, updated_at = ? WHERE id = ?`, u.Column, u.Row, stamp, u.ID); err != nil {
			if isPositionConstraint(err) {
				err = ErrPositionTaken
			}
			return err
		}
	}

	return tx.Commit()
}

// RenameAttachment replaces the label of one attachment.
func (s *Store) RenameAttachment(ctx context.Context, id, label string, updatedAt time.Time) error {
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, "UPDATE attachments SET label = ?, updated_at = ? WHERE id = ?", label, formatTime(updatedAt), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAttachmentNotFound
	}
	return nil
}

// PutFormatVariant inserts or replaces one format variant of an existing
// attachment and bumps the attachment's updated_at.
func (s *Store) PutFormatVariant(ctx context.Context, variant models.FormatVariant, updatedAt time.Time) (err error) {
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	if variant.CreatedAt.IsZero() {
		variant.CreatedAt = updatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, "UPDATE attachments SET updated_at = ? WHERE id = ?", formatTime(updatedAt), variant.AttachmentID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		err = ErrAttachmentNotFound
		return err
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO attachment_formats (`+variantColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(attachment_id, format) DO UPDATE SET
			blob_key = excluded.blob_key,
			sha256 = excluded.sha256,
			size_bytes = excluded.size_bytes,
			created_at = excluded.created_at
	`, variant.AttachmentID, string(variant.Format), variant.BlobKey, variant.SHA256, variant.SizeBytes, formatTime(variant.CreatedAt)); err != nil {
		return err
	}

	return tx.Commit()
}

func scanAttachment(scanner interface {
	Scan(dest ...any) error
}) (*models.Attachment, error) {
	attachment := models.Attachment{}
	var gallery, createdAt, updatedAt string

	err := scanner.Scan(
		&attachment.ID,
		&attachment.Scope.OfficeID,
		&attachment.Scope.MissionID,
		&attachment.Scope.BienID,
		&gallery,
		&attachment.Label,
		&attachment.Column,
		&attachment.Row,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	attachment.Scope.Gallery = models.Gallery(gallery)

	parsedCreated, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	parsedUpdated, err := parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	attachment.CreatedAt = parsedCreated
	attachment.UpdatedAt = parsedUpdated
	return &attachment, nil
}

func scanVariant(scanner interface {
	Scan(dest ...any) error
}) (models.FormatVariant, error) {
	variant := models.FormatVariant{}
	var format, createdAt string
	if err := scanner.Scan(&variant.AttachmentID, &format, &variant.BlobKey, &variant.SHA256, &variant.SizeBytes, &createdAt); err != nil {
		return variant, err
	}
	variant.Format = models.Format(format)
	parsed, err := parseTime(createdAt)
	if err != nil {
		return variant, err
	}
	variant.CreatedAt = parsed
	return variant, nil
}

func variantFormats(variants []models.FormatVariant) []models.Format {
	formats := make([]models.Format, 0, len(variants))
	for _, v := range variants {
		formats = append(formats, v.Format)
	}
	return models.SortFormats(formats)
}

func scopeArgs(scope models.Scope) []any {
	return []any{scope.OfficeID, scope.MissionID, scope.BienID, string(scope.Gallery)}
}

func isPositionConstraint(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, "attachments.grid_col")
}
