package store

import (
	"context"
	"database/sql"
	"time"

	"evalgallery/internal/models"
)

// SetCover records attachmentID as the cover for key, replacing any previous one.
func (s *Store) SetCover(ctx context.Context, key models.CoverKey, attachmentID string, updatedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO covers (office_id, mission_id, bien_id, gallery, attachment_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(office_id, mission_id, bien_id, gallery)
		DO UPDATE SET attachment_id = excluded.attachment_id, updated_at = excluded.updated_at
	`, key.OfficeID, key.MissionID, key.BienID, key.GalleryColumn(), attachmentID, formatTime(updatedAt))
	return err
}

// GetCover returns the attachment id recorded for key. A row whose attachment
// no longer exists is dropped and reported as unset.
func (s *Store) GetCover(ctx context.Context, key models.CoverKey) (string, bool, error) {
	var attachmentID string
	var live sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT c.attachment_id, a.id
		FROM covers c
		LEFT JOIN attachments a ON a.id = c.attachment_id
		WHERE c.office_id = ? AND c.mission_id = ? AND c.bien_id = ? AND c.gallery = ?
	`, coverArgs(key)...).Scan(&attachmentID, &live)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if !live.Valid {
		if err := s.ClearCover(ctx, key); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	return attachmentID, true, nil
}

// ClearCover removes the cover recorded for key, if any.
func (s *Store) ClearCover(ctx context.Context, key models.CoverKey) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM covers WHERE office_id = ? AND mission_id = ? AND bien_id = ? AND gallery = ?`, coverArgs(key)...)
	return err
}

func coverArgs(key models.CoverKey) []any {
	return []any{key.OfficeID, key.MissionID, key.BienID, key.GalleryColumn()}
}
