package gallery

import (
	"context"
	"log/slog"

	"evalgallery/internal/models"
)

// CoverRegistry records at most one cover attachment per cover key. The key
// is the scope projected onto the configured granularity.
type CoverRegistry struct {
	attachments *AttachmentStore
	granularity models.CoverGranularity
	logger      *slog.Logger
}

// Granularity returns the scope level covers are recorded at.
func (r *CoverRegistry) Granularity() models.CoverGranularity {
	return r.granularity
}

// SetCover makes attachment the cover of scope, replacing any previous cover.
func (r *CoverRegistry) SetCover(ctx context.Context, scope models.Scope, attachment models.Attachment) error {
	if err := validateScope(scope); err != nil {
		return err
	}
	if err := validateScope(attachment.Scope); err != nil {
		return err
	}
	key := scope.CoverKey(r.granularity)
	if attachment.Scope.CoverKey(r.granularity) != key {
		return invalidArgument(CodeCoverScope, "attachment %s is outside the %s cover of %s", attachment.ID, r.granularity, scope)
	}

	s := r.attachments
	unlock := s.locks.lock(attachment.Scope)
	defer unlock()

	stored, err := s.resolve(ctx, attachment)
	if err != nil {
		return err
	}
	if err := s.meta.SetCover(ctx, key, stored.ID, s.now()); err != nil {
		return persistenceFailure(CodeStoreFailure, err, "set cover")
	}
	r.logger.Debug("cover set", "scope", scope.Key(), "granularity", r.granularity, "attachment_id", stored.ID)
	return nil
}

// GetCover returns the cover of scope. The boolean is false when no cover is
// set or the recorded attachment no longer exists.
func (r *CoverRegistry) GetCover(ctx context.Context, scope models.Scope) (models.Attachment, bool, error) {
	if err := validateScope(scope); err != nil {
		return models.Attachment{}, false, err
	}
	s := r.attachments
	unlock := s.locks.rlock(scope)
	defer unlock()

	id, ok, err := s.meta.GetCover(ctx, scope.CoverKey(r.granularity))
	if err != nil {
		return models.Attachment{}, false, persistenceFailure(CodeStoreFailure, err, "get cover")
	}
	if !ok {
		return models.Attachment{}, false, nil
	}
	stored, err := s.meta.GetAttachment(ctx, id)
	if err != nil {
		return models.Attachment{}, false, persistenceFailure(CodeStoreFailure, err, "load cover attachment")
	}
	if stored == nil {
		return models.Attachment{}, false, nil
	}
	return *stored, true, nil
}

// ClearCover removes the cover of scope, if any.
func (r *CoverRegistry) ClearCover(ctx context.Context, scope models.Scope) error {
	if err := validateScope(scope); err != nil {
		return err
	}
	s := r.attachments
	unlock := s.locks.lock(scope)
	defer unlock()

	if err := s.meta.ClearCover(ctx, scope.CoverKey(r.granularity)); err != nil {
		return persistenceFailure(CodeStoreFailure, err, "clear cover")
	}
	r.logger.Debug("cover cleared", "scope", scope.Key(), "granularity", r.granularity)
	return nil
}
