package server

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"evalgallery/internal/api"
	"evalgallery/internal/gallery"
	"evalgallery/internal/models"
)

const contentSniffLen = 512

func (s *Server) handleGetGrid(w http.ResponseWriter, r *http.Request) {
	scope, ok := s.scopeOrBadRequest(w, r)
	if !ok {
		return
	}
	grid, err := s.attachments.Find(r.Context(), scope)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.toGridResponse(scope, grid))
}

func (s *Server) handleCompactGrid(w http.ResponseWriter, r *http.Request) {
	scope, ok := s.scopeOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.CompactRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	grid, err := s.attachments.Compact(r.Context(), scope, req.Columns)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.toGridResponse(scope, grid))
}

func (s *Server) handleGetCover(w http.ResponseWriter, r *http.Request) {
	scope, ok := s.scopeOrBadRequest(w, r)
	if !ok {
		return
	}
	cover, set, err := s.attachments.Covers().GetCover(r.Context(), scope)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.toCoverResponse(scope, cover, set))
}

func (s *Server) handleSetCover(w http.ResponseWriter, r *http.Request) {
	scope, ok := s.scopeOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.CoverSetRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.AttachmentID) == "" {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(fmt.Errorf("attachment_id is required"), ErrCodeMissingRequired))
		return
	}
	attachment, err := s.attachments.Get(r.Context(), strings.TrimSpace(req.AttachmentID))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.attachments.Covers().SetCover(r.Context(), scope, attachment); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.toCoverResponse(scope, attachment, true))
}

func (s *Server) handleClearCover(w http.ResponseWriter, r *http.Request) {
	scope, ok := s.scopeOrBadRequest(w, r)
	if !ok {
		return
	}
	if err := s.attachments.Covers().ClearCover(r.Context(), scope); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.toCoverResponse(scope, models.Attachment{}, false))
}

func (s *Server) handleGetAttachment(w http.ResponseWriter, r *http.Request) {
	attachment, ok := s.attachmentOrError(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.toAttachmentResponse(attachment))
}

func (s *Server) handleRenameAttachment(w http.ResponseWriter, r *http.Request) {
	attachment, ok := s.attachmentOrError(w, r)
	if !ok {
		return
	}
	var req api.RenameRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	if req.Label == nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(fmt.Errorf("label is required"), ErrCodeMissingRequired))
		return
	}
	var renamed models.Attachment
	err := s.retryStale(r, attachment, func(current models.Attachment) (err error) {
		renamed, err = s.attachments.Rename(r.Context(), current, *req.Label)
		return err
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.toAttachmentResponse(renamed))
}

func (s *Server) handleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	attachment, ok := s.attachmentOrError(w, r)
	if !ok {
		return
	}
	var grid models.Grid
	err := s.retryStale(r, attachment, func(current models.Attachment) (err error) {
		grid, err = s.attachments.Delete(r.Context(), current)
		return err
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.toGridResponse(attachment.Scope, grid))
}

func (s *Server) handleMoveAttachment(w http.ResponseWriter, r *http.Request) {
	attachment, ok := s.attachmentOrError(w, r)
	if !ok {
		return
	}
	var req api.MoveRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	if req.Column == nil || req.Row == nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(fmt.Errorf("column and row are required"), ErrCodeMissingRequired))
		return
	}
	var grid models.Grid
	err := s.retryStale(r, attachment, func(current models.Attachment) (err error) {
		grid, err = s.attachments.Move(r.Context(), current, *req.Column, *req.Row)
		return err
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.toGridResponse(attachment.Scope, grid))
}

func (s *Server) handleAttachmentPaths(w http.ResponseWriter, r *http.Request) {
	attachment, ok := s.attachmentOrError(w, r)
	if !ok {
		return
	}
	paths := map[string]string{}
	for f, path := range s.attachments.ServletPathByFormat(attachment) {
		paths[string(f)] = path
	}
	s.writeJSON(w, http.StatusOK, api.PathsResponse{ID: attachment.ID, Paths: paths})
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	scope, ok := s.scopeOrBadRequest(w, r)
	if !ok {
		return
	}
	format, err := formatFromPath(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	s.withLimiter(w, r, s.contentLimiter, "content", func() {
		content, err := s.attachments.ContentByID(r.Context(), scope, id, format)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		defer content.Close()

		body := bufio.NewReaderSize(content, contentSniffLen)
		head, _ := body.Peek(contentSniffLen)
		w.Header().Set("Content-Type", http.DetectContentType(head))
		if content.SizeBytes >= 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(content.SizeBytes, 10))
		}
		if content.SHA256 != "" {
			w.Header().Set("ETag", `"`+content.SHA256+`"`)
		}
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, body); err != nil {
			s.log().Warn("content stream interrupted", "attachment_id", id, "format", format, "error", err)
		}
	})
}

func (s *Server) attachmentOrError(w http.ResponseWriter, r *http.Request) (models.Attachment, bool) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return models.Attachment{}, false
	}
	attachment, err := s.attachments.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return models.Attachment{}, false
	}
	return attachment, true
}

// retryStale runs op once more against a reloaded row when the slot loaded by
// the handler was changed by another writer before op took the scope lock.
func (s *Server) retryStale(r *http.Request, attachment models.Attachment, op func(models.Attachment) error) error {
	err := op(attachment)
	if gallery.CodeOf(err) != gallery.CodeStaleAttachment {
		return err
	}
	current, getErr := s.attachments.Get(r.Context(), attachment.ID)
	if getErr != nil {
		return getErr
	}
	return op(current)
}
