package server

import (
	"evalgallery/internal/api"
	"evalgallery/internal/models"
)

func toScopeResponse(scope models.Scope) api.ScopeResponse {
	return api.ScopeResponse{
		OfficeID:  scope.OfficeID,
		MissionID: scope.MissionID,
		BienID:    scope.BienID,
		Gallery:   string(scope.Gallery),
	}
}

func (s *Server) toAttachmentResponse(a models.Attachment) api.AttachmentResponse {
	formats := make([]string, 0, len(a.Formats))
	for _, f := range a.Formats {
		formats = append(formats, string(f))
	}
	paths := map[string]string{}
	for f, path := range s.attachments.ServletPathByFormat(a) {
		paths[string(f)] = path
	}
	return api.AttachmentResponse{
		ID:        a.ID,
		Scope:     toScopeResponse(a.Scope),
		Label:     a.Label,
		Column:    a.Column,
		Row:       a.Row,
		Formats:   formats,
		Paths:     paths,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (s *Server) toGridResponse(scope models.Scope, grid models.Grid) api.GridResponse {
	entries := grid.Entries()
	resp := api.GridResponse{
		Scope:       toScopeResponse(scope),
		Count:       len(entries),
		Attachments: make([]api.AttachmentResponse, 0, len(entries)),
	}
	for _, a := range entries {
		resp.Attachments = append(resp.Attachments, s.toAttachmentResponse(a))
	}
	return resp
}

func (s *Server) toCoverResponse(scope models.Scope, cover models.Attachment, ok bool) api.CoverResponse {
	resp := api.CoverResponse{
		Scope:       toScopeResponse(scope),
		Granularity: string(s.attachments.Covers().Granularity()),
		Set:         ok,
	}
	if ok {
		attachment := s.toAttachmentResponse(cover)
		resp.Attachment = &attachment
	}
	return resp
}
