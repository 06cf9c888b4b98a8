package server

import (
	"net/http"
)

const galleryRoute = "/v1/offices/{office}/missions/{mission}/biens/{bien}/galleries/{gallery}"

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("GET /health", s.handleHealth)

	// Gallery grids.
	mux.HandleFunc("GET "+galleryRoute, s.handleGetGrid)
	mux.HandleFunc("POST "+galleryRoute+"/compact", s.handleCompactGrid)

	// Covers.
	mux.HandleFunc("GET "+galleryRoute+"/cover", s.handleGetCover)
	mux.HandleFunc("PUT "+galleryRoute+"/cover", s.handleSetCover)
	mux.HandleFunc("DELETE "+galleryRoute+"/cover", s.handleClearCover)

	// Single attachment.
	mux.HandleFunc("GET /v1/attachments/{id}", s.handleGetAttachment)
	mux.HandleFunc("PATCH /v1/attachments/{id}", s.handleRenameAttachment)
	mux.HandleFunc("DELETE /v1/attachments/{id}", s.handleDeleteAttachment)
	mux.HandleFunc("POST /v1/attachments/{id}/move", s.handleMoveAttachment)
	mux.HandleFunc("GET /v1/attachments/{id}/paths", s.handleAttachmentPaths)

	// Content.
	mux.HandleFunc("GET "+s.servletPrefix+"/{office}/{mission}/{bien}/{gallery}/{id}/{format}", s.handleContent)

	return mux
}
