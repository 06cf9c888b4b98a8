package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"evalgallery/internal/gallery"
	"evalgallery/internal/models"
)

// scopeFromPath reads {office}/{mission}/{bien}/{gallery} path values.
// Range checks are left to the gallery store.
func scopeFromPath(r *http.Request) (models.Scope, error) {
	var scope models.Scope
	ids := []struct {
		name string
		dst  *int64
	}{
		{"office", &scope.OfficeID},
		{"mission", &scope.MissionID},
		{"bien", &scope.BienID},
	}
	for _, id := range ids {
		raw := strings.TrimSpace(r.PathValue(id.name))
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return models.Scope{}, badRequestCode(fmt.Errorf("invalid %s id %q", id.name, raw), gallery.CodeInvalidScope)
		}
		*id.dst = value
	}

	g, err := models.ParseGallery(r.PathValue("gallery"))
	if err != nil {
		return models.Scope{}, badRequestCode(err, gallery.CodeInvalidGallery)
	}
	scope.Gallery = g
	return scope, nil
}

func formatFromPath(r *http.Request) (models.Format, error) {
	f, err := models.ParseFormat(r.PathValue("format"))
	if err != nil {
		return "", badRequestCode(err, gallery.CodeInvalidFormat)
	}
	return f, nil
}

func (s *Server) scopeOrBadRequest(w http.ResponseWriter, r *http.Request) (models.Scope, bool) {
	scope, err := scopeFromPath(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return models.Scope{}, false
	}
	return scope, true
}
