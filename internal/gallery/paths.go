package gallery

import (
	"fmt"
	"strings"

	"evalgallery/internal/models"
)

// DefaultServletPrefix is the URL prefix content routes are served under.
const DefaultServletPrefix = "/servlet/attachments"

// PathBuilder maps one stored format to an addressable path. Implementations
// must not perform I/O.
type PathBuilder interface {
	Path(scope models.Scope, attachmentID string, format models.Format) string
}

// ServletPaths builds {prefix}/{office}/{mission}/{bien}/{gallery}/{id}/{format}.
type ServletPaths struct {
	Prefix string
}

func (p ServletPaths) Path(scope models.Scope, attachmentID string, format models.Format) string {
	prefix := strings.TrimRight(strings.TrimSpace(p.Prefix), "/")
	if prefix == "" {
		prefix = DefaultServletPrefix
	}
	return prefix + "/" + scopedName(scope, attachmentID, format)
}

// BlobKey returns the blob storage key of one attachment format.
func BlobKey(scope models.Scope, attachmentID string, format models.Format) string {
	return scopedName(scope, attachmentID, format)
}

func scopedName(scope models.Scope, attachmentID string, format models.Format) string {
	return fmt.Sprintf("%d/%d/%d/%s/%s/%s",
		scope.OfficeID,
		scope.MissionID,
		scope.BienID,
		strings.ToLower(string(scope.Gallery)),
		attachmentID,
		strings.ToLower(string(format)),
	)
}
