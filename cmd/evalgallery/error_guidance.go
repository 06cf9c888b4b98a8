package main

import (
	"errors"
	"net"

	"evalgallery/internal/gallery"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	switch gallery.KindOf(err) {
	case gallery.ErrInvalidScope:
		lines = append(lines, "hint: office, mission and bien ids must be >= 0 and --gallery one of photos, documents, plans.")
	case gallery.ErrPositionOccupied:
		lines = append(lines, "hint: pick a free slot, or add at a free slot and use `evalgallery move` to shift occupants.")
	case gallery.ErrNotFound:
		lines = append(lines, "hint: run `evalgallery list` for the ids and formats of a gallery.")
	case gallery.ErrInvalidArgument:
		if gallery.CodeOf(err) == gallery.CodeStaleAttachment {
			lines = append(lines, "hint: the grid changed concurrently; list the gallery again and retry.")
		}
	case gallery.ErrAttachmentPersistence:
		lines = append(lines,
			"hint: nothing was changed; check db_path and storage.root permissions.",
			"hint: rerun with --log-level debug for details.",
		)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines, "hint: the storage backend is unreachable; check storage.s3_endpoint and storage.s3_use_ssl.")
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
