package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"evalgallery/internal/format"
	"evalgallery/internal/models"
)

// outputFormatter is nil for plain output.
var outputFormatter format.Formatter

var stdout io.Writer = os.Stdout

// writeOutput writes payload with the structured formatter, or calls plain
// when plain output is selected.
func writeOutput(payload any, plain func() error) error {
	if outputFormatter != nil {
		return outputFormatter.Write(stdout, payload)
	}
	return plain()
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(stdout, format, args...)
	return err
}

func writeGrid(scope models.Scope, grid models.Grid) error {
	entries := grid.Entries()
	return writeOutput(gridView{Scope: scope, Count: len(entries), Attachments: entries}, func() error {
		if len(entries) == 0 {
			return writePlain("%s: empty\n", scope)
		}
		for _, a := range entries {
			if err := writePlain("%s\n", formatAttachmentLine(a)); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeAttachment(a models.Attachment, paths map[models.Format]string) error {
	return writeOutput(attachmentView{Attachment: a, Paths: paths}, func() error {
		lines := []string{
			fmt.Sprintf("id: %s", a.ID),
			fmt.Sprintf("scope: %s", a.Scope),
			fmt.Sprintf("label: %s", a.Label),
			fmt.Sprintf("position: (%d,%d)", a.Column, a.Row),
			fmt.Sprintf("formats: %s", joinFormats(a.Formats)),
			fmt.Sprintf("created_at: %s", formatTime(a.CreatedAt)),
			fmt.Sprintf("updated_at: %s", formatTime(a.UpdatedAt)),
		}
		for _, f := range models.SortFormats(a.Formats) {
			if path, ok := paths[f]; ok {
				lines = append(lines, fmt.Sprintf("path.%s: %s", strings.ToLower(string(f)), path))
			}
		}
		return writePlain("%s\n", strings.Join(lines, "\n"))
	})
}

func writePaths(id string, paths map[models.Format]string) error {
	return writeOutput(pathsView{ID: id, Paths: paths}, func() error {
		for _, f := range models.AllFormats() {
			if path, ok := paths[f]; ok {
				if err := writePlain("%s %s\n", f, path); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func writeCover(scope models.Scope, granularity models.CoverGranularity, cover models.Attachment, ok bool) error {
	view := coverView{Scope: scope, Granularity: granularity, Set: ok}
	if ok {
		view.Attachment = &cover
	}
	return writeOutput(view, func() error {
		if !ok {
			return writePlain("%s: no cover (per %s)\n", scope, granularity)
		}
		return writePlain("%s: cover %s (per %s)\n", scope, formatAttachmentLine(cover), granularity)
	})
}

type gridView struct {
	Scope       models.Scope        `json:"scope" yaml:"scope"`
	Count       int                 `json:"count" yaml:"count"`
	Attachments []models.Attachment `json:"attachments" yaml:"attachments"`
}

type attachmentView struct {
	models.Attachment `yaml:",inline"`
	Paths             map[models.Format]string `json:"paths" yaml:"paths"`
}

type pathsView struct {
	ID    string                   `json:"id" yaml:"id"`
	Paths map[models.Format]string `json:"paths" yaml:"paths"`
}

type coverView struct {
	Scope       models.Scope            `json:"scope" yaml:"scope"`
	Granularity models.CoverGranularity `json:"granularity" yaml:"granularity"`
	Set         bool                    `json:"set" yaml:"set"`
	Attachment  *models.Attachment      `json:"attachment,omitempty" yaml:"attachment,omitempty"`
}

func formatAttachmentLine(a models.Attachment) string {
	return fmt.Sprintf("%s (%d,%d) [%s] %s", a.ID, a.Column, a.Row, joinFormats(a.Formats), a.Label)
}

func joinFormats(formats []models.Format) string {
	parts := make([]string, 0, len(formats))
	for _, f := range models.SortFormats(formats) {
		parts = append(parts, strings.ToLower(string(f)))
	}
	return strings.Join(parts, ",")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
