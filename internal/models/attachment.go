package models

import "time"

// Attachment is one logical document or image placed in a gallery grid.
type Attachment struct {
	ID        string    `json:"id" yaml:"id"`
	Scope     Scope     `json:"scope" yaml:"scope"`
	Label     string    `json:"label" yaml:"label"`
	Column    int       `json:"column" yaml:"column"`
	Row       int       `json:"row" yaml:"row"`
	Formats   []Format  `json:"formats" yaml:"formats"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Position returns the attachment slot.
func (a Attachment) Position() Position {
	return Position{Column: a.Column, Row: a.Row}
}

// HasFormat reports whether the attachment owns a variant for f.
func (a Attachment) HasFormat(f Format) bool {
	for _, owned := range a.Formats {
		if owned == f {
			return true
		}
	}
	return false
}

// FormatVariant links one attachment format to its stored blob.
type FormatVariant struct {
	AttachmentID string    `json:"attachment_id" yaml:"attachment_id"`
	Format       Format    `json:"format" yaml:"format"`
	BlobKey      string    `json:"blob_key" yaml:"blob_key"`
	SHA256       string    `json:"sha256" yaml:"sha256"`
	SizeBytes    int64     `json:"size_bytes" yaml:"size_bytes"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}
