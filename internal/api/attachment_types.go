package api

import "time"

// ScopeResponse identifies one gallery grid.
type ScopeResponse struct {
	OfficeID  int64  `json:"office_id" yaml:"office_id"`
	MissionID int64  `json:"mission_id" yaml:"mission_id"`
	BienID    int64  `json:"bien_id" yaml:"bien_id"`
	Gallery   string `json:"gallery" yaml:"gallery"`
}

// AttachmentResponse is one attachment with the paths of its formats.
type AttachmentResponse struct {
	ID        string            `json:"id" yaml:"id"`
	Scope     ScopeResponse     `json:"scope" yaml:"scope"`
	Label     string            `json:"label" yaml:"label"`
	Column    int               `json:"column" yaml:"column"`
	Row       int               `json:"row" yaml:"row"`
	Formats   []string          `json:"formats" yaml:"formats"`
	Paths     map[string]string `json:"paths,omitempty" yaml:"paths,omitempty"`
	CreatedAt time.Time         `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" yaml:"updated_at"`
}

// GridResponse lists the attachments of one scope in row-major order.
type GridResponse struct {
	Scope       ScopeResponse        `json:"scope" yaml:"scope"`
	Count       int                  `json:"count" yaml:"count"`
	Attachments []AttachmentResponse `json:"attachments" yaml:"attachments"`
}

// CoverResponse reports the cover of one scope.
type CoverResponse struct {
	Scope       ScopeResponse       `json:"scope" yaml:"scope"`
	Granularity string              `json:"granularity" yaml:"granularity"`
	Set         bool                `json:"set" yaml:"set"`
	Attachment  *AttachmentResponse `json:"attachment,omitempty" yaml:"attachment,omitempty"`
}

// CoverSetRequest selects the cover attachment of a scope.
type CoverSetRequest struct {
	AttachmentID string `json:"attachment_id"`
}

// RenameRequest replaces the label of an attachment.
type RenameRequest struct {
	Label *string `json:"label"`
}

// MoveRequest relocates an attachment within its grid.
type MoveRequest struct {
	Column *int `json:"column"`
	Row    *int `json:"row"`
}

// CompactRequest packs a grid into the given column width.
type CompactRequest struct {
	Columns int `json:"columns"`
}

// PathsResponse lists the addressable path of every format of an attachment.
type PathsResponse struct {
	ID    string            `json:"id" yaml:"id"`
	Paths map[string]string `json:"paths" yaml:"paths"`
}
