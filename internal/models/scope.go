package models

import (
	"fmt"
	"strings"
)

// Scope identifies one independent grid namespace.
type Scope struct {
	OfficeID  int64   `json:"office_id" yaml:"office_id" validate:"gte=0"`
	MissionID int64   `json:"mission_id" yaml:"mission_id" validate:"gte=0"`
	BienID    int64   `json:"bien_id" yaml:"bien_id" validate:"gte=0"`
	Gallery   Gallery `json:"gallery" yaml:"gallery" validate:"required,gallery"`
}

// Key returns a stable string form used for lock maps and log attributes.
func (s Scope) Key() string {
	return fmt.Sprintf("%d/%d/%d/%s", s.OfficeID, s.MissionID, s.BienID, s.Gallery)
}

func (s Scope) String() string {
	return s.Key()
}

// CoverKey is the scope tuple a cover is recorded under. Levels above the
// configured granularity are zeroed.
type CoverKey struct {
	OfficeID  int64
	MissionID int64
	BienID    int64
	Gallery   Gallery
}

// CoverKey projects a scope onto the given cover granularity.
func (s Scope) CoverKey(granularity CoverGranularity) CoverKey {
	key := CoverKey{OfficeID: s.OfficeID, MissionID: s.MissionID}
	switch granularity {
	case CoverPerMission:
	case CoverPerGallery:
		key.BienID = s.BienID
		key.Gallery = s.Gallery
	default:
		key.BienID = s.BienID
	}
	return key
}

// GalleryColumn is the stored form of the gallery part of a cover key. An
// empty string means any gallery.
func (k CoverKey) GalleryColumn() string {
	return strings.TrimSpace(string(k.Gallery))
}
