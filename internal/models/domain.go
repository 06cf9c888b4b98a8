package models

import (
	"fmt"
	"strings"
)

// Gallery identifies one logical collection of attachments within a bien.
type Gallery string

const (
	GalleryPhotos    Gallery = "PHOTOS"
	GalleryDocuments Gallery = "DOCUMENTS"
	GalleryPlans     Gallery = "PLANS"
)

// Format is one physical rendition of an attachment.
type Format string

const (
	FormatFullsize  Format = "FULLSIZE"
	FormatPreview   Format = "PREVIEW"
	FormatThumbnail Format = "THUMBNAIL"
)

// CoverGranularity selects which scope level a cover is recorded for.
type CoverGranularity string

const (
	CoverPerMission CoverGranularity = "mission"
	CoverPerBien    CoverGranularity = "bien"
	CoverPerGallery CoverGranularity = "gallery"

	DefaultCoverGranularity = CoverPerBien
)

var allGalleries = []Gallery{GalleryPhotos, GalleryDocuments, GalleryPlans}

// allFormats is the canonical format order used for every enumeration.
var allFormats = []Format{FormatFullsize, FormatPreview, FormatThumbnail}

var validCoverGranularities = map[CoverGranularity]struct{}{
	CoverPerMission: {},
	CoverPerBien:    {},
	CoverPerGallery: {},
}

// AllGalleries returns every known gallery.
func AllGalleries() []Gallery {
	out := make([]Gallery, len(allGalleries))
	copy(out, allGalleries)
	return out
}

// AllFormats returns every known format in canonical order.
func AllFormats() []Format {
	out := make([]Format, len(allFormats))
	copy(out, allFormats)
	return out
}

func IsValidGallery(g Gallery) bool {
	for _, known := range allGalleries {
		if g == known {
			return true
		}
	}
	return false
}

func IsValidFormat(f Format) bool {
	return formatIndex(f) >= 0
}

func ParseGallery(raw string) (Gallery, error) {
	value := Gallery(strings.ToUpper(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("gallery is required")
	}
	if !IsValidGallery(value) {
		return "", fmt.Errorf("invalid gallery: %s", value)
	}
	return value, nil
}

func ParseFormat(raw string) (Format, error) {
	value := Format(strings.ToUpper(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("format is required")
	}
	if !IsValidFormat(value) {
		return "", fmt.Errorf("invalid format: %s", value)
	}
	return value, nil
}

func ParseCoverGranularity(raw string) (CoverGranularity, error) {
	value := CoverGranularity(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return DefaultCoverGranularity, nil
	}
	if _, ok := validCoverGranularities[value]; !ok {
		return "", fmt.Errorf("invalid cover granularity: %s", value)
	}
	return value, nil
}

// SortFormats orders formats canonically and drops duplicates.
func SortFormats(formats []Format) []Format {
	seen := make(map[Format]struct{}, len(formats))
	for _, f := range formats {
		seen[f] = struct{}{}
	}
	out := make([]Format, 0, len(seen))
	for _, f := range allFormats {
		if _, ok := seen[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

func formatIndex(f Format) int {
	for i, known := range allFormats {
		if f == known {
			return i
		}
	}
	return -1
}
