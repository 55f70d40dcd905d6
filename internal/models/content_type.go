package models

import "fmt"

// ContentType identifies one of the independently synced catalogs.
type ContentType string

const (
	// ContentTypeLive represents live TV channels.
	ContentTypeLive ContentType = "live"
	// ContentTypeMovie represents VOD movies.
	ContentTypeMovie ContentType = "movie"
	// ContentTypeSeries represents TV series.
	ContentTypeSeries ContentType = "series"
)

// AllContentTypes lists every content type in sync order.
// Each type is cached and synced independently of the others.
var AllContentTypes = []ContentType{ContentTypeLive, ContentTypeMovie, ContentTypeSeries}

// ParseContentType parses a content type string.
func ParseContentType(s string) (ContentType, error) {
	switch ContentType(s) {
	case ContentTypeLive, ContentTypeMovie, ContentTypeSeries:
		return ContentType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidContentType, s)
}

// Valid returns true if the content type is one of the known values.
func (t ContentType) Valid() bool {
	_, err := ParseContentType(string(t))
	return err == nil
}

// String returns the string form of the content type.
func (t ContentType) String() string {
	return string(t)
}

// LoadStatus records the outcome of the last catalog sync for a content type.
type LoadStatus string

const (
	// LoadStatusSuccess indicates all parsed items were durably written.
	LoadStatusSuccess LoadStatus = "success"
	// LoadStatusPartial indicates some but not all items were written.
	// The next sync merges (upserts) instead of replacing.
	LoadStatusPartial LoadStatus = "partial"
	// LoadStatusFailed indicates the sync failed entirely.
	LoadStatusFailed LoadStatus = "failed"
)
