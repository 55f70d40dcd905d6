package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultCacheTTL is the staleness TTL: beyond this age cached data is
// refreshed regardless of any other freshness signal.
const DefaultCacheTTL = 7 * 24 * time.Hour

// CacheMetadata records the state of the local cache for one
// (source, content type) pair. It is read before every sync to decide
// skip/merge/replace and written after every sync attempt.
type CacheMetadata struct {
	BaseModel

	// SourceID is the foreign key to the owning Source.
	SourceID ULID `gorm:"type:varchar(26);not null;index:idx_source_type_meta,unique,priority:1" json:"source_id"`

	// ContentType is the catalog this metadata row describes.
	ContentType ContentType `gorm:"size:10;not null;index:idx_source_type_meta,unique,priority:2" json:"content_type"`

	// LastUpdated is when the catalog was last synced (success or partial).
	LastUpdated time.Time `json:"last_updated"`

	// ItemCount is the number of content items written by the last sync.
	ItemCount int64 `gorm:"default:0" json:"item_count"`

	// CategoryCount is the number of categories written by the last sync.
	CategoryCount int64 `gorm:"default:0" json:"category_count"`

	// LoadStatus is the outcome of the last sync.
	LoadStatus LoadStatus `gorm:"size:10;not null;default:'failed'" json:"load_status"`
}

// TableName returns the table name for CacheMetadata.
func (CacheMetadata) TableName() string {
	return "cache_metadata"
}

// Fresh reports whether cached data is usable without a network call:
// last load succeeded, rows exist, and the data is younger than ttl.
func (m *CacheMetadata) Fresh(now time.Time, ttl time.Duration) bool {
	if m == nil {
		return false
	}
	if m.LoadStatus != LoadStatusSuccess || m.ItemCount == 0 {
		return false
	}
	return now.Sub(m.LastUpdated) < ttl
}

// MergeMode reports whether the next sync should union new rows with
// existing ones (upsert) instead of deleting-then-inserting. Set when
// the previous sync only partially succeeded.
func (m *CacheMetadata) MergeMode() bool {
	return m != nil && m.LoadStatus == LoadStatusPartial
}

// HasCachedData reports whether any rows from a prior sync exist, used
// to decide whether an error can be downgraded to a silent background
// failure.
func (m *CacheMetadata) HasCachedData() bool {
	return m != nil && m.ItemCount > 0
}

// BeforeCreate is a GORM hook that validates and generates the ULID.
func (m *CacheMetadata) BeforeCreate(tx *gorm.DB) error {
	if err := m.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	if m.SourceID.IsZero() {
		return ErrSourceIDRequired
	}
	if !m.ContentType.Valid() {
		return ErrInvalidContentType
	}
	return nil
}
