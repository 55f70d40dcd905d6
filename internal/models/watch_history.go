package models

import (
	"time"

	"gorm.io/gorm"
)

// WatchHistory records playback position for a content item so playback
// can resume. At most one row per (source, content_type, stream_id);
// repeated watches upsert the position.
type WatchHistory struct {
	BaseModel

	// SourceID is the foreign key to the owning Source.
	SourceID ULID `gorm:"type:varchar(26);not null;index;index:idx_source_type_hist,unique,priority:1" json:"source_id"`

	// ContentType is the catalog of the watched item.
	ContentType ContentType `gorm:"size:10;not null;index:idx_source_type_hist,unique,priority:2" json:"content_type"`

	// StreamID is the provider's stable numeric identifier.
	StreamID int64 `gorm:"not null;index:idx_source_type_hist,unique,priority:3" json:"stream_id"`

	// Name is a snapshot of the item's display name.
	Name string `gorm:"not null;size:512" json:"name"`

	// PositionSecs is the resume position in seconds.
	PositionSecs int64 `gorm:"default:0" json:"position_secs"`

	// DurationSecs is the total duration in seconds (0 = unknown/live).
	DurationSecs int64 `gorm:"default:0" json:"duration_secs"`

	// WatchedAt is when the item was last played.
	WatchedAt time.Time `gorm:"index" json:"watched_at"`
}

// TableName returns the table name for WatchHistory.
func (WatchHistory) TableName() string {
	return "watch_history"
}

// Validate performs basic validation on the history entry.
func (w *WatchHistory) Validate() error {
	if w.SourceID.IsZero() {
		return ErrSourceIDRequired
	}
	if !w.ContentType.Valid() {
		return ErrInvalidContentType
	}
	if w.StreamID == 0 {
		return ErrStreamIDRequired
	}
	if w.Name == "" {
		return ErrNameRequired
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the entry and generates its ULID.
func (w *WatchHistory) BeforeCreate(tx *gorm.DB) error {
	if err := w.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	if w.WatchedAt.IsZero() {
		w.WatchedAt = time.Now()
	}
	return w.Validate()
}
