package models

import (
	"gorm.io/gorm"
)

// ContentItem represents one catalog entry (live channel, movie or series)
// fetched from the provider. Identity within a source is the
// (source_id, content_type, stream_id) triple; rows are overwritten on sync.
type ContentItem struct {
	BaseModel

	// SourceID is the foreign key to the owning Source.
	SourceID ULID `gorm:"type:varchar(26);not null;index;index:idx_source_type_stream,unique,priority:1" json:"source_id"`

	// ContentType is the catalog this item belongs to.
	ContentType ContentType `gorm:"size:10;not null;index:idx_source_type_stream,unique,priority:2" json:"content_type"`

	// StreamID is the provider's stable numeric identifier
	// (stream_id for live/VOD, series_id for series).
	StreamID int64 `gorm:"not null;index:idx_source_type_stream,unique,priority:3" json:"stream_id"`

	// Name is the display name.
	Name string `gorm:"not null;size:512;index:idx_content_name" json:"name"`

	// CategoryID is the provider's string-typed category identifier.
	CategoryID string `gorm:"size:64;index:idx_content_category" json:"category_id"`

	// CategoryName is the category display name, denormalized at map time
	// so browsing never needs a join.
	CategoryName string `gorm:"size:255" json:"category_name,omitempty"`

	// Icon is the poster or channel logo URL.
	Icon string `gorm:"size:2048" json:"icon,omitempty"`

	// ContainerExtension is the container format for VOD/series playback URLs.
	ContainerExtension string `gorm:"size:16" json:"container_extension,omitempty"`

	// EPGChannelID is the EPG identifier for live channels.
	EPGChannelID string `gorm:"size:255" json:"epg_channel_id,omitempty"`

	// Rating is the provider rating, if any.
	Rating float64 `gorm:"default:0" json:"rating,omitempty"`

	// SeasonCount and EpisodeCount carry series metadata.
	SeasonCount  int `gorm:"default:0" json:"season_count,omitempty"`
	EpisodeCount int `gorm:"default:0" json:"episode_count,omitempty"`

	// ReleaseDate is the provider release date string, if any.
	ReleaseDate string `gorm:"size:32" json:"release_date,omitempty"`

	// AddedAt is when the provider added the item (unix epoch, 0 = unknown).
	AddedAt int64 `gorm:"default:0" json:"added_at,omitempty"`

	// IsAdult indicates whether this is adult content.
	IsAdult bool `gorm:"default:false" json:"is_adult"`

	// Extra stores additional provider attributes as JSON.
	Extra string `gorm:"type:text" json:"extra,omitempty"`

	// Source is the relationship back to the owning Source.
	Source *Source `gorm:"foreignKey:SourceID" json:"source,omitempty"`
}

// TableName returns the table name for ContentItem.
func (ContentItem) TableName() string {
	return "content_items"
}

// Validate performs basic validation on the content item.
func (c *ContentItem) Validate() error {
	if c.SourceID.IsZero() {
		return ErrSourceIDRequired
	}
	if !c.ContentType.Valid() {
		return ErrInvalidContentType
	}
	if c.StreamID == 0 {
		return ErrStreamIDRequired
	}
	if c.Name == "" {
		return ErrNameRequired
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the item and generates its ULID.
func (c *ContentItem) BeforeCreate(tx *gorm.DB) error {
	if err := c.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return c.Validate()
}
