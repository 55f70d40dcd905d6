package models

import (
	"gorm.io/gorm"
)

// Favorite marks a content item as a user favorite. Favorites survive
// catalog re-syncs because they reference the provider's stable
// (content_type, stream_id) identity rather than the local row.
type Favorite struct {
	BaseModel

	// SourceID is the foreign key to the owning Source.
	SourceID ULID `gorm:"type:varchar(26);not null;index;index:idx_source_type_fav,unique,priority:1" json:"source_id"`

	// ContentType is the catalog of the favorited item.
	ContentType ContentType `gorm:"size:10;not null;index:idx_source_type_fav,unique,priority:2" json:"content_type"`

	// StreamID is the provider's stable numeric identifier.
	StreamID int64 `gorm:"not null;index:idx_source_type_fav,unique,priority:3" json:"stream_id"`

	// Name is a snapshot of the item's display name at favorite time.
	Name string `gorm:"not null;size:512" json:"name"`

	// Icon is a snapshot of the item's icon URL at favorite time.
	Icon string `gorm:"size:2048" json:"icon,omitempty"`
}

// TableName returns the table name for Favorite.
func (Favorite) TableName() string {
	return "favorites"
}

// Validate performs basic validation on the favorite.
func (f *Favorite) Validate() error {
	if f.SourceID.IsZero() {
		return ErrSourceIDRequired
	}
	if !f.ContentType.Valid() {
		return ErrInvalidContentType
	}
	if f.StreamID == 0 {
		return ErrStreamIDRequired
	}
	if f.Name == "" {
		return ErrNameRequired
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the favorite and generates its ULID.
func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	if err := f.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return f.Validate()
}
