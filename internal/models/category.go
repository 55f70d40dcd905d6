package models

import (
	"gorm.io/gorm"
)

// RootParentID is the parent identifier of top-level categories.
const RootParentID = 0

// Category represents a provider category for one content type.
// ChildrenCount and IsLeaf are computed after every full sync:
// a leaf counts the content items in it, a non-leaf counts its
// direct child categories. Categories with ChildrenCount == 0 are
// hidden from navigation.
type Category struct {
	BaseModel

	// SourceID is the foreign key to the owning Source.
	SourceID ULID `gorm:"type:varchar(26);not null;index;index:idx_source_type_category,unique,priority:1" json:"source_id"`

	// ContentType is the catalog this category belongs to.
	ContentType ContentType `gorm:"size:10;not null;index:idx_source_type_category,unique,priority:2" json:"content_type"`

	// CategoryID is the provider's string-typed category identifier.
	CategoryID string `gorm:"size:64;not null;index:idx_source_type_category,unique,priority:3" json:"category_id"`

	// Name is the display name.
	Name string `gorm:"not null;size:255" json:"name"`

	// ParentID is the provider's parent category identifier (0 = root).
	ParentID int `gorm:"default:0" json:"parent_id"`

	// ChildrenCount is the computed child count (items if leaf, direct
	// child categories if not). Recomputed atomically after each sync.
	ChildrenCount int `gorm:"default:0" json:"children_count"`

	// IsLeaf indicates the category has no child categories.
	IsLeaf bool `gorm:"default:true" json:"is_leaf"`
}

// CategoryCount is a computed (children_count, is_leaf) pair applied to a
// category after a sync.
type CategoryCount struct {
	Count  int  `json:"count"`
	IsLeaf bool `json:"is_leaf"`
}

// TableName returns the table name for Category.
func (Category) TableName() string {
	return "categories"
}

// Validate performs basic validation on the category.
func (c *Category) Validate() error {
	if c.SourceID.IsZero() {
		return ErrSourceIDRequired
	}
	if !c.ContentType.Valid() {
		return ErrInvalidContentType
	}
	if c.CategoryID == "" {
		return ErrCategoryIDRequired
	}
	if c.Name == "" {
		return ErrNameRequired
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the category and generates its ULID.
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if err := c.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return c.Validate()
}
