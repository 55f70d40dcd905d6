package repository

import (
	"context"
	"fmt"

	"github.com/jwhitfield/ottarr/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// categoryRepo implements CategoryRepository using GORM.
type categoryRepo struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db *gorm.DB) *categoryRepo {
	return &categoryRepo{db: db}
}

// UpsertBatch inserts or updates multiple categories, resolving conflicts
// on (source_id, content_type, category_id).
func (r *categoryRepo) UpsertBatch(ctx context.Context, categories []*models.Category) error {
	if len(categories) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "source_id"}, {Name: "content_type"}, {Name: "category_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"name", "parent_id", "updated_at"}),
	}).Create(categories).Error; err != nil {
		return fmt.Errorf("upserting category batch: %w", err)
	}
	return nil
}

// GetBySourceAndType retrieves all categories for one catalog.
func (r *categoryRepo) GetBySourceAndType(ctx context.Context, sourceID models.ULID, contentType models.ContentType) ([]*models.Category, error) {
	var categories []*models.Category
	if err := r.db.WithContext(ctx).
		Where("source_id = ? AND content_type = ?", sourceID, contentType).
		Order("name ASC").
		Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("getting categories: %w", err)
	}
	return categories, nil
}

// GetByCategoryID retrieves one category by its provider identifier.
func (r *categoryRepo) GetByCategoryID(ctx context.Context, sourceID models.ULID, contentType models.ContentType, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).
		Where("source_id = ? AND content_type = ? AND category_id = ?", sourceID, contentType, categoryID).
		First(&category).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting category by category ID: %w", err)
	}
	return &category, nil
}

// UpdateChildrenCounts applies computed (children_count, is_leaf) values per
// category ID in a single transaction so readers never see a half-updated
// tree.
func (r *categoryRepo) UpdateChildrenCounts(ctx context.Context, sourceID models.ULID, contentType models.ContentType, counts map[string]models.CategoryCount) error {
	if len(counts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for categoryID, c := range counts {
			if err := tx.Model(&models.Category{}).
				Where("source_id = ? AND content_type = ? AND category_id = ?", sourceID, contentType, categoryID).
				Updates(map[string]any{
					"children_count": c.Count,
					"is_leaf":        c.IsLeaf,
				}).Error; err != nil {
				return fmt.Errorf("updating children count for %s: %w", categoryID, err)
			}
		}
		return nil
	})
}

// DeleteBySourceAndType deletes all categories for one catalog.
func (r *categoryRepo) DeleteBySourceAndType(ctx context.Context, sourceID models.ULID, contentType models.ContentType) error {
	if err := r.db.WithContext(ctx).
		Where("source_id = ? AND content_type = ?", sourceID, contentType).
		Delete(&models.Category{}).Error; err != nil {
		return fmt.Errorf("deleting categories: %w", err)
	}
	return nil
}

// CountBySourceAndType returns the number of categories in one catalog.
func (r *categoryRepo) CountBySourceAndType(ctx context.Context, sourceID models.ULID, contentType models.ContentType) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("source_id = ? AND content_type = ?", sourceID, contentType).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting categories: %w", err)
	}
	return count, nil
}
