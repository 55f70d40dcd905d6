package repository

import (
	"context"
	"fmt"

	"github.com/jwhitfield/ottarr/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// contentItemUpdateColumns are the columns refreshed when an upsert hits an
// existing (source_id, content_type, stream_id) row.
var contentItemUpdateColumns = []string{
	"name", "category_id", "category_name", "icon", "container_extension",
	"epg_channel_id", "rating", "season_count", "episode_count",
	"release_date", "added_at", "is_adult", "extra", "updated_at",
}

// contentSecondaryIndexes are the indexes dropped during bulk loads and
// rebuilt afterwards. The unique identity index is never touched.
var contentSecondaryIndexes = []string{"idx_content_name", "idx_content_category"}

// contentItemRepo implements ContentItemRepository using GORM.
type contentItemRepo struct {
	db *gorm.DB
}

// NewContentItemRepository creates a new ContentItemRepository.
func NewContentItemRepository(db *gorm.DB) *contentItemRepo {
	return &contentItemRepo{db: db}
}

// CreateBatch inserts multiple items in a single batch.
func (r *contentItemRepo) CreateBatch(ctx context.Context, items []*models.ContentItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(items).Error; err != nil {
		return fmt.Errorf("creating content item batch: %w", err)
	}
	return nil
}

// UpsertBatch inserts or updates multiple items, resolving conflicts on
// (source_id, content_type, stream_id).
func (r *contentItemRepo) UpsertBatch(ctx context.Context, items []*models.ContentItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "source_id"}, {Name: "content_type"}, {Name: "stream_id"},
		},
		DoUpdates: clause.AssignmentColumns(contentItemUpdateColumns),
	}).Create(items).Error; err != nil {
		return fmt.Errorf("upserting content item batch: %w", err)
	}
	return nil
}

// GetByStreamID retrieves an item by its provider identity triple.
func (r *contentItemRepo) GetByStreamID(ctx context.Context, sourceID models.ULID, contentType models.ContentType, streamID int64) (*models.ContentItem, error) {
	var item models.ContentItem
	if err := r.db.WithContext(ctx).
		Where("source_id = ? AND content_type = ? AND stream_id = ?", sourceID, contentType, streamID).
		First(&item).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting content item by stream ID: %w", err)
	}
	return &item, nil
}

// GetByCategory retrieves items in a category with pagination.
func (r *contentItemRepo) GetByCategory(ctx context.Context, sourceID models.ULID, contentType models.ContentType, categoryID string, offset, limit int) ([]*models.ContentItem, int64, error) {
	var items []*models.ContentItem
	var total int64

	q := r.db.WithContext(ctx).Model(&models.ContentItem{}).
		Where("source_id = ? AND content_type = ? AND category_id = ?", sourceID, contentType, categoryID)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting content items: %w", err)
	}

	if err := q.Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("getting content items by category: %w", err)
	}
	return items, total, nil
}

// Search retrieves items whose name contains the query, case-insensitive.
func (r *contentItemRepo) Search(ctx context.Context, sourceID models.ULID, contentType models.ContentType, query string, limit int) ([]*models.ContentItem, error) {
	var items []*models.ContentItem
	if err := r.db.WithContext(ctx).
		Where("source_id = ? AND content_type = ? AND name LIKE ?", sourceID, contentType, "%"+query+"%").
		Order("name ASC").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("searching content items: %w", err)
	}
	return items, nil
}

// CountBySourceAndType returns the number of items in one catalog.
func (r *contentItemRepo) CountBySourceAndType(ctx context.Context, sourceID models.ULID, contentType models.ContentType) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ContentItem{}).
		Where("source_id = ? AND content_type = ?", sourceID, contentType).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting content items: %w", err)
	}
	return count, nil
}

// CountByCategory returns per-category item counts for one catalog.
func (r *contentItemRepo) CountByCategory(ctx context.Context, sourceID models.ULID, contentType models.ContentType) ([]CategoryCountResult, error) {
	var results []CategoryCountResult
	if err := r.db.WithContext(ctx).Model(&models.ContentItem{}).
		Select("category_id, COUNT(*) as count").
		Where("source_id = ? AND content_type = ?", sourceID, contentType).
		Group("category_id").
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("counting content items by category: %w", err)
	}
	return results, nil
}

// DeleteBySourceAndType deletes all items in one catalog.
func (r *contentItemRepo) DeleteBySourceAndType(ctx context.Context, sourceID models.ULID, contentType models.ContentType) error {
	if err := r.db.WithContext(ctx).
		Where("source_id = ? AND content_type = ?", sourceID, contentType).
		Delete(&models.ContentItem{}).Error; err != nil {
		return fmt.Errorf("deleting content items: %w", err)
	}
	return nil
}

// DropSecondaryIndexes drops the non-identity indexes before a bulk load.
func (r *contentItemRepo) DropSecondaryIndexes(ctx context.Context) error {
	migrator := r.db.WithContext(ctx).Migrator()
	for _, name := range contentSecondaryIndexes {
		if !migrator.HasIndex(&models.ContentItem{}, name) {
			continue
		}
		if err := migrator.DropIndex(&models.ContentItem{}, name); err != nil {
			return fmt.Errorf("dropping index %s: %w", name, err)
		}
	}
	return nil
}

// RebuildSecondaryIndexes recreates the indexes dropped by DropSecondaryIndexes.
func (r *contentItemRepo) RebuildSecondaryIndexes(ctx context.Context) error {
	migrator := r.db.WithContext(ctx).Migrator()
	for _, name := range contentSecondaryIndexes {
		if migrator.HasIndex(&models.ContentItem{}, name) {
			continue
		}
		if err := migrator.CreateIndex(&models.ContentItem{}, name); err != nil {
			return fmt.Errorf("rebuilding index %s: %w", name, err)
		}
	}
	return nil
}

// Transaction executes the given function within a database transaction.
func (r *contentItemRepo) Transaction(ctx context.Context, fn func(ContentItemRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&contentItemRepo{db: tx})
	})
}
