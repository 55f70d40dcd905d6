package repository

import (
	"context"
	"fmt"

	"github.com/jwhitfield/ottarr/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// cacheMetadataRepo implements CacheMetadataRepository using GORM.
type cacheMetadataRepo struct {
	db *gorm.DB
}

// NewCacheMetadataRepository creates a new CacheMetadataRepository.
func NewCacheMetadataRepository(db *gorm.DB) *cacheMetadataRepo {
	return &cacheMetadataRepo{db: db}
}

// Get retrieves the metadata row for one catalog, or nil if the catalog has
// never been synced.
func (r *cacheMetadataRepo) Get(ctx context.Context, sourceID models.ULID, contentType models.ContentType) (*models.CacheMetadata, error) {
	var meta models.CacheMetadata
	if err := r.db.WithContext(ctx).
		Where("source_id = ? AND content_type = ?", sourceID, contentType).
		First(&meta).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting cache metadata: %w", err)
	}
	return &meta, nil
}

// Put inserts or updates the metadata row for one catalog.
func (r *cacheMetadataRepo) Put(ctx context.Context, meta *models.CacheMetadata) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source_id"}, {Name: "content_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_updated", "item_count", "category_count", "load_status", "updated_at",
		}),
	}).Create(meta).Error; err != nil {
		return fmt.Errorf("putting cache metadata: %w", err)
	}
	return nil
}

// Delete removes the metadata row for one catalog.
func (r *cacheMetadataRepo) Delete(ctx context.Context, sourceID models.ULID, contentType models.ContentType) error {
	if err := r.db.WithContext(ctx).
		Where("source_id = ? AND content_type = ?", sourceID, contentType).
		Delete(&models.CacheMetadata{}).Error; err != nil {
		return fmt.Errorf("deleting cache metadata: %w", err)
	}
	return nil
}
