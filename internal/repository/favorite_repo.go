package repository

import (
	"context"
	"fmt"

	"github.com/jwhitfield/ottarr/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// favoriteRepo implements FavoriteRepository using GORM.
type favoriteRepo struct {
	db *gorm.DB
}

// NewFavoriteRepository creates a new FavoriteRepository.
func NewFavoriteRepository(db *gorm.DB) *favoriteRepo {
	return &favoriteRepo{db: db}
}

// Add marks an item as a favorite, refreshing the snapshot if it exists.
func (r *favoriteRepo) Add(ctx context.Context, favorite *models.Favorite) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "source_id"}, {Name: "content_type"}, {Name: "stream_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"name", "icon", "updated_at"}),
	}).Create(favorite).Error; err != nil {
		return fmt.Errorf("adding favorite: %w", err)
	}
	return nil
}

// Remove unmarks a favorite by its provider identity triple.
func (r *favoriteRepo) Remove(ctx context.Context, sourceID models.ULID, contentType models.ContentType, streamID int64) error {
	if err := r.db.WithContext(ctx).
		Where("source_id = ? AND content_type = ? AND stream_id = ?", sourceID, contentType, streamID).
		Delete(&models.Favorite{}).Error; err != nil {
		return fmt.Errorf("removing favorite: %w", err)
	}
	return nil
}

// List retrieves favorites for a source, newest first. A zero contentType
// returns favorites across all catalogs.
func (r *favoriteRepo) List(ctx context.Context, sourceID models.ULID, contentType models.ContentType) ([]*models.Favorite, error) {
	q := r.db.WithContext(ctx).Where("source_id = ?", sourceID)
	if contentType != "" {
		q = q.Where("content_type = ?", contentType)
	}
	var favorites []*models.Favorite
	if err := q.Order("created_at DESC").Find(&favorites).Error; err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}
	return favorites, nil
}

// IsFavorite reports whether the given item is favorited.
func (r *favoriteRepo) IsFavorite(ctx context.Context, sourceID models.ULID, contentType models.ContentType, streamID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("source_id = ? AND content_type = ? AND stream_id = ?", sourceID, contentType, streamID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking favorite: %w", err)
	}
	return count > 0, nil
}
