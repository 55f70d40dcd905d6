package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jwhitfield/ottarr/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// watchHistoryRepo implements WatchHistoryRepository using GORM.
type watchHistoryRepo struct {
	db *gorm.DB
}

// NewWatchHistoryRepository creates a new WatchHistoryRepository.
func NewWatchHistoryRepository(db *gorm.DB) *watchHistoryRepo {
	return &watchHistoryRepo{db: db}
}

// Upsert records the playback position for an item.
func (r *watchHistoryRepo) Upsert(ctx context.Context, entry *models.WatchHistory) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "source_id"}, {Name: "content_type"}, {Name: "stream_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "position_secs", "duration_secs", "watched_at", "updated_at",
		}),
	}).Create(entry).Error; err != nil {
		return fmt.Errorf("upserting watch history: %w", err)
	}
	return nil
}

// Get retrieves the history entry for one item, or nil if never watched.
func (r *watchHistoryRepo) Get(ctx context.Context, sourceID models.ULID, contentType models.ContentType, streamID int64) (*models.WatchHistory, error) {
	var entry models.WatchHistory
	if err := r.db.WithContext(ctx).
		Where("source_id = ? AND content_type = ? AND stream_id = ?", sourceID, contentType, streamID).
		First(&entry).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting watch history: %w", err)
	}
	return &entry, nil
}

// List retrieves history entries for a source, most recently watched first.
func (r *watchHistoryRepo) List(ctx context.Context, sourceID models.ULID, limit int) ([]*models.WatchHistory, error) {
	var entries []*models.WatchHistory
	if err := r.db.WithContext(ctx).
		Where("source_id = ?", sourceID).
		Order("watched_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("listing watch history: %w", err)
	}
	return entries, nil
}

// Delete removes one history entry.
func (r *watchHistoryRepo) Delete(ctx context.Context, sourceID models.ULID, contentType models.ContentType, streamID int64) error {
	if err := r.db.WithContext(ctx).
		Where("source_id = ? AND content_type = ? AND stream_id = ?", sourceID, contentType, streamID).
		Delete(&models.WatchHistory{}).Error; err != nil {
		return fmt.Errorf("deleting watch history: %w", err)
	}
	return nil
}

// DeleteOlderThan removes entries last watched before the cutoff.
func (r *watchHistoryRepo) DeleteOlderThan(ctx context.Context, sourceID models.ULID, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("source_id = ? AND watched_at < ?", sourceID, cutoff).
		Delete(&models.WatchHistory{})
	if result.Error != nil {
		return 0, fmt.Errorf("deleting stale watch history: %w", result.Error)
	}
	return result.RowsAffected, nil
}
