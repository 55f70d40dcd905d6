package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwhitfield/ottarr/internal/models"
	"github.com/jwhitfield/ottarr/internal/repository"
)

// LibraryService covers the user's personal layer over the catalogs:
// favorites and watch history.
type LibraryService struct {
	favorites repository.FavoriteRepository
	history   repository.WatchHistoryRepository
	items     repository.ContentItemRepository
	logger    *slog.Logger
}

// NewLibraryService creates a library service.
func NewLibraryService(favorites repository.FavoriteRepository, history repository.WatchHistoryRepository, items repository.ContentItemRepository) *LibraryService {
	return &LibraryService{
		favorites: favorites,
		history:   history,
		items:     items,
		logger:    slog.Default(),
	}
}

// WithLogger sets the logger for the service.
func (s *LibraryService) WithLogger(logger *slog.Logger) *LibraryService {
	s.logger = logger
	return s
}

// AddFavorite favorites a cached item, snapshotting its name and icon.
func (s *LibraryService) AddFavorite(ctx context.Context, sourceID models.ULID, contentType models.ContentType, streamID int64) (*models.Favorite, error) {
	item, err := s.items.GetByStreamID(ctx, sourceID, contentType, streamID)
	if err != nil {
		return nil, fmt.Errorf("looking up item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("content item %d not found in %s catalog", streamID, contentType)
	}

	favorite := &models.Favorite{
		SourceID:    sourceID,
		ContentType: contentType,
		StreamID:    streamID,
		Name:        item.Name,
		Icon:        item.Icon,
	}
	if err := s.favorites.Add(ctx, favorite); err != nil {
		return nil, fmt.Errorf("adding favorite: %w", err)
	}
	return favorite, nil
}

// RemoveFavorite unfavorites an item; removing a non-favorite is a no-op.
func (s *LibraryService) RemoveFavorite(ctx context.Context, sourceID models.ULID, contentType models.ContentType, streamID int64) error {
	return s.favorites.Remove(ctx, sourceID, contentType, streamID)
}

// Favorites lists favorites, newest first. A zero contentType spans all
// catalogs.
func (s *LibraryService) Favorites(ctx context.Context, sourceID models.ULID, contentType models.ContentType) ([]*models.Favorite, error) {
	return s.favorites.List(ctx, sourceID, contentType)
}

// IsFavorite reports whether the item is favorited.
func (s *LibraryService) IsFavorite(ctx context.Context, sourceID models.ULID, contentType models.ContentType, streamID int64) (bool, error) {
	return s.favorites.IsFavorite(ctx, sourceID, contentType, streamID)
}

// RecordPosition upserts the playback position for an item.
func (s *LibraryService) RecordPosition(ctx context.Context, sourceID models.ULID, contentType models.ContentType, streamID int64, positionSecs, durationSecs int64) error {
	item, err := s.items.GetByStreamID(ctx, sourceID, contentType, streamID)
	if err != nil {
		return fmt.Errorf("looking up item: %w", err)
	}
	name := fmt.Sprintf("stream %d", streamID)
	if item != nil {
		name = item.Name
	}

	return s.history.Upsert(ctx, &models.WatchHistory{
		SourceID:     sourceID,
		ContentType:  contentType,
		StreamID:     streamID,
		Name:         name,
		PositionSecs: positionSecs,
		DurationSecs: durationSecs,
		WatchedAt:    time.Now(),
	})
}

// ResumePosition returns the stored playback position, or nil when the
// item was never watched.
func (s *LibraryService) ResumePosition(ctx context.Context, sourceID models.ULID, contentType models.ContentType, streamID int64) (*models.WatchHistory, error) {
	return s.history.Get(ctx, sourceID, contentType, streamID)
}

// History lists recently watched items, most recent first.
func (s *LibraryService) History(ctx context.Context, sourceID models.ULID, limit int) ([]*models.WatchHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.history.List(ctx, sourceID, limit)
}

// ForgetHistory removes one history entry.
func (s *LibraryService) ForgetHistory(ctx context.Context, sourceID models.ULID, contentType models.ContentType, streamID int64) error {
	return s.history.Delete(ctx, sourceID, contentType, streamID)
}

// PruneHistory removes entries last watched before the cutoff.
func (s *LibraryService) PruneHistory(ctx context.Context, sourceID models.ULID, olderThan time.Duration) (int64, error) {
	removed, err := s.history.DeleteOlderThan(ctx, sourceID, time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("pruned watch history", "removed", removed)
	}
	return removed, nil
}
