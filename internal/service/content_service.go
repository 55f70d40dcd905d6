package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwhitfield/ottarr/internal/models"
	"github.com/jwhitfield/ottarr/internal/navtree"
	"github.com/jwhitfield/ottarr/internal/repository"
)

// ContentService exposes the cached catalogs for browsing: the grouped
// navigation tree, paginated category contents, and name search. All reads
// hit the local store only; freshness is the sync engines' concern.
type ContentService struct {
	items  repository.ContentItemRepository
	cats   repository.CategoryRepository
	logger *slog.Logger
}

// NewContentService creates a content service.
func NewContentService(items repository.ContentItemRepository, cats repository.CategoryRepository) *ContentService {
	return &ContentService{
		items:  items,
		cats:   cats,
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the service.
func (s *ContentService) WithLogger(logger *slog.Logger) *ContentService {
	s.logger = logger
	return s
}

// TreeOptions tunes navigation tree construction.
type TreeOptions struct {
	// GroupBy overlays a synthetic group layer split on this separator.
	GroupBy navtree.Separator

	// IncludeEmpty keeps zero-count categories, normally hidden.
	IncludeEmpty bool
}

// Tree builds the navigation forest for one catalog from cached
// categories.
func (s *ContentService) Tree(ctx context.Context, sourceID models.ULID, contentType models.ContentType, opts TreeOptions) ([]*navtree.Node, error) {
	categories, err := s.cats.GetBySourceAndType(ctx, sourceID, contentType)
	if err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}

	return navtree.Build(categories, navtree.Options{
		GroupBy:   opts.GroupBy,
		HideEmpty: !opts.IncludeEmpty,
		Logger:    s.logger,
	}), nil
}

// Items returns one page of a category's content, ordered by name, plus
// the category's total row count.
func (s *ContentService) Items(ctx context.Context, sourceID models.ULID, contentType models.ContentType, categoryID string, offset, limit int) ([]*models.ContentItem, int64, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.items.GetByCategory(ctx, sourceID, contentType, categoryID, offset, limit)
}

// Item returns one content item by its provider identity.
func (s *ContentService) Item(ctx context.Context, sourceID models.ULID, contentType models.ContentType, streamID int64) (*models.ContentItem, error) {
	return s.items.GetByStreamID(ctx, sourceID, contentType, streamID)
}

// Search finds items by name substring across one catalog.
func (s *ContentService) Search(ctx context.Context, sourceID models.ULID, contentType models.ContentType, query string, limit int) ([]*models.ContentItem, error) {
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	return s.items.Search(ctx, sourceID, contentType, query, limit)
}

// RecomputeCounts refreshes category children counts for one catalog.
// Wired into the sync engines as their post-load hook.
func (s *ContentService) RecomputeCounts(ctx context.Context, sourceID models.ULID, contentType models.ContentType) error {
	return navtree.ComputeChildrenCounts(ctx, s.items, s.cats, sourceID, contentType)
}
