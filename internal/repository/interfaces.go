// Package repository defines data access interfaces for ottarr entities.
// All database access goes through these interfaces, enabling easy testing
// and database backend switching.
package repository

import (
	"context"
	"time"

	"github.com/jwhitfield/ottarr/internal/models"
)

// CategoryCountResult represents a category identifier with the number of
// content items assigned to it.
type CategoryCountResult struct {
	CategoryID string `json:"category_id"`
	Count      int64  `json:"count"`
}

// SourceRepository defines operations for provider account persistence.
type SourceRepository interface {
	// Create creates a new source.
	Create(ctx context.Context, source *models.Source) error
	// GetByID retrieves a source by ID.
	GetByID(ctx context.Context, id models.ULID) (*models.Source, error)
	// GetAll retrieves all sources ordered by name.
	GetAll(ctx context.Context) ([]*models.Source, error)
	// GetByName retrieves a source by name.
	GetByName(ctx context.Context, name string) (*models.Source, error)
	// GetActive retrieves the currently active source, or nil if none.
	GetActive(ctx context.Context) (*models.Source, error)
	// SetActive marks the given source active and deactivates all others
	// in a single transaction.
	SetActive(ctx context.Context, id models.ULID) error
	// Update updates an existing source.
	Update(ctx context.Context, source *models.Source) error
	// UpdateLastError records the error message from the last failed sync.
	// An empty message clears the field.
	UpdateLastError(ctx context.Context, id models.ULID, message string) error
	// Delete deletes a source and all rows that reference it.
	Delete(ctx context.Context, id models.ULID) error
}

// ContentItemRepository defines operations for catalog item persistence.
type ContentItemRepository interface {
	// CreateBatch inserts multiple items in a single batch.
	CreateBatch(ctx context.Context, items []*models.ContentItem) error
	// UpsertBatch inserts or updates multiple items, resolving conflicts
	// on (source_id, content_type, stream_id).
	UpsertBatch(ctx context.Context, items []*models.ContentItem) error
	// GetByStreamID retrieves an item by its provider identity triple.
	GetByStreamID(ctx context.Context, sourceID models.ULID, contentType models.ContentType, streamID int64) (*models.ContentItem, error)
	// GetByCategory retrieves items in a category with pagination,
	// ordered by name. Returns the page and the total count.
	GetByCategory(ctx context.Context, sourceID models.ULID, contentType models.ContentType, categoryID string, offset, limit int) ([]*models.ContentItem, int64, error)
	// Search retrieves items whose name contains the query
	// (case-insensitive), ordered by name, limited.
	Search(ctx context.Context, sourceID models.ULID, contentType models.ContentType, query string, limit int) ([]*models.ContentItem, error)
	// CountBySourceAndType returns the number of items in one catalog.
	CountBySourceAndType(ctx context.Context, sourceID models.ULID, contentType models.ContentType) (int64, error)
	// CountByCategory returns per-category item counts for one catalog.
	CountByCategory(ctx context.Context, sourceID models.ULID, contentType models.ContentType) ([]CategoryCountResult, error)
	// DeleteBySourceAndType deletes all items in one catalog.
	DeleteBySourceAndType(ctx context.Context, sourceID models.ULID, contentType models.ContentType) error
	// DropSecondaryIndexes drops the non-identity indexes before a bulk
	// load. The unique identity index is kept so upserts keep working.
	DropSecondaryIndexes(ctx context.Context) error
	// RebuildSecondaryIndexes recreates the indexes dropped by
	// DropSecondaryIndexes. Safe to call when they already exist.
	RebuildSecondaryIndexes(ctx context.Context) error
	// Transaction executes the given function within a database transaction.
	// The provided function receives a transactional repository.
	// If the function returns an error, the transaction is rolled back.
	Transaction(ctx context.Context, fn func(ContentItemRepository) error) error
}

// CategoryRepository defines operations for category persistence.
type CategoryRepository interface {
	// UpsertBatch inserts or updates multiple categories, resolving
	// conflicts on (source_id, content_type, category_id).
	UpsertBatch(ctx context.Context, categories []*models.Category) error
	// GetBySourceAndType retrieves all categories for one catalog.
	GetBySourceAndType(ctx context.Context, sourceID models.ULID, contentType models.ContentType) ([]*models.Category, error)
	// GetByCategoryID retrieves one category by its provider identifier.
	GetByCategoryID(ctx context.Context, sourceID models.ULID, contentType models.ContentType, categoryID string) (*models.Category, error)
	// UpdateChildrenCounts applies computed (children_count, is_leaf)
	// values per category ID in a single transaction.
	UpdateChildrenCounts(ctx context.Context, sourceID models.ULID, contentType models.ContentType, counts map[string]models.CategoryCount) error
	// DeleteBySourceAndType deletes all categories for one catalog.
	DeleteBySourceAndType(ctx context.Context, sourceID models.ULID, contentType models.ContentType) error
	// CountBySourceAndType returns the number of categories in one catalog.
	CountBySourceAndType(ctx context.Context, sourceID models.ULID, contentType models.ContentType) (int64, error)
}

// CacheMetadataRepository defines operations for cache bookkeeping rows.
type CacheMetadataRepository interface {
	// Get retrieves the metadata row for one catalog, or nil if the
	// catalog has never been synced.
	Get(ctx context.Context, sourceID models.ULID, contentType models.ContentType) (*models.CacheMetadata, error)
	// Put inserts or updates the metadata row for one catalog.
	Put(ctx context.Context, meta *models.CacheMetadata) error
	// Delete removes the metadata row for one catalog.
	Delete(ctx context.Context, sourceID models.ULID, contentType models.ContentType) error
}

// FavoriteRepository defines operations for favorite persistence.
type FavoriteRepository interface {
	// Add marks an item as a favorite. Adding an existing favorite
	// refreshes its name and icon snapshot.
	Add(ctx context.Context, favorite *models.Favorite) error
	// Remove unmarks a favorite by its provider identity triple.
	Remove(ctx context.Context, sourceID models.ULID, contentType models.ContentType, streamID int64) error
	// List retrieves all favorites for a source, newest first.
	// A zero contentType returns favorites across all catalogs.
	List(ctx context.Context, sourceID models.ULID, contentType models.ContentType) ([]*models.Favorite, error)
	// IsFavorite reports whether the given item is favorited.
	IsFavorite(ctx context.Context, sourceID models.ULID, contentType models.ContentType, streamID int64) (bool, error)
}

// WatchHistoryRepository defines operations for playback resume positions.
type WatchHistoryRepository interface {
	// Upsert records the playback position for an item, replacing any
	// previous position.
	Upsert(ctx context.Context, entry *models.WatchHistory) error
	// Get retrieves the history entry for one item, or nil if never watched.
	Get(ctx context.Context, sourceID models.ULID, contentType models.ContentType, streamID int64) (*models.WatchHistory, error)
	// List retrieves history entries for a source, most recently
	// watched first, limited.
	List(ctx context.Context, sourceID models.ULID, limit int) ([]*models.WatchHistory, error)
	// Delete removes one history entry.
	Delete(ctx context.Context, sourceID models.ULID, contentType models.ContentType, streamID int64) error
	// DeleteOlderThan removes entries last watched before the cutoff and
	// returns the number removed.
	DeleteOlderThan(ctx context.Context, sourceID models.ULID, cutoff time.Time) (int64, error)
}
