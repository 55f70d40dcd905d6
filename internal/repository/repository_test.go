package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jwhitfield/ottarr/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Source{},
		&models.ContentItem{},
		&models.Category{},
		&models.CacheMetadata{},
		&models.Favorite{},
		&models.WatchHistory{},
	)
	require.NoError(t, err)

	return db
}

// createTestSource creates a Source for use as a foreign key in other tests.
func createTestSource(t *testing.T, db *gorm.DB, name string) *models.Source {
	t.Helper()
	source := &models.Source{
		Name:     name,
		URL:      "http://example.com:8080",
		Username: "user",
		Password: "pass",
		Enabled:  models.BoolPtr(true),
	}
	err := db.Create(source).Error
	require.NoError(t, err)
	return source
}

func testItem(sourceID models.ULID, streamID int64, name, categoryID string) *models.ContentItem {
	return &models.ContentItem{
		SourceID:    sourceID,
		ContentType: models.ContentTypeLive,
		StreamID:    streamID,
		Name:        name,
		CategoryID:  categoryID,
	}
}

func TestSourceRepo_SetActive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSourceRepository(db)
	ctx := context.Background()

	a := createTestSource(t, db, "provider-a")
	b := createTestSource(t, db, "provider-b")

	err := repo.SetActive(ctx, a.ID)
	require.NoError(t, err)

	active, err := repo.GetActive(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, a.ID, active.ID)

	// Switching deactivates the previous source.
	err = repo.SetActive(ctx, b.ID)
	require.NoError(t, err)

	active, err = repo.GetActive(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, b.ID, active.ID)

	var count int64
	err = db.Model(&models.Source{}).Where("active = ?", true).Count(&count).Error
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSourceRepo_SetActive_Disabled(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSourceRepository(db)
	ctx := context.Background()

	source := createTestSource(t, db, "disabled-provider")
	err := db.Model(source).Update("enabled", false).Error
	require.NoError(t, err)

	err = repo.SetActive(ctx, source.ID)
	assert.Error(t, err)
}

func TestSourceRepo_SetActive_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSourceRepository(db)

	err := repo.SetActive(context.Background(), models.NewULID())
	assert.ErrorIs(t, err, models.ErrNoActiveSource)
}

func TestSourceRepo_GetActive_None(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSourceRepository(db)

	active, err := repo.GetActive(context.Background())
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestSourceRepo_Delete_CascadesRows(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSourceRepository(db)
	ctx := context.Background()

	source := createTestSource(t, db, "doomed")
	require.NoError(t, db.Create(testItem(source.ID, 1, "Item", "10")).Error)
	require.NoError(t, db.Create(&models.CacheMetadata{
		SourceID:    source.ID,
		ContentType: models.ContentTypeLive,
		LastUpdated: time.Now(),
		LoadStatus:  models.LoadStatusSuccess,
	}).Error)

	err := repo.Delete(ctx, source.ID)
	require.NoError(t, err)

	var items int64
	require.NoError(t, db.Model(&models.ContentItem{}).Count(&items).Error)
	assert.Zero(t, items)
	var metas int64
	require.NoError(t, db.Model(&models.CacheMetadata{}).Count(&metas).Error)
	assert.Zero(t, metas)
}

func TestContentItemRepo_UpsertBatch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentItemRepository(db)
	ctx := context.Background()

	source := createTestSource(t, db, "upsert-source")

	items := []*models.ContentItem{
		testItem(source.ID, 1, "Channel One", "10"),
		testItem(source.ID, 2, "Channel Two", "10"),
	}
	err := repo.UpsertBatch(ctx, items)
	require.NoError(t, err)

	// Same identity with new names updates in place.
	updated := []*models.ContentItem{
		testItem(source.ID, 1, "Channel One HD", "11"),
		testItem(source.ID, 3, "Channel Three", "11"),
	}
	err = repo.UpsertBatch(ctx, updated)
	require.NoError(t, err)

	count, err := repo.CountBySourceAndType(ctx, source.ID, models.ContentTypeLive)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	found, err := repo.GetByStreamID(ctx, source.ID, models.ContentTypeLive, 1)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Channel One HD", found.Name)
	assert.Equal(t, "11", found.CategoryID)
}

func TestContentItemRepo_UpsertBatch_Empty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentItemRepository(db)

	err := repo.UpsertBatch(context.Background(), nil)
	assert.NoError(t, err)
}

func TestContentItemRepo_GetByCategory_Paginated(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentItemRepository(db)
	ctx := context.Background()

	source := createTestSource(t, db, "page-source")
	var items []*models.ContentItem
	for i := 1; i <= 5; i++ {
		items = append(items, testItem(source.ID, int64(i), fmt.Sprintf("Item %02d", i), "42"))
	}
	items = append(items, testItem(source.ID, 99, "Other", "7"))
	require.NoError(t, repo.CreateBatch(ctx, items))

	page, total, err := repo.GetByCategory(ctx, source.ID, models.ContentTypeLive, "42", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, "Item 01", page[0].Name)

	page, _, err = repo.GetByCategory(ctx, source.ID, models.ContentTypeLive, "42", 4, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Item 05", page[0].Name)
}

func TestContentItemRepo_Search(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentItemRepository(db)
	ctx := context.Background()

	source := createTestSource(t, db, "search-source")
	require.NoError(t, repo.CreateBatch(ctx, []*models.ContentItem{
		testItem(source.ID, 1, "BBC News", "1"),
		testItem(source.ID, 2, "Sky News", "1"),
		testItem(source.ID, 3, "Discovery", "2"),
	}))

	results, err := repo.Search(ctx, source.ID, models.ContentTypeLive, "news", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestContentItemRepo_CountByCategory(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentItemRepository(db)
	ctx := context.Background()

	source := createTestSource(t, db, "count-source")
	require.NoError(t, repo.CreateBatch(ctx, []*models.ContentItem{
		testItem(source.ID, 1, "A", "10"),
		testItem(source.ID, 2, "B", "10"),
		testItem(source.ID, 3, "C", "20"),
	}))

	results, err := repo.CountByCategory(ctx, source.ID, models.ContentTypeLive)
	require.NoError(t, err)

	counts := make(map[string]int64)
	for _, r := range results {
		counts[r.CategoryID] = r.Count
	}
	assert.Equal(t, int64(2), counts["10"])
	assert.Equal(t, int64(1), counts["20"])
}

func TestContentItemRepo_DeleteBySourceAndType(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentItemRepository(db)
	ctx := context.Background()

	source := createTestSource(t, db, "delete-source")
	movie := testItem(source.ID, 1, "A Movie", "1")
	movie.ContentType = models.ContentTypeMovie
	require.NoError(t, repo.CreateBatch(ctx, []*models.ContentItem{
		testItem(source.ID, 1, "A Channel", "1"),
		movie,
	}))

	err := repo.DeleteBySourceAndType(ctx, source.ID, models.ContentTypeLive)
	require.NoError(t, err)

	live, err := repo.CountBySourceAndType(ctx, source.ID, models.ContentTypeLive)
	require.NoError(t, err)
	assert.Zero(t, live)

	movies, err := repo.CountBySourceAndType(ctx, source.ID, models.ContentTypeMovie)
	require.NoError(t, err)
	assert.Equal(t, int64(1), movies)
}

func TestContentItemRepo_DropAndRebuildSecondaryIndexes(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentItemRepository(db)
	ctx := context.Background()

	source := createTestSource(t, db, "index-source")

	err := repo.DropSecondaryIndexes(ctx)
	require.NoError(t, err)
	assert.False(t, db.Migrator().HasIndex(&models.ContentItem{}, "idx_content_name"))
	assert.False(t, db.Migrator().HasIndex(&models.ContentItem{}, "idx_content_category"))

	// Upserts still work while secondary indexes are absent.
	require.NoError(t, repo.UpsertBatch(ctx, []*models.ContentItem{
		testItem(source.ID, 1, "While Dropped", "1"),
	}))
	require.NoError(t, repo.UpsertBatch(ctx, []*models.ContentItem{
		testItem(source.ID, 1, "While Dropped v2", "1"),
	}))

	err = repo.RebuildSecondaryIndexes(ctx)
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasIndex(&models.ContentItem{}, "idx_content_name"))
	assert.True(t, db.Migrator().HasIndex(&models.ContentItem{}, "idx_content_category"))

	// Rebuild is idempotent.
	err = repo.RebuildSecondaryIndexes(ctx)
	require.NoError(t, err)

	count, err := repo.CountBySourceAndType(ctx, source.ID, models.ContentTypeLive)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestContentItemRepo_Transaction_Rollback(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentItemRepository(db)
	ctx := context.Background()

	source := createTestSource(t, db, "tx-source")

	err := repo.Transaction(ctx, func(tx ContentItemRepository) error {
		if err := tx.CreateBatch(ctx, []*models.ContentItem{
			testItem(source.ID, 1, "Ghost", "1"),
		}); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.Error(t, err)

	count, err := repo.CountBySourceAndType(ctx, source.ID, models.ContentTypeLive)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCategoryRepo_UpsertAndCounts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	source := createTestSource(t, db, "cat-source")

	cats := []*models.Category{
		{SourceID: source.ID, ContentType: models.ContentTypeLive, CategoryID: "1", Name: "Sports", IsLeaf: true},
		{SourceID: source.ID, ContentType: models.ContentTypeLive, CategoryID: "2", Name: "News", IsLeaf: true},
	}
	require.NoError(t, repo.UpsertBatch(ctx, cats))

	// Re-upserting with a rename updates in place.
	require.NoError(t, repo.UpsertBatch(ctx, []*models.Category{
		{SourceID: source.ID, ContentType: models.ContentTypeLive, CategoryID: "1", Name: "Sport", IsLeaf: true},
	}))

	count, err := repo.CountBySourceAndType(ctx, source.ID, models.ContentTypeLive)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	err = repo.UpdateChildrenCounts(ctx, source.ID, models.ContentTypeLive, map[string]models.CategoryCount{
		"1": {Count: 12, IsLeaf: true},
		"2": {Count: 0, IsLeaf: true},
	})
	require.NoError(t, err)

	cat, err := repo.GetByCategoryID(ctx, source.ID, models.ContentTypeLive, "1")
	require.NoError(t, err)
	require.NotNil(t, cat)
	assert.Equal(t, "Sport", cat.Name)
	assert.Equal(t, 12, cat.ChildrenCount)
}

func TestCategoryRepo_GetByCategoryID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCategoryRepository(db)
	source := createTestSource(t, db, "cat-miss")

	cat, err := repo.GetByCategoryID(context.Background(), source.ID, models.ContentTypeLive, "nope")
	require.NoError(t, err)
	assert.Nil(t, cat)
}

func TestCacheMetadataRepo_PutGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCacheMetadataRepository(db)
	ctx := context.Background()

	source := createTestSource(t, db, "meta-source")

	meta, err := repo.Get(ctx, source.ID, models.ContentTypeMovie)
	require.NoError(t, err)
	assert.Nil(t, meta)

	err = repo.Put(ctx, &models.CacheMetadata{
		SourceID:    source.ID,
		ContentType: models.ContentTypeMovie,
		LastUpdated: time.Now(),
		ItemCount:   100,
		LoadStatus:  models.LoadStatusPartial,
	})
	require.NoError(t, err)

	// A second Put for the same catalog updates the single row.
	err = repo.Put(ctx, &models.CacheMetadata{
		SourceID:    source.ID,
		ContentType: models.ContentTypeMovie,
		LastUpdated: time.Now(),
		ItemCount:   250,
		LoadStatus:  models.LoadStatusSuccess,
	})
	require.NoError(t, err)

	meta, err = repo.Get(ctx, source.ID, models.ContentTypeMovie)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, int64(250), meta.ItemCount)
	assert.Equal(t, models.LoadStatusSuccess, meta.LoadStatus)

	var rows int64
	require.NoError(t, db.Model(&models.CacheMetadata{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestFavoriteRepo_AddRemoveList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFavoriteRepository(db)
	ctx := context.Background()

	source := createTestSource(t, db, "fav-source")

	fav := &models.Favorite{
		SourceID:    source.ID,
		ContentType: models.ContentTypeMovie,
		StreamID:    77,
		Name:        "Some Movie",
	}
	require.NoError(t, repo.Add(ctx, fav))

	// Re-adding refreshes the snapshot instead of duplicating.
	require.NoError(t, repo.Add(ctx, &models.Favorite{
		SourceID:    source.ID,
		ContentType: models.ContentTypeMovie,
		StreamID:    77,
		Name:        "Some Movie (2024)",
	}))

	favorites, err := repo.List(ctx, source.ID, models.ContentTypeMovie)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, "Some Movie (2024)", favorites[0].Name)

	ok, err := repo.IsFavorite(ctx, source.ID, models.ContentTypeMovie, 77)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Remove(ctx, source.ID, models.ContentTypeMovie, 77))

	ok, err = repo.IsFavorite(ctx, source.ID, models.ContentTypeMovie, 77)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWatchHistoryRepo_UpsertAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWatchHistoryRepository(db)
	ctx := context.Background()

	source := createTestSource(t, db, "hist-source")

	require.NoError(t, repo.Upsert(ctx, &models.WatchHistory{
		SourceID:     source.ID,
		ContentType:  models.ContentTypeMovie,
		StreamID:     5,
		Name:         "A Film",
		PositionSecs: 100,
		DurationSecs: 7200,
		WatchedAt:    time.Now().Add(-time.Hour),
	}))
	require.NoError(t, repo.Upsert(ctx, &models.WatchHistory{
		SourceID:     source.ID,
		ContentType:  models.ContentTypeMovie,
		StreamID:     5,
		Name:         "A Film",
		PositionSecs: 1800,
		DurationSecs: 7200,
		WatchedAt:    time.Now(),
	}))

	entries, err := repo.List(ctx, source.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1800), entries[0].PositionSecs)

	entry, err := repo.Get(ctx, source.ID, models.ContentTypeMovie, 5)
	require.NoError(t, err)
	require.NotNil(t, entry)

	removed, err := repo.DeleteOlderThan(ctx, source.ID, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}
