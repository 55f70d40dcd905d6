package navtree

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/jwhitfield/ottarr/internal/models"
	"github.com/jwhitfield/ottarr/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupCountsTest(t *testing.T) (*gorm.DB, *models.Source) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Source{}, &models.ContentItem{}, &models.Category{}))

	source := &models.Source{
		Name:     "counts test",
		URL:      "http://example.com:8080",
		Username: "user",
		Password: "pass",
		Enabled:  models.BoolPtr(true),
	}
	require.NoError(t, db.Create(source).Error)
	return db, source
}

func TestComputeChildrenCounts(t *testing.T) {
	db, source := setupCountsTest(t)
	ctx := context.Background()
	items := repository.NewContentItemRepository(db)
	cats := repository.NewCategoryRepository(db)

	// "1" is a parent of "2" and "3"; "2" and "3" hold items; "4" is an
	// empty leaf.
	for _, c := range []*models.Category{
		{SourceID: source.ID, ContentType: models.ContentTypeLive, CategoryID: "1", Name: "Parent", ParentID: 0},
		{SourceID: source.ID, ContentType: models.ContentTypeLive, CategoryID: "2", Name: "Kids A", ParentID: 1},
		{SourceID: source.ID, ContentType: models.ContentTypeLive, CategoryID: "3", Name: "Kids B", ParentID: 1},
		{SourceID: source.ID, ContentType: models.ContentTypeLive, CategoryID: "4", Name: "Empty", ParentID: 0},
	} {
		require.NoError(t, db.Create(c).Error)
	}

	streamID := int64(0)
	addItems := func(categoryID string, n int) {
		for i := 0; i < n; i++ {
			streamID++
			require.NoError(t, db.Create(&models.ContentItem{
				SourceID:    source.ID,
				ContentType: models.ContentTypeLive,
				StreamID:    streamID,
				Name:        "item",
				CategoryID:  categoryID,
			}).Error)
		}
	}
	addItems("2", 5)
	addItems("3", 2)

	require.NoError(t, ComputeChildrenCounts(ctx, items, cats, source.ID, models.ContentTypeLive))

	get := func(id string) *models.Category {
		c, err := cats.GetByCategoryID(ctx, source.ID, models.ContentTypeLive, id)
		require.NoError(t, err)
		require.NotNil(t, c)
		return c
	}

	parent := get("1")
	assert.False(t, parent.IsLeaf)
	assert.Equal(t, 2, parent.ChildrenCount, "non-leaf counts direct child categories")

	kidsA := get("2")
	assert.True(t, kidsA.IsLeaf)
	assert.Equal(t, 5, kidsA.ChildrenCount, "leaf counts content rows")

	kidsB := get("3")
	assert.True(t, kidsB.IsLeaf)
	assert.Equal(t, 2, kidsB.ChildrenCount)

	empty := get("4")
	assert.True(t, empty.IsLeaf)
	assert.Zero(t, empty.ChildrenCount)
}

func TestComputeChildrenCountsNoCategories(t *testing.T) {
	db, source := setupCountsTest(t)
	items := repository.NewContentItemRepository(db)
	cats := repository.NewCategoryRepository(db)

	assert.NoError(t, ComputeChildrenCounts(context.Background(), items, cats, source.ID, models.ContentTypeLive))
}
