package navtree

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jwhitfield/ottarr/internal/models"
	"github.com/jwhitfield/ottarr/internal/repository"
)

// ComputeChildrenCounts recomputes (children_count, is_leaf) for every
// category of one catalog and persists the result in a single transaction.
// A leaf counts its content rows; a non-leaf counts its direct child
// categories, never recursive descendants. Runs after every full sync so
// reads never see counts stale across a sync boundary.
func ComputeChildrenCounts(ctx context.Context, items repository.ContentItemRepository, cats repository.CategoryRepository, sourceID models.ULID, contentType models.ContentType) error {
	categories, err := cats.GetBySourceAndType(ctx, sourceID, contentType)
	if err != nil {
		return fmt.Errorf("loading categories: %w", err)
	}
	if len(categories) == 0 {
		return nil
	}

	itemCounts, err := items.CountByCategory(ctx, sourceID, contentType)
	if err != nil {
		return fmt.Errorf("counting items per category: %w", err)
	}
	rowsIn := make(map[string]int64, len(itemCounts))
	for _, c := range itemCounts {
		rowsIn[c.CategoryID] = c.Count
	}

	byID := make(map[string]bool, len(categories))
	for _, c := range categories {
		byID[c.CategoryID] = true
	}
	directChildren := make(map[string]int)
	for _, c := range categories {
		if c.ParentID == models.RootParentID {
			continue
		}
		parentID := strconv.Itoa(c.ParentID)
		if byID[parentID] {
			directChildren[parentID]++
		}
	}

	counts := make(map[string]models.CategoryCount, len(categories))
	for _, c := range categories {
		if n, ok := directChildren[c.CategoryID]; ok {
			counts[c.CategoryID] = models.CategoryCount{Count: n, IsLeaf: false}
			continue
		}
		counts[c.CategoryID] = models.CategoryCount{
			Count:  int(rowsIn[c.CategoryID]),
			IsLeaf: true,
		}
	}

	if err := cats.UpdateChildrenCounts(ctx, sourceID, contentType, counts); err != nil {
		return fmt.Errorf("persisting children counts: %w", err)
	}
	return nil
}
