package navtree

import (
	"testing"

	"github.com/jwhitfield/ottarr/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cat(id, name string, parentID, count int, leaf bool) *models.Category {
	return &models.Category{
		CategoryID:    id,
		Name:          name,
		ParentID:      parentID,
		ChildrenCount: count,
		IsLeaf:        leaf,
	}
}

func names(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func TestBuildFlatRoots(t *testing.T) {
	forest := Build([]*models.Category{
		cat("1", "News", 0, 10, true),
		cat("2", "Sports", 0, 4, true),
	}, Options{})

	require.Len(t, forest, 2)
	assert.Equal(t, []string{"News", "Sports"}, names(forest))
	assert.True(t, forest[0].Leaf)
	assert.Equal(t, 10, forest[0].Count)
}

func TestBuildNestedHierarchy(t *testing.T) {
	forest := Build([]*models.Category{
		cat("1", "Movies", 0, 2, false),
		cat("2", "Action", 1, 30, true),
		cat("3", "Drama", 1, 12, true),
	}, Options{})

	require.Len(t, forest, 1)
	root := forest[0]
	assert.False(t, root.Leaf)
	require.Len(t, root.Children, 2)
	assert.Equal(t, []string{"Action", "Drama"}, names(root.Children))
}

func TestBuildOrphansBecomeRoots(t *testing.T) {
	forest := Build([]*models.Category{
		cat("1", "Known", 0, 5, true),
		cat("7", "Orphan", 999, 3, true),
	}, Options{})

	require.Len(t, forest, 2)
	assert.Contains(t, names(forest), "Orphan")
}

func TestBuildBreaksParentCycle(t *testing.T) {
	// A and B point at each other. One is promoted to a root so the
	// branch still renders; the node that closes the loop becomes a leaf.
	forest := Build([]*models.Category{
		cat("1", "A", 2, 1, false),
		cat("2", "B", 1, 1, false),
	}, Options{})

	require.Len(t, forest, 1)
	a := forest[0]
	assert.Equal(t, "A", a.Name)
	require.Len(t, a.Children, 1)
	b := a.Children[0]
	assert.Equal(t, "B", b.Name)
	require.Len(t, b.Children, 1)
	assert.Equal(t, "A", b.Children[0].Name)
	assert.True(t, b.Children[0].Leaf, "cycle-closing node renders as a leaf")
}

func TestBuildGroupOverlayPipe(t *testing.T) {
	forest := Build([]*models.Category{
		cat("1", "UK | Sports", 0, 5, true),
		cat("2", "UK | News", 0, 3, true),
		cat("3", "US | Sports", 0, 7, true),
		cat("4", "Radio", 0, 2, true),
	}, Options{GroupBy: SeparatorPipe})

	require.Len(t, forest, 3)
	uk := forest[0]
	assert.Equal(t, "UK", uk.Name)
	assert.True(t, uk.Group)
	assert.Equal(t, 2, uk.Count)
	assert.Equal(t, []string{"Sports", "News"}, names(uk.Children))

	us := forest[1]
	assert.Equal(t, "US", us.Name)
	assert.Equal(t, []string{"Sports"}, names(us.Children))

	// Unsplittable names stay ungrouped after the groups.
	assert.Equal(t, "Radio", forest[2].Name)
	assert.False(t, forest[2].Group)
}

func TestBuildGroupStripsFirstOccurrenceOnly(t *testing.T) {
	forest := Build([]*models.Category{
		cat("1", "UK | Sports | Football", 0, 5, true),
	}, Options{GroupBy: SeparatorPipe})

	require.Len(t, forest, 1)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "Sports | Football", forest[0].Children[0].Name)
}

func TestBuildGroupBlankRemainderKeepsOriginal(t *testing.T) {
	forest := Build([]*models.Category{
		cat("1", "UK | ", 0, 5, true),
	}, Options{GroupBy: SeparatorPipe})

	require.Len(t, forest, 1)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "UK | ", forest[0].Children[0].Name)
}

func TestBuildGroupFirstWord(t *testing.T) {
	forest := Build([]*models.Category{
		cat("1", "UK Sports", 0, 5, true),
		cat("2", "UK News", 0, 3, true),
		cat("3", "Documentaries", 0, 4, true),
	}, Options{GroupBy: SeparatorFirstWord})

	require.Len(t, forest, 2)
	assert.Equal(t, "UK", forest[0].Name)
	assert.Equal(t, []string{"Sports", "News"}, names(forest[0].Children))
	assert.Equal(t, "Documentaries", forest[1].Name)
}

func TestBuildGroupNamesTitleCased(t *testing.T) {
	forest := Build([]*models.Category{
		cat("1", "sports | Football", 0, 5, true),
		cat("2", "SPORTS | Rugby", 0, 2, true),
	}, Options{GroupBy: SeparatorPipe})

	// Case-insensitive grouping, first spelling title-cased for display.
	require.Len(t, forest, 1)
	assert.Equal(t, "Sports", forest[0].Name)
	assert.Len(t, forest[0].Children, 2)
}

func TestBuildAutoCollapseSingleNonLeafChild(t *testing.T) {
	// Root -> Middle (only child, non-leaf) -> two leaves: the middle
	// level disappears.
	forest := Build([]*models.Category{
		cat("1", "Root", 0, 1, false),
		cat("2", "Middle", 1, 2, false),
		cat("3", "Leaf A", 2, 5, true),
		cat("4", "Leaf B", 2, 6, true),
	}, Options{})

	require.Len(t, forest, 1)
	root := forest[0]
	assert.Equal(t, "Root", root.Name)
	require.Len(t, root.Children, 2)
	assert.Equal(t, []string{"Leaf A", "Leaf B"}, names(root.Children))
}

func TestBuildAutoCollapseTransitive(t *testing.T) {
	// Two stacked single-child levels collapse away in one build.
	forest := Build([]*models.Category{
		cat("1", "Root", 0, 1, false),
		cat("2", "Mid1", 1, 1, false),
		cat("3", "Mid2", 2, 2, false),
		cat("4", "Leaf A", 3, 5, true),
		cat("5", "Leaf B", 3, 6, true),
	}, Options{})

	require.Len(t, forest, 1)
	require.Len(t, forest[0].Children, 2)
	assert.Equal(t, []string{"Leaf A", "Leaf B"}, names(forest[0].Children))
}

func TestBuildSingleLeafChildNotCollapsed(t *testing.T) {
	forest := Build([]*models.Category{
		cat("1", "Root", 0, 1, false),
		cat("2", "Only Leaf", 1, 5, true),
	}, Options{})

	require.Len(t, forest, 1)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "Only Leaf", forest[0].Children[0].Name)
}

func TestBuildHidesZeroCountCategories(t *testing.T) {
	forest := Build([]*models.Category{
		cat("1", "Populated", 0, 5, true),
		cat("2", "Empty", 0, 0, true),
	}, Options{HideEmpty: true})

	require.Len(t, forest, 1)
	assert.Equal(t, "Populated", forest[0].Name)
}

func TestBuildHidesGroupLeftEmpty(t *testing.T) {
	forest := Build([]*models.Category{
		cat("1", "UK | Sports", 0, 0, true),
		cat("2", "US | Sports", 0, 7, true),
	}, Options{GroupBy: SeparatorPipe, HideEmpty: true})

	require.Len(t, forest, 1)
	assert.Equal(t, "US", forest[0].Name)
	assert.Equal(t, 1, forest[0].Count)
}

func TestBuildEmptyInput(t *testing.T) {
	assert.Empty(t, Build(nil, Options{}))
	assert.Empty(t, Build(nil, Options{GroupBy: SeparatorPipe, HideEmpty: true}))
}

func TestSplitGroup(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		sep       Separator
		wantGroup string
		wantRest  string
		wantOK    bool
	}{
		{"pipe", "UK | Sports", SeparatorPipe, "UK", "Sports", true},
		{"pipe no space", "UK|Sports", SeparatorPipe, "UK", "Sports", true},
		{"dash", "4K - Movies", SeparatorDash, "4K", "Movies", true},
		{"slash", "EN/Kids", SeparatorSlash, "EN", "Kids", true},
		{"first word", "UK Sports Extra", SeparatorFirstWord, "UK", "Sports Extra", true},
		{"first occurrence only", "A | B | C", SeparatorPipe, "A", "B | C", true},
		{"blank remainder falls back", "UK | ", SeparatorPipe, "UK", "UK | ", true},
		{"no separator", "Plain", SeparatorPipe, "", "", false},
		{"single word", "Plain", SeparatorFirstWord, "", "", false},
		{"blank group", " | Sports", SeparatorPipe, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			group, rest, ok := splitGroup(tt.input, tt.sep)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantGroup, group)
				assert.Equal(t, tt.wantRest, rest)
			}
		})
	}
}
