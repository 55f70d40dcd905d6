// Package navtree builds the grouped navigation hierarchy over cached
// categories: a rooted forest via parent lookup, an optional synthetic
// group layer split from category names, single-child auto-collapse, and
// the children-count computation that hides empty branches.
package navtree

import (
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwhitfield/ottarr/internal/models"
)

// Separator selects the synthetic group layer split. FIRST_WORD groups by
// the first whitespace-delimited word instead of a delimiter character.
type Separator string

const (
	SeparatorNone      Separator = ""
	SeparatorPipe      Separator = "|"
	SeparatorDash      Separator = "-"
	SeparatorSlash     Separator = "/"
	SeparatorFirstWord Separator = "FIRST_WORD"
)

// Node is one entry in the navigation forest.
type Node struct {
	// CategoryID is the provider category identifier; empty for
	// synthetic group nodes.
	CategoryID string `json:"category_id,omitempty"`

	// Name is the display name. Grouped children carry their name with
	// the matched group prefix stripped.
	Name string `json:"name"`

	// Group marks a synthetic group node introduced by the separator
	// overlay.
	Group bool `json:"group,omitempty"`

	// Leaf marks a category with no child categories; leaves hold
	// content items directly.
	Leaf bool `json:"leaf"`

	// Count is the category's children count: items for a leaf, direct
	// child categories otherwise. Group nodes count their children.
	Count int `json:"count"`

	Children []*Node `json:"children,omitempty"`
}

// Options tunes the tree build.
type Options struct {
	// GroupBy enables the synthetic group overlay at the root level.
	GroupBy Separator

	// HideEmpty drops categories whose children count is zero, so
	// fully filtered-out branches disappear without downstream logic.
	HideEmpty bool

	Logger *slog.Logger
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// Build assembles the navigation forest from a flat category list.
// Orphans (parent id points nowhere) become roots, never dropped. Parent
// cycles are broken by treating the cycle-closing node as a leaf with a
// warning. The result is grouped, collapsed, and filtered per opts.
func Build(categories []*models.Category, opts Options) []*Node {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	byID := make(map[string]*models.Category, len(categories))
	for _, c := range categories {
		byID[c.CategoryID] = c
	}

	children := make(map[string][]*models.Category)
	var roots []*models.Category
	for _, c := range categories {
		if c.ParentID == models.RootParentID {
			roots = append(roots, c)
			continue
		}
		parentID := strconv.Itoa(c.ParentID)
		if _, ok := byID[parentID]; !ok {
			// Orphan: parent not in this catalog.
			roots = append(roots, c)
			continue
		}
		children[parentID] = append(children[parentID], c)
	}

	// Parent cycles are unreachable from any root. Promote one member of
	// each cycle to a root so the branch still renders; the visited set
	// below breaks the loop when traversal comes back around.
	grounded := make(map[string]bool)
	for _, r := range roots {
		markReachable(r.CategoryID, children, grounded)
	}
	for _, c := range categories {
		if grounded[c.CategoryID] {
			continue
		}
		logger.Warn("category parent cycle, promoting to root",
			slog.String("category_id", c.CategoryID),
			slog.String("name", c.Name),
		)
		roots = append(roots, c)
		markReachable(c.CategoryID, children, grounded)
	}

	visited := make(map[string]bool)
	forest := make([]*Node, 0, len(roots))
	for _, root := range roots {
		forest = append(forest, buildNode(root, children, visited, logger))
	}

	if opts.GroupBy != SeparatorNone {
		forest = overlayGroups(forest, opts.GroupBy)
	}

	forest = collapseAll(forest)

	if opts.HideEmpty {
		forest = hideEmpty(forest)
	}
	return forest
}

// markReachable flags every category reachable from id via the child map.
func markReachable(id string, children map[string][]*models.Category, seen map[string]bool) {
	if seen[id] {
		return
	}
	seen[id] = true
	for _, kid := range children[id] {
		markReachable(kid.CategoryID, children, seen)
	}
}

// buildNode recurses down the parent-child map. A category already on the
// current path closes a cycle and is rendered as a leaf instead.
func buildNode(c *models.Category, children map[string][]*models.Category, visited map[string]bool, logger *slog.Logger) *Node {
	node := &Node{
		CategoryID: c.CategoryID,
		Name:       c.Name,
		Leaf:       c.IsLeaf,
		Count:      c.ChildrenCount,
	}

	if visited[c.CategoryID] {
		logger.Warn("category parent cycle, treating as leaf",
			slog.String("category_id", c.CategoryID),
			slog.String("name", c.Name),
		)
		node.Leaf = true
		return node
	}
	visited[c.CategoryID] = true
	defer delete(visited, c.CategoryID)

	kids := children[c.CategoryID]
	if len(kids) == 0 {
		node.Leaf = true
		return node
	}

	node.Leaf = false
	node.Children = make([]*Node, 0, len(kids))
	for _, kid := range kids {
		node.Children = append(node.Children, buildNode(kid, children, visited, logger))
	}
	return node
}

// overlayGroups inserts a synthetic group level above the roots, keyed by
// the separator split of each root's name. Roots whose name does not split
// stay ungrouped at the top level, after the groups, in input order.
func overlayGroups(roots []*Node, sep Separator) []*Node {
	groups := make(map[string]*Node)
	var order []string
	var ungrouped []*Node

	for _, root := range roots {
		groupName, rest, ok := splitGroup(root.Name, sep)
		if !ok {
			ungrouped = append(ungrouped, root)
			continue
		}

		key := strings.ToLower(groupName)
		g, exists := groups[key]
		if !exists {
			g = &Node{Name: titleCaser.String(groupName), Group: true}
			groups[key] = g
			order = append(order, key)
		}
		root.Name = rest
		g.Children = append(g.Children, root)
	}

	out := make([]*Node, 0, len(order)+len(ungrouped))
	for _, key := range order {
		g := groups[key]
		g.Count = len(g.Children)
		out = append(out, g)
	}
	return append(out, ungrouped...)
}

// splitGroup splits a category name into its group prefix and remaining
// display name at the first separator occurrence only. A remainder that
// strips to nothing falls back to the original full name, so a name like
// "UK | " still renders readably under its group.
func splitGroup(name string, sep Separator) (group, rest string, ok bool) {
	if sep == SeparatorFirstWord {
		fields := strings.Fields(name)
		if len(fields) < 2 {
			return "", "", false
		}
		group = fields[0]
		rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), fields[0]))
	} else {
		idx := strings.Index(name, string(sep))
		if idx < 0 {
			return "", "", false
		}
		group = strings.TrimSpace(name[:idx])
		rest = strings.TrimSpace(name[idx+len(sep):])
	}

	if group == "" {
		return "", "", false
	}
	if rest == "" {
		rest = name
	}
	return group, rest, true
}

// collapseAll applies single-child auto-collapse to every node: a level
// with exactly one non-leaf child is skipped and its children promoted,
// transitively.
func collapseAll(nodes []*Node) []*Node {
	for _, n := range nodes {
		n.Children = collapseAll(n.Children)
		for len(n.Children) == 1 && !n.Children[0].Leaf {
			n.Children = n.Children[0].Children
		}
	}
	return nodes
}

// hideEmpty drops zero-count categories and groups left childless by the
// drop. Group node counts track their surviving children.
func hideEmpty(nodes []*Node) []*Node {
	out := nodes[:0]
	for _, n := range nodes {
		n.Children = hideEmpty(n.Children)
		if n.Group {
			n.Count = len(n.Children)
		}
		if n.Count == 0 {
			continue
		}
		out = append(out, n)
	}
	return out
}
