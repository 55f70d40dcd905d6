package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jwhitfield/ottarr/internal/models"
	"github.com/jwhitfield/ottarr/internal/navtree"
	"github.com/jwhitfield/ottarr/internal/service"
)

// BrowseHandler handles catalog browsing endpoints. All reads serve the
// local cache for the active source; nothing here talks to the provider.
type BrowseHandler struct {
	content *service.ContentService
	manager *service.SourceManager
}

// NewBrowseHandler creates a browse handler.
func NewBrowseHandler(content *service.ContentService, manager *service.SourceManager) *BrowseHandler {
	return &BrowseHandler{content: content, manager: manager}
}

// Register registers the browse routes with the API.
func (h *BrowseHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getNavigationTree",
		Method:      "GET",
		Path:        "/api/v1/browse/{contentType}/tree",
		Summary:     "Navigation tree",
		Description: "Category forest for the active source, optionally grouped by a name separator",
		Tags:        []string{"Browse"},
	}, h.Tree)

	huma.Register(api, huma.Operation{
		OperationID: "getCategoryItems",
		Method:      "GET",
		Path:        "/api/v1/browse/{contentType}/categories/{categoryID}/items",
		Summary:     "Category contents",
		Tags:        []string{"Browse"},
	}, h.Items)

	huma.Register(api, huma.Operation{
		OperationID: "getItem",
		Method:      "GET",
		Path:        "/api/v1/browse/{contentType}/items/{streamID}",
		Summary:     "Single item",
		Tags:        []string{"Browse"},
	}, h.Item)

	huma.Register(api, huma.Operation{
		OperationID: "searchItems",
		Method:      "GET",
		Path:        "/api/v1/browse/{contentType}/search",
		Summary:     "Search items by name",
		Tags:        []string{"Browse"},
	}, h.Search)
}

// activeSourceID resolves the active source, translated into API errors.
func (h *BrowseHandler) activeSourceID(ctx context.Context) (models.ULID, error) {
	source, _, err := h.manager.Active(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNoActiveSource) {
			return models.ULID{}, huma.Error409Conflict("no active source configured")
		}
		return models.ULID{}, huma.Error500InternalServerError("failed to resolve active source", err)
	}
	return source.ID, nil
}

// TreeInput is the input for the navigation tree.
type TreeInput struct {
	ContentType  string `path:"contentType" doc:"Content type: live, movie or series"`
	GroupBy      string `query:"group_by" enum:",|,-,/,FIRST_WORD" doc:"Separator for the synthetic group layer"`
	IncludeEmpty bool   `query:"include_empty" doc:"Keep zero-count categories"`
}

// TreeOutput is the output for the navigation tree.
type TreeOutput struct {
	Body struct {
		Tree []*navtree.Node `json:"tree"`
	}
}

// Tree returns the category forest for the active source.
func (h *BrowseHandler) Tree(ctx context.Context, input *TreeInput) (*TreeOutput, error) {
	ct, err := models.ParseContentType(input.ContentType)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	sourceID, err := h.activeSourceID(ctx)
	if err != nil {
		return nil, err
	}

	tree, err := h.content.Tree(ctx, sourceID, ct, service.TreeOptions{
		GroupBy:      navtree.Separator(input.GroupBy),
		IncludeEmpty: input.IncludeEmpty,
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to build navigation tree", err)
	}

	resp := &TreeOutput{}
	resp.Body.Tree = tree
	return resp, nil
}

// ItemsInput is the input for listing category contents.
type ItemsInput struct {
	ContentType string `path:"contentType" doc:"Content type: live, movie or series"`
	CategoryID  string `path:"categoryID" doc:"Provider category ID"`
	Offset      int    `query:"offset" minimum:"0" doc:"Rows to skip"`
	Limit       int    `query:"limit" minimum:"0" maximum:"500" doc:"Page size (default 100)"`
}

// ItemsOutput is the output for listing category contents.
type ItemsOutput struct {
	Body struct {
		Items []ContentItemResponse `json:"items"`
		Total int64                 `json:"total"`
	}
}

// Items returns one page of a category's content.
func (h *BrowseHandler) Items(ctx context.Context, input *ItemsInput) (*ItemsOutput, error) {
	ct, err := models.ParseContentType(input.ContentType)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	sourceID, err := h.activeSourceID(ctx)
	if err != nil {
		return nil, err
	}

	items, total, err := h.content.Items(ctx, sourceID, ct, input.CategoryID, input.Offset, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list category items", err)
	}

	resp := &ItemsOutput{}
	resp.Body.Items = make([]ContentItemResponse, 0, len(items))
	for _, item := range items {
		resp.Body.Items = append(resp.Body.Items, ContentItemFromModel(item))
	}
	resp.Body.Total = total
	return resp, nil
}

// ItemInput is the input for fetching one item.
type ItemInput struct {
	ContentType string `path:"contentType" doc:"Content type: live, movie or series"`
	StreamID    int64  `path:"streamID" doc:"Provider stream ID"`
}

// ItemOutput is the output for fetching one item.
type ItemOutput struct {
	Body ContentItemResponse
}

// Item returns one content item by its provider identity.
func (h *BrowseHandler) Item(ctx context.Context, input *ItemInput) (*ItemOutput, error) {
	ct, err := models.ParseContentType(input.ContentType)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	sourceID, err := h.activeSourceID(ctx)
	if err != nil {
		return nil, err
	}

	item, err := h.content.Item(ctx, sourceID, ct, input.StreamID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get item", err)
	}
	if item == nil {
		return nil, huma.Error404NotFound("item not found")
	}
	return &ItemOutput{Body: ContentItemFromModel(item)}, nil
}

// SearchInput is the input for name search.
type SearchInput struct {
	ContentType string `path:"contentType" doc:"Content type: live, movie or series"`
	Query       string `query:"q" minLength:"1" doc:"Name substring, case-insensitive"`
	Limit       int    `query:"limit" minimum:"0" maximum:"200" doc:"Result cap (default 50)"`
}

// SearchOutput is the output for name search.
type SearchOutput struct {
	Body struct {
		Items []ContentItemResponse `json:"items"`
	}
}

// Search finds items by name substring across the active source's catalog.
func (h *BrowseHandler) Search(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	ct, err := models.ParseContentType(input.ContentType)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	sourceID, err := h.activeSourceID(ctx)
	if err != nil {
		return nil, err
	}

	items, err := h.content.Search(ctx, sourceID, ct, input.Query, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("search failed", err)
	}

	resp := &SearchOutput{}
	resp.Body.Items = make([]ContentItemResponse, 0, len(items))
	for _, item := range items {
		resp.Body.Items = append(resp.Body.Items, ContentItemFromModel(item))
	}
	return resp, nil
}
