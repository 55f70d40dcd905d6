package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jwhitfield/ottarr/internal/models"
	"github.com/jwhitfield/ottarr/internal/service"
)

// LibraryHandler handles favorites and watch-history endpoints.
type LibraryHandler struct {
	library *service.LibraryService
	manager *service.SourceManager
}

// NewLibraryHandler creates a library handler.
func NewLibraryHandler(library *service.LibraryService, manager *service.SourceManager) *LibraryHandler {
	return &LibraryHandler{library: library, manager: manager}
}

// Register registers the library routes with the API.
func (h *LibraryHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listFavorites",
		Method:      "GET",
		Path:        "/api/v1/favorites",
		Summary:     "List favorites",
		Tags:        []string{"Library"},
	}, h.ListFavorites)

	huma.Register(api, huma.Operation{
		OperationID: "addFavorite",
		Method:      "PUT",
		Path:        "/api/v1/favorites/{contentType}/{streamID}",
		Summary:     "Add favorite",
		Description: "Favorites a cached item, snapshotting its current name and icon",
		Tags:        []string{"Library"},
	}, h.AddFavorite)

	huma.Register(api, huma.Operation{
		OperationID: "removeFavorite",
		Method:      "DELETE",
		Path:        "/api/v1/favorites/{contentType}/{streamID}",
		Summary:     "Remove favorite",
		Tags:        []string{"Library"},
	}, h.RemoveFavorite)

	huma.Register(api, huma.Operation{
		OperationID: "listWatchHistory",
		Method:      "GET",
		Path:        "/api/v1/history",
		Summary:     "List watch history",
		Tags:        []string{"Library"},
	}, h.ListHistory)

	huma.Register(api, huma.Operation{
		OperationID: "recordWatchPosition",
		Method:      "PUT",
		Path:        "/api/v1/history/{contentType}/{streamID}",
		Summary:     "Record playback position",
		Description: "Upserts the resume position for an item",
		Tags:        []string{"Library"},
	}, h.RecordPosition)

	huma.Register(api, huma.Operation{
		OperationID: "getWatchPosition",
		Method:      "GET",
		Path:        "/api/v1/history/{contentType}/{streamID}",
		Summary:     "Get playback position",
		Tags:        []string{"Library"},
	}, h.GetPosition)

	huma.Register(api, huma.Operation{
		OperationID: "forgetWatchHistory",
		Method:      "DELETE",
		Path:        "/api/v1/history/{contentType}/{streamID}",
		Summary:     "Forget one history entry",
		Tags:        []string{"Library"},
	}, h.Forget)
}

func (h *LibraryHandler) activeSourceID(ctx context.Context) (models.ULID, error) {
	source, _, err := h.manager.Active(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNoActiveSource) {
			return models.ULID{}, huma.Error409Conflict("no active source configured")
		}
		return models.ULID{}, huma.Error500InternalServerError("failed to resolve active source", err)
	}
	return source.ID, nil
}

// ListFavoritesInput is the input for listing favorites.
type ListFavoritesInput struct {
	ContentType string `query:"content_type" doc:"Restrict to one content type; empty spans all"`
}

// ListFavoritesOutput is the output for listing favorites.
type ListFavoritesOutput struct {
	Body struct {
		Favorites []FavoriteResponse `json:"favorites"`
	}
}

// ListFavorites lists favorites for the active source, newest first.
func (h *LibraryHandler) ListFavorites(ctx context.Context, input *ListFavoritesInput) (*ListFavoritesOutput, error) {
	var ct models.ContentType
	if input.ContentType != "" {
		parsed, err := models.ParseContentType(input.ContentType)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		ct = parsed
	}
	sourceID, err := h.activeSourceID(ctx)
	if err != nil {
		return nil, err
	}

	favorites, err := h.library.Favorites(ctx, sourceID, ct)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list favorites", err)
	}

	resp := &ListFavoritesOutput{}
	resp.Body.Favorites = make([]FavoriteResponse, 0, len(favorites))
	for _, f := range favorites {
		resp.Body.Favorites = append(resp.Body.Favorites, FavoriteFromModel(f))
	}
	return resp, nil
}

// FavoriteInput identifies one favorite.
type FavoriteInput struct {
	ContentType string `path:"contentType" doc:"Content type: live, movie or series"`
	StreamID    int64  `path:"streamID" doc:"Provider stream ID"`
}

// AddFavoriteOutput is the output for adding a favorite.
type AddFavoriteOutput struct {
	Body FavoriteResponse
}

// AddFavorite favorites a cached item.
func (h *LibraryHandler) AddFavorite(ctx context.Context, input *FavoriteInput) (*AddFavoriteOutput, error) {
	ct, err := models.ParseContentType(input.ContentType)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	sourceID, err := h.activeSourceID(ctx)
	if err != nil {
		return nil, err
	}

	favorite, err := h.library.AddFavorite(ctx, sourceID, ct, input.StreamID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return nil, huma.Error404NotFound(err.Error())
		}
		return nil, huma.Error500InternalServerError("failed to add favorite", err)
	}
	return &AddFavoriteOutput{Body: FavoriteFromModel(favorite)}, nil
}

// RemoveFavoriteOutput is the output for removing a favorite.
type RemoveFavoriteOutput struct {
	Body struct {
		Removed bool `json:"removed"`
	}
}

// RemoveFavorite unfavorites an item. Removing a non-favorite succeeds.
func (h *LibraryHandler) RemoveFavorite(ctx context.Context, input *FavoriteInput) (*RemoveFavoriteOutput, error) {
	ct, err := models.ParseContentType(input.ContentType)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	sourceID, err := h.activeSourceID(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.library.RemoveFavorite(ctx, sourceID, ct, input.StreamID); err != nil {
		return nil, huma.Error500InternalServerError("failed to remove favorite", err)
	}

	resp := &RemoveFavoriteOutput{}
	resp.Body.Removed = true
	return resp, nil
}

// ListHistoryInput is the input for listing watch history.
type ListHistoryInput struct {
	Limit int `query:"limit" minimum:"0" maximum:"500" doc:"Result cap (default 50)"`
}

// ListHistoryOutput is the output for listing watch history.
type ListHistoryOutput struct {
	Body struct {
		History []WatchHistoryResponse `json:"history"`
	}
}

// ListHistory lists recently watched items, most recent first.
func (h *LibraryHandler) ListHistory(ctx context.Context, input *ListHistoryInput) (*ListHistoryOutput, error) {
	sourceID, err := h.activeSourceID(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := h.library.History(ctx, sourceID, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list watch history", err)
	}

	resp := &ListHistoryOutput{}
	resp.Body.History = make([]WatchHistoryResponse, 0, len(entries))
	for _, e := range entries {
		resp.Body.History = append(resp.Body.History, WatchHistoryFromModel(e))
	}
	return resp, nil
}

// RecordPositionInput is the input for recording a playback position.
type RecordPositionInput struct {
	ContentType string `path:"contentType" doc:"Content type: live, movie or series"`
	StreamID    int64  `path:"streamID" doc:"Provider stream ID"`
	Body        struct {
		PositionSecs int64 `json:"position_secs" minimum:"0"`
		DurationSecs int64 `json:"duration_secs,omitempty" minimum:"0"`
	}
}

// RecordPositionOutput is the output for recording a playback position.
type RecordPositionOutput struct {
	Body struct {
		Recorded bool `json:"recorded"`
	}
}

// RecordPosition upserts the resume position for an item.
func (h *LibraryHandler) RecordPosition(ctx context.Context, input *RecordPositionInput) (*RecordPositionOutput, error) {
	ct, err := models.ParseContentType(input.ContentType)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	sourceID, err := h.activeSourceID(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.library.RecordPosition(ctx, sourceID, ct, input.StreamID, input.Body.PositionSecs, input.Body.DurationSecs); err != nil {
		return nil, huma.Error500InternalServerError("failed to record position", err)
	}

	resp := &RecordPositionOutput{}
	resp.Body.Recorded = true
	return resp, nil
}

// GetPositionInput identifies one watch-history entry.
type GetPositionInput struct {
	ContentType string `path:"contentType" doc:"Content type: live, movie or series"`
	StreamID    int64  `path:"streamID" doc:"Provider stream ID"`
}

// GetPositionOutput is the output for reading a playback position.
type GetPositionOutput struct {
	Body WatchHistoryResponse
}

// GetPosition returns the stored resume position for an item.
func (h *LibraryHandler) GetPosition(ctx context.Context, input *GetPositionInput) (*GetPositionOutput, error) {
	ct, err := models.ParseContentType(input.ContentType)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	sourceID, err := h.activeSourceID(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := h.library.ResumePosition(ctx, sourceID, ct, input.StreamID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get position", err)
	}
	if entry == nil {
		return nil, huma.Error404NotFound("no watch history for this item")
	}
	return &GetPositionOutput{Body: WatchHistoryFromModel(entry)}, nil
}

// ForgetOutput is the output for forgetting a history entry.
type ForgetOutput struct {
	Body struct {
		Forgotten bool `json:"forgotten"`
	}
}

// Forget removes one watch-history entry.
func (h *LibraryHandler) Forget(ctx context.Context, input *GetPositionInput) (*ForgetOutput, error) {
	ct, err := models.ParseContentType(input.ContentType)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	sourceID, err := h.activeSourceID(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.library.ForgetHistory(ctx, sourceID, ct, input.StreamID); err != nil {
		return nil, huma.Error500InternalServerError("failed to forget history entry", err)
	}

	resp := &ForgetOutput{}
	resp.Body.Forgotten = true
	return resp, nil
}
