package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jwhitfield/ottarr/internal/models"
	"github.com/jwhitfield/ottarr/internal/service"
	"gorm.io/gorm"
)

// ScheduleReloader lets the scheduler pick up schedule changes made via
// the API without waiting for the next tick.
type ScheduleReloader interface {
	Reload(ctx context.Context) error
}

// SourceHandler handles source management endpoints.
type SourceHandler struct {
	manager  *service.SourceManager
	reloader ScheduleReloader
}

// NewSourceHandler creates a source handler.
func NewSourceHandler(manager *service.SourceManager) *SourceHandler {
	return &SourceHandler{manager: manager}
}

// WithScheduleReloader sets the scheduler reload hook.
func (h *SourceHandler) WithScheduleReloader(r ScheduleReloader) *SourceHandler {
	h.reloader = r
	return h
}

func (h *SourceHandler) reloadSchedules(ctx context.Context) {
	if h.reloader != nil {
		go func() {
			_ = h.reloader.Reload(context.WithoutCancel(ctx))
		}()
	}
}

// Register registers the source routes with the API.
func (h *SourceHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listSources",
		Method:      "GET",
		Path:        "/api/v1/sources",
		Summary:     "List sources",
		Tags:        []string{"Sources"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "getSource",
		Method:      "GET",
		Path:        "/api/v1/sources/{id}",
		Summary:     "Get source",
		Tags:        []string{"Sources"},
	}, h.GetByID)

	huma.Register(api, huma.Operation{
		OperationID: "createSource",
		Method:      "POST",
		Path:        "/api/v1/sources",
		Summary:     "Create source",
		Tags:        []string{"Sources"},
	}, h.Create)

	huma.Register(api, huma.Operation{
		OperationID: "updateSource",
		Method:      "PUT",
		Path:        "/api/v1/sources/{id}",
		Summary:     "Update source",
		Tags:        []string{"Sources"},
	}, h.Update)

	huma.Register(api, huma.Operation{
		OperationID: "deleteSource",
		Method:      "DELETE",
		Path:        "/api/v1/sources/{id}",
		Summary:     "Delete source",
		Description: "Deletes a source and all its cached content",
		Tags:        []string{"Sources"},
	}, h.Delete)

	huma.Register(api, huma.Operation{
		OperationID: "activateSource",
		Method:      "POST",
		Path:        "/api/v1/sources/{id}/activate",
		Summary:     "Activate source",
		Description: "Makes this source the single active one; cached API clients are invalidated",
		Tags:        []string{"Sources"},
	}, h.Activate)
}

// ListSourcesInput is the input for listing sources.
type ListSourcesInput struct{}

// ListSourcesOutput is the output for listing sources.
type ListSourcesOutput struct {
	Body struct {
		Sources []SourceResponse `json:"sources"`
	}
}

// List returns all sources.
func (h *SourceHandler) List(ctx context.Context, input *ListSourcesInput) (*ListSourcesOutput, error) {
	sources, err := h.manager.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list sources", err)
	}

	resp := &ListSourcesOutput{}
	resp.Body.Sources = make([]SourceResponse, 0, len(sources))
	for _, s := range sources {
		resp.Body.Sources = append(resp.Body.Sources, SourceFromModel(s))
	}
	return resp, nil
}

// GetSourceInput is the input for getting a source.
type GetSourceInput struct {
	ID string `path:"id" doc:"Source ID (ULID)"`
}

// GetSourceOutput is the output for getting a source.
type GetSourceOutput struct {
	Body SourceResponse
}

// GetByID returns a source by ID.
func (h *SourceHandler) GetByID(ctx context.Context, input *GetSourceInput) (*GetSourceOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid ID format", err)
	}

	source, err := h.manager.Get(ctx, id)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get source", err)
	}
	if source == nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("source %s not found", input.ID))
	}

	return &GetSourceOutput{Body: SourceFromModel(source)}, nil
}

// CreateSourceInput is the input for creating a source.
type CreateSourceInput struct {
	Body CreateSourceRequest
}

// CreateSourceOutput is the output for creating a source.
type CreateSourceOutput struct {
	Body SourceResponse
}

// Create creates a new source.
func (h *SourceHandler) Create(ctx context.Context, input *CreateSourceInput) (*CreateSourceOutput, error) {
	source := input.Body.ToModel()

	if err := h.manager.Create(ctx, source); err != nil {
		if isValidationErr(err) {
			return nil, huma.Error400BadRequest(err.Error())
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed") || strings.Contains(err.Error(), "duplicate key") {
			return nil, huma.Error409Conflict("a source with this name already exists")
		}
		return nil, huma.Error500InternalServerError("failed to create source", err)
	}

	if source.CronSchedule != "" {
		h.reloadSchedules(ctx)
	}
	return &CreateSourceOutput{Body: SourceFromModel(source)}, nil
}

// UpdateSourceInput is the input for updating a source.
type UpdateSourceInput struct {
	ID   string `path:"id" doc:"Source ID (ULID)"`
	Body UpdateSourceRequest
}

// UpdateSourceOutput is the output for updating a source.
type UpdateSourceOutput struct {
	Body SourceResponse
}

// Update updates an existing source.
func (h *SourceHandler) Update(ctx context.Context, input *UpdateSourceInput) (*UpdateSourceOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid ID format", err)
	}

	source, err := h.manager.Get(ctx, id)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get source", err)
	}
	if source == nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("source %s not found", input.ID))
	}

	input.Body.Apply(source)
	if err := h.manager.Update(ctx, source); err != nil {
		if isValidationErr(err) {
			return nil, huma.Error400BadRequest(err.Error())
		}
		return nil, huma.Error500InternalServerError("failed to update source", err)
	}

	h.reloadSchedules(ctx)
	return &UpdateSourceOutput{Body: SourceFromModel(source)}, nil
}

// DeleteSourceInput is the input for deleting a source.
type DeleteSourceInput struct {
	ID string `path:"id" doc:"Source ID (ULID)"`
}

// DeleteSourceOutput is the output for deleting a source.
type DeleteSourceOutput struct {
	Body struct {
		Deleted bool `json:"deleted"`
	}
}

// Delete deletes a source and all its cached content.
func (h *SourceHandler) Delete(ctx context.Context, input *DeleteSourceInput) (*DeleteSourceOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid ID format", err)
	}

	if err := h.manager.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound(fmt.Sprintf("source %s not found", input.ID))
		}
		return nil, huma.Error500InternalServerError("failed to delete source", err)
	}

	resp := &DeleteSourceOutput{}
	resp.Body.Deleted = true
	return resp, nil
}

// ActivateSourceInput is the input for activating a source.
type ActivateSourceInput struct {
	ID string `path:"id" doc:"Source ID (ULID)"`
}

// ActivateSourceOutput is the output for activating a source.
type ActivateSourceOutput struct {
	Body SourceResponse
}

// Activate makes the source the single active one.
func (h *SourceHandler) Activate(ctx context.Context, input *ActivateSourceInput) (*ActivateSourceOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid ID format", err)
	}

	if err := h.manager.SetActive(ctx, id); err != nil {
		if errors.Is(err, models.ErrNoActiveSource) || errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound(fmt.Sprintf("source %s not found", input.ID))
		}
		return nil, huma.Error400BadRequest(err.Error())
	}

	source, err := h.manager.Get(ctx, id)
	if err != nil || source == nil {
		return nil, huma.Error500InternalServerError("failed to reload source", err)
	}

	h.reloadSchedules(ctx)
	return &ActivateSourceOutput{Body: SourceFromModel(source)}, nil
}

func isValidationErr(err error) bool {
	return errors.Is(err, models.ErrNameRequired) ||
		errors.Is(err, models.ErrURLRequired) ||
		errors.Is(err, models.ErrInvalidURL) ||
		errors.Is(err, models.ErrCredentialsRequired)
}
