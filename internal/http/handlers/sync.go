package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	gosync "sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/jwhitfield/ottarr/internal/models"
	ottarrsync "github.com/jwhitfield/ottarr/internal/sync"
	"github.com/oklog/ulid/v2"
)

// SyncHandler handles sync trigger, state and event-stream endpoints.
type SyncHandler struct {
	coordinator       *ottarrsync.Coordinator
	bus               *ottarrsync.Bus
	idleWindow        time.Duration
	heartbeatInterval time.Duration
	logger            *slog.Logger

	mu         gosync.Mutex
	coalescers map[string]*ottarrsync.IdleCoalescer
}

// NewSyncHandler creates a sync handler.
func NewSyncHandler(coordinator *ottarrsync.Coordinator, bus *ottarrsync.Bus, idleWindow time.Duration, logger *slog.Logger) *SyncHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncHandler{
		coordinator:       coordinator,
		bus:               bus,
		idleWindow:        idleWindow,
		heartbeatInterval: 30 * time.Second,
		logger:            logger.With(slog.String("component", "sync-handler")),
		coalescers:        make(map[string]*ottarrsync.IdleCoalescer),
	}
}

// SetHeartbeatInterval sets the SSE heartbeat interval (for testing).
func (h *SyncHandler) SetHeartbeatInterval(interval time.Duration) {
	h.heartbeatInterval = interval
}

// Register registers the sync routes with the API.
func (h *SyncHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "triggerSyncAll",
		Method:      "POST",
		Path:        "/api/v1/sync",
		Summary:     "Sync all content types",
		Description: "Starts a sync for every content type. Fresh caches are skipped unless force is set.",
		Tags:        []string{"Sync"},
	}, h.TriggerAll)

	huma.Register(api, huma.Operation{
		OperationID: "triggerSync",
		Method:      "POST",
		Path:        "/api/v1/sync/{contentType}",
		Summary:     "Sync one content type",
		Tags:        []string{"Sync"},
	}, h.Trigger)

	huma.Register(api, huma.Operation{
		OperationID: "getSyncState",
		Method:      "GET",
		Path:        "/api/v1/sync/state",
		Summary:     "Current sync state for all content types",
		Tags:        []string{"Sync"},
	}, h.GetState)

	huma.Register(api, huma.Operation{
		OperationID: "getSyncStateForType",
		Method:      "GET",
		Path:        "/api/v1/sync/{contentType}/state",
		Summary:     "Current sync state for one content type",
		Tags:        []string{"Sync"},
	}, h.GetStateForType)

	huma.Register(api, huma.Operation{
		OperationID: "recordInteraction",
		Method:      "POST",
		Path:        "/api/v1/interaction",
		Summary:     "Record a client interaction",
		Description: "Defers change-notification delivery on event streams until the client has been idle",
		Tags:        []string{"Sync"},
	}, h.Interaction)
}

// RegisterSSE mounts the raw SSE event stream on the router. Huma cannot
// model a never-ending response body, so this one bypasses the API layer.
func (h *SyncHandler) RegisterSSE(router chi.Router) {
	router.Get("/api/v1/events", h.handleEvents)
}

// TriggerSyncInput is the input for syncing one content type.
type TriggerSyncInput struct {
	ContentType string `path:"contentType" doc:"Content type: live, movie or series"`
	Force       bool   `query:"force" doc:"Sync even when the cache is fresh"`
}

// TriggerSyncOutput is the output for a sync trigger.
type TriggerSyncOutput struct {
	Body struct {
		Started     bool               `json:"started"`
		ContentType models.ContentType `json:"content_type,omitempty"`
	}
}

// Trigger starts a sync for one content type. A sync already in flight
// for the type makes this a no-op.
func (h *SyncHandler) Trigger(ctx context.Context, input *TriggerSyncInput) (*TriggerSyncOutput, error) {
	ct, err := models.ParseContentType(input.ContentType)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	// Detach from the request context so the sync outlives the response.
	go func() {
		if err := h.coordinator.Sync(context.WithoutCancel(ctx), ct, input.Force); err != nil {
			h.logger.Error("sync failed", slog.String("content_type", string(ct)), slog.Any("error", err))
		}
	}()

	resp := &TriggerSyncOutput{}
	resp.Body.Started = true
	resp.Body.ContentType = ct
	return resp, nil
}

// TriggerSyncAllInput is the input for syncing every content type.
type TriggerSyncAllInput struct {
	Force bool `query:"force" doc:"Sync even when caches are fresh"`
}

// TriggerAll starts a sync for every content type.
func (h *SyncHandler) TriggerAll(ctx context.Context, input *TriggerSyncAllInput) (*TriggerSyncOutput, error) {
	go func() {
		if err := h.coordinator.SyncAll(context.WithoutCancel(ctx), input.Force); err != nil {
			h.logger.Error("sync-all failed", slog.Any("error", err))
		}
	}()

	resp := &TriggerSyncOutput{}
	resp.Body.Started = true
	return resp, nil
}

// GetSyncStateInput is the input for reading all sync states.
type GetSyncStateInput struct{}

// GetSyncStateOutput is the output for reading all sync states.
type GetSyncStateOutput struct {
	Body struct {
		States map[models.ContentType]ottarrsync.State `json:"states"`
	}
}

// GetState returns the current sync state for every content type.
func (h *SyncHandler) GetState(ctx context.Context, input *GetSyncStateInput) (*GetSyncStateOutput, error) {
	resp := &GetSyncStateOutput{}
	resp.Body.States = h.bus.States()
	return resp, nil
}

// GetSyncStateForTypeInput is the input for reading one sync state.
type GetSyncStateForTypeInput struct {
	ContentType string `path:"contentType" doc:"Content type: live, movie or series"`
}

// GetSyncStateForTypeOutput is the output for reading one sync state.
type GetSyncStateForTypeOutput struct {
	Body ottarrsync.State
}

// GetStateForType returns the current sync state for one content type.
func (h *SyncHandler) GetStateForType(ctx context.Context, input *GetSyncStateForTypeInput) (*GetSyncStateForTypeOutput, error) {
	ct, err := models.ParseContentType(input.ContentType)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return &GetSyncStateForTypeOutput{Body: h.bus.State(ct)}, nil
}

// InteractionInput is the input for recording an interaction.
type InteractionInput struct{}

// InteractionOutput is the output for recording an interaction.
type InteractionOutput struct {
	Body struct {
		Acknowledged bool `json:"acknowledged"`
	}
}

// Interaction marks every connected event stream as interacting, deferring
// change-notification delivery until the idle window elapses.
func (h *SyncHandler) Interaction(ctx context.Context, input *InteractionInput) (*InteractionOutput, error) {
	h.mu.Lock()
	for _, c := range h.coalescers {
		c.Touch()
	}
	h.mu.Unlock()

	resp := &InteractionOutput{}
	resp.Body.Acknowledged = true
	return resp, nil
}

func (h *SyncHandler) addCoalescer(id string, c *ottarrsync.IdleCoalescer) {
	h.mu.Lock()
	h.coalescers[id] = c
	h.mu.Unlock()
}

func (h *SyncHandler) removeCoalescer(id string) {
	h.mu.Lock()
	delete(h.coalescers, id)
	h.mu.Unlock()
}

// handleEvents is the raw HTTP handler for the SSE stream. Each connection
// gets the conflated state streams for every content type, the shared
// effect stream, and coalesced change batches.
func (h *SyncHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	// CORS headers for cross-origin requests (frontend on different port)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Cache-Control")
	w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	ctx := r.Context()
	rc := http.NewResponseController(w)

	effects, cancelEffects := h.bus.SubscribeEffects()
	defer cancelEffects()

	type typedState struct {
		ch     <-chan ottarrsync.State
		cancel func()
	}
	stateCh := make(chan ottarrsync.State, len(models.AllContentTypes))
	var stateSubs []typedState
	for _, ct := range models.AllContentTypes {
		ch, cancel := h.bus.SubscribeState(ct)
		stateSubs = append(stateSubs, typedState{ch: ch, cancel: cancel})
		go func(ch <-chan ottarrsync.State) {
			for {
				select {
				case <-ctx.Done():
					return
				case s, ok := <-ch:
					if !ok {
						return
					}
					select {
					case stateCh <- s:
					case <-ctx.Done():
						return
					}
				}
			}
		}(ch)
	}
	defer func() {
		for _, s := range stateSubs {
			s.cancel()
		}
	}()

	// Change batches go through the per-connection coalescer so a client
	// mid-interaction is not interrupted by refresh notifications.
	changeBatches := make(chan []ottarrsync.Change, 8)
	coalescer := ottarrsync.NewIdleCoalescer(h.idleWindow, func(changes []ottarrsync.Change) {
		select {
		case changeBatches <- changes:
		case <-ctx.Done():
		}
	})
	connID := ulid.Make().String()
	h.addCoalescer(connID, coalescer)
	defer func() {
		h.removeCoalescer(connID)
		coalescer.Stop()
	}()

	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	fmt.Fprintf(w, ":connected\n\n")
	if err := rc.Flush(); err != nil {
		h.logger.Debug("initial SSE flush failed", slog.Any("error", err))
		return
	}

	// The state subscriptions replay the current value per content type,
	// so every client starts with a full snapshot.
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ":heartbeat %d\n\n", time.Now().Unix())
			if err := rc.Flush(); err != nil {
				h.logger.Debug("heartbeat flush failed, client likely disconnected", slog.Any("error", err))
				return
			}
		case s := <-stateCh:
			if err := h.writeEvent(w, "state", s); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case e, ok := <-effects:
			if !ok {
				return
			}
			if err := h.writeEvent(w, "effect", e); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
			if change, ok := changeFromEffect(e); ok {
				coalescer.Notify(change)
			}
		case changes := <-changeBatches:
			if err := h.writeEvent(w, "changes", changes); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func (h *SyncHandler) writeEvent(w http.ResponseWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal SSE payload", slog.String("event", event), slog.Any("error", err))
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

// changeFromEffect maps catalog-changing effects to change notifications.
// Error effects pass through the effect stream but are not changes.
func changeFromEffect(e ottarrsync.Effect) (ottarrsync.Change, bool) {
	switch e.Kind {
	case ottarrsync.EffectLoadSuccess, ottarrsync.EffectPartialSuccess:
		return ottarrsync.Change{
			ContentType: e.ContentType,
			Kind:        e.Kind,
			ItemCount:   e.ItemCount,
			At:          e.At,
		}, true
	default:
		return ottarrsync.Change{}, false
	}
}
