// Package sync implements the catalog synchronization pipeline: streaming
// JSON parse, batched transactional writes, cache freshness policy, the
// per-content-type sync engine, and the state/effect bus its observers
// consume.
package sync

import (
	"context"
	"io"
	"time"

	"github.com/jwhitfield/ottarr/internal/models"
	"github.com/jwhitfield/ottarr/pkg/xtream"
)

// Phase is the coarse position of a catalog in its sync lifecycle.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhasePartial Phase = "partial"
	PhaseError   Phase = "error"
)

// State is the current sync state for one content type. Published on the
// bus's conflated state stream; observers only ever need the latest value.
type State struct {
	ContentType models.ContentType `json:"content_type"`
	Phase       Phase              `json:"phase"`

	// Parsed is the number of elements parsed so far while loading.
	// The catalog length is unknown up front, so progress is a count,
	// not a percentage.
	Parsed int `json:"parsed,omitempty"`

	// SuccessCount and FailedCount are set on partial outcomes.
	SuccessCount int64 `json:"success_count,omitempty"`
	FailedCount  int64 `json:"failed_count,omitempty"`

	// Message carries the error text on error outcomes.
	Message string `json:"message,omitempty"`

	// HasCachedFallback is set on error outcomes when prior cached rows
	// exist; observers should keep rendering cached content and treat
	// the error as a silent background-refresh failure.
	HasCachedFallback bool `json:"has_cached_fallback,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// EffectKind identifies a one-shot sync outcome event.
type EffectKind string

const (
	EffectLoadSuccess    EffectKind = "load_success"
	EffectPartialSuccess EffectKind = "partial_success"
	EffectLoadError      EffectKind = "load_error"
)

// Effect is a one-shot notification delivered at least once to every
// active subscriber, never coalesced, never replayed.
type Effect struct {
	ContentType models.ContentType `json:"content_type"`
	Kind        EffectKind         `json:"kind"`

	// ItemCount is the catalog size on success outcomes.
	ItemCount int64 `json:"item_count,omitempty"`

	// FromCache is set when a success came from a fresh cache hit
	// without touching the network.
	FromCache bool `json:"from_cache,omitempty"`

	SuccessCount int64  `json:"success_count,omitempty"`
	FailedCount  int64  `json:"failed_count,omitempty"`
	Message      string `json:"message,omitempty"`

	At time.Time `json:"at"`
}

// ContentSource is the engine-facing view of a remote provider.
// pkg/xtream satisfies it through service.SourceManager's adapter.
type ContentSource interface {
	// Authenticate verifies credentials against the provider.
	Authenticate(ctx context.Context) error
	// FetchCategories retrieves the category list for one content type.
	FetchCategories(ctx context.Context, contentType models.ContentType) ([]xtream.Category, error)
	// FetchItems opens the full catalog for one content type as a raw
	// JSON stream. The caller owns the ReadCloser.
	FetchItems(ctx context.Context, contentType models.ContentType) (io.ReadCloser, error)
}

// SourceProvider exposes the currently active source and a provider client
// bound to its credentials.
type SourceProvider interface {
	// Active returns the active source and a client for it, or an error
	// when no enabled source is active.
	Active(ctx context.Context) (*models.Source, ContentSource, error)
}
