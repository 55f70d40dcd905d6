package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"

	"github.com/jwhitfield/ottarr/internal/models"
)

// Coordinator owns one engine per content type and fans sync requests out
// to them. Engines run independently; a full sync runs all three catalogs
// concurrently and reports the combined outcome.
type Coordinator struct {
	engines map[models.ContentType]*Engine
	logger  *slog.Logger
}

// NewCoordinator wires a coordinator over the given engines.
func NewCoordinator(engines []*Engine, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	m := make(map[models.ContentType]*Engine, len(engines))
	for _, e := range engines {
		m[e.ContentType()] = e
	}
	return &Coordinator{engines: m, logger: logger.With(slog.String("component", "sync_coordinator"))}
}

// Sync runs one sync pass for a single content type.
func (c *Coordinator) Sync(ctx context.Context, contentType models.ContentType, force bool) error {
	engine, ok := c.engines[contentType]
	if !ok {
		return fmt.Errorf("no sync engine for content type %q", contentType)
	}
	return engine.Sync(ctx, force)
}

// SyncAll syncs every catalog concurrently and joins the failures.
func (c *Coordinator) SyncAll(ctx context.Context, force bool) error {
	var wg gosync.WaitGroup
	errs := make([]error, 0, len(c.engines))
	var mu gosync.Mutex

	for _, engine := range c.engines {
		wg.Add(1)
		go func(e *Engine) {
			defer wg.Done()
			if err := e.Sync(ctx, force); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", e.ContentType(), err))
				mu.Unlock()
			}
		}(engine)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// InFlight reports whether any engine currently has a sync running.
func (c *Coordinator) InFlight() bool {
	for _, e := range c.engines {
		if e.InFlight() {
			return true
		}
	}
	return false
}
