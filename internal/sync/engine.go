package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jwhitfield/ottarr/internal/config"
	"github.com/jwhitfield/ottarr/internal/models"
	"github.com/jwhitfield/ottarr/internal/netgate"
	"github.com/jwhitfield/ottarr/internal/repository"
	"github.com/jwhitfield/ottarr/pkg/xtream"
)

// RecomputeFunc recomputes category children counts for one catalog after
// a successful load. Failures are logged, never fatal.
type RecomputeFunc func(ctx context.Context, sourceID models.ULID, contentType models.ContentType) error

// EngineDeps bundles everything one engine needs.
type EngineDeps struct {
	ContentType models.ContentType
	Config      config.SyncConfig
	Provider    SourceProvider
	Items       repository.ContentItemRepository
	Categories  repository.CategoryRepository
	Meta        repository.CacheMetadataRepository
	Gate        netgate.Gate
	Bus         *Bus
	Recompute   RecomputeFunc
	Logger      *slog.Logger
}

// Engine orchestrates syncing one content type: cache check, prerequisite
// and credential checks, fetch with retry, category resolution, streaming ingest,
// verification, metadata update, and state/effect emission. One engine
// exists per content type; engines for different types run fully
// concurrently while each serializes its own physical work.
type Engine struct {
	contentType models.ContentType
	cfg         config.SyncConfig
	provider    SourceProvider
	items       repository.ContentItemRepository
	categories  repository.CategoryRepository
	meta        repository.CacheMetadataRepository
	gate        netgate.Gate
	bus         *Bus
	recompute   RecomputeFunc
	logger      *slog.Logger

	inFlight atomic.Bool
	mu       sync.Mutex

	now func() time.Time
}

// NewEngine creates an engine for one content type.
func NewEngine(deps EngineDeps) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gate := deps.Gate
	if gate == nil {
		gate = netgate.NewDisabledGate()
	}
	return &Engine{
		contentType: deps.ContentType,
		cfg:         deps.Config,
		provider:    deps.Provider,
		items:       deps.Items,
		categories:  deps.Categories,
		meta:        deps.Meta,
		gate:        gate,
		bus:         deps.Bus,
		recompute:   deps.Recompute,
		logger: logger.With(
			slog.String("component", "sync_engine"),
			slog.String("content_type", string(deps.ContentType)),
		),
		now: time.Now,
	}
}

// ContentType returns the catalog this engine syncs.
func (e *Engine) ContentType() models.ContentType {
	return e.contentType
}

// InFlight reports whether a physical sync is currently running.
func (e *Engine) InFlight() bool {
	return e.inFlight.Load()
}

// Sync runs one sync pass. A call arriving while a sync is already in
// flight is a no-op unless force is set. The in-flight flag is checked
// before taking the lock (cheap short circuit under duplicate triggers)
// and again after, closing the race where two callers pass the first
// check together.
func (e *Engine) Sync(ctx context.Context, force bool) error {
	if !force && e.inFlight.Load() {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !force && e.inFlight.Load() {
		return nil
	}
	e.inFlight.Store(true)
	defer e.inFlight.Store(false)

	return e.run(ctx, force)
}

// run executes one serialized sync pass under the engine lock.
func (e *Engine) run(ctx context.Context, force bool) error {
	start := e.now()

	source, client, err := e.provider.Active(ctx)
	if err != nil {
		perr := &PrerequisiteError{Err: err}
		e.failWith(nil, perr)
		return perr
	}

	meta, err := e.meta.Get(ctx, source.ID, e.contentType)
	if err != nil {
		e.failWith(nil, err)
		return err
	}

	// Fresh cache hit: no network call at all.
	if !force && meta.Fresh(e.now(), e.cfg.CacheTTL) {
		e.bus.Publish(State{ContentType: e.contentType, Phase: PhaseSuccess})
		e.bus.Emit(Effect{
			ContentType: e.contentType,
			Kind:        EffectLoadSuccess,
			ItemCount:   meta.ItemCount,
			FromCache:   true,
		})
		e.logger.Debug("cache fresh, skipping sync",
			slog.Int64("item_count", meta.ItemCount),
		)
		return nil
	}

	e.bus.Publish(State{ContentType: e.contentType, Phase: PhaseLoading})

	if err := e.gate.Check(ctx); err != nil {
		perr := &PrerequisiteError{Err: err}
		e.failWith(meta, perr)
		return perr
	}

	// Xtream providers reject catalog calls from unauthenticated clients
	// with opaque errors, so credentials are verified up front.
	if err := client.Authenticate(ctx); err != nil {
		perr := &PrerequisiteError{Err: err}
		e.failWith(meta, perr)
		return perr
	}

	catNames, catCount, err := e.resolveCategories(ctx, source, client, meta)
	if err != nil {
		e.failWith(meta, err)
		return err
	}

	body, err := e.fetchWithRetry(ctx, client)
	if err != nil {
		e.failWith(meta, err)
		return err
	}
	defer body.Close()

	merge := meta.MergeMode()
	if merge {
		e.logger.Info("previous sync was partial, merging instead of replacing")
	} else {
		if err := e.items.DeleteBySourceAndType(ctx, source.ID, e.contentType); err != nil {
			e.failWith(meta, err)
			return err
		}
	}

	result, parseErr := e.ingest(ctx, source.ID, body, catNames, merge)

	// Classification, in priority order.
	switch {
	case parseErr != nil:
		e.failWith(meta, parseErr)
		return parseErr

	case result.SuccessCount == 0 && result.FailedCount > 0:
		err := fmt.Errorf("all %d write batches failed: %w", result.BatchErrors, result.FirstErr)
		e.failWith(meta, err)
		return err
	}

	actual, err := e.items.CountBySourceAndType(ctx, source.ID, e.contentType)
	if err != nil {
		e.failWith(meta, err)
		return err
	}
	if verr := e.verify(actual, result.SuccessCount, merge); verr != nil {
		e.failWith(meta, verr)
		return verr
	}

	status := models.LoadStatusSuccess
	if result.FailedCount > 0 {
		status = models.LoadStatusPartial
	}

	if err := e.meta.Put(ctx, &models.CacheMetadata{
		SourceID:      source.ID,
		ContentType:   e.contentType,
		LastUpdated:   e.now(),
		ItemCount:     actual,
		CategoryCount: catCount,
		LoadStatus:    status,
	}); err != nil {
		e.failWith(meta, err)
		return err
	}

	if status == models.LoadStatusPartial {
		e.bus.Publish(State{
			ContentType:  e.contentType,
			Phase:        PhasePartial,
			SuccessCount: result.SuccessCount,
			FailedCount:  result.FailedCount,
		})
		e.bus.Emit(Effect{
			ContentType:  e.contentType,
			Kind:         EffectPartialSuccess,
			SuccessCount: result.SuccessCount,
			FailedCount:  result.FailedCount,
			Message:      result.PartialErr().Error(),
		})
	} else {
		e.bus.Publish(State{ContentType: e.contentType, Phase: PhaseSuccess})
		e.bus.Emit(Effect{
			ContentType: e.contentType,
			Kind:        EffectLoadSuccess,
			ItemCount:   actual,
		})
	}

	// Children-count recompute is a side effect of a committed load;
	// failures never downgrade the outcome.
	if e.recompute != nil {
		if err := e.recompute(ctx, source.ID, e.contentType); err != nil {
			e.logger.Warn("category count recompute failed",
				slog.String("error", err.Error()),
			)
		}
	}

	e.logger.Info("sync complete",
		slog.String("status", string(status)),
		slog.Int64("items", actual),
		slog.Int64("categories", catCount),
		slog.Duration("duration", e.now().Sub(start)),
	)
	return nil
}

// ingest streams the catalog body through the parser into a batch writer,
// with secondary indexes dropped for the duration of the bulk load.
func (e *Engine) ingest(ctx context.Context, sourceID models.ULID, body io.Reader, catNames map[string]string, merge bool) (WriteResult, error) {
	if err := e.items.DropSecondaryIndexes(ctx); err != nil {
		e.logger.Warn("dropping secondary indexes failed, continuing with indexes in place",
			slog.String("error", err.Error()),
		)
	}
	defer func() {
		if err := e.items.RebuildSecondaryIndexes(ctx); err != nil {
			e.logger.Error("rebuilding secondary indexes failed",
				slog.String("error", err.Error()),
			)
		}
	}()

	writer := NewBatchWriter(ctx, e.items, e.cfg.ChannelCapacity, merge, e.logger)

	// Mapped rows accumulate to FlushSize before hitting the write
	// channel; the parser batches at the smaller BatchSize.
	pending := make([]*models.ContentItem, 0, e.cfg.FlushSize)

	_, parseErr := ParseArray(body, e.cfg.BatchSize, e.cfg.ProgressInterval,
		func(batch []json.RawMessage) error {
			for _, raw := range batch {
				item, err := e.mapItem(sourceID, raw, catNames)
				if err != nil {
					return err
				}
				if item == nil {
					continue
				}
				pending = append(pending, item)
			}
			if len(pending) >= e.cfg.FlushSize {
				if err := writer.Enqueue(ctx, pending); err != nil {
					return err
				}
				pending = make([]*models.ContentItem, 0, e.cfg.FlushSize)
			}
			return nil
		},
		func(parsed int) {
			e.bus.Publish(State{
				ContentType: e.contentType,
				Phase:       PhaseLoading,
				Parsed:      parsed,
			})
		},
	)

	if parseErr == nil && len(pending) > 0 {
		parseErr = writer.Enqueue(ctx, pending)
	}

	writer.Close()
	result := writer.Wait()
	return result, parseErr
}

// mapItem converts one raw catalog element into a ContentItem. Rows with
// no usable identity or name are skipped rather than failing the sync.
func (e *Engine) mapItem(sourceID models.ULID, raw json.RawMessage, catNames map[string]string) (*models.ContentItem, error) {
	var s xtream.Stream
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, &ParseError{Err: fmt.Errorf("decoding catalog element: %w", err)}
	}

	if s.ID() == 0 || s.Name == "" {
		return nil, nil
	}

	categoryID := s.CategoryID.String()
	return &models.ContentItem{
		SourceID:           sourceID,
		ContentType:        e.contentType,
		StreamID:           s.ID(),
		Name:               s.Name,
		CategoryID:         categoryID,
		CategoryName:       catNames[categoryID],
		Icon:               s.Icon(),
		ContainerExtension: s.ContainerExtension,
		EPGChannelID:       s.EPGChannelID,
		Rating:             s.Rating.Float(),
		ReleaseDate:        s.ReleaseDate,
		AddedAt:            s.Added.Int(),
		IsAdult:            s.IsAdult.Int() == 1,
	}, nil
}

// resolveCategories returns the id to name lookup used to denormalize
// category names onto items at mapping time. Fresh cached categories are
// read from the store; otherwise they are fetched and upserted. Category
// resolution always completes before item mapping begins.
func (e *Engine) resolveCategories(ctx context.Context, source *models.Source, client ContentSource, meta *models.CacheMetadata) (map[string]string, int64, error) {
	if meta.Fresh(e.now(), e.cfg.CacheTTL) && meta.CategoryCount > 0 {
		cached, err := e.categories.GetBySourceAndType(ctx, source.ID, e.contentType)
		if err == nil && len(cached) > 0 {
			names := make(map[string]string, len(cached))
			for _, c := range cached {
				names[c.CategoryID] = c.Name
			}
			return names, int64(len(cached)), nil
		}
	}

	fetched, err := e.fetchCategoriesWithRetry(ctx, client)
	if err != nil {
		return nil, 0, err
	}

	rows := make([]*models.Category, 0, len(fetched))
	names := make(map[string]string, len(fetched))
	for _, c := range fetched {
		id := c.CategoryID.String()
		if id == "" || c.CategoryName == "" {
			continue
		}
		names[id] = c.CategoryName
		rows = append(rows, &models.Category{
			SourceID:    source.ID,
			ContentType: e.contentType,
			CategoryID:  id,
			Name:        c.CategoryName,
			ParentID:    int(c.ParentID.Int()),
		})
	}

	if err := e.categories.UpsertBatch(ctx, rows); err != nil {
		return nil, 0, err
	}

	return names, int64(len(rows)), nil
}

// fetchWithRetry opens the catalog stream with exponential backoff. The
// final attempt's error propagates wrapped as a TransientFetchError.
func (e *Engine) fetchWithRetry(ctx context.Context, client ContentSource) (io.ReadCloser, error) {
	attempts := e.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := e.cfg.RetryDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			e.logger.Debug("retrying catalog fetch",
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
			)
			select {
			case <-ctx.Done():
				return nil, &TransientFetchError{Attempts: attempt - 1, Err: ctx.Err()}
			case <-time.After(delay):
			}
			delay *= 2
		}

		body, err := client.FetchItems(ctx, e.contentType)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}

	return nil, &TransientFetchError{Attempts: attempts, Err: lastErr}
}

// fetchCategoriesWithRetry fetches the category list with the same backoff
// policy as the catalog fetch.
func (e *Engine) fetchCategoriesWithRetry(ctx context.Context, client ContentSource) ([]xtream.Category, error) {
	attempts := e.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := e.cfg.RetryDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, &TransientFetchError{Attempts: attempt - 1, Err: ctx.Err()}
			case <-time.After(delay):
			}
			delay *= 2
		}

		cats, err := client.FetchCategories(ctx, e.contentType)
		if err == nil {
			return cats, nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}

	return nil, &TransientFetchError{Attempts: attempts, Err: lastErr}
}

// verify compares the post-ingest row count against the written count.
// In replace mode the counts must agree within tolerance; in merge mode
// prior rows legitimately inflate the actual count, so only emptiness is
// checked.
func (e *Engine) verify(actual, written int64, merge bool) error {
	if actual == 0 {
		return &VerificationError{Expected: written, Actual: 0, Tolerance: e.cfg.VerifyTolerance}
	}
	if merge {
		return nil
	}
	diff := actual - written
	if diff < 0 {
		diff = -diff
	}
	if diff > e.cfg.VerifyTolerance {
		return &VerificationError{Expected: written, Actual: actual, Tolerance: e.cfg.VerifyTolerance}
	}
	return nil
}

// failWith publishes the error state and effect. Errors with prior cached
// data are flagged as silent background failures so observers keep showing
// cached content.
func (e *Engine) failWith(meta *models.CacheMetadata, err error) {
	hasCache := meta.HasCachedData()

	e.bus.Publish(State{
		ContentType:       e.contentType,
		Phase:             PhaseError,
		Message:           err.Error(),
		HasCachedFallback: hasCache,
	})
	e.bus.Emit(Effect{
		ContentType: e.contentType,
		Kind:        EffectLoadError,
		Message:     err.Error(),
		FromCache:   hasCache,
	})

	e.logger.Error("sync failed",
		slog.String("error", err.Error()),
		slog.Bool("has_cached_fallback", hasCache),
	)
}
