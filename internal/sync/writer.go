package sync

import (
	"context"
	"log/slog"

	"github.com/jwhitfield/ottarr/internal/models"
	"github.com/jwhitfield/ottarr/internal/repository"
)

// WriteResult is the aggregate outcome of a batch write session.
type WriteResult struct {
	// SuccessCount is the number of rows durably written.
	SuccessCount int64
	// FailedCount is the number of rows in batches that failed to write.
	FailedCount int64
	// BatchErrors is the number of batches that failed.
	BatchErrors int
	// FirstErr is the first batch write error observed.
	FirstErr error
}

// PartialErr returns a *PartialWriteError describing the failed portion,
// or nil when every batch succeeded.
func (r WriteResult) PartialErr() error {
	if r.FailedCount == 0 {
		return nil
	}
	return &PartialWriteError{
		SuccessCount: r.SuccessCount,
		FailedCount:  r.FailedCount,
		FirstErr:     r.FirstErr,
	}
}

// BatchWriter decouples parsing from storage: a bounded FIFO channel of
// row batches drained by a single consumer goroutine writing each batch in
// its own transaction. Enqueue blocks when the writer falls capacity
// batches behind, bounding memory. A failed batch is recorded and skipped;
// the consumer keeps draining (partial-success policy).
type BatchWriter struct {
	ch     chan []*models.ContentItem
	done   chan struct{}
	repo   repository.ContentItemRepository
	merge  bool
	logger *slog.Logger
	result WriteResult
}

// NewBatchWriter starts the consumer goroutine. When merge is true batches
// are upserted by provider identity; otherwise they are plain inserts into
// a table the caller has already cleared.
func NewBatchWriter(ctx context.Context, repo repository.ContentItemRepository, capacity int, merge bool, logger *slog.Logger) *BatchWriter {
	if capacity < 1 {
		capacity = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &BatchWriter{
		ch:     make(chan []*models.ContentItem, capacity),
		done:   make(chan struct{}),
		repo:   repo,
		merge:  merge,
		logger: logger,
	}
	go w.consume(ctx)
	return w
}

// Enqueue queues one batch for writing, blocking while the channel is
// full. Returns the context error if ctx ends first.
func (w *BatchWriter) Enqueue(ctx context.Context, batch []*models.ContentItem) error {
	if len(batch) == 0 {
		return nil
	}
	select {
	case w.ch <- batch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close signals that no further batches will be enqueued. The consumer
// drains what remains.
func (w *BatchWriter) Close() {
	close(w.ch)
}

// Wait blocks until the consumer has drained every batch and returns the
// aggregate result. Call after Close.
func (w *BatchWriter) Wait() WriteResult {
	<-w.done
	return w.result
}

// consume drains the channel in FIFO order, one transaction per batch.
func (w *BatchWriter) consume(ctx context.Context) {
	defer close(w.done)

	for batch := range w.ch {
		err := w.repo.Transaction(ctx, func(tx repository.ContentItemRepository) error {
			if w.merge {
				return tx.UpsertBatch(ctx, batch)
			}
			return tx.CreateBatch(ctx, batch)
		})
		if err != nil {
			w.result.FailedCount += int64(len(batch))
			w.result.BatchErrors++
			if w.result.FirstErr == nil {
				w.result.FirstErr = err
			}
			w.logger.Warn("batch write failed, continuing",
				slog.Int("batch_size", len(batch)),
				slog.String("error", err.Error()),
			)
			continue
		}
		w.result.SuccessCount += int64(len(batch))
	}
}
