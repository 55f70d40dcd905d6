package sync

import (
	"context"
	"fmt"
	"testing"

	"github.com/jwhitfield/ottarr/internal/models"
	"github.com/jwhitfield/ottarr/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingItemRepo implements just enough of ContentItemRepository for
// the writer: it records batches in arrival order and can be told to fail
// specific batch numbers (1-based).
type recordingItemRepo struct {
	repository.ContentItemRepository

	batches     [][]*models.ContentItem
	upserted    int
	inserted    int
	failBatches map[int]bool
}

func (r *recordingItemRepo) Transaction(ctx context.Context, fn func(repository.ContentItemRepository) error) error {
	return fn(r)
}

func (r *recordingItemRepo) CreateBatch(ctx context.Context, items []*models.ContentItem) error {
	if err := r.record(items); err != nil {
		return err
	}
	r.inserted += len(items)
	return nil
}

func (r *recordingItemRepo) UpsertBatch(ctx context.Context, items []*models.ContentItem) error {
	if err := r.record(items); err != nil {
		return err
	}
	r.upserted += len(items)
	return nil
}

func (r *recordingItemRepo) record(items []*models.ContentItem) error {
	n := len(r.batches) + 1
	r.batches = append(r.batches, items)
	if r.failBatches[n] {
		return fmt.Errorf("batch %d rejected", n)
	}
	return nil
}

func writerBatch(start, size int) []*models.ContentItem {
	batch := make([]*models.ContentItem, size)
	for i := range batch {
		batch[i] = &models.ContentItem{
			StreamID: int64(start + i),
			Name:     fmt.Sprintf("item %d", start+i),
		}
	}
	return batch
}

func TestBatchWriterFIFOOrder(t *testing.T) {
	repo := &recordingItemRepo{}
	w := NewBatchWriter(context.Background(), repo, 2, false, nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, w.Enqueue(context.Background(), writerBatch(i*10, 10)))
	}
	w.Close()
	result := w.Wait()

	assert.Equal(t, int64(50), result.SuccessCount)
	assert.Zero(t, result.FailedCount)
	require.Len(t, repo.batches, 5)
	for i, batch := range repo.batches {
		assert.Equal(t, int64(i*10), batch[0].StreamID)
	}
	assert.Equal(t, 50, repo.inserted)
	assert.Zero(t, repo.upserted)
}

func TestBatchWriterMergeUsesUpsert(t *testing.T) {
	repo := &recordingItemRepo{}
	w := NewBatchWriter(context.Background(), repo, 2, true, nil)

	require.NoError(t, w.Enqueue(context.Background(), writerBatch(0, 10)))
	w.Close()
	w.Wait()

	assert.Equal(t, 10, repo.upserted)
	assert.Zero(t, repo.inserted)
}

func TestBatchWriterContinuesPastFailedBatch(t *testing.T) {
	repo := &recordingItemRepo{failBatches: map[int]bool{2: true, 4: true}}
	w := NewBatchWriter(context.Background(), repo, 2, false, nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, w.Enqueue(context.Background(), writerBatch(i*10, 10)))
	}
	w.Close()
	result := w.Wait()

	// Every batch was attempted despite two failures.
	assert.Len(t, repo.batches, 5)
	assert.Equal(t, int64(30), result.SuccessCount)
	assert.Equal(t, int64(20), result.FailedCount)
	assert.Equal(t, 2, result.BatchErrors)
	require.Error(t, result.FirstErr)
	assert.Contains(t, result.FirstErr.Error(), "batch 2")

	perr := result.PartialErr()
	require.Error(t, perr)
	var partial *PartialWriteError
	require.ErrorAs(t, perr, &partial)
	assert.Equal(t, int64(30), partial.SuccessCount)
	assert.Equal(t, int64(20), partial.FailedCount)
}

func TestBatchWriterEmptyEnqueueIgnored(t *testing.T) {
	repo := &recordingItemRepo{}
	w := NewBatchWriter(context.Background(), repo, 1, false, nil)

	require.NoError(t, w.Enqueue(context.Background(), nil))
	w.Close()
	result := w.Wait()

	assert.Zero(t, result.SuccessCount)
	assert.Empty(t, repo.batches)
}

func TestBatchWriterEnqueueRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Consumer context is already cancelled, channel full.
	repo := &recordingItemRepo{}
	w := &BatchWriter{
		ch:   make(chan []*models.ContentItem), // unbuffered, no consumer
		done: make(chan struct{}),
		repo: repo,
	}

	err := w.Enqueue(ctx, writerBatch(0, 1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteResultPartialErrNilOnSuccess(t *testing.T) {
	result := WriteResult{SuccessCount: 10}
	assert.NoError(t, result.PartialErr())
}
