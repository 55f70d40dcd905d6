package sync

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// BatchFunc receives each full batch of raw array elements, and the final
// partial batch. Returning an error aborts the parse.
type BatchFunc func(batch []json.RawMessage) error

// ProgressFunc receives the running element count at progress intervals.
type ProgressFunc func(parsed int)

// ParseArray incrementally parses a top-level JSON array from r, emitting
// bounded batches of at most batchSize elements to onBatch and the running
// count to onProgress every progressInterval elements. The whole array is
// never materialized. Returns the total element count.
//
// A malformed stream or element returns a *ParseError and aborts; partial
// success is the write layer's concern, not the parser's. The reader is
// consumed exactly once and closing it remains the caller's responsibility.
func ParseArray(r io.Reader, batchSize, progressInterval int, onBatch BatchFunc, onProgress ProgressFunc) (int, error) {
	if batchSize < 1 {
		return 0, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return 0, &ParseError{Element: 0, Err: fmt.Errorf("reading array open: %w", err)}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return 0, &ParseError{Element: 0, Err: fmt.Errorf("expected JSON array, got token %v", tok)}
	}

	var (
		count int
		batch = make([]json.RawMessage, 0, batchSize)
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := onBatch(batch); err != nil {
			return err
		}
		batch = make([]json.RawMessage, 0, batchSize)
		return nil
	}

	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return count, &ParseError{Element: count, Err: err}
		}

		batch = append(batch, raw)
		count++

		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return count, err
			}
		}

		if onProgress != nil && progressInterval > 0 && count%progressInterval == 0 {
			onProgress(count)
		}
	}

	if _, err := dec.Token(); err != nil {
		return count, &ParseError{Element: count, Err: fmt.Errorf("reading array close: %w", err)}
	}

	if err := flush(); err != nil {
		return count, err
	}

	return count, nil
}
