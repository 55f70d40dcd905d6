package sync

import (
	"fmt"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// catalogJSON builds a JSON array of n objects with sequential ids.
func catalogJSON(n int) string {
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `{"stream_id":%d,"name":"item %d"}`, i+1, i+1)
	}
	b.WriteByte(']')
	return b.String()
}

func TestParseArrayBatchMath(t *testing.T) {
	tests := []struct {
		name        string
		elements    int
		batchSize   int
		wantBatches int
	}{
		{"exact multiple", 100, 25, 4},
		{"remainder batch", 101, 25, 5},
		{"single partial batch", 7, 25, 1},
		{"empty array", 0, 25, 0},
		{"batch size one", 3, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var batches [][]json.RawMessage
			count, err := ParseArray(strings.NewReader(catalogJSON(tt.elements)), tt.batchSize, 0,
				func(batch []json.RawMessage) error {
					copied := make([]json.RawMessage, len(batch))
					copy(copied, batch)
					batches = append(batches, copied)
					return nil
				}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.elements, count)
			assert.Len(t, batches, tt.wantBatches)

			total := 0
			for i, batch := range batches {
				if i < len(batches)-1 {
					assert.Len(t, batch, tt.batchSize)
				}
				total += len(batch)
			}
			assert.Equal(t, tt.elements, total)
		})
	}
}

func TestParseArrayPreservesOrder(t *testing.T) {
	var ids []int64
	_, err := ParseArray(strings.NewReader(catalogJSON(50)), 7, 0,
		func(batch []json.RawMessage) error {
			for _, raw := range batch {
				var row struct {
					StreamID int64 `json:"stream_id"`
				}
				require.NoError(t, json.Unmarshal(raw, &row))
				ids = append(ids, row.StreamID)
			}
			return nil
		}, nil)
	require.NoError(t, err)

	require.Len(t, ids, 50)
	for i, id := range ids {
		assert.Equal(t, int64(i+1), id)
	}
}

func TestParseArrayProgressAtExactMultiples(t *testing.T) {
	var marks []int
	count, err := ParseArray(strings.NewReader(catalogJSON(35)), 4, 10,
		func([]json.RawMessage) error { return nil },
		func(parsed int) { marks = append(marks, parsed) })
	require.NoError(t, err)

	assert.Equal(t, 35, count)
	// No final progress event for the trailing 5 elements.
	assert.Equal(t, []int{10, 20, 30}, marks)
}

func TestParseArrayNotAnArray(t *testing.T) {
	_, err := ParseArray(strings.NewReader(`{"not":"an array"}`), 10, 0,
		func([]json.RawMessage) error { return nil }, nil)
	require.Error(t, err)

	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestParseArrayTruncatedStream(t *testing.T) {
	truncated := catalogJSON(20)
	truncated = truncated[:len(truncated)/2]

	count, err := ParseArray(strings.NewReader(truncated), 5, 0,
		func([]json.RawMessage) error { return nil }, nil)
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, count, perr.Element)
}

func TestParseArrayCallbackErrorAborts(t *testing.T) {
	calls := 0
	_, err := ParseArray(strings.NewReader(catalogJSON(100)), 10, 0,
		func([]json.RawMessage) error {
			calls++
			if calls == 2 {
				return assert.AnError
			}
			return nil
		}, nil)

	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 2, calls)
}

func TestParseArrayRejectsBadBatchSize(t *testing.T) {
	_, err := ParseArray(strings.NewReader("[]"), 0, 0,
		func([]json.RawMessage) error { return nil }, nil)
	require.Error(t, err)
}
