package outwriter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		summary, err := Summarize(nil)
		require.NoError(t, err)
		assert.Equal(t, Summary{}, summary)
	})

	t.Run("single row", func(t *testing.T) {
		summary, err := Summarize([]int64{4})
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Rows)
		assert.Equal(t, int64(4), summary.TotalCommits)
		assert.InDelta(t, 4.0, summary.MeanCommits, 1e-9)
		assert.InDelta(t, 4.0, summary.MedianCommits, 1e-9)
	})

	t.Run("spread", func(t *testing.T) {
		summary, err := Summarize([]int64{10, 1, 9, 2, 8, 3, 7, 4, 6, 5})
		require.NoError(t, err)
		assert.Equal(t, 10, summary.Rows)
		assert.Equal(t, int64(55), summary.TotalCommits)
		assert.InDelta(t, 5.5, summary.MeanCommits, 1e-9)
		assert.InDelta(t, 5.5, summary.MedianCommits, 1e-9)
		assert.InDelta(t, 9.0, summary.P90Commits, 1e-9)
	})
}
