//nolint:testpackage // requires internal access to unexported types and functions
package monitoring

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steppingClock advances by step on every call.
func steppingClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(step)
		return now
	}
}

func TestMetricsCollector(t *testing.T) {
	t.Run("create disabled collector", func(t *testing.T) {
		collector := NewMetricsCollector(false)
		assert.NotNil(t, collector)
		assert.False(t, collector.IsEnabled())
		assert.Empty(t, collector.GetMetrics())
	})

	t.Run("record operation with disabled collector", func(t *testing.T) {
		collector := NewMetricsCollector(false)

		callCount := 0
		err := collector.RecordOperation("ParseFilter", "Price gt 5", func() error {
			callCount++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, callCount)
		assert.Empty(t, collector.GetMetrics())
	})

	t.Run("record operation with enabled collector", func(t *testing.T) {
		collector := NewMetricsCollector(true)
		collector.now = steppingClock(2 * time.Millisecond)

		err := collector.RecordOperation("ParseFilter", "Price gt 5", func() error { return nil })
		require.NoError(t, err)

		metrics := collector.GetMetrics()
		require.Len(t, metrics, 1)
		assert.Equal(t, OperationMetrics{
			Operation:   "ParseFilter",
			Duration:    2 * time.Millisecond,
			InputLength: len("Price gt 5"),
		}, metrics[0])
	})

	t.Run("failed operation is recorded and error returned", func(t *testing.T) {
		collector := NewMetricsCollector(true)
		boom := errors.New("boom")

		err := collector.RecordOperation("BindFilter", "x", func() error { return boom })
		assert.ErrorIs(t, err, boom)
		require.Len(t, collector.GetMetrics(), 1)
		assert.True(t, collector.GetMetrics()[0].Failed)
	})

	t.Run("cache hits", func(t *testing.T) {
		collector := NewMetricsCollector(true)
		collector.RecordCacheHit("ParseFilter", "a eq 1")
		require.Len(t, collector.GetMetrics(), 1)
		assert.True(t, collector.GetMetrics()[0].Cached)

		collector.SetEnabled(false)
		collector.RecordCacheHit("ParseFilter", "a eq 1")
		assert.Len(t, collector.GetMetrics(), 1)
	})

	t.Run("clear", func(t *testing.T) {
		collector := NewMetricsCollector(true)
		_ = collector.RecordOperation("ParseFilter", "", func() error { return nil })
		collector.Clear()
		assert.Empty(t, collector.GetMetrics())
	})

	t.Run("concurrent recording", func(t *testing.T) {
		collector := NewMetricsCollector(true)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = collector.RecordOperation("ParseOrderBy", "Name", func() error { return nil })
			}()
		}
		wg.Wait()
		assert.Len(t, collector.GetMetrics(), 20)
	})
}

func TestMetricsSummary(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, MetricsSummary{}, NewMetricsCollector(true).GetSummary())
	})

	t.Run("aggregates", func(t *testing.T) {
		collector := NewMetricsCollector(true)
		collector.Record(OperationMetrics{Operation: "ParseFilter", Duration: 1 * time.Millisecond})
		collector.Record(OperationMetrics{Operation: "ParseFilter", Duration: 3 * time.Millisecond, Failed: true})
		collector.Record(OperationMetrics{Operation: "BindFilter", Duration: 8 * time.Millisecond})
		collector.RecordCacheHit("ParseFilter", "x")

		summary := collector.GetSummary()
		assert.Equal(t, 4, summary.TotalOperations)
		assert.Equal(t, 1, summary.Failures)
		assert.Equal(t, 1, summary.CacheHits)
		assert.Equal(t, 12*time.Millisecond, summary.TotalDuration)
		assert.Equal(t, 3*time.Millisecond, summary.AverageDuration)
		assert.Equal(t, 3*time.Millisecond, summary.MedianDuration)
		assert.Equal(t, 8*time.Millisecond, summary.MaxDuration)
		assert.Equal(t, map[string]int{"ParseFilter": 3, "BindFilter": 1}, summary.OperationCounts)

		data, err := summary.JSON()
		require.NoError(t, err)
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.EqualValues(t, 4, decoded["total_operations"])
	})
}
