// Package monitoring provides metrics collection for parse and bind
// operations.
package monitoring

import (
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// OperationMetrics represents the metrics of a single parse or bind.
type OperationMetrics struct {
	Operation   string        `json:"operation"`
	Duration    time.Duration `json:"duration"`
	InputLength int           `json:"input_length"`
	Failed      bool          `json:"failed"`
	Cached      bool          `json:"cached"`
}

// MetricsCollector collects and stores operation metrics. It is safe for
// concurrent use.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics []OperationMetrics
	enabled bool
	now     func() time.Time
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(enabled bool) *MetricsCollector {
	return &MetricsCollector{
		metrics: make([]OperationMetrics, 0),
		enabled: enabled,
		now:     time.Now,
	}
}

// IsEnabled returns whether metrics collection is enabled.
func (mc *MetricsCollector) IsEnabled() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.enabled
}

// RecordOperation executes fn and records its duration and outcome. input is
// the query text the operation works on.
func (mc *MetricsCollector) RecordOperation(operation, input string, fn func() error) error {
	if !mc.IsEnabled() {
		return fn()
	}

	start := mc.now()
	err := fn()
	mc.Record(OperationMetrics{
		Operation:   operation,
		Duration:    mc.now().Sub(start),
		InputLength: len(input),
		Failed:      err != nil,
	})
	return err
}

// RecordCacheHit records an operation answered from the parse cache.
func (mc *MetricsCollector) RecordCacheHit(operation, input string) {
	if !mc.IsEnabled() {
		return
	}
	mc.Record(OperationMetrics{Operation: operation, InputLength: len(input), Cached: true})
}

// Record stores m.
func (mc *MetricsCollector) Record(m OperationMetrics) {
	mc.mu.Lock()
	mc.metrics = append(mc.metrics, m)
	mc.mu.Unlock()
}

// GetMetrics returns a copy of all collected metrics.
func (mc *MetricsCollector) GetMetrics() []OperationMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make([]OperationMetrics, len(mc.metrics))
	copy(result, mc.metrics)
	return result
}

// Clear removes all collected metrics.
func (mc *MetricsCollector) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics = mc.metrics[:0]
}

// SetEnabled enables or disables metrics collection.
func (mc *MetricsCollector) SetEnabled(enabled bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.enabled = enabled
}

// GetSummary returns a summary of collected metrics.
func (mc *MetricsCollector) GetSummary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if len(mc.metrics) == 0 {
		return MetricsSummary{}
	}

	var totalDuration time.Duration
	summary := MetricsSummary{
		TotalOperations: len(mc.metrics),
		OperationCounts: make(map[string]int),
	}
	durations := make([]time.Duration, 0, len(mc.metrics))
	for _, metric := range mc.metrics {
		totalDuration += metric.Duration
		summary.OperationCounts[metric.Operation]++
		if metric.Failed {
			summary.Failures++
		}
		if metric.Cached {
			summary.CacheHits++
		}
		if metric.Duration > summary.MaxDuration {
			summary.MaxDuration = metric.Duration
		}
		durations = append(durations, metric.Duration)
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	summary.TotalDuration = totalDuration
	summary.AverageDuration = totalDuration / time.Duration(len(mc.metrics))
	summary.MedianDuration = durations[len(durations)/2]
	return summary
}

// MetricsSummary provides aggregate statistics for collected metrics.
type MetricsSummary struct {
	TotalOperations int            `json:"total_operations"`
	Failures        int            `json:"failures"`
	CacheHits       int            `json:"cache_hits"`
	TotalDuration   time.Duration  `json:"total_duration"`
	AverageDuration time.Duration  `json:"average_duration"`
	MedianDuration  time.Duration  `json:"median_duration"`
	MaxDuration     time.Duration  `json:"max_duration"`
	OperationCounts map[string]int `json:"operation_counts"`
}

// JSON renders the summary as indented JSON.
func (s MetricsSummary) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
