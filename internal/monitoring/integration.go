package monitoring

import "sync"

// The process-wide collector is picked up by query parsers that enable
// metrics through configuration without being handed a collector.
var (
	processCollector *MetricsCollector
	processMu        sync.RWMutex
)

// SetGlobalCollector installs collector as the process-wide collector; nil
// removes it.
func SetGlobalCollector(collector *MetricsCollector) {
	processMu.Lock()
	defer processMu.Unlock()
	processCollector = collector
}

// GetGlobalCollector returns the process-wide collector, or nil.
func GetGlobalCollector() *MetricsCollector {
	processMu.RLock()
	defer processMu.RUnlock()
	return processCollector
}

// CollectorFor returns collector when it is set and otherwise the
// process-wide collector, which may be nil.
func CollectorFor(collector *MetricsCollector) *MetricsCollector {
	if collector != nil {
		return collector
	}
	return GetGlobalCollector()
}

// EnableGlobalMonitoring installs a fresh, enabled process-wide collector.
func EnableGlobalMonitoring() {
	SetGlobalCollector(NewMetricsCollector(true))
}

// DisableGlobalMonitoring stops the process-wide collector from recording.
// Operations recorded so far are kept.
func DisableGlobalMonitoring() {
	if c := GetGlobalCollector(); c != nil {
		c.SetEnabled(false)
	}
}

// IsGlobalMonitoringEnabled reports whether an enabled process-wide
// collector is installed.
func IsGlobalMonitoringEnabled() bool {
	c := GetGlobalCollector()
	return c != nil && c.IsEnabled()
}

// GetGlobalSummary summarizes the process-wide collector. It is empty when
// none is installed.
func GetGlobalSummary() MetricsSummary {
	if c := GetGlobalCollector(); c != nil {
		return c.GetSummary()
	}
	return MetricsSummary{}
}
