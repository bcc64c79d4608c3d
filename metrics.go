package cassp

import (
	"github.com/philiph/go-cas-sp/internal/adapters/driven/metrics"
	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// Re-export the metrics port and its adapters so hosts can wire recorders
// without importing internal packages.
type MetricsRecorder = ports.MetricsRecorder
type NoopMetricsRecorder = metrics.NoopMetricsRecorder
type PrometheusMetricsRecorder = metrics.PrometheusMetricsRecorder

var (
	NewNoopMetricsRecorder                 = metrics.NewNoopMetricsRecorder
	NewPrometheusMetricsRecorder           = metrics.NewPrometheusMetricsRecorder
	NewPrometheusMetricsRecorderWithRegistry = metrics.NewPrometheusMetricsRecorderWithRegistry
)
