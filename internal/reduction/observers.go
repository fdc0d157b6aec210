package reduction

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ─────────────────────────────────────────────────────────────────────────────
// Channel Observer
// ─────────────────────────────────────────────────────────────────────────────

// ChannelObserver forwards progress to a channel without ever blocking the
// reduction: updates are dropped when the channel is full.
type ChannelObserver struct {
	channel chan<- ProgressUpdate
}

// NewChannelObserver creates an observer writing to ch.
func NewChannelObserver(ch chan<- ProgressUpdate) *ChannelObserver {
	return &ChannelObserver{channel: ch}
}

// Update sends the update if the channel has room.
func (o *ChannelObserver) Update(reducerIndex int, progress float64) {
	if o.channel == nil {
		return
	}
	if progress > 1.0 {
		progress = 1.0
	}
	select {
	case o.channel <- ProgressUpdate{ReducerIndex: reducerIndex, Value: progress}:
	default:
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Logging Observer
// ─────────────────────────────────────────────────────────────────────────────

// LoggingObserver writes progress to a zerolog logger, at most once per
// threshold step for each reducer.
type LoggingObserver struct {
	logger    zerolog.Logger
	threshold float64
	lastLog   map[int]float64
	mu        sync.Mutex
}

// NewLoggingObserver creates a logging observer. A threshold <= 0 defaults
// to 0.25, one line per quarter of the layers.
func NewLoggingObserver(logger zerolog.Logger, threshold float64) *LoggingObserver {
	if threshold <= 0 {
		threshold = 0.25
	}
	return &LoggingObserver{
		logger:    logger,
		threshold: threshold,
		lastLog:   make(map[int]float64),
	}
}

// Update logs the progress if it moved by at least the threshold.
func (o *LoggingObserver) Update(reducerIndex int, progress float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	last, seen := o.lastLog[reducerIndex]
	if seen && progress < 1.0 && progress-last < o.threshold {
		return
	}
	o.logger.Debug().
		Int("reducer", reducerIndex).
		Float64("progress", progress).
		Str("percent", fmt.Sprintf("%.1f%%", progress*100)).
		Msg("reduction progress")
	o.lastLog[reducerIndex] = progress
}

// ─────────────────────────────────────────────────────────────────────────────
// Metrics Observer
// ─────────────────────────────────────────────────────────────────────────────

var progressGauge = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "fxtree_reduction_progress",
		Help: "Fraction of tree layers completed by each running reduction (0.0 to 1.0)",
	},
	[]string{"reducer_index"},
)

// MetricsObserver exports progress as a Prometheus gauge.
type MetricsObserver struct {
	gauge *prometheus.GaugeVec
}

// NewMetricsObserver creates an observer backed by the process-wide gauge.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{gauge: progressGauge}
}

// Update sets the gauge of the reducer.
func (o *MetricsObserver) Update(reducerIndex int, progress float64) {
	o.gauge.WithLabelValues(strconv.Itoa(reducerIndex)).Set(progress)
}

// ResetMetrics clears every gauge value.
func (o *MetricsObserver) ResetMetrics() {
	o.gauge.Reset()
}

// NoOpObserver ignores every update.
type NoOpObserver struct{}

// NewNoOpObserver creates a no-op observer.
func NewNoOpObserver() *NoOpObserver { return &NoOpObserver{} }

// Update does nothing.
func (o *NoOpObserver) Update(int, float64) {}
