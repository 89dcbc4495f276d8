package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vsinha/bomalloc/pkg/infrastructure/events"
)

const namespace = "bomalloc"

// Recorder counts pipeline activity. It listens to the run event stream and keeps its
// own registry so a batch run can dump it to a node-exporter textfile.
type Recorder struct {
	registry      *prometheus.Registry
	runs          *prometheus.CounterVec
	lines         *prometheus.CounterVec
	quantity      *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	lastRun       prometheus.Gauge
}

// NewRecorder creates a recorder with all collectors registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Runs by final status.",
		}, []string{"status"}),
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_total",
			Help:      "Demand line events by outcome.",
		}, []string{"outcome"}),
		quantity: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quantity_total",
			Help:      "Component quantity by line outcome.",
		}, []string{"outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"stage"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed run.",
		}),
	}

	r.registry.MustRegister(r.runs, r.lines, r.quantity, r.stageDuration, r.lastRun)
	return r
}

var _ events.EventHandler = (*Recorder)(nil)

// Registry exposes the recorder's registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// EventTypes lists the events the recorder subscribes to
func (r *Recorder) EventTypes() []string {
	return append([]string{events.RunCompletedEvent, events.RunFailedEvent}, events.LineEventTypes...)
}

// CanHandle reports whether the recorder counts an event type
func (r *Recorder) CanHandle(eventType string) bool {
	for _, t := range r.EventTypes() {
		if t == eventType {
			return true
		}
	}
	return false
}

// Handle updates counters from one run event
func (r *Recorder) Handle(event events.Event) error {
	switch data := event.Data().(type) {
	case events.LineTraced:
		outcome := outcomeLabel(event.Type())
		r.lines.WithLabelValues(outcome).Inc()
		r.quantity.WithLabelValues(outcome).Add(data.Quantity.InexactFloat64())
	case events.RunCompleted:
		r.runs.WithLabelValues("completed").Inc()
		r.lastRun.Set(float64(event.Timestamp().Unix()))
	case events.RunFailed:
		r.runs.WithLabelValues("failed").Inc()
	default:
		return fmt.Errorf("unexpected payload %T for %s", data, event.Type())
	}
	return nil
}

// ObserveStage records the duration of one pipeline stage
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// WriteTextfile writes the registry in the text exposition format
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

func outcomeLabel(eventType string) string {
	const prefix = "line."
	if len(eventType) > len(prefix) && eventType[:len(prefix)] == prefix {
		return eventType[len(prefix):]
	}
	return eventType
}
