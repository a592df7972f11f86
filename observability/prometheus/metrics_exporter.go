package prometheus

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Swind/go-frame-scheduler/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	// DurationBuckets defaults to FrameBuckets.
	DurationBuckets []float64
}

// FrameBuckets spans 10µs to ~33ms, which covers one frame at 30 to 240 FPS.
var FrameBuckets = prom.ExponentialBuckets(0.00001, 2, 12)

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	functionDurationSeconds *prom.HistogramVec
	functionPanicTotal      *prom.CounterVec
	passDurationSeconds     *prom.HistogramVec
	reclaimedTotal          *prom.CounterVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "framescheduler"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = FrameBuckets
	}

	functionVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "function_duration_seconds",
		Help:      "Function invocation duration in seconds.",
		Buckets:   buckets,
	}, []string{"manager", "division", "priority"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "function_panic_total",
		Help:      "Total number of recovered function panics.",
	}, []string{"manager", "division"})
	passVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "pass_duration_seconds",
		Help:      "CallFunction pass duration in seconds, arrangement included.",
		Buckets:   buckets,
	}, []string{"manager", "division"})
	reclaimedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "reclaimed_slots_total",
		Help:      "Soft deleted slots erased by arrangement passes.",
	}, []string{"manager", "slot"})

	var err error
	if functionVec, err = registerCollector(reg, functionVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if passVec, err = registerCollector(reg, passVec); err != nil {
		return nil, err
	}
	if reclaimedVec, err = registerCollector(reg, reclaimedVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		functionDurationSeconds: functionVec,
		functionPanicTotal:      panicVec,
		passDurationSeconds:     passVec,
		reclaimedTotal:          reclaimedVec,
	}, nil
}

// RecordFunctionDuration records one function invocation.
func (m *MetricsExporter) RecordFunctionDuration(managerName string, division core.Division, priority int, duration time.Duration) {
	if m == nil {
		return
	}
	m.functionDurationSeconds.WithLabelValues(
		normalizeLabel(managerName, "unknown"),
		division.String(),
		strconv.Itoa(priority),
	).Observe(duration.Seconds())
}

// RecordFunctionPanic records recovered panics.
func (m *MetricsExporter) RecordFunctionPanic(managerName string, division core.Division, panicInfo any) {
	if m == nil {
		return
	}
	m.functionPanicTotal.WithLabelValues(normalizeLabel(managerName, "unknown"), division.String()).Inc()
}

// RecordPassDuration records a full CallFunction pass.
func (m *MetricsExporter) RecordPassDuration(managerName string, division core.Division, duration time.Duration) {
	if m == nil {
		return
	}
	m.passDurationSeconds.WithLabelValues(normalizeLabel(managerName, "unknown"), division.String()).Observe(duration.Seconds())
}

// RecordReclaimed records task and function slots erased by an arrangement pass.
func (m *MetricsExporter) RecordReclaimed(managerName string, tasks int, functions int) {
	if m == nil {
		return
	}
	name := normalizeLabel(managerName, "unknown")
	m.reclaimedTotal.WithLabelValues(name, "task").Add(float64(tasks))
	m.reclaimedTotal.WithLabelValues(name, "function").Add(float64(functions))
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
