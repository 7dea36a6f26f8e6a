package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/Swind/go-parseq/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	requestorDurationSeconds *prom.HistogramVec
	requestorPanicTotal      *prom.CounterVec
	cancellationTotal        *prom.CounterVec
	cancelledRequestorsTotal *prom.CounterVec
	timeoutTotal             *prom.CounterVec
	inFlight                 *prom.GaugeVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
// Registering twice against the same registry reuses the existing collectors.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = core.Namespace
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "requestor_duration_seconds",
		Help:      "Time from requestor launch to its report, in seconds.",
		Buckets:   buckets,
	}, []string{"combinator", "outcome"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "requestor_panic_total",
		Help:      "Total number of requestors that panicked when invoked.",
	}, []string{"combinator"})
	cancelVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "cancellation_total",
		Help:      "Total number of runs cancelled with requestors still pending.",
	}, []string{"combinator"})
	cancelledVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "cancelled_requestors_total",
		Help:      "Total number of pending requestors cancelled.",
	}, []string{"combinator"})
	timeoutVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "timeout_total",
		Help:      "Total number of runs whose time limit elapsed.",
	}, []string{"combinator"})
	inFlightVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "requestors_in_flight",
		Help:      "Requestors in flight in the most recently updated run.",
	}, []string{"combinator"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if cancelVec, err = registerCollector(reg, cancelVec); err != nil {
		return nil, err
	}
	if cancelledVec, err = registerCollector(reg, cancelledVec); err != nil {
		return nil, err
	}
	if timeoutVec, err = registerCollector(reg, timeoutVec); err != nil {
		return nil, err
	}
	if inFlightVec, err = registerCollector(reg, inFlightVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		requestorDurationSeconds: durationVec,
		requestorPanicTotal:      panicVec,
		cancellationTotal:        cancelVec,
		cancelledRequestorsTotal: cancelledVec,
		timeoutTotal:             timeoutVec,
		inFlight:                 inFlightVec,
	}, nil
}

// RecordRequestorDuration records how long a requestor took to report.
func (m *MetricsExporter) RecordRequestorDuration(name string, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestorDurationSeconds.WithLabelValues(normalizeLabel(name, "unknown"), outcomeLabel(outcome)).Observe(duration.Seconds())
}

// RecordRequestorPanic records requestor panic events.
func (m *MetricsExporter) RecordRequestorPanic(name string, panicInfo any) {
	if m == nil {
		return
	}
	m.requestorPanicTotal.WithLabelValues(normalizeLabel(name, "unknown")).Inc()
}

// RecordCancellation records a cancelled run and its pending requestors.
func (m *MetricsExporter) RecordCancellation(name string, pending int) {
	if m == nil {
		return
	}
	label := normalizeLabel(name, "unknown")
	m.cancellationTotal.WithLabelValues(label).Inc()
	m.cancelledRequestorsTotal.WithLabelValues(label).Add(float64(pending))
}

// RecordTimeout records a run whose time limit elapsed.
func (m *MetricsExporter) RecordTimeout(name string) {
	if m == nil {
		return
	}
	m.timeoutTotal.WithLabelValues(normalizeLabel(name, "unknown")).Inc()
}

// RecordInFlight records the requestors currently in flight.
func (m *MetricsExporter) RecordInFlight(name string, inFlight int) {
	if m == nil {
		return
	}
	m.inFlight.WithLabelValues(normalizeLabel(name, "unknown")).Set(float64(inFlight))
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func outcomeLabel(outcome string) string {
	switch outcome {
	case core.OutcomeSuccess, core.OutcomeFailure, core.OutcomePanic:
		return outcome
	default:
		return "unknown"
	}
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
