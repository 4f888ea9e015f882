package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// OperationMetrics captures per-operation outcomes of the contract state machine.
type OperationMetrics struct {
	operations    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	sequencerWait prometheus.Observer
}

var (
	operationMetricsOnce sync.Once
	operationMetrics     *OperationMetrics
)

// Operations returns the process-wide operation metrics registered on the default registry.
func Operations() *OperationMetrics {
	return OperationsWithConfig(Config{})
}

// OperationsWithConfig returns the singleton operation metrics using config labels.
func OperationsWithConfig(cfg Config) *OperationMetrics {
	operationMetricsOnce.Do(func() {
		operationMetrics = NewOperationMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return operationMetrics
}

func NewOperationMetrics(registerer prometheus.Registerer, cfg Config) *OperationMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "flightsurety"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "flightsurety_operations_total",
		Help:        "Contract operations by name, outcome and low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"operation", "outcome", "reason"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "flightsurety_operation_duration_seconds",
		Help:        "Contract operation latency including the sequencer wait.",
		Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		ConstLabels: constLabels,
	}, []string{"operation"})
	sequencerWait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "flightsurety_sequencer_wait_seconds",
		Help:        "Time spent waiting for the global sequencer.",
		Buckets:     []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		ConstLabels: constLabels,
	})

	registerer.MustRegister(operations, duration, sequencerWait)

	return &OperationMetrics{
		operations:    operations,
		duration:      duration,
		sequencerWait: sequencerWait,
	}
}

// Observe records the outcome of one operation.
func (m *OperationMetrics) Observe(operation, outcome, reason string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "none"
	}
	m.operations.WithLabelValues(operation, outcome, reason).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveSequencerWait records how long an operation waited for its turn.
func (m *OperationMetrics) ObserveSequencerWait(wait time.Duration) {
	if m == nil {
		return
	}
	if wait < 0 {
		wait = 0
	}
	m.sequencerWait.Observe(wait.Seconds())
}
