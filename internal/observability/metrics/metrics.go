package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "charges_"

	resultSuccess = "success"
	resultInvalid = "invalid"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	aggregateTotal   *prometheus.CounterVec
	aggregateLatency *prometheus.HistogramVec
	validationErrors *prometheus.CounterVec
	issuedTotal      *prometheus.CounterVec
	issuedAmount     *prometheus.CounterVec
	voidedTotal      prometheus.Counter
	exportTotal      *prometheus.CounterVec
	exportLatency    *prometheus.HistogramVec
)

// Init registers charge metrics on registerer, or the default registry when nil.
func Init(registerer prometheus.Registerer) {
	registerOnce.Do(func() {
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}
		aggregateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "aggregate_total",
				Help: "Total charge aggregations by kind and result",
			},
			[]string{"kind", "result"},
		)
		aggregateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "aggregate_latency_seconds",
				Help:    "Charge aggregation latency in seconds, unit lookup included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "result"},
		)
		validationErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "validation_errors_total",
				Help: "Total validation failures by request field",
			},
			[]string{"field"},
		)
		issuedTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "issued_total",
				Help: "Total issued announcements by kind",
			},
			[]string{"kind"},
		)
		issuedAmount = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "issued_amount_total",
				Help: "Sum of issued announcement totals by currency",
			},
			[]string{"currency"},
		)
		voidedTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "voided_total",
				Help: "Total voided announcements",
			},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total announcement exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Announcement export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		registerer.MustRegister(
			aggregateTotal,
			aggregateLatency,
			validationErrors,
			issuedTotal,
			issuedAmount,
			voidedTotal,
			exportTotal,
			exportLatency,
		)
	})
}

// ObserveAggregate records aggregation latency and result.
func ObserveAggregate(kind, result string, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if aggregateTotal != nil {
		aggregateTotal.WithLabelValues(kind, result).Inc()
	}
	if aggregateLatency != nil {
		aggregateLatency.WithLabelValues(kind, result).Observe(duration.Seconds())
	}
}

// IncValidationErrors counts one failure per field.
func IncValidationErrors(fields []string) {
	if validationErrors == nil {
		return
	}
	for _, field := range fields {
		validationErrors.WithLabelValues(field).Inc()
	}
}

// ObserveIssued records an issued announcement.
func ObserveIssued(kind, currency string, total float64) {
	if issuedTotal != nil {
		issuedTotal.WithLabelValues(kind).Inc()
	}
	if issuedAmount != nil && total > 0 {
		issuedAmount.WithLabelValues(currency).Add(total)
	}
}

// IncVoided counts a voided announcement.
func IncVoided() {
	if voidedTotal != nil {
		voidedTotal.Inc()
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultInvalid = resultInvalid
	ResultError   = resultError
)
