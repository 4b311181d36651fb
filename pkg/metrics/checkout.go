package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout and reconciliation activity.
type CheckoutMetrics struct {
	preferenceDuration *prometheus.HistogramVec
	reconciliations    *prometheus.CounterVec
	duplicates         prometheus.Counter
	stockRejections    prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	preferenceDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_preference_duration_seconds",
		Help:    "Duration of payment preference creation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	reconciliations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_reconciliations_total",
		Help: "Payment reconciliations processed, labeled by callback result.",
	}, []string{"result"})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_duplicate_callbacks_total",
		Help: "Success callbacks skipped because the payment was already reconciled.",
	})
	stockRejections := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_stock_rejections_total",
		Help: "Checkout attempts rejected for insufficient stock.",
	})
	reg.MustRegister(preferenceDuration, reconciliations, duplicates, stockRejections)
	return &CheckoutMetrics{
		preferenceDuration: preferenceDuration,
		reconciliations:    reconciliations,
		duplicates:         duplicates,
		stockRejections:    stockRejections,
	}
}

// ObservePreferenceDuration records the duration of preference creation.
func (c *CheckoutMetrics) ObservePreferenceDuration(outcome string, duration time.Duration) {
	if c == nil || c.preferenceDuration == nil {
		return
	}
	c.preferenceDuration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncReconciliation increments the reconciliation counter for the result.
func (c *CheckoutMetrics) IncReconciliation(result string) {
	if c == nil || c.reconciliations == nil {
		return
	}
	c.reconciliations.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncDuplicateCallback increments the duplicate callback counter.
func (c *CheckoutMetrics) IncDuplicateCallback() {
	if c == nil || c.duplicates == nil {
		return
	}
	c.duplicates.Inc()
}

// IncStockRejection increments the insufficient stock counter.
func (c *CheckoutMetrics) IncStockRejection() {
	if c == nil || c.stockRejections == nil {
		return
	}
	c.stockRejections.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
