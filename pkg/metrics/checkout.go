package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const (
	OutcomeCommitted = "committed"
	OutcomeFailed    = "failed"
	OutcomeBusy      = "busy"
)

// CheckoutMetrics records PDV checkout submissions.
type CheckoutMetrics struct {
	duration    *prometheus.HistogramVec
	submissions *prometheus.CounterVec
	revenue     *prometheus.CounterVec
	printFails  prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer returns a recorder that drops every observation.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pdv_checkout_duration_seconds",
		Help:    "Duration of checkout submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pdv_checkout_submissions_total",
		Help: "Checkout submissions by outcome.",
	}, []string{"outcome"})
	revenue := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pdv_sales_amount_brl_total",
		Help: "Committed sale totals in BRL by payment method.",
	}, []string{"payment_method"})
	printFails := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pdv_receipt_print_failures_total",
		Help: "Receipts that could not be sent to the printer.",
	})
	reg.MustRegister(duration, submissions, revenue, printFails)
	return &CheckoutMetrics{
		duration:    duration,
		submissions: submissions,
		revenue:     revenue,
		printFails:  printFails,
	}
}

// ObserveSubmission records one submission attempt.
func (c *CheckoutMetrics) ObserveSubmission(outcome string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	c.duration.WithLabelValues(outcome).Observe(duration.Seconds())
	c.submissions.WithLabelValues(outcome).Inc()
}

// AddRevenue adds a committed sale total.
func (c *CheckoutMetrics) AddRevenue(paymentMethod string, total decimal.Decimal) {
	if c == nil || c.revenue == nil {
		return
	}
	value, _ := total.Float64()
	c.revenue.WithLabelValues(normalizeLabel(paymentMethod)).Add(value)
}

// IncPrintFailure counts a receipt that failed to print.
func (c *CheckoutMetrics) IncPrintFailure() {
	if c == nil || c.printFails == nil {
		return
	}
	c.printFails.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
