package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records webhook and settlement activity.
type PaymentMetrics struct {
	webhookEvents      *prometheus.CounterVec
	settlementDuration *prometheus.HistogramVec
	earningsCreated    prometheus.Counter
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Payment provider webhook notifications by outcome.",
	}, []string{"outcome"})
	settlementDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_settlement_duration_seconds",
		Help:    "Duration of order payment settlement in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	earningsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "earnings_created_total",
		Help: "Earning rows created by settlement.",
	})
	reg.MustRegister(webhookEvents, settlementDuration, earningsCreated)
	return &PaymentMetrics{
		webhookEvents:      webhookEvents,
		settlementDuration: settlementDuration,
		earningsCreated:    earningsCreated,
	}
}

// IncWebhookEvent counts a webhook notification with the given outcome.
func (m *PaymentMetrics) IncWebhookEvent(outcome string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveSettlement records how long a mark-as-paid transition took.
func (m *PaymentMetrics) ObserveSettlement(method string, duration time.Duration) {
	if m == nil || m.settlementDuration == nil {
		return
	}
	m.settlementDuration.WithLabelValues(normalizeLabel(method)).Observe(duration.Seconds())
}

// AddEarnings counts earning rows persisted during settlement.
func (m *PaymentMetrics) AddEarnings(n int) {
	if m == nil || m.earningsCreated == nil || n <= 0 {
		return
	}
	m.earningsCreated.Add(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
