package shadowpay

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Payment outcomes recorded by Metrics.
const (
	outcomeSettled          = "settled"
	outcomeRejected         = "rejected"
	outcomeUnauthorized     = "unauthorized"
	outcomeProverFailed     = "prover_failed"
	outcomeSettlementFailed = "settlement_failed"
)

// Metrics instruments a payment bot. Optional: a nil *Metrics disables
// recording.
type Metrics struct {
	payments       *prometheus.CounterVec
	proofDuration  prometheus.Histogram
	settleDuration prometheus.Histogram
}

// NewMetrics creates and registers the bot's collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		payments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shadowpay_payments_total",
				Help: "Payments attempted by the bot, by outcome.",
			},
			[]string{"outcome"},
		),
		proofDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "shadowpay_proof_duration_seconds",
			Help: "Time spent generating spending proofs.",
			// Proofs routinely take tens of seconds.
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		settleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shadowpay_settlement_duration_seconds",
			Help:    "Time spent settling payments at the settler.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.payments, m.proofDuration, m.settleDuration)
	return m
}

func (m *Metrics) recordPayment(outcome string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeProof(d time.Duration) {
	if m == nil {
		return
	}
	m.proofDuration.Observe(d.Seconds())
}

func (m *Metrics) observeSettlement(d time.Duration) {
	if m == nil {
		return
	}
	m.settleDuration.Observe(d.Seconds())
}
