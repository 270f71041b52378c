package shadowpay

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordPayment(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.recordPayment(outcomeSettled)
	m.recordPayment(outcomeSettled)
	m.recordPayment(outcomeRejected)

	if got := testutil.ToFloat64(m.payments.WithLabelValues(outcomeSettled)); got != 2 {
		t.Errorf("settled count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.payments.WithLabelValues(outcomeRejected)); got != 1 {
		t.Errorf("rejected count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.payments.WithLabelValues(outcomeProverFailed)); got != 0 {
		t.Errorf("prover_failed count = %v, want 0", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.recordPayment(outcomeSettled)
	m.observeProof(time.Second)
	m.observeSettlement(time.Second)
}
