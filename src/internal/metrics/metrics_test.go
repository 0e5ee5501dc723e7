package metrics_test

import (
	"errors"
	"testing"

	"github.com/api-sage/fcy-ledger/src/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLedgerOperationCountsOutcomes(t *testing.T) {
	m := metrics.New()

	m.LedgerOperation("deposit", nil)
	m.LedgerOperation("deposit", nil)
	m.LedgerOperation("deposit", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LedgerOperations.WithLabelValues("deposit", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerOperations.WithLabelValues("deposit", "error")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.LedgerOperation("withdraw", nil)
		m.CacheLookup("rate", true)
		m.SettlementTransition("completed")
		m.AMLAlert("large_transaction", "high")
		m.FXConversion("USD", "NGN")
	})
	assert.NotNil(t, m.Handler())
}
