package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceivingCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ReceiptPosted()
	m.ReceiptPosted()
	m.OverReceipt()
	m.WriteFailed()
	m.ObserveReconcile(3 * time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.posted), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.over), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.duplicate), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.failed), 0)

	n, err := testutil.GatherAndCount(reg, "po_tracker_reconcile_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
