package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Receiving: метрики приёмки материалов.
type Receiving struct {
	posted    prometheus.Counter
	over      prometheus.Counter
	duplicate prometheus.Counter
	failed    prometheus.Counter
	reconcile prometheus.Histogram
}

func New(reg prometheus.Registerer) *Receiving {
	f := promauto.With(reg)
	return &Receiving{
		posted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "po_tracker",
			Name:      "receipts_posted_total",
			Help:      "Material receipts recorded against purchase orders.",
		}),
		over: f.NewCounter(prometheus.CounterOpts{
			Namespace: "po_tracker",
			Name:      "over_receipts_total",
			Help:      "Receipts that pushed a material above its planned quantity.",
		}),
		duplicate: f.NewCounter(prometheus.CounterOpts{
			Namespace: "po_tracker",
			Name:      "duplicate_receipts_total",
			Help:      "Retried receipts answered from the stored request id.",
		}),
		failed: f.NewCounter(prometheus.CounterOpts{
			Namespace: "po_tracker",
			Name:      "receipt_write_failures_total",
			Help:      "Receipt transactions rolled back on a storage fault.",
		}),
		reconcile: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "po_tracker",
			Name:      "reconcile_duration_seconds",
			Help:      "Time to resolve and reconcile one purchase order.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}
}

func (m *Receiving) ReceiptPosted()    { m.posted.Inc() }
func (m *Receiving) OverReceipt()      { m.over.Inc() }
func (m *Receiving) DuplicateReceipt() { m.duplicate.Inc() }
func (m *Receiving) WriteFailed()      { m.failed.Inc() }

func (m *Receiving) ObserveReconcile(d time.Duration) {
	m.reconcile.Observe(d.Seconds())
}
