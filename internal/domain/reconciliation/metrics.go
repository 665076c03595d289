package reconciliation

import "time"

// Metrics: счётчики приёмки. Реализация: internal/infra/metrics.
type Metrics interface {
	ReceiptPosted()
	OverReceipt()
	DuplicateReceipt()
	WriteFailed()
	ObserveReconcile(d time.Duration)
}

type NopMetrics struct{}

func (NopMetrics) ReceiptPosted()                 {}
func (NopMetrics) OverReceipt()                   {}
func (NopMetrics) DuplicateReceipt()              {}
func (NopMetrics) WriteFailed()                   {}
func (NopMetrics) ObserveReconcile(time.Duration) {}
