package reconciliation_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Spok95/po-tracker/internal/domain/purchaseorders"
	"github.com/Spok95/po-tracker/internal/domain/reconciliation"
	"github.com/Spok95/po-tracker/internal/domain/reconciliation/memstore"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mline(code, qty string) purchaseorders.Material {
	return purchaseorders.Material{MaterialCode: code, MaterialName: code, Quantity: d(qty), Unit: "pcs"}
}

type countingMetrics struct {
	posted, over, dup, failed, observed atomic.Int64
}

func (m *countingMetrics) ReceiptPosted()                 { m.posted.Add(1) }
func (m *countingMetrics) OverReceipt()                   { m.over.Add(1) }
func (m *countingMetrics) DuplicateReceipt()              { m.dup.Add(1) }
func (m *countingMetrics) WriteFailed()                   { m.failed.Add(1) }
func (m *countingMetrics) ObserveReconcile(time.Duration) { m.observed.Add(1) }

func newService(st *memstore.Store) (*reconciliation.Service, *countingMetrics) {
	m := &countingMetrics{}
	return reconciliation.NewService(st, nil, m), m
}

func post(t *testing.T, svc *reconciliation.Service, poID int64, code, qty string) *reconciliation.PostResult {
	t.Helper()
	res, err := svc.PostReceipt(context.Background(), reconciliation.ReceiptInput{
		PurchaseOrderID: poID,
		WarehouseID:     1,
		MaterialCode:    code,
		Quantity:        d(qty),
		ReceivedBy:      7,
	})
	require.NoError(t, err)
	return res
}

func TestResolveOperationBorrowsOriginalLines(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	g := st.AddOriginal("G1", 1, mline("M-001", "100"), mline("M-002", "3"))
	o1 := st.AddOperation(g)
	o2 := st.AddOperation(g)
	svc, _ := newService(st)

	fromG, err := svc.ResolveMaterialLines(ctx, g)
	require.NoError(t, err)
	require.Len(t, fromG, 2)

	for _, id := range []int64{o1, o2} {
		lines, err := svc.ResolveMaterialLines(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, fromG, lines)
	}

	res, err := svc.Resolve(ctx, o2)
	require.NoError(t, err)
	assert.Equal(t, g, res.Original.ID)
	assert.Equal(t, o2, res.Requested.ID)
	assert.Equal(t, 2, res.Requested.VersionNumber)
}

func TestResolveErrors(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	g := st.AddOriginal("G1", 1, mline("M-001", "1"))
	op := st.AddOperation(g)

	// «оригинал» с родителем
	parent := g
	st.Put(purchaseorders.PurchaseOrder{ID: 100, PONumber: "BAD", OriginalPOID: &parent, VersionNumber: 9, Active: true})
	badRef := int64(100)
	st.Put(purchaseorders.PurchaseOrder{ID: 101, PONumber: "BAD-OP", OriginalPOID: &badRef, VersionNumber: 1, Active: true})

	// рабочий PO на отключённый оригинал
	g2 := st.AddOriginal("G2", 1, mline("M-9", "1"))
	op2 := st.AddOperation(g2)
	st.Deactivate(g2)

	svc, _ := newService(st)

	tests := []struct {
		name string
		id   int64
		want error
	}{
		{"missing", 999, reconciliation.ErrNotFound},
		{"inconsistent lineage", 101, reconciliation.ErrInconsistentLineage},
		{"deactivated original", op2, reconciliation.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := svc.ResolveMaterialLines(ctx, tt.id)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, lines)

			_, err = svc.ComputeOutstanding(ctx, tt.id)
			require.ErrorIs(t, err, tt.want)
			_, err = svc.ReceiptHistory(ctx, tt.id)
			require.ErrorIs(t, err, tt.want)
		})
	}

	st.Deactivate(op)
	_, err := svc.ResolveMaterialLines(ctx, op)
	require.ErrorIs(t, err, reconciliation.ErrNotFound)
}

func TestReceivingScenarioG1(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	g := st.AddOriginal("G1", 1, mline("M-001", "100"))
	op := st.AddOperation(g)
	svc, m := newService(st)
	origUpdated := st.PO(g).UpdatedAt

	post(t, svc, op, "M-001", "40")
	r := post(t, svc, op, "M-001", "45")
	assert.False(t, r.OverReceived)
	assert.False(t, r.FullyReceived)

	lines, err := svc.ComputeOutstanding(ctx, op)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, d("100").Equal(lines[0].Planned))
	assert.True(t, d("85").Equal(lines[0].Received))
	assert.True(t, d("15").Equal(lines[0].Outstanding))
	assert.False(t, lines[0].OverReceived)
	assert.False(t, st.PO(op).IsMaterialFullyReceived)

	r = post(t, svc, op, "M-001", "20")
	assert.True(t, r.OverReceived)
	assert.True(t, r.FullyReceived)
	assert.True(t, d("-5").Equal(r.Material.Outstanding))

	lines, err = svc.ComputeOutstanding(ctx, g)
	require.NoError(t, err)
	assert.True(t, d("105").Equal(lines[0].Received))
	assert.True(t, d("-5").Equal(lines[0].Outstanding))
	assert.True(t, lines[0].OverReceived)
	assert.True(t, decimal.Zero.Equal(lines[0].DisplayOutstanding()))

	// флаг выставлен на рабочие версии, оригинал не тронут
	assert.False(t, st.PO(g).IsMaterialFullyReceived)
	assert.Equal(t, st.PO(g).UpdatedAt, origUpdated)
	assert.True(t, st.PO(op).IsMaterialFullyReceived)

	assert.EqualValues(t, 3, m.posted.Load())
	assert.EqualValues(t, 1, m.over.Load())
	assert.True(t, d("105").Equal(st.Stock(1, "M-001")))

	hist, err := svc.ReceiptHistory(ctx, op)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.True(t, d("40").Equal(hist[0].ReceivedToDate))
	assert.True(t, d("85").Equal(hist[1].ReceivedToDate))
	assert.True(t, d("105").Equal(hist[2].ReceivedToDate))
}

func TestReceiptsAcrossOperationsShareLineage(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	g := st.AddOriginal("G1", 1, mline("M-1", "10"))
	o1 := st.AddOperation(g)
	o2 := st.AddOperation(g)
	svc, _ := newService(st)

	post(t, svc, o1, "M-1", "4")
	post(t, svc, o2, "M-1", "6")

	for _, id := range []int64{g, o1, o2} {
		rec, err := svc.Reconcile(ctx, id)
		require.NoError(t, err)
		assert.True(t, rec.FullyReceived)
		assert.True(t, d("10").Equal(rec.Lines[0].Received))
	}
}

func TestFullyReceivedIgnoresStaleHint(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	g := st.AddOriginal("G1", 1, mline("M-1", "10"))
	op := st.AddOperation(g)
	st.SetFlag(op, true)
	svc, _ := newService(st)

	rec, err := svc.Reconcile(ctx, op)
	require.NoError(t, err)
	assert.True(t, rec.CachedHint)
	assert.False(t, rec.FullyReceived)
	assert.Equal(t, reconciliation.CachedFullyReceivedHint(st.PO(op)), rec.CachedHint)

	again, err := svc.Reconcile(ctx, op)
	require.NoError(t, err)
	assert.Equal(t, rec.FullyReceived, again.FullyReceived)
}

func TestPostReceiptRejects(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	g := st.AddOriginal("G1", 1, mline("M-1", "10"))
	op := st.AddOperation(g)
	svc, _ := newService(st)

	tests := []struct {
		name string
		in   reconciliation.ReceiptInput
		want error
	}{
		{"original", reconciliation.ReceiptInput{PurchaseOrderID: g, WarehouseID: 1, MaterialCode: "M-1", Quantity: d("1")}, reconciliation.ErrOriginalImmutable},
		{"unknown material", reconciliation.ReceiptInput{PurchaseOrderID: op, WarehouseID: 1, MaterialCode: "X", Quantity: d("1")}, reconciliation.ErrUnknownMaterial},
		{"zero qty", reconciliation.ReceiptInput{PurchaseOrderID: op, WarehouseID: 1, MaterialCode: "M-1", Quantity: d("0")}, reconciliation.ErrInvalidInput},
		{"negative qty", reconciliation.ReceiptInput{PurchaseOrderID: op, WarehouseID: 1, MaterialCode: "M-1", Quantity: d("-1")}, reconciliation.ErrInvalidInput},
		{"no warehouse", reconciliation.ReceiptInput{PurchaseOrderID: op, MaterialCode: "M-1", Quantity: d("1")}, reconciliation.ErrInvalidInput},
		{"missing po", reconciliation.ReceiptInput{PurchaseOrderID: 404, WarehouseID: 1, MaterialCode: "M-1", Quantity: d("1")}, reconciliation.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PostReceipt(ctx, tt.in)
			require.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, st.Receipts())
}

func TestPostReceiptIdempotent(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	g := st.AddOriginal("G1", 1, mline("M-1", "10"))
	op := st.AddOperation(g)
	svc, m := newService(st)

	in := reconciliation.ReceiptInput{
		PurchaseOrderID: op, WarehouseID: 1, MaterialCode: "M-1",
		Quantity: d("3"), RequestID: uuid.New(),
	}
	first, err := svc.PostReceipt(ctx, in)
	require.NoError(t, err)
	second, err := svc.PostReceipt(ctx, in)
	require.NoError(t, err)

	assert.False(t, first.Duplicate)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Receipt.ID, second.Receipt.ID)
	assert.Len(t, st.Receipts(), 1)
	assert.True(t, d("7").Equal(second.Material.Outstanding))
	assert.EqualValues(t, 1, m.dup.Load())
	assert.True(t, d("3").Equal(st.Stock(1, "M-1")))
}

func TestPostReceiptRollsBack(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	g := st.AddOriginal("G1", 1, mline("M-1", "10"))
	op := st.AddOperation(g)
	svc, m := newService(st)

	st.FailFlag = errors.New("connection reset")
	_, err := svc.PostReceipt(ctx, reconciliation.ReceiptInput{
		PurchaseOrderID: op, WarehouseID: 1, MaterialCode: "M-1", Quantity: d("10"),
	})
	require.ErrorIs(t, err, reconciliation.ErrWriteFailed)
	assert.EqualValues(t, 1, m.failed.Load())

	// ни поступления, ни прихода на склад, ни флага
	assert.Empty(t, st.Receipts())
	assert.True(t, st.Stock(1, "M-1").IsZero())
	assert.False(t, st.PO(op).IsMaterialFullyReceived)

	st.FailFlag = nil
	r := post(t, svc, op, "M-1", "10")
	assert.True(t, r.FullyReceived)
	assert.True(t, st.PO(op).IsMaterialFullyReceived)
	assert.False(t, st.PO(g).IsMaterialFullyReceived)
}

func TestSearchSelectable(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	st.AddCustomer(1, "ООО Ромашка")
	st.AddCustomer(2, "Acme Corp")

	g1 := st.AddOriginal("PO-100", 1, mline("M-1", "10"))
	o1 := st.AddOperation(g1)
	o1b := st.AddOperation(g1)

	g2 := st.AddOriginal("PO-200", 2, mline("M-2", "5"))
	o2 := st.AddOperation(g2)

	g3 := st.AddOriginal("PO-300", 2, mline("M-3", "1"))
	o3 := st.AddOperation(g3)

	svc, m := newService(st)

	// полностью принят, но флаг устарел: отсекается пересчётом
	st.AddReceipt(o3, "M-3", d("1"))

	got, err := svc.SearchSelectable(ctx, purchaseorders.SearchFilter{})
	require.NoError(t, err)
	ids := make([]int64, 0, len(got))
	for _, s := range got {
		ids = append(ids, s.ID)
		assert.NotEqual(t, g1, s.ID)
		assert.NotEqual(t, g2, s.ID)
		assert.False(t, s.FullyReceived)
	}
	assert.Equal(t, []int64{o2, o1b, o1}, ids)
	// o1 и o1b делят оригинал: сверка на каждый оригинал один раз
	assert.EqualValues(t, 2+1, m.observed.Load())

	got, err = svc.SearchSelectable(ctx, purchaseorders.SearchFilter{Term: "ромаш"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ООО Ромашка", got[0].CustomerName)
	assert.Equal(t, 1, got[0].LinesOutstanding)

	got, err = svc.SearchSelectable(ctx, purchaseorders.SearchFilter{Term: "po-2", CustomerID: 2})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, o2, got[0].ID)

	// пробелы вокруг термина не мешают поиску
	got, err = svc.SearchSelectable(ctx, purchaseorders.SearchFilter{Term: "  PO-200 "})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, o2, got[0].ID)

	got, err = svc.SearchSelectable(ctx, purchaseorders.SearchFilter{CustomerID: 1, Term: "PO-200"})
	require.NoError(t, err)
	assert.Empty(t, got)

	// после полной приёмки PO пропадает из выбора, флаг выставлен
	post(t, svc, o2, "M-2", "5")
	got, err = svc.SearchSelectable(ctx, purchaseorders.SearchFilter{CustomerID: 2})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.True(t, st.PO(o2).IsMaterialFullyReceived)
}

func TestPostReceiptConcurrent(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	g := st.AddOriginal("G1", 1, mline("M-001", "50"))
	op := st.AddOperation(g)
	svc, m := newService(st)

	const workers = 50
	shared := uuid.New()

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := reconciliation.ReceiptInput{
				PurchaseOrderID: op,
				WarehouseID:     1,
				MaterialCode:    "M-001",
				Quantity:        d("2"),
				ReceivedBy:      7,
			}
			if i%2 == 0 {
				in.RequestID = shared
			}
			_, err := svc.PostReceipt(ctx, in)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// 25 уникальных + одно по общему request_id
	assert.Len(t, st.Receipts(), workers/2+1)
	assert.EqualValues(t, workers/2+1, m.posted.Load())
	assert.EqualValues(t, workers/2-1, m.dup.Load())
	assert.True(t, d("52").Equal(st.Stock(1, "M-001")))

	rec, err := svc.Reconcile(ctx, op)
	require.NoError(t, err)
	assert.True(t, d("52").Equal(rec.Lines[0].Received))
	assert.True(t, d("-2").Equal(rec.Lines[0].Outstanding))
	assert.True(t, rec.FullyReceived)
	assert.True(t, st.PO(op).IsMaterialFullyReceived)
	assert.False(t, st.PO(g).IsMaterialFullyReceived)
}
