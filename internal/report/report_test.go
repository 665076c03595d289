package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/Spok95/po-tracker/internal/domain/purchaseorders"
	"github.com/Spok95/po-tracker/internal/domain/reconciliation"
	"github.com/Spok95/po-tracker/internal/domain/receipts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteReconciliation(t *testing.T) {
	d := decimal.RequireFromString
	rec := &reconciliation.Reconciliation{
		PurchaseOrder: purchaseorders.PurchaseOrder{PONumber: "G1", VersionNumber: 2},
		Lines: []reconciliation.LineStatus{
			{LineNo: 1, MaterialCode: "M-001", Planned: d("100"), Received: d("105"), Outstanding: d("-5"), OverReceived: true},
			{LineNo: 2, MaterialCode: "M-002", Planned: d("2.5"), Received: d("1"), Outstanding: d("1.5")},
		},
		Unplanned: []reconciliation.LineStatus{
			{MaterialCode: "X", Received: d("1"), Outstanding: d("-1"), OverReceived: true},
		},
	}
	hist := []reconciliation.ReceiptEvent{
		{
			Receipt:        receipts.Receipt{MaterialCode: "M-001", Quantity: d("40"), ReceivedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
			Planned:        d("100"),
			ReceivedToDate: d("40"),
			Outstanding:    d("60"),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReconciliation(&buf, rec, hist))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SheetLines, SheetHistory}, f.GetSheetList())

	rows, err := f.GetRows(SheetLines)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, "PO G1, версия 2", rows[0][0])
	assert.Equal(t, "M-001", rows[3][1])
	assert.Equal(t, "-5", rows[3][8])
	assert.Equal(t, "да", rows[3][9])
	assert.Equal(t, "1.5", rows[4][8])
	assert.Equal(t, "вне плана", rows[5][0])

	hrows, err := f.GetRows(SheetHistory)
	require.NoError(t, err)
	require.Len(t, hrows, 2)
	assert.Equal(t, "2025-03-01 10:00", hrows[1][0])
	assert.Equal(t, "60", hrows[1][5])
}
