package reconciliation

import (
	"testing"

	"github.com/Spok95/po-tracker/internal/domain/purchaseorders"
	"github.com/Spok95/po-tracker/internal/domain/receipts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(no int, code, qty string) purchaseorders.Material {
	return purchaseorders.Material{LineNo: no, MaterialCode: code, Quantity: d(qty)}
}

func rc(code, qty string) receipts.Receipt {
	return receipts.Receipt{MaterialCode: code, Quantity: d(qty)}
}

func TestAllocateSharedCode(t *testing.T) {
	planned := []purchaseorders.Material{
		line(1, "M-1", "10"),
		line(2, "M-2", "5"),
		line(3, "M-1", "20"),
	}

	tests := []struct {
		name     string
		rcs      []receipts.Receipt
		received []string
		out      []string
		over     []bool
	}{
		{"nothing", nil, []string{"0", "0", "0"}, []string{"10", "5", "20"}, []bool{false, false, false}},
		{"first line partially", []receipts.Receipt{rc("M-1", "4")}, []string{"4", "0", "0"}, []string{"6", "5", "20"}, []bool{false, false, false}},
		{"spills to second line", []receipts.Receipt{rc("M-1", "7"), rc("M-1", "8")}, []string{"10", "0", "5"}, []string{"0", "5", "15"}, []bool{false, false, false}},
		{"excess on last line", []receipts.Receipt{rc("M-1", "35"), rc("M-2", "5.5")}, []string{"10", "5.5", "25"}, []string{"0", "-0.5", "-5"}, []bool{false, true, true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, unplanned := allocate(planned, tt.rcs)
			require.Len(t, lines, 3)
			assert.Empty(t, unplanned)
			for i, l := range lines {
				assert.True(t, d(tt.received[i]).Equal(l.Received), "line %d received %s", l.LineNo, l.Received)
				assert.True(t, d(tt.out[i]).Equal(l.Outstanding), "line %d outstanding %s", l.LineNo, l.Outstanding)
				assert.Equal(t, tt.over[i], l.OverReceived, "line %d", l.LineNo)
				assert.True(t, l.Received.Add(l.Outstanding).Equal(l.Planned))
			}
		})
	}
}

func TestAllocateUnplanned(t *testing.T) {
	lines, unplanned := allocate(
		[]purchaseorders.Material{line(1, "M-1", "10")},
		[]receipts.Receipt{rc("X-9", "2"), rc("M-1", "10"), rc("X-9", "1.25")},
	)
	require.Len(t, unplanned, 1)
	assert.Equal(t, "X-9", unplanned[0].MaterialCode)
	assert.True(t, d("3.25").Equal(unplanned[0].Received))
	assert.True(t, d("-3.25").Equal(unplanned[0].Outstanding))
	assert.True(t, unplanned[0].OverReceived)

	assert.True(t, FullyReceived(lines))
}

func TestHistoryRunningTotals(t *testing.T) {
	ev := history(
		[]purchaseorders.Material{line(1, "M-001", "60"), line(2, "M-001", "40")},
		[]receipts.Receipt{rc("M-001", "40"), rc("Z", "1"), rc("M-001", "45"), rc("M-001", "20")},
	)
	require.Len(t, ev, 4)

	assert.True(t, d("40").Equal(ev[0].ReceivedToDate))
	assert.True(t, d("60").Equal(ev[0].Outstanding))
	assert.True(t, ev[1].Unplanned)
	assert.True(t, d("-1").Equal(ev[1].Outstanding))
	assert.True(t, d("85").Equal(ev[2].ReceivedToDate))
	assert.True(t, d("15").Equal(ev[2].Outstanding))
	assert.True(t, d("105").Equal(ev[3].ReceivedToDate))
	assert.True(t, d("-5").Equal(ev[3].Outstanding))
	assert.True(t, d("100").Equal(ev[3].Planned))
}

func TestFullyReceivedAndDisplay(t *testing.T) {
	assert.True(t, FullyReceived(nil))

	open := LineStatus{Outstanding: d("0.001")}
	done := LineStatus{Outstanding: d("0")}
	over := LineStatus{Outstanding: d("-2"), OverReceived: true}

	assert.False(t, FullyReceived([]LineStatus{done, open}))
	assert.True(t, FullyReceived([]LineStatus{done, over}))
	assert.True(t, decimal.Zero.Equal(over.DisplayOutstanding()))
	assert.True(t, d("0.001").Equal(open.DisplayOutstanding()))
}

func TestMaterialStatusAggregatesCode(t *testing.T) {
	lines, unplanned := allocate(
		[]purchaseorders.Material{line(1, "M-1", "10"), line(2, "M-1", "5")},
		[]receipts.Receipt{rc("M-1", "18"), rc("Q", "1")},
	)
	st := materialStatus(lines, unplanned, "M-1")
	assert.True(t, d("15").Equal(st.Planned))
	assert.True(t, d("18").Equal(st.Received))
	assert.True(t, d("-3").Equal(st.Outstanding))
	assert.True(t, st.OverReceived)

	q := materialStatus(lines, unplanned, "Q")
	assert.True(t, q.OverReceived)
}
