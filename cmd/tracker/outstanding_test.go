package main

import (
	"bytes"
	"testing"

	"github.com/Spok95/po-tracker/internal/domain/purchaseorders"
	"github.com/Spok95/po-tracker/internal/domain/reconciliation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintReconciliation(t *testing.T) {
	d := decimal.RequireFromString
	rec := &reconciliation.Reconciliation{
		PurchaseOrder: purchaseorders.PurchaseOrder{PONumber: "G1", VersionNumber: 1},
		Original:      purchaseorders.PurchaseOrder{ID: 1},
		Lines: []reconciliation.LineStatus{
			{LineNo: 1, MaterialCode: "M-001", Planned: d("100"), Received: d("85"), Outstanding: d("15")},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, printReconciliation(&buf, rec))
	out := buf.String()
	assert.Contains(t, out, "PO G1 v1 (original 1), fully received: false")
	assert.Contains(t, out, "M-001")
	assert.Contains(t, out, "15")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "import", "outstanding", "customer", "warehouse", "product", "user"} {
		assert.True(t, names[want], want)
	}
}
