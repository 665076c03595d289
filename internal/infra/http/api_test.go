package http

import (
	"encoding/json"
	"mime"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/Spok95/po-tracker/internal/domain/purchaseorders"
	"github.com/Spok95/po-tracker/internal/domain/reconciliation"
	"github.com/Spok95/po-tracker/internal/domain/reconciliation/memstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fixture struct {
	st       *memstore.Store
	h        http.Handler
	original int64
	op       int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st := memstore.New()
	st.AddCustomer(1, "Acme")
	g := st.AddOriginal("G1", 1, purchaseorders.Material{MaterialCode: "M-001", Quantity: decimal.NewFromInt(100), Unit: "m"})
	op := st.AddOperation(g)
	svc := reconciliation.NewService(st, nil, nil)
	srv := New(":0", nil, NewAPI(svc, nil))
	return fixture{st: st, h: srv.Handler(), original: g, op: op}
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func path(id int64, suffix string) string {
	return "/api/po/" + strconv.FormatInt(id, 10) + suffix
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestPostAndReadBack(t *testing.T) {
	f := newFixture(t)

	for _, q := range []string{"40", "45"} {
		rec := f.do(t, http.MethodPost, path(f.op, "/receipts"), `{"warehouse_id":1,"material_code":"M-001","quantity":"`+q+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := f.do(t, http.MethodGet, path(f.op, "/outstanding"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out outstandingDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Lines, 1)
	assert.Equal(t, f.original, out.OriginalID)
	assert.True(t, decimal.NewFromInt(85).Equal(out.Lines[0].Received))
	assert.True(t, decimal.NewFromInt(15).Equal(out.Lines[0].Outstanding))
	assert.False(t, out.FullyReceived)

	rec = f.do(t, http.MethodPost, path(f.op, "/receipts"), `{"warehouse_id":1,"material_code":"M-001","quantity":20,"request_id":"6f1c2b9e-3f57-4c3a-9a8e-0c1f3f1d2a10"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var posted postReceiptResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posted))
	assert.True(t, posted.OverReceived)
	assert.True(t, posted.FullyReceived)
	assert.True(t, decimal.NewFromInt(-5).Equal(posted.Material.Outstanding))
	assert.True(t, decimal.Zero.Equal(posted.Material.Display))

	// повтор с тем же request_id
	rec = f.do(t, http.MethodPost, path(f.op, "/receipts"), `{"warehouse_id":1,"material_code":"M-001","quantity":20,"request_id":"6f1c2b9e-3f57-4c3a-9a8e-0c1f3f1d2a10"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, f.st.Receipts(), 3)

	rec = f.do(t, http.MethodGet, path(f.op, "/receipts"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var hist []receiptEventDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hist))
	require.Len(t, hist, 3)
	assert.True(t, decimal.NewFromInt(105).Equal(hist[2].ReceivedToDate))

	rec = f.do(t, http.MethodGet, "/api/po/selectable", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestMaterialsAndSelectable(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, path(f.op, "/materials"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var lines []materialDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lines))
	require.Len(t, lines, 1)
	assert.Equal(t, "M-001", lines[0].MaterialCode)

	rec = f.do(t, http.MethodGet, "/api/po/selectable?q=acm&customer_id=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []reconciliation.POSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, f.op, list[0].ID)
	assert.Equal(t, "Acme", list[0].CustomerName)
	assert.Equal(t, 1, list[0].VersionNumber)
}

func TestReportDownload(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, path(f.op, "/report.xlsx"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "po_G1_v1.xlsx")

	x, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer func() { _ = x.Close() }()
	assert.Len(t, x.GetSheetList(), 2)
}

func TestReportFilenameEscaped(t *testing.T) {
	st := memstore.New()
	st.AddCustomer(1, "Acme")
	g := st.AddOriginal(`PO "7"; x`, 1, purchaseorders.Material{MaterialCode: "M-001", Quantity: decimal.NewFromInt(1), Unit: "m"})
	op := st.AddOperation(g)
	h := New(":0", nil, NewAPI(reconciliation.NewService(st, nil, nil), nil)).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path(op, "/report.xlsx"), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	disp, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "attachment", disp)
	assert.Equal(t, `po_PO "7"; x_v1.xlsx`, params["filename"])
}

func TestErrorMapping(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"missing po", http.MethodGet, "/api/po/999/outstanding", "", http.StatusNotFound},
		{"bad id", http.MethodGet, "/api/po/abc/outstanding", "", http.StatusBadRequest},
		{"post to original", http.MethodPost, path(f.original, "/receipts"), `{"warehouse_id":1,"material_code":"M-001","quantity":"1"}`, http.StatusBadRequest},
		{"unknown material", http.MethodPost, path(f.op, "/receipts"), `{"warehouse_id":1,"material_code":"NOPE","quantity":"1"}`, http.StatusBadRequest},
		{"zero qty", http.MethodPost, path(f.op, "/receipts"), `{"warehouse_id":1,"material_code":"M-001","quantity":"0"}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, path(f.op, "/receipts"), `{"qty":1}`, http.StatusBadRequest},
		{"bad request id", http.MethodPost, path(f.op, "/receipts"), `{"warehouse_id":1,"material_code":"M-001","quantity":"1","request_id":"x"}`, http.StatusBadRequest},
		{"bad customer", http.MethodGet, "/api/po/selectable?customer_id=x", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StatusFor(reconciliation.ErrInconsistentLineage))
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(reconciliation.ErrWriteFailed))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(assert.AnError))
}
