package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/Spok95/po-tracker/internal/domain/purchaseorders"
	"github.com/Spok95/po-tracker/internal/domain/reconciliation"
	"github.com/Spok95/po-tracker/internal/report"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tracker: то, что API берёт у reconciliation.Service.
type Tracker interface {
	ResolveMaterialLines(ctx context.Context, poID int64) ([]purchaseorders.Material, error)
	ReceiptHistory(ctx context.Context, poID int64) ([]reconciliation.ReceiptEvent, error)
	Reconcile(ctx context.Context, poID int64) (*reconciliation.Reconciliation, error)
	SearchSelectable(ctx context.Context, f purchaseorders.SearchFilter) ([]reconciliation.POSummary, error)
	PostReceipt(ctx context.Context, in reconciliation.ReceiptInput) (*reconciliation.PostResult, error)
}

type API struct {
	t      Tracker
	orders Orders
	ref    Reference
	log    *slog.Logger
}

func NewAPI(t Tracker, log *slog.Logger) *API {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &API{t: t, log: log}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/po/selectable", a.selectable)
	mux.HandleFunc("GET /api/po/{id}/materials", a.materials)
	mux.HandleFunc("GET /api/po/{id}/receipts", a.receipts)
	mux.HandleFunc("GET /api/po/{id}/outstanding", a.outstanding)
	mux.HandleFunc("GET /api/po/{id}/report.xlsx", a.report)
	mux.HandleFunc("POST /api/po/{id}/receipts", a.postReceipt)
	a.registerOrders(mux)
	a.registerReference(mux)
}

// --- DTO ---

type materialDTO struct {
	LineNo       int             `json:"line_no"`
	MaterialCode string          `json:"material_code"`
	MaterialName string          `json:"material_name"`
	MaterialType string          `json:"material_type"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	ColorCode    string          `json:"color_code"`
	Notes        string          `json:"notes"`
}

type lineStatusDTO struct {
	LineNo       int             `json:"line_no,omitempty"`
	MaterialCode string          `json:"material_code"`
	MaterialName string          `json:"material_name,omitempty"`
	Unit         string          `json:"unit,omitempty"`
	Planned      decimal.Decimal `json:"planned"`
	Received     decimal.Decimal `json:"received"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	Display      decimal.Decimal `json:"display_outstanding"`
	OverReceived bool            `json:"over_received"`
}

type outstandingDTO struct {
	PurchaseOrderID int64           `json:"purchase_order_id"`
	OriginalID      int64           `json:"original_id"`
	FullyReceived   bool            `json:"fully_received"`
	CachedHint      bool            `json:"cached_hint"`
	Lines           []lineStatusDTO `json:"lines"`
	Unplanned       []lineStatusDTO `json:"unplanned"`
}

type receiptEventDTO struct {
	ID              int64           `json:"id"`
	RequestID       uuid.UUID       `json:"request_id"`
	PurchaseOrderID int64           `json:"purchase_order_id"`
	WarehouseID     int64           `json:"warehouse_id"`
	MaterialCode    string          `json:"material_code"`
	Quantity        decimal.Decimal `json:"quantity"`
	ReceivedAt      time.Time       `json:"received_at"`
	ReceivedBy      int64           `json:"received_by"`
	Note            string          `json:"note,omitempty"`
	ReceivedToDate  decimal.Decimal `json:"received_to_date"`
	Planned         decimal.Decimal `json:"planned"`
	Outstanding     decimal.Decimal `json:"outstanding"`
	Unplanned       bool            `json:"unplanned"`
}

type postReceiptReq struct {
	WarehouseID  int64           `json:"warehouse_id"`
	MaterialCode string          `json:"material_code"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReceivedBy   int64           `json:"received_by"`
	Note         string          `json:"note"`
	RequestID    string          `json:"request_id"`
	ReceivedAt   *time.Time      `json:"received_at"`
}

type postReceiptResp struct {
	Receipt       receiptEventDTO `json:"receipt"`
	Material      lineStatusDTO   `json:"material"`
	FullyReceived bool            `json:"fully_received"`
	OverReceived  bool            `json:"over_received"`
	Duplicate     bool            `json:"duplicate"`
}

func toLineStatus(l reconciliation.LineStatus) lineStatusDTO {
	return lineStatusDTO{
		LineNo:       l.LineNo,
		MaterialCode: l.MaterialCode,
		MaterialName: l.MaterialName,
		Unit:         l.Unit,
		Planned:      l.Planned,
		Received:     l.Received,
		Outstanding:  l.Outstanding,
		Display:      l.DisplayOutstanding(),
		OverReceived: l.OverReceived,
	}
}

func toLineStatuses(ls []reconciliation.LineStatus) []lineStatusDTO {
	out := make([]lineStatusDTO, 0, len(ls))
	for _, l := range ls {
		out = append(out, toLineStatus(l))
	}
	return out
}

func toEvent(ev reconciliation.ReceiptEvent) receiptEventDTO {
	return receiptEventDTO{
		ID:              ev.ID,
		RequestID:       ev.RequestID,
		PurchaseOrderID: ev.PurchaseOrderID,
		WarehouseID:     ev.WarehouseID,
		MaterialCode:    ev.MaterialCode,
		Quantity:        ev.Quantity,
		ReceivedAt:      ev.ReceivedAt,
		ReceivedBy:      ev.ReceivedBy,
		Note:            ev.Note,
		ReceivedToDate:  ev.ReceivedToDate,
		Planned:         ev.Planned,
		Outstanding:     ev.Outstanding,
		Unplanned:       ev.Unplanned,
	}
}

// --- handlers ---

func (a *API) materials(w http.ResponseWriter, r *http.Request) {
	id, ok := a.poID(w, r)
	if !ok {
		return
	}
	lines, err := a.t.ResolveMaterialLines(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]materialDTO, 0, len(lines))
	for _, l := range lines {
		out = append(out, materialDTO{
			LineNo: l.LineNo, MaterialCode: l.MaterialCode, MaterialName: l.MaterialName,
			MaterialType: l.MaterialType, Quantity: l.Quantity, Unit: l.Unit,
			ColorCode: l.ColorCode, Notes: l.Notes,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) receipts(w http.ResponseWriter, r *http.Request) {
	id, ok := a.poID(w, r)
	if !ok {
		return
	}
	hist, err := a.t.ReceiptHistory(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]receiptEventDTO, 0, len(hist))
	for _, ev := range hist {
		out = append(out, toEvent(ev))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) outstanding(w http.ResponseWriter, r *http.Request) {
	id, ok := a.poID(w, r)
	if !ok {
		return
	}
	rec, err := a.t.Reconcile(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outstandingDTO{
		PurchaseOrderID: rec.PurchaseOrder.ID,
		OriginalID:      rec.Original.ID,
		FullyReceived:   rec.FullyReceived,
		CachedHint:      rec.CachedHint,
		Lines:           toLineStatuses(rec.Lines),
		Unplanned:       toLineStatuses(rec.Unplanned),
	})
}

func (a *API) report(w http.ResponseWriter, r *http.Request) {
	id, ok := a.poID(w, r)
	if !ok {
		return
	}
	rec, err := a.t.Reconcile(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	hist, err := a.t.ReceiptHistory(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteReconciliation(&buf, rec, hist); err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	name := fmt.Sprintf("po_%s_v%d.xlsx", rec.PurchaseOrder.PONumber, rec.PurchaseOrder.VersionNumber)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (a *API) selectable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := purchaseorders.SearchFilter{Term: q.Get("q")}
	if s := q.Get("customer_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id < 0 {
			writeError(w, http.StatusBadRequest, "invalid customer_id")
			return
		}
		f.CustomerID = id
	}
	list, err := a.t.SearchSelectable(r.Context(), f)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) postReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := a.poID(w, r)
	if !ok {
		return
	}

	var req postReceiptReq
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	in := reconciliation.ReceiptInput{
		PurchaseOrderID: id,
		WarehouseID:     req.WarehouseID,
		MaterialCode:    req.MaterialCode,
		Quantity:        req.Quantity,
		ReceivedBy:      req.ReceivedBy,
		Note:            req.Note,
	}
	if req.RequestID != "" {
		rid, err := uuid.Parse(req.RequestID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request_id")
			return
		}
		in.RequestID = rid
	}
	if req.ReceivedAt != nil {
		in.ReceivedAt = *req.ReceivedAt
	}

	res, err := a.t.PostReceipt(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, postReceiptResp{
		Receipt:       toEvent(reconciliation.ReceiptEvent{Receipt: res.Receipt}),
		Material:      toLineStatus(res.Material),
		FullyReceived: res.FullyReceived,
		OverReceived:  res.OverReceived,
		Duplicate:     res.Duplicate,
	})
}

// --- helpers ---

func (a *API) poID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid purchase order id")
		return 0, false
	}
	return id, true
}

// StatusFor сопоставляет ошибки сверки с HTTP-кодами.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, reconciliation.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, reconciliation.ErrInconsistentLineage),
		errors.Is(err, purchaseorders.ErrNotOriginal):
		return http.StatusConflict
	case errors.Is(err, reconciliation.ErrOriginalImmutable),
		errors.Is(err, reconciliation.ErrUnknownMaterial),
		errors.Is(err, reconciliation.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, reconciliation.ErrWriteFailed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusFor(err)
	msg := err.Error()
	if code >= 500 {
		a.log.Error("api request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		if code == http.StatusInternalServerError {
			msg = "internal error"
		}
	}
	writeError(w, code, msg)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
