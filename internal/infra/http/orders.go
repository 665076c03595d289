package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Spok95/po-tracker/internal/domain/purchaseorders"
	"github.com/shopspring/decimal"
)

// Orders: жизненный цикл рабочих PO (purchaseorders.Repo).
type Orders interface {
	ListOperations(ctx context.Context, onlyActive bool) ([]purchaseorders.Listed, error)
	CreateRevision(ctx context.Context, originalID, createdBy int64) (*purchaseorders.PurchaseOrder, error)
	UpdateOperation(ctx context.Context, id int64, upd purchaseorders.OperationUpdate) (*purchaseorders.PurchaseOrder, error)
	Deactivate(ctx context.Context, id int64) (*purchaseorders.PurchaseOrder, error)
}

// WithOrders включает ручки управления PO. Без них API только читает сверку и принимает материал.
func (a *API) WithOrders(o Orders) *API {
	a.orders = o
	return a
}

func (a *API) registerOrders(mux *http.ServeMux) {
	if a.orders == nil {
		return
	}
	mux.HandleFunc("GET /api/po", a.listOperations)
	mux.HandleFunc("POST /api/po/{id}/revisions", a.createRevision)
	mux.HandleFunc("PATCH /api/po/{id}", a.updateOperation)
	mux.HandleFunc("DELETE /api/po/{id}", a.deactivate)
}

type poDTO struct {
	ID             int64           `json:"id"`
	PONumber       string          `json:"po_number"`
	CustomerID     int64           `json:"customer_id"`
	CustomerName   string          `json:"customer_name,omitempty"`
	Version        string          `json:"version"`
	VersionNumber  int             `json:"version_number"`
	OriginalPOID   *int64          `json:"original_po_id"`
	ProcessingType string          `json:"processing_type"`
	PODate         time.Time       `json:"po_date"`
	Status         string          `json:"status"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	CachedHint     bool            `json:"is_material_fully_received"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toPO(p purchaseorders.PurchaseOrder, customer string) poDTO {
	return poDTO{
		ID: p.ID, PONumber: p.PONumber, CustomerID: p.CustomerID, CustomerName: customer,
		Version: p.Version, VersionNumber: p.VersionNumber, OriginalPOID: p.OriginalPOID,
		ProcessingType: p.ProcessingType, PODate: p.PODate, Status: string(p.Status),
		TotalAmount: p.TotalAmount, CachedHint: p.IsMaterialFullyReceived,
		Active: p.Active, CreatedAt: p.CreatedAt,
	}
}

func (a *API) listOperations(w http.ResponseWriter, r *http.Request) {
	onlyActive := r.URL.Query().Get("all") == ""
	list, err := a.orders.ListOperations(r.Context(), onlyActive)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]poDTO, 0, len(list))
	for _, l := range list {
		out = append(out, toPO(l.PurchaseOrder, l.CustomerName))
	}
	writeJSON(w, http.StatusOK, out)
}

type revisionReq struct {
	CreatedBy int64 `json:"created_by"`
}

func (a *API) createRevision(w http.ResponseWriter, r *http.Request) {
	id, ok := a.poID(w, r)
	if !ok {
		return
	}
	var req revisionReq
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<12)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
			return
		}
	}
	op, err := a.orders.CreateRevision(r.Context(), id, req.CreatedBy)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if op == nil {
		writeError(w, http.StatusNotFound, "purchase order not found")
		return
	}
	a.log.Info("revision created", "original_id", id, "po_id", op.ID, "version", op.VersionNumber)
	writeJSON(w, http.StatusCreated, toPO(*op, ""))
}

type updateReq struct {
	Status      *string          `json:"status"`
	Version     *string          `json:"version"`
	TotalAmount *decimal.Decimal `json:"total_amount"`
}

func (a *API) updateOperation(w http.ResponseWriter, r *http.Request) {
	id, ok := a.poID(w, r)
	if !ok {
		return
	}
	var req updateReq
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<12))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	upd := purchaseorders.OperationUpdate{Version: req.Version, TotalAmount: req.TotalAmount}
	if req.Status != nil {
		s := purchaseorders.Status(*req.Status)
		switch s {
		case purchaseorders.StatusDraft, purchaseorders.StatusConfirmed, purchaseorders.StatusClosed:
		default:
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		upd.Status = &s
	}

	p, err := a.orders.UpdateOperation(r.Context(), id, upd)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "purchase order not found")
		return
	}
	writeJSON(w, http.StatusOK, toPO(*p, ""))
}

func (a *API) deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := a.poID(w, r)
	if !ok {
		return
	}
	p, err := a.orders.Deactivate(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "purchase order not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
