package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Spok95/po-tracker/internal/domain/purchaseorders"
	"github.com/Spok95/po-tracker/internal/domain/reconciliation/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrders struct {
	pos map[int64]*purchaseorders.PurchaseOrder
}

func (f *fakeOrders) ListOperations(_ context.Context, onlyActive bool) ([]purchaseorders.Listed, error) {
	var out []purchaseorders.Listed
	for _, p := range f.pos {
		if p.IsOriginal() || (onlyActive && !p.Active) {
			continue
		}
		out = append(out, purchaseorders.Listed{PurchaseOrder: *p, CustomerName: "Acme"})
	}
	return out, nil
}

func (f *fakeOrders) CreateRevision(_ context.Context, originalID, createdBy int64) (*purchaseorders.PurchaseOrder, error) {
	orig, ok := f.pos[originalID]
	if !ok {
		return nil, nil
	}
	if !orig.IsOriginal() {
		return nil, purchaseorders.ErrNotOriginal
	}
	id := int64(len(f.pos) + 1)
	parent := originalID
	op := &purchaseorders.PurchaseOrder{ID: id, PONumber: orig.PONumber, OriginalPOID: &parent, VersionNumber: 2, CreatedBy: createdBy, Active: true}
	f.pos[id] = op
	return op, nil
}

func (f *fakeOrders) UpdateOperation(_ context.Context, id int64, upd purchaseorders.OperationUpdate) (*purchaseorders.PurchaseOrder, error) {
	p, ok := f.pos[id]
	if !ok {
		return nil, nil
	}
	if p.IsOriginal() {
		return nil, purchaseorders.ErrOriginalImmutable
	}
	if upd.Status != nil {
		p.Status = *upd.Status
	}
	return p, nil
}

func (f *fakeOrders) Deactivate(_ context.Context, id int64) (*purchaseorders.PurchaseOrder, error) {
	p, ok := f.pos[id]
	if !ok {
		return nil, nil
	}
	if p.IsOriginal() {
		return nil, purchaseorders.ErrOriginalImmutable
	}
	p.Active = false
	return p, nil
}

func newOrdersFixture(t *testing.T) (fixture, *fakeOrders) {
	t.Helper()
	orig := int64(1)
	fo := &fakeOrders{pos: map[int64]*purchaseorders.PurchaseOrder{
		1: {ID: 1, PONumber: "G1", Active: true},
		2: {ID: 2, PONumber: "G1", OriginalPOID: &orig, VersionNumber: 1, Active: true},
	}}
	st := memstore.New()
	api := NewAPI(nil, nil).WithOrders(fo)
	return fixture{st: st, h: New(":0", nil, api).Handler(), original: 1, op: 2}, fo
}

func TestOrdersLifecycle(t *testing.T) {
	f, fo := newOrdersFixture(t)

	rec := f.do(t, http.MethodPost, path(f.original, "/revisions"), `{"created_by":7}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created poDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotNil(t, created.OriginalPOID)
	assert.Equal(t, f.original, *created.OriginalPOID)

	rec = f.do(t, http.MethodPost, path(f.op, "/revisions"), "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPatch, path(f.op, ""), `{"status":"confirmed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, purchaseorders.StatusConfirmed, fo.pos[f.op].Status)

	rec = f.do(t, http.MethodPatch, path(f.original, ""), `{"status":"closed"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPatch, path(f.op, ""), `{"status":"lost"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// оригинал снять нельзя, рабочие версии остаются живыми
	rec = f.do(t, http.MethodDelete, path(f.original, ""), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, fo.pos[f.original].Active)

	rec = f.do(t, http.MethodDelete, path(f.op, ""), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/po", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []poDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	rec = f.do(t, http.MethodDelete, path(99, ""), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
