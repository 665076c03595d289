package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Spok95/po-tracker/internal/domain/catalog"
	"github.com/Spok95/po-tracker/internal/domain/customers"
	"github.com/Spok95/po-tracker/internal/domain/inventory"
	"github.com/Spok95/po-tracker/internal/domain/materials"
	"github.com/Spok95/po-tracker/internal/domain/products"
	"github.com/shopspring/decimal"
)

type CustomerLister interface {
	List(ctx context.Context, onlyActive bool) ([]customers.Customer, error)
}

type MaterialLister interface {
	List(ctx context.Context, onlyActive bool) ([]materials.Material, error)
	SearchByName(ctx context.Context, q string, onlyActive bool) ([]materials.Material, error)
}

type WarehouseLister interface {
	ListWarehouses(ctx context.Context, onlyActive bool) ([]catalog.Warehouse, error)
}

type StockReader interface {
	ListByWarehouse(ctx context.Context, warehouseID int64) ([]inventory.Balance, error)
}

type ProductLister interface {
	ListByPurchaseOrder(ctx context.Context, poID int64) ([]products.Product, error)
}

// Reference: справочники только на чтение. Пустые поля ручек не регистрируют.
type Reference struct {
	Customers  CustomerLister
	Materials  MaterialLister
	Warehouses WarehouseLister
	Stock      StockReader
	Products   ProductLister
}

func (a *API) WithReference(ref Reference) *API {
	a.ref = ref
	return a
}

func (a *API) registerReference(mux *http.ServeMux) {
	if a.ref.Customers != nil {
		mux.HandleFunc("GET /api/customers", a.listCustomers)
	}
	if a.ref.Materials != nil {
		mux.HandleFunc("GET /api/materials", a.listMaterials)
	}
	if a.ref.Warehouses != nil {
		mux.HandleFunc("GET /api/warehouses", a.listWarehouses)
	}
	if a.ref.Stock != nil {
		mux.HandleFunc("GET /api/warehouses/{id}/stock", a.warehouseStock)
	}
	if a.ref.Products != nil {
		mux.HandleFunc("GET /api/po/{id}/products", a.poProducts)
	}
}

func (a *API) listCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := a.ref.Customers.List(r.Context(), true)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	type dto struct {
		ID   int64  `json:"id"`
		Code string `json:"code"`
		Name string `json:"name"`
	}
	out := make([]dto, 0, len(list))
	for _, c := range list {
		out = append(out, dto{ID: c.ID, Code: c.Code, Name: c.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) listMaterials(w http.ResponseWriter, r *http.Request) {
	var (
		list []materials.Material
		err  error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		list, err = a.ref.Materials.SearchByName(r.Context(), q, true)
	} else {
		list, err = a.ref.Materials.List(r.Context(), true)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	type dto struct {
		ID   int64  `json:"id"`
		Code string `json:"code"`
		Name string `json:"name"`
		Type string `json:"type"`
		Unit string `json:"unit"`
	}
	out := make([]dto, 0, len(list))
	for _, m := range list {
		out = append(out, dto{ID: m.ID, Code: m.Code, Name: m.Name, Type: m.Type, Unit: string(m.Unit)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) listWarehouses(w http.ResponseWriter, r *http.Request) {
	list, err := a.ref.Warehouses.ListWarehouses(r.Context(), true)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	type dto struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	out := make([]dto, 0, len(list))
	for _, wh := range list {
		out = append(out, dto{ID: wh.ID, Name: wh.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) warehouseStock(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid warehouse id")
		return
	}
	list, err := a.ref.Stock.ListByWarehouse(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	type dto struct {
		MaterialCode string          `json:"material_code"`
		Qty          decimal.Decimal `json:"qty"`
	}
	out := make([]dto, 0, len(list))
	for _, b := range list {
		out = append(out, dto{MaterialCode: b.MaterialCode, Qty: b.Qty})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) poProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := a.poID(w, r)
	if !ok {
		return
	}
	list, err := a.ref.Products.ListByPurchaseOrder(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	type dto struct {
		ID   int64  `json:"id"`
		Code string `json:"code"`
		Name string `json:"name"`
	}
	out := make([]dto, 0, len(list))
	for _, p := range list {
		out = append(out, dto{ID: p.ID, Code: p.Code, Name: p.Name})
	}
	writeJSON(w, http.StatusOK, out)
}
