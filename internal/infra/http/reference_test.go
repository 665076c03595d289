package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Spok95/po-tracker/internal/domain/catalog"
	"github.com/Spok95/po-tracker/internal/domain/inventory"
	"github.com/Spok95/po-tracker/internal/domain/materials"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMaterials struct{ searched string }

func (f *fakeMaterials) List(context.Context, bool) ([]materials.Material, error) {
	return []materials.Material{{ID: 1, Code: "M-001", Name: "Ткань", Unit: materials.UnitM}}, nil
}

func (f *fakeMaterials) SearchByName(_ context.Context, q string, _ bool) ([]materials.Material, error) {
	f.searched = q
	return nil, nil
}

type fakeWarehouses struct{}

func (fakeWarehouses) ListWarehouses(context.Context, bool) ([]catalog.Warehouse, error) {
	return []catalog.Warehouse{{ID: 3, Name: "Основной"}}, nil
}

func (fakeWarehouses) ListByWarehouse(_ context.Context, id int64) ([]inventory.Balance, error) {
	return []inventory.Balance{{WarehouseID: id, MaterialCode: "M-001", Qty: decimal.RequireFromString("12.5")}}, nil
}

func TestReferenceEndpoints(t *testing.T) {
	fm := &fakeMaterials{}
	api := NewAPI(nil, nil).WithReference(Reference{
		Materials:  fm,
		Warehouses: fakeWarehouses{},
		Stock:      fakeWarehouses{},
	})
	f := fixture{h: New(":0", nil, api).Handler()}

	rec := f.do(t, http.MethodGet, "/api/materials", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unit":"m"`)

	rec = f.do(t, http.MethodGet, "/api/materials?q=M-0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "M-0", fm.searched)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/warehouses/3/stock", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stock []struct {
		MaterialCode string          `json:"material_code"`
		Qty          decimal.Decimal `json:"qty"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stock))
	require.Len(t, stock, 1)
	assert.True(t, decimal.RequireFromString("12.5").Equal(stock[0].Qty))

	rec = f.do(t, http.MethodGet, "/api/warehouses/x/stock", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// справочник клиентов не подключён
	rec = f.do(t, http.MethodGet, "/api/customers", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
