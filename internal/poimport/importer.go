package poimport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Spok95/po-tracker/internal/domain/customers"
	"github.com/Spok95/po-tracker/internal/domain/materials"
	"github.com/Spok95/po-tracker/internal/domain/products"
	"github.com/Spok95/po-tracker/internal/domain/purchaseorders"
)

var (
	ErrDuplicatePO     = errors.New("purchase order already imported")
	ErrUnknownCustomer = errors.New("unknown customer code")
	ErrUnknownProduct  = errors.New("unknown product code")
)

type CustomerFinder interface {
	GetByCode(ctx context.Context, code string) (*customers.Customer, error)
}

type MaterialEnsurer interface {
	Ensure(ctx context.Context, code, name, typ string, unit materials.Unit) (*materials.Material, error)
}

type ProductFinder interface {
	GetByCode(ctx context.Context, code string) (*products.Product, error)
}

type OrderStore interface {
	GetOriginalByNumber(ctx context.Context, poNumber string) (*purchaseorders.PurchaseOrder, error)
	Import(ctx context.Context, original purchaseorders.PurchaseOrder, lines []purchaseorders.Material, productIDs []int64) (*purchaseorders.PurchaseOrder, *purchaseorders.PurchaseOrder, error)
}

// Imported: заведённый оригинал и его первая рабочая версия.
type Imported struct {
	Original  purchaseorders.PurchaseOrder
	Operation purchaseorders.PurchaseOrder
	Lines     int
}

type Importer struct {
	customers CustomerFinder
	materials MaterialEnsurer
	products  ProductFinder
	orders    OrderStore
	log       *slog.Logger
}

func NewImporter(c CustomerFinder, m MaterialEnsurer, p ProductFinder, o OrderStore, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Importer{customers: c, materials: m, products: p, orders: o, log: log}
}

type prepared struct {
	po         ImportedPO
	customerID int64
	productIDs []int64
}

// Import сначала проверяет все PO из файла, потом заводит каждый отдельной транзакцией.
func (im *Importer) Import(ctx context.Context, pos []ImportedPO, createdBy int64) ([]Imported, error) {
	ready := make([]prepared, 0, len(pos))
	for _, po := range pos {
		p, err := im.prepare(ctx, po)
		if err != nil {
			return nil, err
		}
		ready = append(ready, *p)
	}

	out := make([]Imported, 0, len(ready))
	for _, p := range ready {
		lines := make([]purchaseorders.Material, 0, len(p.po.Lines))
		for i, l := range p.po.Lines {
			if _, err := im.materials.Ensure(ctx, l.MaterialCode, l.MaterialName, l.MaterialType, materials.Unit(l.Unit)); err != nil {
				return out, &RowError{Row: l.Row, Err: fmt.Errorf("material %s: %w", l.MaterialCode, err)}
			}
			lines = append(lines, purchaseorders.Material{
				LineNo:       i + 1,
				MaterialCode: l.MaterialCode,
				MaterialName: l.MaterialName,
				MaterialType: l.MaterialType,
				Quantity:     l.Quantity,
				Unit:         l.Unit,
				ColorCode:    l.ColorCode,
				Notes:        l.Notes,
			})
		}

		orig, op, err := im.orders.Import(ctx, purchaseorders.PurchaseOrder{
			PONumber:       p.po.PONumber,
			CustomerID:     p.customerID,
			Version:        p.po.Version,
			ProcessingType: p.po.ProcessingType,
			PODate:         p.po.PODate,
			Status:         purchaseorders.StatusConfirmed,
			CreatedBy:      createdBy,
			Active:         true,
		}, lines, p.productIDs)
		if err != nil {
			return out, fmt.Errorf("import %s: %w", p.po.PONumber, err)
		}
		im.log.Info("purchase order imported",
			"po_number", orig.PONumber, "original_id", orig.ID, "operation_id", op.ID, "lines", len(lines))
		out = append(out, Imported{Original: *orig, Operation: *op, Lines: len(lines)})
	}
	return out, nil
}

func (im *Importer) prepare(ctx context.Context, po ImportedPO) (*prepared, error) {
	firstRow := 0
	if len(po.Lines) > 0 {
		firstRow = po.Lines[0].Row
	}

	existing, err := im.orders.GetOriginalByNumber(ctx, po.PONumber)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &RowError{Row: firstRow, Err: fmt.Errorf("%s: %w", po.PONumber, ErrDuplicatePO)}
	}

	c, err := im.customers.GetByCode(ctx, po.CustomerCode)
	if err != nil {
		return nil, err
	}
	if c == nil || !c.Active {
		return nil, &RowError{Row: firstRow, Err: fmt.Errorf("%s: %w", po.CustomerCode, ErrUnknownCustomer)}
	}

	p := &prepared{po: po, customerID: c.ID}
	seen := map[int64]bool{}
	for _, l := range po.Lines {
		if l.ProductCode == "" {
			continue
		}
		pr, err := im.products.GetByCode(ctx, l.ProductCode)
		if err != nil {
			return nil, err
		}
		if pr == nil || !pr.BelongsTo(c.ID) {
			return nil, &RowError{Row: l.Row, Err: fmt.Errorf("%s: %w", l.ProductCode, ErrUnknownProduct)}
		}
		if !seen[pr.ID] {
			seen[pr.ID] = true
			p.productIDs = append(p.productIDs, pr.ID)
		}
	}
	return p, nil
}
