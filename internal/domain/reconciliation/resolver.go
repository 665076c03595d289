package reconciliation

import (
	"context"
	"fmt"

	"github.com/Spok95/po-tracker/internal/domain/purchaseorders"
)

// Resolution: запрошенный PO, его оригинал и плановые строки оригинала.
type Resolution struct {
	Requested purchaseorders.PurchaseOrder
	Original  purchaseorders.PurchaseOrder
	Lines     []purchaseorders.Material
}

// Resolve находит оригинал для PO и его плановые строки.
// Рабочий PO строк не имеет: ссылка на оригинал проходится ровно один раз.
func Resolve(ctx context.Context, r Reader, poID int64) (*Resolution, error) {
	po, err := r.GetPurchaseOrder(ctx, poID)
	if err != nil {
		return nil, fmt.Errorf("load purchase order %d: %w", poID, err)
	}
	if po == nil || !po.Active {
		return nil, fmt.Errorf("purchase order %d: %w", poID, ErrNotFound)
	}

	res := &Resolution{Requested: *po}
	switch l := po.Lineage().(type) {
	case purchaseorders.Original:
		res.Original = *po
	case purchaseorders.Operation:
		orig, err := r.GetPurchaseOrder(ctx, l.OriginalID)
		if err != nil {
			return nil, fmt.Errorf("load original %d of purchase order %d: %w", l.OriginalID, poID, err)
		}
		if orig == nil || !orig.Active {
			return nil, fmt.Errorf("original %d of purchase order %d: %w", l.OriginalID, poID, ErrNotFound)
		}
		if !orig.IsOriginal() {
			return nil, fmt.Errorf("purchase order %d references %d which has parent %d: %w",
				poID, orig.ID, *orig.OriginalPOID, ErrInconsistentLineage)
		}
		res.Original = *orig
	}

	lines, err := r.ListMaterialLines(ctx, res.Original.ID)
	if err != nil {
		return nil, fmt.Errorf("load material lines of %d: %w", res.Original.ID, err)
	}
	res.Lines = lines
	return res, nil
}

// ResolveMaterialLines: плановые строки, по которым сверяется PO.
func ResolveMaterialLines(ctx context.Context, r Reader, poID int64) ([]purchaseorders.Material, error) {
	res, err := Resolve(ctx, r, poID)
	if err != nil {
		return nil, err
	}
	return res.Lines, nil
}
