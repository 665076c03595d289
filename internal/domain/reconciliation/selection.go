package reconciliation

import (
	"context"
	"errors"
	"strings"

	"github.com/Spok95/po-tracker/internal/domain/purchaseorders"
)

// POSummary: строка списка PO для новой приёмки.
type POSummary struct {
	ID               int64  `json:"id"`
	PONumber         string `json:"po_number"`
	CustomerName     string `json:"customer_name"`
	VersionNumber    int    `json:"version_number"`
	Version          string `json:"version"`
	FullyReceived    bool   `json:"fully_received"`
	LinesOutstanding int    `json:"lines_outstanding"`
	OverReceived     bool   `json:"over_received"`
}

// SearchSelectable ищет рабочие PO, по которым ещё можно принимать материал.
// Флаг из БД только сужает выборку; каждый кандидат пересчитывается,
// полностью принятые отбрасываются.
func (e *Engine) SearchSelectable(ctx context.Context, f purchaseorders.SearchFilter) ([]POSummary, error) {
	f.Term = strings.TrimSpace(f.Term)
	cands, err := e.r.ListSelectionCandidates(ctx, f)
	if err != nil {
		return nil, err
	}

	// в пределах вызова сверка по одному оригиналу считается один раз
	byOriginal := make(map[int64]*Reconciliation)
	out := make([]POSummary, 0, len(cands))
	for _, c := range cands {
		op, ok := c.Lineage().(purchaseorders.Operation)
		if !ok || !c.Active {
			continue
		}

		rec, seen := byOriginal[op.OriginalID]
		if !seen {
			rec, err = e.Reconcile(ctx, c.ID)
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInconsistentLineage) {
				e.log.Error("skip purchase order in selection", "po_id", c.ID, "err", err)
				continue
			}
			if err != nil {
				return nil, err
			}
			byOriginal[op.OriginalID] = rec
		}
		if rec.FullyReceived {
			continue
		}
		out = append(out, POSummary{
			ID:               c.ID,
			PONumber:         c.PONumber,
			CustomerName:     c.CustomerName,
			VersionNumber:    c.VersionNumber,
			Version:          c.Version,
			FullyReceived:    rec.FullyReceived,
			LinesOutstanding: rec.LinesOutstanding(),
			OverReceived:     rec.OverReceived(),
		})
	}
	return out, nil
}
