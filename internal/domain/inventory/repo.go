package inventory

import (
	"context"
	"fmt"

	"github.com/Spok95/po-tracker/internal/infra/db"
	"github.com/shopspring/decimal"
)

type Repo struct{ q db.DBTX }

func NewRepo(q db.DBTX) *Repo { return &Repo{q: q} }

// apply меняет остаток и пишет движение в журнал одной транзакцией.
func (r *Repo) apply(ctx context.Context, actorID, warehouseID int64, code string, delta decimal.Decimal, mtype MoveType, receiptID *int64, note string) error {
	tx, err := r.q.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx, `
		INSERT INTO balances (warehouse_id, material_code, qty)
		VALUES ($1,$2,$3)
		ON CONFLICT (warehouse_id, material_code)
		DO UPDATE SET qty = balances.qty + EXCLUDED.qty
	`, warehouseID, code, delta); err != nil {
		return fmt.Errorf("update balance: %w", err)
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO movements (actor_id, warehouse_id, material_code, qty, type, receipt_id, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, actorID, warehouseID, code, delta, string(mtype), receiptID, note); err != nil {
		return fmt.Errorf("log movement: %w", err)
	}

	return tx.Commit(ctx)
}

// ReceiveForReceipt приходует материал по поступлению PO.
func (r *Repo) ReceiveForReceipt(ctx context.Context, actorID, warehouseID int64, code string, qty decimal.Decimal, receiptID int64, note string) error {
	if !qty.IsPositive() {
		return fmt.Errorf("qty must be > 0")
	}
	return r.apply(ctx, actorID, warehouseID, code, qty, MoveIn, &receiptID, note)
}

func (r *Repo) ListByWarehouse(ctx context.Context, warehouseID int64) ([]Balance, error) {
	rows, err := r.q.Query(ctx, `
		SELECT warehouse_id, material_code, qty
		FROM balances
		WHERE warehouse_id = $1
		ORDER BY material_code
	`, warehouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Balance
	for rows.Next() {
		var b Balance
		if err := rows.Scan(&b.WarehouseID, &b.MaterialCode, &b.Qty); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
