package receipts

import (
	"context"
	"errors"

	"github.com/Spok95/po-tracker/internal/infra/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Repo struct{ q db.DBTX }

func NewRepo(q db.DBTX) *Repo { return &Repo{q: q} }

const receiptColumns = `
	r.id, r.request_id, r.purchase_order_id, r.warehouse_id, r.material_code,
	r.quantity, r.received_at, r.received_by, r.note, r.created_at
`

func scanReceipt(row pgx.Row) (*Receipt, error) {
	var rc Receipt
	if err := row.Scan(
		&rc.ID, &rc.RequestID, &rc.PurchaseOrderID, &rc.WarehouseID, &rc.MaterialCode,
		&rc.Quantity, &rc.ReceivedAt, &rc.ReceivedBy, &rc.Note, &rc.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &rc, nil
}

// Insert сохраняет поступление и дописывает в rc id и created_at.
func (r *Repo) Insert(ctx context.Context, rc *Receipt) error {
	return r.q.QueryRow(ctx, `
		INSERT INTO material_receipts
			(request_id, purchase_order_id, warehouse_id, material_code, quantity, received_at, received_by, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at
	`, rc.RequestID, rc.PurchaseOrderID, rc.WarehouseID, rc.MaterialCode,
		rc.Quantity, rc.ReceivedAt, rc.ReceivedBy, rc.Note).Scan(&rc.ID, &rc.CreatedAt)
}

func (r *Repo) FindByRequestID(ctx context.Context, requestID uuid.UUID) (*Receipt, error) {
	rc, err := scanReceipt(r.q.QueryRow(ctx, `
		SELECT `+receiptColumns+` FROM material_receipts r WHERE r.request_id = $1
	`, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rc, err
}

// ListByLineage: все поступления по оригиналу и его рабочим версиям,
// в хронологическом порядке.
func (r *Repo) ListByLineage(ctx context.Context, originalID int64) ([]Receipt, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+receiptColumns+`
		FROM material_receipts r
		JOIN purchase_orders po ON po.id = r.purchase_order_id
		WHERE po.id = $1 OR po.original_po_id = $1
		ORDER BY r.received_at, r.id
	`, originalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Receipt
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rc)
	}
	return out, rows.Err()
}
