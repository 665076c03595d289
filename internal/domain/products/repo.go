package products

import (
	"context"
	"errors"

	"github.com/Spok95/po-tracker/internal/infra/db"
	"github.com/jackc/pgx/v5"
)

type Repo struct{ q db.DBTX }

func NewRepo(q db.DBTX) *Repo { return &Repo{q: q} }

func (r *Repo) Create(ctx context.Context, code, name string, customerID *int64) (*Product, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO products (code, name, customer_id) VALUES ($1,$2,$3)
		RETURNING id, code, name, customer_id, active, created_at
	`, code, name, customerID)
	var p Product
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &p.CustomerID, &p.Active, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) GetByCode(ctx context.Context, code string) (*Product, error) {
	row := r.q.QueryRow(ctx, `
		SELECT id, code, name, customer_id, active, created_at
		FROM products WHERE code = $1
	`, code)
	var p Product
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &p.CustomerID, &p.Active, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ListByPurchaseOrder возвращает изделия, привязанные к PO при импорте.
func (r *Repo) ListByPurchaseOrder(ctx context.Context, poID int64) ([]Product, error) {
	rows, err := r.q.Query(ctx, `
		SELECT p.id, p.code, p.name, p.customer_id, p.active, p.created_at
		FROM products p
		JOIN purchase_order_products pop ON pop.product_id = p.id
		WHERE pop.purchase_order_id = $1
		ORDER BY p.code
	`, poID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.CustomerID, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
