package catalog

import (
	"context"
	"errors"

	"github.com/Spok95/po-tracker/internal/infra/db"
	"github.com/jackc/pgx/v5"
)

type Repo struct{ q db.DBTX }

func NewRepo(q db.DBTX) *Repo { return &Repo{q: q} }

func (r *Repo) CreateWarehouse(ctx context.Context, name string) (*Warehouse, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO warehouses (name) VALUES ($1)
		ON CONFLICT (name) DO NOTHING
		RETURNING id, name, active, created_at
	`, name)
	var w Warehouse
	err := row.Scan(&w.ID, &w.Name, &w.Active, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Уже есть: вернём существующий
		return r.GetWarehouseByName(ctx, name)
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *Repo) GetWarehouseByName(ctx context.Context, name string) (*Warehouse, error) {
	return r.getWarehouse(ctx, `SELECT id, name, active, created_at FROM warehouses WHERE name = $1`, name)
}

func (r *Repo) getWarehouse(ctx context.Context, sql string, arg any) (*Warehouse, error) {
	var w Warehouse
	if err := r.q.QueryRow(ctx, sql, arg).Scan(&w.ID, &w.Name, &w.Active, &w.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (r *Repo) ListWarehouses(ctx context.Context, onlyActive bool) ([]Warehouse, error) {
	q := `SELECT id, name, active, created_at FROM warehouses`
	if onlyActive {
		q += " WHERE active = TRUE"
	}
	q += " ORDER BY name"

	rows, err := r.q.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Warehouse
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.Name, &w.Active, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
