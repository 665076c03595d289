package customers

import (
	"context"
	"errors"

	"github.com/Spok95/po-tracker/internal/infra/db"
	"github.com/jackc/pgx/v5"
)

type Repo struct{ q db.DBTX }

func NewRepo(q db.DBTX) *Repo { return &Repo{q: q} }

// Create добавляет клиента; если код уже занят: возвращает существующего.
func (r *Repo) Create(ctx context.Context, code, name string) (*Customer, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO customers (code, name) VALUES ($1,$2)
		ON CONFLICT (code) DO NOTHING
		RETURNING id, code, name, active, created_at
	`, code, name)
	var c Customer
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Active, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.GetByCode(ctx, code)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) GetByCode(ctx context.Context, code string) (*Customer, error) {
	return r.getOne(ctx, `
		SELECT id, code, name, active, created_at
		FROM customers WHERE code = $1
	`, code)
}

func (r *Repo) getOne(ctx context.Context, sql string, arg any) (*Customer, error) {
	var c Customer
	if err := r.q.QueryRow(ctx, sql, arg).Scan(&c.ID, &c.Code, &c.Name, &c.Active, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repo) List(ctx context.Context, onlyActive bool) ([]Customer, error) {
	q := `SELECT id, code, name, active, created_at FROM customers`
	if onlyActive {
		q += " WHERE active = TRUE"
	}
	q += " ORDER BY name"

	rows, err := r.q.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Active, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
