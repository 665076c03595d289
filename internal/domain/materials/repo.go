package materials

import (
	"context"
	"errors"
	"strings"

	"github.com/Spok95/po-tracker/internal/infra/db"
	"github.com/jackc/pgx/v5"
)

type Repo struct{ q db.DBTX }

func NewRepo(q db.DBTX) *Repo { return &Repo{q: q} }

const selectMaterial = `
	SELECT id, code, name, type, unit, active, created_at
	FROM materials
`

func scanMaterial(row pgx.Row) (*Material, error) {
	var m Material
	if err := row.Scan(&m.ID, &m.Code, &m.Name, &m.Type, &m.Unit, &m.Active, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// Ensure создаёт материал по коду или возвращает уже существующий.
// Название и единицу существующей записи не трогаем: справочник ведётся вручную.
func (r *Repo) Ensure(ctx context.Context, code, name, typ string, unit Unit) (*Material, error) {
	m, err := scanMaterial(r.q.QueryRow(ctx, `
		INSERT INTO materials (code, name, type, unit)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (code) DO NOTHING
		RETURNING id, code, name, type, unit, active, created_at
	`, code, name, typ, string(unit)))
	if errors.Is(err, pgx.ErrNoRows) {
		return r.GetByCode(ctx, code)
	}
	return m, err
}

func (r *Repo) GetByCode(ctx context.Context, code string) (*Material, error) {
	m, err := scanMaterial(r.q.QueryRow(ctx, selectMaterial+` WHERE code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (r *Repo) List(ctx context.Context, onlyActive bool) ([]Material, error) {
	q := selectMaterial
	if onlyActive {
		q += " WHERE active = TRUE"
	}
	q += " ORDER BY code"
	return r.list(ctx, q)
}

// SearchByName ищет материалы по части кода/названия, без учёта регистра.
func (r *Repo) SearchByName(ctx context.Context, q string, onlyActive bool) ([]Material, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	sql := selectMaterial + ` WHERE (code ILIKE $1 OR name ILIKE $1)`
	if onlyActive {
		sql += " AND active = TRUE"
	}
	sql += " ORDER BY code"
	return r.list(ctx, sql, db.LikePattern(q))
}

func (r *Repo) list(ctx context.Context, sql string, args ...any) ([]Material, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}
