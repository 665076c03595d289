package users

import (
	"context"
	"errors"

	"github.com/Spok95/po-tracker/internal/infra/db"
	"github.com/jackc/pgx/v5"
)

type Repo struct{ q db.DBTX }

func NewRepo(q db.DBTX) *Repo { return &Repo{q: q} }

const userColumns = `id, telegram_id, username, first_name, last_name, role, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.LastName, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repo) GetByTelegramID(ctx context.Context, tgID int64) (*User, error) {
	return scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, tgID))
}

// UpsertFromTelegram Upsert по Telegram-профилю. Если пользователь уже admin: не понижаем роль.
func (r *Repo) UpsertFromTelegram(ctx context.Context, tg Telegram, role Role) (*User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `
		INSERT INTO users (telegram_id, username, first_name, last_name, role)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (telegram_id)
		DO UPDATE SET
			username   = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name  = EXCLUDED.last_name,
			role       = CASE WHEN users.role = 'admin' THEN users.role ELSE EXCLUDED.role END,
			updated_at = now()
		RETURNING `+userColumns,
		tg.ID, tg.Username, tg.FirstName, tg.LastName, string(role)))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errors.New("upsert user returned no row")
	}
	return u, nil
}

func (r *Repo) SetRole(ctx context.Context, tgID int64, role Role) (*User, error) {
	return scanUser(r.q.QueryRow(ctx, `
		UPDATE users SET role=$2, updated_at=now() WHERE telegram_id=$1
		RETURNING `+userColumns, tgID, string(role)))
}
