package purchaseorders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Spok95/po-tracker/internal/infra/db"
	"github.com/jackc/pgx/v5"
)

type Repo struct{ q db.DBTX }

func NewRepo(q db.DBTX) *Repo { return &Repo{q: q} }

const poColumns = `
	po.id, po.po_number, po.customer_id, po.version, po.processing_type, po.po_date,
	po.status, po.total_amount, po.original_po_id, po.version_number,
	po.is_material_fully_received, po.active, po.created_by, po.created_at, po.updated_at
`

func scanPO(row pgx.Row, extra ...any) (*PurchaseOrder, error) {
	var p PurchaseOrder
	dest := []any{
		&p.ID, &p.PONumber, &p.CustomerID, &p.Version, &p.ProcessingType, &p.PODate,
		&p.Status, &p.TotalAmount, &p.OriginalPOID, &p.VersionNumber,
		&p.IsMaterialFullyReceived, &p.Active, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*PurchaseOrder, error) {
	p, err := scanPO(r.q.QueryRow(ctx, `SELECT `+poColumns+` FROM purchase_orders po WHERE po.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// GetOriginalByNumber ищет только среди оригиналов: номер уникален в их пределах.
func (r *Repo) GetOriginalByNumber(ctx context.Context, poNumber string) (*PurchaseOrder, error) {
	p, err := scanPO(r.q.QueryRow(ctx, `
		SELECT `+poColumns+`
		FROM purchase_orders po
		WHERE po.po_number = $1 AND po.original_po_id IS NULL
	`, poNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// LockOriginal блокирует строку оригинала до конца транзакции.
// Все приёмки по одной родословной сериализуются на этой блокировке.
func (r *Repo) LockOriginal(ctx context.Context, originalID int64) error {
	var id int64
	err := r.q.QueryRow(ctx, `SELECT id FROM purchase_orders WHERE id = $1 FOR UPDATE`, originalID).Scan(&id)
	if err != nil {
		return fmt.Errorf("lock purchase order %d: %w", originalID, err)
	}
	return nil
}

func (r *Repo) ListMaterials(ctx context.Context, poID int64) ([]Material, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, purchase_order_id, line_no, material_code, material_name, material_type,
		       quantity, unit, color_code, notes
		FROM purchase_order_materials
		WHERE purchase_order_id = $1
		ORDER BY line_no, id
	`, poID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Material
	for rows.Next() {
		var m Material
		if err := rows.Scan(
			&m.ID, &m.PurchaseOrderID, &m.LineNo, &m.MaterialCode, &m.MaterialName, &m.MaterialType,
			&m.Quantity, &m.Unit, &m.ColorCode, &m.Notes,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func insertPO(ctx context.Context, q db.DBTX, p *PurchaseOrder) (*PurchaseOrder, error) {
	status := p.Status
	if status == "" {
		status = StatusDraft
	}
	return scanPO(q.QueryRow(ctx, `
		INSERT INTO purchase_orders AS po
			(po_number, customer_id, version, processing_type, po_date, status,
			 total_amount, original_po_id, version_number, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING `+poColumns,
		p.PONumber, p.CustomerID, p.Version, p.ProcessingType, p.PODate, string(status),
		p.TotalAmount, p.OriginalPOID, p.VersionNumber, p.CreatedBy,
	))
}

// Import создаёт оригинал с плановыми строками и первую рабочую версию
// одной транзакцией. Оригиналы появляются только здесь.
func (r *Repo) Import(ctx context.Context, original PurchaseOrder, lines []Material, productIDs []int64) (*PurchaseOrder, *PurchaseOrder, error) {
	tx, err := r.q.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	original.OriginalPOID = nil
	original.VersionNumber = 0
	orig, err := insertPO(ctx, tx, &original)
	if err != nil {
		return nil, nil, fmt.Errorf("insert original %s: %w", original.PONumber, err)
	}

	for i, l := range lines {
		lineNo := l.LineNo
		if lineNo == 0 {
			lineNo = i + 1
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO purchase_order_materials
				(purchase_order_id, line_no, material_code, material_name, material_type,
				 quantity, unit, color_code, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, orig.ID, lineNo, l.MaterialCode, l.MaterialName, l.MaterialType,
			l.Quantity, l.Unit, l.ColorCode, l.Notes); err != nil {
			return nil, nil, fmt.Errorf("insert material line %d: %w", lineNo, err)
		}
	}

	for _, pid := range productIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO purchase_order_products (purchase_order_id, product_id)
			VALUES ($1,$2) ON CONFLICT DO NOTHING
		`, orig.ID, pid); err != nil {
			return nil, nil, fmt.Errorf("link product %d: %w", pid, err)
		}
	}

	op, err := createRevision(ctx, tx, orig, original.CreatedBy)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return orig, op, nil
}

// CreateRevision выпускает следующую рабочую версию от оригинала.
func (r *Repo) CreateRevision(ctx context.Context, originalID, createdBy int64) (*PurchaseOrder, error) {
	tx, err := r.q.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	orig, err := scanPO(tx.QueryRow(ctx, `
		SELECT `+poColumns+` FROM purchase_orders po WHERE po.id = $1 FOR UPDATE
	`, originalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !orig.IsOriginal() {
		return nil, fmt.Errorf("purchase order %d: %w", originalID, ErrNotOriginal)
	}

	op, err := createRevision(ctx, tx, orig, createdBy)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return op, nil
}

// createRevision ожидает, что строка оригинала уже заблокирована в tx.
func createRevision(ctx context.Context, tx pgx.Tx, orig *PurchaseOrder, createdBy int64) (*PurchaseOrder, error) {
	var next int
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(version_number), 0) + 1
		FROM purchase_orders WHERE original_po_id = $1
	`, orig.ID).Scan(&next); err != nil {
		return nil, fmt.Errorf("next version for %d: %w", orig.ID, err)
	}

	parent := orig.ID
	op := *orig
	op.OriginalPOID = &parent
	op.VersionNumber = next
	op.Status = StatusDraft
	op.CreatedBy = createdBy

	created, err := insertPO(ctx, tx, &op)
	if err != nil {
		return nil, fmt.Errorf("insert revision %d of %d: %w", next, orig.ID, err)
	}
	return created, nil
}

// UpdateOperation меняет рабочий PO. Для оригинала: ErrOriginalImmutable,
// для несуществующего: nil, nil.
func (r *Repo) UpdateOperation(ctx context.Context, id int64, upd OperationUpdate) (*PurchaseOrder, error) {
	var status *string
	if upd.Status != nil {
		s := string(*upd.Status)
		status = &s
	}
	p, err := scanPO(r.q.QueryRow(ctx, `
		UPDATE purchase_orders AS po SET
			status       = COALESCE($2, po.status),
			version      = COALESCE($3, po.version),
			total_amount = COALESCE($4, po.total_amount),
			updated_at   = now()
		WHERE po.id = $1 AND po.original_po_id IS NOT NULL
		RETURNING `+poColumns,
		id, status, upd.Version, upd.TotalAmount,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.immutableOrMissing(ctx, id)
	}
	return p, err
}

// Deactivate снимает рабочий PO с учёта. Оригинал не трогаем: ErrOriginalImmutable.
func (r *Repo) Deactivate(ctx context.Context, id int64) (*PurchaseOrder, error) {
	p, err := scanPO(r.q.QueryRow(ctx, `
		UPDATE purchase_orders AS po SET active = FALSE, updated_at = now()
		WHERE po.id = $1 AND po.original_po_id IS NOT NULL
		RETURNING `+poColumns, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.immutableOrMissing(ctx, id)
	}
	return p, err
}

// immutableOrMissing: nil, если PO нет, иначе ErrOriginalImmutable.
func (r *Repo) immutableOrMissing(ctx context.Context, id int64) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	return fmt.Errorf("purchase order %d: %w", id, ErrOriginalImmutable)
}

// SetLineageFullyReceived обновляет кэш-флаг у всех рабочих версий оригинала.
// Сам оригинал не меняется.
func (r *Repo) SetLineageFullyReceived(ctx context.Context, originalID int64, v bool) error {
	_, err := r.q.Exec(ctx, `
		UPDATE purchase_orders
		SET is_material_fully_received = $2, updated_at = now()
		WHERE original_po_id = $1
		  AND is_material_fully_received <> $2
	`, originalID, v)
	return err
}

// ListOperations: рабочие PO, свежие сверху. Оригиналы в списки не попадают.
func (r *Repo) ListOperations(ctx context.Context, onlyActive bool) ([]Listed, error) {
	q := `
		SELECT ` + poColumns + `, COALESCE(c.name, '')
		FROM purchase_orders po
		LEFT JOIN customers c ON c.id = po.customer_id
		WHERE po.original_po_id IS NOT NULL
	`
	if onlyActive {
		q += " AND po.active = TRUE"
	}
	q += " ORDER BY po.created_at DESC, po.id DESC"
	return r.listed(ctx, q)
}

// SearchSelectable: кандидаты для новой приёмки: активные рабочие PO,
// у которых кэш-флаг полной приёмки ещё не выставлен.
func (r *Repo) SearchSelectable(ctx context.Context, f SearchFilter) ([]Listed, error) {
	term := strings.TrimSpace(f.Term)
	return r.listed(ctx, `
		SELECT `+poColumns+`, COALESCE(c.name, '')
		FROM purchase_orders po
		LEFT JOIN customers c ON c.id = po.customer_id
		WHERE po.original_po_id IS NOT NULL
		  AND po.active = TRUE
		  AND po.is_material_fully_received = FALSE
		  AND ($1 = '' OR po.po_number ILIKE $2 OR c.name ILIKE $2)
		  AND ($3::bigint = 0 OR po.customer_id = $3)
		ORDER BY po.created_at DESC, po.id DESC
	`, term, db.LikePattern(term), f.CustomerID)
}

func (r *Repo) listed(ctx context.Context, sql string, args ...any) ([]Listed, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Listed
	for rows.Next() {
		var name string
		p, err := scanPO(rows, &name)
		if err != nil {
			return nil, err
		}
		out = append(out, Listed{PurchaseOrder: *p, CustomerName: name})
	}
	return out, rows.Err()
}
