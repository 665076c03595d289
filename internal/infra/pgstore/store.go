// Package pgstore связывает сверку с репозиториями Postgres.
package pgstore

import (
	"context"

	"github.com/Spok95/po-tracker/internal/domain/inventory"
	"github.com/Spok95/po-tracker/internal/domain/purchaseorders"
	"github.com/Spok95/po-tracker/internal/domain/reconciliation"
	"github.com/Spok95/po-tracker/internal/domain/receipts"
	"github.com/Spok95/po-tracker/internal/infra/db"
	"github.com/google/uuid"
)

type reader struct {
	pos *purchaseorders.Repo
	rcs *receipts.Repo
}

func newReader(q db.DBTX) reader {
	return reader{pos: purchaseorders.NewRepo(q), rcs: receipts.NewRepo(q)}
}

func (r reader) GetPurchaseOrder(ctx context.Context, id int64) (*purchaseorders.PurchaseOrder, error) {
	return r.pos.GetByID(ctx, id)
}

func (r reader) ListMaterialLines(ctx context.Context, originalID int64) ([]purchaseorders.Material, error) {
	return r.pos.ListMaterials(ctx, originalID)
}

func (r reader) ListLineageReceipts(ctx context.Context, originalID int64) ([]receipts.Receipt, error) {
	return r.rcs.ListByLineage(ctx, originalID)
}

func (r reader) ListSelectionCandidates(ctx context.Context, f purchaseorders.SearchFilter) ([]purchaseorders.Listed, error) {
	return r.pos.SearchSelectable(ctx, f)
}

type Store struct {
	reader
	q db.DBTX
}

var _ reconciliation.Store = (*Store)(nil)

func New(q db.DBTX) *Store {
	return &Store{reader: newReader(q), q: q}
}

func (s *Store) InTx(ctx context.Context, fn func(tx reconciliation.Tx) error) error {
	tx, err := s.q.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&txStore{reader: newReader(tx), inv: inventory.NewRepo(tx)}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type txStore struct {
	reader
	inv *inventory.Repo
}

func (t *txStore) LockLineage(ctx context.Context, originalID int64) error {
	return t.pos.LockOriginal(ctx, originalID)
}

func (t *txStore) FindReceiptByRequestID(ctx context.Context, requestID uuid.UUID) (*receipts.Receipt, error) {
	return t.rcs.FindByRequestID(ctx, requestID)
}

func (t *txStore) InsertReceipt(ctx context.Context, rc *receipts.Receipt) error {
	return t.rcs.Insert(ctx, rc)
}

func (t *txStore) ApplyStock(ctx context.Context, rc receipts.Receipt) error {
	return t.inv.ReceiveForReceipt(ctx, rc.ReceivedBy, rc.WarehouseID, rc.MaterialCode, rc.Quantity, rc.ID, rc.Note)
}

func (t *txStore) SetLineageFullyReceived(ctx context.Context, originalID int64, v bool) error {
	return t.pos.SetLineageFullyReceived(ctx, originalID, v)
}
