package reconciliation

import (
	"context"
	"log/slog"

	"github.com/Spok95/po-tracker/internal/domain/purchaseorders"
)

// Service собирает резолвер, сверку, подбор PO и приёмку за одним фасадом
// для транспорта (HTTP, бот, CLI).
type Service struct {
	store    Store
	engine   *Engine
	receiver *Receiver
}

func NewService(store Store, log *slog.Logger, m Metrics) *Service {
	return &Service{
		store:    store,
		engine:   NewEngine(store, log, m),
		receiver: NewReceiver(store, log, m),
	}
}

func (s *Service) Resolve(ctx context.Context, poID int64) (*Resolution, error) {
	return Resolve(ctx, s.store, poID)
}

func (s *Service) ResolveMaterialLines(ctx context.Context, poID int64) ([]purchaseorders.Material, error) {
	return ResolveMaterialLines(ctx, s.store, poID)
}

func (s *Service) ReceiptHistory(ctx context.Context, poID int64) ([]ReceiptEvent, error) {
	return s.engine.ReceiptHistory(ctx, poID)
}

func (s *Service) ComputeOutstanding(ctx context.Context, poID int64) ([]LineStatus, error) {
	return s.engine.ComputeOutstanding(ctx, poID)
}

func (s *Service) Reconcile(ctx context.Context, poID int64) (*Reconciliation, error) {
	return s.engine.Reconcile(ctx, poID)
}

func (s *Service) SearchSelectable(ctx context.Context, f purchaseorders.SearchFilter) ([]POSummary, error) {
	return s.engine.SearchSelectable(ctx, f)
}

func (s *Service) PostReceipt(ctx context.Context, in ReceiptInput) (*PostResult, error) {
	return s.receiver.PostReceipt(ctx, in)
}
