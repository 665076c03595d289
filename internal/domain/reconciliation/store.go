package reconciliation

import (
	"context"

	"github.com/Spok95/po-tracker/internal/domain/purchaseorders"
	"github.com/Spok95/po-tracker/internal/domain/receipts"
	"github.com/google/uuid"
)

// Reader: чтение, нужное резолверу, сверке и подбору PO.
// Отсутствующая запись: nil, nil, как в репозиториях.
type Reader interface {
	GetPurchaseOrder(ctx context.Context, id int64) (*purchaseorders.PurchaseOrder, error)
	ListMaterialLines(ctx context.Context, originalID int64) ([]purchaseorders.Material, error)
	ListLineageReceipts(ctx context.Context, originalID int64) ([]receipts.Receipt, error)
	ListSelectionCandidates(ctx context.Context, f purchaseorders.SearchFilter) ([]purchaseorders.Listed, error)
}

// Tx: операции внутри транзакции записи поступления.
type Tx interface {
	Reader
	LockLineage(ctx context.Context, originalID int64) error
	FindReceiptByRequestID(ctx context.Context, requestID uuid.UUID) (*receipts.Receipt, error)
	InsertReceipt(ctx context.Context, rc *receipts.Receipt) error
	ApplyStock(ctx context.Context, rc receipts.Receipt) error
	SetLineageFullyReceived(ctx context.Context, originalID int64, v bool) error
}

type Store interface {
	Reader
	// InTx выполняет fn в одной транзакции: ошибка fn откатывает всё.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}
