package receipts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt: факт поступления материала на склад по PO.
// PurchaseOrderID: тот PO (обычно рабочий), по которому проводили приёмку;
// сверка идёт по всей родословной оригинала.
type Receipt struct {
	ID              int64
	RequestID       uuid.UUID // ключ идемпотентности повторной отправки
	PurchaseOrderID int64
	WarehouseID     int64
	MaterialCode    string
	Quantity        decimal.Decimal
	ReceivedAt      time.Time
	ReceivedBy      int64
	Note            string
	CreatedAt       time.Time
}
