package inventory

import (
	"github.com/shopspring/decimal"
)

type MoveType string

// MoveIn: приход по поступлению PO. Других движений трекер не пишет.
const MoveIn MoveType = "in"

type Balance struct {
	WarehouseID  int64
	MaterialCode string
	Qty          decimal.Decimal
}
