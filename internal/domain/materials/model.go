package materials

import "time"

type Unit string

const (
	UnitPcs Unit = "pcs"
	UnitM   Unit = "m"
	UnitKg  Unit = "kg"
)

type Material struct {
	ID        int64
	Code      string // бизнес-код, по нему сверяются поступления
	Name      string
	Type      string // ткань, фурнитура, упаковка...
	Unit      Unit
	Active    bool
	CreatedAt time.Time
}
