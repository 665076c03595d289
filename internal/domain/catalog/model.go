package catalog

import "time"

// Warehouse: склад, на который приходуются материалы по PO.
type Warehouse struct {
	ID        int64
	Name      string
	Active    bool
	CreatedAt time.Time
}
