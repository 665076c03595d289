package products

import "time"

type Product struct {
	ID         int64
	Code       string
	Name       string
	CustomerID *int64 // владелец изделия, если изделие клиентское
	Active     bool
	CreatedAt  time.Time
}

// BelongsTo: изделие без владельца подходит любому клиенту.
func (p Product) BelongsTo(customerID int64) bool {
	return p.CustomerID == nil || *p.CustomerID == customerID
}
