package customers

import "time"

type Customer struct {
	ID        int64
	Code      string
	Name      string
	Active    bool
	CreatedAt time.Time
}
