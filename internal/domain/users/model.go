package users

import (
	"strings"
	"time"
)

type Role string

const (
	RoleStorekeeper Role = "storekeeper" // кладовщик: приёмка материалов
	RoleAdmin       Role = "admin"       // плюс импорт PO
)

type User struct {
	ID         int64
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
	Role       Role
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// DisplayName: имя для журналов и отчётов.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return "—"
}

type Telegram struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}
