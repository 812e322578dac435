// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID           int64      `db:"id"`
	Name         string     `db:"name"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password"`
	Phone        *string    `db:"phone"`
	Role         string     `db:"role"`
	Status       string     `db:"status"`
	LastLogin    *time.Time `db:"last_login"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

const (
	RoleUser    = "user"
	RoleVIPUser = "vip_user"
	RoleAdmin   = "admin"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleVIPUser, RoleAdmin:
		return true
	}
	return false
}

func ValidStatus(status string) bool {
	return status == StatusActive || status == StatusInactive
}
