// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Name         string    `db:"name"`
	Role         string    `db:"role"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

func (u *User) CanSell() bool {
	return u.Role == RoleSeller || u.Role == RoleBoth
}

func (u *User) CanBuy() bool {
	return u.Role == RoleBuyer || u.Role == RoleBoth
}

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleBoth   = "both"
)

const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
	StatusBanned    = "banned"
)

// SellerProfile holds the counters a user accumulates while selling.
type SellerProfile struct {
	UserID        string    `db:"user_id"`
	TotalSales    int       `db:"total_sales"`
	AverageRating float64   `db:"average_rating"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// BuyerProfile holds the counters a user accumulates while buying.
type BuyerProfile struct {
	UserID         string    `db:"user_id"`
	TotalPurchases int       `db:"total_purchases"`
	AverageRating  float64   `db:"average_rating"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// promotedRole returns the role a user holds after gaining capability.
func promotedRole(current, gained string) string {
	if current == gained || current == RoleBoth {
		return current
	}
	if current == "" {
		return gained
	}
	return RoleBoth
}
