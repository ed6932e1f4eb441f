package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is an account's operational role. Staff roles gate shipment status
// transitions; customers only own shipments and wallets.
type Role string

const (
	RoleCustomer       Role = "customer"
	RoleWarehouseStaff Role = "warehouse_staff"
	RoleLogisticsStaff Role = "logistics_staff"
	RoleDeliveryStaff  Role = "delivery_staff"
	RoleAdmin          Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleWarehouseStaff, RoleLogisticsStaff, RoleDeliveryStaff, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether r is an operator role (admin included).
func (r Role) IsStaff() bool {
	return r.Valid() && r != RoleCustomer
}

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name      string    `json:"name"`
	Email     string    `gorm:"uniqueIndex" json:"email"`
	Role      Role      `gorm:"not null;default:customer" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	return nil
}
