package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification is addressed to a single account, usually a shipment owner.
type Notification struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	AccountID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"account_id"`
	Type       string     `gorm:"not null" json:"type"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	ShipmentID string     `gorm:"index" json:"shipment_id,omitempty"`
	IsRead     bool       `gorm:"not null;default:false" json:"is_read"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// StaffNotification is addressed to everyone holding Role.
type StaffNotification struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Role       string     `gorm:"not null;index" json:"role"`
	Type       string     `gorm:"not null" json:"type"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	ShipmentID string     `gorm:"index" json:"shipment_id,omitempty"`
	IsRead     bool       `gorm:"not null;default:false" json:"is_read"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (n *StaffNotification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

const (
	TypeShipmentStatus = "shipment_status"
	TypeShipmentReady  = "shipment_ready"
)

// Message is the content of a notification before it is addressed.
type Message struct {
	Type       string
	Title      string
	Body       string
	ShipmentID string
}
