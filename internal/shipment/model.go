package shipment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusProcessing     Status = "processing"
	StatusInTransit      Status = "in_transit"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
	StatusReturned       Status = "returned"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusInTransit,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
	StatusReturned,
}

func (s Status) Valid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal statuses have no outgoing edges, for admins included.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusReturned
}

// Shipment is owned by the account that paid for it. Warning is set when the
// shipment exists but its debit did not go through.
type Shipment struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	OwnerAccountID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_account_id"`
	TrackingNumber   string     `gorm:"uniqueIndex;not null" json:"tracking_number"`
	Status           Status     `gorm:"not null;default:pending;index" json:"status"`
	AmountCharged    int64      `gorm:"not null" json:"amount_charged"`
	Currency         string     `gorm:"not null;default:NGN" json:"currency"`
	RecipientName    string     `json:"recipient_name"`
	RecipientAddress string     `json:"recipient_address"`
	Warning          string     `json:"warning,omitempty"`
	LineItems        []LineItem `gorm:"foreignKey:ShipmentID" json:"line_items,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (s *Shipment) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type LineItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ShipmentID  uuid.UUID `gorm:"type:uuid;not null;index" json:"shipment_id"`
	Description string    `gorm:"not null" json:"description"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	UnitPrice   int64     `gorm:"not null" json:"unit_price"`
	CreatedAt   time.Time `json:"created_at"`
}

func (l *LineItem) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Event is one row of a shipment's status history, written together with the
// status change it records.
type Event struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ShipmentID uuid.UUID `gorm:"type:uuid;not null;index" json:"shipment_id"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `gorm:"not null" json:"to_status"`
	ActorID    uuid.UUID `gorm:"type:uuid" json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Event) TableName() string {
	return "shipment_events"
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
