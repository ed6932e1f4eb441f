package ledger

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

func (d Direction) Valid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether s can no longer change.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo enforces pending -> completed|failed and nothing else.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && next.Terminal()
}

const (
	GatewayPaystack = "paystack"
	GatewayWallet   = "wallet"
)

// Transaction is one payment attempt keyed by its reference. Rows are never
// deleted; they are the audit trail for every wallet mutation.
type Transaction struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Reference            string         `gorm:"uniqueIndex;not null" json:"reference"`
	AccountID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"account_id"`
	Amount               int64          `gorm:"not null" json:"amount"`
	Currency             string         `gorm:"not null" json:"currency"`
	Direction            Direction      `gorm:"not null" json:"direction"`
	Status               Status         `gorm:"not null;index" json:"status"`
	GatewayName          string         `gorm:"not null" json:"gateway_name"`
	GatewayTransactionID string         `json:"gateway_transaction_id,omitempty"`
	Metadata             map[string]any `gorm:"type:text;serializer:json" json:"metadata,omitempty"`
	// Warning is set when the transaction is completed but the wallet could
	// not be brought in line with it. Non-empty rows need operator attention.
	Warning   string    `json:"warning,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Signed returns the amount as a wallet delta.
func (t *Transaction) Signed() int64 {
	if t.Direction == DirectionDebit {
		return -t.Amount
	}
	return t.Amount
}
