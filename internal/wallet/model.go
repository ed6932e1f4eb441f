package wallet

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Wallet holds the single balance of an account, in minor units of Currency.
// Balance never goes below zero; see Repository.Adjust.
type Wallet struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	AccountID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"account_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	Currency  string    `gorm:"not null;default:NGN" json:"currency"`
	PinHash   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

func (w *Wallet) HasPin() bool {
	return w.PinHash != ""
}
