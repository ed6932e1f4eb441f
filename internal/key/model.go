package key

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// APIKey lets server-to-server callers (e.g. a merchant's order system) act
// for an account without a browser session. Only the SHA-256 of the raw key
// is stored.
type APIKey struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Key         string         `gorm:"uniqueIndex;not null" json:"-"`
	MaskedKey   string         `json:"masked_key"`
	Permissions pq.StringArray `gorm:"type:text[]" json:"permissions"`
	Name        string         `json:"name"`
	ExpiresAt   time.Time      `json:"expires_at"`
	IsRevoked   bool           `gorm:"default:false" json:"is_revoked"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (k *APIKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}

// Usable reports whether the key may authenticate a request at now.
func (k *APIKey) Usable(now time.Time) bool {
	return !k.IsRevoked && now.Before(k.ExpiresAt)
}

type Permission string

const (
	PermissionRead       Permission = "READ"
	PermissionDeposit    Permission = "DEPOSIT"
	PermissionShipment   Permission = "SHIPMENT"
	PermissionOperations Permission = "OPERATIONS"
)

var AllowedPermissions = []Permission{
	PermissionRead,
	PermissionDeposit,
	PermissionShipment,
	PermissionOperations,
}

// MaxActiveKeys caps the unrevoked, unexpired keys an account may hold.
const MaxActiveKeys = 5
