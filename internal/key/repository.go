package key

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/zjoart/go-paystack-logistics/pkg/apperrors"
	"gorm.io/gorm"
)

type Repository interface {
	CreateKey(ctx context.Context, key *APIKey) error
	FindByKey(ctx context.Context, keyValue string) (*APIKey, error)
	CountActive(ctx context.Context, userID string, now time.Time) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]APIKey, error)
	Revoke(ctx context.Context, keyID, userID string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CreateKey stores key with its Key field replaced by the hash of the raw value.
func (r *repository) CreateKey(ctx context.Context, key *APIKey) error {
	key.Key = HashKey(key.Key)
	return r.db.WithContext(ctx).Create(key).Error
}

func (r *repository) FindByKey(ctx context.Context, keyValue string) (*APIKey, error) {
	var key APIKey
	err := r.db.WithContext(ctx).Where("key = ?", HashKey(keyValue)).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("api key not found")
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *repository) CountActive(ctx context.Context, userID string, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&APIKey{}).
		Where("user_id = ? AND is_revoked = ? AND expires_at > ?", userID, false, now).
		Count(&count).Error
	return count, err
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]APIKey, error) {
	var keys []APIKey
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&keys).Error
	return keys, err
}

// Revoke is a no-op for a key that is already revoked.
func (r *repository) Revoke(ctx context.Context, keyID, userID string) error {
	if _, err := uuid.Parse(keyID); err != nil {
		return apperrors.NotFound("api key not found")
	}
	res := r.db.WithContext(ctx).Model(&APIKey{}).
		Where("id = ? AND user_id = ?", keyID, userID).
		Update("is_revoked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("api key not found")
	}
	return nil
}

func HashKey(key string) string {
	h := sha256.New()
	h.Write([]byte(key))
	return hex.EncodeToString(h.Sum(nil))
}

// MaskKey keeps the prefix and last four characters for display.
func MaskKey(key string) string {
	if len(key) <= 12 {
		return "****"
	}
	return key[:8] + "..." + key[len(key)-4:]
}

// Generate returns a fresh raw key. It is shown to the caller once.
func Generate() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "sk_live_" + hex.EncodeToString(buf), nil
}
