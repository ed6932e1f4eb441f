package notification

import (
	"context"
	"time"

	"github.com/zjoart/go-paystack-logistics/pkg/apperrors"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	CreateStaff(ctx context.Context, n *StaffNotification) error
	ListForAccount(ctx context.Context, accountID string, limit, offset int) ([]Notification, error)
	ListForRoles(ctx context.Context, roles []string, limit, offset int) ([]StaffNotification, error)
	MarkRead(ctx context.Context, id, accountID string) error
	MarkStaffRead(ctx context.Context, id string, roles []string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, n *Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *repository) CreateStaff(ctx context.Context, n *StaffNotification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *repository) ListForAccount(ctx context.Context, accountID string, limit, offset int) ([]Notification, error) {
	var out []Notification
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, err
}

func (r *repository) ListForRoles(ctx context.Context, roles []string, limit, offset int) ([]StaffNotification, error) {
	var out []StaffNotification
	err := r.db.WithContext(ctx).Where("role IN ?", roles).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, err
}

func (r *repository) MarkRead(ctx context.Context, id, accountID string) error {
	return markRead(r.db.WithContext(ctx).Model(&Notification{}).Where("id = ? AND account_id = ?", id, accountID))
}

func (r *repository) MarkStaffRead(ctx context.Context, id string, roles []string) error {
	return markRead(r.db.WithContext(ctx).Model(&StaffNotification{}).Where("id = ? AND role IN ?", id, roles))
}

// markRead is idempotent: marking an already-read row again succeeds.
func markRead(scope *gorm.DB) error {
	var count int64
	if err := scope.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperrors.NotFound("notification not found")
	}

	return scope.Session(&gorm.Session{}).
		Where("is_read = ?", false).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now().UTC()}).Error
}
