package shipment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zjoart/go-paystack-logistics/pkg/apperrors"
	"gorm.io/gorm"
)

type Repository interface {
	// Create inserts the shipment and its line items as one unit.
	Create(ctx context.Context, s *Shipment) error
	GetByID(ctx context.Context, id string) (*Shipment, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Shipment, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	// CompareAndSetStatus moves the shipment to `to` only if it is still in
	// `from`, recording event in the same transaction. false means another
	// writer got there first.
	CompareAndSetStatus(ctx context.Context, id string, from, to Status, event *Event) (bool, error)
	ListEvents(ctx context.Context, id string) ([]Event, error)
	FlagWarning(ctx context.Context, id, warning string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, s *Shipment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := s.LineItems
		s.LineItems = nil
		if err := tx.Create(s).Error; err != nil {
			return fmt.Errorf("create shipment: %w", err)
		}

		for i := range items {
			items[i].ShipmentID = s.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return fmt.Errorf("create line items: %w", err)
			}
		}
		s.LineItems = items
		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, id string) (*Shipment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NotFound("shipment not found")
	}

	var s Shipment
	err := r.db.WithContext(ctx).Preload("LineItems").Where("id = ?", id).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("shipment not found")
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Shipment, error) {
	var out []Shipment
	err := r.db.WithContext(ctx).Where("owner_account_id = ?", ownerID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, err
}

func (r *repository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Shipment{}).Where("owner_account_id = ?", ownerID).Count(&count).Error
	return count, err
}

func (r *repository) CompareAndSetStatus(ctx context.Context, id string, from, to Status, event *Event) (bool, error) {
	swapped := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Shipment{}).
			Where("id = ? AND status = ?", id, from).
			Updates(map[string]interface{}{"status": to, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if event != nil {
			if err := tx.Create(event).Error; err != nil {
				return fmt.Errorf("record status event: %w", err)
			}
		}
		swapped = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return swapped, nil
}

func (r *repository) ListEvents(ctx context.Context, id string) ([]Event, error) {
	var out []Event
	err := r.db.WithContext(ctx).Where("shipment_id = ?", id).Order("created_at asc").Find(&out).Error
	return out, err
}

func (r *repository) FlagWarning(ctx context.Context, id, warning string) error {
	res := r.db.WithContext(ctx).Model(&Shipment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"warning": warning, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("shipment not found")
	}
	return nil
}
