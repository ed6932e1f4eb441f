package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zjoart/go-paystack-logistics/pkg/apperrors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const claimAttempts = 3

type Repository interface {
	// InsertPending records a freshly initialized charge. An existing row with
	// the same reference is left untouched.
	InsertPending(ctx context.Context, tx *Transaction) error
	// Record inserts tx as given; used for wallet-internal movements.
	Record(ctx context.Context, tx *Transaction) error
	GetByReference(ctx context.Context, ref string) (*Transaction, error)
	// ClaimCompletion atomically moves ref to completed. claimed is true for
	// exactly one caller per reference; everyone else gets the current row.
	// When no row exists, fallback (if non-nil) is inserted as completed.
	ClaimCompletion(ctx context.Context, ref, gatewayTxID string, fallback *Transaction) (claimed bool, current *Transaction, err error)
	MarkFailed(ctx context.Context, ref, gatewayTxID string) (bool, error)
	FlagWarning(ctx context.Context, ref, warning string) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]Transaction, error)
	CountByAccount(ctx context.Context, accountID string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) InsertPending(ctx context.Context, tx *Transaction) error {
	tx.Status = StatusPending
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "reference"}}, DoNothing: true}).
		Create(tx).Error
}

func (r *repository) Record(ctx context.Context, tx *Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *repository) GetByReference(ctx context.Context, ref string) (*Transaction, error) {
	var tx Transaction
	if err := r.db.WithContext(ctx).Where("reference = ?", ref).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("transaction not found")
		}
		return nil, err
	}
	return &tx, nil
}

func (r *repository) ClaimCompletion(ctx context.Context, ref, gatewayTxID string, fallback *Transaction) (bool, *Transaction, error) {
	db := r.db.WithContext(ctx)

	for attempt := 0; attempt < claimAttempts; attempt++ {
		res := db.Model(&Transaction{}).
			Where("reference = ? AND status = ?", ref, StatusPending).
			Updates(map[string]interface{}{
				"status":                 StatusCompleted,
				"gateway_transaction_id": gatewayTxID,
				"updated_at":             time.Now().UTC(),
			})
		if res.Error != nil {
			return false, nil, fmt.Errorf("claim pending transaction: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			current, err := r.GetByReference(ctx, ref)
			return true, current, err
		}

		if fallback != nil {
			row := *fallback
			row.Reference = ref
			row.Status = StatusCompleted
			row.GatewayTransactionID = gatewayTxID
			res = db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "reference"}}, DoNothing: true}).
				Create(&row)
			if res.Error != nil {
				return false, nil, fmt.Errorf("insert completed transaction: %w", res.Error)
			}
			if res.RowsAffected == 1 {
				return true, &row, nil
			}
		}

		current, err := r.GetByReference(ctx, ref)
		if err != nil {
			return false, nil, err
		}
		if current.Status != StatusPending {
			return false, current, nil
		}
		// A pending row appeared between our update and insert; try again.
	}

	return false, nil, fmt.Errorf("claim transaction %s: gave up after %d attempts", ref, claimAttempts)
}

func (r *repository) MarkFailed(ctx context.Context, ref, gatewayTxID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Transaction{}).
		Where("reference = ? AND status = ?", ref, StatusPending).
		Updates(map[string]interface{}{
			"status":                 StatusFailed,
			"gateway_transaction_id": gatewayTxID,
			"updated_at":             time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FlagWarning(ctx context.Context, ref, warning string) error {
	res := r.db.WithContext(ctx).Model(&Transaction{}).
		Where("reference = ?", ref).
		Updates(map[string]interface{}{"warning": warning, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("transaction not found")
	}
	return nil
}

func (r *repository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]Transaction, error) {
	var txs []Transaction
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&txs).Error
	return txs, err
}

func (r *repository) CountByAccount(ctx context.Context, accountID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Transaction{}).Where("account_id = ?", accountID).Count(&count).Error
	return count, err
}
