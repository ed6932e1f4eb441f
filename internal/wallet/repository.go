package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zjoart/go-paystack-logistics/pkg/apperrors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	GetOrCreate(ctx context.Context, accountID, currency string) (*Wallet, error)
	GetByAccountID(ctx context.Context, accountID string) (*Wallet, error)
	// Adjust applies delta to the balance in a single conditional update and
	// returns the wallet as read afterwards. A debit that would take the
	// balance below zero fails with insufficient_funds and changes nothing.
	Adjust(ctx context.Context, accountID string, delta int64) (*Wallet, error)
	SetPin(ctx context.Context, accountID, pinHash string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetOrCreate(ctx context.Context, accountID, currency string) (*Wallet, error) {
	owner, err := uuid.Parse(accountID)
	if err != nil {
		return nil, apperrors.Validation("invalid account id")
	}

	wallet := Wallet{AccountID: owner, Currency: currency}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "account_id"}}, DoNothing: true}).
		Create(&wallet).Error
	if err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}

	return r.GetByAccountID(ctx, accountID)
}

func (r *repository) GetByAccountID(ctx context.Context, accountID string) (*Wallet, error) {
	var wallet Wallet
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("wallet not found")
		}
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) Adjust(ctx context.Context, accountID string, delta int64) (*Wallet, error) {
	res := r.db.WithContext(ctx).Model(&Wallet{}).
		Where("account_id = ? AND balance + ? >= 0", accountID, delta).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("adjust balance: %w", res.Error)
	}

	wallet, err := r.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if res.RowsAffected == 0 {
		return wallet, apperrors.New(apperrors.KindInsufficientFunds, "insufficient balance").
			WithDetail("balance", wallet.Balance).
			WithDetail("requested", -delta)
	}
	return wallet, nil
}

func (r *repository) SetPin(ctx context.Context, accountID, pinHash string) error {
	res := r.db.WithContext(ctx).Model(&Wallet{}).
		Where("account_id = ? AND (pin_hash = '' OR pin_hash IS NULL)", accountID).
		Update("pin_hash", pinHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByAccountID(ctx, accountID); err != nil {
			return err
		}
		return apperrors.Validation("wallet PIN already set")
	}
	return nil
}
