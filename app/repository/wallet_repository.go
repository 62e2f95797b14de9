package repository

import (
	"context"
	"errors"

	"github.com/ManuelReschke/Paywall/app/models"
	"gorm.io/gorm"
)

// walletRepository implements WalletStore on the users.coin column
type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a new wallet repository instance
func NewWalletRepository(db *gorm.DB) WalletStore {
	return &walletRepository{db: db}
}

// Debit runs `UPDATE users SET coin = coin - ? WHERE uuid = ? AND coin >= ?`
// and inspects the affected-row count. The balance is never read and compared
// in application code.
func (r *walletRepository) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	db := r.db.WithContext(ctx)
	res := db.Model(&models.User{}).
		Where("uuid = ? AND coin >= ?", userID, amount).
		UpdateColumn("coin", gorm.Expr("coin - ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		exists, err := r.exists(db, userID)
		if err != nil {
			return 0, err
		}
		if !exists {
			return 0, ErrUserNotFound
		}
		return 0, ErrInsufficientFunds
	}
	return r.balance(db, userID)
}

// Credit increments the balance unconditionally
func (r *walletRepository) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	db := r.db.WithContext(ctx)
	res := db.Model(&models.User{}).
		Where("uuid = ?", userID).
		UpdateColumn("coin", gorm.Expr("coin + ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrUserNotFound
	}
	return r.balance(db, userID)
}

// Balance returns the current coin balance
func (r *walletRepository) Balance(ctx context.Context, userID string) (int64, error) {
	return r.balance(r.db.WithContext(ctx), userID)
}

func (r *walletRepository) balance(db *gorm.DB, userID string) (int64, error) {
	var user models.User
	err := db.Select("id", "coin").Where("uuid = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return user.Coin, nil
}

func (r *walletRepository) exists(db *gorm.DB, userID string) (bool, error) {
	var count int64
	if err := db.Model(&models.User{}).Where("uuid = ?", userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
