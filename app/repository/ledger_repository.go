package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/Paywall/app/models"
	"gorm.io/gorm"
)

// ledgerRepository implements LedgerStore. Entries are never updated or deleted.
type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository instance
func NewLedgerRepository(db *gorm.DB) LedgerStore {
	return &ledgerRepository{db: db}
}

// Append writes one entry and returns its id
func (r *ledgerRepository) Append(ctx context.Context, entry *models.LedgerEntry) (uint, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return 0, err
	}
	return entry.ID, nil
}

// ListByUser returns a page of a user's entries, newest first, and the total count
func (r *ledgerRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]models.LedgerEntry, int64, error) {
	db := r.db.WithContext(ctx)
	var total int64
	if err := db.Model(&models.LedgerEntry{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var entries []models.LedgerEntry
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&entries).Error
	return entries, total, err
}

// SumByUser returns the net of all deltas recorded for a user
func (r *ledgerRepository) SumByUser(ctx context.Context, userID string) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(delta), 0)").
		Scan(&sum).Error
	return sum, err
}
