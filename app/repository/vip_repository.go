package repository

import (
	"context"
	"errors"

	"github.com/ManuelReschke/Paywall/app/models"
	"gorm.io/gorm"
)

// vipTierRepository implements VipTierRepository
type vipTierRepository struct {
	db *gorm.DB
}

// NewVipTierRepository creates a new VIP tier repository instance
func NewVipTierRepository(db *gorm.DB) VipTierRepository {
	return &vipTierRepository{db: db}
}

// TierFlags joins the user to its tier. A user without a tier, or with a
// dangling tier id, gets both flags false.
func (r *vipTierRepository) TierFlags(ctx context.Context, userID string) (bool, bool, error) {
	var row struct {
		ID         uint
		BypassVip  *bool
		BypassCoin *bool
	}
	err := r.db.WithContext(ctx).
		Table("users").
		Select("users.id, vip_tiers.bypass_vip, vip_tiers.bypass_coin").
		Joins("LEFT JOIN vip_tiers ON vip_tiers.id = users.vip_tier_id").
		Where("users.uuid = ?", userID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, false, ErrUserNotFound
		}
		return false, false, err
	}
	bypassVip := row.BypassVip != nil && *row.BypassVip
	bypassCoin := row.BypassCoin != nil && *row.BypassCoin
	return bypassVip, bypassCoin, nil
}

// AssignTier sets or clears the user's tier
func (r *vipTierRepository) AssignTier(ctx context.Context, userID string, tierID *uint) error {
	db := r.db.WithContext(ctx)
	if tierID != nil {
		if _, err := r.GetTier(ctx, *tierID); err != nil {
			return err
		}
	}
	res := db.Model(&models.User{}).Where("uuid = ?", userID).Update("vip_tier_id", tierID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(&models.User{}).Where("uuid = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrUserNotFound
		}
	}
	return nil
}

// GetTier retrieves a tier by id
func (r *vipTierRepository) GetTier(ctx context.Context, id uint) (*models.VipTier, error) {
	var tier models.VipTier
	if err := r.db.WithContext(ctx).First(&tier, id).Error; err != nil {
		return nil, err
	}
	return &tier, nil
}
