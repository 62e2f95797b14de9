package models

import "time"

// VipTier is read-only reference data describing what a membership card waives.
// The two flags are independent: BypassVipContent opens VIP-gated videos,
// BypassCoinContent makes every coin-priced item free.
type VipTier struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"type:varchar(100);not null" json:"name"`
	BypassVipContent  bool      `gorm:"column:bypass_vip;not null;default:false" json:"bypass_vip"`
	BypassCoinContent bool      `gorm:"column:bypass_coin;not null;default:false" json:"bypass_coin"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
