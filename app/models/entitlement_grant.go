package models

import "time"

// EntitlementGrant records that a user may access one content item. ExpiresAt
// nil means permanent. Rows are never deleted; expiry is evaluated at read time
// and an expired row may be renewed in place by a later purchase.
type EntitlementGrant struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      string      `gorm:"type:varchar(64);not null;uniqueIndex:ux_entitlement_grants_key,priority:1" json:"user_id"`
	ContentType ContentType `gorm:"type:tinyint unsigned;not null;uniqueIndex:ux_entitlement_grants_key,priority:2" json:"content_type"`
	ContentID   uint64      `gorm:"not null;uniqueIndex:ux_entitlement_grants_key,priority:3" json:"content_id"`
	TxRef       string      `gorm:"column:tx_ref;type:varchar(36);index" json:"tx_ref"`
	GrantedAt   time.Time   `gorm:"not null" json:"granted_at"`
	ExpiresAt   *time.Time  `gorm:"default:null" json:"expires_at,omitempty"`
}

// IsValidAt reports whether the grant still opens the item at now.
func (g *EntitlementGrant) IsValidAt(now time.Time) bool {
	if g == nil {
		return false
	}
	return g.ExpiresAt == nil || g.ExpiresAt.After(now)
}
