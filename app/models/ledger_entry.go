package models

import (
	"strings"
	"time"
)

// Ledger scenes.
const (
	SceneWholeUnlock = "whole-unlock"
	SceneVipBypass   = "vip-bypass"
	SceneTopUp       = "top-up"
)

// LedgerEntry is an append-only audit row for one balance change. Delta is
// negative for spends. For whole-work purchases ContentID holds the work id.
type LedgerEntry struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      string      `gorm:"type:varchar(64);not null;index:idx_ledger_entries_user_created,priority:1" json:"user_id"`
	Delta       int64       `gorm:"not null" json:"delta"`
	ContentType ContentType `gorm:"type:tinyint unsigned;not null;default:0" json:"content_type"`
	Scene       string      `gorm:"type:varchar(50);not null" json:"scene"`
	ContentID   uint64      `gorm:"not null;default:0" json:"content_id"`
	TxRef       string      `gorm:"column:tx_ref;type:varchar(36);index" json:"tx_ref"`
	CreatedAt   time.Time   `gorm:"not null;index:idx_ledger_entries_user_created,priority:2" json:"created_at"`
}

// UnlockScene is the ledger scene label for a single-item purchase.
func UnlockScene(t ContentType) string {
	return "unlock-" + strings.ReplaceAll(t.String(), "_", "-")
}
