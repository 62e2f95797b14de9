package unlock

import (
	"errors"
	"time"

	"github.com/ManuelReschke/Paywall/app/models"
	"github.com/ManuelReschke/Paywall/internal/pkg/entitlements"
)

// Status is the typed outcome of an unlock decision. Only TransientFailure
// stands for a system error; everything else is a regular business result.
type Status string

const (
	StatusUnlocked          Status = "unlocked"
	StatusFree              Status = "free"
	StatusInsufficientFunds Status = "insufficient_funds"
	StatusNothingToUnlock   Status = "nothing_to_unlock"
	StatusNotFound          Status = "not_found"
	StatusInvalidArgument   Status = "invalid_argument"
	StatusTransientFailure  Status = "transient_failure"
)

// Success reports whether the user holds access after the call
func (s Status) Success() bool {
	return s == StatusUnlocked || s == StatusFree || s == StatusNothingToUnlock
}

// Result describes a single-item unlock.
type Result struct {
	Status       Status             `json:"status"`
	ContentType  models.ContentType `json:"content_type"`
	ContentID    uint64             `json:"content_id"`
	AlreadyOwned bool               `json:"already_owned"`
	Bypassed     bool               `json:"bypassed"`
	Charged      int64              `json:"charged"`
	Balance      *int64             `json:"balance,omitempty"`
	ExpiresAt    *time.Time         `json:"expires_at,omitempty"`
	TxRef        string             `json:"tx_ref,omitempty"`
	Err          error              `json:"-"`
}

// WholeResult describes a whole-work purchase.
type WholeResult struct {
	Status        Status             `json:"status"`
	ContentType   models.ContentType `json:"content_type"`
	WorkID        uint64             `json:"work_id"`
	OriginAmount  int64              `json:"origin_amount"`
	PaidAmount    int64              `json:"paid_amount"`
	SavedAmount   int64              `json:"saved_amount"`
	UnlockedCount int                `json:"unlocked_count"`
	UnlockedIDs   []uint64           `json:"unlocked_ids,omitempty"`
	Bypassed      bool               `json:"bypassed"`
	Balance       *int64             `json:"balance,omitempty"`
	TxRef         string             `json:"tx_ref,omitempty"`
	Err           error              `json:"-"`
}

// WorkUnlocks lists the sub-items of a work the user currently owns.
type WorkUnlocks struct {
	ContentType models.ContentType   `json:"content_type"`
	WorkID      uint64               `json:"work_id"`
	UnlockedIDs []uint64             `json:"unlocked_ids"`
	Overlay     entitlements.Overlay `json:"overlay"`
}

// Access is the read-only view of one item for one user.
type Access struct {
	ContentType models.ContentType   `json:"content_type"`
	ContentID   uint64               `json:"content_id"`
	Price       int64                `json:"price"`
	VipGated    bool                 `json:"vip_gated"`
	Unlocked    bool                 `json:"unlocked"`
	ExpiresAt   *time.Time           `json:"expires_at,omitempty"`
	CanAccess   bool                 `json:"can_access"`
	Overlay     entitlements.Overlay `json:"overlay"`
}

// statusFor turns a classified error into a result status
func statusFor(err error) Status {
	switch {
	case err == nil:
		return StatusUnlocked
	case errors.Is(err, ErrInvalidArgument):
		return StatusInvalidArgument
	case errors.Is(err, ErrNotFound):
		return StatusNotFound
	case errors.Is(err, ErrInsufficientFunds):
		return StatusInsufficientFunds
	default:
		return StatusTransientFailure
	}
}
