package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ManuelReschke/Paywall/app/models"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when no wallet exists for the user id.
	ErrUserNotFound = errors.New("repository: user not found")
	// ErrInsufficientFunds is returned by Debit when balance < amount. The
	// balance is unchanged.
	ErrInsufficientFunds = errors.New("repository: insufficient funds")
	// ErrInvalidAmount is returned for non-positive debit/credit amounts.
	ErrInvalidAmount = errors.New("repository: amount must be positive")
	// ErrGrantConflict is returned when a still-valid grant already exists for
	// the (user, content type, content id) key.
	ErrGrantConflict = errors.New("repository: entitlement already granted")
	// ErrContentNotFound is returned by catalog lookups for unknown or
	// unpublished items.
	ErrContentNotFound = errors.New("repository: content not found")
	// ErrUnsupportedContentType is returned when a catalog has no adapter or the
	// adapter does not support the requested operation.
	ErrUnsupportedContentType = errors.New("repository: unsupported content type")
)

// WalletStore owns the per-user coin balance.
type WalletStore interface {
	// Debit atomically decrements the balance if and only if it covers amount
	// and returns the new balance.
	Debit(ctx context.Context, userID string, amount int64) (int64, error)
	// Credit unconditionally increments the balance.
	Credit(ctx context.Context, userID string, amount int64) (int64, error)
	Balance(ctx context.Context, userID string) (int64, error)
}

// LedgerStore is the append-only audit trail of balance changes.
type LedgerStore interface {
	Append(ctx context.Context, entry *models.LedgerEntry) (uint, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]models.LedgerEntry, int64, error)
	SumByUser(ctx context.Context, userID string) (int64, error)
}

// EntitlementStore keeps per-(user, content item) unlock grants.
type EntitlementStore interface {
	IsGranted(ctx context.Context, userID string, ct models.ContentType, contentID uint64, now time.Time) (bool, error)
	Find(ctx context.Context, userID string, ct models.ContentType, contentID uint64) (*models.EntitlementGrant, error)
	// Grant inserts a grant, or renews an expired one in place. A still-valid
	// grant yields ErrGrantConflict.
	Grant(ctx context.Context, grant *models.EntitlementGrant, now time.Time) error
	// GrantMany inserts all grants or fails with ErrGrantConflict if any key is
	// already taken. Callers must roll back on error.
	GrantMany(ctx context.Context, grants []models.EntitlementGrant) error
	// ListGranted returns the ids of the work's items the user currently owns.
	ListGranted(ctx context.Context, userID string, ct models.ContentType, workID uint64, now time.Time) ([]uint64, error)
}

// VipTierRepository resolves the membership flags of a user.
type VipTierRepository interface {
	TierFlags(ctx context.Context, userID string) (bypassVip, bypassCoin bool, err error)
	AssignTier(ctx context.Context, userID string, tierID *uint) error
	GetTier(ctx context.Context, id uint) (*models.VipTier, error)
}

// CatalogItem is the pricing view of one content item.
type CatalogItem struct {
	ID       uint64
	WorkID   uint64
	Price    int64
	VipGated bool
}

// WorkMember is one priced sub-item of a work.
type WorkMember struct {
	ContentID uint64
	Price     int64
}

// ContentCatalogAdapter is the per content type pricing source.
type ContentCatalogAdapter interface {
	ContentType() models.ContentType
	Lookup(ctx context.Context, contentID uint64) (*CatalogItem, error)
	PriceOf(ctx context.Context, contentID uint64) (int64, error)
	IsVipGated(ctx context.Context, contentID uint64) (bool, error)
	// WorkMembers lists priced members of a work ordered by id.
	WorkMembers(ctx context.Context, workID uint64) ([]WorkMember, error)
}

// Transactor runs fn inside one all-or-nothing database transaction. Every
// store reached through repos is bound to that transaction.
type Transactor interface {
	Transaction(ctx context.Context, fn func(repos *Repositories) error) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User        UserRepository
	Wallet      WalletStore
	Ledger      LedgerStore
	Entitlement EntitlementStore
	VipTier     VipTierRepository
	catalogs    map[models.ContentType]ContentCatalogAdapter
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Wallet:      NewWalletRepository(db),
		Ledger:      NewLedgerRepository(db),
		Entitlement: NewEntitlementRepository(db),
		VipTier:     NewVipTierRepository(db),
		catalogs:    NewCatalogAdapters(db),
	}
}

// Catalog returns the adapter for a content type.
func (r *Repositories) Catalog(ct models.ContentType) (ContentCatalogAdapter, error) {
	a, ok := r.catalogs[ct]
	if !ok {
		return nil, ErrUnsupportedContentType
	}
	return a, nil
}
