package repository

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories bound to
// the root connection
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// Transaction runs fn with a fresh set of repositories bound to one database
// transaction. A returned error or panic rolls everything back.
func (f *Factory) Transaction(ctx context.Context, fn func(repos *Repositories) error) error {
	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// GetUserRepository returns the user repository instance
func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

// GetWalletStore returns the wallet store instance
func (f *Factory) GetWalletStore() WalletStore {
	return f.GetRepositories().Wallet
}

// GetLedgerStore returns the ledger store instance
func (f *Factory) GetLedgerStore() LedgerStore {
	return f.GetRepositories().Ledger
}

// GetEntitlementStore returns the entitlement store instance
func (f *Factory) GetEntitlementStore() EntitlementStore {
	return f.GetRepositories().Entitlement
}

// GetVipTierRepository returns the VIP tier repository instance
func (f *Factory) GetVipTierRepository() VipTierRepository {
	return f.GetRepositories().VipTier
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}
