package wallet

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ManuelReschke/Paywall/app/models"
	"github.com/ManuelReschke/Paywall/app/repository"
	"github.com/ManuelReschke/Paywall/internal/pkg/entitlements"
	"github.com/google/uuid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps the row offset well inside int range for any page size
	MaxPage         = 1_000_000
)

// ErrInvalidTopUp is returned for empty users or non-positive amounts
var ErrInvalidTopUp = errors.New("wallet: user and positive amount are required")

// Store is the persistence the wallet service needs
type Store interface {
	repository.Transactor
	GetRepositories() *repository.Repositories
}

// OverlayResolver resolves the VIP overlay of a user
type OverlayResolver interface {
	Resolve(ctx context.Context, userID string) (entitlements.Overlay, error)
}

// Summary is the wallet view of one user
type Summary struct {
	UserID  string               `json:"user_id"`
	Balance int64                `json:"balance"`
	Overlay entitlements.Overlay `json:"overlay"`
}

// TopUpResult is returned after crediting coins
type TopUpResult struct {
	UserID  string `json:"user_id"`
	Amount  int64  `json:"amount"`
	Balance int64  `json:"balance"`
	EntryID uint   `json:"entry_id"`
	TxRef   string `json:"tx_ref"`
}

// History is one page of a user's ledger, newest first
type History struct {
	Entries  []models.LedgerEntry `json:"entries"`
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}

// Service manages balances outside the unlock flow.
type Service struct {
	store    Store
	overlays OverlayResolver
	now      func() time.Time
}

// NewService creates a wallet service
func NewService(store Store, overlays OverlayResolver) *Service {
	return &Service{store: store, overlays: overlays, now: time.Now}
}

// TopUp credits amount coins and records a top-up ledger entry in the same transaction.
func (s *Service) TopUp(ctx context.Context, userID string, amount int64) (*TopUpResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || amount <= 0 {
		return nil, ErrInvalidTopUp
	}

	result := &TopUpResult{UserID: userID, Amount: amount, TxRef: uuid.NewString()}
	err := s.store.Transaction(ctx, func(repos *repository.Repositories) error {
		balance, err := repos.Wallet.Credit(ctx, userID, amount)
		if err != nil {
			return err
		}
		id, err := repos.Ledger.Append(ctx, &models.LedgerEntry{
			UserID:    userID,
			Delta:     amount,
			Scene:     models.SceneTopUp,
			TxRef:     result.TxRef,
			CreatedAt: s.now().UTC().Truncate(time.Second),
		})
		if err != nil {
			return err
		}
		result.Balance = balance
		result.EntryID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Summary returns the balance and overlay flags of a user
func (s *Service) Summary(ctx context.Context, userID string) (*Summary, error) {
	repos := s.store.GetRepositories()
	balance, err := repos.Wallet.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	overlay, err := s.overlays.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Summary{UserID: userID, Balance: balance, Overlay: overlay}, nil
}

// History returns one page of ledger entries. Page numbers start at 1 and
// are capped at MaxPage.
func (s *Service) History(ctx context.Context, userID string, page, pageSize int) (*History, error) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	entries, total, err := s.store.GetRepositories().Ledger.ListByUser(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.LedgerEntry{}
	}
	return &History{Entries: entries, Total: total, Page: page, PageSize: pageSize}, nil
}
