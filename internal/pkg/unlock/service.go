package unlock

import (
	"context"
	"errors"
	"time"

	"github.com/ManuelReschke/Paywall/app/models"
	"github.com/ManuelReschke/Paywall/app/repository"
	"github.com/ManuelReschke/Paywall/internal/pkg/entitlements"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

const (
	DefaultTxTimeout       = 5 * time.Second
	DefaultDiscountPercent = 80
)

// Config holds the tunables of the unlock engine
type Config struct {
	VideoTTL        time.Duration
	TxTimeout       time.Duration
	DiscountPercent int64
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		VideoTTL:        models.DefaultVideoUnlockTTL,
		TxTimeout:       DefaultTxTimeout,
		DiscountPercent: DefaultDiscountPercent,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.VideoTTL <= 0 {
		c.VideoTTL = d.VideoTTL
	}
	if c.TxTimeout <= 0 {
		c.TxTimeout = d.TxTimeout
	}
	if c.DiscountPercent <= 0 || c.DiscountPercent > 100 {
		c.DiscountPercent = d.DiscountPercent
	}
	return c
}

// Store is what the engine needs from the persistence layer
type Store interface {
	repository.Transactor
	GetRepositories() *repository.Repositories
}

// OverlayResolver resolves the VIP overlay of a user
type OverlayResolver interface {
	Resolve(ctx context.Context, userID string) (entitlements.Overlay, error)
}

// Service decides and executes unlocks for every content type.
type Service struct {
	store    Store
	overlays OverlayResolver
	cfg      Config
	now      func() time.Time
	newTxRef func() string
}

// NewService creates an unlock service
func NewService(store Store, overlays OverlayResolver, cfg Config) *Service {
	return &Service{
		store:    store,
		overlays: overlays,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		newTxRef: func() string { return uuid.NewString() },
	}
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Config returns the effective configuration
func (s *Service) Config() Config {
	return s.cfg
}

func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// chargeMode is how an item that is not yet owned gets opened
type chargeMode int

const (
	chargePay chargeMode = iota
	chargeFree
	chargeBypass
)

// decide applies pricing and the VIP overlay to a catalog item. Price 0 is
// always free. A VIP-gated item is opened by BypassVip; otherwise it is sold
// like any other item.
func decide(item *repository.CatalogItem, overlay entitlements.Overlay) chargeMode {
	switch {
	case item.Price == 0:
		return chargeFree
	case item.VipGated && overlay.BypassVip:
		return chargeBypass
	case overlay.BypassCoin:
		return chargeBypass
	default:
		return chargePay
	}
}

// Unlock opens one content item for userID. Business outcomes are reported
// through Result.Status; Result.Err is set for every non-success status.
func (s *Service) Unlock(ctx context.Context, userID string, ct models.ContentType, contentID uint64) Result {
	res := Result{ContentType: ct, ContentID: contentID}
	if userID == "" || !ct.Valid() || contentID == 0 {
		return s.fail(res, ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()

	overlay, err := s.overlays.Resolve(ctx, userID)
	if err != nil {
		return s.fail(res, classify(err))
	}

	now := s.clock()
	txRef := s.newTxRef()

	err = s.store.Transaction(ctx, func(repos *repository.Repositories) error {
		catalog, err := repos.Catalog(ct)
		if err != nil {
			return err
		}
		item, err := catalog.Lookup(ctx, contentID)
		if err != nil {
			return err
		}

		granted, err := repos.Entitlement.IsGranted(ctx, userID, ct, contentID, now)
		if err != nil {
			return err
		}
		if granted {
			res.AlreadyOwned = true
			return nil
		}

		mode := decide(item, overlay)

		grant := &models.EntitlementGrant{
			UserID:      userID,
			ContentType: ct,
			ContentID:   contentID,
			TxRef:       txRef,
			GrantedAt:   now,
			ExpiresAt:   ct.ExpiresAt(now, s.cfg.VideoTTL),
		}
		// The grant goes in before the debit. Losing a race on the unique key
		// means a concurrent request already bought the item.
		if err := repos.Entitlement.Grant(ctx, grant, now); err != nil {
			if errors.Is(err, repository.ErrGrantConflict) {
				res.AlreadyOwned = true
				return nil
			}
			return err
		}
		res.ExpiresAt = grant.ExpiresAt

		switch mode {
		case chargeFree:
			return nil
		case chargeBypass:
			res.Bypassed = true
			_, err := repos.Ledger.Append(ctx, &models.LedgerEntry{
				UserID:      userID,
				Delta:       0,
				ContentType: ct,
				Scene:       models.SceneVipBypass,
				ContentID:   contentID,
				TxRef:       txRef,
				CreatedAt:   now,
			})
			return err
		}

		balance, err := repos.Wallet.Debit(ctx, userID, item.Price)
		if err != nil {
			return err
		}
		if _, err := repos.Ledger.Append(ctx, &models.LedgerEntry{
			UserID:      userID,
			Delta:       -item.Price,
			ContentType: ct,
			Scene:       models.UnlockScene(ct),
			ContentID:   contentID,
			TxRef:       txRef,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		res.Charged = item.Price
		res.Balance = &balance
		return nil
	})
	if err != nil {
		return s.fail(res, classify(err))
	}

	switch {
	case res.AlreadyOwned:
		res.Status = StatusUnlocked
		res.ExpiresAt = nil
		res.Bypassed = false
	case res.Charged == 0 && !res.Bypassed:
		res.Status = StatusFree
		res.TxRef = txRef
	default:
		res.Status = StatusUnlocked
		res.TxRef = txRef
	}
	return res
}

func (s *Service) fail(res Result, err error) Result {
	res.Status = statusFor(err)
	res.Err = err
	res.Balance = nil
	res.Charged = 0
	res.ExpiresAt = nil
	res.Bypassed = false
	res.AlreadyOwned = false
	if res.Status == StatusTransientFailure {
		s.logFailure(res.ContentType.String(), res.ContentID, err)
	}
	return res
}

func (s *Service) logFailure(op string, id uint64, err error) {
	fiberlog.Errorf("[Unlock] %s %d failed: %v", op, id, err)
}
