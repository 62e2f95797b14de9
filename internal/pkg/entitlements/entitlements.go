package entitlements

import (
	"context"
	"time"

	"github.com/ManuelReschke/Paywall/app/repository"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// DefaultOverlayTTL bounds how long a cached overlay may lag behind a tier change
const DefaultOverlayTTL = 5 * time.Minute

// Overlay is the pair of membership flags applied on top of item pricing.
// BypassVip opens VIP-gated videos, BypassCoin waives coin prices. The flags
// are independent.
type Overlay struct {
	BypassVip  bool `json:"bypass_vip"`
	BypassCoin bool `json:"bypass_coin"`
}

// Any reports whether at least one flag is set
func (o Overlay) Any() bool {
	return o.BypassVip || o.BypassCoin
}

// OverlayCache stores resolved overlays per user
type OverlayCache interface {
	GetOverlay(ctx context.Context, userID string) (Overlay, bool, error)
	SetOverlay(ctx context.Context, userID string, overlay Overlay, ttl time.Duration) error
	DeleteOverlay(ctx context.Context, userID string) error
}

// Resolver turns a user's membership tier into an Overlay. The cache is
// optional; cache failures fall through to the database.
type Resolver struct {
	tiers repository.VipTierRepository
	cache OverlayCache
	ttl   time.Duration
}

// NewResolver creates a resolver. cache may be nil; ttl <= 0 uses DefaultOverlayTTL.
func NewResolver(tiers repository.VipTierRepository, cache OverlayCache, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = DefaultOverlayTTL
	}
	return &Resolver{tiers: tiers, cache: cache, ttl: ttl}
}

// Resolve returns the overlay for userID. Unknown users yield
// repository.ErrUserNotFound.
func (r *Resolver) Resolve(ctx context.Context, userID string) (Overlay, error) {
	if r.cache != nil {
		overlay, ok, err := r.cache.GetOverlay(ctx, userID)
		if err != nil {
			fiberlog.Warnf("[Entitlements] overlay cache read failed for %s: %v", userID, err)
		} else if ok {
			return overlay, nil
		}
	}

	bypassVip, bypassCoin, err := r.tiers.TierFlags(ctx, userID)
	if err != nil {
		return Overlay{}, err
	}
	overlay := Overlay{BypassVip: bypassVip, BypassCoin: bypassCoin}

	if r.cache != nil {
		if err := r.cache.SetOverlay(ctx, userID, overlay, r.ttl); err != nil {
			fiberlog.Warnf("[Entitlements] overlay cache write failed for %s: %v", userID, err)
		}
	}
	return overlay, nil
}

// AssignTier changes the user's tier and drops the cached overlay
func (r *Resolver) AssignTier(ctx context.Context, userID string, tierID *uint) error {
	if err := r.tiers.AssignTier(ctx, userID, tierID); err != nil {
		return err
	}
	r.Invalidate(ctx, userID)
	return nil
}

// Invalidate removes a cached overlay, if any
func (r *Resolver) Invalidate(ctx context.Context, userID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.DeleteOverlay(ctx, userID); err != nil {
		fiberlog.Warnf("[Entitlements] overlay cache delete failed for %s: %v", userID, err)
	}
}
