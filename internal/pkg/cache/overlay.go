package cache

import (
	"context"
	"time"

	"github.com/ManuelReschke/Paywall/internal/pkg/entitlements"
	"github.com/redis/go-redis/v9"
)

const overlayKeyPrefix = "vip:overlay:"

const (
	fieldBypassVip  = "bypass_vip"
	fieldBypassCoin = "bypass_coin"
)

// OverlayStore keeps resolved VIP overlays in a redis hash per user
type OverlayStore struct {
	client *redis.Client
}

// NewOverlayStore creates an overlay cache on the given client
func NewOverlayStore(client *redis.Client) *OverlayStore {
	return &OverlayStore{client: client}
}

func overlayKey(userID string) string {
	return overlayKeyPrefix + userID
}

// GetOverlay returns the cached overlay and whether it was present
func (s *OverlayStore) GetOverlay(ctx context.Context, userID string) (entitlements.Overlay, bool, error) {
	fields, err := s.client.HGetAll(ctx, overlayKey(userID)).Result()
	if err != nil {
		return entitlements.Overlay{}, false, err
	}
	if len(fields) == 0 {
		return entitlements.Overlay{}, false, nil
	}
	return entitlements.Overlay{
		BypassVip:  fields[fieldBypassVip] == "1",
		BypassCoin: fields[fieldBypassCoin] == "1",
	}, true, nil
}

// SetOverlay writes both flags and the expiry atomically
func (s *OverlayStore) SetOverlay(ctx context.Context, userID string, overlay entitlements.Overlay, ttl time.Duration) error {
	key := overlayKey(userID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldBypassVip, flag(overlay.BypassVip), fieldBypassCoin, flag(overlay.BypassCoin))
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

// DeleteOverlay drops the cached overlay
func (s *OverlayStore) DeleteOverlay(ctx context.Context, userID string) error {
	return s.client.Del(ctx, overlayKey(userID)).Err()
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
