package entitlements

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ManuelReschke/Paywall/app/models"
	"github.com/ManuelReschke/Paywall/app/repository"
	"github.com/ManuelReschke/Paywall/internal/pkg/database"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memoryCache struct {
	mu      sync.Mutex
	items   map[string]Overlay
	readErr error
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string]Overlay{}}
}

func (c *memoryCache) GetOverlay(_ context.Context, userID string) (Overlay, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return Overlay{}, false, c.readErr
	}
	o, ok := c.items[userID]
	return o, ok, nil
}

func (c *memoryCache) SetOverlay(_ context.Context, userID string, overlay Overlay, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.items[userID] = overlay
	return nil
}

func (c *memoryCache) DeleteOverlay(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, userID)
	return nil
}

func setup(t *testing.T) (*gorm.DB, repository.VipTierRepository) {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{UUID: "u1"}).Error)
	return db, repository.NewVipTierRepository(db)
}

func TestResolveWithoutTier(t *testing.T) {
	_, tiers := setup(t)
	r := NewResolver(tiers, nil, 0)

	overlay, err := r.Resolve(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, overlay.Any())

	_, err = r.Resolve(context.Background(), "ghost")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestResolveUsesCacheAndInvalidatesOnAssign(t *testing.T) {
	db, tiers := setup(t)
	ctx := context.Background()
	cache := newMemoryCache()
	r := NewResolver(tiers, cache, time.Minute)

	overlay, err := r.Resolve(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Overlay{}, overlay)
	assert.Equal(t, 1, cache.sets)

	// Served from cache, no second write.
	_, err = r.Resolve(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	tier := &models.VipTier{Name: "diamond", BypassVipContent: true, BypassCoinContent: true}
	require.NoError(t, db.Create(tier).Error)
	require.NoError(t, r.AssignTier(ctx, "u1", &tier.ID))

	overlay, err = r.Resolve(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Overlay{BypassVip: true, BypassCoin: true}, overlay)
}

func TestResolveFallsThroughOnCacheError(t *testing.T) {
	db, tiers := setup(t)
	tier := &models.VipTier{Name: "coin-card", BypassCoinContent: true}
	require.NoError(t, db.Create(tier).Error)
	require.NoError(t, tiers.AssignTier(context.Background(), "u1", &tier.ID))

	var out bytes.Buffer
	fiberlog.SetOutput(&out)
	t.Cleanup(func() { fiberlog.SetOutput(os.Stderr) })

	cache := newMemoryCache()
	cache.readErr = errors.New("connection refused")
	r := NewResolver(tiers, cache, time.Minute)

	overlay, err := r.Resolve(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, Overlay{BypassCoin: true}, overlay)
	assert.Contains(t, out.String(), "[Warn]")
	assert.Contains(t, out.String(), "[Entitlements] overlay cache read failed for u1: connection refused")
}
