package config

import (
	"testing"
	"time"

	"github.com/ManuelReschke/Paywall/internal/pkg/middleware"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "4000", cfg.AppPort)
	assert.Equal(t, 7*24*time.Hour, cfg.Unlock.VideoTTL)
	assert.Equal(t, int64(80), cfg.Unlock.DiscountPercent)
	assert.Equal(t, 5*time.Second, cfg.Unlock.TxTimeout)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("VIDEO_UNLOCK_TTL", "24h")
	t.Setenv("WHOLE_UNLOCK_DISCOUNT_PERCENT", "90")
	t.Setenv("UNLOCK_TX_TIMEOUT", "not-a-duration")
	t.Setenv("AUTH_MODE", middleware.AuthModeTrustedHeader)

	cfg := Load()
	assert.Equal(t, 24*time.Hour, cfg.Unlock.VideoTTL)
	assert.Equal(t, int64(90), cfg.Unlock.DiscountPercent)
	assert.Equal(t, 5*time.Second, cfg.Unlock.TxTimeout)
	assert.Equal(t, middleware.AuthModeTrustedHeader, cfg.Authenticator(nil).Method())
}
