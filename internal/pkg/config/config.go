package config

import (
	"time"

	"github.com/ManuelReschke/Paywall/internal/pkg/entitlements"
	"github.com/ManuelReschke/Paywall/internal/pkg/env"
	"github.com/ManuelReschke/Paywall/internal/pkg/middleware"
	"github.com/ManuelReschke/Paywall/internal/pkg/unlock"
)

// Config collects the typed settings of the paywall service
type Config struct {
	AppName    string
	AppHost    string
	AppPort    string
	AuthMode   string
	GatewayKey string

	AdminUser     string
	AdminPassword string

	Unlock     unlock.Config
	OverlayTTL time.Duration

	RateLimitMax    int
	RateLimitWindow time.Duration
	RateLimitRedis  bool
	RateLimitDB     int
}

// Load reads the environment. env.SetupEnvFile should run first.
func Load() Config {
	return Config{
		AppName:    env.GetEnv("APP_NAME", "Paywall"),
		AppHost:    env.GetEnv("APP_HOST", "0.0.0.0"),
		AppPort:    env.GetEnv("APP_PORT", "4000"),
		AuthMode:   env.GetEnv("AUTH_MODE", middleware.AuthModeAPIKey),
		GatewayKey: env.GetEnv("GATEWAY_SECRET", ""),

		AdminUser:     env.GetEnv("ADMIN_USER", "admin"),
		AdminPassword: env.GetEnv("ADMIN_PASSWORD", ""),

		Unlock: unlock.Config{
			VideoTTL:        env.GetDuration("VIDEO_UNLOCK_TTL", 7*24*time.Hour),
			TxTimeout:       env.GetDuration("UNLOCK_TX_TIMEOUT", unlock.DefaultTxTimeout),
			DiscountPercent: int64(env.GetInt("WHOLE_UNLOCK_DISCOUNT_PERCENT", unlock.DefaultDiscountPercent)),
		},
		OverlayTTL: env.GetDuration("VIP_OVERLAY_CACHE_TTL", entitlements.DefaultOverlayTTL),

		RateLimitMax:    env.GetInt("UNLOCK_RATE_LIMIT_MAX", 30),
		RateLimitWindow: env.GetDuration("UNLOCK_RATE_LIMIT_WINDOW", time.Minute),
		RateLimitRedis:  env.GetEnv("UNLOCK_RATE_LIMIT_REDIS", "true") == "true",
		RateLimitDB:     env.GetInt("UNLOCK_RATE_LIMIT_REDIS_DB", 2),
	}
}

// Authenticator builds the configured authentication collaborator
func (c Config) Authenticator(users middleware.UserLookup) middleware.Authenticator {
	if c.AuthMode == middleware.AuthModeTrustedHeader {
		return middleware.NewTrustedHeaderAuthenticator(c.GatewayKey)
	}
	return middleware.NewAPIKeyAuthenticator(users)
}
