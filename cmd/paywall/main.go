package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/Paywall/app/repository"
	apiv1 "github.com/ManuelReschke/Paywall/internal/api/v1"
	"github.com/ManuelReschke/Paywall/internal/pkg/cache"
	"github.com/ManuelReschke/Paywall/internal/pkg/config"
	"github.com/ManuelReschke/Paywall/internal/pkg/constants"
	"github.com/ManuelReschke/Paywall/internal/pkg/database"
	"github.com/ManuelReschke/Paywall/internal/pkg/entitlements"
	"github.com/ManuelReschke/Paywall/internal/pkg/env"
	"github.com/ManuelReschke/Paywall/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/Paywall/internal/pkg/router"
	"github.com/ManuelReschke/Paywall/internal/pkg/unlock"
	"github.com/ManuelReschke/Paywall/internal/pkg/wallet"
)

func main() {
	app, cfg := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort))
	log.Fatal(err)
}

func NewApplication() (*fiber.App, config.Config) {
	env.SetupEnvFile()
	cfg := config.Load()
	database.SetupDatabase()
	cache.SetupCache()

	db := database.GetDB()
	repository.InitializeFactory(db)
	factory := repository.GetGlobalFactory()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	cacheUp := cache.Available(ctx)

	// VIP overlays are cached in redis when it is reachable
	var overlayCache entitlements.OverlayCache
	if cacheUp {
		overlayCache = cache.NewOverlayStore(cache.GetClient())
	} else {
		log.Println("[Paywall] cache unavailable, VIP overlays are read from the database")
	}
	overlays := entitlements.NewResolver(factory.GetVipTierRepository(), overlayCache, cfg.OverlayTTL)

	var limiterStorage fiber.Storage
	if cacheUp && cfg.RateLimitRedis {
		limiterStorage = cache.NewLimiterStorage(cfg.RateLimitDB)
	}
	var outcomes *counter.Outcomes
	if cacheUp {
		outcomes = counter.NewOutcomes(cache.GetClient())
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName:   cfg.AppName,
		BodyLimit: 64 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	basePath, err := apiv1.FindBasePath()
	if err != nil {
		log.Printf("[Paywall] API docs disabled: %v", err)
	} else {
		specFile := filepath.Join(basePath, constants.OpenAPIFile)
		if _, err := apiv1.LoadSpec(ctx, specFile); err != nil {
			log.Fatalf("[Paywall] invalid OpenAPI document: %v", err)
		}
		app.Use(swagger.New(swagger.Config{
			BasePath: constants.DocsBasePath,
			FilePath: specFile,
			Path:     "v1",
		}))
	}

	// ROUTER
	router.InstallRouter(app, router.Dependencies{
		Config:         cfg,
		Unlock:         unlock.NewService(factory, overlays, cfg.Unlock),
		Wallet:         wallet.NewService(factory, overlays),
		Overlays:       overlays,
		Authenticator:  cfg.Authenticator(factory.GetUserRepository()),
		LimiterStorage: limiterStorage,
		Counters:       outcomes,
		HealthChecks: map[string]router.Pinger{
			"database": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"cache": func(ctx context.Context) error {
				return cache.GetClient().Ping(ctx).Err()
			},
		},
	})

	return app, cfg
}
