package router

import (
	"github.com/ManuelReschke/Paywall/app/controllers"
	"github.com/ManuelReschke/Paywall/internal/pkg/constants"
	"github.com/ManuelReschke/Paywall/internal/pkg/middleware"
	"github.com/ManuelReschke/Paywall/internal/pkg/usercontext"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
	deps Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute)
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")
	v1.Get("/ping", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"ping": "pong"})
	})

	identity := middleware.RequireIdentity(h.deps.Authenticator)
	unlockController := controllers.NewUnlockController(h.deps.Unlock, h.deps.outcomeRecorder())
	walletController := controllers.NewWalletController(h.deps.Wallet, h.deps.Overlays)

	purchase := h.purchaseLimiter()
	unlockGroup := v1.Group(constants.UnlockRoute, identity)
	unlockGroup.Post("/:type", purchase, unlockController.HandleUnlock)
	unlockGroup.Post("/:type/whole", purchase, unlockController.HandleUnlockWhole)
	unlockGroup.Get("/:type/works/:workID/unlocked", unlockController.HandleListUnlocked)
	unlockGroup.Get("/:type/:id", unlockController.HandleAccessStatus)

	walletGroup := v1.Group(constants.WalletRoute, identity)
	walletGroup.Get("/", walletController.HandleGetWallet)
	walletGroup.Get("/ledger", walletController.HandleGetLedger)
}

// purchaseLimiter throttles spending requests per user
func (h ApiRouter) purchaseLimiter() fiber.Handler {
	cfg := h.deps.Config
	if cfg.RateLimitMax <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			if id := usercontext.GetUserID(c); id != "" {
				return "unlock:user:" + id
			}
			return "unlock:ip:" + controllers.GetClientIP(c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "Too many unlock requests",
			})
		},
		Storage: h.deps.LimiterStorage,
	})
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}
