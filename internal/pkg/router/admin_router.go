package router

import (
	"github.com/ManuelReschke/Paywall/app/controllers"
	"github.com/ManuelReschke/Paywall/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/monitor"
)

type AdminRouter struct {
	deps Dependencies
}

func (h AdminRouter) InstallRouter(app *fiber.App) {
	cfg := h.deps.Config
	if cfg.AdminPassword == "" {
		fiberlog.Warnf("[Router] ADMIN_PASSWORD not set, admin routes disabled")
		return
	}
	auth := basicauth.New(basicauth.Config{
		Users: map[string]string{
			cfg.AdminUser: cfg.AdminPassword,
		},
	})

	// fiber metrics
	app.Get(constants.MetricsRoute, auth, monitor.New())

	walletController := controllers.NewWalletController(h.deps.Wallet, h.deps.Overlays)
	admin := app.Group(constants.APIV1Route+constants.AdminRoute, auth)
	admin.Post("/wallet/credit", walletController.HandleAdminCredit)
	admin.Put("/users/:userID/vip-tier", walletController.HandleAdminAssignTier)
	admin.Get("/counters/unlock", controllers.NewCounterController(h.deps.outcomeCounters()).HandleGetCounters)
}

func NewAdminRouter(deps Dependencies) *AdminRouter {
	return &AdminRouter{deps: deps}
}
