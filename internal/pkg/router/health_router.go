package router

import (
	"context"
	"time"

	"github.com/ManuelReschke/Paywall/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
)

// Pinger is anything the health check can probe
type Pinger func(ctx context.Context) error

type HealthRouter struct {
	deps Dependencies
}

func (h HealthRouter) InstallRouter(app *fiber.App) {
	app.Get(constants.HealthRoute, func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		status := fiber.StatusOK
		checks := fiber.Map{}
		for name, ping := range h.deps.HealthChecks {
			if err := ping(ctx); err != nil {
				checks[name] = err.Error()
				// only the database is required to serve unlocks
				if name == "database" {
					status = fiber.StatusServiceUnavailable
				}
				continue
			}
			checks[name] = "ok"
		}
		overall := "ok"
		if status != fiber.StatusOK {
			overall = "degraded"
		}
		return c.Status(status).JSON(fiber.Map{
			"status": overall,
			"checks": checks,
		})
	})
}

func NewHealthRouter(deps Dependencies) *HealthRouter {
	return &HealthRouter{deps: deps}
}
