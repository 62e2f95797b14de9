package router

import (
	"github.com/ManuelReschke/Paywall/app/controllers"
	"github.com/ManuelReschke/Paywall/internal/pkg/config"
	"github.com/ManuelReschke/Paywall/internal/pkg/entitlements"
	"github.com/ManuelReschke/Paywall/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/Paywall/internal/pkg/middleware"
	"github.com/ManuelReschke/Paywall/internal/pkg/unlock"
	"github.com/ManuelReschke/Paywall/internal/pkg/wallet"
	"github.com/gofiber/fiber/v2"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are the services the routes delegate to
type Dependencies struct {
	Config        config.Config
	Unlock        *unlock.Service
	Wallet        *wallet.Service
	Overlays      *entitlements.Resolver
	Authenticator middleware.Authenticator
	// LimiterStorage shares rate-limit counters between instances; nil keeps
	// them in memory.
	LimiterStorage fiber.Storage
	// Counters is nil when the cache is unavailable
	Counters *counter.Outcomes
	// HealthChecks are probed by the health route, keyed by name
	HealthChecks map[string]Pinger
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	setup(app, NewHealthRouter(deps), NewApiRouter(deps), NewAdminRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}

// outcomeRecorder avoids handing a typed nil to the controllers
func (d Dependencies) outcomeRecorder() controllers.OutcomeRecorder {
	if d.Counters == nil {
		return nil
	}
	return d.Counters
}

func (d Dependencies) outcomeCounters() controllers.OutcomeCounters {
	if d.Counters == nil {
		return nil
	}
	return d.Counters
}
