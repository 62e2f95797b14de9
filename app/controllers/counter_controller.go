package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// OutcomeCounters reads the unlock outcome counters
type OutcomeCounters interface {
	Snapshot(ctx context.Context) (map[string]int64, error)
	Drain(ctx context.Context) (map[string]int64, error)
}

// CounterController serves the unlock outcome counters to admins
type CounterController struct {
	counters OutcomeCounters
}

func NewCounterController(counters OutcomeCounters) *CounterController {
	return &CounterController{counters: counters}
}

// HandleGetCounters returns the counters: GET /admin/counters/unlock?reset=true
func (cc *CounterController) HandleGetCounters(c *fiber.Ctx) error {
	if cc.counters == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "transient_failure", "Counters need the cache")
	}
	read := cc.counters.Snapshot
	if c.QueryBool("reset", false) {
		read = cc.counters.Drain
	}
	counts, err := read(c.UserContext())
	if err != nil {
		fiberlog.Errorf("[Counter] read failed: %v", err)
		c.Set(fiber.HeaderRetryAfter, "1")
		return jsonError(c, fiber.StatusServiceUnavailable, "transient_failure", "Temporary failure, please retry")
	}
	return c.JSON(fiber.Map{"counters": counts})
}
