package controllers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Paywall/app/models"
	"github.com/ManuelReschke/Paywall/internal/pkg/unlock"
	"github.com/ManuelReschke/Paywall/internal/pkg/usercontext"
)

// OutcomeRecorder counts unlock results
type OutcomeRecorder interface {
	AddOutcome(ctx context.Context, ct models.ContentType, status string) error
}

// UnlockController exposes the unlock engine over HTTP
type UnlockController struct {
	svc      *unlock.Service
	recorder OutcomeRecorder
}

// NewUnlockController creates a new unlock controller. recorder may be nil.
func NewUnlockController(svc *unlock.Service, recorder OutcomeRecorder) *UnlockController {
	return &UnlockController{svc: svc, recorder: recorder}
}

func (uc *UnlockController) record(c *fiber.Ctx, ct models.ContentType, status unlock.Status) {
	if uc.recorder == nil {
		return
	}
	if err := uc.recorder.AddOutcome(c.UserContext(), ct, string(status)); err != nil {
		fiberlog.Warnf("[Unlock] failed to count outcome %s: %v", status, err)
	}
}

type unlockRequest struct {
	ContentID uint64 `json:"content_id" validate:"required,gt=0"`
}

type unlockWholeRequest struct {
	WorkID uint64 `json:"work_id" validate:"required,gt=0"`
}

// StatusCode maps an unlock outcome onto an HTTP status
func StatusCode(status unlock.Status) int {
	switch status {
	case unlock.StatusUnlocked, unlock.StatusFree, unlock.StatusNothingToUnlock:
		return fiber.StatusOK
	case unlock.StatusInsufficientFunds:
		return fiber.StatusPaymentRequired
	case unlock.StatusNotFound:
		return fiber.StatusNotFound
	case unlock.StatusInvalidArgument:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusServiceUnavailable
	}
}

var outcomeMessages = map[unlock.Status]string{
	unlock.StatusInsufficientFunds: "Not enough coins",
	unlock.StatusNotFound:          "Content not found",
	unlock.StatusInvalidArgument:   "Invalid content reference",
	unlock.StatusTransientFailure:  "Temporary failure, please retry",
}

func outcomeError(c *fiber.Ctx, status unlock.Status) error {
	if status == unlock.StatusTransientFailure {
		c.Set(fiber.HeaderRetryAfter, "1")
	}
	return jsonError(c, StatusCode(status), string(status), outcomeMessages[status])
}

// HandleUnlock buys or opens a single item: POST /unlock/:type
func (uc *UnlockController) HandleUnlock(c *fiber.Ctx) error {
	ct, ok := contentTypeParam(c)
	if !ok {
		return outcomeError(c, unlock.StatusInvalidArgument)
	}
	var req unlockRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	res := uc.svc.Unlock(c.UserContext(), usercontext.GetUserID(c), ct, req.ContentID)
	uc.record(c, ct, res.Status)
	if !res.Status.Success() {
		return outcomeError(c, res.Status)
	}
	return c.JSON(res)
}

// HandleUnlockWhole buys all remaining chapters of a work: POST /unlock/:type/whole
func (uc *UnlockController) HandleUnlockWhole(c *fiber.Ctx) error {
	ct, ok := contentTypeParam(c)
	if !ok || !ct.HasWorks() {
		return outcomeError(c, unlock.StatusInvalidArgument)
	}
	var req unlockWholeRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	res := uc.svc.UnlockWhole(c.UserContext(), usercontext.GetUserID(c), ct, req.WorkID)
	uc.record(c, ct, res.Status)
	if !res.Status.Success() {
		return outcomeError(c, res.Status)
	}
	return c.JSON(res)
}

// HandleListUnlocked lists owned chapters: GET /unlock/:type/works/:workID/unlocked
func (uc *UnlockController) HandleListUnlocked(c *fiber.Ctx) error {
	ct, ok := contentTypeParam(c)
	if !ok {
		return outcomeError(c, unlock.StatusInvalidArgument)
	}
	workID, ok := uintParam(c, "workID")
	if !ok {
		return outcomeError(c, unlock.StatusInvalidArgument)
	}
	list, err := uc.svc.ListUnlockedInWork(c.UserContext(), usercontext.GetUserID(c), ct, workID)
	if err != nil {
		return queryError(c, err)
	}
	return c.JSON(list)
}

// HandleAccessStatus reports access to one item: GET /unlock/:type/:id
func (uc *UnlockController) HandleAccessStatus(c *fiber.Ctx) error {
	ct, ok := contentTypeParam(c)
	if !ok {
		return outcomeError(c, unlock.StatusInvalidArgument)
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return outcomeError(c, unlock.StatusInvalidArgument)
	}
	access, err := uc.svc.AccessStatus(c.UserContext(), usercontext.GetUserID(c), ct, id)
	if err != nil {
		return queryError(c, err)
	}
	return c.JSON(access)
}

func queryError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, unlock.ErrInvalidArgument):
		return outcomeError(c, unlock.StatusInvalidArgument)
	case errors.Is(err, unlock.ErrNotFound):
		return outcomeError(c, unlock.StatusNotFound)
	default:
		return outcomeError(c, unlock.StatusTransientFailure)
	}
}
