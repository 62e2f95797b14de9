package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Paywall/app/repository"
	"github.com/ManuelReschke/Paywall/internal/pkg/entitlements"
	"github.com/ManuelReschke/Paywall/internal/pkg/usercontext"
	"github.com/ManuelReschke/Paywall/internal/pkg/wallet"
)

// WalletController serves balances, ledger pages and admin top-ups
type WalletController struct {
	wallet   *wallet.Service
	overlays *entitlements.Resolver
}

// NewWalletController creates a new wallet controller
func NewWalletController(w *wallet.Service, overlays *entitlements.Resolver) *WalletController {
	return &WalletController{wallet: w, overlays: overlays}
}

type creditRequest struct {
	UserID string `json:"user_id" validate:"required,max=64"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
}

type assignTierRequest struct {
	TierID *uint `json:"tier_id"`
}

func walletError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return jsonError(c, fiber.StatusNotFound, "not_found", "User not found")
	case errors.Is(err, wallet.ErrInvalidTopUp), errors.Is(err, repository.ErrInvalidAmount):
		return jsonError(c, fiber.StatusBadRequest, "invalid_argument", err.Error())
	default:
		fiberlog.Errorf("[Wallet] request failed: %v", err)
		c.Set(fiber.HeaderRetryAfter, "1")
		return jsonError(c, fiber.StatusServiceUnavailable, "transient_failure", "Temporary failure, please retry")
	}
}

// HandleGetWallet returns balance and VIP flags: GET /wallet
func (wc *WalletController) HandleGetWallet(c *fiber.Ctx) error {
	summary, err := wc.wallet.Summary(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return walletError(c, err)
	}
	return c.JSON(summary)
}

// HandleGetLedger returns one ledger page: GET /wallet/ledger?page=&page_size=
func (wc *WalletController) HandleGetLedger(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", wallet.DefaultPageSize)
	history, err := wc.wallet.History(c.UserContext(), usercontext.GetUserID(c), page, pageSize)
	if err != nil {
		return walletError(c, err)
	}
	return c.JSON(history)
}

// HandleAdminCredit tops up a user: POST /admin/wallet/credit
func (wc *WalletController) HandleAdminCredit(c *fiber.Ctx) error {
	var req creditRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	res, err := wc.wallet.TopUp(c.UserContext(), req.UserID, req.Amount)
	if err != nil {
		return walletError(c, err)
	}
	fiberlog.Infof("[Wallet] credited %d coins to %s from %s", req.Amount, req.UserID, GetClientIP(c))
	return c.Status(fiber.StatusCreated).JSON(res)
}

// HandleAdminAssignTier sets or clears a VIP tier: PUT /admin/users/:userID/vip-tier
func (wc *WalletController) HandleAdminAssignTier(c *fiber.Ctx) error {
	userID := c.Params("userID")
	var req assignTierRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_argument", "Malformed request body")
	}
	if err := wc.overlays.AssignTier(c.UserContext(), userID, req.TierID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return walletError(c, err)
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "VIP tier not found")
		}
		return walletError(c, err)
	}
	overlay, err := wc.overlays.Resolve(c.UserContext(), userID)
	if err != nil {
		return walletError(c, err)
	}
	return c.JSON(fiber.Map{"user_id": userID, "overlay": overlay})
}
