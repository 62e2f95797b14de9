package middleware

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/ManuelReschke/Paywall/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

const (
	AuthModeAPIKey        = "api_key"
	AuthModeTrustedHeader = "trusted_header"

	// HeaderUserID carries the identity set by the upstream gateway
	HeaderUserID = "X-User-ID"
	// HeaderGatewaySecret proves the request passed through the gateway
	HeaderGatewaySecret = "X-Gateway-Secret"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Authenticator resolves the caller's user id. The paywall never verifies
// tokens or signatures itself; that is the job of the implementation.
type Authenticator interface {
	Method() string
	Authenticate(c *fiber.Ctx) (string, error)
}

// RequireIdentity rejects requests without a resolvable user id and stores it
// in the user context otherwise.
func RequireIdentity(authn Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := authn.Authenticate(c)
		if err != nil {
			switch {
			case errors.Is(err, ErrMissingCredentials):
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing credentials"})
			case errors.Is(err, ErrInvalidCredentials):
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid credentials"})
			default:
				fiberlog.Errorf("[Auth] %s lookup failed: %v", authn.Method(), err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Authentication failed"})
			}
		}
		usercontext.SetUserContext(c, usercontext.UserContext{
			UserID:        userID,
			Authenticated: true,
			Method:        authn.Method(),
		})
		return c.Next()
	}
}

// TrustedHeaderAuthenticator accepts the user id forwarded by an authenticating
// gateway. When secret is set the gateway must also send it.
type TrustedHeaderAuthenticator struct {
	secret string
}

// NewTrustedHeaderAuthenticator creates a header based authenticator
func NewTrustedHeaderAuthenticator(secret string) *TrustedHeaderAuthenticator {
	return &TrustedHeaderAuthenticator{secret: secret}
}

func (a *TrustedHeaderAuthenticator) Method() string {
	return AuthModeTrustedHeader
}

func (a *TrustedHeaderAuthenticator) Authenticate(c *fiber.Ctx) (string, error) {
	if a.secret != "" {
		got := c.Get(HeaderGatewaySecret)
		if subtle.ConstantTimeCompare([]byte(got), []byte(a.secret)) != 1 {
			return "", ErrInvalidCredentials
		}
	}
	userID := strings.TrimSpace(c.Get(HeaderUserID))
	if userID == "" {
		return "", ErrMissingCredentials
	}
	if len(userID) > 64 {
		return "", ErrInvalidCredentials
	}
	return userID, nil
}
