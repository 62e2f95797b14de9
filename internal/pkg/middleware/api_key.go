package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Paywall/app/models"
	"github.com/ManuelReschke/Paywall/app/repository"
)

// UserLookup resolves an API key hash to a user
type UserLookup interface {
	GetByAPIKeyHash(ctx context.Context, hash string) (*models.User, error)
}

// APIKeyAuthenticator authenticates requests carrying a user API key header.
type APIKeyAuthenticator struct {
	users UserLookup
}

// NewAPIKeyAuthenticator creates an authenticator backed by the users table
func NewAPIKeyAuthenticator(users UserLookup) *APIKeyAuthenticator {
	return &APIKeyAuthenticator{users: users}
}

func (a *APIKeyAuthenticator) Method() string {
	return AuthModeAPIKey
}

func (a *APIKeyAuthenticator) Authenticate(c *fiber.Ctx) (string, error) {
	apiKey := extractAPIKeyFromHeader(c)
	if apiKey == "" {
		return "", ErrMissingCredentials
	}
	user, err := a.users.GetByAPIKeyHash(c.UserContext(), models.HashAPIKey(apiKey))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	return user.UUID, nil
}

func extractAPIKeyFromHeader(c *fiber.Ctx) string {
	apiKey := strings.TrimSpace(c.Get("X-API-Key"))
	if apiKey != "" {
		return apiKey
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
