package usercontext

import "github.com/gofiber/fiber/v2"

// UserContext is the identity handed over by the authentication collaborator
type UserContext struct {
	UserID        string `json:"user_id"`
	Authenticated bool   `json:"authenticated"`
	Method        string `json:"method"`
}

// GetUserContext retrieves the user context from fiber context
// Returns an anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(KeyUserContext).(UserContext); ok {
		return ctx
	}
	return UserContext{}
}

// SetUserContext stores the resolved identity on the request
func SetUserContext(c *fiber.Ctx, uc UserContext) {
	c.Locals(KeyUserContext, uc)
	c.Locals(KeyUserID, uc.UserID)
	c.Locals(KeyAuthMethod, uc.Method)
}

// IsAuthenticated checks if the request carries a resolved identity
func IsAuthenticated(c *fiber.Ctx) bool {
	return GetUserContext(c).Authenticated
}

// GetUserID returns the current user's id, or "" for anonymous requests
func GetUserID(c *fiber.Ctx) string {
	return GetUserContext(c).UserID
}
