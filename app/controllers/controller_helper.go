package controllers

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Paywall/app/models"
)

var validate = validator.New()

// jsonError writes the error envelope shared by all API handlers
func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

// parseBody decodes and validates a JSON request body. When ok is false the
// 400 response has already been written and err is the write result.
func parseBody(c *fiber.Ctx, out interface{}) (ok bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return false, jsonError(c, fiber.StatusBadRequest, "invalid_argument", "Malformed request body")
	}
	if err := validate.Struct(out); err != nil {
		return false, jsonError(c, fiber.StatusBadRequest, "invalid_argument", err.Error())
	}
	return true, nil
}

// contentTypeParam resolves the :type route segment
func contentTypeParam(c *fiber.Ctx) (models.ContentType, bool) {
	return models.ParseContentType(c.Params("type"))
}

// uintParam parses a positive integer route segment
func uintParam(c *fiber.Ctx, name string) (uint64, bool) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return v, true
}

// GetClientIP determines the client IP address considering proxies
func GetClientIP(c *fiber.Ctx) string {
	if cfIP := strings.TrimSpace(c.Get("CF-Connecting-IP")); cfIP != "" {
		return cfIP
	}
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		for _, ip := range strings.Split(xff, ",") {
			if ip = strings.TrimSpace(ip); ip != "" {
				return ip
			}
		}
	}
	if realIP := strings.TrimSpace(c.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return c.IP()
}
