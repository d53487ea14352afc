package server

import (
	"strings"

	"bike-rental-go/internal/auth"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserId = "user_id"
	localRole   = "role"
)

// requireAuth validates the bearer token and stores its claims in c.Locals.
func requireAuth(tokens *auth.TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization format")
		}

		claims, err := tokens.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			return err
		}

		c.Locals(localUserId, claims.UserId)
		c.Locals(localRole, claims.Role)
		return c.Next()
	}
}

func requireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if r, _ := c.Locals(localRole).(string); r != role {
			return fiber.NewError(fiber.StatusForbidden, "forbidden: "+role+" role required")
		}
		return c.Next()
	}
}

func requireAdmin() fiber.Handler { return requireRole(auth.RoleAdmin) }

func requireRider() fiber.Handler { return requireRole(auth.RoleUser) }

func currentUserId(c *fiber.Ctx) int64 {
	id, _ := c.Locals(localUserId).(int64)
	return id
}
