package middleware

import (
	"context"

	"go-insight/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// setClaims stores claims in both Locals (handler access) and the user
// context (service/audit access).
func setClaims(c *fiber.Ctx, claims *utils.UserClaims) {
	c.Locals(utils.UserClaimsKey, claims)
	c.SetUserContext(context.WithValue(c.UserContext(), utils.UserClaimsKey, claims))
}

// AuthMiddleware validates JWT tokens and injects user claims into context
func AuthMiddleware(skipAuth bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			// Dev mode: the X-Tenant-ID header picks the tenant so
			// multiple tenants can be exercised without issuing tokens.
			// With real auth the tenant always comes from the token.
			tenant := c.Get("X-Tenant-ID")
			if tenant == "" {
				tenant = "dev-tenant"
			}
			setClaims(c, &utils.UserClaims{
				UserID:   "dev-admin-id",
				TenantID: tenant,
				Roles:    []string{"admin"},
			})
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		// Extract token from "Bearer <token>"
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		token := authHeader[7:]
		claims, err := utils.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		setClaims(c, claims)
		return c.Next()
	}
}
