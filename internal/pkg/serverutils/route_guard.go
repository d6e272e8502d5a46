// FILE: internal/pkg/serverutils/route_guard.go
package serverutils

import (
	"context"

	"ai-docchat-be/pkg/identity"
	"ai-docchat-be/pkg/routing"

	"github.com/gofiber/fiber/v2"
)

// ProfileResolver looks up the access profile for an authenticated user.
type ProfileResolver func(ctx context.Context, userId string) (*identity.Profile, error)

// RouteGuard enforces the access rules of a guarded path prefix. Resolution
// failures are treated as unauthenticated (fail closed).
func RouteGuard(resolve ProfileResolver, guardedPath string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		var profile *identity.Profile

		if userId, ok := ctx.Locals("user_id").(string); ok && userId != "" {
			p, err := resolve(ctx.Context(), userId)
			if err == nil {
				profile = p
			}
		}

		decision := routing.Route(profile, guardedPath)
		if decision.Redirect {
			if profile == nil {
				return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Not authenticated"))
			}
			return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success":  false,
				"message":  "Access denied",
				"redirect": decision.Target,
			})
		}
		return ctx.Next()
	}
}
