package controller

import (
	"os"

	"ai-docchat-be/internal/pkg/serverutils"
	"ai-docchat-be/internal/service"
	"ai-docchat-be/pkg/identity"
	"ai-docchat-be/pkg/routing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type IProfileController interface {
	RegisterRoutes(r fiber.Router)
	Me(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
	RouteDecision(ctx *fiber.Ctx) error
}

type profileController struct {
	profileService service.IProfileService
	sessions       *identity.Broker
}

func NewProfileController(profileService service.IProfileService, sessions *identity.Broker) IProfileController {
	return &profileController{
		profileService: profileService,
		sessions:       sessions,
	}
}

func (c *profileController) RegisterRoutes(r fiber.Router) {
	me := r.Group("/profile/v1")
	me.Use(serverutils.JwtMiddleware)
	me.Get("/me", c.Me)
	me.Post("/logout", c.Logout)

	// Anonymous callers get a decision too (-> /login), so no JwtMiddleware.
	r.Get("/route/v1/decision", c.RouteDecision)
}

// Me returns the caller's resolution. Provisioning is a 200 with its state
// tag, not an error; the client shows a holding screen.
func (c *profileController) Me(ctx *fiber.Ctx) error {
	sess, _ := c.sessions.Current(ctx.UserContext())
	res := c.profileService.ResolveEvent(ctx.UserContext(), identity.ChangeEvent{
		Type:    identity.EventInitial,
		Session: sess,
	})
	return ctx.JSON(serverutils.SuccessResponse("Identity resolution", service.ToResolutionResponse(res)))
}

// Logout releases the caller's server-side chat session immediately instead
// of waiting for idle eviction. Token invalidation stays with the identity
// provider.
func (c *profileController) Logout(ctx *fiber.Ctx) error {
	sess, _ := c.sessions.Current(ctx.UserContext())
	c.sessions.Publish(ctx.UserContext(), identity.ChangeEvent{
		Type:    identity.EventSignedOut,
		Session: sess,
	})
	return ctx.JSON(serverutils.SuccessResponse[any]("Signed out", nil))
}

// RouteDecision answers "where should this client land" for a requested
// path. Invalid or missing credentials resolve to the signed-out decision.
func (c *profileController) RouteDecision(ctx *fiber.Ctx) error {
	requestedPath := ctx.Query("path", routing.PathRoot)

	var profile *identity.Profile
	if userId, ok := bearerUserId(ctx); ok {
		profile = c.profileService.Resolve(ctx.Context(), userId).Profile
	}

	decision := routing.Route(profile, requestedPath)
	return ctx.JSON(serverutils.SuccessResponse("Route decision", decision))
}

// bearerUserId extracts the user id from an optional Bearer token. Any
// failure reads as anonymous.
func bearerUserId(ctx *fiber.Ctx) (uuid.UUID, bool) {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return uuid.Nil, false
	}

	token, err := jwt.Parse(authHeader[7:], func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, false
	}
	userIdStr, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, false
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, false
	}
	return userId, true
}
