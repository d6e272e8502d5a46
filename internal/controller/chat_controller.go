package controller

import (
	"context"
	"os"

	"ai-docchat-be/internal/dto"
	"ai-docchat-be/internal/pkg/logger"
	"ai-docchat-be/internal/pkg/serverutils"
	"ai-docchat-be/internal/service"
	internalWS "ai-docchat-be/internal/websocket"
	"ai-docchat-be/pkg/chat/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Send(ctx *fiber.Ctx) error
	GetThread(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
	ServeWs(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	hub         *internalWS.Hub
	logger      logger.ILogger
}

func NewChatController(chatService service.IChatService, hub *internalWS.Hub, log logger.ILogger) IChatController {
	return &chatController{
		chatService: chatService,
		hub:         hub,
		logger:      log,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/send", c.Send)
	h.Get("/thread", c.GetThread)
	h.Post("/reset", c.Reset)

	// WebSocket does its own handshake auth (query token), no JwtMiddleware.
	r.Get("/ws/chat", c.ServeWs)
}

func (c *chatController) Send(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.Send(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat dispatched", res))
}

func (c *chatController) GetThread(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.chatService.GetThread(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Conversation thread", res))
}

func (c *chatController) Reset(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	if err := c.chatService.Reset(ctx.Context(), userId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Conversation reset", nil))
}

// ServeWs authenticates the handshake and streams engine snapshots to the
// socket for as long as it stays open.
func (c *chatController) ServeWs(ctx *fiber.Ctx) error {
	// Priority 1: Query Param (Browser standard)
	tokenStr := ctx.Query("token")

	// Priority 2: Authorization Header (Tooling/Non-browser standard)
	if tokenStr == "" {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		c.logger.Warn("ChatController", "Invalid Token in WS Handshake", map[string]interface{}{"error": err})
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing user_id"})
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID format in token"})
	}

	if websocket.IsWebSocketUpgrade(ctx) {
		return websocket.New(func(conn *websocket.Conn) {
			c.logger.Info("ChatController", "Starting WebSocket session", map[string]interface{}{"user_id": userID})
			internalWS.ServeWs(c.hub, conn, userID, func() func() {
				unsubscribe, subErr := c.chatService.Subscribe(context.Background(), userID, func(snapshot session.Snapshot) {
					c.hub.SendSnapshot(userID, snapshot)
				})
				if subErr != nil {
					c.logger.Warn("ChatController", "Engine subscribe failed", map[string]interface{}{
						"user_id": userID,
						"error":   subErr.Error(),
					})
					return func() {}
				}
				return unsubscribe
			})
			c.logger.Info("ChatController", "WebSocket session ended", map[string]interface{}{"user_id": userID})
		})(ctx)
	}
	return fiber.ErrUpgradeRequired
}
