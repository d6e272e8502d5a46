package controller

import (
	"ai-docchat-be/internal/dto"
	"ai-docchat-be/internal/pkg/serverutils"
	"ai-docchat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Refresh(ctx *fiber.Ctx) error
	Toggle(ctx *fiber.Ctx) error
	SelectAll(ctx *fiber.Ctx) error
	ClearAll(ctx *fiber.Ctx) error
}

type documentController struct {
	chatService service.IChatService
}

func NewDocumentController(chatService service.IChatService) IDocumentController {
	return &documentController{
		chatService: chatService,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.List)
	h.Post("/refresh", c.Refresh)
	h.Post("/toggle", c.Toggle)
	h.Post("/select-all", c.SelectAll)
	h.Post("/clear-all", c.ClearAll)
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.chatService.ListDocuments(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Document catalog", res))
}

func (c *documentController) Refresh(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.chatService.RefreshDocuments(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Document catalog refreshed", res))
}

func (c *documentController) Toggle(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.ToggleDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.ToggleDocument(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Selection updated", res))
}

func (c *documentController) SelectAll(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.chatService.SelectAllDocuments(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("All documents selected", res))
}

func (c *documentController) ClearAll(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.chatService.ClearAllDocuments(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Selection cleared", res))
}
