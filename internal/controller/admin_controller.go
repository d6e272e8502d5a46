// FILE: internal/controller/admin_controller.go
package controller

import (
	"ai-docchat-be/internal/pkg/serverutils"
	"ai-docchat-be/internal/service"
	"ai-docchat-be/pkg/routing"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	ListDocuments(ctx *fiber.Ctx) error
}

// adminController is the company-admin surface. Access rule: admins only,
// non-admins are denied outright rather than redirected.
type adminController struct {
	documentService service.IDocumentService
	profileService  service.IProfileService
}

func NewAdminController(documentService service.IDocumentService, profileService service.IProfileService) IAdminController {
	return &adminController{
		documentService: documentService,
		profileService:  profileService,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Use(serverutils.RouteGuard(c.profileService.GetAccessProfile, routing.PathAdmin))
	h.Get("/documents", c.ListDocuments)
}

func (c *adminController) ListDocuments(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)

	profile, err := c.profileService.GetAccessProfile(ctx.Context(), userIdStr)
	if err != nil || profile == nil {
		return fiber.NewError(fiber.StatusForbidden, "Profile not provisioned")
	}

	res, err := c.documentService.CompanyDocuments(ctx.Context(), profile.CompanyId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Company documents", res))
}
