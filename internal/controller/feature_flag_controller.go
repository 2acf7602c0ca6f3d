package controller

import (
	"soulscript-chat-be/internal/dto"
	"soulscript-chat-be/internal/pkg/apperror"
	"soulscript-chat-be/internal/pkg/serverutils"
	"soulscript-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IFeatureFlagController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	ListActive(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Toggle(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Initialize(ctx *fiber.Ctx) error
}

type featureFlagController struct {
	service service.IFeatureFlagService
}

func NewFeatureFlagController(service service.IFeatureFlagService) IFeatureFlagController {
	return &featureFlagController{service: service}
}

func (c *featureFlagController) RegisterRoutes(r fiber.Router) {
	// Any signed-in user may read the active set.
	public := r.Group("/feature-flags/v1")
	public.Get("/active", serverutils.JwtMiddleware, c.ListActive)

	h := r.Group("/admin/feature-flags/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Use(serverutils.AdminOnly)
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Post("/initialize", c.Initialize)
	h.Get("/:id", c.Get)
	h.Put("/:id", c.Update)
	h.Patch("/:id/toggle", c.Toggle)
	h.Delete("/:id", c.Delete)
}

func (c *featureFlagController) List(ctx *fiber.Ctx) error {
	res, err := c.service.List(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list feature flags", res))
}

func (c *featureFlagController) ListActive(ctx *fiber.Ctx) error {
	res, err := c.service.ListActive(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list active feature flags", res))
}

func (c *featureFlagController) Get(ctx *fiber.Ctx) error {
	id, err := flagIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Get(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get feature flag", res))
}

func (c *featureFlagController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateFeatureFlagRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Feature flag created", res))
}

func (c *featureFlagController) Update(ctx *fiber.Ctx) error {
	id, err := flagIdParam(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateFeatureFlagRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Update(ctx.Context(), id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Feature flag updated", res))
}

func (c *featureFlagController) Toggle(ctx *fiber.Ctx) error {
	id, err := flagIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Toggle(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Feature flag toggled", res))
}

func (c *featureFlagController) Delete(ctx *fiber.Ctx) error {
	id, err := flagIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx.Context(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Feature flag deleted", nil))
}

func (c *featureFlagController) Initialize(ctx *fiber.Ctx) error {
	created, err := c.service.SeedPredefined(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Predefined feature flags initialized", &dto.InitializeFlagsResponse{Created: created}))
}

func flagIdParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.Validation("Invalid feature flag id")
	}
	return id, nil
}
