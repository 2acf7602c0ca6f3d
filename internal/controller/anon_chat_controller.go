package controller

import (
	"soulscript-chat-be/internal/pkg/serverutils"
	"soulscript-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAnonChatController interface {
	RegisterRoutes(r fiber.Router)
	GetOrCreateSession(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	ListMessages(ctx *fiber.Ctx) error
	GetQuota(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
}

type anonChatController struct {
	service    service.IAnonChatService
	groupScope string
}

func NewAnonChatController(service service.IAnonChatService, groupScope string) IAnonChatController {
	return &anonChatController{service: service, groupScope: groupScope}
}

func (c *anonChatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/anon-chat/v1")
	h.Use(serverutils.DeviceMiddleware(c.groupScope))
	h.Post("/session", c.GetOrCreateSession)
	h.Get("/session", c.GetSession)
	h.Get("/messages", c.ListMessages)
	h.Post("/messages", c.SendMessage)
	h.Get("/quota", c.GetQuota)
}

func (c *anonChatController) GetOrCreateSession(ctx *fiber.Ctx) error {
	principal, _ := serverutils.PrincipalFrom(ctx)

	res, created, err := c.service.GetOrCreateSession(ctx.Context(), principal)
	if err != nil {
		return err
	}

	if created {
		return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Anonymous session created", res))
	}
	return ctx.JSON(serverutils.SuccessResponse("Anonymous session restored", res))
}

func (c *anonChatController) GetSession(ctx *fiber.Ctx) error {
	principal, _ := serverutils.PrincipalFrom(ctx)

	res, err := c.service.GetSession(ctx.Context(), principal)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get anonymous session", res))
}

func (c *anonChatController) ListMessages(ctx *fiber.Ctx) error {
	principal, _ := serverutils.PrincipalFrom(ctx)

	page, err := parsePage(ctx)
	if err != nil {
		return err
	}

	items, total, err := c.service.ListMessages(ctx.Context(), principal, page)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list messages", serverutils.Paginated(items, total, page.Limit, page.Offset)))
}

func (c *anonChatController) GetQuota(ctx *fiber.Ctx) error {
	principal, _ := serverutils.PrincipalFrom(ctx)

	res, err := c.service.GetQuota(ctx.Context(), principal)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get quota", res))
}

func (c *anonChatController) SendMessage(ctx *fiber.Ctx) error {
	principal, _ := serverutils.PrincipalFrom(ctx)

	req, err := parseSendMessage(ctx)
	if err != nil {
		return err
	}

	if !req.Stream {
		res, err := c.service.SendChat(ctx.UserContext(), principal, req.Content)
		if err != nil {
			return err
		}
		return ctx.JSON(serverutils.SuccessResponse("Message processed", res))
	}

	turn, err := c.service.StartTurn(ctx.UserContext(), principal, req.Content)
	if err != nil {
		return err
	}
	return streamTurn(ctx, turn)
}
