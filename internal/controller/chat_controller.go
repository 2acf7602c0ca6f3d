package controller

import (
	"soulscript-chat-be/internal/dto"
	"soulscript-chat-be/internal/pkg/apperror"
	"soulscript-chat-be/internal/pkg/serverutils"
	"soulscript-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	RenameSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	ListMessages(ctx *fiber.Ctx) error
	GetSessionSummary(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatbotService
}

func NewChatController(service service.IChatbotService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/sessions", c.CreateSession)
	h.Get("/sessions", c.ListSessions)
	h.Get("/sessions/:id", c.GetSession)
	h.Put("/sessions/:id", c.RenameSession)
	h.Delete("/sessions/:id", c.DeleteSession)
	h.Get("/sessions/:id/messages", c.ListMessages)
	h.Post("/sessions/:id/messages", c.SendMessage)
	h.Get("/sessions/:id/summary", c.GetSessionSummary)
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	principal, _ := serverutils.PrincipalFrom(ctx)

	var req dto.CreateSessionRequest
	// An empty body creates a session with the default title.
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return apperror.Validation("Invalid request body")
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateSession(ctx.Context(), principal, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Chat session created", res))
}

func (c *chatController) ListSessions(ctx *fiber.Ctx) error {
	principal, _ := serverutils.PrincipalFrom(ctx)

	page, err := parsePage(ctx)
	if err != nil {
		return err
	}

	items, total, err := c.service.ListSessions(ctx.Context(), principal, page)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list chat sessions", serverutils.Paginated(items, total, page.Limit, page.Offset)))
}

func (c *chatController) GetSession(ctx *fiber.Ctx) error {
	principal, _ := serverutils.PrincipalFrom(ctx)
	id, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetSession(ctx.Context(), principal, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get chat session", res))
}

func (c *chatController) RenameSession(ctx *fiber.Ctx) error {
	principal, _ := serverutils.PrincipalFrom(ctx)
	id, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	var req dto.RenameSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.RenameSession(ctx.Context(), principal, id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Chat session renamed", res))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	principal, _ := serverutils.PrincipalFrom(ctx)
	id, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.service.DeleteSession(ctx.Context(), principal, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Chat session deleted", nil))
}

func (c *chatController) ListMessages(ctx *fiber.Ctx) error {
	principal, _ := serverutils.PrincipalFrom(ctx)
	id, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	page, err := parsePage(ctx)
	if err != nil {
		return err
	}

	items, total, err := c.service.ListMessages(ctx.Context(), principal, id, page)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list messages", serverutils.Paginated(items, total, page.Limit, page.Offset)))
}

func (c *chatController) GetSessionSummary(ctx *fiber.Ctx) error {
	principal, _ := serverutils.PrincipalFrom(ctx)
	id, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetSessionSummary(ctx.Context(), principal, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session summary", res))
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	principal, _ := serverutils.PrincipalFrom(ctx)
	id, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	req, err := parseSendMessage(ctx)
	if err != nil {
		return err
	}

	if !req.Stream {
		res, err := c.service.SendChat(ctx.UserContext(), principal, id, req.Content)
		if err != nil {
			return err
		}
		return ctx.JSON(serverutils.SuccessResponse("Message processed", res))
	}

	turn, err := c.service.StartTurn(ctx.UserContext(), principal, id, req.Content)
	if err != nil {
		return err
	}
	return streamTurn(ctx, turn)
}

func sessionIdParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.Validation("Invalid session id")
	}
	return id, nil
}

func parsePage(ctx *fiber.Ctx) (dto.PageQuery, error) {
	var page dto.PageQuery
	if err := ctx.QueryParser(&page); err != nil {
		return page, apperror.Validation("Invalid pagination parameters")
	}
	if err := serverutils.ValidateRequest(page); err != nil {
		return page, err
	}
	page.Normalize()
	return page, nil
}

// parseSendMessage also honours ?stream=true so EventSource-style clients
// can opt in without a body flag.
func parseSendMessage(ctx *fiber.Ctx) (*dto.SendMessageRequest, error) {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return nil, apperror.Validation("Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	if ctx.QueryBool("stream") {
		req.Stream = true
	}
	return &req, nil
}

