package controller

import (
	"soulscript-chat-be/internal/dto"
	"soulscript-chat-be/internal/pkg/apperror"
	"soulscript-chat-be/internal/pkg/logger"
	"soulscript-chat-be/internal/pkg/serverutils"
	"soulscript-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AlertLogReader reads the isolated moderation alert log.
type AlertLogReader interface {
	GetLogs(filter logger.LogFilter) ([]logger.LogEntry, error)
}

type IModerationController interface {
	RegisterRoutes(r fiber.Router)
	ListLogs(ctx *fiber.Ctx) error
	Statistics(ctx *fiber.Ctx) error
	ListAlerts(ctx *fiber.Ctx) error
}

type moderationController struct {
	service  service.IModerationService
	alertLog AlertLogReader
}

func NewModerationController(service service.IModerationService, alertLog AlertLogReader) IModerationController {
	return &moderationController{service: service, alertLog: alertLog}
}

func (c *moderationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/moderation/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Use(serverutils.AdminOnly)
	h.Get("/logs", c.ListLogs)
	h.Get("/statistics", c.Statistics)
	h.Get("/alerts", c.ListAlerts)
}

func (c *moderationController) ListLogs(ctx *fiber.Ctx) error {
	var query dto.ModerationLogQuery
	if err := ctx.QueryParser(&query); err != nil {
		return apperror.Validation("Invalid query parameters")
	}
	if err := serverutils.ValidateRequest(query); err != nil {
		return err
	}
	query.Normalize()

	items, total, err := c.service.ListLogs(ctx.Context(), &query)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list moderation logs", serverutils.Paginated(items, total, query.Limit, query.Offset)))
}

func (c *moderationController) Statistics(ctx *fiber.Ctx) error {
	res, err := c.service.Statistics(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get moderation statistics", res))
}

// ListAlerts reads back the alert feed that was written to the alert log,
// newest first.
func (c *moderationController) ListAlerts(ctx *fiber.Ctx) error {
	var query dto.AlertLogQuery
	if err := ctx.QueryParser(&query); err != nil {
		return apperror.Validation("Invalid query parameters")
	}
	if err := serverutils.ValidateRequest(query); err != nil {
		return err
	}
	query.Normalize()

	entries, err := c.alertLog.GetLogs(logger.LogFilter{
		Level:  query.Level,
		Limit:  query.Limit,
		Offset: query.Offset,
	})
	if err != nil {
		return err
	}

	res := make([]*dto.AlertLogResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, &dto.AlertLogResponse{
			Id:        e.Id,
			Level:     e.Level,
			Module:    e.Module,
			Message:   e.Message,
			Details:   e.Details,
			Timestamp: e.Timestamp,
		})
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list moderation alerts", res))
}
