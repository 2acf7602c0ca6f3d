package handler

import (
	"soulscript-chat-be/internal/pkg/logger"
	"soulscript-chat-be/internal/pkg/serverutils"
	internalWS "soulscript-chat-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// NotificationHandler upgrades admin connections onto the moderation alert hub.
type NotificationHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewNotificationHandler(hub *internalWS.Hub, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{hub: hub, logger: log}
}

// ServeWs handles websocket requests from the peer.
func (h *NotificationHandler) ServeWs(c *fiber.Ctx) error {
	// Browsers cannot set headers on a websocket handshake, so the query
	// parameter comes first.
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}

	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Missing token (Query 'token' or Header 'Authorization')"))
	}

	principal, err := serverutils.ParsePrincipal(tokenStr)
	if err != nil {
		h.logger.Warn("NOTIFICATION", "Invalid token in websocket handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid token"))
	}
	if !principal.IsAdmin() {
		return c.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse(403, "Admin access required"))
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	userID := *principal.UserId
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("NOTIFICATION", "Admin alert feed connected", map[string]interface{}{"user_id": userID})
		internalWS.ServeWs(h.hub, conn, userID)
		h.logger.Info("NOTIFICATION", "Admin alert feed closed", map[string]interface{}{"user_id": userID})
	})(c)
}

// RegisterRoutes mounts the alert feed outside the JWT-guarded groups; the
// handshake authenticates itself.
func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/moderation-alerts", h.ServeWs)
}
