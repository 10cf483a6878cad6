package handler

import (
	"strings"
	"time"

	"amanai-be/internal/pkg/logger"
	"amanai-be/internal/pkg/serverutils"
	internalWS "amanai-be/internal/websocket"
	"amanai-be/pkg/apperror"
	"amanai-be/pkg/events"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type NotificationHandler struct {
	publisher events.Publisher
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

func NewNotificationHandler(pub events.Publisher, hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{
		publisher: pub,
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

// resolveUser follows the REST identity rules, plus a ?token= query for
// browsers that cannot set headers on a socket handshake.
func (h *NotificationHandler) resolveUser(c *fiber.Ctx) (string, error) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			tokenStr = authHeader[7:]
		}
	}

	if tokenStr != "" && h.jwtSecret != "" {
		userID, err := serverutils.ParseToken(tokenStr, h.jwtSecret)
		if err != nil {
			h.logger.Warn("NotificationHandler", "Invalid Token in WS Handshake", map[string]interface{}{"error": err.Error()})
			return "", err
		}
		return userID, nil
	}

	userID := strings.TrimSpace(c.Get(serverutils.HeaderUserID))
	if userID == "" {
		userID = strings.TrimSpace(c.Query("user_id"))
	}
	if userID == "" {
		return "", apperror.Validation("User identity required (X-User-Id header)")
	}
	return userID, nil
}

// ServeWs streams the caller's encounter and report events.
func (h *NotificationHandler) ServeWs(c *fiber.Ctx) error {
	userID, err := h.resolveUser(c)
	if err != nil {
		return err
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("NotificationHandler", "Starting WebSocket session", map[string]interface{}{"user_id": userID})
			internalWS.ServeWs(h.hub, conn, userID)
			h.logger.Info("NotificationHandler", "WebSocket session ended", map[string]interface{}{"user_id": userID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// DebugTriggerEvent publishes an arbitrary event for the caller.
func (h *NotificationHandler) DebugTriggerEvent(c *fiber.Ctx) error {
	type Request struct {
		Type    string                 `json:"type"`
		Payload map[string]interface{} `json:"payload"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if req.Type == "" {
		req.Type = "TEST_EVENT"
	}
	if req.Payload == nil {
		req.Payload = make(map[string]interface{})
	}
	if _, ok := req.Payload["user_id"]; !ok {
		req.Payload["user_id"] = serverutils.UserID(c)
	}

	evt := events.BaseEvent{
		Type:       req.Type,
		Data:       req.Payload,
		OccurredAt: time.Now().UTC(),
	}

	if h.publisher == nil {
		return apperror.NotConfigured("Event publisher not configured")
	}
	if err := h.publisher.Publish(c.UserContext(), evt); err != nil {
		return apperror.ServiceUnavailable("Failed to publish event", err)
	}

	return c.JSON(serverutils.SuccessResponse("Event Published", fiber.Map{"type": evt.Type}))
}

// RegisterRoutes registers the event routes under /api.
func (h *NotificationHandler) RegisterRoutes(router fiber.Router, debug bool) {
	router.Get("/ws/events", h.ServeWs)

	if debug {
		d := router.Group("/debug")
		d.Use(serverutils.IdentityMiddleware(h.jwtSecret))
		d.Post("/trigger-event", h.DebugTriggerEvent)
	}
}
