package handler

import (
	"collab-platform-be/internal/pkg/logger"
	"collab-platform-be/internal/pkg/serverutils"
	collabws "collab-platform-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// CollabHandler owns the websocket entry point of the real-time gateway.
type CollabHandler struct {
	hub       *collabws.Hub
	jwtSecret string
	logger    logger.ILogger
}

func NewCollabHandler(hub *collabws.Hub, jwtSecret string, log logger.ILogger) *CollabHandler {
	return &CollabHandler{hub: hub, jwtSecret: jwtSecret, logger: log}
}

func (h *CollabHandler) RegisterRoutes(r fiber.Router) {
	ws := r.Group("/collaboration/v1")
	ws.Use("/ws", h.upgradeGate)
	ws.Get("/ws", websocket.New(h.serve))
}

// upgradeGate authenticates the handshake before the protocol switch.
// Browsers cannot set headers on websocket upgrades, so the token is
// accepted from the query string as well as the Authorization header.
func (h *CollabHandler) upgradeGate(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	tokenStr := ctx.Query("token")
	if tokenStr == "" {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return serverutils.NewAppError(fiber.StatusUnauthorized, "Missing token")
	}

	claims, err := serverutils.ParseToken(tokenStr, h.jwtSecret)
	if err != nil {
		return serverutils.NewAppError(fiber.StatusUnauthorized, "Invalid token")
	}

	rawId, _ := claims["user_id"].(string)
	userId, err := uuid.Parse(rawId)
	if err != nil {
		return serverutils.NewAppError(fiber.StatusUnauthorized, "Invalid user identity")
	}

	userName, _ := claims["user_name"].(string)

	ctx.Locals("user_id", userId)
	ctx.Locals("user_name", userName)
	return ctx.Next()
}

func (h *CollabHandler) serve(conn *websocket.Conn) {
	userId, ok := conn.Locals("user_id").(uuid.UUID)
	if !ok {
		// The gate always sets this; a miss means the route was wired
		// without it.
		h.logger.Error("CollabHandler", "Websocket served without authenticated user", nil)
		_ = conn.Close()
		return
	}
	userName, _ := conn.Locals("user_name").(string)

	collabws.ServeWs(h.hub, conn, userId, userName)
}
