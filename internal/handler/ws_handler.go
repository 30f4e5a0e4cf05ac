package handler

import (
	"go-tenant-catalog/internal/service"
	"go-tenant-catalog/internal/ws"
	"go-tenant-catalog/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const wsUserKey = "ws_user"

type WSHandler struct {
	authService service.AuthService
	hub         *ws.Hub
}

func NewWSHandler(authService service.AuthService, hub *ws.Hub) *WSHandler {
	return &WSHandler{authService: authService, hub: hub}
}

// Upgrade authenticates the ?token= access token before the websocket
// handshake. Only tenant users can subscribe; events are per tenant.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.SendStatus(fiber.StatusUpgradeRequired)
	}
	user, err := h.authService.Authenticate(c.UserContext(), c.Query("token"))
	if err != nil {
		return writeError(c, err)
	}
	s := service.ScopeFor(user)
	if !s.HasTenant() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"detail": "Only tenant users can subscribe to catalog events."})
	}
	c.Locals(wsUserKey, s)
	return c.Next()
}

// Serve keeps the connection registered until the client goes away.
// GET /ws
func (h *WSHandler) Serve() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		s, _ := c.Locals(wsUserKey).(service.Scope)
		client := &ws.Client{Conn: c, TenantID: s.TenantID}

		h.hub.Register(client)
		defer h.hub.Unregister(client)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				logger.GetLogger().Debug("WS client disconnected", zap.Error(err))
				break
			}
		}
	})
}
