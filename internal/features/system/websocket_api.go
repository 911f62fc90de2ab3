package system

import (
	"go-insight/internal/common/api"
	"go-insight/internal/config"
	"go-insight/internal/middleware"
	"go-insight/pkg/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type WebSocketApi struct {
	Controller *WebSocketController
	Config     *config.Config
}

func NewWebSocketApi(controller *WebSocketController, cfg *config.Config) api.Route {
	return &WebSocketApi{
		Controller: controller,
		Config:     cfg,
	}
}

func (h *WebSocketApi) Setup(app *fiber.App) {
	app.Get("/api/ws",
		middleware.AuthMiddleware(h.Config.SkipAuth),
		func(c *fiber.Ctx) error {
			claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
			if !ok || claims.TenantID == "" {
				return c.SendStatus(fiber.StatusUnauthorized)
			}
			c.Locals(wsTenantLocal, claims.TenantID)
			return c.Next()
		},
		websocket.New(h.Controller.HandleWebSocket),
	)
}
