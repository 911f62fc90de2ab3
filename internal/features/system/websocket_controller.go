package system

import (
	"log"

	"github.com/gofiber/contrib/websocket"
)

// wsTenantLocal carries the tenant from the auth handler into the upgraded
// connection. A plain string key: contrib/websocket copies Locals by value.
const wsTenantLocal = "ws_tenant"

type WebSocketController struct {
	Hub *Hub
}

func NewWebSocketController(hub *Hub) *WebSocketController {
	return &WebSocketController{Hub: hub}
}

// HandleWebSocket keeps the connection registered with the hub until the
// client goes away. Inbound messages are only read to detect the close.
func (h *WebSocketController) HandleWebSocket(c *websocket.Conn) {
	tenant, ok := c.Locals(wsTenantLocal).(string)
	if !ok || tenant == "" {
		c.Close()
		return
	}

	h.Hub.Register(c, tenant)
	defer h.Hub.Unregister(c)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			log.Println("read:", err)
			break
		}
	}
}
