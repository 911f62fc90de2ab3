package system

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// Event is pushed to connected UI sessions of one tenant. The portal uses
// these to refresh dashboards after a mutation and to show the "unsaved
// changes" indicator when a background save fails.
type Event struct {
	Type     string      `json:"type"`
	TenantID string      `json:"tenant_id,omitempty"`
	Payload  interface{} `json:"payload,omitempty"`
	At       time.Time   `json:"at"`
}

const (
	EventDashboardChanged = "dashboard.changed"
	EventSnapshotSaved    = "snapshot.saved"
	EventSnapshotFailed   = "snapshot.save_failed"
)

// wsConn is the slice of *websocket.Conn the hub needs.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
}

// Hub fans events out to registered websocket connections, scoped by
// tenant: a connection only ever sees events carrying its own tenant ID.
type Hub struct {
	mu    sync.Mutex
	conns map[wsConn]string
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[wsConn]string),
	}
}

func (h *Hub) Register(c wsConn, tenantID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = tenantID
}

func (h *Hub) Unregister(c wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
}

// Broadcast sends the event to every connection registered for the event's
// tenant. Connections that fail to write are dropped.
func (h *Hub) Broadcast(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	msg, err := json.Marshal(ev)
	if err != nil {
		log.Println("broadcast marshal:", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c, tenant := range h.conns {
		if tenant != ev.TenantID {
			continue
		}
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Println("broadcast write:", err)
			delete(h.conns, c)
		}
	}
}
