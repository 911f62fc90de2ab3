package system

import (
	"encoding/json"
	"errors"
	"testing"
)

type fakeConn struct {
	messages [][]byte
	failNext bool
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	if f.failNext {
		return errors.New("write failed")
	}
	f.messages = append(f.messages, data)
	return nil
}

func TestBroadcastOnlyReachesEventTenant(t *testing.T) {
	hub := NewHub()
	a := &fakeConn{}
	b := &fakeConn{}
	hub.Register(a, "tenant-a")
	hub.Register(b, "tenant-b")

	hub.Broadcast(Event{
		Type:     EventDashboardChanged,
		TenantID: "tenant-a",
		Payload:  map[string]interface{}{"widget_id": "w-1"},
	})

	if len(a.messages) != 1 {
		t.Fatalf("tenant-a got %d messages, want 1", len(a.messages))
	}
	if len(b.messages) != 0 {
		t.Fatalf("tenant-b got %d messages, want 0", len(b.messages))
	}

	var ev Event
	if err := json.Unmarshal(a.messages[0], &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Type != EventDashboardChanged || ev.TenantID != "tenant-a" {
		t.Errorf("got event %+v", ev)
	}
	if ev.At.IsZero() {
		t.Error("broadcast should stamp the event time")
	}
}

func TestBroadcastDropsFailedConnections(t *testing.T) {
	hub := NewHub()
	bad := &fakeConn{failNext: true}
	good := &fakeConn{}
	hub.Register(bad, "tenant-a")
	hub.Register(good, "tenant-a")

	hub.Broadcast(Event{Type: EventSnapshotSaved, TenantID: "tenant-a"})
	if len(good.messages) != 1 {
		t.Fatalf("healthy conn got %d messages, want 1", len(good.messages))
	}

	// The failed connection is gone: a second broadcast must not retry it.
	bad.failNext = false
	hub.Broadcast(Event{Type: EventSnapshotSaved, TenantID: "tenant-a"})
	if len(bad.messages) != 0 {
		t.Errorf("dropped conn still received %d messages", len(bad.messages))
	}
	if len(good.messages) != 2 {
		t.Errorf("healthy conn got %d messages, want 2", len(good.messages))
	}
}

func TestUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub()
	c := &fakeConn{}
	hub.Register(c, "tenant-a")
	hub.Unregister(c)

	hub.Broadcast(Event{Type: EventDashboardChanged, TenantID: "tenant-a"})
	if len(c.messages) != 0 {
		t.Errorf("unregistered conn got %d messages", len(c.messages))
	}
}
