package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"garage/internal/middleware"
	"garage/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

func TestPublishNeverBlocks(t *testing.T) {
	h := NewHub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			h.Publish("invoice.updated", map[string]int{"n": i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked with no hub loop running")
	}

	msg := <-h.broadcast
	var ev struct {
		Event string         `json:"event"`
		Data  map[string]int `json:"data"`
	}
	if err := json.Unmarshal(msg.payload, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.event != "invoice.updated" || ev.Event != "invoice.updated" || ev.Data["n"] != 0 {
		t.Errorf("unexpected first event %+v", ev)
	}
}

func TestTopicFilter(t *testing.T) {
	all := &Subscriber{}
	invoices := &Subscriber{topics: parseTopics(" invoice , ,inventory")}

	if !all.wants("job_card.updated") {
		t.Errorf("subscriber without topics should get everything")
	}
	if len(invoices.topics) != 2 {
		t.Fatalf("expected 2 topics, got %v", invoices.topics)
	}
	if !invoices.wants("invoice.updated") || !invoices.wants("inventory.stock_changed") {
		t.Errorf("expected invoice and inventory events")
	}
	if invoices.wants("requisition.updated") {
		t.Errorf("requisition event leaked through the filter")
	}
}

func TestServeWsDeliversSubscribedEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	secret := []byte("ws-secret")
	hub := NewHub()
	go hub.Run()

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, secret) })
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if _, resp, err := websocket.DefaultDialer.Dial(url, nil); err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %v", err)
	}

	token, _ := middleware.IssueToken(secret, uuid.New(), model.RoleStores)
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token+"&topics=inventory", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	hub.Publish("invoice.updated", nil)
	hub.Publish("inventory.stock_changed", map[string]int{"current_stock": 4})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Event != "inventory.stock_changed" {
		t.Errorf("expected only the inventory event, got %s", ev.Event)
	}
}
