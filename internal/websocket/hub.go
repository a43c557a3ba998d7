package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"garage/internal/middleware"
	"garage/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for dev simplicity
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event is the envelope every workflow notification is sent in
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type message struct {
	event   string
	payload []byte
}

// Subscriber is one connected board or terminal. Topics filter events by
// prefix ("invoice" receives invoice.updated); empty means everything.
type Subscriber struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	actor  workflow.Actor
	topics []string
}

func (s *Subscriber) wants(event string) bool {
	if len(s.topics) == 0 {
		return true
	}
	for _, t := range s.topics {
		if strings.HasPrefix(event, t) {
			return true
		}
	}
	return false
}

// Hub fans committed workflow events out to subscribers
type Hub struct {
	subscribers map[*Subscriber]struct{}
	broadcast   chan message
	register    chan *Subscriber
	unregister  chan *Subscriber
	mu          sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]struct{}),
		broadcast:   make(chan message, 256),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
	}
}

// Publish queues an event for delivery. It never blocks the caller: when the
// queue is full the event is dropped.
func (h *Hub) Publish(event string, data interface{}) {
	payload, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		log.Printf("websocket: cannot encode %s event: %v", event, err)
		return
	}
	select {
	case h.broadcast <- message{event: event, payload: payload}:
	default:
		log.Printf("websocket: broadcast queue full, dropping %s event", event)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Run owns the subscriber set. Start it once in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case s := <-h.register:
			h.mu.Lock()
			h.subscribers[s] = struct{}{}
			h.mu.Unlock()
			log.Printf("websocket: %s %s subscribed", s.actor.Role, s.actor.EmployeeID)
		case s := <-h.unregister:
			h.mu.Lock()
			h.drop(s)
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for s := range h.subscribers {
				if !s.wants(msg.event) {
					continue
				}
				select {
				case s.send <- msg.payload:
				default:
					// slow consumer
					h.drop(s)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop must be called with mu held
func (h *Hub) drop(s *Subscriber) {
	if _, ok := h.subscribers[s]; ok {
		delete(h.subscribers, s)
		close(s.send)
	}
}

func (s *Subscriber) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop discards inbound frames; it only keeps the pong deadline fresh
// and notices when the peer goes away.
func (s *Subscriber) readLoop() {
	defer func() {
		s.hub.unregister <- s
		_ = s.conn.Close()
	}()
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket: read error: %v", err)
			}
			return
		}
	}
}

func parseTopics(raw string) []string {
	var topics []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

// ServeWs upgrades an authenticated request. Browsers cannot set headers on
// the upgrade, so the token travels as ?token=.
func ServeWs(hub *Hub, c *gin.Context, secret []byte) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	actor, err := middleware.ParseToken(secret, tokenString)
	if err != nil {
		log.Println("WebSocket connection rejected:", err)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade failed:", err)
		return
	}
	s := &Subscriber{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		actor:  actor,
		topics: parseTopics(c.Query("topics")),
	}
	hub.register <- s

	go s.writeLoop()
	go s.readLoop()
}
