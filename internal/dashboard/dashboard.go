// Package dashboard is an optional, supplemental broadcast surface: it
// pushes trending-cycle results and emitted alerts to any connected
// websocket client, so a local dashboard can watch the engine work
// without polling the repository directly. It is not part of the
// detection or alerting path — nothing downstream depends on a client
// being connected.
package dashboard

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nhattruong0204/alpha-radar/pkg/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local dashboard only, no cross-origin risk worth gating
	},
}

// CycleEvent is broadcast once per trending scan.
type CycleEvent struct {
	Type      string                 `json:"type"`
	ScannedAt time.Time              `json:"scanned_at"`
	Tokens    []models.TrendingToken `json:"tokens"`
}

// AlertEvent is broadcast whenever the orchestrator admits an alert
// through the cooldown gate and hands it to the notifier.
type AlertEvent struct {
	Type    string             `json:"type"`
	SentAt  time.Time          `json:"sent_at"`
	Token   models.TrendingToken `json:"token"`
}

// Hub maintains the set of connected websocket clients and fans out
// broadcast messages to all of them, adapted from the teacher's
// dashboard hub for chat alerts instead of transaction clusters.
type Hub struct {
	mu        sync.Mutex
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
}

// NewHub builds an idle Hub. Call Run in its own goroutine to start
// draining broadcasts.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, 256),
	}
}

// Run drains the broadcast channel until it is closed, fanning each
// message out to every connected client.
func (h *Hub) Run() {
	for message := range h.broadcast {
		h.mu.Lock()
		for client := range h.clients {
			_ = client.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("dashboard: write error: %v", err)
				client.Close()
				delete(h.clients, client)
			}
		}
		h.mu.Unlock()
	}
}

// Subscribe upgrades an incoming request to a websocket connection and
// registers it as a broadcast recipient.
func (h *Hub) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("dashboard: upgrade failed: %v", err)
		return
	}

	clientID := uuid.New().String()
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	log.Printf("dashboard: client %s connected", clientID)

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			log.Printf("dashboard: client %s disconnected", clientID)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// BroadcastCycle marshals and publishes a trending-cycle snapshot. A
// marshal failure only drops the broadcast; it never propagates to the
// trending loop.
func (h *Hub) BroadcastCycle(scannedAt time.Time, tokens []models.TrendingToken) {
	payload, err := json.Marshal(CycleEvent{Type: "cycle", ScannedAt: scannedAt, Tokens: tokens})
	if err != nil {
		log.Printf("dashboard: marshal cycle event: %v", err)
		return
	}
	h.broadcast <- payload
}

// BroadcastAlert marshals and publishes a single emitted alert.
func (h *Hub) BroadcastAlert(sentAt time.Time, token models.TrendingToken) {
	payload, err := json.Marshal(AlertEvent{Type: "alert", SentAt: sentAt, Token: token})
	if err != nil {
		log.Printf("dashboard: marshal alert event: %v", err)
		return
	}
	h.broadcast <- payload
}

// Close stops accepting broadcasts. Safe to call once during shutdown.
func (h *Hub) Close() {
	close(h.broadcast)
}

// Router registers the websocket subscribe route on a gin engine.
func (h *Hub) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/ws", h.Subscribe)
	return r
}
