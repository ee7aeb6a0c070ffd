package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Auth happens at the application layer; the browser origin is not a
	// trust boundary for this API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans workflow-run progress frames out to WebSocket subscribers. Clients
// subscribe to a single run ID; frames for other runs are never delivered to
// them.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*client]bool // runID -> clients
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[*client]bool),
	}
}

// BroadcastRunProgress implements the executor's progress broadcaster. Slow
// clients are dropped rather than blocking the run.
func (h *Hub) BroadcastRunProgress(runID string, frame interface{}) {
	payload, err := json.Marshal(frame)
	if err != nil {
		log.Printf("⚠️ Failed to marshal progress frame for run %s: %v", runID, err)
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.subs[runID]))
	for cl := range h.subs[runID] {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	for _, cl := range clients {
		select {
		case cl.send <- payload:
		default:
			h.unsubscribe(runID, cl)
		}
	}
}

// SubscriberCount returns how many clients watch a run.
func (h *Hub) SubscriberCount(runID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[runID])
}

func (h *Hub) subscribe(runID string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[runID] == nil {
		h.subs[runID] = make(map[*client]bool)
	}
	h.subs[runID][cl] = true
}

func (h *Hub) unsubscribe(runID string, cl *client) {
	h.mu.Lock()
	if clients, ok := h.subs[runID]; ok {
		delete(clients, cl)
		if len(clients) == 0 {
			delete(h.subs, runID)
		}
	}
	h.mu.Unlock()

	cl.once.Do(func() {
		close(cl.send)
		cl.conn.Close()
	})
}

// ServeRunProgress handles GET /ws/workflow-runs/:id, upgrading to a
// WebSocket that streams progress frames for that run.
func (h *Hub) ServeRunProgress(c *gin.Context) {
	runID := c.Param("id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ WebSocket upgrade failed: %v", err)
		return
	}

	cl := &client{
		conn: conn,
		send: make(chan []byte, 16),
	}
	h.subscribe(runID, cl)

	// Writer pump.
	go func() {
		for payload := range cl.send {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				break
			}
		}
		h.unsubscribe(runID, cl)
	}()

	// Reader pump: we only care about close/ping traffic.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.unsubscribe(runID, cl)
				return
			}
		}
	}()
}
