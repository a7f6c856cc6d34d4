// Package viz streams environment snapshots to external visualizers.
package viz

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/zeu5/pursuit-rl/chase"
)

type frame struct {
	Type string         `json:"type"`
	Data chase.Snapshot `json:"data"`
}

// Hub fans every rendered snapshot out to its subscribers. A subscriber
// whose buffer is full misses the frame, rendering never blocks.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]chan []byte
	buffer      int
	last        []byte
	dropped     int
	logger      *log.Logger
}

var _ chase.Renderer = &Hub{}

func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		subscribers: make(map[string]chan []byte),
		buffer:      buffer,
		logger:      log.New(os.Stderr, "[viz] ", log.LstdFlags),
	}
}

func (h *Hub) Render(s chase.Snapshot) {
	bs, err := json.Marshal(frame{Type: "snapshot", Data: s})
	if err != nil {
		h.logger.Printf("failed to encode snapshot: %s", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = bs
	for _, ch := range h.subscribers {
		select {
		case ch <- bs:
		default:
			h.dropped++
		}
	}
}

// Subscribe registers a new subscriber, the last rendered frame is queued first
func (h *Hub) Subscribe() (string, <-chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := uuid.NewString()
	ch := make(chan []byte, h.buffer)
	if h.last != nil {
		ch <- h.last
	}
	h.subscribers[id] = ch
	return id, ch
}

// Unsubscribe closes the subscriber's channel
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
	}
}

// Close drops every subscriber
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Dropped is the number of frames subscribers missed
func (h *Hub) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const writeWait = 5 * time.Second

// ServeWS upgrades the request and writes every frame as a text message
// until the client goes away or the hub is closed
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade: %s", err)
		return
	}
	defer c.Close()

	id, frames := h.Subscribe()
	defer h.Unsubscribe(id)

	// reading is mandatory to notice when the socket is closed client side
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case bs, ok := <-frames:
			if !ok {
				_ = c.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			_ = c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteMessage(websocket.TextMessage, bs); err != nil {
				return
			}
		}
	}
}
