package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dukerupert/todo/internal/model"
)

// Message is a task change notification pushed to subscribers.
type Message struct {
	Type   string      `json:"type"`
	Action string      `json:"action"`
	ID     int64       `json:"id"`
	Task   *model.Task `json:"task,omitempty"`
}

// NewMessage creates a Message with Type derived from action.
func NewMessage(action string, t *model.Task) Message {
	msg := Message{Type: "task_" + action, Action: action, ID: t.ID}
	// Deleted tasks are announced by id only.
	if action != "deleted" {
		msg.Task = t
	}
	return msg
}

// Hub maintains the set of active WebSocket clients. A task event reaches
// the task owner's clients and every admin client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger.With("component", "websocket"),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Publish delivers msg to clients allowed to see tasks owned by ownerID.
// A client whose buffer is full misses the message.
func (h *Hub) Publish(ownerID int64, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal message", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.userID != ownerID && !c.admin {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.logger.Warn("client buffer full, dropping message", "user_id", c.userID, "type", msg.Type)
		}
	}
}

// TaskChanged implements service.TaskNotifier.
func (h *Hub) TaskChanged(action string, t *model.Task) {
	h.Publish(t.OwnerID, NewMessage(action, t))
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
