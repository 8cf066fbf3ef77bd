package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scanvault/api/internal/model"
)

// AllJobs is the subscription key that receives every job's transitions
const AllJobs = "*"

// Client represents a WebSocket subscriber
type Client struct {
	ID    string
	JobID string
	Conn  *websocket.Conn
	Send  chan []byte
}

// Hub fans job status transitions out to WebSocket subscribers
type Hub struct {
	// Clients grouped by job ID, or AllJobs
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	stopped    chan struct{}

	logger *zap.Logger
}

// BroadcastMessage represents a message to broadcast
type BroadcastMessage struct {
	JobID   string
	Message []byte
}

// NewHub creates a new Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		stopped:    make(chan struct{}),
		logger:     logger.Named("ws"),
	}
}

// Run owns the subscriber maps until ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.clients {
				for client := range clients {
					close(client.Send)
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			return

		case client := <-h.register:
			if h.clients[client.JobID] == nil {
				h.clients[client.JobID] = make(map[*Client]bool)
			}
			h.clients[client.JobID][client] = true
			h.logger.Debug("client registered", zap.String("client_id", client.ID), zap.String("job_id", client.JobID))

		case client := <-h.unregister:
			h.remove(client)
			h.logger.Debug("client unregistered", zap.String("client_id", client.ID), zap.String("job_id", client.JobID))

		case msg := <-h.broadcast:
			h.deliver(msg.JobID, msg.Message)
			h.deliver(AllJobs, msg.Message)
		}
	}
}

func (h *Hub) deliver(key string, message []byte) {
	for client := range h.clients[key] {
		select {
		case client.Send <- message:
		default:
			// Slow consumer; drop it
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.JobID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.clients, client.JobID)
	}
}

// OnTransition broadcasts a status change. It never blocks; when the
// broadcast buffer is full the update is dropped and clients catch up on
// their next poll.
func (h *Hub) OnTransition(_ context.Context, previous model.JobStatus, job *model.JobRecord) {
	if job == nil {
		return
	}
	data, err := json.Marshal(model.WSStatusMessage{
		Type:     model.WSMessageTypeStatus,
		JobID:    job.ID,
		Previous: previous,
		Job:      job,
	})
	if err != nil {
		h.logger.Error("failed to marshal status message", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- &BroadcastMessage{JobID: job.ID, Message: data}:
	default:
		h.logger.Warn("broadcast buffer full, status update dropped", zap.String("job_id", job.ID))
	}
}

// HandleConnection serves one WebSocket subscriber for jobID (or AllJobs)
func (h *Hub) HandleConnection(c *websocket.Conn, jobID string) {
	client := &Client{
		ID:    uuid.NewString(),
		JobID: jobID,
		Conn:  c,
		Send:  make(chan []byte, 64),
	}

	select {
	case h.register <- client:
	case <-h.stopped:
		return
	}
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.stopped:
		}
	}()

	pongs := make(chan []byte, 4)
	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Send:
				if !ok {
					_ = c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}
			case message := <-pongs:
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}
			case <-ticker.C:
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read error", zap.String("client_id", client.ID), zap.Error(err))
			}
			return
		}

		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == model.WSMessageTypePing {
			data, _ := json.Marshal(model.WSMessage{Type: model.WSMessageTypePong})
			select {
			case pongs <- data:
			default:
			}
		}
	}
}
