package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sentrychat/message-security/internal/domain"
)

// Submitter is the intake side of the message pipeline. The hub never
// delivers what a client sends directly: everything goes through Submit and
// comes back via Deliver or Reject.
type Submitter interface {
	Submit(msg *domain.Message) error
}

// outboundEnvelope is what the hub writes to connections.
type outboundEnvelope struct {
	Kind    string          `json:"kind"` // "message", "rejected", "notice"
	Message *domain.Message `json:"message,omitempty"`
	Reason  string          `json:"reason,omitempty"`
	Notice  string          `json:"notice,omitempty"`
}

// Hub tracks connected clients per room and fans pipeline verdicts out to
// them. It implements ports.Transport.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]bool
	clients map[string]*Client // client id -> client

	registerCh   chan *Client
	unregisterCh chan *Client

	pipeline Submitter
	logger   *slog.Logger
}

func NewHub(pipeline Submitter, logger *slog.Logger) *Hub {
	return &Hub{
		rooms:        make(map[string]map[*Client]bool),
		clients:      make(map[string]*Client),
		registerCh:   make(chan *Client),
		unregisterCh: make(chan *Client, 16),
		pipeline:     pipeline,
		logger:       logger,
	}
}

// NewClient binds a connection to the hub. The caller starts the pumps.
func (h *Hub) NewClient(id, roomID string, conn ConnLike) *Client {
	return &Client{
		ID:     id,
		RoomID: roomID,
		Conn:   conn,
		Send:   make(chan []byte, 32),
		hub:    h,
	}
}

// Run owns register/unregister handling and join/leave notices.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.registerCh:
			h.mu.Lock()
			if h.rooms[client.RoomID] == nil {
				h.rooms[client.RoomID] = make(map[*Client]bool)
			}
			h.rooms[client.RoomID][client] = true
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.notifyRoom(client.RoomID, client.ID+" joined")

		case client := <-h.unregisterCh:
			h.mu.Lock()
			if members, ok := h.rooms[client.RoomID]; ok {
				if members[client] {
					delete(members, client)
					close(client.Send)
				}
				if len(members) == 0 {
					delete(h.rooms, client.RoomID)
				}
			}
			delete(h.clients, client.ID)
			h.mu.Unlock()
			h.notifyRoom(client.RoomID, client.ID+" left")
		}
	}
}

// Register announces a new connection to the hub loop
func (h *Hub) Register(client *Client) {
	h.registerCh <- client
}

// Deliver broadcasts an accepted message, scan annotation included, to every
// client currently in the message's room.
func (h *Hub) Deliver(msg *domain.Message) error {
	data, err := json.Marshal(outboundEnvelope{Kind: "message", Message: msg})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.rooms[msg.RoomID]))
	for c := range h.rooms[msg.RoomID] {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	for _, c := range snapshot {
		select {
		case c.Send <- data:
		default:
			// slow consumer, drop the frame rather than stall delivery
			h.logger.Warn("dropping frame for slow client", "client_id", c.ID, "room_id", msg.RoomID)
		}
	}
	return nil
}

// Reject informs only the author. Other room members never learn a blocked
// message existed.
func (h *Hub) Reject(msg *domain.Message, reason string) error {
	data, err := json.Marshal(outboundEnvelope{Kind: "rejected", Message: msg, Reason: reason})
	if err != nil {
		return fmt.Errorf("failed to encode rejection: %w", err)
	}

	h.mu.RLock()
	author := h.clients[msg.SenderToken]
	h.mu.RUnlock()

	if author == nil {
		// author already disconnected, nothing to notify
		return nil
	}
	select {
	case author.Send <- data:
	default:
		h.logger.Warn("dropping rejection for slow client", "client_id", author.ID)
	}
	return nil
}

func (h *Hub) notifyRoom(roomID, notice string) {
	data, err := json.Marshal(outboundEnvelope{Kind: "notice", Notice: notice})
	if err != nil {
		return
	}
	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()
	for _, c := range snapshot {
		select {
		case c.Send <- data:
		default:
		}
	}
}

// submit forwards an inbound frame into the pipeline
func (h *Hub) submit(c *Client, in inboundMessage) {
	msg := &domain.Message{
		ID:          in.ID,
		RoomID:      c.RoomID,
		SenderToken: c.ID,
		Content:     in.Content,
	}
	if err := h.pipeline.Submit(msg); err != nil {
		h.logger.Error("failed to submit message", "client_id", c.ID, "error", err)
	}
}
