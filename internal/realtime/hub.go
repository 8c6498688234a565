package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/marviero/backoffice/internal/domain"
)

// AdminRoom receives every broadcast alongside the per-tenant rooms.
const AdminRoom = "admin-room"

// ClientRoom names the room for one tenant.
func ClientRoom(clientID string) string {
	return fmt.Sprintf("client_%s", clientID)
}

// Hub tracks connected clients and their room memberships. Rooms are pure
// server-side state; clients request membership via join frames and the hub
// decides based on the attached identity.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	log     *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		log:     log,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	close(c.send)
}

// canJoin decides room membership from the attached identity. ADMIN joins
// anything; CLIENT only its own tenant room; PUBLIC joins nothing.
func canJoin(identity *domain.Identity, room string) bool {
	if identity.IsAdmin() {
		return true
	}
	if room == AdminRoom {
		return false
	}
	if identity.Type == domain.UserTypePrivate && identity.Role == domain.RoleClient {
		return identity.ClientID != nil && room == ClientRoom(*identity.ClientID)
	}
	return false
}

// Join adds a client to a room if its identity allows it. Denied joins are
// logged and silently dropped; the connection stays up. Idempotent.
func (h *Hub) Join(c *Client, room string) {
	if !canJoin(c.identity, room) {
		h.log.Warn("room join denied",
			slog.String("socket_id", c.id),
			slog.String("user_id", c.identity.ID),
			slog.String("room", room),
		)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
}

// InRoom reports whether the client is currently a member of the room.
func (h *Hub) InRoom(c *Client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[room][c]
	return ok
}

// Broadcast sends an event frame to every member of the room. Clients with
// a full send buffer are skipped rather than blocking the broadcast.
func (h *Hub) Broadcast(room, event string, payload json.RawMessage) {
	frame, err := json.Marshal(eventFrame(event, payload))
	if err != nil {
		h.log.Error("marshal broadcast frame", slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[room] {
		select {
		case c.send <- frame:
		default:
			h.log.Warn("dropping frame for slow client",
				slog.String("socket_id", c.id),
				slog.String("room", room),
			)
		}
	}
}

// ConnectionCount reports the number of registered clients.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
