package chat

import (
	"context"
	"log/slog"
	"sync"
)

// Conn is the transport surface the chat core needs from one connection.
// The production implementation wraps a WebSocket; tests use fakes.
type Conn interface {
	// WriteEnvelope sends one JSON envelope to the peer.
	WriteEnvelope(ctx context.Context, v interface{}) error
	// Closed reports whether the transport has shut down. Broadcast skips
	// closed connections instead of failing.
	Closed() bool
}

// Registry maintains the mapping from ticket room to the set of
// currently-joined connections.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[Conn]struct{}
	joined map[Conn]string
}

// NewRegistry creates an empty room registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]map[Conn]struct{}),
		joined: make(map[Conn]string),
	}
}

// Join adds a connection to a ticket room. Joining a room the connection
// is already in has no additional effect.
func (r *Registry) Join(ticketID string, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[ticketID]; !exists {
		r.rooms[ticketID] = make(map[Conn]struct{})
	}
	r.rooms[ticketID][c] = struct{}{}
	r.joined[c] = ticketID
}

// Leave removes a connection from whichever room it belongs to. It is safe
// to call for a connection that never joined.
func (r *Registry) Leave(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticketID, ok := r.joined[c]
	if !ok {
		return
	}
	delete(r.joined, c)
	if room, exists := r.rooms[ticketID]; exists {
		delete(room, c)
		if len(room) == 0 {
			delete(r.rooms, ticketID)
		}
	}
}

// Room returns the ticket room a connection is joined to, or "".
func (r *Registry) Room(c Conn) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.joined[c]
}

// Members returns a snapshot of the connections in a ticket room.
func (r *Registry) Members(ticketID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[ticketID]
	members := make([]Conn, 0, len(room))
	for c := range room {
		members = append(members, c)
	}
	return members
}

// Broadcast sends an envelope to every connection in a ticket room.
// Membership is snapshotted first, so joins and leaves during the send
// never corrupt iteration. A send to a closed connection is a no-op.
func (r *Registry) Broadcast(ctx context.Context, ticketID string, v interface{}) {
	for _, c := range r.Members(ticketID) {
		if c.Closed() {
			continue
		}
		if err := c.WriteEnvelope(ctx, v); err != nil {
			// The connection is going away; its read loop will unregister it.
			slog.Debug("broadcast write failed", "ticket_id", ticketID, "error", err)
		}
	}
}
