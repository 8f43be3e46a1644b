package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/domain"
	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/presence"
	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/store"
)

// TicketDirectory validates that a join references an existing ticket.
type TicketDirectory interface {
	TicketByID(ctx context.Context, ticketID string) (*domain.Ticket, error)
}

// HistoryStore is the external append-only message log. AppendMessage
// assigns the server-side timestamp and returns the stored record; the
// gateway never caches history beyond a single join.
type HistoryStore interface {
	AppendMessage(ctx context.Context, msg domain.ChatMessage) (domain.ChatMessage, error)
	MessagesByTicket(ctx context.Context, ticketID string) ([]domain.ChatMessage, error)
}

// Gateway holds the shared state behind every chat connection: ticket
// lookup, the history store, the room registry, and one ordering lock per
// ticket room so append+broadcast is serialized within a room without a
// global lock across unrelated rooms.
type Gateway struct {
	tickets  TicketDirectory
	history  HistoryStore
	registry *Registry
	tracker  *presence.Tracker

	lockMu    sync.Mutex
	roomLocks map[string]*roomLock
}

// roomLock serializes append+broadcast and join replay within one ticket
// room. refs counts holders and waiters so the gateway can drop the entry
// once the room goes quiet instead of keeping a mutex per ticket forever.
type roomLock struct {
	mu   sync.Mutex
	refs int
}

// NewGateway creates a chat gateway. tracker may be nil; presence is then
// disabled with no other behavior change.
func NewGateway(tickets TicketDirectory, history HistoryStore, registry *Registry, tracker *presence.Tracker) *Gateway {
	return &Gateway{
		tickets:   tickets,
		history:   history,
		registry:  registry,
		tracker:   tracker,
		roomLocks: make(map[string]*roomLock),
	}
}

// Registry exposes the gateway's room registry.
func (g *Gateway) Registry() *Registry { return g.registry }

// lockRoom acquires the ordering lock for a ticket room, creating it on
// first use.
func (g *Gateway) lockRoom(ticketID string) *roomLock {
	g.lockMu.Lock()
	lk, ok := g.roomLocks[ticketID]
	if !ok {
		lk = &roomLock{}
		g.roomLocks[ticketID] = lk
	}
	lk.refs++
	g.lockMu.Unlock()

	lk.mu.Lock()
	return lk
}

// unlockRoom releases the room lock and drops the map entry once nobody
// holds or waits on it.
func (g *Gateway) unlockRoom(ticketID string, lk *roomLock) {
	lk.mu.Unlock()

	g.lockMu.Lock()
	lk.refs--
	if lk.refs == 0 {
		delete(g.roomLocks, ticketID)
	}
	g.lockMu.Unlock()
}

// Session is the gateway-side state of one connection. Frames are handled
// by the connection's single read loop, so session state needs no lock.
// State machine: connecting (ticketID == "") → joined → closed; a session
// never switches tickets, a client opens one socket per ticket.
type Session struct {
	gateway *Gateway
	conn    Conn
	label   string // connection label for logs and presence

	ticketID string
	closed   bool
}

// NewSession binds a connection to the gateway. label identifies the
// connection in logs and presence sets.
func (g *Gateway) NewSession(c Conn, label string) *Session {
	return &Session{gateway: g, conn: c, label: label}
}

// HandleFrame decodes and dispatches one client envelope. Protocol errors
// are reported to this connection only and never tear down the room.
func (s *Session) HandleFrame(ctx context.Context, data []byte) {
	if s.closed {
		return
	}

	var frame ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.reply(ctx, newErrorEvent("malformed message"))
		return
	}

	switch frame.Type {
	case TypeJoinTicket:
		s.handleJoin(ctx, frame)
	case TypeChatMessage:
		s.handleChatMessage(ctx, frame)
	default:
		s.reply(ctx, newErrorEvent(fmt.Sprintf("unknown message type %q", frame.Type)))
	}
}

// Close unregisters the connection. Messages already broadcast are
// already durable, so nothing else is required.
func (s *Session) Close(ctx context.Context) {
	if s.closed {
		return
	}
	s.closed = true
	s.gateway.registry.Leave(s.conn)
	if s.ticketID != "" {
		s.gateway.tracker.Leave(ctx, s.ticketID, s.label)
	}
}

func (s *Session) handleJoin(ctx context.Context, frame ClientFrame) {
	ticketID := strings.TrimSpace(frame.TicketID)
	if ticketID == "" {
		s.reply(ctx, newErrorEvent("ticketID is required"))
		return
	}
	if s.ticketID != "" && s.ticketID != ticketID {
		s.reply(ctx, newErrorEvent("already joined to ticket "+s.ticketID))
		return
	}

	if _, err := s.gateway.tickets.TicketByID(ctx, ticketID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.reply(ctx, newErrorEvent("unknown ticket "+ticketID))
		} else {
			slog.Error("ticket lookup failed", "ticket_id", ticketID, "error", err)
			s.reply(ctx, newErrorEvent("ticket lookup failed"))
		}
		return
	}

	// The room lock is held across register + replay so a concurrently
	// relayed message is either in the replayed history or delivered after
	// it, never both and never neither.
	wasJoined := s.ticketID == ticketID
	lk := s.gateway.lockRoom(ticketID)
	s.gateway.registry.Join(ticketID, s.conn)
	history, err := s.gateway.history.MessagesByTicket(ctx, ticketID)
	if err != nil {
		// Roll back only a registration this join performed; a repeat
		// join must leave the existing membership intact.
		if !wasJoined {
			s.gateway.registry.Leave(s.conn)
		}
		s.gateway.unlockRoom(ticketID, lk)
		slog.Error("history fetch failed", "ticket_id", ticketID, "error", err)
		s.reply(ctx, newErrorEvent("failed to load chat history"))
		return
	}
	s.reply(ctx, newHistoryEvent(history))
	s.reply(ctx, JoinedEvent{Type: TypeJoinedTicket, TicketID: ticketID})
	s.ticketID = ticketID
	s.gateway.unlockRoom(ticketID, lk)

	s.gateway.tracker.Join(ctx, ticketID, s.label)
	slog.Info("connection joined ticket room", "ticket_id", ticketID, "conn", s.label)
}

func (s *Session) handleChatMessage(ctx context.Context, frame ClientFrame) {
	if s.ticketID == "" {
		s.reply(ctx, newErrorEvent("join a ticket before sending messages"))
		return
	}
	body := strings.TrimSpace(frame.Message)
	if body == "" {
		s.reply(ctx, newErrorEvent("message is empty"))
		return
	}

	// Sender identity is client-asserted, matching the legacy clients.
	msg := domain.ChatMessage{
		TicketID:   s.ticketID,
		SendBy:     frame.SendBy,
		SenderName: frame.SenderName,
		SenderRole: frame.SenderRole,
		Body:       body,
	}

	// Serialize append+broadcast per room so every member observes the
	// same total order. Failure before broadcast means at-most-once: the
	// sender gets an error and may resubmit.
	lk := s.gateway.lockRoom(s.ticketID)
	stored, err := s.gateway.history.AppendMessage(ctx, msg)
	if err != nil {
		s.gateway.unlockRoom(s.ticketID, lk)
		slog.Error("message append failed", "ticket_id", s.ticketID, "error", err)
		s.reply(ctx, newErrorEvent("failed to store message"))
		return
	}
	s.gateway.registry.Broadcast(ctx, s.ticketID, NewMessageEvent{Type: TypeNewMessage, Message: stored})
	s.gateway.unlockRoom(s.ticketID, lk)
}

func (s *Session) reply(ctx context.Context, v interface{}) {
	if err := s.conn.WriteEnvelope(ctx, v); err != nil {
		slog.Debug("reply write failed", "conn", s.label, "error", err)
	}
}
