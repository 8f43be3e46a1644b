// Package chat implements the ticket-scoped live chat relay: the room
// registry, the per-connection gateway protocol, and the WebSocket glue.
package chat

import (
	"encoding/json"

	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/domain"
)

// Wire envelope types. These strings are the contract with the existing
// web clients and must not change.
const (
	TypeJoinTicket   = "join_ticket"
	TypeChatMessage  = "chat_message"
	TypeChatHistory  = "chat_history"
	TypeJoinedTicket = "joined_ticket"
	TypeNewMessage   = "new_message"
	TypeError        = "error"
)

// ClientFrame is a client→server envelope. join_ticket carries only
// TicketID; chat_message carries the sender fields and Message.
type ClientFrame struct {
	Type       string            `json:"type"`
	TicketID   string            `json:"ticketID,omitempty"`
	SendBy     string            `json:"sendBy,omitempty"`
	SenderName string            `json:"senderName,omitempty"`
	SenderRole domain.SenderRole `json:"senderRole,omitempty"`
	Message    string            `json:"message,omitempty"`
}

// HistoryEvent replays a ticket's full message log to a joining connection.
type HistoryEvent struct {
	Type     string               `json:"type"`
	Messages []domain.ChatMessage `json:"messages"`
}

// JoinedEvent acknowledges a successful join.
type JoinedEvent struct {
	Type     string `json:"type"`
	TicketID string `json:"ticketID"`
}

// NewMessageEvent relays one appended message to every room member.
type NewMessageEvent struct {
	Type    string             `json:"type"`
	Message domain.ChatMessage `json:"message"`
}

// ErrorEvent reports a recoverable protocol error to the connection that
// caused it.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ServerEvent is a partially decoded server→client envelope. The "message"
// key is polymorphic on the wire (an object for new_message, a string for
// error), so payloads stay raw until the type is known.
type ServerEvent struct {
	Type     string          `json:"type"`
	TicketID string          `json:"ticketID,omitempty"`
	Message  json.RawMessage `json:"message,omitempty"`
	Messages json.RawMessage `json:"messages,omitempty"`
}

func newHistoryEvent(messages []domain.ChatMessage) HistoryEvent {
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	return HistoryEvent{Type: TypeChatHistory, Messages: messages}
}

func newErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: TypeError, Message: message}
}
