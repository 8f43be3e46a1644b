package domain

import "time"

// SenderRole identifies which side of a support conversation sent a message.
type SenderRole string

const (
	RoleCustomer SenderRole = "customer"
	RoleAgent    SenderRole = "agent"
)

// ValidSenderRole reports whether r is a known sender role.
func ValidSenderRole(r SenderRole) bool {
	return r == RoleCustomer || r == RoleAgent
}

// ChatMessage is one entry in a ticket's append-only chat log. The JSON
// field names (sendBy, senderName, senderRole, message, timeStamp) are the
// wire contract with the existing web clients and must not change.
type ChatMessage struct {
	ID         int64      `json:"-"`
	TicketID   string     `json:"-"`
	SendBy     string     `json:"sendBy"`
	SenderName string     `json:"senderName"`
	SenderRole SenderRole `json:"senderRole"`
	Body       string     `json:"message"`
	Timestamp  time.Time  `json:"timeStamp"`
}
