// Package domain defines the core entities of the pharmacy support system.
package domain

import "time"

// TicketStatus is the lifecycle state of a support ticket. Status values
// are stored and served verbatim; existing dashboard clients match on the
// exact strings.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "Open"
	TicketInProgress TicketStatus = "In Progress"
	TicketResolved   TicketStatus = "Resolved"
	TicketPending    TicketStatus = "Pending"
)

// ValidTicketStatus reports whether s is one of the known ticket statuses.
func ValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketResolved, TicketPending:
		return true
	}
	return false
}

// Ticket is a customer support request. Its lifecycle status is driven by
// agent dashboard actions, independently of the chat attached to it.
type Ticket struct {
	ID         string       `json:"ticketID"`
	Subject    string       `json:"subject"`
	Category   string       `json:"category"`
	Priority   string       `json:"priority"`
	Status     TicketStatus `json:"status"`
	CustomerID string       `json:"customerID"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}
