package domain

import "time"

// Feedback is a free-form customer rating of the service.
type Feedback struct {
	ID         int64     `json:"id"`
	CustomerID string    `json:"customerID"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CallbackStatus tracks whether a requested phone callback happened.
type CallbackStatus string

const (
	CallbackRequested CallbackStatus = "Requested"
	CallbackCompleted CallbackStatus = "Completed"
	CallbackCancelled CallbackStatus = "Cancelled"
)

// ValidCallbackStatus reports whether s is a known callback status.
func ValidCallbackStatus(s CallbackStatus) bool {
	switch s {
	case CallbackRequested, CallbackCompleted, CallbackCancelled:
		return true
	}
	return false
}

// CallbackRequest is a scheduled phone callback from the pharmacy team.
type CallbackRequest struct {
	ID          int64          `json:"id"`
	CustomerID  string         `json:"customerID"`
	Phone       string         `json:"phone"`
	Topic       string         `json:"topic"`
	PreferredAt time.Time      `json:"preferredAt"`
	Status      CallbackStatus `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// DashboardStats is the aggregate view served to the agent dashboard.
type DashboardStats struct {
	TicketsByStatus map[TicketStatus]int `json:"ticketsByStatus"`
	TotalTickets    int                  `json:"totalTickets"`
	TotalOrders     int                  `json:"totalOrders"`
	TotalFeedback   int                  `json:"totalFeedback"`
}
