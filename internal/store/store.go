// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/domain"
)

// ErrNotFound is returned when a lookup references a record that does not exist.
var ErrNotFound = errors.New("record not found")

// Repository defines the interface for persisting tickets, chat history,
// catalog, and support data.
type Repository interface {
	// CreateTicket persists a new ticket. ID, status, and timestamps are
	// assigned if unset.
	CreateTicket(ctx context.Context, t *domain.Ticket) error

	// TicketByID retrieves a ticket, or ErrNotFound.
	TicketByID(ctx context.Context, ticketID string) (*domain.Ticket, error)

	// ListTickets retrieves all tickets, newest first. If customerID is
	// non-empty, only that customer's tickets are returned.
	ListTickets(ctx context.Context, customerID string) ([]*domain.Ticket, error)

	// UpdateTicketStatus transitions a ticket's status. The status must be
	// one of the known values; unknown tickets return ErrNotFound.
	UpdateTicketStatus(ctx context.Context, ticketID string, status domain.TicketStatus) error

	// AppendMessage appends a chat message to a ticket's log. The store
	// assigns the timestamp and row ID and returns the stored record.
	// The log is append-only: stored messages are never mutated.
	AppendMessage(ctx context.Context, msg domain.ChatMessage) (domain.ChatMessage, error)

	// MessagesByTicket returns a ticket's full message log in insertion order.
	MessagesByTicket(ctx context.Context, ticketID string) ([]domain.ChatMessage, error)

	// ListProducts returns catalog items, optionally filtered by category.
	ListProducts(ctx context.Context, category string) ([]*domain.Product, error)

	// ProductByID retrieves a product, or ErrNotFound.
	ProductByID(ctx context.Context, productID string) (*domain.Product, error)

	// SeedProducts inserts catalog items that are not already present.
	SeedProducts(ctx context.Context, products []*domain.Product) error

	// CreateOrder persists a new order, pricing items from the catalog.
	CreateOrder(ctx context.Context, o *domain.Order) error

	// OrderByID retrieves an order with its items, or ErrNotFound.
	OrderByID(ctx context.Context, orderID string) (*domain.Order, error)

	// ListOrdersByCustomer returns a customer's orders, newest first.
	ListOrdersByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error)

	// UpdateOrderStatus transitions an order's fulfilment status.
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error

	// CreateFeedback persists a feedback entry.
	CreateFeedback(ctx context.Context, f *domain.Feedback) error

	// ListFeedback returns all feedback, newest first.
	ListFeedback(ctx context.Context) ([]*domain.Feedback, error)

	// CreateCallback persists a callback request.
	CreateCallback(ctx context.Context, c *domain.CallbackRequest) error

	// ListCallbacks returns all callback requests, newest first.
	ListCallbacks(ctx context.Context) ([]*domain.CallbackRequest, error)

	// UpdateCallbackStatus transitions a callback request's status.
	UpdateCallbackStatus(ctx context.Context, id int64, status domain.CallbackStatus) error

	// DashboardStats aggregates counts for the agent dashboard.
	DashboardStats(ctx context.Context) (*domain.DashboardStats, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
