package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/domain"
)

type createTicketRequest struct {
	Subject    string `json:"subject"`
	Category   string `json:"category"`
	Priority   string `json:"priority"`
	CustomerID string `json:"customerID"`
}

// CreateTicket handles POST /api/tickets.
func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req createTicketRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.Subject = strings.TrimSpace(req.Subject)
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	if req.Subject == "" {
		Error(w, http.StatusBadRequest, "subject is required")
		return
	}
	if req.CustomerID == "" {
		Error(w, http.StatusBadRequest, "customerID is required")
		return
	}
	if req.Priority == "" {
		req.Priority = "Normal"
	}
	if req.Category == "" {
		req.Category = "General"
	}

	ticket := &domain.Ticket{
		Subject:    req.Subject,
		Category:   req.Category,
		Priority:   req.Priority,
		CustomerID: req.CustomerID,
	}
	if err := h.repo.CreateTicket(r.Context(), ticket); err != nil {
		slog.Error("create ticket failed", "error", err)
		Error(w, http.StatusInternalServerError, "failed to create ticket")
		return
	}

	slog.Info("ticket created", "ticket_id", ticket.ID, "customer_id", ticket.CustomerID)
	JSON(w, http.StatusCreated, ticket)
}

// ListTickets handles GET /api/tickets. An optional ?customer= query
// restricts the list to one customer.
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.repo.ListTickets(r.Context(), r.URL.Query().Get("customer"))
	if err != nil {
		slog.Error("list tickets failed", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list tickets")
		return
	}
	if tickets == nil {
		tickets = []*domain.Ticket{}
	}
	JSON(w, http.StatusOK, tickets)
}

// GetTicket handles GET /api/tickets/{ticketID}.
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	ticket, err := h.repo.TicketByID(r.Context(), ticketID)
	if err != nil {
		storeError(w, err, "ticket not found")
		return
	}
	JSON(w, http.StatusOK, ticket)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateTicketStatus handles PATCH /api/tickets/{ticketID}/status. Status
// transitions come from the agent dashboard and are independent of chat.
func (h *Handler) UpdateTicketStatus(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	var req updateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	status := domain.TicketStatus(req.Status)
	if !domain.ValidTicketStatus(status) {
		Error(w, http.StatusBadRequest, "unknown ticket status")
		return
	}

	if err := h.repo.UpdateTicketStatus(r.Context(), ticketID, status); err != nil {
		storeError(w, err, "ticket not found")
		return
	}
	slog.Info("ticket status updated", "ticket_id", ticketID, "status", status)
	JSON(w, http.StatusOK, map[string]string{"ticketID": ticketID, "status": req.Status})
}

// ListTicketMessages handles GET /api/tickets/{ticketID}/messages: the
// REST view of a ticket's chat log, in insertion order.
func (h *Handler) ListTicketMessages(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	if _, err := h.repo.TicketByID(r.Context(), ticketID); err != nil {
		storeError(w, err, "ticket not found")
		return
	}

	messages, err := h.repo.MessagesByTicket(r.Context(), ticketID)
	if err != nil {
		slog.Error("list ticket messages failed", "ticket_id", ticketID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	JSON(w, http.StatusOK, messages)
}

// TicketPresence handles GET /api/tickets/{ticketID}/presence. With no
// presence tracker configured the room always reads as empty.
func (h *Handler) TicketPresence(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	members, err := h.tracker.Members(r.Context(), ticketID)
	if err != nil {
		slog.Error("presence lookup failed", "ticket_id", ticketID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to read presence")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"ticketID": ticketID,
		"members":  members,
		"count":    len(members),
	})
}
