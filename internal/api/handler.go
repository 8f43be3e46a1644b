// Package api provides HTTP handlers for the pharmacy support API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/presence"
	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/store"
)

// Handler provides the REST endpoints around the chat core: tickets,
// catalog, orders, feedback, callbacks, and dashboard aggregation.
type Handler struct {
	repo    store.Repository
	tracker *presence.Tracker
}

// NewHandler creates a new Handler. tracker may be nil.
func NewHandler(repo store.Repository, tracker *presence.Tracker) *Handler {
	return &Handler{repo: repo, tracker: tracker}
}

// RegisterRoutes mounts all REST routes under /api.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/tickets", h.CreateTicket)
		r.Get("/tickets", h.ListTickets)
		r.Get("/tickets/{ticketID}", h.GetTicket)
		r.Patch("/tickets/{ticketID}/status", h.UpdateTicketStatus)
		r.Get("/tickets/{ticketID}/messages", h.ListTicketMessages)
		r.Get("/tickets/{ticketID}/presence", h.TicketPresence)

		r.Get("/products", h.ListProducts)
		r.Get("/products/{productID}", h.GetProduct)

		r.Post("/orders", h.CreateOrder)
		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{orderID}", h.GetOrder)
		r.Patch("/orders/{orderID}/status", h.UpdateOrderStatus)

		r.Post("/feedback", h.CreateFeedback)
		r.Get("/feedback", h.ListFeedback)

		r.Post("/callbacks", h.CreateCallback)
		r.Get("/callbacks", h.ListCallbacks)
		r.Patch("/callbacks/{callbackID}/status", h.UpdateCallbackStatus)

		r.Get("/dashboard/stats", h.DashboardStats)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// storeError maps a repository error to the right HTTP response.
func storeError(w http.ResponseWriter, err error, notFoundMsg string) {
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, notFoundMsg)
		return
	}
	Error(w, http.StatusInternalServerError, "internal error")
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
