package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/domain"
)

type createFeedbackRequest struct {
	CustomerID string `json:"customerID"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

// CreateFeedback handles POST /api/feedback.
func (h *Handler) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	var req createFeedbackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		Error(w, http.StatusBadRequest, "customerID is required")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		Error(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	feedback := &domain.Feedback{
		CustomerID: strings.TrimSpace(req.CustomerID),
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
	}
	if err := h.repo.CreateFeedback(r.Context(), feedback); err != nil {
		slog.Error("create feedback failed", "error", err)
		Error(w, http.StatusInternalServerError, "failed to save feedback")
		return
	}
	JSON(w, http.StatusCreated, feedback)
}

// ListFeedback handles GET /api/feedback.
func (h *Handler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	entries, err := h.repo.ListFeedback(r.Context())
	if err != nil {
		slog.Error("list feedback failed", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list feedback")
		return
	}
	if entries == nil {
		entries = []*domain.Feedback{}
	}
	JSON(w, http.StatusOK, entries)
}

type createCallbackRequest struct {
	CustomerID  string    `json:"customerID"`
	Phone       string    `json:"phone"`
	Topic       string    `json:"topic"`
	PreferredAt time.Time `json:"preferredAt"`
}

// CreateCallback handles POST /api/callbacks.
func (h *Handler) CreateCallback(w http.ResponseWriter, r *http.Request) {
	var req createCallbackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		Error(w, http.StatusBadRequest, "customerID is required")
		return
	}
	if strings.TrimSpace(req.Phone) == "" {
		Error(w, http.StatusBadRequest, "phone is required")
		return
	}
	if req.PreferredAt.IsZero() {
		Error(w, http.StatusBadRequest, "preferredAt is required")
		return
	}

	callback := &domain.CallbackRequest{
		CustomerID:  strings.TrimSpace(req.CustomerID),
		Phone:       strings.TrimSpace(req.Phone),
		Topic:       strings.TrimSpace(req.Topic),
		PreferredAt: req.PreferredAt,
	}
	if err := h.repo.CreateCallback(r.Context(), callback); err != nil {
		slog.Error("create callback failed", "error", err)
		Error(w, http.StatusInternalServerError, "failed to schedule callback")
		return
	}
	slog.Info("callback scheduled", "callback_id", callback.ID, "customer_id", callback.CustomerID)
	JSON(w, http.StatusCreated, callback)
}

// ListCallbacks handles GET /api/callbacks.
func (h *Handler) ListCallbacks(w http.ResponseWriter, r *http.Request) {
	entries, err := h.repo.ListCallbacks(r.Context())
	if err != nil {
		slog.Error("list callbacks failed", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list callbacks")
		return
	}
	if entries == nil {
		entries = []*domain.CallbackRequest{}
	}
	JSON(w, http.StatusOK, entries)
}

// UpdateCallbackStatus handles PATCH /api/callbacks/{callbackID}/status.
func (h *Handler) UpdateCallbackStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "callbackID"), 10, 64)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid callback id")
		return
	}

	var req updateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	status := domain.CallbackStatus(req.Status)
	if !domain.ValidCallbackStatus(status) {
		Error(w, http.StatusBadRequest, "unknown callback status")
		return
	}

	if err := h.repo.UpdateCallbackStatus(r.Context(), id, status); err != nil {
		storeError(w, err, "callback not found")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

// DashboardStats handles GET /api/dashboard/stats.
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.DashboardStats(r.Context())
	if err != nil {
		slog.Error("dashboard stats failed", "error", err)
		Error(w, http.StatusInternalServerError, "failed to aggregate stats")
		return
	}
	JSON(w, http.StatusOK, stats)
}
