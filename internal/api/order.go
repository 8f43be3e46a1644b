package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/domain"
)

type createOrderRequest struct {
	CustomerID      string `json:"customerID"`
	PrescriptionRef string `json:"prescriptionRef"`
	Items           []struct {
		ProductID string `json:"productID"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

// CreateOrder handles POST /api/orders. Items are priced from the catalog;
// prescription verification happens outside this service, the order only
// carries the reference.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.CustomerID = strings.TrimSpace(req.CustomerID)
	if req.CustomerID == "" {
		Error(w, http.StatusBadRequest, "customerID is required")
		return
	}
	if len(req.Items) == 0 {
		Error(w, http.StatusBadRequest, "order needs at least one item")
		return
	}

	order := &domain.Order{
		CustomerID:      req.CustomerID,
		PrescriptionRef: strings.TrimSpace(req.PrescriptionRef),
	}
	for _, item := range req.Items {
		if item.ProductID == "" || item.Quantity <= 0 {
			Error(w, http.StatusBadRequest, "each item needs a productID and a positive quantity")
			return
		}
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	if err := h.repo.CreateOrder(r.Context(), order); err != nil {
		storeError(w, err, "unknown product in order")
		return
	}

	slog.Info("order created", "order_id", order.ID, "customer_id", order.CustomerID, "total_cents", order.TotalCents)
	JSON(w, http.StatusCreated, order)
}

// ListOrders handles GET /api/orders?customer=.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customer")
	if customerID == "" {
		Error(w, http.StatusBadRequest, "customer query parameter is required")
		return
	}

	orders, err := h.repo.ListOrdersByCustomer(r.Context(), customerID)
	if err != nil {
		slog.Error("list orders failed", "customer_id", customerID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	JSON(w, http.StatusOK, orders)
}

// GetOrder handles GET /api/orders/{orderID}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	order, err := h.repo.OrderByID(r.Context(), orderID)
	if err != nil {
		storeError(w, err, "order not found")
		return
	}
	JSON(w, http.StatusOK, order)
}

// UpdateOrderStatus handles PATCH /api/orders/{orderID}/status.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var req updateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	status := domain.OrderStatus(req.Status)
	if !domain.ValidOrderStatus(status) {
		Error(w, http.StatusBadRequest, "unknown order status")
		return
	}

	if err := h.repo.UpdateOrderStatus(r.Context(), orderID, status); err != nil {
		storeError(w, err, "order not found")
		return
	}
	slog.Info("order status updated", "order_id", orderID, "status", status)
	JSON(w, http.StatusOK, map[string]string{"orderID": orderID, "status": req.Status})
}
