package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/domain"
)

// ListProducts handles GET /api/products. An optional ?category= query
// filters the catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.ListProducts(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		slog.Error("list products failed", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if products == nil {
		products = []*domain.Product{}
	}
	JSON(w, http.StatusOK, products)
}

// GetProduct handles GET /api/products/{productID}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	product, err := h.repo.ProductByID(r.Context(), productID)
	if err != nil {
		storeError(w, err, "product not found")
		return
	}
	JSON(w, http.StatusOK, product)
}
