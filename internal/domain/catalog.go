package domain

import "time"

// Product is a catalog item. Prices are stored in cents to avoid floating
// point arithmetic on money.
type Product struct {
	ID                   string    `json:"productID"`
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	Category             string    `json:"category"`
	PriceCents           int64     `json:"priceCents"`
	Stock                int       `json:"stock"`
	RequiresPrescription bool      `json:"requiresPrescription"`
	CreatedAt            time.Time `json:"createdAt"`
}

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderPlaced     OrderStatus = "Placed"
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
)

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderPlaced, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// OrderItem is one product line within an order.
type OrderItem struct {
	ProductID  string `json:"productID"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"priceCents"`
}

// Order is a placed customer order. PrescriptionRef points at an externally
// stored prescription image when one was required; verification happens
// outside this service.
type Order struct {
	ID              string      `json:"orderID"`
	CustomerID      string      `json:"customerID"`
	Items           []OrderItem `json:"items"`
	TotalCents      int64       `json:"totalCents"`
	Status          OrderStatus `json:"status"`
	PrescriptionRef string      `json:"prescriptionRef,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}
