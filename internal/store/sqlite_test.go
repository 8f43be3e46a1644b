package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return repo
}

func createTestTicket(t *testing.T, repo Repository, customerID string) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		Subject:    "Missing item in order",
		Category:   "Orders",
		Priority:   "Normal",
		CustomerID: customerID,
	}
	if err := repo.CreateTicket(context.Background(), ticket); err != nil {
		t.Fatalf("failed to create ticket: %v", err)
	}
	return ticket
}

func TestCreateAndGetTicket(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	ticket := createTestTicket(t, repo, "cust-1")
	if ticket.ID == "" {
		t.Fatal("expected a generated ticket ID")
	}
	if ticket.Status != domain.TicketOpen {
		t.Fatalf("expected new ticket to be Open, got %q", ticket.Status)
	}

	got, err := repo.TicketByID(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("failed to get ticket: %v", err)
	}
	if got.Subject != ticket.Subject {
		t.Errorf("expected subject %q, got %q", ticket.Subject, got.Subject)
	}
	if got.CustomerID != "cust-1" {
		t.Errorf("expected customer cust-1, got %q", got.CustomerID)
	}
}

func TestTicketByIDNotFound(t *testing.T) {
	repo := newTestStore(t)
	_, err := repo.TicketByID(context.Background(), "TCK-missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListTicketsByCustomer(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	createTestTicket(t, repo, "cust-1")
	createTestTicket(t, repo, "cust-1")
	createTestTicket(t, repo, "cust-2")

	all, err := repo.ListTickets(ctx, "")
	if err != nil {
		t.Fatalf("failed to list tickets: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 tickets, got %d", len(all))
	}

	mine, err := repo.ListTickets(ctx, "cust-1")
	if err != nil {
		t.Fatalf("failed to list customer tickets: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 tickets for cust-1, got %d", len(mine))
	}
	for _, ticket := range mine {
		if ticket.CustomerID != "cust-1" {
			t.Errorf("unexpected customer %q in filtered list", ticket.CustomerID)
		}
	}
}

func TestUpdateTicketStatus(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	ticket := createTestTicket(t, repo, "cust-1")

	if err := repo.UpdateTicketStatus(ctx, ticket.ID, domain.TicketInProgress); err != nil {
		t.Fatalf("failed to update status: %v", err)
	}
	got, err := repo.TicketByID(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("failed to get ticket: %v", err)
	}
	if got.Status != domain.TicketInProgress {
		t.Errorf("expected status In Progress, got %q", got.Status)
	}

	if err := repo.UpdateTicketStatus(ctx, "TCK-missing", domain.TicketResolved); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown ticket, got %v", err)
	}
	if err := repo.UpdateTicketStatus(ctx, ticket.ID, "Escalated"); err == nil {
		t.Error("expected an error for an unknown status value")
	}
}

func TestAppendMessageAssignsTimestampAndOrder(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	ticket := createTestTicket(t, repo, "cust-1")

	before := time.Now().UTC()
	bodies := []string{"first", "second", "third"}
	for _, body := range bodies {
		stored, err := repo.AppendMessage(ctx, domain.ChatMessage{
			TicketID:   ticket.ID,
			SendBy:     "cust-1",
			SenderName: "Amara",
			SenderRole: domain.RoleCustomer,
			Body:       body,
		})
		if err != nil {
			t.Fatalf("failed to append message: %v", err)
		}
		if stored.ID == 0 {
			t.Fatal("expected a row ID on the stored message")
		}
		if stored.Timestamp.Before(before) {
			t.Errorf("expected server-assigned timestamp after %v, got %v", before, stored.Timestamp)
		}
	}

	messages, err := repo.MessagesByTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("failed to fetch messages: %v", err)
	}
	if len(messages) != len(bodies) {
		t.Fatalf("expected %d messages, got %d", len(bodies), len(messages))
	}
	for i, body := range bodies {
		if messages[i].Body != body {
			t.Errorf("message %d: expected %q, got %q", i, body, messages[i].Body)
		}
	}
	if messages[0].SenderRole != domain.RoleCustomer {
		t.Errorf("expected customer role, got %q", messages[0].SenderRole)
	}
}

func TestMessagesByTicketScopedToTicket(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	a := createTestTicket(t, repo, "cust-1")
	b := createTestTicket(t, repo, "cust-2")

	if _, err := repo.AppendMessage(ctx, domain.ChatMessage{TicketID: a.ID, SendBy: "cust-1", SenderName: "Amara", SenderRole: domain.RoleCustomer, Body: "for a"}); err != nil {
		t.Fatalf("failed to append: %v", err)
	}

	messages, err := repo.MessagesByTicket(ctx, b.ID)
	if err != nil {
		t.Fatalf("failed to fetch messages: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected no messages for ticket b, got %d", len(messages))
	}
}

func seedTestCatalog(t *testing.T, repo Repository) {
	t.Helper()
	err := repo.SeedProducts(context.Background(), []*domain.Product{
		{ID: "PRD-1", Name: "Paracetamol 500mg", Description: "Pain relief", Category: "Pain Relief", PriceCents: 350, Stock: 100},
		{ID: "PRD-2", Name: "Vitamin C 1000mg", Description: "Effervescent tablets", Category: "Vitamins", PriceCents: 620, Stock: 50},
	})
	if err != nil {
		t.Fatalf("failed to seed products: %v", err)
	}
}

func TestSeedProductsIdempotent(t *testing.T) {
	repo := newTestStore(t)
	seedTestCatalog(t, repo)
	seedTestCatalog(t, repo)

	products, err := repo.ListProducts(context.Background(), "")
	if err != nil {
		t.Fatalf("failed to list products: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products after double seed, got %d", len(products))
	}
}

func TestListProductsByCategory(t *testing.T) {
	repo := newTestStore(t)
	seedTestCatalog(t, repo)

	products, err := repo.ListProducts(context.Background(), "Vitamins")
	if err != nil {
		t.Fatalf("failed to list products: %v", err)
	}
	if len(products) != 1 || products[0].ID != "PRD-2" {
		t.Fatalf("expected only PRD-2 in Vitamins, got %+v", products)
	}
}

func TestCreateOrderPricesFromCatalog(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	seedTestCatalog(t, repo)

	order := &domain.Order{
		CustomerID: "cust-1",
		Items: []domain.OrderItem{
			{ProductID: "PRD-1", Quantity: 2},
			{ProductID: "PRD-2", Quantity: 1},
		},
	}
	if err := repo.CreateOrder(ctx, order); err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	if order.Status != domain.OrderPlaced {
		t.Errorf("expected new order to be Placed, got %q", order.Status)
	}
	if want := int64(2*350 + 620); order.TotalCents != want {
		t.Errorf("expected total %d, got %d", want, order.TotalCents)
	}

	got, err := repo.OrderByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to get order: %v", err)
	}
	if len(got.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got.Items))
	}
	if got.Items[0].Name != "Paracetamol 500mg" || got.Items[0].PriceCents != 350 {
		t.Errorf("expected item priced from catalog, got %+v", got.Items[0])
	}
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	repo := newTestStore(t)
	seedTestCatalog(t, repo)

	err := repo.CreateOrder(context.Background(), &domain.Order{
		CustomerID: "cust-1",
		Items:      []domain.OrderItem{{ProductID: "PRD-missing", Quantity: 1}},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown product, got %v", err)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	seedTestCatalog(t, repo)

	order := &domain.Order{CustomerID: "cust-1", Items: []domain.OrderItem{{ProductID: "PRD-1", Quantity: 1}}}
	if err := repo.CreateOrder(ctx, order); err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	if err := repo.UpdateOrderStatus(ctx, order.ID, domain.OrderShipped); err != nil {
		t.Fatalf("failed to update order status: %v", err)
	}
	got, err := repo.OrderByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to get order: %v", err)
	}
	if got.Status != domain.OrderShipped {
		t.Errorf("expected Shipped, got %q", got.Status)
	}

	if err := repo.UpdateOrderStatus(ctx, "ORD-missing", domain.OrderShipped); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown order, got %v", err)
	}
}

func TestFeedbackRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	f := &domain.Feedback{CustomerID: "cust-1", Rating: 4, Comment: "quick delivery"}
	if err := repo.CreateFeedback(ctx, f); err != nil {
		t.Fatalf("failed to create feedback: %v", err)
	}
	if f.ID == 0 {
		t.Fatal("expected a generated feedback ID")
	}

	entries, err := repo.ListFeedback(ctx)
	if err != nil {
		t.Fatalf("failed to list feedback: %v", err)
	}
	if len(entries) != 1 || entries[0].Rating != 4 {
		t.Fatalf("unexpected feedback list: %+v", entries)
	}
}

func TestCallbackLifecycle(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	cb := &domain.CallbackRequest{
		CustomerID:  "cust-1",
		Phone:       "+94 77 123 4567",
		Topic:       "prescription refill",
		PreferredAt: time.Now().Add(2 * time.Hour),
	}
	if err := repo.CreateCallback(ctx, cb); err != nil {
		t.Fatalf("failed to create callback: %v", err)
	}
	if cb.Status != domain.CallbackRequested {
		t.Fatalf("expected Requested, got %q", cb.Status)
	}

	if err := repo.UpdateCallbackStatus(ctx, cb.ID, domain.CallbackCompleted); err != nil {
		t.Fatalf("failed to update callback: %v", err)
	}
	entries, err := repo.ListCallbacks(ctx)
	if err != nil {
		t.Fatalf("failed to list callbacks: %v", err)
	}
	if len(entries) != 1 || entries[0].Status != domain.CallbackCompleted {
		t.Fatalf("unexpected callback list: %+v", entries)
	}

	if err := repo.UpdateCallbackStatus(ctx, 999, domain.CallbackCancelled); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown callback, got %v", err)
	}
}

func TestDashboardStats(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	seedTestCatalog(t, repo)

	open := createTestTicket(t, repo, "cust-1")
	createTestTicket(t, repo, "cust-2")
	if err := repo.UpdateTicketStatus(ctx, open.ID, domain.TicketResolved); err != nil {
		t.Fatalf("failed to update status: %v", err)
	}
	if err := repo.CreateOrder(ctx, &domain.Order{CustomerID: "cust-1", Items: []domain.OrderItem{{ProductID: "PRD-1", Quantity: 1}}}); err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	if err := repo.CreateFeedback(ctx, &domain.Feedback{CustomerID: "cust-1", Rating: 5, Comment: "great"}); err != nil {
		t.Fatalf("failed to create feedback: %v", err)
	}

	stats, err := repo.DashboardStats(ctx)
	if err != nil {
		t.Fatalf("failed to get stats: %v", err)
	}
	if stats.TotalTickets != 2 {
		t.Errorf("expected 2 tickets, got %d", stats.TotalTickets)
	}
	if stats.TicketsByStatus[domain.TicketOpen] != 1 || stats.TicketsByStatus[domain.TicketResolved] != 1 {
		t.Errorf("unexpected status breakdown: %+v", stats.TicketsByStatus)
	}
	if stats.TotalOrders != 1 {
		t.Errorf("expected 1 order, got %d", stats.TotalOrders)
	}
	if stats.TotalFeedback != 1 {
		t.Errorf("expected 1 feedback entry, got %d", stats.TotalFeedback)
	}
}
