package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS tickets (
		ticket_id TEXT PRIMARY KEY,
		subject TEXT NOT NULL,
		category TEXT NOT NULL,
		priority TEXT NOT NULL,
		status TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tickets_customer ON tickets(customer_id);
	CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_id TEXT NOT NULL,
		send_by TEXT NOT NULL,
		sender_name TEXT NOT NULL,
		sender_role TEXT NOT NULL,
		body TEXT NOT NULL,
		sent_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_messages_ticket ON chat_messages(ticket_id, id);

	CREATE TABLE IF NOT EXISTS products (
		product_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		price_cents INTEGER NOT NULL,
		stock INTEGER NOT NULL,
		requires_prescription INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);

	CREATE TABLE IF NOT EXISTS orders (
		order_id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		items_json TEXT NOT NULL,
		total_cents INTEGER NOT NULL,
		status TEXT NOT NULL,
		prescription_ref TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id TEXT NOT NULL,
		rating INTEGER NOT NULL,
		comment TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS callback_requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id TEXT NOT NULL,
		phone TEXT NOT NULL,
		topic TEXT NOT NULL,
		preferred_at INTEGER NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// CreateTicket persists a new ticket.
func (s *SQLiteStore) CreateTicket(ctx context.Context, t *domain.Ticket) error {
	now := time.Now()
	if t.ID == "" {
		t.ID = "TCK-" + uuid.New().String()
	}
	if t.Status == "" {
		t.Status = domain.TicketOpen
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	query := `
	INSERT INTO tickets (ticket_id, subject, category, priority, status, customer_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.Subject, t.Category, t.Priority, string(t.Status), t.CustomerID,
		t.CreatedAt.Unix(), t.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

// TicketByID retrieves a ticket by its identifier.
func (s *SQLiteStore) TicketByID(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	query := `
		SELECT ticket_id, subject, category, priority, status, customer_id, created_at, updated_at
		FROM tickets WHERE ticket_id = ?`

	row := s.db.QueryRowContext(ctx, query, ticketID)

	var t domain.Ticket
	var status string
	var createdAt, updatedAt int64

	err := row.Scan(&t.ID, &t.Subject, &t.Category, &t.Priority, &status, &t.CustomerID, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan ticket row: %w", err)
	}

	t.Status = domain.TicketStatus(status)
	t.CreatedAt = time.Unix(createdAt, 0)
	t.UpdatedAt = time.Unix(updatedAt, 0)
	return &t, nil
}

// ListTickets retrieves tickets newest first, optionally for one customer.
func (s *SQLiteStore) ListTickets(ctx context.Context, customerID string) ([]*domain.Ticket, error) {
	query := `
		SELECT ticket_id, subject, category, priority, status, customer_id, created_at, updated_at
		FROM tickets`
	args := []interface{}{}
	if customerID != "" {
		query += ` WHERE customer_id = ?`
		args = append(args, customerID)
	}
	query += ` ORDER BY created_at DESC, ticket_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer closeRows(rows, "tickets")

	var tickets []*domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		var status string
		var createdAt, updatedAt int64
		if err := rows.Scan(&t.ID, &t.Subject, &t.Category, &t.Priority, &status, &t.CustomerID, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan ticket row: %w", err)
		}
		t.Status = domain.TicketStatus(status)
		t.CreatedAt = time.Unix(createdAt, 0)
		t.UpdatedAt = time.Unix(updatedAt, 0)
		tickets = append(tickets, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}
	return tickets, nil
}

// UpdateTicketStatus transitions a ticket's status.
func (s *SQLiteStore) UpdateTicketStatus(ctx context.Context, ticketID string, status domain.TicketStatus) error {
	if !domain.ValidTicketStatus(status) {
		return fmt.Errorf("unknown ticket status %q", status)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE tickets SET status = ?, updated_at = ? WHERE ticket_id = ?`,
		string(status), time.Now().Unix(), ticketID,
	)
	if err != nil {
		return fmt.Errorf("update ticket status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendMessage appends a chat message to a ticket's log and returns the
// stored record with the server-assigned timestamp and ID.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg domain.ChatMessage) (domain.ChatMessage, error) {
	msg.Timestamp = time.Now().UTC()

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (ticket_id, send_by, sender_name, sender_role, body, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.TicketID, msg.SendBy, msg.SenderName, string(msg.SenderRole), msg.Body,
		msg.Timestamp.UnixNano(),
	)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("insert chat message: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("last insert id: %w", err)
	}
	msg.ID = id
	return msg, nil
}

// MessagesByTicket returns a ticket's full message log in insertion order.
func (s *SQLiteStore) MessagesByTicket(ctx context.Context, ticketID string) ([]domain.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ticket_id, send_by, sender_name, sender_role, body, sent_at
		 FROM chat_messages WHERE ticket_id = ? ORDER BY id`,
		ticketID,
	)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer closeRows(rows, "chat messages")

	var messages []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		var role string
		var sentAt int64
		if err := rows.Scan(&m.ID, &m.TicketID, &m.SendBy, &m.SenderName, &role, &m.Body, &sentAt); err != nil {
			return nil, fmt.Errorf("scan chat message row: %w", err)
		}
		m.SenderRole = domain.SenderRole(role)
		m.Timestamp = time.Unix(0, sentAt).UTC()
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}
	return messages, nil
}

// ListProducts returns catalog items, optionally filtered by category.
func (s *SQLiteStore) ListProducts(ctx context.Context, category string) ([]*domain.Product, error) {
	query := `
		SELECT product_id, name, description, category, price_cents, stock, requires_prescription, created_at
		FROM products`
	args := []interface{}{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer closeRows(rows, "products")

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// ProductByID retrieves a product by its identifier.
func (s *SQLiteStore) ProductByID(ctx context.Context, productID string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT product_id, name, description, category, price_cents, stock, requires_prescription, created_at
		 FROM products WHERE product_id = ?`,
		productID,
	)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SeedProducts inserts catalog items that are not already present.
func (s *SQLiteStore) SeedProducts(ctx context.Context, products []*domain.Product) error {
	query := `
	INSERT INTO products (product_id, name, description, category, price_cents, stock, requires_prescription, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(product_id) DO NOTHING`

	for _, p := range products {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now()
		}
		_, err := s.db.ExecContext(ctx, query,
			p.ID, p.Name, p.Description, p.Category, p.PriceCents, p.Stock,
			boolToInt(p.RequiresPrescription), p.CreatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("seed product %s: %w", p.ID, err)
		}
	}
	return nil
}

// CreateOrder persists a new order, pricing its items from the catalog.
func (s *SQLiteStore) CreateOrder(ctx context.Context, o *domain.Order) error {
	now := time.Now()
	if o.ID == "" {
		o.ID = "ORD-" + uuid.New().String()
	}
	if o.Status == "" {
		o.Status = domain.OrderPlaced
	}
	o.CreatedAt = now
	o.UpdatedAt = now

	var total int64
	for i := range o.Items {
		item := &o.Items[i]
		p, err := s.ProductByID(ctx, item.ProductID)
		if err != nil {
			return fmt.Errorf("order item %s: %w", item.ProductID, err)
		}
		item.Name = p.Name
		item.PriceCents = p.PriceCents
		total += p.PriceCents * int64(item.Quantity)
	}
	o.TotalCents = total

	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal order items: %w", err)
	}

	var prescriptionRef interface{}
	if o.PrescriptionRef != "" {
		prescriptionRef = o.PrescriptionRef
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO orders (order_id, customer_id, items_json, total_cents, status, prescription_ref, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.CustomerID, string(itemsJSON), o.TotalCents, string(o.Status), prescriptionRef,
		o.CreatedAt.Unix(), o.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// OrderByID retrieves an order with its items.
func (s *SQLiteStore) OrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT order_id, customer_id, items_json, total_cents, status, prescription_ref, created_at, updated_at
		 FROM orders WHERE order_id = ?`,
		orderID,
	)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// ListOrdersByCustomer returns a customer's orders, newest first.
func (s *SQLiteStore) ListOrdersByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT order_id, customer_id, items_json, total_cents, status, prescription_ref, created_at, updated_at
		 FROM orders WHERE customer_id = ? ORDER BY created_at DESC, order_id`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer closeRows(rows, "orders")

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus transitions an order's fulfilment status.
func (s *SQLiteStore) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	if !domain.ValidOrderStatus(status) {
		return fmt.Errorf("unknown order status %q", status)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ?`,
		string(status), time.Now().Unix(), orderID,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateFeedback persists a feedback entry.
func (s *SQLiteStore) CreateFeedback(ctx context.Context, f *domain.Feedback) error {
	f.CreatedAt = time.Now()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (customer_id, rating, comment, created_at) VALUES (?, ?, ?, ?)`,
		f.CustomerID, f.Rating, f.Comment, f.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return nil
}

// ListFeedback returns all feedback, newest first.
func (s *SQLiteStore) ListFeedback(ctx context.Context) ([]*domain.Feedback, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, customer_id, rating, comment, created_at FROM feedback ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer closeRows(rows, "feedback")

	var entries []*domain.Feedback
	for rows.Next() {
		var f domain.Feedback
		var createdAt int64
		if err := rows.Scan(&f.ID, &f.CustomerID, &f.Rating, &f.Comment, &createdAt); err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}
		f.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}
	return entries, nil
}

// CreateCallback persists a callback request.
func (s *SQLiteStore) CreateCallback(ctx context.Context, c *domain.CallbackRequest) error {
	if c.Status == "" {
		c.Status = domain.CallbackRequested
	}
	c.CreatedAt = time.Now()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO callback_requests (customer_id, phone, topic, preferred_at, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.CustomerID, c.Phone, c.Topic, c.PreferredAt.Unix(), string(c.Status), c.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert callback request: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	c.ID = id
	return nil
}

// ListCallbacks returns all callback requests, newest first.
func (s *SQLiteStore) ListCallbacks(ctx context.Context) ([]*domain.CallbackRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, customer_id, phone, topic, preferred_at, status, created_at
		 FROM callback_requests ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query callback requests: %w", err)
	}
	defer closeRows(rows, "callback requests")

	var entries []*domain.CallbackRequest
	for rows.Next() {
		var c domain.CallbackRequest
		var status string
		var preferredAt, createdAt int64
		if err := rows.Scan(&c.ID, &c.CustomerID, &c.Phone, &c.Topic, &preferredAt, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan callback row: %w", err)
		}
		c.Status = domain.CallbackStatus(status)
		c.PreferredAt = time.Unix(preferredAt, 0)
		c.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate callback requests: %w", err)
	}
	return entries, nil
}

// UpdateCallbackStatus transitions a callback request's status.
func (s *SQLiteStore) UpdateCallbackStatus(ctx context.Context, id int64, status domain.CallbackStatus) error {
	if !domain.ValidCallbackStatus(status) {
		return fmt.Errorf("unknown callback status %q", status)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE callback_requests SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update callback status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DashboardStats aggregates counts for the agent dashboard.
func (s *SQLiteStore) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	stats := &domain.DashboardStats{
		TicketsByStatus: make(map[domain.TicketStatus]int),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM tickets GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("query ticket counts: %w", err)
	}
	defer closeRows(rows, "ticket counts")
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan ticket count row: %w", err)
		}
		stats.TicketsByStatus[domain.TicketStatus(status)] = count
		stats.TotalTickets += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticket counts: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&stats.TotalOrders); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&stats.TotalFeedback); err != nil {
		return nil, fmt.Errorf("count feedback: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var requiresPrescription int
	var createdAt int64
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.PriceCents, &p.Stock, &requiresPrescription, &createdAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan product row: %w", err)
	}
	p.RequiresPrescription = requiresPrescription != 0
	p.CreatedAt = time.Unix(createdAt, 0)
	return &p, nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var itemsJSON, status string
	var prescriptionRef sql.NullString
	var createdAt, updatedAt int64
	err := row.Scan(&o.ID, &o.CustomerID, &itemsJSON, &o.TotalCents, &status, &prescriptionRef, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan order row: %w", err)
	}
	if err := json.Unmarshal([]byte(itemsJSON), &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	o.Status = domain.OrderStatus(status)
	o.PrescriptionRef = prescriptionRef.String
	o.CreatedAt = time.Unix(createdAt, 0)
	o.UpdatedAt = time.Unix(updatedAt, 0)
	return &o, nil
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Warn("failed to close rows", "rows", what, "error", err)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
