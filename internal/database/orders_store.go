package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/models"
)

const orderColumns = `order_id, stripe_payment_intent_id, customer_name, customer_email,
		customer_address, customer_city, customer_postal_code, customer_country,
		subtotal, tax_amount, total_amount, order_status, created_at, updated_at`

// OrderStore issues parameterized statements against the orders tables.
// It owns the durable record exclusively: there is no in-process cache.
type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

// Insert persists the order and its line items as one transaction. A
// mid-write failure rolls everything back; no half-written order survives.
// Unique violations (generated id or payment intent reference) come back
// as a conflict, everything else as a persistence error.
func (s *OrderStore) Insert(ctx context.Context, o *models.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.ErrPersistence, err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (order_id, stripe_payment_intent_id, customer_name, customer_email,
			customer_address, customer_city, customer_postal_code, customer_country,
			subtotal, tax_amount, total_amount, order_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`,
		o.OrderID, o.StripePaymentIntentID, o.Customer.Name, o.Customer.Email,
		o.Customer.Address, o.Customer.City, o.Customer.PostalCode, o.Customer.Country,
		o.Subtotal, o.TaxAmount, o.TotalAmount, o.Status,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return classify("insert order", err)
	}

	for i, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, name, quantity, price, position)
			VALUES ($1, $2, $3, $4, $5)`,
			o.OrderID, item.Name, item.Quantity, item.Price, i,
		)
		if err != nil {
			return classify("insert order item", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("commit order: %w", err))
	}
	return nil
}

// GetByID returns nil (not an error) when the order does not exist.
func (s *OrderStore) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	return s.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, orderID)
}

// GetByPaymentIntentID returns nil when no order references the intent.
func (s *OrderStore) GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error) {
	return s.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE stripe_payment_intent_id = $1`, intentID)
}

func (s *OrderStore) getOne(ctx context.Context, query, arg string) (*models.Order, error) {
	var o models.Order
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&o.OrderID, &o.StripePaymentIntentID, &o.Customer.Name, &o.Customer.Email,
		&o.Customer.Address, &o.Customer.City, &o.Customer.PostalCode, &o.Customer.Country,
		&o.Subtotal, &o.TaxAmount, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("query order", err)
	}

	if o.Items, err = s.itemsFor(ctx, o.OrderID); err != nil {
		return nil, err
	}
	return &o, nil
}

// itemsFor joins the line items back in their original submission order.
func (s *OrderStore) itemsFor(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, quantity, price FROM order_items
		WHERE order_id = $1 ORDER BY position`, orderID)
	if err != nil {
		return nil, classify("query order items", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.Name, &it.Quantity, &it.Price); err != nil {
			return nil, classify("scan order item", err)
		}
		items = append(items, it)
	}
	if err = rows.Err(); err != nil {
		return nil, classify("iterate order items", err)
	}
	return items, nil
}

// Recent returns the most recently created orders, newest first, without
// their line items.
func (s *OrderStore) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, classify("query recent orders", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(
			&o.OrderID, &o.StripePaymentIntentID, &o.Customer.Name, &o.Customer.Email,
			&o.Customer.Address, &o.Customer.City, &o.Customer.PostalCode, &o.Customer.Country,
			&o.Subtotal, &o.TaxAmount, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, classify("scan order", err)
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, classify("iterate orders", err)
	}
	return orders, nil
}

// UpdateStatus sets the new status and refreshes updated_at. Returns nil
// when the order does not exist.
func (s *OrderStore) UpdateStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	var exists string
	err := s.db.QueryRowContext(ctx,
		`UPDATE orders SET order_status = $1, updated_at = NOW() WHERE order_id = $2 RETURNING order_id`,
		status, orderID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("update order status", err)
	}
	return s.GetByID(ctx, orderID)
}

// classify maps driver errors into the taxonomy: unique violations become
// conflicts (tagged with the constraint name so callers can tell a
// generated-id collision from a duplicate payment confirmation), the rest
// persistence errors.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Wrapf(apperr.ErrConflict, "%s: unique violation on %s", op, pgErr.ConstraintName)
	}
	return apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("%s: %w", op, err))
}
