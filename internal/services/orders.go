package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/models"
)

const (
	defaultRecentLimit = 10

	// createAttempts bounds retries on generated-id collisions. The store's
	// uniqueness constraint is the final arbiter; a fresh id is drawn for
	// each attempt.
	createAttempts = 3
)

// OrderStore is the persistence surface the service needs. Implemented by
// database.OrderStore; tests substitute fakes.
type OrderStore interface {
	Insert(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, orderID string) (*models.Order, error)
	GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error)
	Recent(ctx context.Context, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) (*models.Order, error)
}

// TaxPolicy derives the tax amount from a subtotal. Nil means no tax.
type TaxPolicy func(subtotal float64) float64

type OrderService struct {
	store OrderStore
	tax   TaxPolicy
}

func NewOrderService(store OrderStore, tax TaxPolicy) *OrderService {
	return &OrderService{store: store, tax: tax}
}

// ItemInput is a line item as submitted by the client, price still in its
// string-or-number form.
type ItemInput struct {
	Name     string       `json:"name"`
	Quantity int          `json:"quantity"`
	Price    models.Price `json:"price"`
}

// CreateOrderInput carries a verified payment into order creation. The
// caller is responsible for having confirmed the charge with the gateway;
// Create does not re-verify it.
type CreateOrderInput struct {
	PaymentIntentID string
	Customer        models.Customer
	Items           []ItemInput
	// Total is the gateway-confirmed figure. It is stored as-is rather than
	// recomputed, so legitimate orders are never rejected over a
	// floating-point mismatch with subtotal + tax.
	Total float64
}

type CreateOrderResult struct {
	OrderID     string    `json:"orderId"`
	TotalAmount float64   `json:"totalAmount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Create validates and normalizes the input, derives totals, generates the
// order id and persists order + items atomically.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	order, err := s.buildOrder(in)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < createAttempts; attempt++ {
		order.OrderID = NewOrderID()

		err = s.store.Insert(ctx, order)
		if err == nil {
			return &CreateOrderResult{
				OrderID:     order.OrderID,
				TotalAmount: order.TotalAmount,
				CreatedAt:   order.CreatedAt,
			}, nil
		}
		if !errors.Is(err, apperr.ErrConflict) {
			return nil, err
		}

		// A conflict on the payment intent reference is a duplicate
		// confirmation, not an id collision — retrying cannot help.
		existing, lookErr := s.store.GetByPaymentIntentID(ctx, in.PaymentIntentID)
		if lookErr == nil && existing != nil {
			return nil, apperr.Wrapf(apperr.ErrConflict,
				"payment %s already recorded as order %s", in.PaymentIntentID, existing.OrderID)
		}
		log.Printf("⚠️ Order id collision on %s, retrying", order.OrderID)
	}

	return nil, err
}

func (s *OrderService) buildOrder(in CreateOrderInput) (*models.Order, error) {
	if in.PaymentIntentID == "" {
		return nil, apperr.Wrapf(apperr.ErrValidation, "paymentIntentId is required")
	}
	if in.Customer.Name == "" || in.Customer.Email == "" || in.Customer.Address == "" {
		return nil, apperr.Wrapf(apperr.ErrValidation, "customer name, email and address are required")
	}
	if len(in.Items) == 0 {
		return nil, apperr.Wrapf(apperr.ErrValidation, "order must contain at least one item")
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	var subtotal float64
	for i, item := range in.Items {
		if item.Name == "" {
			return nil, apperr.Wrapf(apperr.ErrValidation, "item %d: name is required", i)
		}
		if item.Quantity < 1 {
			return nil, apperr.Wrapf(apperr.ErrValidation, "item %d: quantity must be at least 1", i)
		}
		price, err := item.Price.Normalize()
		if err != nil {
			return nil, apperr.Wrapf(apperr.ErrValidation, "item %d: %v", i, err)
		}
		items = append(items, models.OrderItem{Name: item.Name, Quantity: item.Quantity, Price: price})
		subtotal += price * float64(item.Quantity)
	}

	var taxAmount float64
	if s.tax != nil {
		taxAmount = s.tax(subtotal)
	}

	total := in.Total
	if total <= 0 {
		total = subtotal + taxAmount
	}

	return &models.Order{
		StripePaymentIntentID: in.PaymentIntentID,
		Customer:              in.Customer,
		Items:                 items,
		Subtotal:              subtotal,
		TaxAmount:             taxAmount,
		TotalAmount:           total,
		Status:                models.StatusProcessing,
	}, nil
}

// Confirmation is the outcome of recording a verified payment. Two success
// variants exist on purpose: Durable means the order is in the store;
// otherwise OrderID is a synthesized fallback and Warning explains that the
// order still needs manual reconciliation.
type Confirmation struct {
	OrderID         string
	TotalAmount     float64
	CreatedAt       time.Time
	Durable         bool
	AlreadyRecorded bool
	Warning         string
}

// Confirm records an already-captured payment as an order. The charge went
// through, so a store failure must not bubble up as a customer-facing
// error: the caller gets a fallback confirmation and operators get the log
// line. Only validation errors propagate.
func (s *OrderService) Confirm(ctx context.Context, in CreateOrderInput) (*Confirmation, error) {
	res, err := s.Create(ctx, in)
	if err == nil {
		return &Confirmation{
			OrderID:     res.OrderID,
			TotalAmount: res.TotalAmount,
			CreatedAt:   res.CreatedAt,
			Durable:     true,
		}, nil
	}

	if errors.Is(err, apperr.ErrValidation) {
		return nil, err
	}

	if errors.Is(err, apperr.ErrConflict) {
		existing, lookErr := s.store.GetByPaymentIntentID(ctx, in.PaymentIntentID)
		if lookErr == nil && existing != nil {
			log.Printf("🔁 Payment %s already recorded as %s", in.PaymentIntentID, existing.OrderID)
			return &Confirmation{
				OrderID:         existing.OrderID,
				TotalAmount:     existing.TotalAmount,
				CreatedAt:       existing.CreatedAt,
				Durable:         true,
				AlreadyRecorded: true,
			}, nil
		}
	}

	// Persistence failed after a successful charge. Never report failure to
	// the customer; hand back a reconcilable fallback id instead.
	log.Printf("❌ Order persistence failed for payment %s, issuing fallback id: %v", in.PaymentIntentID, err)

	// If the caller left total to us, show the derived figure the durable
	// path would have stored rather than 0. Input already passed validation
	// inside Create, so buildOrder cannot fail here.
	total := in.Total
	if total <= 0 {
		if order, buildErr := s.buildOrder(in); buildErr == nil {
			total = order.TotalAmount
		}
	}
	return &Confirmation{
		OrderID:     FallbackOrderID(),
		TotalAmount: total,
		CreatedAt:   time.Now(),
		Warning:     "Your payment was received but the order could not be recorded yet. Our team will reconcile it manually.",
	}, nil
}

func (s *OrderService) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	return s.store.GetByID(ctx, orderID)
}

func (s *OrderService) GetByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error) {
	return s.store.GetByPaymentIntentID(ctx, intentID)
}

// Recent returns the limit most recent orders; non-positive limits fall
// back to 10.
func (s *OrderService) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return s.store.Recent(ctx, limit)
}

// UpdateStatus rejects unknown statuses as a last line of defense; callers
// are expected to have validated already. Returns nil when the order does
// not exist.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	if !models.ValidStatus(status) {
		return nil, apperr.Wrapf(apperr.ErrValidation, "invalid status %q", status)
	}
	return s.store.UpdateStatus(ctx, orderID, status)
}

// NewOrderID builds a short human-readable order id from the current time
// plus a random fragment, e.g. ORD-MF3K2A9T-4F9C21.
func NewOrderID() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	frag := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "ORD-" + ts + "-" + frag
}

// FallbackOrderID synthesizes the id handed to a customer whose order could
// not be durably recorded. The TMP segment keeps it distinguishable from
// store-generated ids; it is never written to the store.
func FallbackOrderID() string {
	return fmt.Sprintf("ORD-TMP-%d", time.Now().UnixMilli())
}
