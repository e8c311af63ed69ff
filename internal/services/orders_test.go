package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/models"
)

var (
	orderIDPattern    = regexp.MustCompile(`^ORD-[0-9A-Z]+-[0-9A-F]{6}$`)
	fallbackIDPattern = regexp.MustCompile(`^ORD-TMP-\d+$`)
)

// fakeOrderStore is an in-memory OrderStore. insertErrs are consumed one
// per Insert call before real inserts resume; err forces every operation
// to fail.
type fakeOrderStore struct {
	orders      []*models.Order
	insertErrs  []error
	err         error
	insertCalls int
	recentLimit int
}

func (f *fakeOrderStore) Insert(ctx context.Context, o *models.Order) error {
	f.insertCalls++
	if f.err != nil {
		return f.err
	}
	if len(f.insertErrs) > 0 {
		next := f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
		if next != nil {
			return next
		}
	}
	for _, existing := range f.orders {
		if existing.StripePaymentIntentID == o.StripePaymentIntentID {
			return apperr.Wrapf(apperr.ErrConflict, "unique violation on orders_stripe_payment_intent_id_key")
		}
		if existing.OrderID == o.OrderID {
			return apperr.Wrapf(apperr.ErrConflict, "unique violation on orders_pkey")
		}
	}
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	stored := *o
	f.orders = append(f.orders, &stored)
	return nil
}

func (f *fakeOrderStore) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, o := range f.orders {
		if o.OrderID == orderID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderStore) GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, o := range f.orders {
		if o.StripePaymentIntentID == intentID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderStore) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.recentLimit = limit
	var out []models.Order
	for i := len(f.orders) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *f.orders[i])
	}
	return out, nil
}

func (f *fakeOrderStore) UpdateStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, o := range f.orders {
		if o.OrderID == orderID {
			o.Status = status
			o.UpdatedAt = time.Now()
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func validInput() CreateOrderInput {
	return CreateOrderInput{
		PaymentIntentID: "pi_123",
		Customer: models.Customer{
			Name:    "Ada Lovelace",
			Email:   "ada@example.com",
			Address: "12 Analytical Row",
		},
		Items: []ItemInput{
			{Name: "Candle", Quantity: 2, Price: models.NumericPrice(12.50)},
			{Name: "Diffuser", Quantity: 1, Price: stringPrice("$60")},
		},
		Total: 85,
	}
}

func stringPrice(s string) models.Price {
	var p models.Price
	if err := p.UnmarshalJSON([]byte(`"` + s + `"`)); err != nil {
		panic(err)
	}
	return p
}

func TestCreateOrderDerivesFields(t *testing.T) {
	store := &fakeOrderStore{}
	svc := NewOrderService(store, nil)

	res, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	assert.Regexp(t, orderIDPattern, res.OrderID)
	assert.Equal(t, 85.0, res.TotalAmount)
	assert.False(t, res.CreatedAt.IsZero())

	require.Len(t, store.orders, 1)
	o := store.orders[0]
	assert.Equal(t, "pi_123", o.StripePaymentIntentID)
	assert.Equal(t, models.StatusProcessing, o.Status)
	assert.Equal(t, 85.0, o.Subtotal) // 2*12.50 + 60
	assert.Equal(t, 0.0, o.TaxAmount)
	assert.Equal(t, 85.0, o.TotalAmount)
	require.Len(t, o.Items, 2)
	assert.Equal(t, models.OrderItem{Name: "Candle", Quantity: 2, Price: 12.50}, o.Items[0])
	assert.Equal(t, models.OrderItem{Name: "Diffuser", Quantity: 1, Price: 60}, o.Items[1])
}

func TestCreateOrderTotalIsAuthoritative(t *testing.T) {
	// The gateway-confirmed total wins over the recomputed subtotal, so a
	// floating-point mismatch never rejects a legitimate order.
	store := &fakeOrderStore{}
	svc := NewOrderService(store, nil)

	in := validInput()
	in.Total = 84.99
	res, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 84.99, res.TotalAmount)
	assert.Equal(t, 85.0, store.orders[0].Subtotal)
}

func TestCreateOrderTotalDefaultsToDerived(t *testing.T) {
	store := &fakeOrderStore{}
	svc := NewOrderService(store, func(subtotal float64) float64 { return subtotal * 0.1 })

	in := validInput()
	in.Total = 0
	res, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.InDelta(t, 93.5, res.TotalAmount, 1e-9) // 85 + 8.50 tax
	assert.InDelta(t, 8.5, store.orders[0].TaxAmount, 1e-9)
}

func TestCreateOrderValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateOrderInput)
	}{
		{"missing payment intent", func(in *CreateOrderInput) { in.PaymentIntentID = "" }},
		{"missing customer name", func(in *CreateOrderInput) { in.Customer.Name = "" }},
		{"missing customer email", func(in *CreateOrderInput) { in.Customer.Email = "" }},
		{"missing customer address", func(in *CreateOrderInput) { in.Customer.Address = "" }},
		{"no items", func(in *CreateOrderInput) { in.Items = nil }},
		{"unnamed item", func(in *CreateOrderInput) { in.Items[0].Name = "" }},
		{"zero quantity", func(in *CreateOrderInput) { in.Items[0].Quantity = 0 }},
		{"zero price", func(in *CreateOrderInput) { in.Items[0].Price = stringPrice("$0") }},
		{"garbage price", func(in *CreateOrderInput) { in.Items[0].Price = stringPrice("free") }},
		{"nan price", func(in *CreateOrderInput) { in.Items[0].Price = stringPrice("NaN") }},
		{"inf price", func(in *CreateOrderInput) { in.Items[0].Price = stringPrice("Inf") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeOrderStore{}
			svc := NewOrderService(store, nil)

			in := validInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.Zero(t, store.insertCalls, "store must not be touched on invalid input")
		})
	}
}

func TestCreateOrderRetriesIdCollision(t *testing.T) {
	store := &fakeOrderStore{
		insertErrs: []error{apperr.Wrapf(apperr.ErrConflict, "unique violation on orders_pkey")},
	}
	svc := NewOrderService(store, nil)

	res, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, 2, store.insertCalls)
	assert.Regexp(t, orderIDPattern, res.OrderID)
}

func TestCreateOrderDuplicatePaymentIsConflict(t *testing.T) {
	store := &fakeOrderStore{}
	svc := NewOrderService(store, nil)

	_, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validInput())
	assert.ErrorIs(t, err, apperr.ErrConflict)
	require.Len(t, store.orders, 1, "no duplicate row")
}

func TestConfirmDurable(t *testing.T) {
	store := &fakeOrderStore{}
	svc := NewOrderService(store, nil)

	conf, err := svc.Confirm(context.Background(), validInput())
	require.NoError(t, err)
	assert.True(t, conf.Durable)
	assert.False(t, conf.AlreadyRecorded)
	assert.Empty(t, conf.Warning)
	assert.Regexp(t, orderIDPattern, conf.OrderID)
}

func TestConfirmFallsBackOnPersistenceFailure(t *testing.T) {
	// The charge already went through; a dead store must still produce a
	// success outcome with a reconcilable fallback id.
	store := &fakeOrderStore{err: apperr.Wrapf(apperr.ErrPersistence, "connection refused")}
	svc := NewOrderService(store, nil)

	conf, err := svc.Confirm(context.Background(), validInput())
	require.NoError(t, err)
	assert.False(t, conf.Durable)
	assert.Regexp(t, fallbackIDPattern, conf.OrderID)
	assert.NotRegexp(t, orderIDPattern, conf.OrderID, "fallback id must not look store-generated")
	assert.NotEmpty(t, conf.Warning)
	assert.Equal(t, 85.0, conf.TotalAmount)
}

func TestConfirmFallbackDerivesOmittedTotal(t *testing.T) {
	// A body without total must not echo 0 back to the customer on the
	// fallback path; the derived subtotal+tax stands in.
	store := &fakeOrderStore{err: apperr.Wrapf(apperr.ErrPersistence, "connection refused")}
	svc := NewOrderService(store, func(subtotal float64) float64 { return subtotal * 0.1 })

	in := validInput()
	in.Total = 0
	conf, err := svc.Confirm(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, conf.Durable)
	assert.InDelta(t, 93.5, conf.TotalAmount, 1e-9) // 85 + 8.50 tax
}

func TestConfirmDuplicateIsAlreadyRecorded(t *testing.T) {
	store := &fakeOrderStore{}
	svc := NewOrderService(store, nil)

	first, err := svc.Confirm(context.Background(), validInput())
	require.NoError(t, err)

	second, err := svc.Confirm(context.Background(), validInput())
	require.NoError(t, err)
	assert.True(t, second.Durable)
	assert.True(t, second.AlreadyRecorded)
	assert.Equal(t, first.OrderID, second.OrderID)
	require.Len(t, store.orders, 1)
}

func TestConfirmPropagatesValidationErrors(t *testing.T) {
	svc := NewOrderService(&fakeOrderStore{}, nil)

	in := validInput()
	in.Items = nil
	_, err := svc.Confirm(context.Background(), in)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateStatus(t *testing.T) {
	store := &fakeOrderStore{}
	svc := NewOrderService(store, nil)

	res, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	created, err := svc.GetByID(context.Background(), res.OrderID)
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), res.OrderID, models.StatusShipped)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, models.StatusShipped, updated.Status)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt) || updated.UpdatedAt.Equal(created.UpdatedAt))

	got, err := svc.GetByID(context.Background(), res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, got.Status)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	store := &fakeOrderStore{}
	svc := NewOrderService(store, nil)

	res, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), res.OrderID, "bogus")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := svc.GetByID(context.Background(), res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, got.Status, "stored status unchanged")
}

func TestUpdateStatusMissingOrder(t *testing.T) {
	svc := NewOrderService(&fakeOrderStore{}, nil)

	order, err := svc.UpdateStatus(context.Background(), "ORD-NOPE", models.StatusShipped)
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestRecentDefaultsLimit(t *testing.T) {
	store := &fakeOrderStore{}
	svc := NewOrderService(store, nil)

	_, err := svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 10, store.recentLimit)

	_, err = svc.Recent(context.Background(), -3)
	require.NoError(t, err)
	assert.Equal(t, 10, store.recentLimit)

	_, err = svc.Recent(context.Background(), 25)
	require.NoError(t, err)
	assert.Equal(t, 25, store.recentLimit)
}

func TestNewOrderIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := NewOrderID()
		assert.Regexp(t, orderIDPattern, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
