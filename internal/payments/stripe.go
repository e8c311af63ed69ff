package payments

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/balance"
	"github.com/stripe/stripe-go/v83/paymentintent"

	"velora_back_end/internal/apperr"
)

// Intent is the slice of a Stripe PaymentIntent the rest of the system
// consumes. Amount is in the smallest currency unit (cents).
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
	Metadata     map[string]string
}

// Succeeded reports whether the charge has been captured.
func (i *Intent) Succeeded() bool {
	return i.Status == string(stripe.PaymentIntentStatusSucceeded)
}

// Gateway is the payment provider surface used by handlers. It is injected
// at startup so tests can substitute a fake.
type Gateway interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	Ping(ctx context.Context) error
}

// StripeGateway talks to the real Stripe API.
type StripeGateway struct{}

func NewStripeGateway(secretKey string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: metadata,
	}
	params.Context = ctx

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstream, fmt.Errorf("create payment intent: %w", err))
	}
	return fromStripe(intent), nil
}

func (g *StripeGateway) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := paymentintent.Get(id, params)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstream, fmt.Errorf("retrieve payment intent %s: %w", id, err))
	}
	return fromStripe(intent), nil
}

// Ping checks gateway reachability with a cheap balance read.
func (g *StripeGateway) Ping(ctx context.Context) error {
	params := &stripe.BalanceParams{}
	params.Context = ctx

	if _, err := balance.Get(params); err != nil {
		return apperr.Wrap(apperr.ErrUpstream, err)
	}
	return nil
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}
