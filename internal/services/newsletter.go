package services

import (
	"context"
	"strings"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/models"
)

type NewsletterStore interface {
	Upsert(ctx context.Context, email string) (*models.Subscription, error)
	Deactivate(ctx context.Context, email string) error
}

type NewsletterService struct {
	store NewsletterStore
}

func NewNewsletterService(store NewsletterStore) *NewsletterService {
	return &NewsletterService{store: store}
}

// Subscribe creates or reactivates the subscription, refreshing its
// timestamp. Subscribing twice is not an error.
func (s *NewsletterService) Subscribe(ctx context.Context, email string) (*models.Subscription, error) {
	email, err := cleanEmail(email)
	if err != nil {
		return nil, err
	}
	return s.store.Upsert(ctx, email)
}

// Unsubscribe deactivates the row; the email history is kept.
func (s *NewsletterService) Unsubscribe(ctx context.Context, email string) error {
	email, err := cleanEmail(email)
	if err != nil {
		return err
	}
	return s.store.Deactivate(ctx, email)
}

func cleanEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", apperr.Wrapf(apperr.ErrValidation, "invalid email %q", email)
	}
	return email, nil
}
