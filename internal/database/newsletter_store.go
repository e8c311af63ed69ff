package database

import (
	"context"
	"database/sql"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/models"
)

type NewsletterStore struct {
	db *sql.DB
}

func NewNewsletterStore(db *sql.DB) *NewsletterStore {
	return &NewsletterStore{db: db}
}

// Upsert inserts a new subscription or reactivates an existing one,
// refreshing subscribed_at either way. A second subscribe for the same
// email never errors and never creates a duplicate row.
func (s *NewsletterStore) Upsert(ctx context.Context, email string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO newsletter_subscriptions (email)
		VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET is_active = TRUE, subscribed_at = NOW()
		RETURNING email, subscribed_at, is_active`, email,
	).Scan(&sub.Email, &sub.SubscribedAt, &sub.IsActive)
	if err != nil {
		return nil, classify("upsert subscription", err)
	}
	return &sub, nil
}

// Deactivate marks the subscription inactive. Unsubscribing an email that
// was never subscribed is a not-found error.
func (s *NewsletterStore) Deactivate(ctx context.Context, email string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE newsletter_subscriptions SET is_active = FALSE WHERE email = $1`, email)
	if err != nil {
		return classify("deactivate subscription", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return classify("deactivate subscription", err)
	}
	if rows == 0 {
		return apperr.Wrapf(apperr.ErrNotFound, "no subscription for %s", email)
	}
	return nil
}
