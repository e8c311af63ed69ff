package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/models"
)

type fakeNewsletterStore struct {
	subs map[string]*models.Subscription
}

func newFakeNewsletterStore() *fakeNewsletterStore {
	return &fakeNewsletterStore{subs: make(map[string]*models.Subscription)}
}

func (f *fakeNewsletterStore) Upsert(ctx context.Context, email string) (*models.Subscription, error) {
	sub, ok := f.subs[email]
	if !ok {
		sub = &models.Subscription{Email: email}
		f.subs[email] = sub
	}
	sub.IsActive = true
	sub.SubscribedAt = time.Now()
	cp := *sub
	return &cp, nil
}

func (f *fakeNewsletterStore) Deactivate(ctx context.Context, email string) error {
	sub, ok := f.subs[email]
	if !ok {
		return apperr.Wrapf(apperr.ErrNotFound, "no subscription for %s", email)
	}
	sub.IsActive = false
	return nil
}

func TestSubscribeTwiceReactivates(t *testing.T) {
	store := newFakeNewsletterStore()
	svc := NewNewsletterService(store)

	first, err := svc.Subscribe(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.True(t, first.IsActive)

	require.NoError(t, svc.Unsubscribe(context.Background(), "ada@example.com"))
	assert.False(t, store.subs["ada@example.com"].IsActive)

	second, err := svc.Subscribe(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.True(t, second.IsActive)
	assert.False(t, second.SubscribedAt.Before(first.SubscribedAt))
	assert.Len(t, store.subs, 1, "no duplicate row")
}

func TestSubscribeNormalizesEmail(t *testing.T) {
	store := newFakeNewsletterStore()
	svc := NewNewsletterService(store)

	sub, err := svc.Subscribe(context.Background(), "  Ada@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", sub.Email)
}

func TestSubscribeRejectsInvalidEmail(t *testing.T) {
	svc := NewNewsletterService(newFakeNewsletterStore())

	for _, email := range []string{"", "   ", "not-an-email"} {
		_, err := svc.Subscribe(context.Background(), email)
		assert.ErrorIs(t, err, apperr.ErrValidation, "email %q", email)
	}
}

func TestUnsubscribeUnknownEmail(t *testing.T) {
	svc := NewNewsletterService(newFakeNewsletterStore())

	err := svc.Unsubscribe(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
