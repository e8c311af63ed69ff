package models

import "time"

// Subscription is an email's newsletter opt-in state. Rows are deactivated
// on unsubscribe, never deleted.
type Subscription struct {
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribedAt"`
	IsActive     bool      `json:"isActive"`
}
