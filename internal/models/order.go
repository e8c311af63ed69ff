package models

import "time"

// Order statuses. The transition graph is deliberately open: an admin may
// move an order from any status to any other, including cancelling after
// shipping.
const (
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

var validStatuses = map[string]bool{
	StatusProcessing: true,
	StatusShipped:    true,
	StatusDelivered:  true,
	StatusCancelled:  true,
}

func ValidStatus(s string) bool {
	return validStatuses[s]
}

// ValidStatuses lists the accepted order statuses, for error responses.
func ValidStatuses() []string {
	return []string{StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}
}

type Customer struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Address    string `json:"address" binding:"required"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// OrderItem is a line item with its price already normalized to a number.
type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type Order struct {
	OrderID               string      `json:"orderId"`
	StripePaymentIntentID string      `json:"stripePaymentIntentId"`
	Customer              Customer    `json:"customer"`
	Items                 []OrderItem `json:"items"`
	Subtotal              float64     `json:"subtotal"`
	TaxAmount             float64     `json:"taxAmount"`
	TotalAmount           float64     `json:"totalAmount"`
	Status                string      `json:"status"`
	CreatedAt             time.Time   `json:"createdAt"`
	UpdatedAt             time.Time   `json:"updatedAt"`
}
