package payement

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"

	"velora_back_end/internal/models"
	"velora_back_end/internal/services"
)

// StripeWebhook ingests gateway events. Only payment_intent.succeeded is
// acted on: the order is rebuilt from the intent metadata written at
// checkout. Duplicate deliveries are absorbed by the already-recorded path.
func (h *Handler) StripeWebhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Webhook payload read failed:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	var event stripe.Event
	if h.WebhookSecret == "" {
		log.Println("⚠️ No STRIPE_WEBHOOK_SECRET — test mode, skipping signature check")
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Println("❌ Invalid webhook JSON:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
	} else {
		event, err = webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.WebhookSecret)
		if err != nil {
			log.Println("❌ Invalid Stripe signature:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
			return
		}
	}

	log.Printf("📥 Stripe event received: %s", event.Type)
	h.handleStripeEvent(c.Request.Context(), event)

	c.Status(http.StatusOK)
}

func (h *Handler) handleStripeEvent(ctx context.Context, event stripe.Event) {
	if event.Type != "payment_intent.succeeded" {
		log.Printf("ℹ️ Event ignored: %s", event.Type)
		return
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		log.Println("❌ PaymentIntent decode failed:", err)
		return
	}

	customerData := pi.Metadata["customer"]
	cartData := pi.Metadata["cart"]
	if customerData == "" || cartData == "" {
		log.Printf("⚠️ Incomplete metadata on %s, nothing to record", pi.ID)
		return
	}

	var customer models.Customer
	if err := json.Unmarshal([]byte(customerData), &customer); err != nil {
		log.Println("❌ Customer metadata decode failed:", err)
		return
	}

	var cart []models.OrderItem
	if err := json.Unmarshal([]byte(cartData), &cart); err != nil {
		log.Println("❌ Cart metadata decode failed:", err)
		return
	}

	items := make([]services.ItemInput, 0, len(cart))
	for _, it := range cart {
		items = append(items, services.ItemInput{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    models.NumericPrice(it.Price),
		})
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	conf, err := h.Orders.Confirm(ctx, services.CreateOrderInput{
		PaymentIntentID: pi.ID,
		Customer:        customer,
		Items:           items,
		Total:           float64(pi.Amount) / 100,
	})
	if err != nil {
		log.Printf("❌ Webhook order creation failed for %s: %v", pi.ID, err)
		return
	}

	switch {
	case conf.AlreadyRecorded:
		log.Printf("🔁 Webhook: payment %s already recorded, ignoring", pi.ID)
	case !conf.Durable:
		log.Printf("⚠️ Webhook: payment %s left unrecorded, fallback id %s needs reconciliation", pi.ID, conf.OrderID)
	default:
		log.Printf("✅ Webhook: order %s recorded for payment %s", conf.OrderID, pi.ID)
		if h.Mailer.Enabled() {
			go h.sendConfirmation(conf.OrderID)
		}
	}
}
