package payement

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/models"
	"velora_back_end/internal/payments"
	"velora_back_end/internal/services"
	"velora_back_end/internal/utils"
)

const requestTimeout = 10 * time.Second

// Handler carries the injected collaborators for the payment endpoints.
type Handler struct {
	Orders        *services.OrderService
	Gateway       payments.Gateway
	Mailer        *utils.Mailer
	WebhookSecret string
}

// CreatePaymentIntent validates the checkout payload and opens a payment
// authorization with the gateway. The normalized cart travels in the
// intent metadata so the webhook can rebuild the order on its own.
func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	var req struct {
		Amount   float64              `json:"amount" binding:"required"`
		Currency string               `json:"currency"`
		Items    []services.ItemInput `json:"items" binding:"required"`
		Customer models.Customer      `json:"customer" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request or empty cart"})
		return
	}
	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be positive"})
		return
	}

	// Reject unparseable or non-positive prices before touching the gateway.
	cart := make([]models.OrderItem, 0, len(req.Items))
	for i, item := range req.Items {
		price, err := item.Price.Normalize()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item price", "details": "item " + strconv.Itoa(i) + ": " + err.Error()})
			return
		}
		cart = append(cart, models.OrderItem{Name: item.Name, Quantity: item.Quantity, Price: price})
	}

	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}

	cartJSON, err := json.Marshal(cart)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cart serialization failed"})
		return
	}
	customerJSON, err := json.Marshal(req.Customer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Customer serialization failed"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	// Round, don't truncate: 19.99*100 is 1998.999… in float64.
	intent, err := h.Gateway.CreateIntent(ctx, int64(math.Round(req.Amount*100)), currency, map[string]string{
		"email":    req.Customer.Email,
		"customer": string(customerJSON),
		"cart":     string(cartJSON),
		"total":    strconv.FormatFloat(req.Amount, 'f', 2, 64),
	})
	if err != nil {
		log.Printf("❌ Stripe error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment intent creation failed", "details": err.Error()})
		return
	}

	log.Printf("💳 PaymentIntent created: %s (%.2f %s) for %s", intent.ID, req.Amount, currency, req.Customer.Email)

	c.JSON(http.StatusOK, gin.H{
		"client_secret":     intent.ClientSecret,
		"payment_intent_id": intent.ID,
	})
}

// PaymentSuccess verifies the charge with the gateway and records the
// order. Once the gateway says succeeded the response is always 200: the
// store failing must never tell a charged customer that their order failed,
// so that path hands back a fallback id plus a warning instead.
func (h *Handler) PaymentSuccess(c *gin.Context) {
	var req struct {
		PaymentIntentID string               `json:"paymentIntentId" binding:"required"`
		Items           []services.ItemInput `json:"items" binding:"required"`
		Customer        models.Customer      `json:"customer" binding:"required"`
		Total           float64              `json:"total"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	intent, err := h.Gateway.GetIntent(ctx, req.PaymentIntentID)
	if err != nil {
		log.Printf("❌ Payment verification failed for %s: %v", req.PaymentIntentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment verification failed", "details": err.Error()})
		return
	}
	if !intent.Succeeded() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment not completed", "status": intent.Status})
		return
	}

	conf, err := h.Orders.Confirm(ctx, services.CreateOrderInput{
		PaymentIntentID: req.PaymentIntentID,
		Customer:        req.Customer,
		Items:           req.Items,
		Total:           req.Total,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Order confirmation failed", "details": err.Error()})
		return
	}

	resp := gin.H{
		"success":     true,
		"orderId":     conf.OrderID,
		"totalAmount": conf.TotalAmount,
		"createdAt":   conf.CreatedAt,
		"message":     "Order confirmed",
	}

	switch {
	case conf.AlreadyRecorded:
		resp["message"] = "Order already recorded"
	case !conf.Durable:
		resp["warning"] = conf.Warning
		resp["recorded"] = false
	default:
		log.Printf("✅ Order %s recorded for payment %s", conf.OrderID, req.PaymentIntentID)
		if h.Mailer.Enabled() {
			go h.sendConfirmation(conf.OrderID)
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) sendConfirmation(orderID string) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	order, err := h.Orders.GetByID(ctx, orderID)
	if err != nil || order == nil {
		log.Printf("⚠️ Could not load order %s for confirmation email", orderID)
		return
	}
	if err := h.Mailer.SendOrderConfirmation(order); err != nil {
		log.Printf("❌ Confirmation email failed for %s: %v", orderID, err)
		return
	}
	log.Println("📧 Confirmation email sent to", order.Customer.Email)
}
