package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/services"
)

const requestTimeout = 10 * time.Second

type OrderHandler struct {
	Orders *services.OrderService
}

// GetOrder returns the public projection of a single order.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID := c.Param("orderId")

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	order, err := h.Orders.GetByID(ctx, orderID)
	if err != nil {
		log.Printf("❌ Order lookup failed for %s: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Order lookup failed"})
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orderId": order.OrderID,
		"customer": gin.H{
			"name":  order.Customer.Name,
			"email": order.Customer.Email,
		},
		"items":       order.Items,
		"subtotal":    order.Subtotal,
		"taxAmount":   order.TaxAmount,
		"totalAmount": order.TotalAmount,
		"status":      order.Status,
		"createdAt":   order.CreatedAt,
	})
}
