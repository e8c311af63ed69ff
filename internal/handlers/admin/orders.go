package admin

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/models"
	"velora_back_end/internal/services"
	"velora_back_end/internal/utils"
)

const requestTimeout = 10 * time.Second

type OrderAdminHandler struct {
	Orders *services.OrderService
	Mailer *utils.Mailer
}

// GetRecentOrders lists the most recent orders. A missing or non-numeric
// limit falls back to the service default of 10.
func (h *OrderAdminHandler) GetRecentOrders(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	orders, err := h.Orders.Recent(ctx, limit)
	if err != nil {
		log.Printf("❌ Recent orders query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// UpdateOrderStatus moves an order to a new status. Any status may move to
// any other; only membership in the known set is checked.
func (h *OrderAdminHandler) UpdateOrderStatus(c *gin.Context) {
	orderID := c.Param("orderId")

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if !models.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "Invalid status",
			"valid_statuses": models.ValidStatuses(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	order, err := h.Orders.UpdateStatus(ctx, orderID, req.Status)
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("❌ Status update failed for %s: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Status update failed"})
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	log.Printf("✅ Order %s updated: %s", orderID, req.Status)

	if h.Mailer.Enabled() {
		o := *order
		go func() {
			if err := h.Mailer.SendOrderStatusEmail(&o, o.Status); err != nil {
				log.Printf("⚠️ Status notification email failed: %v", err)
			}
		}()
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order":   order,
	})
}
