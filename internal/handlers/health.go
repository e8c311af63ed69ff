package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/payments"
)

type HealthHandler struct {
	DB      *sql.DB
	Gateway payments.Gateway
}

// Health reports process liveness plus store and gateway reachability,
// checked independently. A dead gateway degrades to WARNING; a dead store
// is an ERROR since no order can be recorded without it.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	dbUp := h.DB.PingContext(ctx) == nil
	stripeUp := h.Gateway.Ping(ctx) == nil

	status := "ok"
	code := http.StatusOK
	switch {
	case !dbUp:
		status = "error"
		code = http.StatusServiceUnavailable
	case !stripeUp:
		status = "warning"
	}

	c.JSON(code, gin.H{
		"status":   status,
		"database": upDown(dbUp),
		"stripe":   upDown(stripeUp),
	})
}

func upDown(up bool) string {
	if up {
		return "up"
	}
	return "down"
}
