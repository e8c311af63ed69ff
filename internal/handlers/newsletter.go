package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/services"
)

type NewsletterHandler struct {
	Newsletter *services.NewsletterService
}

func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid email is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	sub, err := h.Newsletter.Subscribe(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("❌ Newsletter subscribe failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Subscription failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

func (h *NewsletterHandler) Unsubscribe(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid email is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.Newsletter.Unsubscribe(ctx, req.Email); err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "No subscription for this email"})
		case errors.Is(err, apperr.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Printf("❌ Newsletter unsubscribe failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unsubscribe failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unsubscribed"})
}
