package routes

import (
	"database/sql"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"velora_back_end/internal/handlers"
	"velora_back_end/internal/handlers/admin"
	"velora_back_end/internal/handlers/payement"
	"velora_back_end/internal/middleware"
	"velora_back_end/internal/payments"
	"velora_back_end/internal/services"
	"velora_back_end/internal/utils"
)

// Deps holds everything the handler layer needs, constructed once at
// startup and passed in explicitly.
type Deps struct {
	DB             *sql.DB
	Orders         *services.OrderService
	Newsletter     *services.NewsletterService
	Gateway        payments.Gateway
	Mailer         *utils.Mailer
	Redis          *redis.Client
	WebhookSecret  string
	AllowedOrigins []string
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	r.Use(cors.New(cors.Config{
		AllowOrigins: deps.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Accept", "Content-Type"},
	}))

	pay := &payement.Handler{
		Orders:        deps.Orders,
		Gateway:       deps.Gateway,
		Mailer:        deps.Mailer,
		WebhookSecret: deps.WebhookSecret,
	}
	orderH := &handlers.OrderHandler{Orders: deps.Orders}
	newsH := &handlers.NewsletterHandler{Newsletter: deps.Newsletter}
	healthH := &handlers.HealthHandler{DB: deps.DB, Gateway: deps.Gateway}
	adminH := &admin.OrderAdminHandler{Orders: deps.Orders, Mailer: deps.Mailer}

	rateLimit := middleware.APIRateLimit(deps.Redis)

	api := r.Group("/api")
	{
		api.POST("/create-payment-intent", rateLimit, pay.CreatePaymentIntent)
		api.POST("/payment-success", rateLimit, pay.PaymentSuccess)
		api.POST("/webhook", pay.StripeWebhook)

		api.GET("/orders/:orderId", orderH.GetOrder)
		api.GET("/health", healthH.Health)

		api.POST("/newsletter/subscribe", newsH.Subscribe)
		api.POST("/newsletter/unsubscribe", newsH.Unsubscribe)

		// No auth on the admin surface yet; known gap.
		adm := api.Group("/admin")
		{
			adm.GET("/orders", adminH.GetRecentOrders)
			adm.PUT("/orders/:orderId/status", adminH.UpdateOrderStatus)
		}
	}
}
