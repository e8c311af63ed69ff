package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"velora_back_end/internal/config"
	"velora_back_end/internal/database"
	"velora_back_end/internal/payments"
	"velora_back_end/internal/routes"
	"velora_back_end/internal/services"
	"velora_back_end/internal/utils"
)

func main() {
	config.Load()
	cfg := config.New()

	if cfg.StripeSecretKey == "" {
		log.Fatal("❌ Cannot initialize Stripe: STRIPE_SECRET_KEY missing")
	}
	gateway := payments.NewStripeGateway(cfg.StripeSecretKey)
	log.Println("✅ Stripe initialized")

	db, err := database.NewDB(cfg.DatabaseURI, cfg.DBMaxConns)
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	defer database.CloseDB(db)

	if err := database.InitSchema(db); err != nil {
		log.Fatalf("❌ Schema initialization failed: %v", err)
	}

	rdb := connectRedis(cfg)
	mailer := utils.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom)
	if !mailer.Enabled() {
		log.Println("⚠️ SMTP not configured — order emails disabled")
	}

	orderSvc := services.NewOrderService(database.NewOrderStore(db), nil)
	newsletterSvc := services.NewNewsletterService(database.NewNewsletterStore(db))

	r := gin.Default()
	routes.RegisterRoutes(r, routes.Deps{
		DB:             db,
		Orders:         orderSvc,
		Newsletter:     newsletterSvc,
		Gateway:        gateway,
		Mailer:         mailer,
		Redis:          rdb,
		WebhookSecret:  cfg.StripeWebhookSecret,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Println("🚀 Velora server listening on port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	// Drain in-flight requests before releasing the pool; an order creation
	// must never be cut off mid-transaction by shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🔌 Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("❌ Server shutdown failed: %v", err)
	}

	if rdb != nil {
		_ = rdb.Close()
	}
	log.Println("✅ Server stopped")
}

func connectRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisHost == "" {
		log.Println("⚠️ REDIS_HOST not set — rate limiting disabled")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisHost,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("⚠️ Redis unreachable (%v) — rate limiting disabled", err)
		return nil
	}

	log.Println("✅ Connected to Redis")
	return rdb
}
