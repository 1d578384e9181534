package main

import (
	"context"
	"errors"
	"log"
	"os"

	"log/slog"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"elit21.com/shop/internal/config"
	apphttp "elit21.com/shop/internal/http"
	"elit21.com/shop/internal/http/handlers"
	"elit21.com/shop/internal/modules/orders"
	"elit21.com/shop/internal/modules/payments"
	"elit21.com/shop/internal/modules/paypal"
	"elit21.com/shop/internal/storage"
)

func main() {
	// Load .env file (ignore error if not found - prod uses real env vars)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load(os.Getenv)
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}
	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN environment variable is required")
	}
	if cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	store, err := storage.FromEnv(context.Background(), os.Getenv)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	logger.Info("image storage ready", "driver", store.Driver)

	// missing payment credentials keep the catalogue up; checkout
	// endpoints answer 502 until the credentials arrive
	var paymentSvc handlers.PaymentService
	client, err := paypal.New(cfg.PayPal, logger)
	switch {
	case err == nil:
		paymentSvc = payments.NewService(orders.NewRepo(db), client, logger, cfg.BaseURL)
	case errors.As(err, new(*paypal.ConfigError)):
		logger.Warn("paypal not configured, checkout disabled", "err", err)
	default:
		log.Fatalf("paypal: %v", err)
	}

	r := apphttp.NewRouter(apphttp.Deps{
		Logger:   logger,
		DB:       db,
		Config:   cfg,
		Payments: paymentSvc,
		Images:   store.Storage,
	})

	logger.Info("listening", "addr", cfg.ListenAddr, "paypal_env", cfg.PayPal.Env)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
