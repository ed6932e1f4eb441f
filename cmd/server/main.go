package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/zjoart/go-paystack-logistics/cmd/routes"
	"github.com/zjoart/go-paystack-logistics/internal/key"
	"github.com/zjoart/go-paystack-logistics/internal/ledger"
	"github.com/zjoart/go-paystack-logistics/internal/notification"
	"github.com/zjoart/go-paystack-logistics/internal/shipment"
	"github.com/zjoart/go-paystack-logistics/internal/user"
	"github.com/zjoart/go-paystack-logistics/internal/wallet"
	"github.com/zjoart/go-paystack-logistics/pkg/config"
	"github.com/zjoart/go-paystack-logistics/pkg/database"
	"github.com/zjoart/go-paystack-logistics/pkg/events"
	"github.com/zjoart/go-paystack-logistics/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.Env)

	database.Connect(cfg.DBUrl)
	if err := database.Migrate(database.DB,
		&user.User{},
		&key.APIKey{},
		&wallet.Wallet{},
		&ledger.Transaction{},
		&shipment.Shipment{},
		&shipment.LineItem{},
		&shipment.Event{},
		&notification.Notification{},
		&notification.StaffNotification{},
	); err != nil {
		logger.Fatal("Failed to migrate database", logger.WithError(err))
	}

	redisClient := events.NewRedisClient(cfg)
	limiter := routes.NewRateLimiter(cfg)

	r := mux.NewRouter()
	handler := routes.RegisterRoutes(r, cfg, database.DB, redisClient, limiter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.GatewayTimeout + 15*time.Second,
	}

	go func() {
		logger.Info("Server starting", logger.Fields{"port": cfg.Port, "env": cfg.Env})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Could not listen", logger.Fields{"port": cfg.Port, "error": err.Error()})
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", logger.WithError(err))
	}
	limiter.Stop()
	if err := redisClient.Close(); err != nil {
		logger.Warn("Failed to close redis client", logger.WithError(err))
	}
	logger.Info("Server gracefully shut down")
}
