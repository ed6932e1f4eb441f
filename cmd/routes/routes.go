package routes

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/zjoart/go-paystack-logistics/internal/auth"
	"github.com/zjoart/go-paystack-logistics/internal/gateway"
	"github.com/zjoart/go-paystack-logistics/internal/key"
	"github.com/zjoart/go-paystack-logistics/internal/ledger"
	"github.com/zjoart/go-paystack-logistics/internal/metrics"
	"github.com/zjoart/go-paystack-logistics/internal/middleware"
	"github.com/zjoart/go-paystack-logistics/internal/notification"
	"github.com/zjoart/go-paystack-logistics/internal/payment"
	"github.com/zjoart/go-paystack-logistics/internal/shipment"
	"github.com/zjoart/go-paystack-logistics/internal/user"
	"github.com/zjoart/go-paystack-logistics/internal/wallet"
	"github.com/zjoart/go-paystack-logistics/pkg/config"
	"github.com/zjoart/go-paystack-logistics/pkg/events"
	"github.com/zjoart/go-paystack-logistics/pkg/logger"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func RegisterRoutes(r *mux.Router, cfg config.Config, db *gorm.DB, redisClient *events.RedisClient, limiter *middleware.RateLimiter) http.Handler {
	userRepo := user.NewRepository(db)
	keyRepo := key.NewRepository(db)
	walletRepo := wallet.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	shipmentRepo := shipment.NewRepository(db)
	notificationRepo := notification.NewRepository(db)

	roles := auth.NewRoleResolver(userRepo, cfg.AdminEmails)
	verifier := gateway.NewPaystack(cfg.PaystackBaseURL, cfg.PaystackSecret, cfg.PaystackChannels, cfg.GatewayTimeout)
	notifier := notification.NewNotifier(notificationRepo, redisClient)

	paymentSvc := payment.NewService(cfg, walletRepo, ledgerRepo, verifier, userRepo)
	shipmentSvc := shipment.NewService(cfg, shipmentRepo, paymentSvc, roles, notifier)

	paymentHandler := payment.NewHandler(cfg, paymentSvc)
	walletHandler := wallet.NewHandler(cfg, walletRepo, ledgerRepo)
	shipmentHandler := shipment.NewHandler(shipmentSvc)
	notificationHandler := notification.NewHandler(notificationRepo, roles)
	keyHandler := auth.NewKeyHandler(keyRepo)

	authenticated := auth.UnifiedAuthMiddleware(cfg, userRepo, keyRepo)

	r.Use(middleware.LoggingMiddleware)

	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	// keys are managed from a user session only; a key cannot mint keys
	keysR := r.PathPrefix("/api/keys").Subrouter()
	keysR.Use(auth.JWTMiddleware(cfg, userRepo))
	keysR.HandleFunc("", keyHandler.CreateAPIKey).Methods("POST")
	keysR.HandleFunc("", keyHandler.ListAPIKeys).Methods("GET")
	keysR.HandleFunc("/{id}/revoke", keyHandler.RevokeAPIKey).Methods("POST")

	paymentR := r.PathPrefix("/api/payment").Subrouter()
	paymentR.Use(limiter.Limit)

	// gateway-facing: the webhook is signed and the callback only redirects
	paymentR.HandleFunc("/webhook", paymentHandler.PaystackWebhook).Methods("POST")
	paymentR.HandleFunc("/callback", paymentHandler.PaymentCallback).Methods("GET")

	payOpsR := paymentR.PathPrefix("").Subrouter()
	payOpsR.Use(authenticated)
	payOpsR.Handle("", auth.RequirePermission(key.PermissionDeposit)(http.HandlerFunc(paymentHandler.InitializePayment))).Methods("POST")
	payOpsR.Handle("/verify", auth.RequirePermission(key.PermissionDeposit)(http.HandlerFunc(paymentHandler.VerifyPayment))).Methods("GET")
	payOpsR.Handle("/transactions/{reference}", auth.RequirePermission(key.PermissionRead)(http.HandlerFunc(paymentHandler.GetTransaction))).Methods("GET")

	walletR := r.PathPrefix("/api/wallet").Subrouter()
	walletR.Use(authenticated)
	walletR.Handle("", auth.RequirePermission(key.PermissionRead)(http.HandlerFunc(walletHandler.GetWallet))).Methods("GET")
	walletR.Handle("/transactions", auth.RequirePermission(key.PermissionRead)(http.HandlerFunc(walletHandler.GetTransactions))).Methods("GET")
	walletR.Handle("/pin", auth.JWTMiddleware(cfg, userRepo)(http.HandlerFunc(walletHandler.SetPin))).Methods("POST")

	shipmentR := r.PathPrefix("/api/shipments").Subrouter()
	shipmentR.Use(authenticated)
	shipmentR.Handle("", auth.RequirePermission(key.PermissionShipment)(http.HandlerFunc(shipmentHandler.CreateShipment))).Methods("POST")
	shipmentR.Handle("", auth.RequirePermission(key.PermissionRead)(http.HandlerFunc(shipmentHandler.ListShipments))).Methods("GET")
	shipmentR.Handle("/{id}", auth.RequirePermission(key.PermissionRead)(http.HandlerFunc(shipmentHandler.GetShipment))).Methods("GET")
	shipmentR.Handle("/{id}/events", auth.RequirePermission(key.PermissionRead)(http.HandlerFunc(shipmentHandler.GetEvents))).Methods("GET")
	shipmentR.Handle("/{id}/transitions", auth.RequirePermission(key.PermissionRead)(http.HandlerFunc(shipmentHandler.GetTransitions))).Methods("GET")
	shipmentR.Handle("/{id}/status", auth.RequirePermission(key.PermissionOperations)(http.HandlerFunc(shipmentHandler.UpdateStatus))).Methods("PATCH")

	notifR := r.PathPrefix("/api/notifications").Subrouter()
	notifR.Use(authenticated)
	notifR.HandleFunc("", notificationHandler.ListNotifications).Methods("GET")
	notifR.HandleFunc("/{id}/read", notificationHandler.MarkRead).Methods("POST")

	staffR := r.PathPrefix("/api/staff/notifications").Subrouter()
	staffR.Use(authenticated)
	staffR.Use(auth.RequirePermission(key.PermissionOperations))
	staffR.HandleFunc("", notificationHandler.ListStaffNotifications).Methods("GET")
	staffR.HandleFunc("/{id}/read", notificationHandler.MarkStaffRead).Methods("POST")

	if !cfg.IsProduction() {

		r.HandleFunc("/swagger.yaml", func(w http.ResponseWriter, r *http.Request) {
			content, err := os.ReadFile("docs/swagger.yaml")
			if err != nil {
				logger.Error("Failed to read swagger.yaml", logger.Fields{"error": err.Error()})
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			modifiedContent := strings.ReplaceAll(string(content), "{{BASE_URL}}", "/")
			modifiedContent = strings.ReplaceAll(modifiedContent, "{{MIN_TRANSACTION_AMOUNT}}", fmt.Sprintf("%d", cfg.MinTransactionAmount))

			w.Header().Set("Content-Type", "application/yaml")
			w.Write([]byte(modifiedContent))
		})

		r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
			httpSwagger.URL("/swagger.yaml"),
		))
		logger.Info("Swagger documentation enabled at /swagger/index.html")
	}

	corsObj := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "x-api-key", "X-Request-ID"}),
		handlers.ExposedHeaders([]string{"X-Request-ID"}),
	)

	return corsObj(r)
}

// NewRateLimiter builds the payment-route limiter from config.
func NewRateLimiter(cfg config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
}
