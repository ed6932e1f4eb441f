package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBUrl                string
	JWTSecret            string
	PaystackSecret       string
	PaystackBaseURL      string
	PaystackChannels     []string
	GatewayTimeout       time.Duration
	MinTransactionAmount int64
	DefaultCurrency      string
	Port                 string
	Host                 string
	Env                  string
	AllowedOrigins       []string
	RedisURL             string
	RedisPassword        string
	WalletViewURL        string
	AdminEmails          []string
	RateLimitRPS         float64
	RateLimitBurst       int
}

func LoadConfig() Config {
	godotenv.Load()

	minAmount, err := strconv.ParseInt(getEnv("MIN_TRANSACTION_AMOUNT"), 10, 64)
	if err != nil {
		panic("MIN_TRANSACTION_AMOUNT must be a valid integer")
	}

	gatewayTimeout, err := time.ParseDuration(getEnvDefault("GATEWAY_TIMEOUT", "10s"))
	if err != nil {
		panic("GATEWAY_TIMEOUT must be a valid duration")
	}

	rps, err := strconv.ParseFloat(getEnvDefault("RATE_LIMIT_RPS", "5"), 64)
	if err != nil {
		panic("RATE_LIMIT_RPS must be a number")
	}

	burst, err := strconv.Atoi(getEnvDefault("RATE_LIMIT_BURST", "10"))
	if err != nil {
		panic("RATE_LIMIT_BURST must be a valid integer")
	}

	host := getEnv("HOST")

	return Config{
		DBUrl:                getEnv("DATABASE_URL"),
		JWTSecret:            getEnv("JWT_SECRET"),
		PaystackSecret:       getEnv("PAYSTACK_SECRET"),
		PaystackBaseURL:      getEnvDefault("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		PaystackChannels:     splitList(getEnvDefault("PAYSTACK_CHANNELS", "card,bank_transfer")),
		GatewayTimeout:       gatewayTimeout,
		MinTransactionAmount: minAmount,
		DefaultCurrency:      getEnvDefault("DEFAULT_CURRENCY", "NGN"),
		Port:                 getEnv("PORT"),
		Host:                 host,
		Env:                  getEnv("ENV"),
		AllowedOrigins:       splitList(getEnv("ALLOWED_ORIGINS")),
		RedisURL:             getEnvDefault("REDIS_URL", ""),
		RedisPassword:        getEnvDefault("REDIS_PASSWORD", ""),
		WalletViewURL:        getEnvDefault("WALLET_VIEW_URL", host+"/wallet"),
		AdminEmails:          splitList(getEnvDefault("ADMIN_EMAILS", "")),
		RateLimitRPS:         rps,
		RateLimitBurst:       burst,
	}
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	panic(fmt.Sprintf("%s is required", key))
}

func getEnvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
