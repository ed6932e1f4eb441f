package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/logistics")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PAYSTACK_SECRET", "sk_test_x")
	t.Setenv("MIN_TRANSACTION_AMOUNT", "10000")
	t.Setenv("PORT", "8080")
	t.Setenv("HOST", "http://localhost:8080")
	t.Setenv("ENV", "development")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg := LoadConfig()

	assert.Equal(t, int64(10000), cfg.MinTransactionAmount)
	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, "https://api.paystack.co", cfg.PaystackBaseURL)
	assert.Equal(t, "NGN", cfg.DefaultCurrency)
	assert.Equal(t, "http://localhost:8080/wallet", cfg.WalletViewURL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.AdminEmails)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("ADMIN_EMAILS", "ops@example.com,root@example.com")
	t.Setenv("WALLET_VIEW_URL", "https://app.example.com/wallet")

	cfg := LoadConfig()

	assert.Equal(t, 3*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, []string{"ops@example.com", "root@example.com"}, cfg.AdminEmails)
	assert.Equal(t, "https://app.example.com/wallet", cfg.WalletViewURL)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")

	assert.PanicsWithValue(t, "JWT_SECRET is required", func() { LoadConfig() })
}
