package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 24*time.Hour, cfg.TokenExpires())
	assert.Equal(t, 2*time.Hour, cfg.Checkout.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 10*time.Minute, cfg.OTP.TicketTTL)
	assert.False(t, cfg.Payment.Enabled)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CHECKOUT_SESSION_TTL", "45m")
	t.Setenv("PAYMENT_GATEWAY_ENABLED", "true")
	t.Setenv("PAYMENT_GATEWAY_BASE_URL", "https://pay.example.com/api")
	t.Setenv("SMTP_PORT", "2525")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 45*time.Minute, cfg.Checkout.SessionTTL)
	assert.True(t, cfg.Payment.Enabled)
	assert.Equal(t, 2525, cfg.SMTP.Port)
}

func TestParse_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Parse()

	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestParse_EnabledGatewayNeedsURL(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PAYMENT_GATEWAY_ENABLED", "true")
	t.Setenv("PAYMENT_GATEWAY_BASE_URL", "")

	_, err := Parse()

	assert.ErrorContains(t, err, "PAYMENT_GATEWAY_BASE_URL")
}

func TestParse_ProductionNeedsSMTP(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SMTP_HOST", "")

	_, err := Parse()
	assert.ErrorContains(t, err, "SMTP_HOST")

	t.Setenv("SMTP_HOST", "smtp.example.com")
	cfg, err := Parse()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}
