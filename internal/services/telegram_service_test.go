package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "1,234,567.50 INR", FormatPrice(decimal.RequireFromString("1234567.5"), "INR"))
	assert.Equal(t, "480.00 INR", FormatPrice(decimal.NewFromInt(480), ""))
	assert.Equal(t, "-20.00 USD", FormatPrice(decimal.NewFromInt(-20), "USD"))
}

func TestTelegramService_NotifyOrderPlaced(t *testing.T) {
	var got telegramMessage
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewTelegramService("bot-token", "-100200", srv.URL)
	err := svc.NotifyOrderPlaced(context.Background(), OrderNotification{
		OrderNumber:    "#123-ABCDEF",
		Items:          []OrderItemNotification{{Name: "Kurta", Quantity: 2, Price: decimal.NewFromInt(100)}},
		CouponCode:     "TEN",
		CouponDiscount: decimal.NewFromInt(20),
		TotalAmount:    decimal.NewFromInt(180),
		Currency:       "INR",
		UserName:       "Asha",
	})

	require.NoError(t, err)
	assert.Equal(t, "/botbot-token/sendMessage", path)
	assert.Equal(t, "-100200", got.ChatID)
	assert.Equal(t, "HTML", got.ParseMode)
	assert.Contains(t, got.Text, "#123-ABCDEF")
	assert.Contains(t, got.Text, "2 x 100.00 INR = 200.00 INR")
	assert.Contains(t, got.Text, "TEN (-20.00 INR)")
	assert.Contains(t, got.Text, "180.00 INR")
}

func TestTelegramService_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	svc := NewTelegramService("bot-token", "-100200", srv.URL)

	assert.Error(t, svc.NotifyOrderPlaced(context.Background(), OrderNotification{OrderNumber: "#1"}))
}

func TestTelegramService_Unconfigured(t *testing.T) {
	assert.NoError(t, NewTelegramService("", "-100200", "http://127.0.0.1:1").SendToAdmin(context.Background(), "hi"))
	assert.NoError(t, NewTelegramService("token", "", "http://127.0.0.1:1").NotifyOrderPlaced(context.Background(), OrderNotification{}))
}
