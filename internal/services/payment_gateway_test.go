package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	logins      atomic.Int32
	payments    atomic.Int32
	rejectToken string
	paymentCode int
	lastCharge  ChargeRequest
}

func (f *fakeGateway) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		n := f.logins.Add(1)
		_ = json.NewEncoder(w).Encode(gatewayAuthResponse{Token: fmt.Sprintf("token-%d", n), ExpiresIn: 3600})
	})
	mux.HandleFunc("/payments", func(w http.ResponseWriter, r *http.Request) {
		f.payments.Add(1)
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == f.rejectToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if f.paymentCode != 0 {
			w.WriteHeader(f.paymentCode)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&f.lastCharge); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(chargeResponse{Confirmation: "pay-" + f.lastCharge.OrderNumber, Status: "captured"})
	})
	return mux
}

func newTestGateway(t *testing.T, fake *fakeGateway) *PaymentGateway {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return NewPaymentGateway(PaymentGatewayConfig{
		BaseURL:     srv.URL + "/",
		Username:    "merchant",
		Password:    "secret",
		Enabled:     true,
		Timeout:     time.Second,
		MaxFailures: 2,
		OpenTimeout: time.Minute,
	})
}

func charge(number string) ChargeRequest {
	return ChargeRequest{OrderID: "o-" + number, OrderNumber: number, Amount: decimal.RequireFromString("480.00"), Currency: "INR"}
}

func TestPaymentGateway_Disabled(t *testing.T) {
	gw := NewPaymentGateway(PaymentGatewayConfig{})

	confirmation, err := gw.Charge(context.Background(), charge("1"))

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(confirmation, "cod-"))
}

func TestPaymentGateway_ChargeReusesToken(t *testing.T) {
	fake := &fakeGateway{}
	gw := newTestGateway(t, fake)
	ctx := context.Background()

	first, err := gw.Charge(ctx, charge("A1"))
	require.NoError(t, err)
	second, err := gw.Charge(ctx, charge("A2"))
	require.NoError(t, err)

	assert.Equal(t, "pay-A1", first)
	assert.Equal(t, "pay-A2", second)
	assert.Equal(t, int32(1), fake.logins.Load())
	assert.True(t, fake.lastCharge.Amount.Equal(decimal.NewFromInt(480)))
}

func TestPaymentGateway_RefreshesTokenOn401(t *testing.T) {
	fake := &fakeGateway{rejectToken: "token-1"}
	gw := newTestGateway(t, fake)

	confirmation, err := gw.Charge(context.Background(), charge("B1"))

	require.NoError(t, err)
	assert.Equal(t, "pay-B1", confirmation)
	assert.Equal(t, int32(2), fake.logins.Load())
	assert.Equal(t, int32(2), fake.payments.Load())
}

func TestPaymentGateway_Declined(t *testing.T) {
	fake := &fakeGateway{paymentCode: http.StatusPaymentRequired}
	gw := newTestGateway(t, fake)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := gw.Charge(ctx, charge("C1"))
		assert.ErrorIs(t, err, ErrGatewayDeclined)
	}
	// declines do not trip the breaker
	assert.Equal(t, int32(3), fake.payments.Load())
}

func TestPaymentGateway_BreakerOpensAfterFailures(t *testing.T) {
	fake := &fakeGateway{paymentCode: http.StatusBadGateway}
	gw := newTestGateway(t, fake)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := gw.Charge(ctx, charge("D1"))
		require.Error(t, err)
	}

	_, err := gw.Charge(ctx, charge("D1"))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), fake.payments.Load())
}
