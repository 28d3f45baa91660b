package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

// PaymentGatewayConfig holds the gateway credentials.
type PaymentGatewayConfig struct {
	BaseURL  string
	Username string
	Password string
	Enabled  bool
	Timeout  time.Duration
	// MaxFailures consecutive failures open the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// ChargeRequest is what the gateway needs to take a payment.
type ChargeRequest struct {
	OrderID     string          `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Email       string          `json:"email,omitempty"`
	Address1    string          `json:"address1"`
	Address2    string          `json:"address2"`
	ZipCode     string          `json:"zipCode"`
	Country     string          `json:"country"`
	City        string          `json:"city"`
}

type chargeResponse struct {
	Confirmation string `json:"confirmation"`
	Status       string `json:"status"`
}

type gatewayAuthResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// ErrGatewayDeclined is returned when the gateway answers but refuses the charge.
var ErrGatewayDeclined = errors.New("payment declined")

// PaymentGateway charges orders through the external payment provider.
// When disabled it confirms every charge locally (cash on delivery).
type PaymentGateway struct {
	cfg     PaymentGatewayConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[string]

	mu          sync.RWMutex
	token       string
	tokenExpiry time.Time
}

// NewPaymentGateway creates a gateway client.
func NewPaymentGateway(cfg PaymentGatewayConfig) *PaymentGateway {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	logger := log.WithField("component", "payment_gateway")
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			// a decline means the gateway is healthy
			return err == nil || errors.Is(err, ErrGatewayDeclined)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(log.Fields{"from": from.String(), "to": to.String()}).Warn("circuit breaker state changed")
		},
	})

	return &PaymentGateway{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
	}
}

// Charge asks the gateway to take req.Amount and returns its confirmation token.
func (g *PaymentGateway) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	if !g.cfg.Enabled {
		return "cod-" + uuid.NewString(), nil
	}

	confirmation, err := g.breaker.Execute(func() (string, error) {
		var resp chargeResponse
		if err := g.do(ctx, http.MethodPost, "/payments", req, &resp); err != nil {
			return "", err
		}
		if resp.Confirmation == "" || strings.EqualFold(resp.Status, "declined") {
			return "", ErrGatewayDeclined
		}
		return resp.Confirmation, nil
	})
	if err != nil {
		return "", fmt.Errorf("charge order %s: %w", req.OrderNumber, err)
	}
	return confirmation, nil
}

func (g *PaymentGateway) accessToken(ctx context.Context, force bool) (string, error) {
	if !force {
		g.mu.RLock()
		if g.token != "" && time.Now().Before(g.tokenExpiry) {
			t := g.token
			g.mu.RUnlock()
			return t, nil
		}
		g.mu.RUnlock()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !force && g.token != "" && time.Now().Before(g.tokenExpiry) {
		return g.token, nil
	}

	payload, _ := json.Marshal(map[string]string{
		"username": g.cfg.Username,
		"password": g.cfg.Password,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("gateway auth request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway auth request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gateway auth failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var authResp gatewayAuthResponse
	if err := json.Unmarshal(body, &authResp); err != nil {
		return "", fmt.Errorf("gateway auth unmarshal: %w", err)
	}
	if authResp.Token == "" {
		return "", errors.New("gateway auth: empty token")
	}

	g.token = authResp.Token
	if authResp.ExpiresIn > 0 {
		g.tokenExpiry = time.Now().Add(time.Duration(authResp.ExpiresIn)*time.Second - 30*time.Second)
	} else {
		g.tokenExpiry = time.Now().Add(55 * time.Minute)
	}
	return g.token, nil
}

// do sends one authorized JSON request, refreshing the token once on 401.
func (g *PaymentGateway) do(ctx context.Context, method, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("gateway request marshal: %w", err)
	}

	token, err := g.accessToken(ctx, false)
	if err != nil {
		return err
	}

	status, body, err := g.send(ctx, method, path, token, data)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		if token, err = g.accessToken(ctx, true); err != nil {
			return err
		}
		if status, body, err = g.send(ctx, method, path, token, data); err != nil {
			return err
		}
	}

	if status == http.StatusPaymentRequired {
		return ErrGatewayDeclined
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("gateway %s %s: status %d, body: %s", method, path, status, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("gateway response unmarshal: %w", err)
	}
	return nil
}

func (g *PaymentGateway) send(ctx context.Context, method, path, token string, data []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, g.cfg.BaseURL+"/"+strings.TrimLeft(path, "/"), bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("gateway request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body, nil
}
