package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const defaultTelegramAPI = "https://api.telegram.org"

// TelegramService handles sending notifications to Telegram.
type TelegramService struct {
	botToken    string
	adminChatID string
	apiURL      string
	client      *http.Client
}

// NewTelegramService creates a new TelegramService. An empty apiURL uses the public Bot API.
func NewTelegramService(botToken, adminChatID, apiURL string) *TelegramService {
	if apiURL == "" {
		apiURL = defaultTelegramAPI
	}
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		apiURL:      strings.TrimRight(apiURL, "/"),
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	logger := log.WithField("component", "telegram")
	if s.botToken == "" {
		logger.Debug("bot token not configured")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiURL, s.botToken)

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		logger.WithError(err).Warn("failed to send message")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.WithField("status", resp.StatusCode).Warn("unexpected status")
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.adminChatID == "" {
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, text)
}

// OrderNotification contains order data for Telegram notification.
type OrderNotification struct {
	OrderID        string
	OrderNumber    string
	Items          []OrderItemNotification
	CouponCode     string
	CouponDiscount decimal.Decimal
	TotalAmount    decimal.Decimal
	Currency       string
	UserName       string
	UserEmail      string
	City           string
	Country        string
	Confirmation   string
}

// OrderItemNotification contains order item data.
type OrderItemNotification struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// FormatPrice formats price with currency and thousand separators.
func FormatPrice(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = "INR"
	}
	fixed := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var result strings.Builder
	if amount.IsNegative() {
		result.WriteString("-")
	}
	length := len(whole)
	for i, digit := range whole {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}
	return result.String() + "." + frac + " " + currency
}

// NotifyOrderPlaced sends the paid order summary to the admin chat.
func (s *TelegramService) NotifyOrderPlaced(ctx context.Context, order OrderNotification) error {
	if s.adminChatID == "" {
		return nil
	}

	var itemsList strings.Builder
	for i, item := range order.Items {
		itemTotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		itemsList.WriteString(fmt.Sprintf("%d. <b>%s</b>\n   %d x %s = %s\n",
			i+1,
			item.Name,
			item.Quantity,
			FormatPrice(item.Price, order.Currency),
			FormatPrice(itemTotal, order.Currency),
		))
	}

	coupon := "-"
	if order.CouponCode != "" {
		coupon = fmt.Sprintf("%s (-%s)", order.CouponCode, FormatPrice(order.CouponDiscount, order.Currency))
	}

	message := fmt.Sprintf(`<b>🛒 NEW ORDER</b>
<b>📋 Order:</b> %s
<b>👤 Customer:</b> %s (%s)
<b>📍 Ship to:</b> %s, %s
<b>📦 Items:</b>
%s
<b>🏷 Coupon:</b> %s
<b>💰 Total:</b> %s
<b>💳 Confirmation:</b> %s
━━━━━━━━━━━━━━━━━━`,
		order.OrderNumber,
		order.UserName,
		order.UserEmail,
		order.City,
		order.Country,
		itemsList.String(),
		coupon,
		FormatPrice(order.TotalAmount, order.Currency),
		order.Confirmation,
	)

	return s.SendToAdmin(ctx, strings.TrimSpace(message))
}
