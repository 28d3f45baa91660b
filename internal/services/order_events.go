package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// OrderPlaced is published once an order has been paid.
type OrderPlaced struct {
	OrderID        string            `json:"orderId"`
	OrderNumber    string            `json:"orderNumber"`
	UserID         string            `json:"userId"`
	Items          []OrderPlacedItem `json:"items"`
	CouponCode     string            `json:"couponCode,omitempty"`
	CouponDiscount decimal.Decimal   `json:"couponDiscount"`
	TotalAmount    decimal.Decimal   `json:"totalPrice"`
	Currency       string            `json:"currency"`
	PaidAt         time.Time         `json:"paidAt"`
}

type OrderPlacedItem struct {
	ProductID string          `json:"productId"`
	ShopID    string          `json:"shopId"`
	Quantity  int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"discountPrice"`
}

// messageWriter is the part of kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderEventProducer queues order events and writes them to Kafka from a
// single goroutine. With no brokers configured it only logs.
type OrderEventProducer struct {
	w       messageWriter
	inbox   chan kafka.Message
	closeCh chan struct{}
}

// NewOrderEventProducer returns a producer for topic. buf bounds the inbox.
func NewOrderEventProducer(brokers []string, topic string, buf int) *OrderEventProducer {
	if len(brokers) == 0 {
		return &OrderEventProducer{}
	}
	return newOrderEventProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, buf)
}

func newOrderEventProducer(w messageWriter, buf int) *OrderEventProducer {
	if buf <= 0 {
		buf = 100
	}
	return &OrderEventProducer{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start runs the writer loop until ctx is cancelled, then flushes the inbox.
func (p *OrderEventProducer) Start(ctx context.Context) {
	if p.w == nil {
		return
	}
	logger := log.WithField("component", "order_events")
	write := func(m kafka.Message) {
		if err := p.w.WriteMessages(context.Background(), m); err != nil {
			logger.WithError(err).WithField("key", string(m.Key)).Error("write order event")
		}
	}

	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.drain(write)
				return
			case m := <-p.inbox:
				write(m)
			}
		}
	}()
}

func (p *OrderEventProducer) drain(write func(kafka.Message)) {
	for {
		select {
		case m := <-p.inbox:
			write(m)
		default:
			if err := p.w.Close(); err != nil {
				log.WithError(err).Warn("close kafka writer")
			}
			return
		}
	}
}

// PublishOrderPlaced queues the event keyed by order id. It blocks while
// the inbox is full and gives up when ctx is done.
func (p *OrderEventProducer) PublishOrderPlaced(ctx context.Context, event OrderPlaced) error {
	if p.w == nil {
		log.WithField("order", event.OrderNumber).Debug("kafka disabled, order event dropped")
		return nil
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:     []byte(event.OrderID),
		Value:   value,
		Time:    event.PaidAt,
		Headers: []kafka.Header{{Key: "event", Value: []byte("order.placed")}},
	}

	select {
	case p.inbox <- msg:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue order event: %w", ctx.Err())
	}
}

// WaitClosed blocks until the writer loop has flushed and exited.
func (p *OrderEventProducer) WaitClosed() {
	if p.w == nil {
		return
	}
	<-p.closeCh
}
