package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/example/cottonstyle/internal/services"
)

type MockGateway struct {
	mu           sync.Mutex
	Confirmation string
	Err          error
	Delay        time.Duration
	Requests     []services.ChargeRequest
}

func (m *MockGateway) Charge(_ context.Context, req services.ChargeRequest) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	delay, conf, err := m.Delay, m.Confirmation, m.Err
	m.mu.Unlock()

	time.Sleep(delay)
	if err != nil {
		return "", err
	}
	return conf, nil
}

func (m *MockGateway) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

type MockPublisher struct {
	mu     sync.Mutex
	Events []services.OrderPlaced
	Err    error
}

func (m *MockPublisher) PublishOrderPlaced(_ context.Context, event services.OrderPlaced) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return m.Err
}

type MockNotifier struct {
	mu    sync.Mutex
	Notes []services.OrderNotification
	Err   error
}

func (m *MockNotifier) NotifyOrderPlaced(_ context.Context, note services.OrderNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notes = append(m.Notes, note)
	return m.Err
}
