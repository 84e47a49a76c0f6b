package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Stephc02/FinancialTrackingSystem/pkg/models"
)

// MockRateFetcher returns canned quotes or a fixed error.
type MockRateFetcher struct {
	Quotes []models.RateQuote
	Err    error
	Calls  int
	Mu     sync.Mutex
}

func (m *MockRateFetcher) FetchRates(ctx context.Context) ([]models.RateQuote, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Quotes, nil
}

// MockKafkaWriter records every published message.
type MockKafkaWriter struct {
	Messages []kafka.Message
	Mu       sync.Mutex
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func (m *MockKafkaWriter) Close() error { return nil }

// MockClock advances instantly so poll loops run fast in tests.
type MockClock struct {
	CurrentTime time.Time
	Mu          sync.Mutex
}

func (c *MockClock) Now() time.Time {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	return c.CurrentTime
}

func (c *MockClock) Sleep(d time.Duration) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.CurrentTime = c.CurrentTime.Add(d)
}
