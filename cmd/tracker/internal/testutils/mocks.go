package testutils

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// MockKafkaConsumer serves a fixed message list and records commits.
type MockKafkaConsumer struct {
	Messages  []kafka.Message
	Index     int
	Committed []kafka.Message
	Mu        sync.Mutex
	Closed    bool
}

func (m *MockKafkaConsumer) FetchMessage(ctx context.Context) (kafka.Message, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if m.Closed {
		return kafka.Message{}, io.EOF
	}

	if m.Index >= len(m.Messages) {
		// Returning DeadlineExceeded is a clean way to stop the consumer loop in tests
		return kafka.Message{}, context.DeadlineExceeded
	}

	msg := m.Messages[m.Index]
	m.Index++
	return msg, nil
}

func (m *MockKafkaConsumer) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Committed = append(m.Committed, msgs...)
	return nil
}

func (m *MockKafkaConsumer) Close() error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
	return nil
}

func (m *MockKafkaConsumer) CommitCount() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return len(m.Committed)
}

// MockPipeline records Redis commands issued through the pipeline.
type MockPipeline struct {
	redis.Pipeliner // Embed interface to satisfy the methods we never touch

	ExecCount    int
	RecordedCmds []string
	Payloads     map[string]string // key/channel -> last payload
	Mu           sync.Mutex
}

func (m *MockPipeline) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.RecordedCmds = append(m.RecordedCmds, "SET "+key)
	m.record(key, value)
	return redis.NewStatusCmd(ctx)
}

func (m *MockPipeline) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.RecordedCmds = append(m.RecordedCmds, "PUBLISH "+channel)
	m.record(channel, message)
	return redis.NewIntCmd(ctx)
}

func (m *MockPipeline) Exec(ctx context.Context) ([]redis.Cmder, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.ExecCount++
	return nil, nil
}

func (m *MockPipeline) record(key string, value interface{}) {
	if m.Payloads == nil {
		m.Payloads = make(map[string]string)
	}
	switch v := value.(type) {
	case []byte:
		m.Payloads[key] = string(v)
	case string:
		m.Payloads[key] = v
	}
}

// MockRedisClient hands out a single shared pipeline spy.
type MockRedisClient struct {
	PipelineSpy *MockPipeline
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{PipelineSpy: &MockPipeline{}}
}

func (m *MockRedisClient) Pipeline() redis.Pipeliner {
	return m.PipelineSpy
}

func (m *MockRedisClient) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusCmd(ctx)
}

func (m *MockRedisClient) Close() error { return nil }

// MockClock pins AppliedAt timestamps.
type MockClock struct {
	Micros int64
}

func (c MockClock) NowUnixMicro() int64 { return c.Micros }
