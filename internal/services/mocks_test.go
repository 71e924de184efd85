package services

import (
	"context"
	"encoding/json"
	"io"

	"github.com/Ayash-Bera/travelbot/internal/llm"
	"github.com/Ayash-Bera/travelbot/internal/policy"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

type mockChatModel struct {
	mock.Mock
}

func (m *mockChatModel) Complete(ctx context.Context, system string, messages []llm.Message) (string, error) {
	args := m.Called(ctx, system, messages)
	return args.String(0), args.Error(1)
}

type mockRetriever struct {
	mock.Mock
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, k int) ([]policy.Passage, error) {
	args := m.Called(ctx, query, k)
	passages, _ := args.Get(0).([]policy.Passage)
	return passages, args.Error(1)
}

// memoryCache round-trips values through JSON like the Redis cache does.
type memoryCache struct {
	entries map[string][]byte
	gets    int
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.gets++
	data, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}) error {
	c.sets++
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
