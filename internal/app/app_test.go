package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Ayash-Bera/travelbot/internal/config"
	"github.com/Ayash-Bera/travelbot/internal/llm"
	"github.com/Ayash-Bera/travelbot/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedChat plays router, extractor and policy QA from the prompt shape.
type scriptedChat struct{}

func (scriptedChat) Complete(ctx context.Context, system string, messages []llm.Message) (string, error) {
	last := messages[len(messages)-1].Content
	switch {
	case system != "" && strings.Contains(strings.ToLower(last), "visa"):
		return `{"action": "PolicyQA", "action_input": "` + last + `"}`, nil
	case system != "" && strings.Contains(strings.ToLower(last), "flight"):
		return "```json\n{\"action\": \"FlightSearch\", \"action_input\": \"" + last + "\"}\n```", nil
	case system != "":
		return `{"action": "Final Answer", "action_input": "Hello! Ask me about flights or visas."}`, nil
	case strings.HasPrefix(last, "Extract the following"):
		return `{"from": "Paris", "to": "Tokyo", "departure_date": "2024-08", "max_price": "$900"}`, nil
	case strings.HasPrefix(last, "Use the following pieces of context"):
		if strings.Contains(last, "Japan") {
			return "Many passports can visit Japan visa-free for 90 days.", nil
		}
		return "I don't know.", nil
	}
	return "", nil
}

type countingEmbedder struct{}

func (countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		vectors[i] = []float32{
			float32(strings.Count(lower, "japan")),
			float32(strings.Count(lower, "refund")),
			1,
		}
	}
	return vectors, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{}
	cfg.Data.FlightsPath = "../../data/flights.json"
	cfg.Data.PolicyPath = "../../data/visa_rules.md"
	cfg.Policy.ChunkSize = 500
	cfg.Policy.ChunkOverlap = 50
	cfg.Policy.TopK = 4
	cfg.RateLimit.PerMinute = 100
	return cfg
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func buildApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := Build(context.Background(), cfg, quietLogger(), Models{Chat: scriptedChat{}, Embedder: countingEmbedder{}})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestBuild_Conversation(t *testing.T) {
	a := buildApp(t, testConfig(t))
	ctx := context.Background()

	assert.Len(t, a.Flights, 10)
	assert.Greater(t, a.Index.Len(), 0)

	reply, err := a.Agent.Run(ctx, "s1", "Find me a flight from Paris to Tokyo in August under $900")
	require.NoError(t, err)
	assert.Equal(t, "Air France | Paris → Tokyo | 2024-08-15 | $850", reply.Text)

	reply, err = a.Agent.Run(ctx, "s1", "Do I need a visa for Japan?")
	require.NoError(t, err)
	assert.Equal(t, "Many passports can visit Japan visa-free for 90 days.", reply.Text)

	reply, err = a.Agent.Run(ctx, "s1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello! Ask me about flights or visas.", reply.Text)

	history := a.Sessions.History("s1")
	require.Len(t, history, 6)
	assert.Equal(t, models.SpeakerUser, history[0].Speaker)
	assert.Equal(t, models.SpeakerBot, history[5].Speaker)
}

func TestBuild_MissingDataset(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.FlightsPath = filepath.Join(t.TempDir(), "missing.json")

	_, err := Build(context.Background(), cfg, quietLogger(), Models{Chat: scriptedChat{}, Embedder: countingEmbedder{}})
	assert.Error(t, err)
}

func TestBuild_BlankPolicyDocument(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.PolicyPath = filepath.Join(t.TempDir(), "visa_rules.md")
	require.NoError(t, os.WriteFile(cfg.Data.PolicyPath, []byte("  \n"), 0o644))

	_, err := Build(context.Background(), cfg, quietLogger(), Models{Chat: scriptedChat{}, Embedder: countingEmbedder{}})
	assert.Error(t, err)
}

func TestBuild_UnreachableRedisDisablesCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.Redis.URL = "redis://127.0.0.1:1/0"

	a := buildApp(t, cfg)

	report := a.HealthChecker().CheckAll(context.Background())
	assert.Equal(t, "healthy", report.Status)
}

func TestRouter_ChatAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := buildApp(t, testConfig(t))

	router, stop, err := a.Router()
	require.NoError(t, err)
	defer stop()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewBufferString(`{"message": "Any flight Paris to Tokyo under $900?"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data models.ChatResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Air France | Paris → Tokyo | 2024-08-15 | $850", response.Data.Reply)
	assert.Equal(t, "FlightSearch", response.Data.Tool)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_WidgetRateLimitRendersPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)
	cfg.RateLimit.PerMinute = 1
	a := buildApp(t, cfg)

	router, stop, err := a.Router()
	require.NoError(t, err)
	defer stop()

	submit := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("message=hello"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusSeeOther, submit().Code)

	w := submit()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Too many messages, please wait a moment before sending another.")
}

func TestNewEmbedder_Providers(t *testing.T) {
	cfg := &config.Config{}
	cfg.Embedding.Provider = config.ProviderOllama
	cfg.Embedding.BaseURL = "http://localhost:11434"
	cfg.Embedding.Model = "all-minilm"

	embedder, err := NewEmbedder(context.Background(), cfg, logrus.New())
	require.NoError(t, err)
	assert.IsType(t, &llm.OllamaEmbedder{}, embedder)

	cfg.Embedding.Provider = "word2vec"
	_, err = NewEmbedder(context.Background(), cfg, logrus.New())
	assert.EqualError(t, err, `unknown embedding provider "word2vec"`)
}
