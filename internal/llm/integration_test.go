//go:build integration

package llm

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_RealAPI(t *testing.T) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	geminiKey := os.Getenv("GEMINI_API_KEY")

	if apiKey == "" || geminiKey == "" {
		t.Skip("ANTHROPIC_API_KEY and GEMINI_API_KEY required for integration tests")
	}

	ctx := context.Background()
	client := NewClient(apiKey, "claude-3-5-haiku-latest", 64, logrus.New())

	reply, err := client.Complete(ctx, "Reply with the single word: pong", UserMessage("ping"))
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(reply), "pong")

	embedder, err := NewGeminiEmbedder(ctx, geminiKey, "gemini-embedding-001", logrus.New())
	require.NoError(t, err)

	vectors, err := embedder.Embed(ctx, []string{"visa on arrival", "refund within 24 hours"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.NotEmpty(t, vectors[0])
}
