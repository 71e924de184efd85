package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// GeminiEmbedder produces sentence embeddings with the Gemini embedding API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
	logger *logrus.Logger
}

func NewGeminiEmbedder(ctx context.Context, apiKey, model string, logger *logrus.Logger) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiEmbedder{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// Embed sends all texts in one batch request.
func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	start := time.Now()
	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		got := 0
		if result != nil {
			got = len(result.Embeddings)
		}
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), got)
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, embedding := range result.Embeddings {
		if embedding == nil || len(embedding.Values) == 0 {
			return nil, fmt.Errorf("empty embedding for text %d", i)
		}
		vectors[i] = embedding.Values
	}

	e.logger.WithFields(logrus.Fields{
		"model":       e.model,
		"texts":       len(texts),
		"dimension":   len(vectors[0]),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Embeddings generated")

	return vectors, nil
}

var _ Embedder = (*GeminiEmbedder)(nil)
