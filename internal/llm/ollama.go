package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaEmbedder produces sentence embeddings from a locally served model,
// all-minilm by default.
type OllamaEmbedder struct {
	client *ollama.LLM
	model  string
	logger *logrus.Logger
}

func NewOllamaEmbedder(serverURL, model string, logger *logrus.Logger) (*OllamaEmbedder, error) {
	client, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}

	return &OllamaEmbedder{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	start := time.Now()
	vectors, err := e.client.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(vectors))
	}
	for i, vector := range vectors {
		if len(vector) == 0 {
			return nil, fmt.Errorf("empty embedding for text %d", i)
		}
	}

	e.logger.WithFields(logrus.Fields{
		"model":       e.model,
		"texts":       len(texts),
		"dimension":   len(vectors[0]),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Embeddings generated")

	return vectors, nil
}

var _ Embedder = (*OllamaEmbedder)(nil)
