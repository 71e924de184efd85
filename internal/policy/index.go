package policy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Ayash-Bera/travelbot/internal/llm"
	"github.com/philippgille/chromem-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var ErrEmptyDocument = errors.New("policy document is empty")

const (
	embedBatchSize   = 16
	embedParallelism = 4

	metaSource = "source"
	metaIndex  = "index"
)

// Passage is a retrieved chunk of the policy document.
type Passage struct {
	Source string  `json:"source"`
	Index  int     `json:"index"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

// Retriever returns the passages most relevant to a query, best first.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Passage, error)
}

// Index is an in-memory vector store over embedded chunks. It is read-only
// once built.
type Index struct {
	collection *chromem.Collection
	logger     *logrus.Logger
}

// LoadDocument reads the policy file, rejecting missing or blank documents.
func LoadDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read policy document: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("%s: %w", path, ErrEmptyDocument)
	}
	return string(data), nil
}

// BuildIndex splits text, embeds every chunk and returns a ready index.
func BuildIndex(ctx context.Context, source, text string, splitter *Splitter, embedder llm.Embedder, retry llm.RetryConfig, logger *logrus.Logger) (*Index, error) {
	chunks, err := splitter.Split(text)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%s: %w", source, ErrEmptyDocument)
	}

	start := time.Now()
	documents := make([]chromem.Document, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedParallelism)

	for begin := 0; begin < len(chunks); begin += embedBatchSize {
		end := begin + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		g.Go(func() error {
			vectors, err := llm.EmbedWithRetry(gctx, embedder, retry, logger, chunks[begin:end])
			if err != nil {
				return fmt.Errorf("failed to embed chunks %d-%d: %w", begin, end-1, err)
			}
			if len(vectors) != end-begin {
				return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), end-begin)
			}
			for i, vector := range vectors {
				position := begin + i
				documents[position] = chromem.Document{
					ID:        fmt.Sprintf("%s#%d", source, position),
					Content:   chunks[position],
					Embedding: vector,
					Metadata: map[string]string{
						metaSource: source,
						metaIndex:  strconv.Itoa(position),
					},
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	collection, err := chromem.NewDB().CreateCollection(source, nil, embeddingFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("failed to create policy collection: %w", err)
	}
	if err := collection.AddDocuments(ctx, documents, embedParallelism); err != nil {
		return nil, fmt.Errorf("failed to store policy chunks: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"source":      source,
		"chunks":      collection.Count(),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Policy index built")

	return &Index{
		collection: collection,
		logger:     logger,
	}, nil
}

// embeddingFunc embeds queries with the same model used for the chunks.
func embeddingFunc(embedder llm.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vectors, err := embedder.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vectors) != 1 {
			return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vectors))
		}
		return vectors[0], nil
	}
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	return idx.collection.Count()
}

// Retrieve embeds the query and returns the k most similar chunks. Ties keep
// document order.
func (idx *Index) Retrieve(ctx context.Context, query string, k int) ([]Passage, error) {
	if k > idx.collection.Count() {
		k = idx.collection.Count()
	}
	if k <= 0 {
		return nil, nil
	}

	results, err := idx.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query policy index: %w", err)
	}

	passages := make([]Passage, len(results))
	for i, result := range results {
		index, _ := strconv.Atoi(result.Metadata[metaIndex])
		passages[i] = Passage{
			Source: result.Metadata[metaSource],
			Index:  index,
			Text:   result.Content,
			Score:  float64(result.Similarity),
		}
	}

	sort.SliceStable(passages, func(i, j int) bool {
		if passages[i].Score != passages[j].Score {
			return passages[i].Score > passages[j].Score
		}
		return passages[i].Index < passages[j].Index
	})

	if len(passages) > 0 {
		idx.logger.WithFields(logrus.Fields{
			"query":     query,
			"returned":  len(passages),
			"top_score": passages[0].Score,
		}).Debug("Policy passages retrieved")
	}

	return passages, nil
}

var _ Retriever = (*Index)(nil)
