package llm

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  time.Second,
		MaxDelay:   8 * time.Second,
	}
}

// Retry runs operation until it succeeds, the attempts are exhausted or ctx
// is done. Delays grow by 1.5x per attempt and are capped at MaxDelay.
func Retry(ctx context.Context, config RetryConfig, logger *logrus.Logger, operation func() error) error {
	var err error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err = operation()
		if err == nil {
			return nil
		}

		if attempt == config.MaxRetries {
			break
		}

		delay := time.Duration(float64(config.BaseDelay) * math.Pow(1.5, float64(attempt)))
		if delay > config.MaxDelay {
			delay = config.MaxDelay
		}

		logger.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"delay":   delay,
			"error":   err.Error(),
		}).Warn("Retrying operation")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("operation failed after %d retries: %w", config.MaxRetries, err)
}

// EmbedWithRetry wraps Embed in Retry. Only startup indexing uses it; query
// time calls fail fast.
func EmbedWithRetry(ctx context.Context, embedder Embedder, config RetryConfig, logger *logrus.Logger, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := Retry(ctx, config, logger, func() error {
		var err error
		vectors, err = embedder.Embed(ctx, texts)
		return err
	})
	return vectors, err
}
