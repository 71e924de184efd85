package services

import "context"

// ResultCache is the optional memo for model-backed results. The Redis cache
// satisfies it; nil disables caching.
type ResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}
