package embeddings

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/medstream-ai/pipeline/pkg/common/logger"
)

// VectorCache caches vectors by (system, code). Codes recur across patients,
// so one model call per distinct code suffices. A nil cache is a valid no-op.
type VectorCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewVectorCache(client *redis.Client, ttl time.Duration) *VectorCache {
	return &VectorCache{client: client, ttl: ttl}
}

func cacheKey(system, code string) string {
	return fmt.Sprintf("embedding:%s:%s", system, code)
}

func (c *VectorCache) Get(ctx context.Context, system, code string) ([]float64, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, cacheKey(system, code)).Bytes()
	if err != nil {
		return nil, false
	}

	var vector []float64
	if err := json.Unmarshal(data, &vector); err != nil {
		logger.Log.WithError(err).WithField("key", cacheKey(system, code)).Warn("Dropping undecodable cached vector")
		return nil, false
	}
	return vector, true
}

func (c *VectorCache) Put(ctx context.Context, system, code string, vector []float64) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(vector)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(system, code), data, c.ttl).Err(); err != nil {
		logger.Log.WithError(err).WithField("key", cacheKey(system, code)).Warn("Failed to cache vector")
	}
}
