package embeddings

import (
	"context"

	"github.com/medstream-ai/pipeline/pkg/common/logger"
	"github.com/medstream-ai/pipeline/pkg/terminology"
)

// Generator produces one vector per distinct code: describe the code, then
// hand the text to the external model. Vectors come from the cache when a
// code was embedded before.
type Generator struct {
	registry terminology.Registry
	embedder Embedder
	cache    *VectorCache
}

func NewGenerator(registry terminology.Registry, embedder Embedder, cache *VectorCache) *Generator {
	return &Generator{registry: registry, embedder: embedder, cache: cache}
}

// GenerateSystem embeds every code of one system. Individual model failures
// are logged and skipped; only context cancellation aborts the pass.
func (g *Generator) GenerateSystem(ctx context.Context, system string, codes []string) (map[string][]float64, error) {
	vectors := make(map[string][]float64, len(codes))

	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return vectors, err
		}

		if vector, ok := g.cache.Get(ctx, system, code); ok {
			vectors[code] = vector
			continue
		}

		description := g.registry.Describe(system, code)
		vector, err := g.embedder.Embed(ctx, description)
		if err != nil {
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"system": system,
				"code":   code,
			}).Error("Failed to embed code")
			continue
		}

		g.cache.Put(ctx, system, code, vector)
		vectors[code] = vector
	}

	logger.Log.WithFields(map[string]interface{}{
		"system":  system,
		"codes":   len(codes),
		"vectors": len(vectors),
	}).Info("Generated embeddings for system")

	return vectors, nil
}
