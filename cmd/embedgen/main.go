package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/medstream-ai/pipeline/pkg/catalog"
	"github.com/medstream-ai/pipeline/pkg/common/config"
	"github.com/medstream-ai/pipeline/pkg/common/database"
	"github.com/medstream-ai/pipeline/pkg/common/logger"
	"github.com/medstream-ai/pipeline/pkg/common/models"
	"github.com/medstream-ai/pipeline/pkg/embeddings"
	"github.com/medstream-ai/pipeline/pkg/store"
	"github.com/medstream-ai/pipeline/pkg/terminology"
)

func main() {
	logger.Init()
	cfg := config.Load()

	registry, err := terminology.Load(cfg.TerminologyPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load terminology registry")
	}

	records, err := store.NewFileStore(cfg.ProcessedDir)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to open record store")
	}

	// The catalog builder doubles as the distinct-code collector.
	builder := catalog.NewBuilder()
	if err := records.Walk(func(record *models.PatientRecord) error {
		builder.AddRecord(record)
		return nil
	}); err != nil {
		logger.Log.WithError(err).Fatal("Failed to scan records")
	}

	var cache *embeddings.VectorCache
	if cfg.RedisEnabled {
		cache = embeddings.NewVectorCache(database.GetRedis(), cfg.EmbedCacheTTL)
		defer database.CloseRedis()
	}

	generator := embeddings.NewGenerator(registry, embeddings.NewClient(cfg), cache)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	total := 0
	for _, system := range builder.Systems() {
		codes := builder.Codes(system)
		vectors, err := generator.GenerateSystem(ctx, system, codes)
		if err != nil {
			logger.Log.WithError(err).Fatal("Embedding run aborted")
		}
		if err := embeddings.WriteArtifacts(cfg.EmbeddingsDir, system, cfg.EmbedModelName, vectors); err != nil {
			logger.Log.WithError(err).WithField("system", system).Fatal("Failed to write embedding artifacts")
		}
		total += len(vectors)
	}

	if cfg.MinioEnabled {
		uploadArtifacts(ctx, cfg)
	}

	logger.Log.WithField("embeddings", total).Info("Embedding generation complete")
}

func uploadArtifacts(ctx context.Context, cfg *config.Config) {
	uploader, err := store.NewArtifactUploader(cfg)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to create artifact uploader")
		return
	}
	if err := uploader.EnsureBucket(ctx); err != nil {
		logger.Log.WithError(err).Error("Failed to ensure artifact bucket")
		return
	}
	if err := uploader.UploadDir(ctx, cfg.EmbeddingsDir, "embeddings"); err != nil {
		logger.Log.WithError(err).Error("Failed to upload embedding artifacts")
	}
}
