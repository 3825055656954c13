package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/medstream-ai/pipeline/pkg/catalog"
	"github.com/medstream-ai/pipeline/pkg/common/config"
	"github.com/medstream-ai/pipeline/pkg/common/logger"
	"github.com/medstream-ai/pipeline/pkg/common/models"
	"github.com/medstream-ai/pipeline/pkg/store"
)

func main() {
	logger.Init()
	cfg := config.Load()

	records, err := store.NewFileStore(cfg.ProcessedDir)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to open record store")
	}

	builder := catalog.NewBuilder()
	scanned := 0
	if err := records.Walk(func(record *models.PatientRecord) error {
		builder.AddRecord(record)
		scanned++
		return nil
	}); err != nil {
		logger.Log.WithError(err).Fatal("Failed to scan records")
	}

	logger.Log.WithFields(map[string]interface{}{
		"records": scanned,
		"systems": len(builder.Systems()),
	}).Info("Collected distinct codes")

	writer, err := catalog.NewWriter(cfg.CodesDir)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to open codes directory")
	}
	if err := writer.WriteAll(builder); err != nil {
		logger.Log.WithError(err).Fatal("Failed to write catalog files")
	}

	if cfg.MinioEnabled {
		uploadArtifacts(cfg)
	}

	logger.Log.Info("Code extraction complete")
}

func uploadArtifacts(cfg *config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uploader, err := store.NewArtifactUploader(cfg)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to create artifact uploader")
		return
	}
	if err := uploader.EnsureBucket(ctx); err != nil {
		logger.Log.WithError(err).Error("Failed to ensure artifact bucket")
		return
	}
	if err := uploader.UploadDir(ctx, cfg.CodesDir, "codes"); err != nil {
		logger.Log.WithError(err).Error("Failed to upload catalog artifacts")
		return
	}
	logger.Log.WithField("bucket", cfg.MinioBucket).Info("Uploaded catalog artifacts")
}
