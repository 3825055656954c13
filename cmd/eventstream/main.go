package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/medstream-ai/pipeline/pkg/common/config"
	"github.com/medstream-ai/pipeline/pkg/common/database"
	"github.com/medstream-ai/pipeline/pkg/common/kafka"
	"github.com/medstream-ai/pipeline/pkg/common/logger"
	"github.com/medstream-ai/pipeline/pkg/eventstream"
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

	var repo *store.EventRepository
	if cfg.PostgresEnabled {
		db, err := database.GetPostgres()
		if err != nil {
			logger.Log.WithError(err).Fatal("Failed to connect to database")
		}
		repo = store.NewEventRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			logger.Log.WithError(err).Fatal("Failed to migrate event table")
		}
		defer database.ClosePostgres()
	}

	var producer *kafka.Producer
	if cfg.KafkaEnabled {
		producer = kafka.NewProducer(cfg.KafkaTopic)
		defer producer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := eventstream.NewRunner(eventstream.NewProcessor(registry), records, repo, producer)
	report, err := runner.Run(ctx, cfg.InputDir)
	if err != nil {
		logger.Log.WithError(err).WithField("run_id", report.RunID).Fatal("Event stream run aborted")
	}
}
