package main

import (
	"path/filepath"

	"github.com/medstream-ai/pipeline/pkg/common/config"
	"github.com/medstream-ai/pipeline/pkg/common/logger"
	"github.com/medstream-ai/pipeline/pkg/common/models"
	"github.com/medstream-ai/pipeline/pkg/distribution"
	"github.com/medstream-ai/pipeline/pkg/store"
)

func main() {
	logger.Init()
	cfg := config.Load()

	records, err := store.NewFileStore(cfg.ProcessedDir)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to open record store")
	}

	var ages []int
	if err := records.Walk(func(record *models.PatientRecord) error {
		if age, ok := distribution.FinalAge(record); ok {
			ages = append(ages, age)
		}
		return nil
	}); err != nil {
		logger.Log.WithError(err).Fatal("Failed to scan records")
	}

	if len(ages) == 0 {
		logger.Log.Warn("No patient ages collected, nothing to report")
		return
	}

	logger.Log.WithField("patients", len(ages)).Info("Calculated final ages")

	bins := distribution.Bins(ages, cfg.AgeBinWidth)
	path := filepath.Join(cfg.ReportsDir, "age_distribution.csv")
	if err := distribution.WriteCSV(path, bins); err != nil {
		logger.Log.WithError(err).Fatal("Failed to write age distribution")
	}
}
