package eventstream

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medstream-ai/pipeline/pkg/common/kafka"
	"github.com/medstream-ai/pipeline/pkg/common/logger"
	"github.com/medstream-ai/pipeline/pkg/common/models"
	"github.com/medstream-ai/pipeline/pkg/store"
)

// Runner drives one batch run over a directory of bundle files. Bundles are
// processed to completion one at a time; a failing bundle is logged and
// counted, never fatal to the batch. The Postgres repository and Kafka
// producer are optional sinks and may be nil.
type Runner struct {
	processor *Processor
	records   *store.FileStore
	repo      *store.EventRepository
	producer  *kafka.Producer
}

func NewRunner(processor *Processor, records *store.FileStore, repo *store.EventRepository, producer *kafka.Producer) *Runner {
	return &Runner{
		processor: processor,
		records:   records,
		repo:      repo,
		producer:  producer,
	}
}

func (r *Runner) Run(ctx context.Context, inputDir string) (models.RunReport, error) {
	report := models.RunReport{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return report, fmt.Errorf("read input directory: %w", err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"run_id":    report.RunID,
		"input_dir": inputDir,
		"files":     len(entries),
	}).Info("Starting event stream run")

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		r.processFile(ctx, filepath.Join(inputDir, entry.Name()), &report)
	}

	report.Duration = time.Since(report.StartedAt).String()

	logger.Log.WithFields(map[string]interface{}{
		"run_id":    report.RunID,
		"processed": report.Processed,
		"skipped":   report.Skipped,
		"failed":    report.Failed,
		"events":    report.Events,
		"duration":  report.Duration,
	}).Info("Event stream run complete")

	return report, ctx.Err()
}

func (r *Runner) processFile(ctx context.Context, path string, report *models.RunReport) {
	data, err := os.ReadFile(path)
	if err != nil {
		report.Failed++
		logger.Log.WithError(err).WithField("path", path).Error("Failed to read bundle")
		return
	}

	// The filename up to the first dot names the patient.
	patientID := strings.SplitN(filepath.Base(path), ".", 2)[0]

	record, err := r.processor.ProcessBundle(data, patientID)
	if err != nil {
		if errors.Is(err, ErrNoPatient) {
			report.Skipped++
			logger.Log.WithField("path", path).Warn("Bundle skipped: no patient resource")
		} else {
			report.Failed++
			logger.Log.WithError(err).WithField("path", path).Error("Failed to process bundle")
		}
		return
	}

	if err := r.records.SaveRecord(record); err != nil {
		report.Failed++
		logger.Log.WithError(err).WithField("patient_id", record.PatientID).Error("Failed to persist record")
		return
	}

	if r.repo != nil {
		if err := r.repo.SaveEvents(ctx, record); err != nil {
			logger.Log.WithError(err).WithField("patient_id", record.PatientID).Error("Failed to save events to database")
		}
	}

	if r.producer != nil {
		if err := r.producer.Publish(ctx, "patient-record", "eventstream", record); err != nil {
			logger.Log.WithError(err).WithField("patient_id", record.PatientID).Error("Failed to publish record")
		}
	}

	report.Processed++
	report.Events += len(record.Events)
}
