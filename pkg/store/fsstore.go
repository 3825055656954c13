package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/medstream-ai/pipeline/pkg/common/logger"
	"github.com/medstream-ai/pipeline/pkg/common/models"
)

const recordSuffix = "_processed.json"

// FileStore persists PatientRecords as one JSON document per patient. The
// documents are the canonical interchange artifact between the pipeline and
// every downstream consumer.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create record directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) SaveRecord(record *models.PatientRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", record.PatientID, err)
	}
	path := filepath.Join(s.dir, record.PatientID+recordSuffix)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write record %s: %w", record.PatientID, err)
	}
	return nil
}

// Walk invokes fn for every stored record. Unreadable or undecodable files
// are logged and skipped so one bad document cannot sink a whole aggregation
// pass.
func (s *FileStore) Walk(fn func(*models.PatientRecord) error) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read record directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Log.WithError(err).WithField("path", path).Error("Failed to read record")
			continue
		}

		var record models.PatientRecord
		if err := json.Unmarshal(data, &record); err != nil {
			logger.Log.WithError(err).WithField("path", path).Error("Failed to decode record")
			continue
		}

		if err := fn(&record); err != nil {
			return err
		}
	}
	return nil
}
