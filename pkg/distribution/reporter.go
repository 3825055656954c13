package distribution

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/medstream-ai/pipeline/pkg/common/logger"
	"github.com/medstream-ai/pipeline/pkg/common/models"
	"github.com/medstream-ai/pipeline/pkg/eventstream"
)

const DefaultBinWidth = 5

// Bin is one fixed-width age bucket.
type Bin struct {
	Label string
	Count int
}

// FinalAge returns a patient's age at their last event. The event list is
// already sorted chronologically, so the last element is the final event.
// Patients without events or a birth date, and negative ages, are skipped.
func FinalAge(record *models.PatientRecord) (int, bool) {
	if len(record.Events) == 0 || record.Demographics.BirthDate == "" {
		return 0, false
	}

	last := record.Events[len(record.Events)-1]
	age, ok := eventstream.AgeAt(record.Demographics.BirthDate, last.Timestamp)
	if !ok {
		return 0, false
	}
	if age < 0 {
		logger.Log.WithFields(map[string]interface{}{
			"patient_id": record.PatientID,
			"age":        age,
		}).Warn("Discarding negative final age")
		return 0, false
	}
	return age, true
}

// Bins aggregates ages into contiguous width-sized buckets from 0 through
// the maximum age. Every bucket in between is present, empty ones included;
// negative ages are ignored.
func Bins(ages []int, width int) []Bin {
	if width <= 0 {
		width = DefaultBinWidth
	}

	maxAge := -1
	for _, age := range ages {
		if age > maxAge {
			maxAge = age
		}
	}
	if maxAge < 0 {
		return nil
	}

	counts := make([]int, maxAge/width+1)
	for _, age := range ages {
		if age < 0 {
			continue
		}
		counts[age/width]++
	}

	bins := make([]Bin, len(counts))
	for i, count := range counts {
		bins[i] = Bin{
			Label: fmt.Sprintf("%d-%d", i*width, (i+1)*width-1),
			Count: count,
		}
	}
	return bins
}

// WriteCSV saves the binned distribution as (AgeGroup, Count) rows.
func WriteCSV(path string, bins []Bin) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"AgeGroup", "Count"}); err != nil {
		return err
	}
	for _, bin := range bins {
		if err := writer.Write([]string{bin.Label, strconv.Itoa(bin.Count)}); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	logger.Log.WithFields(map[string]interface{}{
		"path": path,
		"bins": len(bins),
	}).Info("Saved age distribution")
	return nil
}
