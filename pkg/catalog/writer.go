package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/medstream-ai/pipeline/pkg/common/logger"
)

// Writer emits the catalog CSV families: one codes file and one usage file
// per system, plus the cross-system summary and usage rollup.
type Writer struct {
	dir string
}

func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create codes directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

func (w *Writer) WriteAll(builder *Builder) error {
	for _, system := range builder.Systems() {
		if err := w.writeCodes(builder, system); err != nil {
			return err
		}
		if err := w.writeUsage(builder, system); err != nil {
			return err
		}
	}
	if err := w.writeSummary(builder); err != nil {
		return err
	}
	return w.writeUsageSummary(builder)
}

func (w *Writer) writeCodes(builder *Builder, system string) error {
	codes := builder.Codes(system)

	rows := [][]string{{"system", "code"}}
	for _, code := range codes {
		rows = append(rows, []string{system, code})
	}

	path := filepath.Join(w.dir, SafeSystemName(system)+".csv")
	if err := writeCSV(path, rows); err != nil {
		return err
	}

	logger.Log.WithFields(map[string]interface{}{
		"system": system,
		"codes":  len(codes),
		"path":   path,
	}).Info("Saved code list")
	return nil
}

func (w *Writer) writeUsage(builder *Builder, system string) error {
	hasSourceFields := builder.HasSourceFields(system)

	var rows [][]string
	if hasSourceFields {
		rows = append(rows, []string{"system", "code", "resource_type", "source_field", "count"})
	} else {
		rows = append(rows, []string{"system", "code", "resource_type", "count"})
	}

	for _, usage := range builder.UsageRows(system) {
		count := strconv.Itoa(usage.Count)
		if hasSourceFields {
			rows = append(rows, []string{system, usage.Code, usage.ResourceType, usage.SourceField, count})
		} else {
			rows = append(rows, []string{system, usage.Code, usage.ResourceType, count})
		}
	}

	return writeCSV(filepath.Join(w.dir, SafeSystemName(system)+"_usage.csv"), rows)
}

func (w *Writer) writeSummary(builder *Builder) error {
	rows := [][]string{{"system", "code_count", "resource_types_with_sources"}}
	for _, summary := range builder.SummaryRows() {
		rows = append(rows, []string{summary.System, strconv.Itoa(summary.CodeCount), summary.Provenance})
	}
	path := filepath.Join(w.dir, "code_summary.csv")
	if err := writeCSV(path, rows); err != nil {
		return err
	}
	logger.Log.WithField("path", path).Info("Saved code summary")
	return nil
}

func (w *Writer) writeUsageSummary(builder *Builder) error {
	rows := [][]string{{"system", "resource_type", "source_field", "unique_codes", "total_occurrences"}}
	for _, summary := range builder.UsageSummaryRows() {
		sourceField := summary.SourceField
		if sourceField == "" {
			sourceField = "N/A"
		}
		rows = append(rows, []string{
			summary.System,
			summary.ResourceType,
			sourceField,
			strconv.Itoa(summary.UniqueCodes),
			strconv.Itoa(summary.TotalOccurrences),
		})
	}
	path := filepath.Join(w.dir, "usage_summary.csv")
	if err := writeCSV(path, rows); err != nil {
		return err
	}
	logger.Log.WithField("path", path).Info("Saved usage summary")
	return nil
}

func writeCSV(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	writer.Flush()
	return writer.Error()
}
