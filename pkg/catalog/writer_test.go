package catalog

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/medstream-ai/pipeline/pkg/common/logger"
	"github.com/medstream-ai/pipeline/pkg/terminology"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestWriterWriteAll(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	builder := NewBuilder()
	builder.AddRecord(sampleRecord())
	if err := writer.WriteAll(builder); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	// One codes file and one usage file per system, plus the two summaries.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	wantFiles := len(builder.Systems())*2 + 2
	if len(entries) != wantFiles {
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		t.Fatalf("expected %d files, got %d: %v", wantFiles, len(entries), names)
	}

	snomed := readCSV(t, filepath.Join(dir, SafeSystemName(terminology.SystemSNOMED)+".csv"))
	if len(snomed) != 3 {
		t.Fatalf("expected header + 2 SNOMED rows, got %v", snomed)
	}
	if strings.Join(snomed[0], ",") != "system,code" {
		t.Errorf("unexpected codes header %v", snomed[0])
	}
	if snomed[1][1] != "260385009" || snomed[2][1] != "44054006" {
		t.Errorf("codes not sorted: %v", snomed[1:])
	}
}

func TestWriterUsageColumnLayout(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	builder := NewBuilder()
	builder.AddRecord(sampleRecord())
	if err := writer.WriteAll(builder); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	// Dynamic systems carry the source_field column.
	dynamic := readCSV(t, filepath.Join(dir, SafeSystemName(terminology.SystemSNOMED)+"_usage.csv"))
	if strings.Join(dynamic[0], ",") != "system,code,resource_type,source_field,count" {
		t.Errorf("unexpected dynamic usage header %v", dynamic[0])
	}

	// Fixed pseudo-systems do not.
	fixed := readCSV(t, filepath.Join(dir, SystemUnitCode+"_usage.csv"))
	if strings.Join(fixed[0], ",") != "system,code,resource_type,count" {
		t.Errorf("unexpected fixed usage header %v", fixed[0])
	}
	if len(fixed) != 2 || fixed[1][1] != "mg/dL" || fixed[1][2] != "Observation" {
		t.Errorf("unexpected fixed usage rows %v", fixed[1:])
	}
}

func TestWriterUsageSummaryNA(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	builder := NewBuilder()
	builder.AddRecord(sampleRecord())
	if err := writer.WriteAll(builder); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	rows := readCSV(t, filepath.Join(dir, "usage_summary.csv"))
	for _, row := range rows[1:] {
		if row[0] == SystemGender {
			if row[2] != "N/A" {
				t.Errorf("fixed system source field = %q, want N/A", row[2])
			}
			return
		}
	}
	t.Fatal("no usage summary row for gender")
}
