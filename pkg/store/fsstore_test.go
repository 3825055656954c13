package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/medstream-ai/pipeline/pkg/common/logger"
	"github.com/medstream-ai/pipeline/pkg/common/models"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func testRecord(patientID string) *models.PatientRecord {
	age := 25
	return &models.PatientRecord{
		PatientID: patientID,
		Demographics: models.PatientDemographics{
			PatientID: "fhir-" + patientID,
			BirthDate: "1990-06-15",
			Gender:    "female",
		},
		Events: []models.NormalizedEvent{
			{
				EventID:      "evt-1",
				PatientID:    "fhir-" + patientID,
				ResourceType: "Condition",
				Timestamp:    time.Date(2015, time.March, 2, 10, 0, 0, 0, time.UTC),
				Year:         2015,
				PrimaryCodings: []models.Coding{
					{System: "http://snomed.info/sct", Code: "44054006"},
				},
				AgeAtEvent: &age,
			},
		},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "processed"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := fs.SaveRecord(testRecord("patient_1")); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	if err := fs.SaveRecord(testRecord("patient_2")); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	var seen []string
	err = fs.Walk(func(record *models.PatientRecord) error {
		seen = append(seen, record.PatientID)
		if len(record.Events) != 1 {
			t.Errorf("record %s lost events: %d", record.PatientID, len(record.Events))
		}
		event := record.Events[0]
		if event.Timestamp.Year() != 2015 {
			t.Errorf("timestamp did not survive the round trip: %v", event.Timestamp)
		}
		if event.AgeAtEvent == nil || *event.AgeAtEvent != 25 {
			t.Errorf("age did not survive the round trip: %v", event.AgeAtEvent)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 records, got %v", seen)
	}
}

func TestFileStoreWalkSkipsBadFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "processed")
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := fs.SaveRecord(testRecord("patient_ok")); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken_processed.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644); err != nil {
		t.Fatal(err)
	}

	count := 0
	err = fs.Walk(func(record *models.PatientRecord) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 decodable record, got %d", count)
	}
}
