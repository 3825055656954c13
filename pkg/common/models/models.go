package models

import (
	"encoding/json"
	"time"
)

// Coding identifies a controlled-vocabulary term. System and Code are always
// populated together; a coding with only one of the two is never emitted.
type Coding struct {
	System  string  `json:"system"`
	Code    string  `json:"code"`
	Display *string `json:"display"`
}

// NormalizedEvent is one clinical record reduced to its coded essentials.
// Every event carries exactly one resolved timestamp; records without a
// resolvable timestamp are dropped during assembly rather than kept with a
// zero time. AgeAtEvent is backfilled once per bundle after demographics are
// known and the event is otherwise immutable.
type NormalizedEvent struct {
	EventID               string    `json:"event_fhir_id"`
	PatientID             string    `json:"patient_fhir_id"`
	ResourceType          string    `json:"resourceType"`
	Timestamp             time.Time `json:"event_timestamp"`
	Year                  int       `json:"year"`
	PrimaryCodings        []Coding  `json:"primary_codings"`
	StatusCodings         []Coding  `json:"status_codings"`
	IntentCodings         []Coding  `json:"intent_codings"`
	InterpretationCodings []Coding  `json:"interpretation_codings"`
	ValueNumeric          *float64  `json:"value_numeric"`
	ValueConceptCodings   []Coding  `json:"value_concept_codings"`
	UnitCode              *string   `json:"unit_code"`
	UnitDisplay           *string   `json:"unit_display"`
	AgeAtEvent            *int      `json:"age_at_event,omitempty"`
}

// PatientDemographics is built once per bundle and never updated.
// BirthDate keeps the source precision (YYYY, YYYY-MM or YYYY-MM-DD).
type PatientDemographics struct {
	PatientID        string   `json:"fhir_patient_id"`
	BirthDate        string   `json:"birthDate,omitempty"`
	Gender           string   `json:"gender,omitempty"`
	RaceCodings      []Coding `json:"race_codings"`
	EthnicityCodings []Coding `json:"ethnicity_codings"`
}

// PatientRecord is the canonical interchange artifact between the event
// pipeline and all downstream consumers (catalog, age report, embeddings).
// Events are sorted ascending by timestamp with a stable sort.
type PatientRecord struct {
	PatientID    string              `json:"patient_id"`
	Demographics PatientDemographics `json:"demographics"`
	Events       []NormalizedEvent   `json:"clinical_events"`
}

// RunReport summarizes one batch run. A run never aborts on individual
// bundle failures; it counts them instead.
type RunReport struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Processed int       `json:"processed"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Events    int       `json:"events"`
}

// Event is the bus envelope shared by the pipeline producer and the catalog
// service consumer.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"` // patient-record, run-report
	Source    string          `json:"source"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}
