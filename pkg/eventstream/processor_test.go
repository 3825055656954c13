package eventstream

import (
	"errors"
	"testing"

	"github.com/medstream-ai/pipeline/pkg/terminology"
)

const testBundle = `{
  "resourceType": "Bundle",
  "entry": [
    {
      "resource": {
        "resourceType": "Patient",
        "id": "pat-1",
        "birthDate": "1990-06-15",
        "gender": "female",
        "extension": [
          {
            "url": "http://hl7.org/fhir/us/core/StructureDefinition/us-core-race",
            "extension": [
              {
                "url": "ombCategory",
                "valueCoding": {
                  "system": "urn:oid:2.16.840.1.113883.6.238",
                  "code": "2106-3",
                  "display": "White"
                }
              }
            ]
          },
          {
            "url": "http://hl7.org/fhir/us/core/StructureDefinition/us-core-ethnicity",
            "extension": [
              {
                "url": "ombCategory",
                "valueCoding": {
                  "system": "urn:oid:2.16.840.1.113883.6.238",
                  "code": "2186-5",
                  "display": "Not Hispanic or Latino"
                }
              }
            ]
          }
        ]
      }
    },
    {
      "resource": {
        "resourceType": "MedicationRequest",
        "id": "med-1",
        "authoredOn": "2021-02-01T09:00:00Z",
        "status": "active",
        "intent": "order",
        "medicationCodeableConcept": {
          "coding": [
            {"system": "http://www.nlm.nih.gov/research/umls/rxnorm", "code": "197361", "display": "Lisinopril 10 MG"}
          ]
        }
      }
    },
    {
      "resource": {
        "resourceType": "Condition",
        "id": "cond-1",
        "onsetDateTime": "2015-03-02T10:00:00Z",
        "code": {
          "coding": [
            {"system": "http://snomed.info/sct", "code": "44054006", "display": "Diabetes mellitus type 2"}
          ]
        },
        "clinicalStatus": {
          "coding": [
            {"system": "http://terminology.hl7.org/CodeSystem/condition-clinical", "code": "active"}
          ]
        },
        "verificationStatus": {
          "coding": [
            {"system": "http://terminology.hl7.org/CodeSystem/condition-ver-status", "code": "confirmed"}
          ]
        }
      }
    },
    {
      "resource": {
        "resourceType": "Observation",
        "id": "obs-1",
        "effectiveDateTime": "2019-11-20T14:30:00Z",
        "code": {
          "coding": [
            {"system": "http://loinc.org", "code": "2339-0", "display": "Glucose"}
          ]
        },
        "valueQuantity": {"value": 7.2, "unit": "mg/dL", "code": "mg/dL"},
        "interpretation": [
          {"coding": [{"system": "http://terminology.hl7.org/CodeSystem/v3-ObservationInterpretation", "code": "H"}]}
        ]
      }
    },
    {
      "resource": {
        "resourceType": "Observation",
        "id": "obs-no-ts",
        "code": {
          "coding": [{"system": "http://loinc.org", "code": "8302-2"}]
        }
      }
    },
    {
      "resource": {
        "resourceType": "Immunization",
        "id": "imm-1",
        "occurrenceDateTime": "2019-11-20T14:30:00Z",
        "status": "completed",
        "vaccineCode": {
          "coding": [{"system": "http://hl7.org/fhir/sid/cvx", "code": "140", "display": "Influenza"}]
        }
      }
    },
    {
      "resource": {
        "resourceType": "Device",
        "id": "dev-1"
      }
    }
  ]
}`

func TestProcessBundle(t *testing.T) {
	processor := NewProcessor(terminology.DefaultRegistry())

	record, err := processor.ProcessBundle([]byte(testBundle), "patient_abc")
	if err != nil {
		t.Fatalf("ProcessBundle: %v", err)
	}

	if record.PatientID != "patient_abc" {
		t.Errorf("record named by filename-derived id, got %q", record.PatientID)
	}
	if record.Demographics.PatientID != "pat-1" {
		t.Errorf("expected FHIR patient id pat-1, got %q", record.Demographics.PatientID)
	}
	if len(record.Demographics.RaceCodings) != 1 || record.Demographics.RaceCodings[0].Code != "2106-3" {
		t.Errorf("unexpected race codings %v", record.Demographics.RaceCodings)
	}
	if len(record.Demographics.EthnicityCodings) != 1 || record.Demographics.EthnicityCodings[0].Code != "2186-5" {
		t.Errorf("unexpected ethnicity codings %v", record.Demographics.EthnicityCodings)
	}

	// obs-no-ts has no resolvable timestamp and is dropped; the Device entry
	// is outside the supported set.
	if len(record.Events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(record.Events))
	}

	// Sorted ascending; obs-1 and imm-1 share a timestamp and keep source
	// order.
	wantOrder := []string{"cond-1", "obs-1", "imm-1", "med-1"}
	for i, want := range wantOrder {
		if record.Events[i].EventID != want {
			t.Fatalf("event %d = %q, want %q (order %v)", i, record.Events[i].EventID, want, wantOrder)
		}
	}

	cond := record.Events[0]
	if len(cond.PrimaryCodings) != 1 || cond.PrimaryCodings[0].Code != "44054006" {
		t.Errorf("unexpected condition primary codings %v", cond.PrimaryCodings)
	}
	if len(cond.StatusCodings) != 2 {
		t.Errorf("clinical + verification status expected, got %v", cond.StatusCodings)
	}
	if cond.AgeAtEvent == nil || *cond.AgeAtEvent != 24 {
		t.Errorf("expected age 24 at condition onset, got %v", cond.AgeAtEvent)
	}
	if cond.Year != 2015 {
		t.Errorf("expected year 2015, got %d", cond.Year)
	}

	obs := record.Events[1]
	if obs.ValueNumeric == nil || *obs.ValueNumeric != 7.2 {
		t.Errorf("unexpected observation value %v", obs.ValueNumeric)
	}
	if len(obs.InterpretationCodings) != 1 || obs.InterpretationCodings[0].Code != "H" {
		t.Errorf("unexpected interpretation codings %v", obs.InterpretationCodings)
	}

	med := record.Events[3]
	if len(med.StatusCodings) != 1 || med.StatusCodings[0].System != terminology.SystemMedicationRequestStatus {
		t.Errorf("unexpected medication status codings %v", med.StatusCodings)
	}
	if len(med.IntentCodings) != 1 || med.IntentCodings[0].Code != "order" {
		t.Errorf("unexpected medication intent codings %v", med.IntentCodings)
	}
}

func TestProcessBundleNoPatient(t *testing.T) {
	processor := NewProcessor(terminology.DefaultRegistry())

	bundle := `{"resourceType": "Bundle", "entry": [{"resource": {"resourceType": "Condition", "id": "c1", "onsetDateTime": "2015-01-01"}}]}`
	_, err := processor.ProcessBundle([]byte(bundle), "orphan")
	if !errors.Is(err, ErrNoPatient) {
		t.Fatalf("expected ErrNoPatient, got %v", err)
	}
}

func TestProcessBundleMalformed(t *testing.T) {
	processor := NewProcessor(terminology.DefaultRegistry())
	if _, err := processor.ProcessBundle([]byte("{not json"), "bad"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestBackfillAgesDiscardsNegative(t *testing.T) {
	processor := NewProcessor(terminology.DefaultRegistry())

	bundle := `{
	  "resourceType": "Bundle",
	  "entry": [
	    {"resource": {"resourceType": "Patient", "id": "pat-2", "birthDate": "2010-01-01"}},
	    {"resource": {"resourceType": "Condition", "id": "early", "onsetDateTime": "2005-06-01"}}
	  ]
	}`

	record, err := processor.ProcessBundle([]byte(bundle), "patient_neg")
	if err != nil {
		t.Fatalf("ProcessBundle: %v", err)
	}
	if len(record.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(record.Events))
	}
	if record.Events[0].AgeAtEvent != nil {
		t.Errorf("pre-birth event must have no age, got %v", *record.Events[0].AgeAtEvent)
	}
}
