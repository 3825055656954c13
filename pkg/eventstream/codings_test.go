package eventstream

import (
	"testing"

	"github.com/medstream-ai/pipeline/pkg/fhir"
	"github.com/medstream-ai/pipeline/pkg/terminology"
)

func display(s string) *string { return &s }

func TestCodingsFromConceptKeepsAllMatches(t *testing.T) {
	concept := &fhir.CodeableConcept{
		Coding: []fhir.Coding{
			{System: terminology.SystemSNOMED, Code: "44054006", Display: display("Diabetes mellitus type 2")},
			{System: "http://example.org/local", Code: "DM2"},
			{System: terminology.SystemSNOMED, Code: "73211009", Display: display("Diabetes mellitus")},
		},
	}

	codings := CodingsFromConcept(concept, []string{terminology.SystemSNOMED})
	if len(codings) != 2 {
		t.Fatalf("expected 2 SNOMED codings, got %d", len(codings))
	}
	if codings[0].Code != "44054006" || codings[1].Code != "73211009" {
		t.Errorf("source order not preserved: %v", codings)
	}
}

func TestCodingsFromConceptSkipsIncompleteEntries(t *testing.T) {
	concept := &fhir.CodeableConcept{
		Coding: []fhir.Coding{
			{System: terminology.SystemLOINC},             // no code
			{Code: "1234-5"},                              // no system
			{System: terminology.SystemLOINC, Code: "8302-2"},
		},
	}

	codings := CodingsFromConcept(concept, []string{terminology.SystemLOINC})
	if len(codings) != 1 {
		t.Fatalf("expected 1 coding, got %d", len(codings))
	}
	if codings[0].Code != "8302-2" {
		t.Errorf("unexpected coding %v", codings[0])
	}
}

func TestCodingsFromConceptPrefixMatching(t *testing.T) {
	concept := &fhir.CodeableConcept{
		Coding: []fhir.Coding{
			{System: terminology.SystemSNOMED + "/version/20230901", Code: "386661006"},
		},
	}
	codings := CodingsFromConcept(concept, []string{terminology.SystemSNOMED})
	if len(codings) != 1 {
		t.Fatalf("versioned system URL must match by prefix, got %d codings", len(codings))
	}
}

func TestCodingsFromConceptNilConcept(t *testing.T) {
	if got := CodingsFromConcept(nil, []string{terminology.SystemSNOMED}); got != nil {
		t.Errorf("expected nil for nil concept, got %v", got)
	}
}
