package terminology

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultRegistryPrimary(t *testing.T) {
	registry := DefaultRegistry()

	cases := map[string][]string{
		"Condition":         {SystemSNOMED},
		"Observation":       {SystemLOINC},
		"MedicationRequest": {SystemRxNorm},
		"Procedure":         {SystemSNOMED, SystemCPT, SystemHCPCS},
		"Immunization":      {SystemCVX},
		"DiagnosticReport":  {SystemLOINC},
	}
	for resourceType, want := range cases {
		if got := registry.Primary(resourceType); !reflect.DeepEqual(got, want) {
			t.Errorf("Primary(%q) = %v, want %v", resourceType, got, want)
		}
	}

	if got := registry.Primary("Patient"); got != nil {
		t.Errorf("Patient has no primary prefixes, got %v", got)
	}
}

func TestPrimaryCaseInsensitive(t *testing.T) {
	registry := DefaultRegistry()
	if got := registry.Primary("condition"); !reflect.DeepEqual(got, []string{SystemSNOMED}) {
		t.Errorf("Primary(\"condition\") = %v", got)
	}
}

func TestDescribeStaticTables(t *testing.T) {
	registry := DefaultRegistry()

	cases := []struct {
		system, code, want string
	}{
		{SystemConditionClinical, "active", "Condition is currently active"},
		{SystemConditionVerification, "confirmed", "Condition is confirmed"},
		{SystemInterpretation, "H", "Above high normal"},
		{SystemMedicationRequestIntent, "order", "Medication request is an order"},
		{SystemImmunizationStatus, "not-done", "Immunization was not done"},
	}
	for _, tc := range cases {
		if got := registry.Describe(tc.system, tc.code); got != tc.want {
			t.Errorf("Describe(%q, %q) = %q, want %q", tc.system, tc.code, got, tc.want)
		}
	}
}

func TestDescribeFallback(t *testing.T) {
	registry := DefaultRegistry()

	if got := registry.Describe(SystemSNOMED, "44054006"); got != "SNOMED CT code 44054006" {
		t.Errorf("Describe SNOMED = %q", got)
	}
	// Systems without an official name fall back to the identifier itself.
	if got := registry.Describe("unit_code", "mg/dL"); got != "unit_code code mg/dL" {
		t.Errorf("Describe unit_code = %q", got)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	registry, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if len(registry.PrimaryPrefixes) == 0 {
		t.Fatal("defaults must carry primary prefixes")
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terminology.yaml")
	content := `
primary_prefixes:
  Condition:
    - http://snomed.info/sct
official_names:
  http://snomed.info/sct: SNOMED CT
descriptions:
  condition-clinical:
    active: Active condition
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	registry, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := registry.Primary("Condition"); !reflect.DeepEqual(got, []string{SystemSNOMED}) {
		t.Errorf("Primary(Condition) = %v", got)
	}
	if got := registry.Describe("condition-clinical", "active"); got != "Active condition" {
		t.Errorf("Describe = %q", got)
	}
}

func TestLoadRejectsEmptyRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("official_names: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("registry without primary prefixes must be rejected")
	}
}
