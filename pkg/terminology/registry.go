package terminology

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Well-known coding system identifiers.
const (
	SystemSNOMED = "http://snomed.info/sct"
	SystemLOINC  = "http://loinc.org"
	SystemRxNorm = "http://www.nlm.nih.gov/research/umls/rxnorm"
	SystemCVX    = "http://hl7.org/fhir/sid/cvx"
	SystemCPT    = "http://www.ama-assn.org/go/cpt"
	SystemHCPCS  = "https://bluebutton.cms.gov/resources/codesystem/hcpcs"
	SystemUCUM   = "http://unitsofmeasure.org"

	SystemInterpretation        = "http://terminology.hl7.org/CodeSystem/v3-ObservationInterpretation"
	SystemConditionClinical     = "http://terminology.hl7.org/CodeSystem/condition-clinical"
	SystemConditionVerification = "http://terminology.hl7.org/CodeSystem/condition-ver-status"

	RaceExtensionURL      = "http://hl7.org/fhir/us/core/StructureDefinition/us-core-race"
	EthnicityExtensionURL = "http://hl7.org/fhir/us/core/StructureDefinition/us-core-ethnicity"
)

// Synthetic system labels attached to codings the pipeline fabricates when a
// record carries no structured coding.
const (
	SystemTextValue          = "text_value"
	SystemStringValue        = "string_value"
	SystemBooleanValue       = "boolean_value"
	SystemTextInterpretation = "text_interpretation"
	SystemUnknown            = "unknown_system"
)

// Fixed pseudo-systems for single-valued status/intent fields promoted to
// one-element coding lists.
const (
	SystemMedicationRequestStatus = "medicationrequest-status"
	SystemMedicationRequestIntent = "medicationrequest-intent"
	SystemProcedureStatus         = "procedure-status"
	SystemImmunizationStatus      = "immunization-status"
	SystemDiagnosticReportStatus  = "diagnosticreport-status"
)

// Registry is the process-wide, read-only vocabulary configuration. It is
// loaded once at startup and handed to the components that need it; nothing
// reads it through package globals.
type Registry struct {
	// PrimaryPrefixes maps a resource type to the system-identifier prefixes
	// accepted for its primary codings.
	PrimaryPrefixes map[string][]string `yaml:"primary_prefixes"`

	// OfficialNames maps system identifiers to the names used when building
	// human-readable code descriptions.
	OfficialNames map[string]string `yaml:"official_names"`

	// Descriptions holds per-system static code descriptions for vocabularies
	// whose codes have no external description service (statuses, intents,
	// interpretation flags).
	Descriptions map[string]map[string]string `yaml:"descriptions"`
}

// Load reads a Registry from a YAML file, or returns the built-in defaults
// when path is empty.
func Load(path string) (Registry, error) {
	if path == "" {
		return DefaultRegistry(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultRegistry(), err
	}
	var reg Registry
	if err := yaml.Unmarshal(content, &reg); err != nil {
		return Registry{}, err
	}
	if len(reg.PrimaryPrefixes) == 0 {
		return Registry{}, fmt.Errorf("terminology registry has no primary prefixes")
	}
	return reg, nil
}

// Primary returns the accepted primary-coding prefixes for a resource type.
func (r Registry) Primary(resourceType string) []string {
	if prefixes, ok := r.PrimaryPrefixes[resourceType]; ok {
		return prefixes
	}
	for key, prefixes := range r.PrimaryPrefixes {
		if strings.EqualFold(key, resourceType) {
			return prefixes
		}
	}
	return nil
}

// Describe resolves a human-readable description for a code: the static
// tables first, then "{official name} code {code}".
func (r Registry) Describe(system, code string) string {
	if table, ok := r.Descriptions[system]; ok {
		if desc, ok := table[code]; ok {
			return desc
		}
	}
	name := system
	if official, ok := r.OfficialNames[system]; ok {
		name = official
	}
	return fmt.Sprintf("%s code %s", name, code)
}

func DefaultRegistry() Registry {
	return Registry{
		PrimaryPrefixes: map[string][]string{
			"Condition":         {SystemSNOMED},
			"Observation":       {SystemLOINC},
			"MedicationRequest": {SystemRxNorm},
			"Procedure":         {SystemSNOMED, SystemCPT, SystemHCPCS},
			"Immunization":      {SystemCVX},
			"DiagnosticReport":  {SystemLOINC},
		},
		OfficialNames: map[string]string{
			SystemSNOMED: "SNOMED CT",
			SystemLOINC:  "LOINC",
			SystemRxNorm: "RxNorm",
			SystemCVX:    "CVX",
			SystemCPT:    "CPT",
			SystemUCUM:   "UCUM",
		},
		Descriptions: defaultDescriptions(),
	}
}

func defaultDescriptions() map[string]map[string]string {
	return map[string]map[string]string{
		SystemConditionClinical: {
			"active":     "Condition is currently active",
			"recurrence": "Condition has recurred",
			"relapse":    "Condition has relapsed",
			"inactive":   "Condition is inactive",
			"remission":  "Condition is in remission",
			"resolved":   "Condition has been resolved",
		},
		SystemConditionVerification: {
			"unconfirmed":      "Condition is unconfirmed",
			"provisional":      "Condition is provisional",
			"differential":     "Condition is differential",
			"confirmed":        "Condition is confirmed",
			"refuted":          "Condition is refuted",
			"entered-in-error": "Condition was entered in error",
		},
		SystemDiagnosticReportStatus: {
			"registered":       "Diagnostic report is registered",
			"partial":          "Diagnostic report is partial",
			"preliminary":      "Diagnostic report is preliminary",
			"final":            "Diagnostic report is final",
			"amended":          "Diagnostic report is amended",
			"corrected":        "Diagnostic report is corrected",
			"appended":         "Diagnostic report is appended",
			"cancelled":        "Diagnostic report is cancelled",
			"entered-in-error": "Diagnostic report was entered in error",
			"unknown":          "Diagnostic report status is unknown",
		},
		SystemProcedureStatus: {
			"preparation":      "Procedure is in preparation",
			"in-progress":      "Procedure is in progress",
			"not-done":         "Procedure was not done",
			"on-hold":          "Procedure is on hold",
			"stopped":          "Procedure was stopped",
			"completed":        "Procedure was completed",
			"entered-in-error": "Procedure was entered in error",
			"unknown":          "Procedure status is unknown",
		},
		SystemMedicationRequestStatus: {
			"active":           "Medication request is active",
			"on-hold":          "Medication request is on hold",
			"cancelled":        "Medication request was cancelled",
			"completed":        "Medication request was completed",
			"entered-in-error": "Medication request was entered in error",
			"stopped":          "Medication request was stopped",
			"draft":            "Medication request is draft",
			"unknown":          "Medication request status is unknown",
		},
		SystemMedicationRequestIntent: {
			"proposal":       "Medication request is a proposal",
			"plan":           "Medication request is a plan",
			"order":          "Medication request is an order",
			"original-order": "Medication request is an original order",
			"reflex-order":   "Medication request is a reflex order",
			"filler-order":   "Medication request is a filler order",
			"instance-order": "Medication request is an instance order",
		},
		SystemImmunizationStatus: {
			"completed":        "Immunization was completed",
			"entered-in-error": "Immunization was entered in error",
			"not-done":         "Immunization was not done",
		},
		SystemInterpretation: {
			"L":  "Below low normal",
			"H":  "Above high normal",
			"LL": "Below lower critical limit",
			"HH": "Above upper critical limit",
			"N":  "Normal",
			"<":  "Off scale low",
			">":  "Off scale high",
			"A":  "Abnormal",
			"AA": "Critically abnormal",
			"U":  "Significant change up",
			"D":  "Significant change down",
			"B":  "Better",
			"W":  "Worse",
		},
	}
}
