package eventstream

import (
	"strconv"

	"github.com/medstream-ai/pipeline/pkg/common/models"
	"github.com/medstream-ai/pipeline/pkg/fhir"
	"github.com/medstream-ai/pipeline/pkg/terminology"
)

// ValueResult carries the type-specific extraction of an Observation value.
// Exactly one of the numeric and concept forms is populated; both may be
// empty when the record has no value at all.
type ValueResult struct {
	ValueNumeric        *float64
	ValueConceptCodings []models.Coding
	UnitCode            *string
	UnitDisplay         *string
}

type valueBranch struct {
	name    string
	applies func(*fhir.Observation) bool
	extract func(*fhir.Observation, terminology.Registry) ValueResult
}

// The cascade is an explicit ordered list so the precedence policy stays
// auditable: quantity, then coded concept, then string, then boolean. The
// first applicable branch wins exclusively.
var valueBranches = []valueBranch{
	{
		name:    "quantity",
		applies: func(obs *fhir.Observation) bool { return obs.ValueQuantity != nil },
		extract: extractQuantityValue,
	},
	{
		name:    "codeable-concept",
		applies: func(obs *fhir.Observation) bool { return obs.ValueCodeableConcept != nil },
		extract: extractConceptValue,
	},
	{
		name:    "string",
		applies: func(obs *fhir.Observation) bool { return obs.ValueString != nil },
		extract: extractStringValue,
	},
	{
		name:    "boolean",
		applies: func(obs *fhir.Observation) bool { return obs.ValueBoolean != nil },
		extract: extractBooleanValue,
	},
}

// ResolveValue applies the value cascade to an Observation.
func ResolveValue(obs *fhir.Observation, registry terminology.Registry) ValueResult {
	for _, branch := range valueBranches {
		if branch.applies(obs) {
			return branch.extract(obs, registry)
		}
	}
	return ValueResult{}
}

func extractQuantityValue(obs *fhir.Observation, _ terminology.Registry) ValueResult {
	quantity := obs.ValueQuantity
	result := ValueResult{ValueNumeric: quantity.Value}
	if quantity.Code != "" {
		result.UnitCode = stringPtr(quantity.Code)
	}
	if quantity.Unit != "" {
		result.UnitDisplay = stringPtr(quantity.Unit)
	}
	return result
}

func extractConceptValue(obs *fhir.Observation, registry terminology.Registry) ValueResult {
	concept := obs.ValueCodeableConcept

	codings := CodingsFromConcept(concept, []string{terminology.SystemSNOMED, terminology.SystemLOINC})

	// No SNOMED/LOINC match: fall back to the first raw coding, tagging its
	// system as given or "unknown_system" when absent.
	if len(codings) == 0 && len(concept.Coding) > 0 {
		first := concept.Coding[0]
		if first.Code != "" {
			system := first.System
			if system == "" {
				system = terminology.SystemUnknown
			}
			codings = append(codings, models.Coding{
				System:  system,
				Code:    first.Code,
				Display: first.Display,
			})
		}
	}

	// Last resort: treat the concept's free text as a synthetic code.
	if len(codings) == 0 && concept.Text != "" {
		codings = append(codings, syntheticCoding(terminology.SystemTextValue, concept.Text))
	}

	return ValueResult{ValueConceptCodings: codings}
}

func extractStringValue(obs *fhir.Observation, _ terminology.Registry) ValueResult {
	return ValueResult{
		ValueConceptCodings: []models.Coding{
			syntheticCoding(terminology.SystemStringValue, *obs.ValueString),
		},
	}
}

func extractBooleanValue(obs *fhir.Observation, _ terminology.Registry) ValueResult {
	value := strconv.FormatBool(*obs.ValueBoolean)
	return ValueResult{
		ValueConceptCodings: []models.Coding{
			syntheticCoding(terminology.SystemBooleanValue, value),
		},
	}
}

// ResolveInterpretations extracts interpretation flags. Each concept in the
// interpretation list is handled independently: structured codes from the
// standard interpretation system when present, else the concept's free text
// as a synthetic coding. Results are concatenated in source order.
func ResolveInterpretations(obs *fhir.Observation) []models.Coding {
	var all []models.Coding
	for i := range obs.Interpretation {
		concept := &obs.Interpretation[i]
		codings := CodingsFromConcept(concept, []string{terminology.SystemInterpretation})
		if len(codings) > 0 {
			all = append(all, codings...)
			continue
		}
		if concept.Text != "" {
			all = append(all, syntheticCoding(terminology.SystemTextInterpretation, concept.Text))
		}
	}
	return all
}

func syntheticCoding(system, code string) models.Coding {
	return models.Coding{System: system, Code: code, Display: stringPtr(code)}
}

func stringPtr(s string) *string {
	return &s
}
