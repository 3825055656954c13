package eventstream

import (
	"sort"

	"github.com/medstream-ai/pipeline/pkg/common/logger"
	"github.com/medstream-ai/pipeline/pkg/common/models"
	"github.com/medstream-ai/pipeline/pkg/fhir"
	"github.com/medstream-ai/pipeline/pkg/terminology"
)

// Assembler turns the qualifying resources of one bundle into normalized
// events.
type Assembler struct {
	registry terminology.Registry
}

func NewAssembler(registry terminology.Registry) *Assembler {
	return &Assembler{registry: registry}
}

// AssembleEvents builds one normalized event per qualifying clinical
// resource and returns the list sorted ascending by timestamp. The sort is
// stable: equal timestamps keep their source traversal order. Resources
// without a resolvable timestamp are dropped, never emitted with a zero
// time.
func (a *Assembler) AssembleEvents(bundle *fhir.Bundle) []models.NormalizedEvent {
	patientID := ""
	if patient := bundle.Patient(); patient != nil {
		patientID = patient.ID
	}

	events := make([]models.NormalizedEvent, 0, len(bundle.Resources))
	for _, resource := range bundle.Resources {
		if event, ok := a.buildEvent(resource, patientID); ok {
			events = append(events, event)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events
}

func (a *Assembler) buildEvent(resource fhir.Resource, patientID string) (models.NormalizedEvent, bool) {
	if _, isPatient := resource.(*fhir.Patient); isPatient {
		return models.NormalizedEvent{}, false
	}

	timestamp, ok := ResolveTimestamp(resource)
	if !ok {
		logger.Log.WithFields(map[string]interface{}{
			"resource_type": resource.TypeName(),
			"resource_id":   resource.ResourceID(),
		}).Debug("Record skipped: no resolvable timestamp")
		return models.NormalizedEvent{}, false
	}

	event := models.NormalizedEvent{
		EventID:               resource.ResourceID(),
		PatientID:             patientID,
		ResourceType:          resource.TypeName(),
		Timestamp:             timestamp,
		Year:                  timestamp.Year(),
		PrimaryCodings:        []models.Coding{},
		StatusCodings:         []models.Coding{},
		IntentCodings:         []models.Coding{},
		InterpretationCodings: []models.Coding{},
		ValueConceptCodings:   []models.Coding{},
	}

	switch res := resource.(type) {
	case *fhir.Condition:
		event.PrimaryCodings = append(event.PrimaryCodings,
			CodingsFromConcept(res.Code, a.registry.Primary(fhir.TypeCondition))...)
		// Clinical and verification status both land in the same status list.
		event.StatusCodings = append(event.StatusCodings,
			CodingsFromConcept(res.ClinicalStatus, []string{terminology.SystemConditionClinical})...)
		event.StatusCodings = append(event.StatusCodings,
			CodingsFromConcept(res.VerificationStatus, []string{terminology.SystemConditionVerification})...)

	case *fhir.Observation:
		event.PrimaryCodings = append(event.PrimaryCodings,
			CodingsFromConcept(res.Code, a.registry.Primary(fhir.TypeObservation))...)

		value := ResolveValue(res, a.registry)
		event.ValueNumeric = value.ValueNumeric
		event.ValueConceptCodings = append(event.ValueConceptCodings, value.ValueConceptCodings...)
		event.UnitCode = value.UnitCode
		event.UnitDisplay = value.UnitDisplay

		event.InterpretationCodings = append(event.InterpretationCodings, ResolveInterpretations(res)...)

	case *fhir.MedicationRequest:
		event.PrimaryCodings = append(event.PrimaryCodings,
			CodingsFromConcept(res.MedicationCodeableConcept, a.registry.Primary(fhir.TypeMedicationRequest))...)
		if res.Status != "" {
			event.StatusCodings = append(event.StatusCodings,
				promotedCoding(terminology.SystemMedicationRequestStatus, res.Status))
		}
		if res.Intent != "" {
			event.IntentCodings = append(event.IntentCodings,
				promotedCoding(terminology.SystemMedicationRequestIntent, res.Intent))
		}

	case *fhir.Procedure:
		event.PrimaryCodings = append(event.PrimaryCodings,
			CodingsFromConcept(res.Code, a.registry.Primary(fhir.TypeProcedure))...)
		if res.Status != "" {
			event.StatusCodings = append(event.StatusCodings,
				promotedCoding(terminology.SystemProcedureStatus, res.Status))
		}

	case *fhir.Immunization:
		event.PrimaryCodings = append(event.PrimaryCodings,
			CodingsFromConcept(res.VaccineCode, a.registry.Primary(fhir.TypeImmunization))...)
		if res.Status != "" {
			event.StatusCodings = append(event.StatusCodings,
				promotedCoding(terminology.SystemImmunizationStatus, res.Status))
		}

	case *fhir.DiagnosticReport:
		event.PrimaryCodings = append(event.PrimaryCodings,
			CodingsFromConcept(res.Code, a.registry.Primary(fhir.TypeDiagnosticReport))...)
		if res.Status != "" {
			event.StatusCodings = append(event.StatusCodings,
				promotedCoding(terminology.SystemDiagnosticReportStatus, res.Status))
		}
	}

	return event, true
}

// promotedCoding wraps a single-valued status/intent string field as a
// one-element coding with a fixed synthetic system label.
func promotedCoding(system, code string) models.Coding {
	return models.Coding{System: system, Code: code, Display: stringPtr(code)}
}
