package eventstream

import (
	"time"

	"github.com/medstream-ai/pipeline/pkg/common/logger"
	"github.com/medstream-ai/pipeline/pkg/fhir"
)

// Clinical timestamps arrive in anything from full RFC 3339 down to a bare
// year. Layouts are tried most-specific first.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

func parseClinicalTime(value string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ResolveTimestamp picks the single authoritative timestamp for a clinical
// resource. Per type, the first non-empty candidate field wins:
//
//	Condition: onsetDateTime, else recordedDate
//	Observation / DiagnosticReport: effectiveDateTime, else issued
//	MedicationRequest: authoredOn
//	Procedure: performedDateTime, else performedPeriod.start
//	Immunization: occurrenceDateTime
//
// Records whose chosen field is absent or unparseable resolve to no
// timestamp and must be dropped by the assembler.
func ResolveTimestamp(resource fhir.Resource) (time.Time, bool) {
	var value string
	switch res := resource.(type) {
	case *fhir.Condition:
		value = firstNonEmpty(res.OnsetDateTime, res.RecordedDate)
	case *fhir.Observation:
		value = firstNonEmpty(res.EffectiveDateTime, res.Issued)
	case *fhir.MedicationRequest:
		value = res.AuthoredOn
	case *fhir.Procedure:
		value = res.PerformedDateTime
		if value == "" && res.PerformedPeriod != nil {
			value = res.PerformedPeriod.Start
		}
	case *fhir.Immunization:
		value = res.OccurrenceDateTime
	case *fhir.DiagnosticReport:
		value = firstNonEmpty(res.EffectiveDateTime, res.Issued)
	}

	if value == "" {
		return time.Time{}, false
	}

	ts, ok := parseClinicalTime(value)
	if !ok {
		logger.Log.WithFields(map[string]interface{}{
			"value":       value,
			"resource_id": resource.ResourceID(),
		}).Warn("Could not parse event timestamp")
	}
	return ts, ok
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
