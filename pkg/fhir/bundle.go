package fhir

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Bundle holds the decoded resources of one patient bundle, in source order.
// Entries whose resourceType is outside the supported set are counted but
// otherwise ignored.
type Bundle struct {
	Resources []Resource
	Unknown   int
}

type rawBundle struct {
	ResourceType string `json:"resourceType"`
	Entry        []struct {
		Resource json.RawMessage `json:"resource"`
	} `json:"entry"`
}

type resourceEnvelope struct {
	ResourceType string `json:"resourceType"`
}

// DecodeBundle parses a FHIR bundle document into the typed resource union.
func DecodeBundle(data []byte) (*Bundle, error) {
	var raw rawBundle
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if raw.ResourceType != "" && raw.ResourceType != "Bundle" {
		return nil, fmt.Errorf("expected Bundle, got %q", raw.ResourceType)
	}

	bundle := &Bundle{}
	for _, entry := range raw.Entry {
		if len(entry.Resource) == 0 {
			continue
		}
		resource, err := decodeResource(entry.Resource)
		if err != nil {
			return nil, err
		}
		if resource == nil {
			bundle.Unknown++
			continue
		}
		bundle.Resources = append(bundle.Resources, resource)
	}
	return bundle, nil
}

func decodeResource(data json.RawMessage) (Resource, error) {
	var envelope resourceEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode resource envelope: %w", err)
	}

	var target Resource
	switch envelope.ResourceType {
	case TypePatient:
		target = &Patient{}
	case TypeCondition:
		target = &Condition{}
	case TypeObservation:
		target = &Observation{}
	case TypeMedicationRequest:
		target = &MedicationRequest{}
	case TypeProcedure:
		target = &Procedure{}
	case TypeImmunization:
		target = &Immunization{}
	case TypeDiagnosticReport:
		target = &DiagnosticReport{}
	default:
		return nil, nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return nil, fmt.Errorf("decode %s: %w", envelope.ResourceType, err)
	}
	return target, nil
}

// Patient returns the bundle's Patient resource, or nil when the bundle has
// none.
func (b *Bundle) Patient() *Patient {
	for _, resource := range b.Resources {
		if patient, ok := resource.(*Patient); ok {
			return patient
		}
	}
	return nil
}
