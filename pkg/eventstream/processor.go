package eventstream

import (
	"errors"

	"github.com/medstream-ai/pipeline/pkg/common/logger"
	"github.com/medstream-ai/pipeline/pkg/common/models"
	"github.com/medstream-ai/pipeline/pkg/fhir"
	"github.com/medstream-ai/pipeline/pkg/terminology"
)

// ErrNoPatient marks a bundle without a Patient resource. Such bundles are
// skipped, not failed.
var ErrNoPatient = errors.New("bundle has no patient resource")

// Processor converts one raw bundle document into a PatientRecord.
type Processor struct {
	assembler *Assembler
}

func NewProcessor(registry terminology.Registry) *Processor {
	return &Processor{assembler: NewAssembler(registry)}
}

// ProcessBundle decodes and normalizes one bundle. patientID is the
// filename-derived identifier that names the resulting record; the FHIR
// patient id travels inside the demographics.
func (p *Processor) ProcessBundle(data []byte, patientID string) (*models.PatientRecord, error) {
	bundle, err := fhir.DecodeBundle(data)
	if err != nil {
		return nil, err
	}

	demographics := ExtractDemographics(bundle)
	if demographics == nil {
		return nil, ErrNoPatient
	}

	events := p.assembler.AssembleEvents(bundle)

	if demographics.BirthDate != "" {
		backfillAges(events, demographics.BirthDate)
	}

	return &models.PatientRecord{
		PatientID:    patientID,
		Demographics: *demographics,
		Events:       events,
	}, nil
}

// backfillAges is the single post-assembly mutation events receive.
func backfillAges(events []models.NormalizedEvent, birthDate string) {
	for i := range events {
		age, ok := AgeAt(birthDate, events[i].Timestamp)
		if !ok {
			continue
		}
		if age < 0 {
			logger.Log.WithFields(map[string]interface{}{
				"birth_date": birthDate,
				"event_id":   events[i].EventID,
				"age":        age,
			}).Warn("Discarding negative age at event")
			continue
		}
		value := age
		events[i].AgeAtEvent = &value
	}
}
