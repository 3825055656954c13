package eventstream

import (
	"github.com/medstream-ai/pipeline/pkg/common/models"
	"github.com/medstream-ai/pipeline/pkg/fhir"
	"github.com/medstream-ai/pipeline/pkg/terminology"
)

// ExtractDemographics builds the per-patient demographics from the bundle's
// Patient resource. Returns nil when the bundle carries no Patient; such
// bundles are skipped entirely.
func ExtractDemographics(bundle *fhir.Bundle) *models.PatientDemographics {
	patient := bundle.Patient()
	if patient == nil {
		return nil
	}

	demographics := &models.PatientDemographics{
		PatientID:        patient.ID,
		BirthDate:        patient.BirthDate,
		Gender:           patient.Gender,
		RaceCodings:      []models.Coding{},
		EthnicityCodings: []models.Coding{},
	}

	for _, ext := range patient.Extension {
		switch ext.URL {
		case terminology.RaceExtensionURL:
			demographics.RaceCodings = append(demographics.RaceCodings, ombCategoryCodings(ext)...)
		case terminology.EthnicityExtensionURL:
			demographics.EthnicityCodings = append(demographics.EthnicityCodings, ombCategoryCodings(ext)...)
		}
	}

	return demographics
}

// ombCategoryCodings pulls the ombCategory valueCoding entries out of a US
// Core race/ethnicity extension.
func ombCategoryCodings(ext fhir.Extension) []models.Coding {
	var codings []models.Coding
	for _, sub := range ext.Extension {
		if sub.URL != "ombCategory" || sub.ValueCoding == nil {
			continue
		}
		coding := sub.ValueCoding
		if coding.Code == "" {
			continue
		}
		system := coding.System
		if system == "" {
			system = terminology.SystemUnknown
		}
		codings = append(codings, models.Coding{
			System:  system,
			Code:    coding.Code,
			Display: coding.Display,
		})
	}
	return codings
}
