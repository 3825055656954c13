package eventstream

import (
	"strings"

	"github.com/medstream-ai/pipeline/pkg/common/models"
	"github.com/medstream-ai/pipeline/pkg/fhir"
)

// CodingsFromConcept extracts every coding whose system matches any of the
// supplied system-identifier prefixes, preserving source order and
// multiplicity. A concept can legitimately carry several simultaneous
// codings (SNOMED next to a local code); all matches are kept so the
// downstream catalog loses nothing. Absent or malformed concepts yield nil.
func CodingsFromConcept(concept *fhir.CodeableConcept, prefixes []string) []models.Coding {
	if concept == nil || len(concept.Coding) == 0 {
		return nil
	}

	var extracted []models.Coding
	for _, entry := range concept.Coding {
		if entry.System == "" || entry.Code == "" {
			continue
		}
		for _, prefix := range prefixes {
			if strings.HasPrefix(entry.System, prefix) {
				extracted = append(extracted, models.Coding{
					System:  entry.System,
					Code:    entry.Code,
					Display: entry.Display,
				})
				break
			}
		}
	}
	return extracted
}
