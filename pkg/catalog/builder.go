package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/medstream-ai/pipeline/pkg/common/models"
)

// Fixed pseudo-system labels. Codes filed under these are keyed by a
// hard-coded label rather than a system read from the data, so no source
// field is tracked for them.
const (
	SystemUnitCode      = "unit_code"
	SystemRaceCode      = "race_code"
	SystemEthnicityCode = "ethnicity_code"
	SystemGender        = "gender"
)

// Source fields for dynamically-sourced codes.
const (
	FieldPrimaryCodings        = "primary_codings"
	FieldStatusCodings         = "status_codings"
	FieldIntentCodings         = "intent_codings"
	FieldInterpretationCodings = "interpretation_codings"
	FieldValueConceptCodings   = "value_concept_codings"
)

// Source is the provenance of one code occurrence. SourceField is populated
// only for codes whose system was determined dynamically from the data; it
// stays empty for fixed pseudo-systems. The distinction shapes how usage is
// reported.
type Source struct {
	ResourceType string
	SourceField  string
}

// Builder aggregates the universe of distinct (system, code) pairs across
// all patient records and tracks per-system usage by provenance. It is a
// pure accumulator: adding the same set of records twice exactly doubles
// every count and changes no code set.
type Builder struct {
	codes map[string]map[string]struct{}
	usage map[string]map[Source]map[string]int
}

func NewBuilder() *Builder {
	return &Builder{
		codes: make(map[string]map[string]struct{}),
		usage: make(map[string]map[Source]map[string]int),
	}
}

// AddRecord scans every coding-bearing field of one patient record.
func (b *Builder) AddRecord(record *models.PatientRecord) {
	for i := range record.Events {
		event := &record.Events[i]
		b.addDynamic(event.PrimaryCodings, event.ResourceType, FieldPrimaryCodings)
		b.addDynamic(event.StatusCodings, event.ResourceType, FieldStatusCodings)
		b.addDynamic(event.IntentCodings, event.ResourceType, FieldIntentCodings)
		b.addDynamic(event.InterpretationCodings, event.ResourceType, FieldInterpretationCodings)
		b.addDynamic(event.ValueConceptCodings, event.ResourceType, FieldValueConceptCodings)

		if event.UnitCode != nil && *event.UnitCode != "" {
			b.addFixed(SystemUnitCode, *event.UnitCode, event.ResourceType)
		}
	}

	demographics := &record.Demographics
	for _, coding := range demographics.RaceCodings {
		if coding.Code != "" {
			b.addFixed(SystemRaceCode, coding.Code, "Patient")
		}
	}
	for _, coding := range demographics.EthnicityCodings {
		if coding.Code != "" {
			b.addFixed(SystemEthnicityCode, coding.Code, "Patient")
		}
	}
	if demographics.Gender != "" {
		b.addFixed(SystemGender, demographics.Gender, "Patient")
	}
}

// addDynamic files codings whose system came from the data itself; the
// originating list is recorded as the source field.
func (b *Builder) addDynamic(codings []models.Coding, resourceType, sourceField string) {
	for _, coding := range codings {
		if coding.System == "" || coding.Code == "" {
			continue
		}
		b.add(coding.System, coding.Code, Source{ResourceType: resourceType, SourceField: sourceField})
	}
}

// addFixed files a code under a hard-coded pseudo-system label; no source
// field is tracked.
func (b *Builder) addFixed(system, code, resourceType string) {
	b.add(system, code, Source{ResourceType: resourceType})
}

func (b *Builder) add(system, code string, source Source) {
	if b.codes[system] == nil {
		b.codes[system] = make(map[string]struct{})
	}
	b.codes[system][code] = struct{}{}

	if b.usage[system] == nil {
		b.usage[system] = make(map[Source]map[string]int)
	}
	if b.usage[system][source] == nil {
		b.usage[system][source] = make(map[string]int)
	}
	b.usage[system][source][code]++
}

// Systems returns all systems seen, sorted.
func (b *Builder) Systems() []string {
	systems := make([]string, 0, len(b.codes))
	for system := range b.codes {
		systems = append(systems, system)
	}
	sort.Strings(systems)
	return systems
}

// Codes returns the distinct codes of one system, sorted.
func (b *Builder) Codes(system string) []string {
	codes := make([]string, 0, len(b.codes[system]))
	for code := range b.codes[system] {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// HasSourceFields reports whether any occurrence of this system carries a
// source field, which decides the usage CSV column layout.
func (b *Builder) HasSourceFields(system string) bool {
	for source := range b.usage[system] {
		if source.SourceField != "" {
			return true
		}
	}
	return false
}

type UsageRow struct {
	System       string
	Code         string
	ResourceType string
	SourceField  string
	Count        int
}

// UsageRows returns the per-code usage breakdown of one system in a
// deterministic order.
func (b *Builder) UsageRows(system string) []UsageRow {
	var rows []UsageRow
	for source, counts := range b.usage[system] {
		for code, count := range counts {
			rows = append(rows, UsageRow{
				System:       system,
				Code:         code,
				ResourceType: source.ResourceType,
				SourceField:  source.SourceField,
				Count:        count,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ResourceType != rows[j].ResourceType {
			return rows[i].ResourceType < rows[j].ResourceType
		}
		if rows[i].SourceField != rows[j].SourceField {
			return rows[i].SourceField < rows[j].SourceField
		}
		return rows[i].Code < rows[j].Code
	})
	return rows
}

type SummaryRow struct {
	System     string `json:"system"`
	CodeCount  int    `json:"code_count"`
	Provenance string `json:"resource_types_with_sources"`
}

// SummaryRows returns one row per system with its distinct-code count and a
// formatted provenance string: ResourceType(field1,field2)|ResourceType2.
func (b *Builder) SummaryRows() []SummaryRow {
	rows := make([]SummaryRow, 0, len(b.codes))
	for _, system := range b.Systems() {
		rows = append(rows, SummaryRow{
			System:     system,
			CodeCount:  len(b.codes[system]),
			Provenance: b.provenance(system),
		})
	}
	return rows
}

func (b *Builder) provenance(system string) string {
	fieldsByResource := make(map[string]map[string]struct{})
	for source := range b.usage[system] {
		if fieldsByResource[source.ResourceType] == nil {
			fieldsByResource[source.ResourceType] = make(map[string]struct{})
		}
		if source.SourceField != "" {
			fieldsByResource[source.ResourceType][source.SourceField] = struct{}{}
		}
	}

	resourceTypes := make([]string, 0, len(fieldsByResource))
	for resourceType := range fieldsByResource {
		resourceTypes = append(resourceTypes, resourceType)
	}
	sort.Strings(resourceTypes)

	parts := make([]string, 0, len(resourceTypes))
	for _, resourceType := range resourceTypes {
		fields := make([]string, 0, len(fieldsByResource[resourceType]))
		for field := range fieldsByResource[resourceType] {
			fields = append(fields, field)
		}
		if len(fields) == 0 {
			parts = append(parts, resourceType)
			continue
		}
		sort.Strings(fields)
		parts = append(parts, fmt.Sprintf("%s(%s)", resourceType, strings.Join(fields, ",")))
	}
	return strings.Join(parts, "|")
}

type UsageSummaryRow struct {
	System           string
	ResourceType     string
	SourceField      string
	UniqueCodes      int
	TotalOccurrences int
}

// UsageSummaryRows rolls usage up to (system, resource type, source field)
// granularity.
func (b *Builder) UsageSummaryRows() []UsageSummaryRow {
	var rows []UsageSummaryRow
	for system, sources := range b.usage {
		for source, counts := range sources {
			total := 0
			for _, count := range counts {
				total += count
			}
			rows = append(rows, UsageSummaryRow{
				System:           system,
				ResourceType:     source.ResourceType,
				SourceField:      source.SourceField,
				UniqueCodes:      len(counts),
				TotalOccurrences: total,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].System != rows[j].System {
			return rows[i].System < rows[j].System
		}
		if rows[i].ResourceType != rows[j].ResourceType {
			return rows[i].ResourceType < rows[j].ResourceType
		}
		return rows[i].SourceField < rows[j].SourceField
	})
	return rows
}

// SafeSystemName converts a system identifier to a filename-safe form.
func SafeSystemName(system string) string {
	replacer := strings.NewReplacer("/", "_", ":", "_", ".", "_", " ", "_")
	return strings.ToLower(replacer.Replace(system))
}
