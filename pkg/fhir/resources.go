package fhir

// The pipeline consumes a closed set of resource types. Each variant carries
// an explicit optional-field schema; consumers dispatch with a type switch
// rather than probing loose maps.

const (
	TypePatient           = "Patient"
	TypeCondition         = "Condition"
	TypeObservation       = "Observation"
	TypeMedicationRequest = "MedicationRequest"
	TypeProcedure         = "Procedure"
	TypeImmunization      = "Immunization"
	TypeDiagnosticReport  = "DiagnosticReport"
)

// Resource is the tagged union over the resource types the pipeline reads.
type Resource interface {
	ResourceID() string
	TypeName() string
}

type Patient struct {
	ID        string      `json:"id,omitempty"`
	BirthDate string      `json:"birthDate,omitempty"`
	Gender    string      `json:"gender,omitempty"`
	Extension []Extension `json:"extension,omitempty"`
}

type Condition struct {
	ID                 string           `json:"id,omitempty"`
	Code               *CodeableConcept `json:"code,omitempty"`
	ClinicalStatus     *CodeableConcept `json:"clinicalStatus,omitempty"`
	VerificationStatus *CodeableConcept `json:"verificationStatus,omitempty"`
	OnsetDateTime      string           `json:"onsetDateTime,omitempty"`
	RecordedDate       string           `json:"recordedDate,omitempty"`
}

type Observation struct {
	ID                   string            `json:"id,omitempty"`
	Code                 *CodeableConcept  `json:"code,omitempty"`
	EffectiveDateTime    string            `json:"effectiveDateTime,omitempty"`
	Issued               string            `json:"issued,omitempty"`
	ValueQuantity        *Quantity         `json:"valueQuantity,omitempty"`
	ValueCodeableConcept *CodeableConcept  `json:"valueCodeableConcept,omitempty"`
	ValueString          *string           `json:"valueString,omitempty"`
	ValueBoolean         *bool             `json:"valueBoolean,omitempty"`
	Interpretation       []CodeableConcept `json:"interpretation,omitempty"`
}

type MedicationRequest struct {
	ID                        string           `json:"id,omitempty"`
	MedicationCodeableConcept *CodeableConcept `json:"medicationCodeableConcept,omitempty"`
	AuthoredOn                string           `json:"authoredOn,omitempty"`
	Status                    string           `json:"status,omitempty"`
	Intent                    string           `json:"intent,omitempty"`
}

type Procedure struct {
	ID                string           `json:"id,omitempty"`
	Code              *CodeableConcept `json:"code,omitempty"`
	PerformedDateTime string           `json:"performedDateTime,omitempty"`
	PerformedPeriod   *Period          `json:"performedPeriod,omitempty"`
	Status            string           `json:"status,omitempty"`
}

type Immunization struct {
	ID                 string           `json:"id,omitempty"`
	VaccineCode        *CodeableConcept `json:"vaccineCode,omitempty"`
	OccurrenceDateTime string           `json:"occurrenceDateTime,omitempty"`
	Status             string           `json:"status,omitempty"`
}

type DiagnosticReport struct {
	ID                string           `json:"id,omitempty"`
	Code              *CodeableConcept `json:"code,omitempty"`
	EffectiveDateTime string           `json:"effectiveDateTime,omitempty"`
	Issued            string           `json:"issued,omitempty"`
	Status            string           `json:"status,omitempty"`
}

func (p *Patient) ResourceID() string           { return p.ID }
func (c *Condition) ResourceID() string         { return c.ID }
func (o *Observation) ResourceID() string       { return o.ID }
func (m *MedicationRequest) ResourceID() string { return m.ID }
func (p *Procedure) ResourceID() string         { return p.ID }
func (i *Immunization) ResourceID() string      { return i.ID }
func (d *DiagnosticReport) ResourceID() string  { return d.ID }

func (p *Patient) TypeName() string           { return TypePatient }
func (c *Condition) TypeName() string         { return TypeCondition }
func (o *Observation) TypeName() string       { return TypeObservation }
func (m *MedicationRequest) TypeName() string { return TypeMedicationRequest }
func (p *Procedure) TypeName() string         { return TypeProcedure }
func (i *Immunization) TypeName() string      { return TypeImmunization }
func (d *DiagnosticReport) TypeName() string  { return TypeDiagnosticReport }
