package fhir

// Shared FHIR datatypes, restricted to the fields the pipeline reads.

type Coding struct {
	System  string  `json:"system,omitempty"`
	Code    string  `json:"code,omitempty"`
	Display *string `json:"display,omitempty"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

type Quantity struct {
	Value  *float64 `json:"value,omitempty"`
	Unit   string   `json:"unit,omitempty"`
	System string   `json:"system,omitempty"`
	Code   string   `json:"code,omitempty"`
}

type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type Extension struct {
	URL         string      `json:"url"`
	Extension   []Extension `json:"extension,omitempty"`
	ValueCoding *Coding     `json:"valueCoding,omitempty"`
	ValueString string      `json:"valueString,omitempty"`
}
