// Package report assembles consultation reports from analysis fields and
// renders them to PDF.
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"amanai-be/pkg/analysis"
)

type Kind string

const (
	KindSoap   Kind = "soap"
	KindLegacy Kind = "legacy"
)

type Patient struct {
	Name      string `json:"name,omitempty"`
	BirthDate string `json:"birth_date,omitempty"`
	IDNumber  string `json:"id_number,omitempty"`
	Doctor    string `json:"doctor,omitempty"`
}

// Initials is what public verification shows instead of the full name.
func (p Patient) Initials() string {
	var out []rune
	start := true
	for _, r := range p.Name {
		if r == ' ' || r == '-' {
			start = true
			continue
		}
		if start {
			out = append(out, r, '.')
			start = false
		}
	}
	return string(out)
}

type Meta struct {
	ID        string
	Patient   Patient
	CreatedAt time.Time
}

// Report is either a SoapReport or a LegacyReport.
type Report interface {
	Kind() Kind
	Metadata() Meta
	Fields() analysis.ReportFields
	sections() []Section
}

type Section struct {
	Title string
	Body  string
}

type SoapReport struct {
	Meta
	Subjective            string
	Objective             string
	Assessment            string
	DifferentialDiagnosis string
	Plan                  string
	Recommendations       string
	GeneralCondition      string
	Conclusion            string
	DialogueProtocol      string
}

func (r SoapReport) Kind() Kind     { return KindSoap }
func (r SoapReport) Metadata() Meta { return r.Meta }

func (r SoapReport) Fields() analysis.ReportFields {
	return analysis.ReportFields{
		Subjective:            r.Subjective,
		Objective:             r.Objective,
		Assessment:            r.Assessment,
		DifferentialDiagnosis: r.DifferentialDiagnosis,
		Plan:                  r.Plan,
		Recommendations:       r.Recommendations,
		GeneralCondition:      r.GeneralCondition,
		Conclusion:            r.Conclusion,
		DialogueProtocol:      r.DialogueProtocol,
	}
}

func (r SoapReport) sections() []Section {
	return []Section{
		{"Subjective", r.Subjective},
		{"Objective", r.Objective},
		{"Assessment", r.Assessment},
		{"Differential diagnosis", r.DifferentialDiagnosis},
		{"Plan", r.Plan},
		{"Recommendations", r.Recommendations},
		{"General condition", r.GeneralCondition},
		{"Conclusion", r.Conclusion},
		{"Dialogue protocol", r.DialogueProtocol},
	}
}

type LegacyReport struct {
	Meta
	GeneralCondition string
	Recommendations  string
	Conclusion       string
	DialogueProtocol string
}

func (r LegacyReport) Kind() Kind     { return KindLegacy }
func (r LegacyReport) Metadata() Meta { return r.Meta }

func (r LegacyReport) Fields() analysis.ReportFields {
	return analysis.ReportFields{
		GeneralCondition: r.GeneralCondition,
		Recommendations:  r.Recommendations,
		Conclusion:       r.Conclusion,
		DialogueProtocol: r.DialogueProtocol,
	}
}

func (r LegacyReport) sections() []Section {
	return []Section{
		{"General condition", r.GeneralCondition},
		{"Recommendations", r.Recommendations},
		{"Conclusion", r.Conclusion},
		{"Dialogue protocol", r.DialogueProtocol},
	}
}

// FromFields picks the SOAP layout when any SOAP field is present.
func FromFields(meta Meta, fields analysis.ReportFields) Report {
	if fields.HasSoap() {
		return SoapReport{
			Meta:                  meta,
			Subjective:            fields.Subjective,
			Objective:             fields.Objective,
			Assessment:            fields.Assessment,
			DifferentialDiagnosis: fields.DifferentialDiagnosis,
			Plan:                  fields.Plan,
			Recommendations:       fields.Recommendations,
			GeneralCondition:      fields.GeneralCondition,
			Conclusion:            fields.Conclusion,
			DialogueProtocol:      fields.DialogueProtocol,
		}
	}
	return LegacyReport{
		Meta:             meta,
		GeneralCondition: fields.GeneralCondition,
		Recommendations:  fields.Recommendations,
		Conclusion:       fields.Conclusion,
		DialogueProtocol: fields.DialogueProtocol,
	}
}

// ContentHash is the sha256 of the canonical JSON of fields.
func ContentHash(fields analysis.ReportFields) string {
	// struct field order makes the encoding canonical
	payload, _ := json.Marshal(fields)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
