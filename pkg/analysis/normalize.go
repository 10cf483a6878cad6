package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ReportFields is the SOAP note plus the legacy summary fields. Absent values are "".
type ReportFields struct {
	Subjective            string `json:"subjective"`
	Objective             string `json:"objective"`
	Assessment            string `json:"assessment"`
	DifferentialDiagnosis string `json:"differentialDiagnosis"`
	Plan                  string `json:"plan"`
	GeneralCondition      string `json:"generalCondition"`
	DialogueProtocol      string `json:"dialogueProtocol"`
	Recommendations       string `json:"recommendations"`
	Conclusion            string `json:"conclusion"`
}

// HasSoap reports whether any of the SOAP-specific fields is populated.
func (f ReportFields) HasSoap() bool {
	return f.Subjective != "" || f.Objective != "" || f.Assessment != "" ||
		f.DifferentialDiagnosis != "" || f.Plan != ""
}

func (f ReportFields) IsEmpty() bool {
	return f == ReportFields{}
}

// Synonym keys per field, highest priority first. The first key present with a
// non-empty value wins.
var (
	subjectiveKeys       = []string{"subjective", "Subjective", "complaints", "anamnesis", "s"}
	objectiveKeys        = []string{"objective", "Objective", "examination", "findings", "o"}
	assessmentKeys       = []string{"assessment", "Assessment", "diagnosis", "diagnose", "a"}
	differentialKeys     = []string{"differentialDiagnosis", "differential_diagnosis", "DifferentialDiagnosis", "differential", "ddx"}
	planKeys             = []string{"plan", "Plan", "treatmentPlan", "treatment_plan", "treatment", "p"}
	generalConditionKeys = []string{"generalCondition", "general_condition", "condition", "general_state"}
	dialogueKeys         = []string{"dialogueProtocol", "dialogue_protocol", "dialogue", "transcript", "transcription", "text"}
	recommendationKeys   = []string{"recommendations", "Recommendations", "recommendation", "advice"}
	conclusionKeys       = []string{"conclusion", "Conclusion", "summary", "resume"}
)

// nestedKeys are wrapper objects some backends put the note under.
var nestedKeys = []string{"soap", "SOAP", "soap_note", "soapNote", "result", "analysis"}

// Normalize maps a loosely-typed analysis result onto ReportFields. Top-level
// keys take precedence over keys found in nested wrapper objects.
func Normalize(raw map[string]any) ReportFields {
	if raw == nil {
		return ReportFields{}
	}

	sources := []map[string]any{raw}
	for _, key := range nestedKeys {
		if nested, ok := raw[key].(map[string]any); ok {
			sources = append(sources, nested)
		}
	}

	// verbatim keeps surrounding whitespace of the winning value.
	pick := func(keys []string, verbatim bool) string {
		for _, src := range sources {
			for _, k := range keys {
				v, ok := src[k]
				if !ok {
					continue
				}
				s := stringify(v)
				if strings.TrimSpace(s) == "" {
					continue
				}
				if verbatim {
					return s
				}
				return strings.TrimSpace(s)
			}
		}
		return ""
	}

	return ReportFields{
		Subjective:            pick(subjectiveKeys, false),
		Objective:             pick(objectiveKeys, false),
		Assessment:            pick(assessmentKeys, false),
		DifferentialDiagnosis: pick(differentialKeys, false),
		Plan:                  pick(planKeys, false),
		GeneralCondition:      pick(generalConditionKeys, false),
		DialogueProtocol:      pick(dialogueKeys, true),
		Recommendations:       pick(recommendationKeys, false),
		Conclusion:            pick(conclusionKeys, false),
	}
}

// ToMap is the inverse used when sending fields back over the wire.
func (f ReportFields) ToMap() map[string]any {
	return map[string]any{
		"subjective":            f.Subjective,
		"objective":             f.Objective,
		"assessment":            f.Assessment,
		"differentialDiagnosis": f.DifferentialDiagnosis,
		"plan":                  f.Plan,
		"generalCondition":      f.GeneralCondition,
		"dialogueProtocol":      f.DialogueProtocol,
		"recommendations":       f.Recommendations,
		"conclusion":            f.Conclusion,
	}
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := strings.TrimSpace(stringify(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	case map[string]any:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	case float64:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%f", val), "0"), ".")
	default:
		return fmt.Sprint(val)
	}
}
