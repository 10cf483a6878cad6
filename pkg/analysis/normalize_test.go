package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSynonymPriority(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want ReportFields
	}{
		{
			name: "camel case",
			raw: map[string]any{
				"subjective":            "headache",
				"differentialDiagnosis": "migraine",
				"dialogueProtocol":      "SPEAKER_00: hi",
			},
			want: ReportFields{Subjective: "headache", DifferentialDiagnosis: "migraine", DialogueProtocol: "SPEAKER_00: hi"},
		},
		{
			name: "snake case",
			raw: map[string]any{
				"differential_diagnosis": "tension headache",
				"general_condition":      "stable",
				"dialogue_protocol":      "SPEAKER_01: ok",
			},
			want: ReportFields{DifferentialDiagnosis: "tension headache", GeneralCondition: "stable", DialogueProtocol: "SPEAKER_01: ok"},
		},
		{
			name: "camel wins over snake",
			raw: map[string]any{
				"dialogue_protocol": "snake",
				"dialogueProtocol":  "camel",
			},
			want: ReportFields{DialogueProtocol: "camel"},
		},
		{
			name: "empty higher priority falls through",
			raw: map[string]any{
				"dialogueProtocol": "  ",
				"transcript":       "raw transcript",
			},
			want: ReportFields{DialogueProtocol: "raw transcript"},
		},
		{
			name: "dialogue is kept verbatim, other fields trimmed",
			raw: map[string]any{
				"dialogueProtocol": "\nSPEAKER_00: hi\nSPEAKER_01: hello \n",
				"conclusion":       "  healthy ",
			},
			want: ReportFields{DialogueProtocol: "\nSPEAKER_00: hi\nSPEAKER_01: hello \n", Conclusion: "healthy"},
		},
		{
			name: "nested soap object",
			raw: map[string]any{
				"soap":       map[string]any{"subjective": "nested", "plan": "rest"},
				"subjective": "top",
			},
			want: ReportFields{Subjective: "top", Plan: "rest"},
		},
		{
			name: "lists and numbers are stringified",
			raw: map[string]any{
				"recommendations": []any{"sleep", "water"},
				"objective":       12.5,
			},
			want: ReportFields{Recommendations: "sleep\nwater", Objective: "12.5"},
		},
		{
			name: "nil",
			raw:  nil,
			want: ReportFields{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestReportFieldsHelpers(t *testing.T) {
	assert.True(t, ReportFields{}.IsEmpty())
	assert.False(t, ReportFields{Conclusion: "x"}.HasSoap())
	assert.True(t, ReportFields{Plan: "x"}.HasSoap())

	m := ReportFields{Plan: "rest"}.ToMap()
	assert.Equal(t, "rest", m["plan"])
	assert.Equal(t, ReportFields{Plan: "rest"}, Normalize(m))
}
