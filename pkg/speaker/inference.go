// Package speaker assigns conversational roles to diarized speaker tags using
// lexical cues in their utterances.
package speaker

import (
	"sort"
	"strings"
	"unicode"
)

type Role string

const (
	RoleProvider Role = "Provider"
	RolePatient  Role = "Patient"
	RoleOther    Role = "Other"
)

func (r Role) Valid() bool {
	switch r {
	case RoleProvider, RolePatient, RoleOther:
		return true
	}
	return false
}

// Line is one diarized utterance.
type Line struct {
	SpeakerID string `json:"speakerId"`
	Text      string `json:"text"`
}

// Stats are the per-speaker counters the role scores are derived from.
type Stats struct {
	SpeakerID       string
	FirstIndex      int
	Words           int
	MedicalTerms    int
	Questions       int
	SymptomMentions int
}

func (s Stats) ProviderScore() int {
	return s.MedicalTerms*2 + s.Questions - s.SymptomMentions
}

// PatientScore is reported for diagnostics; ordering uses ProviderScore only.
func (s Stats) PatientScore() int {
	return s.SymptomMentions*2 - s.MedicalTerms
}

// Analyze accumulates Stats per speaker, in first-appearance order.
func Analyze(lines []Line) []Stats {
	index := make(map[string]int)
	var stats []Stats

	for i, line := range lines {
		if line.SpeakerID == "" {
			continue
		}
		pos, ok := index[line.SpeakerID]
		if !ok {
			pos = len(stats)
			index[line.SpeakerID] = pos
			stats = append(stats, Stats{SpeakerID: line.SpeakerID, FirstIndex: i})
		}

		tokens := tokenize(line.Text)
		s := &stats[pos]
		s.Words += len(tokens)
		s.MedicalTerms += medicalLexicon.count(tokens)
		s.SymptomMentions += symptomLexicon.count(tokens)
		s.Questions += strings.Count(line.Text, "?")
	}

	return stats
}

// Infer maps each speaker to a role. The highest provider score is Provider, the
// second is Patient and the rest are Other; ties keep first-appearance order.
func Infer(lines []Line) map[string]Role {
	ranked := Analyze(lines)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ProviderScore() > ranked[j].ProviderScore()
	})

	roles := make(map[string]Role, len(ranked))
	for i, s := range ranked {
		switch i {
		case 0:
			roles[s.SpeakerID] = RoleProvider
		case 1:
			roles[s.SpeakerID] = RolePatient
		default:
			roles[s.SpeakerID] = RoleOther
		}
	}
	return roles
}

// Speakers lists distinct speaker ids in first-appearance order.
func Speakers(lines []Line) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, line := range lines {
		if line.SpeakerID == "" {
			continue
		}
		if _, ok := seen[line.SpeakerID]; ok {
			continue
		}
		seen[line.SpeakerID] = struct{}{}
		out = append(out, line.SpeakerID)
	}
	return out
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
