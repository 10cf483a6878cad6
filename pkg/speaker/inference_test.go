package speaker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferMedicalVersusSymptomSpeaker(t *testing.T) {
	lines := []Line{
		{SpeakerID: "SPEAKER_01", Text: "Болит голова, тошнит, слабость и кашель."},
		{SpeakerID: "SPEAKER_00", Text: "Назначу препарат, нужен анализ, рецепт и осмотр."},
	}

	stats := Analyze(lines)
	require.Len(t, stats, 2)
	assert.Equal(t, 5, stats[0].SymptomMentions)
	assert.Equal(t, 0, stats[0].MedicalTerms)
	assert.Equal(t, 5, stats[1].MedicalTerms)
	assert.Equal(t, 0, stats[1].SymptomMentions)
	assert.Equal(t, 10, stats[0].PatientScore())
	assert.Equal(t, -5, stats[1].PatientScore())

	roles := Infer(lines)
	assert.Equal(t, map[string]Role{
		"SPEAKER_00": RoleProvider,
		"SPEAKER_01": RolePatient,
	}, roles)
}

func TestInferSingleSpeaker(t *testing.T) {
	roles := Infer([]Line{{SpeakerID: "SPEAKER_00", Text: "Болит голова"}})

	assert.Equal(t, map[string]Role{"SPEAKER_00": RoleProvider}, roles)
}

func TestInferNoSpeakers(t *testing.T) {
	assert.Empty(t, Infer(nil))
	assert.Empty(t, Infer([]Line{{SpeakerID: "", Text: "noise"}}))
}

func TestInferTieBreaksByFirstAppearance(t *testing.T) {
	lines := []Line{
		{SpeakerID: "SPEAKER_02", Text: "hello"},
		{SpeakerID: "SPEAKER_00", Text: "hello"},
		{SpeakerID: "SPEAKER_01", Text: "hello"},
	}

	for i := 0; i < 20; i++ {
		roles := Infer(lines)
		assert.Equal(t, RoleProvider, roles["SPEAKER_02"])
		assert.Equal(t, RolePatient, roles["SPEAKER_00"])
		assert.Equal(t, RoleOther, roles["SPEAKER_01"])
	}
}

func TestInferQuestionsCountTowardProvider(t *testing.T) {
	lines := ParseDialogue("SPEAKER_00: Как вы себя чувствуете?\nSPEAKER_01: Болит голова")

	stats := Analyze(lines)
	require.Len(t, stats, 2)
	assert.Equal(t, 1, stats[0].Questions)
	assert.Equal(t, 1, stats[0].ProviderScore())
	assert.Equal(t, 2, stats[1].SymptomMentions)
	assert.Equal(t, -2, stats[1].ProviderScore())

	assert.Equal(t, map[string]Role{
		"SPEAKER_00": RoleProvider,
		"SPEAKER_01": RolePatient,
	}, Infer(lines))
}

func TestLexiconShortWordsMatchExactly(t *testing.T) {
	assert.True(t, medicalLexicon.matches("кт"))
	assert.False(t, medicalLexicon.matches("кто"))
	assert.True(t, medicalLexicon.matches("диагнозом"))
}

func TestSpeakersFirstAppearance(t *testing.T) {
	lines := []Line{
		{SpeakerID: "SPEAKER_01"},
		{SpeakerID: "SPEAKER_00"},
		{SpeakerID: "SPEAKER_01"},
	}
	assert.Equal(t, []string{"SPEAKER_01", "SPEAKER_00"}, Speakers(lines))
}
