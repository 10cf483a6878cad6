package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"amanai-be/pkg/analysis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pageObject = regexp.MustCompile(`/Type /Page[^s]`)

func requireFont(t *testing.T) string {
	t.Helper()
	path := FindSystemFont()
	if path == "" {
		t.Skip("no UTF-8 system font available")
	}
	return path
}

func TestFromFieldsPicksKind(t *testing.T) {
	meta := Meta{ID: "r1"}

	soap := FromFields(meta, analysis.ReportFields{Plan: "rest", Conclusion: "tension headache"})
	assert.Equal(t, KindSoap, soap.Kind())
	assert.Equal(t, "rest", soap.Fields().Plan)
	assert.Equal(t, "tension headache", soap.Fields().Conclusion)

	legacy := FromFields(meta, analysis.ReportFields{GeneralCondition: "stable", Conclusion: "ok"})
	assert.Equal(t, KindLegacy, legacy.Kind())
	assert.Equal(t, analysis.ReportFields{GeneralCondition: "stable", Conclusion: "ok"}, legacy.Fields())
	assert.Equal(t, "r1", legacy.Metadata().ID)
}

func TestSoapReportKeepsSummarySections(t *testing.T) {
	rep := FromFields(Meta{ID: "r1"}, analysis.ReportFields{
		Subjective:       "headache",
		Plan:             "rest",
		GeneralCondition: "satisfactory",
		Conclusion:       "tension headache",
	})
	require.Equal(t, KindSoap, rep.Kind())

	bodies := map[string]string{}
	var titles []string
	for _, s := range rep.sections() {
		bodies[s.Title] = s.Body
		titles = append(titles, s.Title)
	}
	assert.Equal(t, "satisfactory", bodies["General condition"])
	assert.Equal(t, "tension headache", bodies["Conclusion"])
	assert.Equal(t, "Dialogue protocol", titles[len(titles)-1])

	fields := rep.Fields()
	assert.Equal(t, "satisfactory", fields.GeneralCondition)
	assert.Equal(t, "tension headache", fields.Conclusion)
}

func TestContentHashIsStable(t *testing.T) {
	a := ContentHash(analysis.ReportFields{Plan: "rest"})
	b := ContentHash(analysis.ReportFields{Plan: "rest"})
	c := ContentHash(analysis.ReportFields{Plan: "walk"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestPatientInitials(t *testing.T) {
	assert.Equal(t, "А.С.", Patient{Name: "Айгерим Сапарова"}.Initials())
	assert.Equal(t, "J.S.S.", Patient{Name: "John Smith-Smith"}.Initials())
	assert.Equal(t, "", Patient{}.Initials())
}

func TestAssetsCacheAndReset(t *testing.T) {
	dir := t.TempDir()
	fontPath := filepath.Join(dir, "font.ttf")
	require.NoError(t, os.WriteFile(fontPath, []byte("font-bytes"), 0o600))

	a := NewAssets()
	data, err := a.Font(fontPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("font-bytes"), data)

	require.NoError(t, os.Remove(fontPath))
	data, err = a.Font(fontPath)
	require.NoError(t, err, "served from cache")
	assert.Equal(t, []byte("font-bytes"), data)

	a.Reset()
	_, err = a.Font(fontPath)
	assert.True(t, errors.Is(err, ErrFontUnavailable))

	assert.Nil(t, a.Logo(""))
	assert.Nil(t, a.Logo(filepath.Join(dir, "missing.png")))
	assert.Same(t, DefaultAssets(), DefaultAssets())
}

func TestRenderFailsWithoutFont(t *testing.T) {
	r := NewRenderer(RendererConfig{FontPath: filepath.Join(t.TempDir(), "none.ttf")}, NewAssets())
	err := r.Render(&bytes.Buffer{}, FromFields(Meta{}, analysis.ReportFields{Plan: "x"}))
	assert.True(t, errors.Is(err, ErrFontUnavailable))
}

func TestRenderSoapReport(t *testing.T) {
	font := requireFont(t)
	r := NewRenderer(RendererConfig{
		FontPath:      font,
		LogoPath:      filepath.Join(t.TempDir(), "no-logo.png"),
		PublicBaseURL: "https://amanai.kz/",
		Now:           func() time.Time { return time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC) },
	}, NewAssets())

	rep := FromFields(Meta{ID: "rep-1", Patient: Patient{Name: "Айгерим Сапарова", Doctor: "Д-р Иванов"}},
		analysis.ReportFields{
			Subjective:       "Головная боль три дня",
			Plan:             "Покой, МРТ",
			DialogueProtocol: "SPEAKER_00: Что беспокоит?\nSPEAKER_01: Болит голова",
		})

	out, err := r.RenderBytes(rep)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Len(t, pageObject.FindAll(out, -1), 1)
	assert.Equal(t, "https://amanai.kz/verify/rep-1", r.VerifyURL("rep-1"))
}

func TestRenderBreaksLongSectionsAcrossPages(t *testing.T) {
	font := requireFont(t)
	r := NewRenderer(RendererConfig{FontPath: font}, NewAssets())

	long := strings.Repeat("SPEAKER_00: Как давно появились симптомы?\nSPEAKER_01: Около недели, болит голова.\n", 60)
	rep := FromFields(Meta{}, analysis.ReportFields{Conclusion: "ok", DialogueProtocol: long})

	out, err := r.RenderBytes(rep)
	require.NoError(t, err)
	assert.Greater(t, len(pageObject.FindAll(out, -1)), 1)
}
