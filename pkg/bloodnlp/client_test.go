package bloodnlp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"amanai-be/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestNormalizeMarkerMap(t *testing.T) {
	res := Normalize(decode(t, `{"labName":"Invivo","test_date":"2026-01-10","markers":{"hemoglobin":{"value":"135,5","unit":"g/L","status":"normal","confidence":0.9}}}`))

	assert.Equal(t, "Invivo", res.LabName)
	assert.Equal(t, "2026-01-10", res.TestDate)
	m := res.Markers["hemoglobin"]
	require.NotNil(t, m.Value)
	assert.Equal(t, 135.5, *m.Value)
	assert.Equal(t, "g/L", m.Unit)
	assert.Equal(t, 0.9, *m.Confidence)
}

func TestNormalizeMarkerList(t *testing.T) {
	res := Normalize(decode(t, `[{"name":"CRP","value":2.1,"units":"mg/L","flag":"normal"},{"value":1},{"marker":"ferritin","value":null}]`))

	require.Len(t, res.Markers, 2)
	assert.Equal(t, 2.1, *res.Markers["CRP"].Value)
	assert.Equal(t, "mg/L", res.Markers["CRP"].Unit)
	assert.Equal(t, "normal", res.Markers["CRP"].Status)
	assert.Nil(t, res.Markers["ferritin"].Value)
}

func TestAllowedContentType(t *testing.T) {
	assert.True(t, AllowedContentType("application/pdf"))
	assert.True(t, AllowedContentType("image/JPEG; charset=binary"))
	assert.False(t, AllowedContentType("text/plain"))
}

func TestExtractForwardsFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "lab.pdf", hdr.Filename)
		assert.Equal(t, "application/pdf", hdr.Header.Get("Content-Type"))
		assert.Equal(t, []byte("%PDF"), data)
		_, _ = w.Write([]byte(`{"extracted":{"glucose":{"value":5.2,"unit":"mmol/L"}}}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL).Extract(context.Background(), "lab.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, 5.2, *res.Markers["glucose"].Value)
}

func TestExtractErrors(t *testing.T) {
	_, err := NewClient("").Extract(context.Background(), "a.pdf", "application/pdf", nil)
	assert.True(t, errors.Is(err, apperror.ErrNotConfigured))

	_, err = NewClient("http://127.0.0.1:1").Extract(context.Background(), "a.txt", "text/plain", nil)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.Equal(t, "Invalid file type", apperror.MessageOf(err))
}

func TestTrackedMarkers(t *testing.T) {
	markers := TrackedMarkers()
	require.Len(t, markers, 5)
	assert.Equal(t, "Neurofilament Light Chain (NfL)", markers[0].Name)
	assert.Equal(t, ReferenceRange{Min: 5, Max: 15}, markers[4].ReferenceRange)
}
