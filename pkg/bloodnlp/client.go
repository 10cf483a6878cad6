// Package bloodnlp forwards lab result files to the blood-marker extraction
// service and normalizes whatever shape it answers with.
package bloodnlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"amanai-be/pkg/apperror"
)

var allowedTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/webp":      true,
}

// AllowedContentType reports whether a file of this type can be forwarded.
func AllowedContentType(contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	return allowedTypes[mediaType]
}

type Marker struct {
	Value      *float64 `json:"value"`
	Unit       string   `json:"unit,omitempty"`
	Status     string   `json:"status,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type Result struct {
	Markers  map[string]Marker `json:"markers"`
	LabName  string            `json:"lab_name,omitempty"`
	TestDate string            `json:"test_date,omitempty"`
}

type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		url:        strings.TrimRight(url, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *Client) Configured() bool {
	return c.url != ""
}

// Extract uploads the file as multipart field "file".
func (c *Client) Extract(ctx context.Context, filename, contentType string, data []byte) (*Result, error) {
	if !c.Configured() {
		return nil, apperror.NotConfigured("BLOOD_NLP_URL not configured")
	}
	if !AllowedContentType(contentType) {
		return nil, apperror.Validation("Invalid file type")
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.ServiceUnavailable("blood extraction service unavailable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.ServiceUnavailable("blood extraction service unavailable", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperror.ServiceUnavailable(
			fmt.Sprintf("blood extraction failed (status %d)", resp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(raw))))
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, apperror.ServiceUnavailable("blood extraction returned invalid response", err)
	}
	return Normalize(decoded), nil
}

// Normalize accepts a marker map or list at the top level or under
// "markers"/"extracted", with snake or camel case keys.
func Normalize(decoded any) *Result {
	out := &Result{Markers: map[string]Marker{}}

	var markers any = decoded
	if obj, ok := decoded.(map[string]any); ok {
		out.LabName = firstString(obj, "lab_name", "labName", "lab")
		out.TestDate = firstString(obj, "test_date", "testDate", "date")
		markers = nil
		for _, key := range []string{"markers", "extracted", "results"} {
			if v, ok := obj[key]; ok {
				markers = v
				break
			}
		}
	}

	switch m := markers.(type) {
	case map[string]any:
		for name, v := range m {
			if fields, ok := v.(map[string]any); ok {
				out.Markers[name] = toMarker(fields)
			} else {
				out.Markers[name] = Marker{Value: toFloat(v)}
			}
		}
	case []any:
		for _, item := range m {
			fields, ok := item.(map[string]any)
			if !ok {
				continue
			}
			name := firstString(fields, "name", "marker", "marker_name", "markerName")
			if name == "" {
				continue
			}
			out.Markers[name] = toMarker(fields)
		}
	}
	return out
}

func toMarker(fields map[string]any) Marker {
	return Marker{
		Value:      toFloat(first(fields, "value", "result")),
		Unit:       firstString(fields, "unit", "units"),
		Status:     firstString(fields, "status", "flag"),
		Confidence: toFloat(first(fields, "confidence", "score")),
	}
}

func first(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func toFloat(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(n), ",", "."), 64)
		if err != nil {
			return nil
		}
		return &f
	}
	return nil
}

// TrackedMarker describes a neuro marker the dashboard follows.
type TrackedMarker struct {
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Unit           string         `json:"unit"`
	ReferenceRange ReferenceRange `json:"reference_range"`
	Relevance      string         `json:"relevance"`
}

type ReferenceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func TrackedMarkers() []TrackedMarker {
	return []TrackedMarker{
		{"Neurofilament Light Chain (NfL)", "Маркер повреждения нейронов", "pg/mL", ReferenceRange{0, 20}, "high"},
		{"Amyloid-beta 42", "Связан с болезнью Альцгеймера", "pg/mL", ReferenceRange{500, 1000}, "high"},
		{"Tau protein", "Маркер нейродегенерации", "pg/mL", ReferenceRange{0, 400}, "high"},
		{"C-Reactive Protein (CRP)", "Маркер воспаления", "mg/L", ReferenceRange{0, 3}, "medium"},
		{"Homocysteine", "Связан с когнитивными нарушениями", "μmol/L", ReferenceRange{5, 15}, "medium"},
	}
}
