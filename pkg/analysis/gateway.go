// Package analysis submits finished recordings to the analysis WebSocket and
// turns the terminal result into report fields and labelled dialogue.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"amanai-be/pkg/apperror"
	"amanai-be/pkg/speaker"

	"github.com/gorilla/websocket"
)

const (
	StatusCompleted  = "completed"
	StatusError      = "error"
	StatusProcessing = "processing"

	defaultReadTimeout = 3 * time.Minute
	writeWait          = 30 * time.Second
)

// Outcome is what a completed analysis yields to the caller.
type Outcome struct {
	Fields        ReportFields
	Lines         []speaker.Line
	Speakers      []string
	SpeakerLabels map[string]speaker.Role
	Language      string
	Raw           map[string]any
}

// Message is the wire shape of every frame the analysis service sends.
type Message struct {
	Status   string         `json:"status"`
	Result   map[string]any `json:"result,omitempty"`
	Message  string         `json:"message,omitempty"`
	Stage    string         `json:"stage,omitempty"`
	Language string         `json:"language,omitempty"`
}

type Config struct {
	URL         string
	Header      http.Header
	ReadTimeout time.Duration
	Dialer      *websocket.Dialer
}

// Gateway opens one socket per Analyze call. It never retries.
type Gateway struct {
	cfg Config
}

func NewGateway(cfg Config) *Gateway {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	return &Gateway{cfg: cfg}
}

// BuildURL turns an http(s) base into the ws(s) analyze endpoint.
func BuildURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("invalid analysis url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported analysis url scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws/analyze"
	}
	return u.String(), nil
}

// Analyze sends blob as a single binary frame and waits for the terminal message.
func (g *Gateway) Analyze(ctx context.Context, blob []byte) (*Outcome, error) {
	if len(blob) == 0 {
		return nil, apperror.Validation("empty recording")
	}

	conn, _, err := g.cfg.Dialer.DialContext(ctx, g.cfg.URL, g.cfg.Header)
	if err != nil {
		return nil, apperror.ServiceUnavailable("service unavailable", err)
	}

	var closeOnce sync.Once
	closeConn := func() { closeOnce.Do(func() { _ = conn.Close() }) }
	defer closeConn()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.BinaryMessage, blob); err != nil {
		return nil, g.transportError(ctx, err)
	}

	for {
		_ = conn.SetReadDeadline(time.Now().Add(g.cfg.ReadTimeout))
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return nil, g.transportError(ctx, err)
		}
		if kind != websocket.TextMessage {
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Status {
		case StatusCompleted:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return BuildOutcome(msg.Result, msg.Language), nil
		case StatusError:
			message := strings.TrimSpace(msg.Message)
			if message == "" {
				return nil, apperror.ServiceUnavailable("analysis failed", nil)
			}
			return nil, apperror.NewUserFacing(apperror.KindServiceUnavailable, message)
		}
	}
}

func (g *Gateway) transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return apperror.ServiceUnavailable("service unavailable", err)
}

// BuildOutcome normalizes a completed result and labels its dialogue.
func BuildOutcome(result map[string]any, language string) *Outcome {
	fields := Normalize(result)
	lines := speaker.ParseDialogue(fields.DialogueProtocol)
	return &Outcome{
		Fields:        fields,
		Lines:         lines,
		Speakers:      speaker.Speakers(lines),
		SpeakerLabels: speaker.Infer(lines),
		Language:      language,
		Raw:           result,
	}
}

// IsServiceUnavailable reports whether err is a transport-level failure.
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, apperror.ErrServiceUnavailable)
}
