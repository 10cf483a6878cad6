// Package stt is a client for SpeechKit-style speech recognition: one
// synchronous request, falling back to operation polling when the provider
// answers with a long-running operation.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"amanai-be/pkg/apperror"
)

const (
	DefaultRecognizeURL = "https://stt.api.cloud.yandex.net/speech/v1/stt:recognize"
	DefaultOperationURL = "https://operation.api.cloud.yandex.net/operations"
	DefaultLanguage     = "ru-RU"

	defaultPollInterval = time.Second
	defaultMaxAttempts  = 30
)

type Config struct {
	APIKey       string
	FolderID     string
	RecognizeURL string
	OperationURL string
	PollInterval time.Duration
	MaxAttempts  int
	HTTPClient   *http.Client
}

type Client struct {
	cfg Config
}

type recognizeResponse struct {
	Result       string `json:"result"`
	ID           string `json:"id"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

type operationResponse struct {
	ID       string `json:"id"`
	Done     bool   `json:"done"`
	Response struct {
		Chunks []struct {
			Alternatives []struct {
				Text string `json:"text"`
			} `json:"alternatives"`
			ChannelTag string `json:"channelTag"`
		} `json:"chunks"`
	} `json:"response"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewClient(cfg Config) *Client {
	if cfg.RecognizeURL == "" {
		cfg.RecognizeURL = DefaultRecognizeURL
	}
	if cfg.OperationURL == "" {
		cfg.OperationURL = DefaultOperationURL
	}
	cfg.OperationURL = strings.TrimRight(cfg.OperationURL, "/")
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{cfg: cfg}
}

func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// Recognize returns the transcript of audio in lang (default ru-RU).
func (c *Client) Recognize(ctx context.Context, audio []byte, lang string) (string, error) {
	if !c.Configured() {
		return "", apperror.NotConfigured("speech recognition is not configured")
	}
	if len(audio) == 0 {
		return "", apperror.Validation("audio is empty")
	}
	if lang == "" {
		lang = DefaultLanguage
	}

	q := url.Values{}
	q.Set("lang", lang)
	if c.cfg.FolderID != "" {
		q.Set("folderId", c.cfg.FolderID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RecognizeURL+"?"+q.Encode(), bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var resp recognizeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", apperror.ServiceUnavailable("speech recognition returned invalid response", err)
	}
	if resp.ErrorCode != "" || resp.ErrorMessage != "" {
		return "", apperror.ServiceUnavailable(strings.TrimSpace(resp.ErrorCode+" "+resp.ErrorMessage), nil)
	}
	if resp.ID != "" && resp.Result == "" {
		return c.poll(ctx, resp.ID)
	}
	return strings.TrimSpace(resp.Result), nil
}

func (c *Client) poll(ctx context.Context, operationID string) (string, error) {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.OperationURL+"/"+url.PathEscape(operationID), nil)
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		body, err := c.do(req)
		if err != nil {
			return "", err
		}

		var op operationResponse
		if err := json.Unmarshal(body, &op); err != nil {
			return "", apperror.ServiceUnavailable("speech recognition returned invalid response", err)
		}
		if op.Error != nil {
			return "", apperror.ServiceUnavailable(op.Error.Message, nil)
		}
		if !op.Done {
			continue
		}

		var parts []string
		for _, chunk := range op.Response.Chunks {
			if len(chunk.Alternatives) > 0 && chunk.Alternatives[0].Text != "" {
				parts = append(parts, chunk.Alternatives[0].Text)
			}
		}
		return strings.Join(parts, " "), nil
	}

	return "", apperror.ServiceUnavailable("speech recognition timed out", nil)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Api-Key "+c.cfg.APIKey)

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperror.ServiceUnavailable("speech recognition unavailable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.ServiceUnavailable("speech recognition unavailable", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperror.ServiceUnavailable(fmt.Sprintf("speech recognition error (status %d)", resp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(body))))
	}
	return body, nil
}
