package encounter

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

// API is the set of encounter endpoints the Manager drives.
type API interface {
	Create(ctx context.Context, state State) (*Encounter, error)
	Active(ctx context.Context) (*Encounter, error)
	Get(ctx context.Context, id string) (*Encounter, error)
	List(ctx context.Context, statuses ...Status) ([]Encounter, error)
	Pause(ctx context.Context, id string, state State) (*Encounter, error)
	Resume(ctx context.Context, id string) (*Encounter, error)
	Complete(ctx context.Context, id string) (*Encounter, error)
	Cancel(ctx context.Context, id string) (*Encounter, error)
	AppendMessage(ctx context.Context, id string, msg MessageInput) (*Encounter, error)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client talks to /api/encounters as one user.
type Client struct {
	baseURL    string
	userID     string
	token      string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(baseURL, userID string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userID:     userID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Create(ctx context.Context, state State) (*Encounter, error) {
	return c.encounter(ctx, http.MethodPost, "/api/encounters", map[string]any{"state": state})
}

func (c *Client) Active(ctx context.Context) (*Encounter, error) {
	return c.encounter(ctx, http.MethodGet, "/api/encounters/active", nil)
}

func (c *Client) Get(ctx context.Context, id string) (*Encounter, error) {
	return c.encounter(ctx, http.MethodGet, "/api/encounters/"+url.PathEscape(id), nil)
}

func (c *Client) List(ctx context.Context, statuses ...Status) ([]Encounter, error) {
	q := url.Values{}
	for _, s := range statuses {
		q.Add("status", string(s))
	}
	path := "/api/encounters"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []Encounter
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Pause(ctx context.Context, id string, state State) (*Encounter, error) {
	return c.encounter(ctx, http.MethodPost, "/api/encounters/"+url.PathEscape(id)+"/pause", map[string]any{"state": state})
}

func (c *Client) Resume(ctx context.Context, id string) (*Encounter, error) {
	return c.encounter(ctx, http.MethodPost, "/api/encounters/"+url.PathEscape(id)+"/resume", nil)
}

func (c *Client) Complete(ctx context.Context, id string) (*Encounter, error) {
	return c.encounter(ctx, http.MethodPost, "/api/encounters/"+url.PathEscape(id)+"/complete", nil)
}

func (c *Client) Cancel(ctx context.Context, id string) (*Encounter, error) {
	return c.encounter(ctx, http.MethodPost, "/api/encounters/"+url.PathEscape(id)+"/cancel", nil)
}

func (c *Client) AppendMessage(ctx context.Context, id string, msg MessageInput) (*Encounter, error) {
	return c.encounter(ctx, http.MethodPost, "/api/encounters/"+url.PathEscape(id)+"/messages", msg)
}

func (c *Client) encounter(ctx context.Context, method, path string, body any) (*Encounter, error) {
	var out Encounter
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID != "" {
		req.Header.Set("X-User-Id", c.userID)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.ServiceUnavailable("encounter service unavailable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperror.ServiceUnavailable("encounter service unavailable", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= http.StatusBadRequest {
		message := env.Message
		if decodeErr != nil || message == "" {
			message = strings.TrimSpace(string(raw))
		}
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return apperror.New(apperror.FromHTTPStatus(resp.StatusCode), message)
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}
