package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"DailyDigest/internal/domain"
	"DailyDigest/internal/ports"
)

// Client talks to a self-hosted inference service that exposes POST /generate.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.TextGenerator = (*Client)(nil)

// statusError keeps the HTTP status so failures can be classified.
type statusError struct {
	status int
	text   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.text)
}

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// Generate sends the system instruction and prompt and returns the produced text.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	if c.endpoint == "" {
		return "", &domain.GenerationError{Kind: domain.GenerationUnknown, Err: errors.New("inference endpoint is not configured")}
	}

	payload := map[string]any{
		"system": system,
		"prompt": prompt,
	}

	var resp struct {
		Text string `json:"text"`
	}

	if err := c.post(ctx, "/generate", payload, &resp); err != nil {
		return "", &domain.GenerationError{Kind: classify(err), Err: err}
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", &domain.GenerationError{Kind: domain.GenerationMalformed, Err: errors.New("empty inference response")}
	}
	return text, nil
}

func classify(err error) domain.GenerationFailureKind {
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		switch statusErr.status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.GenerationAuth
		case http.StatusTooManyRequests:
			return domain.GenerationRateLimit
		default:
			return domain.GenerationNetwork
		}
	}
	if strings.Contains(err.Error(), "decode response") {
		return domain.GenerationMalformed
	}
	return domain.GenerationNetwork
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("%w, close body: %v", &statusError{status: resp.StatusCode, text: resp.Status}, closeErr)
		}
		return &statusError{status: resp.StatusCode, text: resp.Status}
	}

	if v == nil {
		if err := resp.Body.Close(); err != nil {
			return fmt.Errorf("close response body: %w", err)
		}
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
