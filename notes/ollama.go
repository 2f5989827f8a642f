package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultModel   = "llama3.1:8b"
	DefaultBaseURL = "http://127.0.0.1:11434/api"
)

// OllamaClient calls the Ollama generate endpoint with streaming disabled.
type OllamaClient struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	MaxRetries uint64
	// InitialBackoff is the first retry delay; it doubles up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	System string `json:"system,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// NewOllamaClient builds a client with default retry settings.
// Empty arguments fall back to DefaultBaseURL and DefaultModel.
func NewOllamaClient(baseURL, model string) *OllamaClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &OllamaClient{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		Model:          model,
		HTTPClient:     &http.Client{Timeout: 60 * time.Second},
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
	}
}

// Generate posts the prompt and returns the trimmed response text.
// Transport errors and 408/429/5xx responses are retried with exponential
// backoff; other non-2xx responses fail immediately.
func (c *OllamaClient) Generate(ctx context.Context, prompt, system string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.Model,
		Prompt: prompt,
		Stream: false,
		System: system,
	})
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}
	url := c.BaseURL + "/generate"

	var text string
	attempt := 0
	op := func() error {
		attempt++
		if attempt > 1 {
			log.Printf("INFO: Retrying note generation (attempt %d, model %s)", attempt, c.Model)
		}
		out, err := c.post(ctx, url, body)
		if err != nil {
			return err
		}
		text = out
		return nil
	}

	if err := backoff.Retry(op, c.policy(ctx)); err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return text, nil
}

func (c *OllamaClient) post(ctx context.Context, url string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", backoff.Permanent(ctx.Err())
		}
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		if retryableStatus(resp.StatusCode) {
			return "", err
		}
		return "", backoff.Permanent(err)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return strings.TrimSpace(out.Response), nil
}

func (c *OllamaClient) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if c.InitialBackoff > 0 {
		exp.InitialInterval = c.InitialBackoff
	}
	if c.MaxBackoff > 0 {
		exp.MaxInterval = c.MaxBackoff
	}
	exp.MaxElapsedTime = 0 // bounded by MaxRetries and ctx
	return backoff.WithContext(backoff.WithMaxRetries(exp, c.MaxRetries), ctx)
}

func (c *OllamaClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return code >= 500
}
