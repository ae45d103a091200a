// Package semantic talks to an external image-text classification service
// (a CLIP-style model behind HTTP). The client satisfies
// direction.Classifier and is only registered when the service answers its
// health check.
package semantic

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 512
)

// Config captures the settings required to reach the classifier.
type Config struct {
	BaseURL        string
	TimeoutSeconds int
}

// Client calls the classifier service.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient constructs a classifier client. BaseURL is required.
func NewClient(cfg Config) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, errors.New("semantic client: base url required")
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type classifyRequest struct {
	Image  string   `json:"image"`
	Labels []string `json:"labels"`
}

type classifyResponse struct {
	Probabilities []float64 `json:"probabilities"`
	Error         string    `json:"error,omitempty"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("classifier: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Classify sends img as a base64 PNG together with the labels and returns the
// softmax probability of each label.
func (c *Client) Classify(ctx context.Context, img image.Image, labels []string) ([]float64, error) {
	if len(labels) == 0 {
		return nil, errors.New("classify: labels required")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("classify: encode image: %w", err)
	}
	body, err := json.Marshal(classifyRequest{
		Image:  base64.StdEncoding.EncodeToString(buf.Bytes()),
		Labels: labels,
	})
	if err != nil {
		return nil, fmt.Errorf("classify: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("classify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	var parsed classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("classify: decode response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("classify: %s", parsed.Error)
	}
	if len(parsed.Probabilities) != len(labels) {
		return nil, fmt.Errorf("classify: got %d probabilities for %d labels", len(parsed.Probabilities), len(labels))
	}
	return parsed.Probabilities, nil
}

// Ping checks the service health endpoint. It is the start-up capability
// probe for the semantic direction method.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("ping: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}
