package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/citamedica/evolution-bridge/pkg/logging"
)

const defaultTimeout = 30 * time.Second

// Config controls how the n8n trigger client behaves.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Client fires n8n workflow webhooks. Triggers are best effort: callers treat
// failures as log-only and never surface them to the user.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("workflow: base URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}, nil
}

// Trigger posts the payload to the webhook at eventPath, stamping timestamp
// and source. eventPath may be a bare path ("appointment-created") or a full
// URL, which is used as-is.
func (c *Client) Trigger(ctx context.Context, eventPath string, payload map[string]any) error {
	if strings.TrimSpace(eventPath) == "" {
		return errors.New("workflow: event path is required")
	}

	body := map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"source":    "evolution-bridge",
	}
	for k, v := range payload {
		body[k] = v
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("workflow: marshal trigger payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL(eventPath), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("workflow: build trigger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("workflow: trigger %s: %w", eventPath, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("workflow: trigger %s: status %d", eventPath, resp.StatusCode)
	}

	c.logger.Info("workflow triggered", "path", eventPath)
	return nil
}

func (c *Client) webhookURL(eventPath string) string {
	if strings.HasPrefix(eventPath, "http://") || strings.HasPrefix(eventPath, "https://") {
		return eventPath
	}
	return c.baseURL + "/webhook/" + strings.TrimPrefix(eventPath, "/")
}
