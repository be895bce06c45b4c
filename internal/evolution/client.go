package evolution

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

// Config controls how the Evolution API client behaves.
type Config struct {
	BaseURL    string
	APIKey     string
	Instance   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Client sends outbound WhatsApp messages through an Evolution API instance.
type Client struct {
	baseURL    string
	apiKey     string
	instance   string
	httpClient *http.Client
	logger     *logging.Logger
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("evolution: base URL is required")
	}
	instance := strings.TrimSpace(cfg.Instance)
	if instance == "" {
		instance = "citamedica-bot"
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
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		instance:   instance,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// SendText delivers a text message to a WhatsApp recipient. The recipient may
// carry the channel suffix or a leading +; both are stripped for the wire.
func (c *Client) SendText(ctx context.Context, recipient, text string) error {
	return c.SendTextVia(ctx, recipient, text, "")
}

// SendTextVia delivers a text message through a specific instance, falling
// back to the configured one when instance is empty.
func (c *Client) SendTextVia(ctx context.Context, recipient, text, instance string) error {
	if strings.TrimSpace(recipient) == "" {
		return errors.New("evolution: recipient is required")
	}
	if text == "" {
		return errors.New("evolution: message text is required")
	}
	if instance == "" {
		instance = c.instance
	}

	number := strings.TrimSuffix(recipient, "@s.whatsapp.net")
	number = strings.TrimPrefix(number, "+")

	body, err := json.Marshal(struct {
		Number string `json:"number"`
		Text   string `json:"text"`
	}{Number: number, Text: text})
	if err != nil {
		return fmt.Errorf("evolution: marshal send body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/message/sendText/"+instance, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("evolution: build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("evolution: send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("evolution: send message: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	c.logger.Info("whatsapp message sent", "instance", instance, "length", len(text))
	return nil
}
