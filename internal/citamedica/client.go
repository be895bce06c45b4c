package citamedica

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/citamedica/evolution-bridge/pkg/logging"
)

const defaultTimeout = 30 * time.Second

// Config controls how the CitaMedica client behaves.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Client wraps the CitaMedica appointment REST API. It performs no retries:
// a failed call surfaces immediately and the dialogue decides what to do.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	tracer     trace.Tracer
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("citamedica: base URL is required")
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
		httpClient: httpClient,
		logger:     logger,
		tracer:     otel.Tracer("bridge.internal.citamedica"),
	}, nil
}

// Slot is a backend availability entry for a regular appointment grid.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// SlotsResponse is the reply to an availability query.
type SlotsResponse struct {
	Success   bool   `json:"success"`
	Available bool   `json:"available"`
	Slots     []Slot `json:"slots"`
}

// OverbookingEntry is a same-day extra slot the backend offers.
type OverbookingEntry struct {
	SlotLabel      string `json:"slotLabel"`
	SequenceNumber int    `json:"sequenceNumber"`
	DayPeriod      string `json:"dayPeriod"`
}

// OverbookingsResponse is the reply to an overbooking availability query.
type OverbookingsResponse struct {
	Success bool               `json:"success"`
	Entries []OverbookingEntry `json:"entries"`
}

type validateResponse struct {
	Success   bool `json:"success"`
	Available bool `json:"available"`
}

// AvailableSlots lists the backend's slot availability for an ISO date.
func (c *Client) AvailableSlots(ctx context.Context, date string) (*SlotsResponse, error) {
	const op = "available slots"
	if strings.TrimSpace(date) == "" {
		return nil, errors.New("citamedica: date is required")
	}
	data, err := c.invoke(ctx, op, http.MethodGet, "/appointments/available/"+url.PathEscape(date), nil)
	if err != nil {
		return nil, err
	}
	var resp SlotsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("citamedica: decode slots response: %w", err)
	}
	return &resp, nil
}

// AvailableOverbookings lists the backend's overbooking entries for an ISO date.
func (c *Client) AvailableOverbookings(ctx context.Context, date string) (*OverbookingsResponse, error) {
	const op = "available overbookings"
	if strings.TrimSpace(date) == "" {
		return nil, errors.New("citamedica: date is required")
	}
	data, err := c.invoke(ctx, op, http.MethodGet, "/sobreturnos/available/"+url.PathEscape(date), nil)
	if err != nil {
		return nil, err
	}
	var resp OverbookingsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("citamedica: decode overbookings response: %w", err)
	}
	return &resp, nil
}

// ValidateOverbooking re-checks a single overbooking's availability.
func (c *Client) ValidateOverbooking(ctx context.Context, date string, number int) (bool, error) {
	const op = "validate overbooking"
	q := url.Values{}
	q.Set("date", date)
	q.Set("sobreturnoNumber", strconv.Itoa(number))
	data, err := c.invoke(ctx, op, http.MethodGet, "/sobreturnos/validate?"+q.Encode(), nil)
	if err != nil {
		return false, err
	}
	var resp validateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return false, fmt.Errorf("citamedica: decode validate response: %w", err)
	}
	return resp.Available, nil
}

// CreateAppointment books a regular appointment and returns the created record.
func (c *Client) CreateAppointment(ctx context.Context, payload any) (map[string]any, error) {
	return c.create(ctx, "create appointment", "/appointments", payload)
}

// CreateOverbooking books a same-day overbooking and returns the created record.
func (c *Client) CreateOverbooking(ctx context.Context, payload any) (map[string]any, error) {
	return c.create(ctx, "create overbooking", "/sobreturnos", payload)
}

// Health probes the backend's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.invoke(ctx, "health", http.MethodGet, "/health", nil)
	return err
}

func (c *Client) create(ctx context.Context, op, path string, payload any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("citamedica: marshal %s payload: %w", op, err)
	}
	data, err := c.invoke(ctx, op, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	var created map[string]any
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("citamedica: decode %s response: %w", op, err)
	}
	c.logger.Info("citamedica record created", "op", op)
	return created, nil
}

func (c *Client) invoke(ctx context.Context, op, method, path string, body []byte) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "citamedica."+strings.ReplaceAll(op, " ", "_"))
	defer span.End()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("citamedica: build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		c.logger.Error("citamedica request failed", "op", op, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, &Error{Kind: KindUnavailable, Op: op, Detail: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, &Error{Kind: KindUnavailable, Op: op, Detail: "read response: " + err.Error()}
	}

	c.logger.Debug("citamedica response", "op", op, "status", resp.StatusCode, "elapsed_ms", time.Since(start).Milliseconds())

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		apiErr := &Error{Kind: KindValidation, Op: op, Status: resp.StatusCode, Detail: backendDetail(data)}
		span.RecordError(apiErr)
		return nil, apiErr
	default:
		apiErr := &Error{Kind: KindUnavailable, Op: op, Status: resp.StatusCode, Detail: backendDetail(data)}
		span.RecordError(apiErr)
		return nil, apiErr
	}
}

// backendDetail pulls the human-readable message out of an error body. The
// backend uses "message" for appointments and "error" for overbookings.
func backendDetail(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Err     string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return strings.TrimSpace(string(data))
	}
	if body.Message != "" {
		return body.Message
	}
	if body.Err != "" {
		return body.Err
	}
	return strings.TrimSpace(string(data))
}
