package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/citamedica/evolution-bridge/internal/dispatch"
	"github.com/citamedica/evolution-bridge/internal/observability/metrics"
	"github.com/citamedica/evolution-bridge/pkg/logging"
)

// Enqueuer accepts an extracted message for asynchronous processing.
// Implemented by processor.Processor.
type Enqueuer interface {
	Enqueue(msg *Message) error
}

// Handler terminates Evolution API webhook deliveries.
type Handler struct {
	enqueuer Enqueuer
	metrics  *metrics.BridgeMetrics
	logger   *logging.Logger
}

// HandlerConfig wires the handler's collaborators.
type HandlerConfig struct {
	Enqueuer Enqueuer
	Metrics  *metrics.BridgeMetrics
	Logger   *logging.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Handler{
		enqueuer: cfg.Enqueuer,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
}

// HandleMessage receives an inbound WhatsApp message delivery. The
// delivery is acknowledged as soon as the message is queued; Evolution
// retries on anything but a 2xx, so processing must not hold the request.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	msg, err := ParseMessage(body)
	if err != nil {
		if errors.Is(err, ErrNoText) || errors.Is(err, ErrUnrecognized) {
			// Media, reactions, and unknown shapes are acknowledged and
			// dropped so Evolution does not redeliver them.
			h.logger.Info("ignoring non-text delivery", "reason", err)
			h.metrics.ObserveInbound("ignored")
			h.respondAccepted(w)
			return
		}
		h.logger.Warn("undecodable webhook payload", "error", err)
		h.metrics.ObserveInbound("invalid")
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := h.enqueuer.Enqueue(msg); err != nil {
		switch {
		case errors.Is(err, dispatch.ErrQueueFull):
			h.logger.Warn("sender queue full, dropping message", "sender", msg.SenderID)
			http.Error(w, "too many pending messages", http.StatusTooManyRequests)
		case errors.Is(err, dispatch.ErrClosed):
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
		default:
			h.logger.Error("failed to enqueue message", "sender", msg.SenderID, "error", err)
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}

	h.respondAccepted(w)
}

// HandleEvent receives non-message Evolution events (connection state,
// instance status). They are logged and acknowledged.
func (h *Handler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var evt struct {
		Event    string          `json:"event"`
		Instance string          `json:"instance"`
		Data     json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	h.logger.Info("evolution event", "event", evt.Event, "instance", evt.Instance)
	h.respondAccepted(w)
}

func (h *Handler) respondAccepted(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":   true,
		"message":   "Mensaje recibido",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
