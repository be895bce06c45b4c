package webhook

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citamedica/evolution-bridge/internal/dispatch"
)

type captureEnqueuer struct {
	msgs []*Message
	err  error
}

func (e *captureEnqueuer) Enqueue(msg *Message) error {
	if e.err != nil {
		return e.err
	}
	e.msgs = append(e.msgs, msg)
	return nil
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandleMessageAcknowledgesAndEnqueues(t *testing.T) {
	enq := &captureEnqueuer{}
	h := NewHandler(HandlerConfig{Enqueuer: enq})

	rec := postJSON(t, h.HandleMessage, `{
		"instance": "main",
		"data": {
			"message": {
				"key": {"remoteJid": "5491122334455@s.whatsapp.net", "id": "ABC"},
				"conversation": "hola"
			}
		}
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.NotEmpty(t, resp["timestamp"])

	require.Len(t, enq.msgs, 1)
	assert.Equal(t, "5491122334455@s.whatsapp.net", enq.msgs[0].SenderID)
	assert.Equal(t, "hola", enq.msgs[0].Text)
}

func TestHandleMessageIgnoresNonText(t *testing.T) {
	enq := &captureEnqueuer{}
	h := NewHandler(HandlerConfig{Enqueuer: enq})

	rec := postJSON(t, h.HandleMessage, `{
		"data": {
			"message": {
				"key": {"remoteJid": "5491122334455@s.whatsapp.net"},
				"imageMessage": {"url": "https://example.com/a.jpg"}
			}
		}
	}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, enq.msgs)
}

func TestHandleMessageIgnoresUnknownShapes(t *testing.T) {
	enq := &captureEnqueuer{}
	h := NewHandler(HandlerConfig{Enqueuer: enq})

	rec := postJSON(t, h.HandleMessage, `{"event": "connection.update", "data": {"state": "open"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, enq.msgs)
}

func TestHandleMessageRejectsBadJSON(t *testing.T) {
	h := NewHandler(HandlerConfig{Enqueuer: &captureEnqueuer{}})

	rec := postJSON(t, h.HandleMessage, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleMessageQueueFull(t *testing.T) {
	h := NewHandler(HandlerConfig{Enqueuer: &captureEnqueuer{err: dispatch.ErrQueueFull}})

	rec := postJSON(t, h.HandleMessage, `{"from": "a@s.whatsapp.net", "body": "hola"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHandleMessageShuttingDown(t *testing.T) {
	h := NewHandler(HandlerConfig{Enqueuer: &captureEnqueuer{err: dispatch.ErrClosed}})

	rec := postJSON(t, h.HandleMessage, `{"from": "a@s.whatsapp.net", "body": "hola"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleEvent(t *testing.T) {
	h := NewHandler(HandlerConfig{Enqueuer: &captureEnqueuer{}})

	rec := postJSON(t, h.HandleEvent, `{"event": "instance.status", "instance": "main", "data": {}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}
