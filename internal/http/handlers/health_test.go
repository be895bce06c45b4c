package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Health(context.Context) error {
	return p.err
}

func TestGetHealth(t *testing.T) {
	h := NewHealthHandler(HealthConfig{Environment: "test"})

	rec := httptest.NewRecorder()
	h.GetHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["environment"])
}

func TestGetStatusHealthy(t *testing.T) {
	h := NewHealthHandler(HealthConfig{
		Backend:      fakePinger{},
		EvolutionURL: "http://evolution:8080",
	})

	rec := httptest.NewRecorder()
	h.GetStatus(rec, httptest.NewRequest(http.MethodGet, "/health/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["overall"])

	services := body["services"].(map[string]any)
	assert.Equal(t, "healthy", services["citamedica"].(map[string]any)["status"])
	assert.Equal(t, "configured", services["evolutionapi"].(map[string]any)["status"])
	assert.Equal(t, "not_configured", services["n8n"].(map[string]any)["status"])
}

func TestGetStatusDegraded(t *testing.T) {
	h := NewHealthHandler(HealthConfig{
		Backend: fakePinger{err: errors.New("connection refused")},
	})

	rec := httptest.NewRecorder()
	h.GetStatus(rec, httptest.NewRequest(http.MethodGet, "/health/status", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["overall"])
}
