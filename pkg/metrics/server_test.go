package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMux_Metrics(t *testing.T) {
	ClassifiedTotal.WithLabelValues("hold").Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	NewMux().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `irrelay_classified_events_total{kind="hold"}`))
	assert.True(t, strings.Contains(body, "irrelay_subscribers"))
}

func TestNewMux_Ready(t *testing.T) {
	resetHealth()
	registerPipeline()

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	NewMux().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
