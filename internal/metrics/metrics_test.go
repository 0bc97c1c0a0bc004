package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObserveVendor("search", time.Now(), nil)
	m.ObserveVendor("llm", time.Now(), errors.New("boom"))
	m.AppendConflict()
	m.MaskedFailure()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `miniplex_vendor_calls_total{outcome="ok",vendor="search"} 1`)
	assert.Contains(t, text, `miniplex_vendor_calls_total{outcome="error",vendor="llm"} 1`)
	assert.Contains(t, text, "miniplex_append_conflicts_total 1")
	assert.Contains(t, text, "miniplex_chat_masked_failures_total 1")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveVendor("search", time.Now(), nil)
	m.AppendConflict()
	m.MaskedFailure()
	m.RateLimited()
	assert.NotNil(t, m.Handler())
}
