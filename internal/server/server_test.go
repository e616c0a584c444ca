package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestLivenessHandler(t *testing.T) {
	tests := []struct {
		name       string
		dead       bool
		wantCode   int
		wantStatus string
	}{
		{"alive", false, http.StatusOK, "alive"},
		{"dead", true, http.StatusServiceUnavailable, "not alive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewStatusChecker()
			if tt.dead {
				checker.MarkDead()
			}

			w := httptest.NewRecorder()
			LivenessHandler(checker, testLogger())(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			body := gjson.ParseBytes(w.Body.Bytes())
			assert.Equal(t, tt.wantStatus, body.Get("status").String())
			_, err := time.Parse(time.RFC3339, body.Get("timestamp").String())
			assert.NoError(t, err)
		})
	}
}

func TestReadinessHandler(t *testing.T) {
	checker := NewStatusChecker("consumer", "sink")
	checker.SetReady("sink", true)
	handler := ReadinessHandler(checker, testLogger())

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := gjson.ParseBytes(w.Body.Bytes())
	assert.Equal(t, "not ready", body.Get("status").String())
	assert.Equal(t, "not ready", body.Get("checks.consumer").String())
	assert.Equal(t, "ready", body.Get("checks.sink").String())

	checker.SetReady("consumer", true)
	w = httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", gjson.GetBytes(w.Body.Bytes(), "status").String())
}

func TestServer_StartServeShutdown(t *testing.T) {
	registry := prometheus.NewRegistry()
	promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "test_events_total",
		Help: "test counter",
	}).Add(3)

	checker := NewStatusChecker("sink")
	checker.SetReady("sink", true)

	srv := NewServer(0, 0, checker, registry, testLogger())
	assert.Nil(t, srv.HealthAddr())
	require.NoError(t, srv.Start())

	resp, err := http.Get("http://" + srv.HealthAddr().String() + "/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get("http://" + srv.MetricsAddr().String() + "/metrics")
	require.NoError(t, err)
	metrics, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "test_events_total 3")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	_, err = http.Get("http://" + srv.HealthAddr().String() + "/health/live")
	assert.Error(t, err)
}

func TestServer_StartPortInUse(t *testing.T) {
	first := NewServer(0, 0, NewStatusChecker(), prometheus.NewRegistry(), testLogger())
	require.NoError(t, first.Start())
	defer first.Shutdown(context.Background())

	_, port, err := splitPort(first.HealthAddr().String())
	require.NoError(t, err)

	second := NewServer(port, 0, NewStatusChecker(), prometheus.NewRegistry(), testLogger())
	assert.Error(t, second.Start())
}

func splitPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	return host, port, err
}

func TestServer_MetricsDisabled(t *testing.T) {
	srv := NewServer(0, 0, NewStatusChecker(), nil, testLogger())
	require.NoError(t, srv.Start())

	assert.NotNil(t, srv.HealthAddr())
	assert.Nil(t, srv.MetricsAddr())
	assert.NoError(t, srv.Shutdown(context.Background()))
}
