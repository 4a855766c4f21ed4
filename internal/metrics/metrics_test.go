package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/maze-chase/internal/game"
)

var _ game.Metrics = (*GameMetrics)(nil)

func TestGameMetrics_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewGameMetrics(reg)

	m.SessionStarted()
	m.TickObserved(time.Millisecond)
	m.TickObserved(2 * time.Millisecond)
	m.PelletEaten()
	m.GhostCaptured()
	m.PlayerDied()
	m.SessionOver(true, 850)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pellets))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.captures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deaths))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.active), "сессия завершена")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessions.WithLabelValues("true")))
	assert.Equal(t, 850.0, testutil.ToFloat64(m.lastScore))
}

func TestGameMetrics_NilSafe(t *testing.T) {
	var m *GameMetrics
	assert.NotPanics(t, func() {
		m.SessionStarted()
		m.TickObserved(time.Second)
		m.PelletEaten()
		m.GhostCaptured()
		m.PlayerDied()
		m.SessionOver(false, 0)
	}, "nil GameMetrics должен молча игнорировать вызовы")
}

func TestRouter_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewGameMetrics(reg)
	m.PelletEaten()

	r := NewRouter("test", reg, reg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "mazechase_game_pellets_eaten_total 1"), "метрика игры в выдаче")
	assert.True(t, strings.Contains(body, "mazechase_http_request_duration_seconds"), "запрос /healthz учтён")
}

func TestProcessSampler_Sample(t *testing.T) {
	reg := prometheus.NewRegistry()
	ps, err := NewProcessSampler(reg, 0)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, ps.interval, "интервал по умолчанию")

	require.NoError(t, ps.Sample())
	assert.Greater(t, testutil.ToFloat64(ps.rss), 0.0, "RSS процесса больше нуля")
}
