package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mazechase"

// GameMetrics собирает счётчики игровых сессий.
// Нулевой указатель допустим: все методы становятся no-op.
type GameMetrics struct {
	ticks        prometheus.Counter
	tickDuration prometheus.Histogram
	sessions     *prometheus.CounterVec
	active       prometheus.Gauge
	pellets      prometheus.Counter
	captures     prometheus.Counter
	deaths       prometheus.Counter
	lastScore    prometheus.Gauge
}

// NewGameMetrics создаёт метрики и регистрирует их в reg
func NewGameMetrics(reg prometheus.Registerer) *GameMetrics {
	gm := &GameMetrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "ticks_total",
			Help:      "Количество обработанных тиков симуляции.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "tick_duration_seconds",
			Help:      "Длительность одного тика симуляции.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "sessions_total",
			Help:      "Завершённые сессии по результату.",
		}, []string{"won"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "sessions_active",
			Help:      "Сессии, которые ещё не завершились.",
		}),
		pellets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "pellets_eaten_total",
			Help:      "Съеденные точки и энергетики.",
		}),
		captures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "ghosts_captured_total",
			Help:      "Пойманные уязвимые призраки.",
		}),
		deaths: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "player_deaths_total",
			Help:      "Смерти игрока.",
		}),
		lastScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "last_score",
			Help:      "Счёт последней завершённой сессии.",
		}),
	}

	reg.MustRegister(gm.ticks, gm.tickDuration, gm.sessions, gm.active,
		gm.pellets, gm.captures, gm.deaths, gm.lastScore)
	return gm
}

func (m *GameMetrics) SessionStarted() {
	if m == nil {
		return
	}
	m.active.Inc()
}

func (m *GameMetrics) TickObserved(d time.Duration) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.tickDuration.Observe(d.Seconds())
}

func (m *GameMetrics) PelletEaten() {
	if m == nil {
		return
	}
	m.pellets.Inc()
}

func (m *GameMetrics) GhostCaptured() {
	if m == nil {
		return
	}
	m.captures.Inc()
}

func (m *GameMetrics) PlayerDied() {
	if m == nil {
		return
	}
	m.deaths.Inc()
}

func (m *GameMetrics) SessionOver(won bool, score int) {
	if m == nil {
		return
	}
	m.active.Dec()
	m.sessions.WithLabelValues(strconv.FormatBool(won)).Inc()
	m.lastScore.Set(float64(score))
}
