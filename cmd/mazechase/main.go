package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/annel0/maze-chase/internal/autopilot"
	"github.com/annel0/maze-chase/internal/config"
	"github.com/annel0/maze-chase/internal/eventbus"
	"github.com/annel0/maze-chase/internal/game"
	"github.com/annel0/maze-chase/internal/logging"
	"github.com/annel0/maze-chase/internal/metrics"
	"github.com/annel0/maze-chase/internal/observability"
	"github.com/annel0/maze-chase/internal/replay"
	"github.com/annel0/maze-chase/internal/score"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (defaults to $MAZE_CONFIG)")
		name       = flag.String("name", "player", "Player name for the score table (1-12 chars)")
		seed       = flag.Int64("seed", 0, "Maze seed, 0 means config or $MAZE_SEED or time")
		replayOut  = flag.String("replay-out", "", "Write a replay of the session to this file")
		serveStats = flag.Bool("metrics", false, "Expose Prometheus metrics while playing")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if *seed != 0 {
		cfg.Game.Seed = *seed
	}

	logging.GetLoggerManager().Configure(logging.ParseLevel(cfg.Log.Level), cfg.Log.ToFile)
	if err := logging.InitDefaultLogger("mazechase"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	// Отмена по сигналу останавливает цикл на границе тика
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *name, *replayOut, *serveStats); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 Игра завершена")
}

func run(ctx context.Context, cfg *config.Config, name, replayOut string, serveStats bool) error {
	shutdown, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		logging.Warn("⚠️ Телеметрия отключена: %v", err)
	} else {
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = shutdown(sctx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	gameMetrics := metrics.NewGameMetrics(reg)

	if serveStats {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.GetAddr(), reg); err != nil {
				logging.Error("❌ Metrics server: %v", err)
			}
		}()
		sampler, err := metrics.NewProcessSampler(reg, time.Duration(cfg.Metrics.SampleSeconds)*time.Second)
		if err != nil {
			logging.Warn("⚠️ Метрики процесса недоступны: %v", err)
		} else {
			go sampler.Run(ctx)
		}
	}

	bus := openBus(cfg.EventBus)
	eventbus.Init(bus)
	defer bus.Close()
	exporter := eventbus.NewMetricsExporter(bus, reg)
	exporter.Start()
	defer exporter.Stop()
	if _, err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("⚠️ LoggingListener: %v", err)
	}

	store, err := score.Open(ctx, cfg.Scores)
	if err != nil {
		return fmt.Errorf("open score store: %w", err)
	}
	defer store.Close()
	scores := score.NewAsyncRecorder(store, cfg.Scores.QueueSize, cfg.Scores.Timeout())
	defer scores.Close()

	events := eventbus.NewGamePublisher(bus, "mazechase")
	defer events.Close()

	sim, err := game.NewSimulation(cfg.Game,
		game.WithPlayerName(name),
		game.WithScoreSink(scores),
		game.WithEvents(events),
		game.WithMetrics(gameMetrics),
	)
	if err != nil {
		return err
	}

	pilot := autopilot.New()
	gate := &stopWhenOver{src: pilot}
	input := replay.NewRecorder(gate)
	view := newLogRenderer(logging.GetGameLogger(), cfg.Game.FPS)

	logging.Info("🎮 Старт: лабиринт %dx%d, seed=%d, игрок %q", cfg.Game.Cols, cfg.Game.Rows, sim.Seed(), name)

	err = sim.Run(ctx, input, game.RendererFunc(func(s game.Snapshot) {
		pilot.Render(s)
		gate.Render(s)
		view.Render(s)
	}))
	if errors.Is(err, context.Canceled) {
		logging.Info("📡 Получен сигнал завершения, игра остановлена")
		err = nil
	}
	if err != nil {
		return err
	}

	if replayOut != "" {
		if err := replay.SaveFile(replayOut, input.Recording(sim)); err != nil {
			logging.Error("❌ Не удалось сохранить запись: %v", err)
		}
	}

	// Close дожидается записи итогового счёта
	if err := scores.Close(); err != nil {
		logging.Warn("⚠️ %v", err)
	}
	stats := scores.Stats()
	logging.Debug("Рекорды: сохранено %d, ошибок %d, отброшено %d", stats.Saved, stats.Failed, stats.Dropped)

	qctx, cancel := context.WithTimeout(context.Background(), cfg.Scores.Timeout())
	defer cancel()
	top, err := store.Top(qctx, 5)
	if err != nil {
		logging.Warn("⚠️ Таблица рекордов недоступна: %v", err)
		return nil
	}
	for i, e := range top {
		logging.Info("🏆 %d. %-12s %6d", i+1, e.Name, e.Score)
	}
	return nil
}

// openBus подключает JetStream, если задан URL, иначе шину в памяти
func openBus(cfg config.EventBusConfig) eventbus.EventBus {
	url := cfg.GetURL()
	if url == "" {
		return eventbus.NewMemoryBus(256)
	}
	bus, err := eventbus.NewJetStreamBus(url, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
	if err != nil {
		logging.Warn("⚠️ NATS недоступен (%v), используем шину в памяти", err)
		return eventbus.NewMemoryBus(256)
	}
	logging.Info("📨 Шина событий: JetStream %s", url)
	return bus
}

// stopWhenOver отдаёт Abort после первого снимка завершённой сессии
type stopWhenOver struct {
	src  game.InputSource
	over atomic.Bool
}

func (s *stopWhenOver) Render(snap game.Snapshot) {
	if snap.Over() {
		s.over.Store(true)
	}
}

func (s *stopWhenOver) Poll() game.Input {
	if s.over.Load() {
		return game.Input{Abort: true}
	}
	return s.src.Poll()
}
