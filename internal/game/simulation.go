// Package game содержит игровой цикл: тайминги движения, столкновения,
// условия победы и поражения и жизненный цикл сессии.
//
// Simulation однопоточна. Step вызывается из одной горутины, наружу
// состояние уходит только через Snapshot.
package game

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/annel0/maze-chase/internal/config"
	"github.com/annel0/maze-chase/internal/entity"
	"github.com/annel0/maze-chase/internal/logging"
	"github.com/annel0/maze-chase/internal/observability"
	"github.com/annel0/maze-chase/internal/pathfind"
	"github.com/annel0/maze-chase/internal/vec"
	"github.com/annel0/maze-chase/internal/world"
)

// Simulation владеет сеткой и всеми сущностями сессии
type Simulation struct {
	cfg   config.GameConfig
	rules entity.Rules
	seed  int64
	rng   *rand.Rand
	name  string

	template *world.Grid // Фиксированный лабиринт вместо генерации
	grid     *world.Grid
	player   *entity.Player
	ghosts   []*entity.Ghost
	spawn    vec.Vec2

	sessionID    string
	phase        Phase
	won          bool
	started      bool
	recorded     bool
	lives        int
	frame        uint64
	releaseEpoch uint64
	introLeft    int

	scores  ScoreSink
	events  EventPublisher
	metrics Metrics
	log     *logging.Logger
}

// Option настраивает Simulation
type Option func(*Simulation)

// WithSeed фиксирует seed генератора случайных чисел
func WithSeed(seed int64) Option {
	return func(s *Simulation) { s.seed = seed }
}

// WithGrid использует готовый лабиринт. Каждая сессия получает свою копию.
func WithGrid(g *world.Grid) Option {
	return func(s *Simulation) { s.template = g.Clone() }
}

// WithPlayerName задаёт имя для таблицы рекордов
func WithPlayerName(name string) Option {
	return func(s *Simulation) { s.name = name }
}

// WithScoreSink подключает таблицу рекордов
func WithScoreSink(sink ScoreSink) Option {
	return func(s *Simulation) {
		if sink != nil {
			s.scores = sink
		}
	}
}

// WithEvents подключает публикацию событий
func WithEvents(pub EventPublisher) Option {
	return func(s *Simulation) {
		if pub != nil {
			s.events = pub
		}
	}
}

// WithMetrics подключает метрики
func WithMetrics(m Metrics) Option {
	return func(s *Simulation) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger задаёт логгер
func WithLogger(l *logging.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.log = l
		}
	}
}

// RulesFromConfig переносит игровые константы в правила сущностей
func RulesFromConfig(cfg config.GameConfig) entity.Rules {
	return entity.Rules{
		SuperModeDuration: cfg.SuperModeFrames,
		DeathDuration:     cfg.DeathFrames,
		PelletScore:       cfg.PelletScore,
		PowerPelletScore:  cfg.PowerPelletScore,
		CaptureBonus:      cfg.CaptureBonus,
		AmbushLookahead:   cfg.AmbushLookahead,
		OpportunistRadius: cfg.OpportunistRadius,
	}
}

// NewSimulation проверяет конфигурацию и начинает первую сессию
func NewSimulation(cfg config.GameConfig, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new simulation: %w", err)
	}

	s := &Simulation{
		cfg:     cfg,
		rules:   RulesFromConfig(cfg),
		name:    "player",
		scores:  nopScores{},
		events:  nopEvents{},
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.seed == 0 {
		s.seed = cfg.GetSeed()
	}
	if s.log == nil {
		s.log = logging.GetGameLogger()
	}
	s.rng = rand.New(rand.NewSource(s.seed))

	s.newSession()
	return s, nil
}

// Seed возвращает seed сессии. Вместе с конфигурацией и входами он полностью определяет игру.
func (s *Simulation) Seed() int64 { return s.seed }

// Config возвращает конфигурацию сессии
func (s *Simulation) Config() config.GameConfig { return s.cfg }

// PlayerName возвращает имя игрока
func (s *Simulation) PlayerName() string { return s.name }

// Phase возвращает текущую фазу
func (s *Simulation) Phase() Phase { return s.phase }

// Frame возвращает номер кадра
func (s *Simulation) Frame() uint64 { return s.frame }

// Lives возвращает оставшиеся жизни
func (s *Simulation) Lives() int { return s.lives }

// Won возвращает результат завершённой сессии
func (s *Simulation) Won() bool { return s.won }

// Reset начинает новую сессию. Генератор случайных чисел продолжает последовательность.
func (s *Simulation) Reset() {
	s.newSession()
}

func (s *Simulation) newSession() {
	if s.template != nil {
		s.grid = s.template.Clone()
	} else {
		gen := world.NewGenerator(s.cfg.Rows, s.cfg.Cols, s.rng)
		gen.PowerPelletChance = s.cfg.PowerPelletChance
		s.grid = gen.Generate()
	}

	s.sessionID = uuid.NewString()
	s.phase = PhaseNotStarted
	s.won = false
	s.started = false
	s.recorded = false
	s.lives = s.cfg.Lives
	s.frame = 0
	s.releaseEpoch = 0
	s.introLeft = 0

	s.spawn = pathfind.NearestWalkable(s.grid, vec.Vec2{X: s.grid.Width() / 2, Y: s.grid.Height() - 5})
	s.player = entity.NewPlayer(s.spawn, s.rules, s.rng)

	house, ok := s.grid.Find(world.GhostHouse)
	if !ok {
		house = pathfind.NearestWalkable(s.grid, s.grid.Center())
	}
	homes := [4]vec.Vec2{
		house,
		house.Sub(vec.Vec2{X: 1}),
		house.Add(vec.Vec2{X: 1}),
		house.Sub(vec.Vec2{Y: 1}),
	}

	s.ghosts = s.ghosts[:0]
	for i, kind := range entity.GhostTypes {
		home := pathfind.NearestWalkable(s.grid, homes[i])
		s.ghosts = append(s.ghosts, entity.NewGhost(i, kind, home, s.releaseAt(i), s.rules, s.rng))
	}

	s.log.Debug("🧩 Новая сессия %s: лабиринт %dx%d, точек %d, seed=%d",
		s.sessionID, s.grid.Width(), s.grid.Height(), s.grid.Collectibles(), s.seed)
}

// releaseAt кадр, после которого призрак i выходит из дома
func (s *Simulation) releaseAt(i int) uint64 {
	return s.releaseEpoch + uint64(s.cfg.GhostReleaseBase+i*s.cfg.GhostReleaseStep)
}

// Step выполняет один тик
func (s *Simulation) Step(in Input) {
	s.applyInput(in)

	if s.phase == PhaseOver {
		return
	}
	if s.introLeft > 0 {
		s.introLeft--
		return
	}

	switch s.phase {
	case PhasePausedForDeath:
		s.stepDeath()
	case PhaseActive:
		s.stepActive()
	default:
		return
	}

	s.frame++
}

func (s *Simulation) applyInput(in Input) {
	if in.Dir.IsZero() || s.phase == PhaseOver || s.phase == PhasePausedForDeath {
		return
	}
	if !s.player.TrySetDirection(in.Dir, s.grid) {
		return
	}
	if s.phase == PhaseNotStarted {
		s.phase = PhaseActive
		if !s.started {
			s.started = true
			s.metrics.SessionStarted()
			s.publish(Event{Type: EventSessionStarted})
			s.log.Info("🎮 Сессия %s началась (игрок %s)", s.sessionID, s.name)
		}
	}
}

func (s *Simulation) stepActive() {
	if s.frame%uint64(s.cfg.PlayerMoveEvery) == 0 {
		switch s.player.Move(s.grid) {
		case entity.MovePellet:
			s.metrics.PelletEaten()
		case entity.MoveSuperMode:
			s.metrics.PelletEaten()
			s.enterSuperMode()
		}
	}

	for _, g := range s.ghosts {
		if !g.Released() && s.frame > g.ReleaseAt() {
			g.Release()
			s.log.Debug("👻 %s вышел из дома на кадре %d", g.Type(), s.frame)
		}
	}

	for _, a := range s.actors() {
		a.Tick()
	}

	if s.frame%uint64(s.cfg.GhostMoveEvery) == 0 {
		tc := &entity.TickContext{
			Frame:  s.frame,
			Grid:   s.grid,
			Player: s.player,
			Ghosts: s.ghosts,
			Rng:    s.rng,
		}
		for _, g := range s.ghosts {
			g.Step(tc)
		}
	}

	s.resolveCollisions()

	if s.phase == PhaseActive && !s.grid.HasCollectibles() {
		s.finish(true)
	}
}

// enterSuperMode пугает призраков сразу и ставит короткую паузу
func (s *Simulation) enterSuperMode() {
	for _, g := range s.ghosts {
		g.Frighten()
	}
	s.introLeft = s.cfg.SuperIntroFrames()
	s.publish(Event{Type: EventSuperMode})
}

// resolveCollisions проверяет призраков в клетке игрока.
// Первое смертельное столкновение прекращает проверку.
func (s *Simulation) resolveCollisions() {
	pos := s.player.Position()
	for _, g := range s.ghosts {
		if !g.Released() || g.Position() != pos {
			continue
		}

		switch g.State() {
		case entity.GhostCaptured:
			continue
		case entity.GhostVulnerable:
			g.Capture()
			s.player.AddScore(s.rules.CaptureBonus)
			s.metrics.GhostCaptured()
			s.publish(Event{Type: EventGhostCaptured, GhostID: g.ID(), GhostType: g.Type().String()})
		default:
			s.player.StartDying()
			s.phase = PhasePausedForDeath
			s.metrics.PlayerDied()
			s.publish(Event{Type: EventPlayerDied, GhostID: g.ID(), GhostType: g.Type().String()})
			s.log.Info("💀 Игрок пойман призраком %s на кадре %d", g.Type(), s.frame)
			return
		}
	}
}

func (s *Simulation) stepDeath() {
	s.player.Tick()
	if !s.player.DeathComplete() {
		return
	}

	s.lives--
	if s.lives <= 0 {
		s.finish(false)
		return
	}

	s.player.Respawn(s.spawn)
	s.releaseEpoch = s.frame
	for i, g := range s.ghosts {
		g.ReturnHome(s.releaseAt(i))
	}
	s.phase = PhaseNotStarted
	s.log.Info("❤️ Осталось жизней: %d", s.lives)
}

// finish завершает сессию и один раз отправляет счёт
func (s *Simulation) finish(won bool) {
	s.phase = PhaseOver
	s.won = won
	if s.recorded {
		return
	}
	s.recorded = true

	score := s.player.Score()
	s.scores.RecordScore(s.name, score)
	s.metrics.SessionOver(won, score)
	s.publish(Event{Type: EventSessionOver, Won: won})

	if won {
		s.log.Info("🏆 Победа! Сессия %s, счёт %d", s.sessionID, score)
	} else {
		s.log.Info("🛑 Игра окончена. Сессия %s, счёт %d", s.sessionID, score)
	}
}

func (s *Simulation) publish(ev Event) {
	ev.SessionID = s.sessionID
	ev.Frame = s.frame
	ev.Score = s.player.Score()
	ev.Lives = s.lives
	s.events.PublishEvent(ev)
}

// Run крутит цикл с фиксированным шагом до отмены ctx или сигнала Abort.
// Остановка происходит только между тиками.
func (s *Simulation) Run(ctx context.Context, in InputSource, r Renderer) error {
	ctx, span := observability.Tracer("game").Start(ctx, "game.session")
	defer func() {
		span.SetAttributes(
			attribute.String("session.id", s.sessionID),
			attribute.Int("session.score", s.player.Score()),
			attribute.Int64("session.frames", int64(s.frame)),
			attribute.Bool("session.won", s.won),
		)
		span.End()
	}()

	ticker := time.NewTicker(s.cfg.TickInterval())
	defer ticker.Stop()

	if r != nil {
		r.Render(s.Snapshot())
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		var input Input
		if in != nil {
			input = in.Poll()
		}
		if input.Abort {
			s.log.Info("⏹️ Сессия %s прервана", s.sessionID)
			return nil
		}

		start := time.Now()
		s.Step(input)
		s.metrics.TickObserved(time.Since(start))

		if r != nil {
			r.Render(s.Snapshot())
		}
	}
}
