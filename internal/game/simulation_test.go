package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/maze-chase/internal/config"
	"github.com/annel0/maze-chase/internal/entity"
	"github.com/annel0/maze-chase/internal/vec"
	"github.com/annel0/maze-chase/internal/world"
)

type recordingSink struct {
	mu    sync.Mutex
	calls []int
	names []string
}

func (r *recordingSink) RecordScore(name string, score int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	r.calls = append(r.calls, score)
}

type recordingEvents struct {
	events []Event
}

func (r *recordingEvents) PublishEvent(ev Event) { r.events = append(r.events, ev) }

func (r *recordingEvents) count(t EventType) int {
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

type countingMetrics struct {
	nopMetrics
	pellets, captures, deaths, sessions int
}

func (m *countingMetrics) PelletEaten()    { m.pellets++ }
func (m *countingMetrics) GhostCaptured()  { m.captures++ }
func (m *countingMetrics) PlayerDied()     { m.deaths++ }
func (m *countingMetrics) SessionStarted() { m.sessions++ }

var right = Input{Dir: vec.Right}

func testConfig() config.GameConfig {
	cfg := config.DefaultGame()
	cfg.Seed = 1
	cfg.PlayerMoveEvery = 1
	cfg.GhostMoveEvery = 1
	cfg.GhostReleaseBase = 1_000_000
	return cfg
}

func TestSimulation_WinIsRecordedOnce(t *testing.T) {
	grid := world.MustParseGrid([][]int{
		{1, 1, 1, 1, 1, 1, 1},
		{1, 0, 0, 0, 2, 2, 1},
		{1, 1, 1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1, 1, 1},
	})
	sink := &recordingSink{}
	events := &recordingEvents{}
	m := &countingMetrics{}

	sim, err := NewSimulation(testConfig(), WithGrid(grid), WithScoreSink(sink), WithEvents(events),
		WithMetrics(m), WithPlayerName("ann"))
	require.NoError(t, err)
	require.Equal(t, vec.Vec2{X: 3, Y: 1}, sim.Snapshot().Player.Pos)
	assert.Equal(t, PhaseNotStarted, sim.Phase())

	sim.Step(Input{})
	assert.Equal(t, PhaseNotStarted, sim.Phase(), "Без ввода игра не начинается")
	assert.Equal(t, uint64(0), sim.Frame())

	sim.Step(right)
	assert.Equal(t, PhaseActive, sim.Phase())
	assert.Equal(t, 10, sim.Snapshot().Score)

	sim.Step(Input{})
	require.Equal(t, PhaseOver, sim.Phase())
	assert.True(t, sim.Won())

	frame := sim.Frame()
	for i := 0; i < 10; i++ {
		sim.Step(Input{Dir: vec.Left})
	}
	assert.Equal(t, frame, sim.Frame(), "Завершённая сессия не тикает")
	assert.Equal(t, []int{20}, sink.calls, "Счёт записывается ровно один раз")
	assert.Equal(t, []string{"ann"}, sink.names)
	assert.Equal(t, 1, events.count(EventSessionStarted))
	assert.Equal(t, 1, events.count(EventSessionOver))
	assert.Equal(t, 2, m.pellets)
	assert.Equal(t, 1, m.sessions)

	// Сетка исходного шаблона не меняется
	assert.Equal(t, world.Pellet, grid.At(vec.Vec2{X: 4, Y: 1}))

	sim.Reset()
	assert.Equal(t, PhaseNotStarted, sim.Phase())
	assert.Equal(t, 2, sim.Snapshot().Grid.Collectibles(), "Reset начинает новую сессию на копии шаблона")
}

func TestSimulation_SuperModeCapturesGhosts(t *testing.T) {
	grid := world.MustParseGrid([][]int{
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		{1, 0, 0, 0, 0, 0, 0, 0, 3, 0, 1},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		{1, 2, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	})
	cfg := testConfig()
	cfg.GhostReleaseBase = 0
	cfg.GhostReleaseStep = 0
	cfg.GhostMoveEvery = 1000
	cfg.SuperIntroSeconds = 0.1

	events := &recordingEvents{}
	m := &countingMetrics{}
	sim, err := NewSimulation(cfg, WithGrid(grid), WithEvents(events), WithMetrics(m))
	require.NoError(t, err)

	homes := []vec.Vec2{{X: 5, Y: 1}, {X: 4, Y: 1}, {X: 6, Y: 1}, {X: 5, Y: 1}}
	for i, g := range sim.Snapshot().Ghosts {
		assert.Equal(t, homes[i], g.Pos, "Дом призрака %d", i)
		assert.Equal(t, "housed", g.State)
	}

	sim.Step(right)   // (6,1)
	sim.Step(Input{}) // (7,1), призраки выходят
	sim.Step(Input{}) // (8,1) энерджайзер

	snap := sim.Snapshot()
	require.Equal(t, entity.PlayerSuperMode.String(), snap.Player.State)
	assert.Equal(t, 50, snap.Score)
	assert.Equal(t, 3, snap.IntroLeft)
	for _, g := range snap.Ghosts {
		assert.Equal(t, "vulnerable", g.State)
	}
	assert.Equal(t, 1, events.count(EventSuperMode))

	frame := sim.Frame()
	for i := 0; i < 3; i++ {
		sim.Step(Input{})
	}
	assert.Equal(t, frame, sim.Frame(), "Во время заставки кадры не идут")
	assert.Equal(t, 0, sim.Snapshot().IntroLeft)

	sim.Step(Input{Dir: vec.Left}) // (7,1)
	sim.Step(Input{})              // (6,1) Flanker
	assert.Equal(t, 250, sim.Snapshot().Score)
	sim.Step(Input{}) // (5,1) Chaser и Opportunist
	sim.Step(Input{}) // (4,1) Ambusher

	snap = sim.Snapshot()
	assert.Equal(t, 50+4*200, snap.Score)
	for _, g := range snap.Ghosts {
		assert.Equal(t, "captured", g.State)
	}
	assert.Equal(t, 4, events.count(EventGhostCaptured))
	assert.Equal(t, 4, m.captures)
	assert.Equal(t, PhaseActive, snap.Phase)
}

func TestSimulation_DeathsThenGameOver(t *testing.T) {
	grid := world.MustParseGrid([][]int{
		{1, 1, 1, 1, 1, 1, 1},
		{1, 0, 0, 0, 0, 0, 1},
		{1, 1, 1, 1, 1, 1, 1},
		{1, 2, 1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1, 1, 1},
	})
	cfg := testConfig()
	cfg.Lives = 2
	cfg.DeathFrames = 2
	cfg.GhostReleaseBase = 0
	cfg.GhostReleaseStep = 0

	sink := &recordingSink{}
	m := &countingMetrics{}
	sim, err := NewSimulation(cfg, WithGrid(grid), WithScoreSink(sink), WithMetrics(m))
	require.NoError(t, err)
	spawn := sim.Snapshot().Player.Pos

	runUntil := func(phase Phase) {
		for i := 0; i < 200 && sim.Phase() != phase; i++ {
			sim.Step(right)
		}
		require.Equal(t, phase, sim.Phase())
	}

	runUntil(PhasePausedForDeath)
	assert.Equal(t, 2, sim.Lives(), "Жизнь списывается после анимации")
	assert.Equal(t, "dying", sim.Snapshot().Player.State)

	// Во время смерти ввод игнорируется
	sim.Step(Input{Dir: vec.Left})
	assert.Equal(t, PhasePausedForDeath, sim.Phase())

	for i := 0; i < 5 && sim.Phase() == PhasePausedForDeath; i++ {
		sim.Step(Input{})
	}
	require.Equal(t, PhaseNotStarted, sim.Phase())
	assert.Equal(t, 1, sim.Lives())

	snap := sim.Snapshot()
	assert.Equal(t, spawn, snap.Player.Pos)
	assert.Equal(t, vec.Zero, snap.Player.Dir)
	for _, g := range snap.Ghosts {
		assert.Equal(t, "housed", g.State, "После смерти все призраки возвращаются в дом")
	}

	frame := sim.Frame()
	sim.Step(Input{})
	assert.Equal(t, frame, sim.Frame(), "До ввода игра ждёт")

	runUntil(PhaseOver)
	assert.False(t, sim.Won())
	assert.Equal(t, 0, sim.Lives())
	assert.Len(t, sink.calls, 1)
	assert.Equal(t, 2, m.deaths)
	assert.Equal(t, 1, m.sessions, "Повторный старт после смерти не считается новой сессией")
}

func TestSimulation_DeterministicForSeed(t *testing.T) {
	cfg := config.DefaultGame()
	cfg.Seed = 99

	inputs := []Input{right, {Dir: vec.Down}, {Dir: vec.Left}, {Dir: vec.Up}}
	play := func() Snapshot {
		sim, err := NewSimulation(cfg)
		require.NoError(t, err)
		for i := 0; i < 3000 && sim.Phase() != PhaseOver; i++ {
			in := Input{}
			if i%37 == 0 {
				in = inputs[(i/37)%len(inputs)]
			}
			sim.Step(in)
		}
		return sim.Snapshot()
	}

	a, b := play(), play()
	assert.NotEqual(t, a.SessionID, b.SessionID)
	assert.Equal(t, a.Grid.String(), b.Grid.String())
	assert.Equal(t, a.Frame, b.Frame)
	assert.Equal(t, a.Score, b.Score)
	assert.Equal(t, a.Lives, b.Lives)
	assert.Equal(t, a.Player, b.Player)
	assert.Equal(t, a.Ghosts, b.Ghosts)
}

func TestSimulation_GeneratedSessionLayout(t *testing.T) {
	cfg := config.DefaultGame()
	cfg.Seed = 5
	sim, err := NewSimulation(cfg)
	require.NoError(t, err)

	snap := sim.Snapshot()
	assert.Equal(t, 27, snap.Grid.Width())
	assert.Equal(t, 31, snap.Grid.Height())
	assert.True(t, snap.Grid.IsWalkable(snap.Player.Pos))
	require.Len(t, snap.Ghosts, 4)
	for i, g := range snap.Ghosts {
		assert.True(t, snap.Grid.IsWalkable(g.Pos))
		assert.Equal(t, entity.GhostTypes[i], g.GhostType)
	}
	assert.Equal(t, cfg.Lives, snap.Lives)
	assert.Len(t, snap.Actors(), 5)
}

func TestNewSimulation_InvalidConfig(t *testing.T) {
	cfg := config.DefaultGame()
	cfg.FPS = 0
	_, err := NewSimulation(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestSimulation_RunStopsOnAbort(t *testing.T) {
	cfg := testConfig()
	cfg.FPS = 1000
	sim, err := NewSimulation(cfg)
	require.NoError(t, err)

	polls := 0
	in := InputFunc(func() Input {
		polls++
		if polls > 5 {
			return Input{Abort: true}
		}
		return right
	})
	renders := 0
	err = sim.Run(context.Background(), in, RendererFunc(func(Snapshot) { renders++ }))
	assert.NoError(t, err)
	assert.Equal(t, 6, polls)
	assert.Equal(t, 6, renders, "Начальный снимок плюс пять тиков")
}

func TestSimulation_RunStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.FPS = 1000
	sim, err := NewSimulation(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err = sim.Run(ctx, nil, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSimulation_SuperModeFrightensHousedGhosts(t *testing.T) {
	grid := world.MustParseGrid([][]int{
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		{1, 0, 0, 0, 0, 0, 0, 0, 3, 2, 2, 2, 1},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	})
	cfg := testConfig()
	cfg.GhostReleaseBase = 2
	cfg.GhostReleaseStep = 0
	cfg.GhostMoveEvery = 1000

	sim, err := NewSimulation(cfg, WithGrid(grid))
	require.NoError(t, err)
	require.Equal(t, vec.Vec2{X: 6, Y: 1}, sim.Snapshot().Player.Pos)

	sim.Step(right)   // (7,1)
	sim.Step(Input{}) // (8,1) энерджайзер до выхода призраков

	snap := sim.Snapshot()
	require.Equal(t, entity.PlayerSuperMode.String(), snap.Player.State)
	for i, g := range snap.Ghosts {
		assert.Equal(t, "vulnerable", g.State, "Призрак %d пугается прямо в доме", i)
	}

	for i := 0; i < cfg.SuperIntroFrames(); i++ {
		sim.Step(Input{})
	}
	sim.Step(Input{}) // кадр 2
	sim.Step(Input{}) // кадр 3, срок выхода наступил

	snap = sim.Snapshot()
	require.Equal(t, PhaseActive, snap.Phase)
	assert.Equal(t, uint64(4), snap.Frame)
	for i, g := range snap.Ghosts {
		assert.Equal(t, "vulnerable", g.State, "Таймер выхода не делает призрака %d охотником", i)
	}
}

// corridorGrid длинный коридор: дом призраков слева, игрок в середине,
// недостижимая точка не даёт выиграть
func corridorGrid(width int) *world.Grid {
	rows := make([][]int, 5)
	for y := range rows {
		rows[y] = make([]int, width)
		for x := range rows[y] {
			rows[y][x] = int(world.Wall)
		}
	}
	for x := 1; x < width-1; x++ {
		rows[1][x] = int(world.Empty)
	}
	rows[1][2] = int(world.GhostHouse)
	rows[3][1] = int(world.Pellet)
	return world.MustParseGrid(rows)
}

func TestSimulation_ReleaseAndMoveCadence(t *testing.T) {
	cfg := config.DefaultGame()
	cfg.Seed = 3

	sim, err := NewSimulation(cfg, WithGrid(corridorGrid(61)))
	require.NoError(t, err)
	require.Equal(t, vec.Vec2{X: 30, Y: 1}, sim.Snapshot().Player.Pos)

	const wallX = 59
	var (
		releases [2][]uint64
		deaths   []uint64
		epoch    uint64
		life     int
	)

	for i := 0; i < 2000 && len(releases[1]) < len(entity.GhostTypes); i++ {
		before := sim.Snapshot()
		f := before.Frame
		sim.Step(right)
		after := sim.Snapshot()

		for g := range after.Ghosts {
			if before.Ghosts[g].State == "housed" && after.Ghosts[g].State != "housed" {
				releases[life] = append(releases[life], f)
				assert.Len(t, releases[life], g+1, "Призраки выходят по порядку")
			}
		}

		switch {
		case before.Phase == PhasePausedForDeath && after.Phase == PhaseNotStarted:
			epoch = f
			life++
			continue
		case before.Phase == PhasePausedForDeath:
			assert.Equal(t, before.Player.Pos, after.Player.Pos, "Во время смерти игрок стоит")
			for g := range after.Ghosts {
				assert.Equal(t, before.Ghosts[g].Pos, after.Ghosts[g].Pos, "Во время смерти призраки стоят")
			}
			continue
		}
		require.NotEqual(t, PhaseOver, after.Phase)
		if after.Phase == PhasePausedForDeath {
			deaths = append(deaths, f)
		}

		playerMoved := after.Player.Pos != before.Player.Pos
		assert.Equal(t, f%4 == 0 && before.Player.Pos.X < wallX, playerMoved, "Игрок ходит раз в 4 кадра (кадр %d)", f)

		for g := range after.Ghosts {
			moved := after.Ghosts[g].Pos != before.Ghosts[g].Pos
			if moved {
				assert.Zero(t, f%6, "Призрак %d ходит только на кадрах кратных 6 (кадр %d)", g, f)
			}
		}
		if after.Ghosts[0].State == "hunting" && f%6 == 0 {
			assert.NotEqual(t, before.Ghosts[0].Pos, after.Ghosts[0].Pos, "Chaser в коридоре ходит каждый 6-й кадр (кадр %d)", f)
		}
	}

	assert.Equal(t, []uint64{61, 151, 241, 331}, releases[0], "Выход по i*90+60 от начала сессии")
	require.NotEmpty(t, deaths)
	assert.Equal(t, uint64(402), deaths[0], "Chaser проходит 57 клеток по одной за 6 кадров")
	require.Equal(t, 1, life)
	assert.Greater(t, epoch, deaths[0])
	assert.Equal(t, []uint64{epoch + 61, epoch + 151, epoch + 241, epoch + 331}, releases[1],
		"После смерти выход отсчитывается заново от кадра возрождения")
}
