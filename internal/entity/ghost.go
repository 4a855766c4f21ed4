package entity

import (
	"math"
	"math/rand"

	"github.com/annel0/maze-chase/internal/pathfind"
	"github.com/annel0/maze-chase/internal/vec"
)

// GhostType стратегия выбора цели призраком
type GhostType uint8

const (
	Chaser      GhostType = iota // Преследует игрока напрямую
	Ambusher                     // Целится на несколько клеток вперёд игрока
	Flanker                      // Заходит с другой стороны относительно Chaser
	Opportunist                  // Преследует издалека, вблизи отступает
)

// GhostTypes порядок создания призраков в сессии
var GhostTypes = [4]GhostType{Chaser, Ambusher, Flanker, Opportunist}

// String возвращает строковое представление типа призрака
func (t GhostType) String() string {
	switch t {
	case Chaser:
		return "chaser"
	case Ambusher:
		return "ambusher"
	case Flanker:
		return "flanker"
	case Opportunist:
		return "opportunist"
	default:
		return "unknown"
	}
}

// GhostState поведенческое состояние призрака
type GhostState uint8

const (
	GhostHoused GhostState = iota
	GhostHunting
	GhostVulnerable
	GhostCaptured
)

// String возвращает строковое представление состояния призрака
func (s GhostState) String() string {
	switch s {
	case GhostHoused:
		return "housed"
	case GhostHunting:
		return "hunting"
	case GhostVulnerable:
		return "vulnerable"
	case GhostCaptured:
		return "captured"
	default:
		return "unknown"
	}
}

// Ghost призрак с собственной стратегией цели
type Ghost struct {
	id        int
	kind      GhostType
	pos       vec.Vec2
	home      vec.Vec2
	vulTimer  int
	releaseAt uint64
	phase     float64

	rules Rules
	fsm   *Machine[GhostState]
}

// NewGhost создаёт призрака в доме. home запоминается как точка респауна.
func NewGhost(id int, kind GhostType, home vec.Vec2, releaseAt uint64, rules Rules, rng *rand.Rand) *Ghost {
	g := &Ghost{
		id:        id,
		kind:      kind,
		pos:       home,
		home:      home,
		releaseAt: releaseAt,
		rules:     rules,
	}
	if rng != nil {
		g.phase = rng.Float64() * 2 * math.Pi
	}

	g.fsm = NewMachine(GhostHoused).
		Allow(GhostHoused, GhostHunting, GhostVulnerable).
		Allow(GhostHunting, GhostVulnerable).
		Allow(GhostVulnerable, GhostVulnerable, GhostHunting, GhostCaptured).
		Allow(GhostCaptured, GhostHunting).
		OnEnter(GhostVulnerable, func(GhostState) { g.vulTimer = g.rules.SuperModeDuration }).
		OnEnter(GhostHunting, func(GhostState) { g.vulTimer = 0 }).
		OnEnter(GhostCaptured, func(GhostState) { g.vulTimer = 0 }).
		OnEnter(GhostHoused, func(GhostState) { g.vulTimer = 0 })
	return g
}

// ID возвращает порядковый номер призрака
func (g *Ghost) ID() int { return g.id }

// Type возвращает стратегию призрака
func (g *Ghost) Type() GhostType { return g.kind }

// Position возвращает клетку призрака
func (g *Ghost) Position() vec.Vec2 { return g.pos }

// Home возвращает клетку респауна
func (g *Ghost) Home() vec.Vec2 { return g.home }

// State возвращает текущее состояние
func (g *Ghost) State() GhostState { return g.fsm.Current() }

// VulnerableFor возвращает остаток уязвимости в тиках
func (g *Ghost) VulnerableFor() int { return g.vulTimer }

// ReleaseAt возвращает кадр, после которого призрак выходит из дома
func (g *Ghost) ReleaseAt() uint64 { return g.releaseAt }

// Released возвращает true, если призрак вышел из дома.
// Призраки в доме не двигаются и не участвуют в столкновениях.
func (g *Ghost) Released() bool { return !g.fsm.Is(GhostHoused) }

// Blocking возвращает true, если призрак занимает клетку для других призраков
func (g *Ghost) Blocking() bool {
	s := g.fsm.Current()
	return s != GhostHoused && s != GhostCaptured
}

// Release выпускает призрака из дома
func (g *Ghost) Release() bool {
	return g.fsm.Transition(GhostHunting)
}

// Frighten делает призрака уязвимым со свежим отсчётом.
// Повторный вызов перезапускает отсчёт, а не складывает его.
// Призрак в доме при этом выходит наружу, пойманный не меняется.
func (g *Ghost) Frighten() bool {
	return g.fsm.Transition(GhostVulnerable)
}

// Capture переводит уязвимого призрака в состояние пойманного
func (g *Ghost) Capture() bool {
	return g.fsm.Transition(GhostCaptured)
}

// ReturnHome возвращает призрака в дом с новым временем выхода
func (g *Ghost) ReturnHome(releaseAt uint64) {
	g.pos = g.home
	g.releaseAt = releaseAt
	g.fsm.Force(GhostHoused)
}

// Tick продвигает отсчёт уязвимости
func (g *Ghost) Tick() {
	g.phase = advancePhase(g.phase, 0.25)
	if !g.fsm.Is(GhostVulnerable) {
		return
	}
	g.vulTimer--
	if g.vulTimer <= 0 {
		g.fsm.Transition(GhostHunting)
	}
}

// Step выбирает цель, делает шаг по BFS и разрешает заторы с другими призраками.
// Возвращает true, если призрак сдвинулся.
func (g *Ghost) Step(tc *TickContext) bool {
	if !g.Released() {
		return false
	}

	target := g.Target(tc)
	step := pathfind.NextStep(g.pos, target, tc.Grid)

	if step.IsZero() || g.contested(tc, g.pos.Add(step)) {
		step = g.detour(tc)
	}
	if step.IsZero() {
		return false
	}

	g.pos = g.pos.Add(step)
	if g.fsm.Is(GhostCaptured) && g.pos == g.home {
		g.fsm.Transition(GhostHunting)
	}
	return true
}

// detour перебирает четыре направления в случайном порядке
// и берёт первое проходимое и не занятое другим призраком
func (g *Ghost) detour(tc *TickContext) vec.Vec2 {
	dirs := vec.Neighbours
	if tc.Rng != nil {
		tc.Rng.Shuffle(len(dirs), func(i, j int) { dirs[i], dirs[j] = dirs[j], dirs[i] })
	}
	for _, d := range dirs {
		next := g.pos.Add(d)
		if tc.Grid.IsWalkable(next) && !g.contested(tc, next) {
			return d
		}
	}
	return vec.Zero
}

// contested проверяет, занята ли клетка другим вышедшим и не пойманным призраком.
// Призраки ходят по очереди, поэтому для уже сходивших это их новая клетка.
func (g *Ghost) contested(tc *TickContext, cell vec.Vec2) bool {
	for _, other := range tc.Ghosts {
		if other != g && other.Blocking() && other.pos == cell {
			return true
		}
	}
	return false
}

// Snapshot возвращает представление для рендерера
func (g *Ghost) Snapshot() ActorSnapshot {
	return ActorSnapshot{
		Kind:      KindGhost,
		ID:        g.id,
		Pos:       g.pos,
		State:     g.fsm.Current().String(),
		GhostType: g.kind,
		Countdown: g.vulTimer,
		Phase:     g.phase,
	}
}
