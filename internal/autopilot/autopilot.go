// Package autopilot управляет игроком без клавиатуры.
//
// Автопилот получает снимки как Renderer и отвечает на опрос как InputSource.
// Решение принимается по последнему снимку: преследовать близкого уязвимого
// призрака, иначе идти к ближайшей точке в обход охотящихся призраков.
package autopilot

import (
	"sync"

	"github.com/annel0/maze-chase/internal/entity"
	"github.com/annel0/maze-chase/internal/game"
	"github.com/annel0/maze-chase/internal/pathfind"
	"github.com/annel0/maze-chase/internal/vec"
	"github.com/annel0/maze-chase/internal/world"
)

var (
	stateHunting    = entity.GhostHunting.String()
	stateVulnerable = entity.GhostVulnerable.String()
)

// Autopilot безопасен для вызова Render и Poll из разных горутин
type Autopilot struct {
	// ChaseRadius максимальная длина пути до уязвимого призрака, за которым стоит гнаться
	ChaseRadius int
	// DangerRadius клетки ближе этого расстояния до охотника считаются занятыми
	DangerRadius int

	mu   sync.Mutex
	last *game.Snapshot
}

// New создаёт автопилот с настройками по умолчанию
func New() *Autopilot {
	return &Autopilot{ChaseRadius: 6, DangerRadius: 1}
}

// Render реализует game.Renderer
func (a *Autopilot) Render(s game.Snapshot) {
	a.mu.Lock()
	a.last = &s
	a.mu.Unlock()
}

// Poll реализует game.InputSource
func (a *Autopilot) Poll() game.Input {
	a.mu.Lock()
	last := a.last
	a.mu.Unlock()

	if last == nil {
		return game.Input{}
	}
	return game.Input{Dir: a.Decide(*last)}
}

// Decide выбирает направление по снимку. Нулевой вектор означает «ничего не менять».
func (a *Autopilot) Decide(s game.Snapshot) vec.Vec2 {
	if s.Grid == nil || s.Phase == game.PhaseOver || s.Phase == game.PhasePausedForDeath {
		return vec.Zero
	}

	pos := s.Player.Pos
	hunters := make([]vec.Vec2, 0, len(s.Ghosts))
	var prey []vec.Vec2
	for _, g := range s.Ghosts {
		switch g.State {
		case stateHunting:
			hunters = append(hunters, g.Pos)
		case stateVulnerable:
			prey = append(prey, g.Pos)
		}
	}

	view := newMaskedView(s.Grid, pos, hunters, a.DangerRadius)

	if dir := a.chase(s.Grid, view, pos, prey); !dir.IsZero() {
		return dir
	}

	target, ok := pathfind.NearestMatching(view, pos, func(p vec.Vec2) bool {
		k := s.Grid.At(p)
		return k == world.Pellet || k == world.PowerPellet
	})
	if ok {
		if dir := pathfind.NextStep(pos, target, view); !dir.IsZero() {
			return dir
		}
	}

	return flee(s.Grid, pos, hunters)
}

// chase ведёт к ближайшему по пути уязвимому призраку в пределах ChaseRadius
func (a *Autopilot) chase(g world.View, view world.View, pos vec.Vec2, prey []vec.Vec2) vec.Vec2 {
	best, bestDist := vec.Zero, a.ChaseRadius+1
	for _, p := range prey {
		d, ok := pathfind.Distance(g, pos, p)
		if !ok || d == 0 || d >= bestDist {
			continue
		}
		if step := pathfind.NextStep(pos, p, view); !step.IsZero() {
			best, bestDist = step, d
		}
	}
	return best
}

// flee выбирает соседнюю клетку, максимально удалённую от ближайшего охотника.
// Шаги, сокращающие это расстояние, не рассматриваются.
func flee(g world.View, pos vec.Vec2, hunters []vec.Vec2) vec.Vec2 {
	if len(hunters) == 0 {
		return vec.Zero
	}
	best, bestScore := vec.Zero, nearest(pos, hunters)-1
	for _, d := range vec.Neighbours {
		nb := pos.Add(d)
		if !g.IsWalkable(nb) {
			continue
		}
		score := nearest(nb, hunters)
		if score > bestScore {
			best, bestScore = d, score
		}
	}
	return best
}

func nearest(p vec.Vec2, points []vec.Vec2) int {
	min := -1
	for _, q := range points {
		if d := p.Manhattan(q); min < 0 || d < min {
			min = d
		}
	}
	return min
}

// maskedView сетка, где клетки рядом с охотниками считаются стенами.
// Клетка игрока всегда проходима, иначе поиск не стартует.
type maskedView struct {
	world.View
	self    vec.Vec2
	blocked map[vec.Vec2]bool
}

func newMaskedView(g world.View, self vec.Vec2, hunters []vec.Vec2, radius int) *maskedView {
	mv := &maskedView{View: g, self: self, blocked: make(map[vec.Vec2]bool)}
	for _, h := range hunters {
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				p := h.Add(vec.Vec2{X: dx, Y: dy})
				if p.Manhattan(h) <= radius {
					mv.blocked[p] = true
				}
			}
		}
	}
	return mv
}

func (mv *maskedView) IsWalkable(p vec.Vec2) bool {
	if p == mv.self {
		return mv.View.IsWalkable(p)
	}
	return !mv.blocked[p] && mv.View.IsWalkable(p)
}
