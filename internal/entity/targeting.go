package entity

import (
	"github.com/annel0/maze-chase/internal/pathfind"
	"github.com/annel0/maze-chase/internal/vec"
	"github.com/annel0/maze-chase/internal/world"
)

// Target возвращает клетку, к которой призрак идёт в этом тике
func (g *Ghost) Target(tc *TickContext) vec.Vec2 {
	player := tc.Player.Position()

	switch g.fsm.Current() {
	case GhostCaptured:
		return g.home
	case GhostVulnerable:
		return pathfind.NearestWalkable(tc.Grid, farthestCorner(tc.Grid, player))
	}

	switch g.kind {
	case Ambusher:
		ahead := player.Add(tc.Player.Direction().Scale(g.rules.AmbushLookahead))
		return pathfind.NearestWalkable(tc.Grid, ahead)

	case Flanker:
		chaser := tc.Chaser()
		if chaser == nil || chaser == g {
			return pathfind.NearestWalkable(tc.Grid, player)
		}
		// Отражаем Chaser относительно игрока: клещи с двух сторон
		mirrored := player.Add(player.Sub(chaser.pos))
		return pathfind.NearestWalkable(tc.Grid, mirrored)

	case Opportunist:
		if g.pos.Manhattan(player) > g.rules.OpportunistRadius {
			return pathfind.NearestWalkable(tc.Grid, player)
		}
		return pathfind.NearestWalkable(tc.Grid, vec.Vec2{X: 1, Y: tc.Grid.Height() - 2})

	default:
		return pathfind.NearestWalkable(tc.Grid, player)
	}
}

// corners внутренние углы сетки в фиксированном порядке
func corners(g world.View) [4]vec.Vec2 {
	w, h := g.Width(), g.Height()
	return [4]vec.Vec2{
		{X: 1, Y: 1},
		{X: w - 2, Y: 1},
		{X: 1, Y: h - 2},
		{X: w - 2, Y: h - 2},
	}
}

// farthestCorner выбирает угол, наиболее удалённый от игрока по Манхэттену.
// При равенстве берётся первый в порядке corners.
func farthestCorner(g world.View, player vec.Vec2) vec.Vec2 {
	cs := corners(g)
	best := cs[0]
	bestDist := best.Manhattan(player)
	for _, c := range cs[1:] {
		if d := c.Manhattan(player); d > bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
