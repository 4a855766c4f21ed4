// Package pathfind содержит поиск в ширину по сетке лабиринта.
// Все функции чистые: состояние поиска не переживает вызов.
package pathfind

import (
	"github.com/annel0/maze-chase/internal/vec"
	"github.com/annel0/maze-chase/internal/world"
)

// NextStep возвращает первый шаг кратчайшего пути от start к target.
// Соседи обходятся в порядке vec.Neighbours, поэтому среди равных путей выбор воспроизводим.
// Если start == target или цель недостижима, возвращается vec.Zero.
func NextStep(start, target vec.Vec2, g world.View) vec.Vec2 {
	if start == target || !g.InBounds(start) {
		return vec.Zero
	}

	prev := map[vec.Vec2]vec.Vec2{start: start}
	queue := []vec.Vec2{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, d := range vec.Neighbours {
			nb := cur.Add(d)
			if _, seen := prev[nb]; seen || !g.IsWalkable(nb) {
				continue
			}
			prev[nb] = cur

			if nb == target {
				// Идём по цепочке предков до клетки, соседней со стартом
				step := nb
				for prev[step] != start {
					step = prev[step]
				}
				return step.Sub(start)
			}
			queue = append(queue, nb)
		}
	}

	return vec.Zero
}

// NearestWalkable возвращает ближайшую проходимую клетку к p.
// Поиск идёт наружу через стены в пределах сетки; если кандидатов нет,
// возвращается геометрический центр сетки.
func NearestWalkable(g world.View, p vec.Vec2) vec.Vec2 {
	if g.IsWalkable(p) {
		return p
	}

	center := vec.Vec2{X: g.Width() / 2, Y: g.Height() / 2}
	start := clamp(g, p)
	if g.IsWalkable(start) {
		return start
	}

	seen := map[vec.Vec2]bool{start: true}
	queue := []vec.Vec2{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, d := range vec.Neighbours {
			nb := cur.Add(d)
			if !g.InBounds(nb) || seen[nb] {
				continue
			}
			if g.IsWalkable(nb) {
				return nb
			}
			seen[nb] = true
			queue = append(queue, nb)
		}
	}

	return center
}

// Distance возвращает длину кратчайшего пути между клетками
// и false, если путь не существует
func Distance(g world.View, from, to vec.Vec2) (int, bool) {
	if !g.IsWalkable(from) || !g.IsWalkable(to) {
		return 0, false
	}
	if from == to {
		return 0, true
	}

	dist := map[vec.Vec2]int{from: 0}
	queue := []vec.Vec2{from}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, d := range vec.Neighbours {
			nb := cur.Add(d)
			if _, seen := dist[nb]; seen || !g.IsWalkable(nb) {
				continue
			}
			dist[nb] = dist[cur] + 1
			if nb == to {
				return dist[nb], true
			}
			queue = append(queue, nb)
		}
	}

	return 0, false
}

// NearestMatching ищет ближайшую по пути проходимую клетку, удовлетворяющую match.
// Стартовая клетка тоже проверяется.
func NearestMatching(g world.View, start vec.Vec2, match func(vec.Vec2) bool) (vec.Vec2, bool) {
	if !g.IsWalkable(start) {
		return vec.Vec2{}, false
	}
	if match(start) {
		return start, true
	}

	seen := map[vec.Vec2]bool{start: true}
	queue := []vec.Vec2{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, d := range vec.Neighbours {
			nb := cur.Add(d)
			if seen[nb] || !g.IsWalkable(nb) {
				continue
			}
			if match(nb) {
				return nb, true
			}
			seen[nb] = true
			queue = append(queue, nb)
		}
	}

	return vec.Vec2{}, false
}

// clamp приводит точку в границы сетки
func clamp(g world.View, p vec.Vec2) vec.Vec2 {
	if p.X < 0 {
		p.X = 0
	} else if p.X >= g.Width() {
		p.X = g.Width() - 1
	}
	if p.Y < 0 {
		p.Y = 0
	} else if p.Y >= g.Height() {
		p.Y = g.Height() - 1
	}
	return p
}
