package world

import (
	"math/rand"
	"time"

	"github.com/annel0/maze-chase/internal/vec"
)

// Параметры генерации по умолчанию
const (
	DefaultPowerPelletChance = 0.02 // 2% шанс энерджайзера в свободной клетке
	GhostHouseRadius         = 2    // Дом призраков 5x5 вокруг центра
)

// jumps шаги через одну клетку для DFS по нечётным координатам
var jumps = [4]vec.Vec2{{X: 0, Y: 2}, {X: 0, Y: -2}, {X: 2, Y: 0}, {X: -2, Y: 0}}

// Generator строит случайный связный лабиринт с точками
type Generator struct {
	Rows              int     // Желаемое число строк (чётное уменьшается на 1)
	Cols              int     // Желаемое число столбцов (чётное уменьшается на 1)
	PowerPelletChance float64 // Вероятность энерджайзера вместо обычной точки

	rng *rand.Rand
}

// NewGenerator создаёт генератор. Если rng == nil, используется источник от текущего времени.
func NewGenerator(rows, cols int, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{
		Rows:              rows,
		Cols:              cols,
		PowerPelletChance: DefaultPowerPelletChance,
		rng:               rng,
	}
}

// Generate строит лабиринт:
// DFS-остовное дерево, затем удаление тупиков до неподвижной точки,
// расстановка точек и дом призраков в центре.
func (gen *Generator) Generate() *Grid {
	rows, cols := ensureOdd(gen.Rows), ensureOdd(gen.Cols)
	g := NewGrid(cols, rows)

	// Случайная стартовая клетка с нечётными координатами
	start := vec.Vec2{
		X: 1 + 2*gen.rng.Intn(max(1, cols/2)),
		Y: 1 + 2*gen.rng.Intn(max(1, rows/2)),
	}
	gen.carve(g, start)
	gen.removeDeadEnds(g)
	gen.placePellets(g)
	placeGhostHouse(g)

	return g
}

// frame кадр явного стека DFS: клетка, перемешанные соседи и позиция в них
type frame struct {
	pos  vec.Vec2
	dirs []vec.Vec2
	next int
}

// carve выполняет рандомизированный DFS.
// Стек вместо рекурсии, порядок посещения тот же: соседи перемешиваются при входе в клетку,
// сосед прорубается, только если он всё ещё стена.
func (gen *Generator) carve(g *Grid, start vec.Vec2) {
	g.Set(start, Empty)
	stack := []*frame{{pos: start, dirs: gen.shuffledJumps(g, start)}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.dirs) {
			stack = stack[:len(stack)-1]
			continue
		}

		d := top.dirs[top.next]
		top.next++

		nb := top.pos.Add(d)
		if g.At(nb) != Wall {
			continue
		}

		// Убираем стену между клетками и сам соседний узел
		g.Set(vec.Vec2{X: top.pos.X + d.X/2, Y: top.pos.Y + d.Y/2}, Empty)
		g.Set(nb, Empty)
		stack = append(stack, &frame{pos: nb, dirs: gen.shuffledJumps(g, nb)})
	}
}

// shuffledJumps возвращает допустимые прыжки из клетки в случайном порядке
func (gen *Generator) shuffledJumps(g *Grid, p vec.Vec2) []vec.Vec2 {
	dirs := make([]vec.Vec2, 0, 4)
	for _, d := range jumps {
		nb := p.Add(d)
		if nb.X >= 1 && nb.X <= g.width-2 && nb.Y >= 1 && nb.Y <= g.height-2 {
			dirs = append(dirs, d)
		}
	}
	gen.rng.Shuffle(len(dirs), func(i, j int) { dirs[i], dirs[j] = dirs[j], dirs[i] })
	return dirs
}

// removeDeadEnds открывает по одной дополнительной стене у каждой клетки
// с не более чем одним открытым соседом, пока такие клетки не закончатся
func (gen *Generator) removeDeadEnds(g *Grid) {
	for changed := true; changed; {
		changed = false
		for y := 1; y < g.height-1; y++ {
			for x := 1; x < g.width-1; x++ {
				p := vec.Vec2{X: x, Y: y}
				if g.At(p) != Empty || openNeighbours(g, p) > 1 {
					continue
				}

				dirs := vec.Neighbours
				gen.rng.Shuffle(len(dirs), func(i, j int) { dirs[i], dirs[j] = dirs[j], dirs[i] })
				for _, d := range dirs {
					nb := p.Add(d)
					if nb.X > 0 && nb.X < g.width-1 && nb.Y > 0 && nb.Y < g.height-1 && g.At(nb) == Wall {
						g.Set(nb, Empty)
						changed = true
						break
					}
				}
			}
		}
	}
}

// placePellets заполняет свободные клетки точками и энерджайзерами
func (gen *Generator) placePellets(g *Grid) {
	for i, c := range g.cells {
		if c != Empty {
			continue
		}
		if gen.rng.Float64() < gen.PowerPelletChance {
			g.cells[i] = PowerPellet
		} else {
			g.cells[i] = Pellet
		}
	}
}

// placeGhostHouse расчищает блок 5x5 вокруг центра и помечает центр домом призраков
func placeGhostHouse(g *Grid) {
	c := g.Center()
	for dy := -GhostHouseRadius; dy <= GhostHouseRadius; dy++ {
		for dx := -GhostHouseRadius; dx <= GhostHouseRadius; dx++ {
			g.Set(vec.Vec2{X: c.X + dx, Y: c.Y + dy}, Empty)
		}
	}
	g.Set(c, GhostHouse)
}

// openNeighbours считает проходимых ортогональных соседей клетки
func openNeighbours(g View, p vec.Vec2) int {
	n := 0
	for _, d := range vec.Neighbours {
		if g.IsWalkable(p.Add(d)) {
			n++
		}
	}
	return n
}

// ensureOdd округляет вниз до ближайшего нечётного числа
func ensureOdd(n int) int {
	if n%2 == 0 {
		return n - 1
	}
	return n
}
