package pathfind

import (
	"math/rand"
	"testing"

	"github.com/annel0/maze-chase/internal/vec"
	"github.com/annel0/maze-chase/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openGrid(w, h int) *world.Grid {
	g := world.NewGrid(w, h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			g.Set(vec.Vec2{X: x, Y: y}, world.Empty)
		}
	}
	return g
}

func TestNextStep_SameCell(t *testing.T) {
	g := openGrid(7, 7)
	for y := 0; y < 7; y++ {
		for x := 0; x < 7; x++ {
			p := vec.Vec2{X: x, Y: y}
			assert.Equal(t, vec.Zero, NextStep(p, p, g), "Шаг к самому себе должен быть нулевым")
		}
	}
}

func TestNextStep_Unreachable(t *testing.T) {
	g := world.MustParseGrid([][]int{
		{1, 1, 1, 1, 1},
		{1, 0, 1, 0, 1},
		{1, 1, 1, 1, 1},
	})
	assert.Equal(t, vec.Zero, NextStep(vec.Vec2{X: 1, Y: 1}, vec.Vec2{X: 3, Y: 1}, g))
	assert.Equal(t, vec.Zero, NextStep(vec.Vec2{X: 1, Y: 1}, vec.Vec2{X: 2, Y: 1}, g), "Цель-стена недостижима")
	assert.Equal(t, vec.Zero, NextStep(vec.Vec2{X: 1, Y: 1}, vec.Vec2{X: 40, Y: 1}, g), "Цель вне сетки недостижима")
}

func TestNextStep_TieBreakOrder(t *testing.T) {
	g := openGrid(7, 7)
	// Цель по диагонали: пути через правого и нижнего соседа равны, выигрывает правый
	assert.Equal(t, vec.Right, NextStep(vec.Vec2{X: 2, Y: 2}, vec.Vec2{X: 4, Y: 4}, g))
	// Цель слева-сверху: влево раньше, чем вверх
	assert.Equal(t, vec.Left, NextStep(vec.Vec2{X: 4, Y: 4}, vec.Vec2{X: 2, Y: 2}, g))
	// Цель слева-снизу: влево раньше, чем вниз
	assert.Equal(t, vec.Left, NextStep(vec.Vec2{X: 4, Y: 2}, vec.Vec2{X: 2, Y: 4}, g))
}

func TestNextStep_ReducesDistanceByOne(t *testing.T) {
	g := world.NewGenerator(31, 28, rand.New(rand.NewSource(3))).Generate()
	rng := rand.New(rand.NewSource(99))

	var cells []vec.Vec2
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			if p := (vec.Vec2{X: x, Y: y}); g.IsWalkable(p) {
				cells = append(cells, p)
			}
		}
	}
	require.NotEmpty(t, cells)

	for i := 0; i < 200; i++ {
		start := cells[rng.Intn(len(cells))]
		target := cells[rng.Intn(len(cells))]
		if start == target {
			continue
		}

		before, ok := Distance(g, start, target)
		require.True(t, ok, "Лабиринт связный, путь должен существовать")

		step := NextStep(start, target, g)
		require.True(t, step.IsUnit(), "Шаг %v из %v к %v должен быть единичным", step, start, target)

		next := start.Add(step)
		require.True(t, g.IsWalkable(next))
		after, ok := Distance(g, next, target)
		require.True(t, ok)
		assert.Equal(t, before-1, after, "Шаг должен сокращать расстояние ровно на 1")
	}
}

func TestNearestWalkable(t *testing.T) {
	g := world.MustParseGrid([][]int{
		{1, 1, 1, 1, 1},
		{1, 1, 1, 2, 1},
		{1, 1, 1, 1, 1},
	})

	assert.Equal(t, vec.Vec2{X: 3, Y: 1}, NearestWalkable(g, vec.Vec2{X: 3, Y: 1}), "Проходимая клетка возвращается как есть")
	assert.Equal(t, vec.Vec2{X: 3, Y: 1}, NearestWalkable(g, vec.Vec2{X: 1, Y: 1}))
	assert.Equal(t, vec.Vec2{X: 3, Y: 1}, NearestWalkable(g, vec.Vec2{X: 40, Y: -7}), "Точка вне сетки приводится к границе")
}

func TestNearestWalkable_FallbackCenter(t *testing.T) {
	g := world.NewGrid(5, 3)
	assert.Equal(t, vec.Vec2{X: 2, Y: 1}, NearestWalkable(g, vec.Vec2{X: 0, Y: 0}), "Без проходимых клеток возвращается центр")
}

func TestNearestMatching(t *testing.T) {
	g := world.MustParseGrid([][]int{
		{1, 1, 1, 1, 1, 1},
		{1, 0, 0, 0, 2, 1},
		{1, 1, 1, 1, 1, 1},
	})
	isPellet := func(p vec.Vec2) bool { return g.At(p) == world.Pellet }

	p, ok := NearestMatching(g, vec.Vec2{X: 1, Y: 1}, isPellet)
	require.True(t, ok)
	assert.Equal(t, vec.Vec2{X: 4, Y: 1}, p)

	g.Consume(p)
	_, ok = NearestMatching(g, vec.Vec2{X: 1, Y: 1}, isPellet)
	assert.False(t, ok)
}

func TestDistance(t *testing.T) {
	g := openGrid(6, 6)
	d, ok := Distance(g, vec.Vec2{X: 1, Y: 1}, vec.Vec2{X: 4, Y: 3})
	require.True(t, ok)
	assert.Equal(t, 5, d)

	_, ok = Distance(g, vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 1, Y: 1})
	assert.False(t, ok, "Из стены пути нет")
}
