package vec

import "math"

// Vec2 представляет 2D координаты клетки лабиринта (столбец, строка)
type Vec2 struct {
	X, Y int
}

// Единичные направления движения по сетке
var (
	Zero  = Vec2{X: 0, Y: 0}
	Right = Vec2{X: 1, Y: 0}
	Left  = Vec2{X: -1, Y: 0}
	Down  = Vec2{X: 0, Y: 1}
	Up    = Vec2{X: 0, Y: -1}
)

// Neighbours фиксированный порядок обхода соседей в BFS: вправо, влево, вниз, вверх.
// От порядка зависит выбор среди равных по длине путей.
var Neighbours = [4]Vec2{Right, Left, Down, Up}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub вычитает вектор
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Scale умножает вектор на целое число
func (v Vec2) Scale(k int) Vec2 {
	return Vec2{X: v.X * k, Y: v.Y * k}
}

// IsZero возвращает true для нулевого вектора
func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// IsUnit проверяет, что вектор является осевым единичным шагом
func (v Vec2) IsUnit() bool {
	return abs(v.X)+abs(v.Y) == 1
}

// Manhattan возвращает манхэттенское расстояние до другой точки
func (v Vec2) Manhattan(other Vec2) int {
	return abs(v.X-other.X) + abs(v.Y-other.Y)
}

// DistanceTo вычисляет евклидово расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dy := float64(v.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// PixelCenter возвращает центр клетки в пикселях. Только для отображения.
func (v Vec2) PixelCenter(cellSize int) (int, int) {
	return v.X*cellSize + cellSize/2, v.Y*cellSize + cellSize/2
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
