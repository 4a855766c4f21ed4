package world

import (
	"fmt"
	"strings"

	"github.com/annel0/maze-chase/internal/vec"
)

// CellKind тип клетки лабиринта. Числовые коды совпадают с эталонными раскладками.
type CellKind uint8

const (
	Empty       CellKind = 0
	Wall        CellKind = 1
	Pellet      CellKind = 2
	PowerPellet CellKind = 3
	GhostHouse  CellKind = 4
)

// String возвращает строковое представление типа клетки
func (k CellKind) String() string {
	switch k {
	case Empty:
		return "Empty"
	case Wall:
		return "Wall"
	case Pellet:
		return "Pellet"
	case PowerPellet:
		return "PowerPellet"
	case GhostHouse:
		return "GhostHouse"
	default:
		return fmt.Sprintf("CellKind(%d)", uint8(k))
	}
}

// IsCollectible возвращает true для точек, которые собирает игрок
func (k CellKind) IsCollectible() bool {
	return k == Pellet || k == PowerPellet
}

// glyph символ клетки для текстового вывода
func (k CellKind) glyph() byte {
	switch k {
	case Wall:
		return '#'
	case Pellet:
		return '.'
	case PowerPellet:
		return 'o'
	case GhostHouse:
		return 'H'
	default:
		return ' '
	}
}

// View представляет доступ к сетке только на чтение.
// Призраки и поиск пути получают только View, писать в сетку может лишь симуляция.
type View interface {
	Width() int
	Height() int
	InBounds(p vec.Vec2) bool
	At(p vec.Vec2) CellKind
	IsWalkable(p vec.Vec2) bool
}

// Grid прямоугольная сетка клеток. Хранится построчно.
type Grid struct {
	width  int
	height int
	cells  []CellKind
}

// NewGrid создаёт сетку заданного размера, полностью заполненную стенами
func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	cells := make([]CellKind, width*height)
	for i := range cells {
		cells[i] = Wall
	}
	return &Grid{width: width, height: height, cells: cells}
}

// ParseGrid строит сетку из строк числовых кодов клеток.
// Все строки должны быть одинаковой длины.
func ParseGrid(rows [][]int) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("пустая раскладка лабиринта")
	}

	g := NewGrid(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != g.width {
			return nil, fmt.Errorf("строка %d: ширина %d, ожидалась %d", y, len(row), g.width)
		}
		for x, code := range row {
			if code < int(Empty) || code > int(GhostHouse) {
				return nil, fmt.Errorf("клетка (%d,%d): неизвестный код %d", x, y, code)
			}
			g.cells[y*g.width+x] = CellKind(code)
		}
	}
	return g, nil
}

// MustParseGrid как ParseGrid, но паникует при ошибке. Для тестов и фиксированных раскладок.
func MustParseGrid(rows [][]int) *Grid {
	g, err := ParseGrid(rows)
	if err != nil {
		panic(err)
	}
	return g
}

// Width возвращает ширину сетки (число столбцов)
func (g *Grid) Width() int { return g.width }

// Height возвращает высоту сетки (число строк)
func (g *Grid) Height() int { return g.height }

// InBounds проверяет, лежит ли точка внутри сетки
func (g *Grid) InBounds(p vec.Vec2) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

// At возвращает тип клетки. Координаты вне сетки считаются стеной.
func (g *Grid) At(p vec.Vec2) CellKind {
	if !g.InBounds(p) {
		return Wall
	}
	return g.cells[p.Y*g.width+p.X]
}

// IsWalkable возвращает true, если в клетку можно войти
func (g *Grid) IsWalkable(p vec.Vec2) bool {
	return g.At(p) != Wall
}

// Set записывает тип клетки. Запись вне сетки игнорируется.
func (g *Grid) Set(p vec.Vec2, kind CellKind) {
	if !g.InBounds(p) {
		return
	}
	g.cells[p.Y*g.width+p.X] = kind
}

// Consume убирает точку из клетки и возвращает прежний тип клетки.
// Клетки без точек не меняются.
func (g *Grid) Consume(p vec.Vec2) CellKind {
	kind := g.At(p)
	if kind.IsCollectible() {
		g.cells[p.Y*g.width+p.X] = Empty
	}
	return kind
}

// Center возвращает геометрический центр сетки
func (g *Grid) Center() vec.Vec2 {
	return vec.Vec2{X: g.width / 2, Y: g.height / 2}
}

// Find ищет первую клетку заданного типа в порядке строк
func (g *Grid) Find(kind CellKind) (vec.Vec2, bool) {
	for i, c := range g.cells {
		if c == kind {
			return vec.Vec2{X: i % g.width, Y: i / g.width}, true
		}
	}
	return vec.Vec2{}, false
}

// Collectibles возвращает количество оставшихся точек
func (g *Grid) Collectibles() int {
	n := 0
	for _, c := range g.cells {
		if c.IsCollectible() {
			n++
		}
	}
	return n
}

// HasCollectibles возвращает true, пока на поле есть хотя бы одна точка
func (g *Grid) HasCollectibles() bool {
	for _, c := range g.cells {
		if c.IsCollectible() {
			return true
		}
	}
	return false
}

// Clone создаёт независимую копию сетки
func (g *Grid) Clone() *Grid {
	cells := make([]CellKind, len(g.cells))
	copy(cells, g.cells)
	return &Grid{width: g.width, height: g.height, cells: cells}
}

// Rows возвращает копию содержимого по строкам
func (g *Grid) Rows() [][]CellKind {
	rows := make([][]CellKind, g.height)
	for y := 0; y < g.height; y++ {
		row := make([]CellKind, g.width)
		copy(row, g.cells[y*g.width:(y+1)*g.width])
		rows[y] = row
	}
	return rows
}

// Codes возвращает содержимое в виде числовых кодов (обратная операция к ParseGrid)
func (g *Grid) Codes() [][]int {
	rows := make([][]int, g.height)
	for y := 0; y < g.height; y++ {
		row := make([]int, g.width)
		for x := 0; x < g.width; x++ {
			row[x] = int(g.cells[y*g.width+x])
		}
		rows[y] = row
	}
	return rows
}

// String возвращает ASCII-представление сетки для логов
func (g *Grid) String() string {
	var sb strings.Builder
	sb.Grow((g.width + 1) * g.height)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			sb.WriteByte(g.cells[y*g.width+x].glyph())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
