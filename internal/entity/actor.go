package entity

import (
	"math"
	"math/rand"

	"github.com/annel0/maze-chase/internal/vec"
	"github.com/annel0/maze-chase/internal/world"
)

// Kind тип актора на поле
type Kind uint8

const (
	KindPlayer Kind = iota
	KindGhost
)

// String возвращает строковое представление типа актора
func (k Kind) String() string {
	if k == KindPlayer {
		return "player"
	}
	return "ghost"
}

// Actor общий интерфейс игрока и призраков.
// Tick продвигает таймеры каждый кадр, движение вызывается симуляцией отдельно по своему темпу.
type Actor interface {
	Position() vec.Vec2
	Tick()
	Snapshot() ActorSnapshot
}

// ActorSnapshot неизменяемое представление актора для рендерера
type ActorSnapshot struct {
	Kind      Kind      `json:"kind"`
	ID        int       `json:"id"`
	Pos       vec.Vec2  `json:"pos"`
	Dir       vec.Vec2  `json:"dir"`
	State     string    `json:"state"`
	GhostType GhostType `json:"ghost_type,omitempty"`
	Countdown int       `json:"countdown"` // Оставшиеся тики суперрежима, смерти или уязвимости
	Phase     float64   `json:"phase"`     // Фаза анимации, только для отображения
}

// Rules игровые константы, которые нужны сущностям
type Rules struct {
	SuperModeDuration int // Длительность суперрежима и уязвимости призраков в тиках
	DeathDuration     int // Длительность анимации смерти в тиках
	PelletScore       int
	PowerPelletScore  int
	CaptureBonus      int
	AmbushLookahead   int // На сколько клеток вперёд игрока целится Ambusher
	OpportunistRadius int // Ближе этого расстояния Opportunist отступает в угол
}

// DefaultRules возвращает эталонные значения
func DefaultRules() Rules {
	return Rules{
		SuperModeDuration: 450,
		DeathDuration:     60,
		PelletScore:       10,
		PowerPelletScore:  50,
		CaptureBonus:      200,
		AmbushLookahead:   4,
		OpportunistRadius: 8,
	}
}

// TickContext данные кадра, которые призраки читают при расчёте хода.
// Сетка передаётся только как View: призраки её не меняют.
type TickContext struct {
	Frame  uint64
	Grid   world.View
	Player *Player
	Ghosts []*Ghost
	Rng    *rand.Rand
}

// Chaser возвращает первого призрака типа Chaser или nil
func (tc *TickContext) Chaser() *Ghost {
	for _, g := range tc.Ghosts {
		if g.kind == Chaser {
			return g
		}
	}
	return nil
}

// advancePhase сдвигает фазу анимации по кругу
func advancePhase(phase, step float64) float64 {
	return math.Mod(phase+step, 2*math.Pi)
}
