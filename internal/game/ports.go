package game

import (
	"time"

	"github.com/annel0/maze-chase/internal/vec"
)

// Input намерение игрока на один тик
type Input struct {
	Dir   vec.Vec2 `json:"dir"`
	Abort bool     `json:"abort,omitempty"`
}

// IsZero возвращает true, если вход ничего не меняет
func (in Input) IsZero() bool {
	return in.Dir.IsZero() && !in.Abort
}

// InputSource опрашивается ровно один раз за тик
type InputSource interface {
	Poll() Input
}

// InputFunc адаптер функции к InputSource
type InputFunc func() Input

// Poll реализует InputSource
func (f InputFunc) Poll() Input { return f() }

// Renderer получает снимок после каждого тика
type Renderer interface {
	Render(Snapshot)
}

// RendererFunc адаптер функции к Renderer
type RendererFunc func(Snapshot)

// Render реализует Renderer
func (f RendererFunc) Render(s Snapshot) { f(s) }

// ScoreSink принимает итоговый счёт. Вызов не должен блокировать тик.
type ScoreSink interface {
	RecordScore(name string, score int)
}

// EventType тип игрового события
type EventType string

const (
	EventSessionStarted EventType = "session.started"
	EventSuperMode      EventType = "supermode.started"
	EventGhostCaptured  EventType = "ghost.captured"
	EventPlayerDied     EventType = "player.died"
	EventSessionOver    EventType = "session.over"
)

// Event игровое событие для внешних подписчиков
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Frame     uint64    `json:"frame"`
	Score     int       `json:"score"`
	Lives     int       `json:"lives"`
	GhostID   int       `json:"ghost_id,omitempty"`
	GhostType string    `json:"ghost_type,omitempty"`
	Won       bool      `json:"won,omitempty"`
}

// EventPublisher получает события симуляции. Вызов не должен блокировать тик.
type EventPublisher interface {
	PublishEvent(Event)
}

// Metrics наблюдатель за ходом игры
type Metrics interface {
	SessionStarted()
	TickObserved(d time.Duration)
	PelletEaten()
	GhostCaptured()
	PlayerDied()
	SessionOver(won bool, score int)
}

type nopScores struct{}

func (nopScores) RecordScore(string, int) {}

type nopEvents struct{}

func (nopEvents) PublishEvent(Event) {}

type nopMetrics struct{}

func (nopMetrics) SessionStarted()            {}
func (nopMetrics) TickObserved(time.Duration) {}
func (nopMetrics) PelletEaten()               {}
func (nopMetrics) GhostCaptured()             {}
func (nopMetrics) PlayerDied()                {}
func (nopMetrics) SessionOver(bool, int)      {}
