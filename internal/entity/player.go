package entity

import (
	"math"
	"math/rand"

	"github.com/annel0/maze-chase/internal/vec"
	"github.com/annel0/maze-chase/internal/world"
)

// PlayerState состояние игрока
type PlayerState uint8

const (
	PlayerNormal PlayerState = iota
	PlayerSuperMode
	PlayerDying
)

// String возвращает строковое представление состояния игрока
func (s PlayerState) String() string {
	switch s {
	case PlayerNormal:
		return "normal"
	case PlayerSuperMode:
		return "super"
	case PlayerDying:
		return "dying"
	default:
		return "unknown"
	}
}

// MoveEvent результат попытки шага игрока
type MoveEvent uint8

const (
	MoveBlocked   MoveEvent = iota // Впереди стена или нет направления
	MoveStep                       // Шаг в пустую клетку
	MovePellet                     // Съедена обычная точка
	MoveSuperMode                  // Съеден энерджайзер, начался суперрежим
)

// Player управляемый игроком персонаж
type Player struct {
	pos        vec.Vec2
	dir        vec.Vec2
	score      int
	superTimer int
	deathTimer int
	phase      float64

	rules Rules
	fsm   *Machine[PlayerState]
}

// NewPlayer создаёт игрока в указанной клетке. rng задаёт начальную фазу анимации.
func NewPlayer(pos vec.Vec2, rules Rules, rng *rand.Rand) *Player {
	p := &Player{pos: pos, rules: rules}
	if rng != nil {
		p.phase = rng.Float64() * 2 * math.Pi
	}

	p.fsm = NewMachine(PlayerNormal).
		Allow(PlayerNormal, PlayerSuperMode, PlayerDying).
		Allow(PlayerSuperMode, PlayerSuperMode, PlayerNormal, PlayerDying).
		OnEnter(PlayerSuperMode, func(PlayerState) { p.superTimer = p.rules.SuperModeDuration }).
		OnEnter(PlayerDying, func(PlayerState) {
			p.superTimer = 0
			p.deathTimer = p.rules.DeathDuration
		}).
		OnEnter(PlayerNormal, func(PlayerState) {
			p.superTimer = 0
			p.deathTimer = 0
		})
	return p
}

// Position возвращает клетку игрока
func (p *Player) Position() vec.Vec2 { return p.pos }

// Direction возвращает текущее направление движения
func (p *Player) Direction() vec.Vec2 { return p.dir }

// Score возвращает текущий счёт
func (p *Player) Score() int { return p.score }

// State возвращает состояние автомата
func (p *Player) State() PlayerState { return p.fsm.Current() }

// IsSuper возвращает true в суперрежиме
func (p *Player) IsSuper() bool { return p.fsm.Is(PlayerSuperMode) }

// IsDying возвращает true во время анимации смерти
func (p *Player) IsDying() bool { return p.fsm.Is(PlayerDying) }

// AddScore начисляет очки (бонус за пойманного призрака)
func (p *Player) AddScore(points int) {
	if points > 0 {
		p.score += points
	}
}

// TrySetDirection меняет направление, только если клетка в этом направлении проходима
func (p *Player) TrySetDirection(d vec.Vec2, g world.View) bool {
	if !d.IsUnit() || !g.IsWalkable(p.pos.Add(d)) {
		return false
	}
	p.dir = d
	return true
}

// Move делает один шаг в текущем направлении.
// Упёршись в стену, игрок стоит на месте, направление сохраняется.
// Съеденные точки удаляются из сетки.
func (p *Player) Move(g *world.Grid) MoveEvent {
	if p.IsDying() || p.dir.IsZero() {
		return MoveBlocked
	}

	next := p.pos.Add(p.dir)
	if !g.IsWalkable(next) {
		return MoveBlocked
	}
	p.pos = next

	switch g.Consume(next) {
	case world.Pellet:
		p.score += p.rules.PelletScore
		return MovePellet
	case world.PowerPellet:
		p.score += p.rules.PowerPelletScore
		p.fsm.Transition(PlayerSuperMode)
		return MoveSuperMode
	default:
		return MoveStep
	}
}

// Tick продвигает таймеры: отсчёт суперрежима или анимации смерти
func (p *Player) Tick() {
	switch p.fsm.Current() {
	case PlayerDying:
		if p.deathTimer > 0 {
			p.deathTimer--
		}
	case PlayerSuperMode:
		p.phase = advancePhase(p.phase, 0.3)
		p.superTimer--
		if p.superTimer <= 0 {
			p.fsm.Transition(PlayerNormal)
		}
	default:
		p.phase = advancePhase(p.phase, 0.3)
	}
}

// StartDying запускает анимацию смерти и сбрасывает суперрежим
func (p *Player) StartDying() {
	p.fsm.Transition(PlayerDying)
}

// DeathComplete возвращает true, когда анимация смерти закончилась.
// Что дальше (респаун или конец игры) решает симуляция.
func (p *Player) DeathComplete() bool {
	return p.IsDying() && p.deathTimer <= 0
}

// Respawn переносит игрока в клетку и сбрасывает направление и состояние. Счёт сохраняется.
func (p *Player) Respawn(pos vec.Vec2) {
	p.pos = pos
	p.dir = vec.Zero
	p.fsm.Force(PlayerNormal)
}

// Snapshot возвращает представление для рендерера
func (p *Player) Snapshot() ActorSnapshot {
	countdown := 0
	switch p.fsm.Current() {
	case PlayerSuperMode:
		countdown = p.superTimer
	case PlayerDying:
		countdown = p.deathTimer
	}
	return ActorSnapshot{
		Kind:      KindPlayer,
		Pos:       p.pos,
		Dir:       p.dir,
		State:     p.fsm.Current().String(),
		Countdown: countdown,
		Phase:     p.phase,
	}
}
