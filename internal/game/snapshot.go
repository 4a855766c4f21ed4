package game

import (
	"github.com/annel0/maze-chase/internal/entity"
	"github.com/annel0/maze-chase/internal/world"
)

// Phase фаза игровой сессии
type Phase uint8

const (
	PhaseNotStarted Phase = iota
	PhaseActive
	PhasePausedForDeath
	PhaseOver
)

// String возвращает строковое представление фазы
func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseActive:
		return "active"
	case PhasePausedForDeath:
		return "paused_for_death"
	case PhaseOver:
		return "over"
	default:
		return "unknown"
	}
}

// Snapshot неизменяемая копия состояния на границе тика.
// Сетка копируется, поэтому рендерер может читать её из другой горутины.
type Snapshot struct {
	SessionID string
	Frame     uint64
	Phase     Phase
	Won       bool
	Lives     int
	Score     int
	IntroLeft int

	Grid   *world.Grid
	Player entity.ActorSnapshot
	Ghosts []entity.ActorSnapshot
}

// Over возвращает true для завершённой сессии
func (s Snapshot) Over() bool { return s.Phase == PhaseOver }

// Actors возвращает игрока и призраков одним списком
func (s Snapshot) Actors() []entity.ActorSnapshot {
	out := make([]entity.ActorSnapshot, 0, len(s.Ghosts)+1)
	out = append(out, s.Player)
	return append(out, s.Ghosts...)
}

// Snapshot снимает копию состояния
func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		SessionID: s.sessionID,
		Frame:     s.frame,
		Phase:     s.phase,
		Won:       s.won,
		Lives:     s.lives,
		Score:     s.player.Score(),
		IntroLeft: s.introLeft,
		Grid:      s.grid.Clone(),
		Ghosts:    make([]entity.ActorSnapshot, 0, len(s.ghosts)),
	}
	for _, a := range s.actors() {
		as := a.Snapshot()
		if as.Kind == entity.KindPlayer {
			snap.Player = as
			continue
		}
		snap.Ghosts = append(snap.Ghosts, as)
	}
	return snap
}

func (s *Simulation) actors() []entity.Actor {
	out := make([]entity.Actor, 0, len(s.ghosts)+1)
	out = append(out, s.player)
	for _, g := range s.ghosts {
		out = append(out, g)
	}
	return out
}
