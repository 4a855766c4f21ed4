package main

import (
	"github.com/annel0/maze-chase/internal/game"
	"github.com/annel0/maze-chase/internal/logging"
)

// logRenderer печатает ход игры в лог вместо окна:
// смену фазы, изменение жизней и раз в секунду счёт.
type logRenderer struct {
	log   *logging.Logger
	every uint64
	phase game.Phase
	lives int
	first bool
}

func newLogRenderer(l *logging.Logger, fps int) *logRenderer {
	if fps <= 0 {
		fps = 1
	}
	return &logRenderer{log: l, every: uint64(fps), first: true}
}

func (r *logRenderer) Render(s game.Snapshot) {
	if r.first || s.Phase != r.phase {
		r.log.Info("🔄 Кадр %d: фаза %s, счёт %d, жизней %d", s.Frame, s.Phase, s.Score, s.Lives)
	}
	if !r.first && s.Lives != r.lives {
		r.log.Info("💀 Потеряна жизнь, осталось %d", s.Lives)
	}
	if s.IntroLeft > 0 {
		r.log.Trace("⚡ Суперрежим начинается через %d кадров", s.IntroLeft)
	}
	if s.Phase == game.PhaseActive && s.Frame > 0 && s.Frame%r.every == 0 {
		r.log.Debug("🎯 Кадр %d: счёт %d, игрок %v", s.Frame, s.Score, s.Player.Pos)
	}
	if s.Over() && s.Phase != r.phase {
		result := "поражение"
		if s.Won {
			result = "победа"
		}
		r.log.Info("🏁 Сессия %s: %s, счёт %d\n%s", s.SessionID, result, s.Score, s.Grid.String())
	}

	r.first = false
	r.phase = s.Phase
	r.lives = s.Lives
}
