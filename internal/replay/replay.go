// Package replay записывает и воспроизводит игровые сессии.
//
// Сессия целиком определяется seed, конфигурацией и потоком входов,
// поэтому запись хранит только непустые входы с номером тика.
package replay

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/maze-chase/internal/config"
	"github.com/annel0/maze-chase/internal/game"
	"github.com/annel0/maze-chase/internal/logging"
	"github.com/annel0/maze-chase/internal/vec"
)

var (
	// ErrCorrupt запись не читается или противоречива
	ErrCorrupt = errors.New("replay corrupt")
	// ErrMismatch воспроизведение дало другой результат
	ErrMismatch = errors.New("replay result mismatch")
)

// InputFrame непустой вход на тике Tick (номер опроса, начиная с 0)
type InputFrame struct {
	Tick  uint64   `json:"tick"`
	Dir   vec.Vec2 `json:"dir"`
	Abort bool     `json:"abort,omitempty"`
}

// Result итог записанной сессии
type Result struct {
	Score  int    `json:"score"`
	Lives  int    `json:"lives"`
	Won    bool   `json:"won"`
	Over   bool   `json:"over"`
	Frames uint64 `json:"frames"`
}

// Recording полная запись сессии
type Recording struct {
	ID         string            `json:"id"`
	CreatedAt  time.Time         `json:"created_at"`
	Seed       int64             `json:"seed"`
	Config     config.GameConfig `json:"config"`
	PlayerName string            `json:"player_name"`
	Ticks      uint64            `json:"ticks"`
	Inputs     []InputFrame      `json:"inputs"`
	Result     *Result           `json:"result,omitempty"`
}

// ResultOf снимает итог со снимка
func ResultOf(s game.Snapshot) *Result {
	return &Result{
		Score:  s.Score,
		Lives:  s.Lives,
		Won:    s.Won,
		Over:   s.Over(),
		Frames: s.Frame,
	}
}

// Validate проверяет, что входы упорядочены и лежат внутри записи
func (r *Recording) Validate() error {
	if r.Seed == 0 {
		return fmt.Errorf("%w: zero seed", ErrCorrupt)
	}
	if err := r.Config.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	var prev uint64
	for i, in := range r.Inputs {
		if in.Tick >= r.Ticks {
			return fmt.Errorf("%w: input %d at tick %d beyond %d", ErrCorrupt, i, in.Tick, r.Ticks)
		}
		if i > 0 && in.Tick <= prev {
			return fmt.Errorf("%w: input %d out of order", ErrCorrupt, i)
		}
		if !in.Abort && !in.Dir.IsUnit() {
			return fmt.Errorf("%w: input %d has direction %v", ErrCorrupt, i, in.Dir)
		}
		prev = in.Tick
	}
	return nil
}

// Recorder оборачивает InputSource и запоминает каждый непустой вход
type Recorder struct {
	src    game.InputSource
	tick   uint64
	inputs []InputFrame
}

// NewRecorder создаёт запись поверх src
func NewRecorder(src game.InputSource) *Recorder {
	return &Recorder{src: src}
}

// Poll реализует game.InputSource
func (r *Recorder) Poll() game.Input {
	in := r.src.Poll()
	if !in.IsZero() {
		r.inputs = append(r.inputs, InputFrame{Tick: r.tick, Dir: in.Dir, Abort: in.Abort})
	}
	r.tick++
	return in
}

// Ticks количество выполненных опросов
func (r *Recorder) Ticks() uint64 { return r.tick }

// Recording собирает запись для симуляции, которую кормил Recorder
func (r *Recorder) Recording(sim *game.Simulation) *Recording {
	inputs := make([]InputFrame, len(r.inputs))
	copy(inputs, r.inputs)
	return &Recording{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Seed:       sim.Seed(),
		Config:     sim.Config(),
		PlayerName: sim.PlayerName(),
		Ticks:      r.tick,
		Inputs:     inputs,
		Result:     ResultOf(sim.Snapshot()),
	}
}

// Play заново прогоняет запись без привязки к реальному времени
func Play(rec *Recording, opts ...game.Option) (game.Snapshot, error) {
	if err := rec.Validate(); err != nil {
		return game.Snapshot{}, err
	}

	opts = append([]game.Option{game.WithSeed(rec.Seed), game.WithPlayerName(rec.PlayerName)}, opts...)
	sim, err := game.NewSimulation(rec.Config, opts...)
	if err != nil {
		return game.Snapshot{}, err
	}

	next := 0
	for tick := uint64(0); tick < rec.Ticks; tick++ {
		var in game.Input
		if next < len(rec.Inputs) && rec.Inputs[next].Tick == tick {
			in = game.Input{Dir: rec.Inputs[next].Dir, Abort: rec.Inputs[next].Abort}
			next++
		}
		if in.Abort {
			break
		}
		sim.Step(in)
	}

	snap := sim.Snapshot()
	logging.GetReplayLogger().Debug("▶️ Запись %s воспроизведена: счёт %d, кадров %d", rec.ID, snap.Score, snap.Frame)
	return snap, nil
}

// Verify воспроизводит запись и сверяет итог с сохранённым
func Verify(rec *Recording) (game.Snapshot, error) {
	snap, err := Play(rec)
	if err != nil {
		return snap, err
	}
	if rec.Result == nil {
		return snap, nil
	}
	got := ResultOf(snap)
	if *got != *rec.Result {
		return snap, fmt.Errorf("%w: recorded %+v, replayed %+v", ErrMismatch, *rec.Result, *got)
	}
	return snap, nil
}
