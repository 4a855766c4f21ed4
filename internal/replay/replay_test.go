package replay

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/maze-chase/internal/config"
	"github.com/annel0/maze-chase/internal/game"
	"github.com/annel0/maze-chase/internal/vec"
)

func testConfig() config.GameConfig {
	cfg := config.DefaultGame()
	cfg.Rows = 15
	cfg.Cols = 15
	cfg.PlayerMoveEvery = 1
	cfg.GhostMoveEvery = 2
	cfg.GhostReleaseBase = 5
	cfg.GhostReleaseStep = 5
	cfg.DeathFrames = 4
	cfg.SuperModeFrames = 20
	cfg.SuperIntroSeconds = 0
	return cfg
}

// scripted меняет направление каждые period опросов, между сменами вход пустой
func scripted(period int) game.InputSource {
	dirs := vec.Neighbours
	n := 0
	return game.InputFunc(func() game.Input {
		defer func() { n++ }()
		if n%period != 0 {
			return game.Input{}
		}
		return game.Input{Dir: dirs[(n/period)%len(dirs)]}
	})
}

func record(t *testing.T, ticks int) (*Recording, game.Snapshot) {
	t.Helper()
	sim, err := game.NewSimulation(testConfig(), game.WithSeed(42), game.WithPlayerName("tester"))
	require.NoError(t, err)

	rec := NewRecorder(scripted(7))
	for i := 0; i < ticks; i++ {
		in := rec.Poll()
		if in.Abort {
			break
		}
		sim.Step(in)
	}
	return rec.Recording(sim), sim.Snapshot()
}

func TestRecorder_StoresOnlyNonEmptyInputs(t *testing.T) {
	rec, _ := record(t, 30)

	assert.Equal(t, uint64(30), rec.Ticks)
	require.Len(t, rec.Inputs, 5, "входы на тиках 0, 7, 14, 21, 28")
	assert.Equal(t, uint64(7), rec.Inputs[1].Tick)
	assert.Equal(t, vec.Left, rec.Inputs[1].Dir)
	assert.Equal(t, int64(42), rec.Seed)
	assert.Equal(t, "tester", rec.PlayerName)
}

func TestPlay_ReproducesSession(t *testing.T) {
	rec, want := record(t, 400)

	got, err := Play(rec)
	require.NoError(t, err)
	assert.Equal(t, want.Score, got.Score, "счёт совпадает")
	assert.Equal(t, want.Frame, got.Frame, "число кадров совпадает")
	assert.Equal(t, want.Lives, got.Lives)
	assert.Equal(t, want.Player.Pos, got.Player.Pos, "игрок на той же клетке")
	for i := range want.Ghosts {
		assert.Equal(t, want.Ghosts[i].Pos, got.Ghosts[i].Pos, "призрак %d на той же клетке", i)
	}
	assert.Equal(t, want.Grid.String(), got.Grid.String(), "лабиринт и съеденные точки совпадают")

	_, err = Verify(rec)
	assert.NoError(t, err)
}

func TestPlay_StopsAtAbort(t *testing.T) {
	rec, _ := record(t, 20)
	rec.Ticks = 40
	rec.Inputs = append(rec.Inputs, InputFrame{Tick: 25, Abort: true})
	rec.Result = nil

	snap, err := Play(rec)
	require.NoError(t, err)
	assert.LessOrEqual(t, snap.Frame, uint64(25), "после Abort тики не выполняются")
}

func TestVerify_DetectsTamperedResult(t *testing.T) {
	rec, _ := record(t, 100)
	rec.Result.Score += 10

	_, err := Verify(rec)
	assert.ErrorIs(t, err, ErrMismatch)
}

func TestCodec_RoundTrip(t *testing.T) {
	rec, _ := record(t, 50)

	data, err := Encode(rec)
	require.NoError(t, err)

	back, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, back.ID)
	assert.Equal(t, rec.Inputs, back.Inputs)
	assert.Equal(t, rec.Config, back.Config)
	assert.Equal(t, *rec.Result, *back.Result)
}

func TestDecode_Corrupt(t *testing.T) {
	_, err := Decode([]byte("definitely not zstd"))
	assert.ErrorIs(t, err, ErrCorrupt)

	rec, _ := record(t, 10)
	rec.Inputs = []InputFrame{{Tick: 5, Dir: vec.Up}, {Tick: 3, Dir: vec.Down}}
	data, err := Encode(rec)
	require.NoError(t, err)
	_, err = Decode(data)
	assert.ErrorIs(t, err, ErrCorrupt, "входы не по порядку")

	rec.Inputs = []InputFrame{{Tick: 1, Dir: vec.Vec2{X: 2}}}
	assert.ErrorIs(t, rec.Validate(), ErrCorrupt, "недопустимое направление")
}

func TestSaveLoadFile(t *testing.T) {
	rec, _ := record(t, 60)
	path := filepath.Join(t.TempDir(), "nested", "session.replay")

	require.NoError(t, SaveFile(path, rec))
	back, err := LoadFile(path)
	require.NoError(t, err)

	snap, err := Verify(back)
	require.NoError(t, err)
	assert.Equal(t, rec.Result.Score, snap.Score)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.replay"))
	assert.Error(t, err)
}
