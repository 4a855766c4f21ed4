package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_ReferenceValues(t *testing.T) {
	cfg := Default()
	g := cfg.Game

	assert.Equal(t, 31, g.Rows)
	assert.Equal(t, 28, g.Cols)
	assert.Equal(t, 30, g.FPS)
	assert.Equal(t, 3, g.Lives)
	assert.Equal(t, 450, g.SuperModeFrames)
	assert.Equal(t, 60, g.DeathFrames)
	assert.Equal(t, 4, g.PlayerMoveEvery)
	assert.Equal(t, 6, g.GhostMoveEvery)
	assert.Equal(t, 45, g.SuperIntroFrames(), "1.5 секунды при 30 FPS")
	assert.NoError(t, g.Validate())
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(*GameConfig){
		"маленький лабиринт": func(g *GameConfig) { g.Rows = 5 },
		"нулевой FPS":        func(g *GameConfig) { g.FPS = 0 },
		"нет жизней":         func(g *GameConfig) { g.Lives = 0 },
		"шанс больше 1":      func(g *GameConfig) { g.PowerPelletChance = 1.5 },
		"нулевой шаг":        func(g *GameConfig) { g.GhostMoveEvery = 0 },
		"отрицательный бонус": func(g *GameConfig) {
			g.CaptureBonus = -1
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			g := DefaultGame()
			mutate(&g)
			assert.ErrorIs(t, g.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maze.yaml")
	data := []byte("game:\n  rows: 15\n  cols: 15\n  seed: 42\nscores:\n  backend: badger\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.Game.Rows)
	assert.Equal(t, int64(42), cfg.Game.GetSeed())
	assert.Equal(t, 30, cfg.Game.FPS, "Незаданные поля берутся из Default")
	assert.Equal(t, "badger", cfg.Scores.GetBackend())
}

func TestLoad_InvalidGame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maze.yaml")
	require.NoError(t, os.WriteFile(path, []byte("game:\n  lives: 0\n"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_EmptyPathUsesEnv(t *testing.T) {
	t.Setenv("MAZE_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("MAZE_SEED", "777")
	t.Setenv("MAZE_METRICS_ADDR", ":9999")
	t.Setenv("MAZE_SCORE_BACKEND", "redis")

	cfg := Default()
	assert.Equal(t, int64(777), cfg.Game.GetSeed())
	assert.Equal(t, ":9999", cfg.Metrics.GetAddr())
	assert.Equal(t, "redis", cfg.Scores.GetBackend())

	cfg.Scores.Backend = "badger"
	assert.Equal(t, "badger", cfg.Scores.GetBackend(), "Значение из конфига важнее окружения")
}
