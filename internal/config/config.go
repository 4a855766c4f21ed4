package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig возвращается Validate для недопустимых значений
var ErrInvalidConfig = errors.New("invalid config")

// MinMazeSide минимальная сторона лабиринта: дом призраков 5x5 плюс стены
const MinMazeSide = 7

// Config корневая структура конфигурации приложения.
type Config struct {
	Game      GameConfig      `yaml:"game"`
	Scores    ScoresConfig    `yaml:"scores"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

// GameConfig параметры одной игровой сессии. Неизменяемы в течение сессии.
type GameConfig struct {
	Rows int   `yaml:"rows"`
	Cols int   `yaml:"cols"`
	FPS  int   `yaml:"fps"`
	Seed int64 `yaml:"seed"`

	Lives           int `yaml:"lives"`
	SuperModeFrames int `yaml:"super_mode_frames"`
	DeathFrames     int `yaml:"death_frames"`
	PlayerMoveEvery int `yaml:"player_move_every"`
	GhostMoveEvery  int `yaml:"ghost_move_every"`

	PowerPelletChance float64 `yaml:"power_pellet_chance"`
	GhostReleaseBase  int     `yaml:"ghost_release_base"`
	GhostReleaseStep  int     `yaml:"ghost_release_step"`

	PelletScore       int `yaml:"pellet_score"`
	PowerPelletScore  int `yaml:"power_pellet_score"`
	CaptureBonus      int `yaml:"capture_bonus"`
	OpportunistRadius int `yaml:"opportunist_radius"`
	AmbushLookahead   int `yaml:"ambush_lookahead"`

	SuperIntroSeconds float64 `yaml:"super_intro_seconds"`
	CellSize          int     `yaml:"cell_size"`
}

// ScoresConfig таблица рекордов: бэкенд, очередь записи и кеш
type ScoresConfig struct {
	Backend   string `yaml:"backend"` // memory | badger | redis | maria | mongo
	Path      string `yaml:"path"`
	RedisAddr string `yaml:"redis_addr"`
	RedisKey  string `yaml:"redis_key"`
	MariaDSN  string `yaml:"maria_dsn"`
	MongoURI  string `yaml:"mongo_uri"`
	MongoDB   string `yaml:"mongo_db"`
	QueueSize int    `yaml:"queue_size"`
	TimeoutMS int    `yaml:"timeout_ms"`

	Cache           string `yaml:"cache"` // none | memory | redis
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	InvalidationURL string `yaml:"invalidation_url"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type MetricsConfig struct {
	Addr          string `yaml:"addr"`
	SampleSeconds int    `yaml:"sample_seconds"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	ToFile bool   `yaml:"to_file"`
}

// Default возвращает эталонную конфигурацию
func Default() *Config {
	return &Config{
		Game: DefaultGame(),
		Scores: ScoresConfig{
			Path:            "data/scores",
			RedisKey:        "mazechase:scores",
			MongoDB:         "mazechase",
			QueueSize:       64,
			TimeoutMS:       2000,
			CacheTTLSeconds: 30,
		},
		EventBus: EventBusConfig{
			Stream:    "MAZE_EVENTS",
			Retention: 24,
		},
		Metrics: MetricsConfig{
			SampleSeconds: 5,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "mazechase",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultGame возвращает параметры игры по умолчанию
func DefaultGame() GameConfig {
	return GameConfig{
		Rows:              31,
		Cols:              28,
		FPS:               30,
		Lives:             3,
		SuperModeFrames:   450,
		DeathFrames:       60,
		PlayerMoveEvery:   4,
		GhostMoveEvery:    6,
		PowerPelletChance: 0.02,
		GhostReleaseBase:  60,
		GhostReleaseStep:  90,
		PelletScore:       10,
		PowerPelletScore:  50,
		CaptureBonus:      200,
		OpportunistRadius: 8,
		AmbushLookahead:   4,
		SuperIntroSeconds: 1.5,
		CellSize:          20,
	}
}

// SuperIntroFrames длительность паузы при входе в суперрежим в кадрах
func (g *GameConfig) SuperIntroFrames() int {
	return int(float64(g.FPS) * g.SuperIntroSeconds)
}

// TickInterval период одного тика
func (g *GameConfig) TickInterval() time.Duration {
	if g.FPS <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(g.FPS)
}

// GetSeed возвращает seed с приоритетом: config -> MAZE_SEED -> текущее время
func (g *GameConfig) GetSeed() int64 {
	if g.Seed != 0 {
		return g.Seed
	}
	if envVal := os.Getenv("MAZE_SEED"); envVal != "" {
		if seed, err := strconv.ParseInt(envVal, 10, 64); err == nil && seed != 0 {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// Validate проверяет параметры игры
func (g *GameConfig) Validate() error {
	switch {
	case g.Rows < MinMazeSide || g.Cols < MinMazeSide:
		return fmt.Errorf("%w: maze %dx%d is smaller than %dx%d", ErrInvalidConfig, g.Rows, g.Cols, MinMazeSide, MinMazeSide)
	case g.FPS <= 0:
		return fmt.Errorf("%w: fps must be positive, got %d", ErrInvalidConfig, g.FPS)
	case g.Lives <= 0:
		return fmt.Errorf("%w: lives must be positive, got %d", ErrInvalidConfig, g.Lives)
	case g.SuperModeFrames <= 0 || g.DeathFrames <= 0:
		return fmt.Errorf("%w: super mode and death durations must be positive", ErrInvalidConfig)
	case g.PlayerMoveEvery <= 0 || g.GhostMoveEvery <= 0:
		return fmt.Errorf("%w: move intervals must be positive", ErrInvalidConfig)
	case g.PowerPelletChance < 0 || g.PowerPelletChance > 1:
		return fmt.Errorf("%w: power pellet chance %.3f outside [0,1]", ErrInvalidConfig, g.PowerPelletChance)
	case g.GhostReleaseBase < 0 || g.GhostReleaseStep < 0:
		return fmt.Errorf("%w: ghost release schedule must be non-negative", ErrInvalidConfig)
	case g.PelletScore < 0 || g.PowerPelletScore < 0 || g.CaptureBonus < 0:
		return fmt.Errorf("%w: scores must be non-negative", ErrInvalidConfig)
	case g.OpportunistRadius < 0 || g.AmbushLookahead < 0:
		return fmt.Errorf("%w: targeting parameters must be non-negative", ErrInvalidConfig)
	case g.SuperIntroSeconds < 0:
		return fmt.Errorf("%w: super intro must be non-negative", ErrInvalidConfig)
	}
	return nil
}

// GetBackend возвращает бэкенд таблицы рекордов с поддержкой fallback значений
func (s *ScoresConfig) GetBackend() string {
	return getStringWithEnvFallback(s.Backend, "MAZE_SCORE_BACKEND", "memory")
}

// GetRedisAddr возвращает адрес Redis с поддержкой fallback значений
func (s *ScoresConfig) GetRedisAddr() string {
	return getStringWithEnvFallback(s.RedisAddr, "MAZE_REDIS_ADDR", "localhost:6379")
}

// GetMariaDSN возвращает DSN MariaDB с поддержкой fallback значений
func (s *ScoresConfig) GetMariaDSN() string {
	return getStringWithEnvFallback(s.MariaDSN, "MAZE_MARIA_DSN", "maze:maze@tcp(localhost:3306)/mazechase?parseTime=true")
}

// GetMongoURI возвращает URI MongoDB с поддержкой fallback значений
func (s *ScoresConfig) GetMongoURI() string {
	return getStringWithEnvFallback(s.MongoURI, "MAZE_MONGO_URI", "mongodb://localhost:27017")
}

// GetCache возвращает кеш таблицы рекордов с поддержкой fallback значений
func (s *ScoresConfig) GetCache() string {
	return getStringWithEnvFallback(s.Cache, "MAZE_SCORE_CACHE", "none")
}

// CacheTTL время жизни закешированной таблицы
func (s *ScoresConfig) CacheTTL() time.Duration {
	if s.CacheTTLSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

// GetInvalidationURL возвращает адрес NATS для инвалидации кеша. Пустая строка отключает рассылку.
func (s *ScoresConfig) GetInvalidationURL() string {
	return getStringWithEnvFallback(s.InvalidationURL, "MAZE_NATS_URL", "")
}

// Timeout таймаут одной операции с хранилищем
func (s *ScoresConfig) Timeout() time.Duration {
	if s.TimeoutMS <= 0 {
		return 2 * time.Second
	}
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

// GetURL возвращает адрес NATS. Пустая строка означает шину в памяти.
func (e *EventBusConfig) GetURL() string {
	return getStringWithEnvFallback(e.URL, "MAZE_NATS_URL", "")
}

// GetAddr возвращает адрес /metrics с поддержкой fallback значений
func (m *MetricsConfig) GetAddr() string {
	return getStringWithEnvFallback(m.Addr, "MAZE_METRICS_ADDR", ":2112")
}

// GetEndpoint возвращает OTLP endpoint с поддержкой fallback значений
func (t *TelemetryConfig) GetEndpoint() string {
	return getStringWithEnvFallback(t.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
}

// getStringWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getStringWithEnvFallback(configVal, envVar, defaultVal string) string {
	if configVal != "" {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultVal
}

// Load читает YAML файл конфигурации поверх Default.
// Если path == "", берёт путь из ENV MAZE_CONFIG; если и он пуст, возвращает Default.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("MAZE_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Game.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
