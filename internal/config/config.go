// Package config loads server settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Server ServerConfig `toml:"server"`
	Game   GameConfig   `toml:"game"`
	Engine EngineConfig `toml:"engine"`
	Log    LogConfig    `toml:"log"`
}

type ServerConfig struct {
	Addr            string `toml:"addr"`
	AllowOrigins    string `toml:"allow_origins"`
	ReadBufferSize  int    `toml:"read_buffer_size"`
	WriteBufferSize int    `toml:"write_buffer_size"`
}

type GameConfig struct {
	InitialSeconds      int      `toml:"initial_seconds"` // 0 = untimed
	PreRollSeconds      int      `toml:"pre_roll_seconds"`
	GuardCastlingPath   bool     `toml:"guard_castling_path"`
	TickInterval        Duration `toml:"tick_interval"`
	MatchmakingInterval Duration `toml:"matchmaking_interval"`
	FinishedTTL         Duration `toml:"finished_ttl"` // how long an ended, unwatched game is kept
}

type EngineConfig struct {
	Path        string   `toml:"path"` // empty = built-in greedy engine
	Threads     int      `toml:"threads"`
	HashMB      int      `toml:"hash_mb"`
	Difficulty  int      `toml:"difficulty"`
	ReplyDelay  Duration `toml:"reply_delay"`
	MoveTimeout Duration `toml:"move_timeout"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// Duration reads TOML strings such as "500ms" or "1s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":3000",
			AllowOrigins:    "http://localhost:5173",
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		Game: GameConfig{
			InitialSeconds:      600,
			PreRollSeconds:      3,
			TickInterval:        Duration{time.Second},
			MatchmakingInterval: Duration{time.Second},
			FinishedTTL:         Duration{5 * time.Minute},
		},
		Engine: EngineConfig{
			Difficulty:  5,
			ReplyDelay:  Duration{500 * time.Millisecond},
			MoveTimeout: Duration{5 * time.Second},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path over Default. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes data into cfg, keeping fields the document leaves out,
// and validates the result.
func Parse(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("%w: unknown key %s", ErrInvalidConfig, undecoded[0])
	}
	return cfg.validate()
}

func (c *Config) validate() error {
	switch {
	case c.Server.Addr == "":
		return fmt.Errorf("%w: server.addr is empty", ErrInvalidConfig)
	case c.Game.InitialSeconds < 0:
		return fmt.Errorf("%w: game.initial_seconds must be >= 0", ErrInvalidConfig)
	case c.Game.PreRollSeconds < 0:
		return fmt.Errorf("%w: game.pre_roll_seconds must be >= 0", ErrInvalidConfig)
	case c.Game.TickInterval.Duration <= 0:
		return fmt.Errorf("%w: game.tick_interval must be positive", ErrInvalidConfig)
	case c.Game.MatchmakingInterval.Duration <= 0:
		return fmt.Errorf("%w: game.matchmaking_interval must be positive", ErrInvalidConfig)
	case c.Game.FinishedTTL.Duration <= 0:
		return fmt.Errorf("%w: game.finished_ttl must be positive", ErrInvalidConfig)
	case c.Engine.Difficulty < 1 || c.Engine.Difficulty > 10:
		return fmt.Errorf("%w: engine.difficulty must be 1..10", ErrInvalidConfig)
	case c.Engine.Threads < 0 || c.Engine.HashMB < 0:
		return fmt.Errorf("%w: engine.threads and engine.hash_mb must be >= 0", ErrInvalidConfig)
	case c.Engine.ReplyDelay.Duration < 0:
		return fmt.Errorf("%w: engine.reply_delay must be >= 0", ErrInvalidConfig)
	case c.Engine.MoveTimeout.Duration <= 0:
		return fmt.Errorf("%w: engine.move_timeout must be positive", ErrInvalidConfig)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}
	return nil
}
