package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"collectarena/arena"
)

type Config struct {
	Server  Server  `yaml:"server"`
	Arena   Arena   `yaml:"arena"`
	Game    Game    `yaml:"game"`
	Log     Log     `yaml:"log"`
	Journal Journal `yaml:"journal"`
}

type Server struct {
	Addr            string  `yaml:"addr"`
	StaticDir       string  `yaml:"static_dir"`
	DefaultRoom     string  `yaml:"default_room"`
	SendQueue       int     `yaml:"send_queue"`
	InputsPerSecond float64 `yaml:"inputs_per_second"` // 0 表示不限流
	InputBurst      int     `yaml:"input_burst"`
}

type Arena struct {
	Width               int `yaml:"width"`
	Height              int `yaml:"height"`
	PlayerSize          int `yaml:"player_size"`
	CollectibleSize     int `yaml:"collectible_size"`
	MinValue            int `yaml:"min_value"`
	MaxValue            int `yaml:"max_value"`
	InitialCollectibles int `yaml:"initial_collectibles"`
}

type Game struct {
	MaxSpeed int `yaml:"max_speed"` // 0 表示信任客户端速度
}

type Log struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type Journal struct {
	Dir string `yaml:"dir"` // 为空时不记录
}

func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":3000",
			StaticDir:       "public",
			DefaultRoom:     "arena-1",
			SendQueue:       64,
			InputsPerSecond: 120,
			InputBurst:      30,
		},
		Arena: Arena{
			Width:               arena.DefaultWidth,
			Height:              arena.DefaultHeight,
			PlayerSize:          arena.DefaultPlayerSize,
			CollectibleSize:     arena.DefaultCollectibleSize,
			MinValue:            arena.DefaultMinValue,
			MaxValue:            arena.DefaultMaxValue,
			InitialCollectibles: 1,
		},
		Game: Game{MaxSpeed: 10},
		Log: Log{
			File:       "app.log",
			Level:      "info",
			Console:    true,
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

func (c Config) Bounds() arena.Bounds {
	return arena.Bounds{
		Width:           c.Arena.Width,
		Height:          c.Arena.Height,
		PlayerSize:      c.Arena.PlayerSize,
		CollectibleSize: c.Arena.CollectibleSize,
	}
}

// Load 依次应用：默认值 -> YAML 文件（可选）-> .env / PORT 环境变量
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return c, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return c, fmt.Errorf("load .env: %w", err)
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(port, ":")
	}
}

func (c Config) Validate() error {
	a := c.Arena
	switch {
	case a.Width <= 0 || a.Height <= 0:
		return fmt.Errorf("arena: width and height must be positive, got %dx%d", a.Width, a.Height)
	case a.PlayerSize <= 0 || a.CollectibleSize <= 0:
		return fmt.Errorf("arena: entity sizes must be positive")
	case a.PlayerSize > a.Width || a.PlayerSize > a.Height:
		return fmt.Errorf("arena: player_size %d does not fit %dx%d", a.PlayerSize, a.Width, a.Height)
	case a.CollectibleSize > a.Width || a.CollectibleSize > a.Height:
		return fmt.Errorf("arena: collectible_size %d does not fit %dx%d", a.CollectibleSize, a.Width, a.Height)
	case a.MinValue > a.MaxValue:
		return fmt.Errorf("arena: min_value %d > max_value %d", a.MinValue, a.MaxValue)
	case a.InitialCollectibles < 1:
		return fmt.Errorf("arena: initial_collectibles must be at least 1")
	case c.Game.MaxSpeed < 0:
		return fmt.Errorf("game: max_speed must not be negative")
	case c.Server.SendQueue <= 0:
		return fmt.Errorf("server: send_queue must be positive")
	}
	return nil
}

// Marshal 输出 YAML，用于 `config` 子命令
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
