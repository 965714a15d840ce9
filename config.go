package thicket

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/phanxgames/thicket/physics2d"
)

// Config is the engine configuration file.
type Config struct {
	Window   WindowConfig   `yaml:"window" toml:"window"`
	Renderer RendererConfig `yaml:"renderer" toml:"renderer"`
	Physics  PhysicsConfig  `yaml:"physics" toml:"physics"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// WindowConfig configures the game window opened by Run.
type WindowConfig struct {
	Title   string `yaml:"title" toml:"title"`
	Width   int    `yaml:"width" toml:"width"`
	Height  int    `yaml:"height" toml:"height"`
	TPS     int    `yaml:"tps" toml:"tps"` // updates per second
	ShowFPS bool   `yaml:"show_fps" toml:"show_fps"`
}

// PhysicsConfig configures the physics world created by
// Scene.InitializePhysics.
type PhysicsConfig struct {
	Gravity       [2]float32 `yaml:"gravity" toml:"gravity"`
	FixedTimeStep float64    `yaml:"fixed_time_step" toml:"fixed_time_step"`
	MaxSubSteps   int        `yaml:"max_sub_steps" toml:"max_sub_steps"`
	Iterations    int        `yaml:"iterations" toml:"iterations"`
}

// WorldConfig converts c into a physics2d.WorldConfig logging through the
// package logger.
func (c PhysicsConfig) WorldConfig() physics2d.WorldConfig {
	return physics2d.WorldConfig{
		Gravity:       mgl32.Vec2{c.Gravity[0], c.Gravity[1]},
		FixedTimeStep: c.FixedTimeStep,
		MaxSubSteps:   c.MaxSubSteps,
		Iterations:    c.Iterations,
		Logger:        logger,
	}
}

// LoggingConfig configures NewLogger.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // console or json
}

// DefaultConfig returns the configuration used for missing keys.
func DefaultConfig() Config {
	w := physics2d.DefaultWorldConfig()
	return Config{
		Window: WindowConfig{
			Title:  "thicket",
			Width:  1280,
			Height: 720,
			TPS:    60,
		},
		Renderer: DefaultRendererConfig(),
		Physics: PhysicsConfig{
			Gravity:       [2]float32{w.Gravity[0], w.Gravity[1]},
			FixedTimeStep: w.FixedTimeStep,
			MaxSubSteps:   w.MaxSubSteps,
			Iterations:    w.Iterations,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig reads the file at path on top of DefaultConfig. Files ending in
// .toml are decoded as TOML, everything else as YAML.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := decodeConfig(path, data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeConfig(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// configDebounce is how long WatchConfig waits after the last change to the
// file before reloading it. Editors often write a file several times per save.
const configDebounce = 100 * time.Millisecond

// WatchConfig reloads the file at path after it is written, created or
// renamed into place, and sends each successfully parsed config on the
// returned channel. The channel is closed once ctx is done. Parse errors are
// logged and skipped. The parent directory is watched so that editors that
// replace the file keep being tracked.
func WatchConfig(ctx context.Context, path string) (<-chan Config, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch config: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch config %s: %w", path, err)
	}

	out := make(chan Config, 1)
	go func() {
		defer close(out)
		defer w.Close()

		var reload <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if name, _ := filepath.Abs(event.Name); name != abs {
					continue
				}
				reload = time.After(configDebounce)
			case <-reload:
				reload = nil
				cfg, err := LoadConfig(abs)
				if err != nil {
					logger.Warn("config reload failed", zap.String("path", path), zap.Error(err))
					continue
				}
				logger.Info("config reloaded", zap.String("path", path))
				select {
				case out <- cfg:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", zap.Error(err))
			}
		}
	}()
	return out, nil
}
