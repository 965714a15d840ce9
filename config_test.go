package thicket

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10, cfg.Renderer.InitialQuadCapacity)
	assert.Equal(t, 16, cfg.Renderer.MaxTextureSlots)
	assert.Equal(t, [2]float32{0, -9.8}, cfg.Physics.Gravity)
	assert.InDelta(t, 1.0/60, cfg.Physics.FixedTimeStep, 1e-12)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	writeFile(t, path, `
window:
  title: demo
  width: 640
renderer:
  max_texture_slots: 8
  debug: true
physics:
  gravity: [0, -20]
logging:
  level: debug
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Window.Title)
	assert.Equal(t, 640, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height, "unset keys keep defaults")
	assert.Equal(t, 8, cfg.Renderer.MaxTextureSlots)
	assert.Equal(t, 10, cfg.Renderer.InitialQuadCapacity)
	assert.True(t, cfg.Renderer.Debug)
	assert.Equal(t, [2]float32{0, -20}, cfg.Physics.Gravity)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.toml")
	writeFile(t, path, `
[renderer]
initial_quad_capacity = 256

[physics]
gravity = [1.5, 0.0]
max_sub_steps = 4

[logging]
format = "json"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Renderer.InitialQuadCapacity)
	assert.Equal(t, [2]float32{1.5, 0}, cfg.Physics.Gravity)
	assert.Equal(t, 4, cfg.Physics.MaxSubSteps)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "thicket", cfg.Window.Title)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.toml")
	writeFile(t, bad, "[renderer\n")
	cfg, err := LoadConfig(bad)
	assert.Error(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestPhysicsConfigWorldConfig(t *testing.T) {
	pc := DefaultConfig().Physics
	pc.Gravity = [2]float32{3, 4}
	wc := pc.WorldConfig()
	assert.Equal(t, mgl32.Vec2{3, 4}, wc.Gravity)
	assert.Equal(t, pc.MaxSubSteps, wc.MaxSubSteps)
	assert.NotNil(t, wc.Logger)
}

func TestNewLoggerLevels(t *testing.T) {
	l, err := NewLogger(LoggingConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(-1), "debug disabled at warn")
	assert.True(t, l.Core().Enabled(1), "warn enabled")

	l, err = NewLogger(LoggingConfig{Level: "nonsense"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(0), "unknown level falls back to info")
	assert.False(t, l.Core().Enabled(-1))
}

func TestWatchConfigReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	writeFile(t, path, "window:\n  title: before\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates, err := WatchConfig(ctx, path)
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, "other.yaml"), "window:\n  title: ignored\n")
	tmp := filepath.Join(dir, "engine.yaml.tmp")
	writeFile(t, tmp, "window:\n  title: after\n")
	require.NoError(t, os.Rename(tmp, path))

	select {
	case cfg := <-updates:
		assert.Equal(t, "after", cfg.Window.Title)
	case <-time.After(5 * time.Second):
		t.Fatal("no config reload")
	}

	cancel()
	select {
	case _, ok := <-updates:
		for ok {
			_, ok = <-updates
		}
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
