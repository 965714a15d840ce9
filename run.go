package thicket

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"
)

// ScreenshotKey saves a screenshot when RunConfig.ScreenshotDir is set.
const ScreenshotKey = ebiten.KeyF12

// RunConfig configures Run.
type RunConfig struct {
	Window   WindowConfig
	Renderer RendererConfig

	// Device is the device textures were uploaded to. Nil creates one.
	Device *EbitenDevice

	// ConfigUpdates, when set, is polled once per tick. Each received config
	// is passed to OnConfig. WatchConfig returns a suitable channel.
	ConfigUpdates <-chan Config
	OnConfig      func(*Scene, *Renderer2D, Config)

	// ScreenshotDir enables ScreenshotKey. Screenshots are written there.
	ScreenshotDir string
}

// Run opens a window and drives scene with a fixed timestep of 1/TPS until
// the window is closed or the scene's update func returns an error.
//
// Change flags are cleared at the end of every tick, after the update funcs
// ran. For full control, implement ebiten.Game yourself with an
// EbitenDevice and call Scene.OnUpdate, Scene.OnRender and Scene.EndFrame
// directly.
func Run(scene *Scene, cfg RunConfig) error {
	if cfg.Window.TPS <= 0 {
		cfg.Window.TPS = ebiten.DefaultTPS
	}
	dev := cfg.Device
	if dev == nil {
		slots := cfg.Renderer.MaxTextureSlots
		if slots <= 0 {
			slots = DefaultRendererConfig().MaxTextureSlots
		}
		dev = NewEbitenDevice(slots)
	}
	r, err := NewRenderer2D(dev, cfg.Renderer)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	defer r.Shutdown()

	g := &game{scene: scene, renderer: r, device: dev, cfg: cfg}
	if cfg.Window.ShowFPS {
		g.fps = newFPSOverlay()
	}

	ebiten.SetWindowTitle(cfg.Window.Title)
	if cfg.Window.Width > 0 && cfg.Window.Height > 0 {
		ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.Window.TPS)

	logger.Info("starting game loop",
		zap.String("title", cfg.Window.Title),
		zap.Int("tps", cfg.Window.TPS),
		zap.Int("textureSlots", r.MaxTextureSlots()))
	return ebiten.RunGame(g)
}

// game adapts a Scene to ebiten.Game.
type game struct {
	scene    *Scene
	renderer *Renderer2D
	device   *EbitenDevice
	cfg      RunConfig
	fps      *fpsOverlay

	width, height int
	ticks         int
	shotPending   bool
}

func (g *game) Update() error {
	select {
	case c, ok := <-g.cfg.ConfigUpdates:
		if ok && g.cfg.OnConfig != nil {
			g.cfg.OnConfig(g.scene, g.renderer, c)
		}
	default:
	}

	if g.cfg.ScreenshotDir != "" && inpututil.IsKeyJustPressed(ScreenshotKey) {
		g.shotPending = true
	}

	dt := 1.0 / float64(g.cfg.Window.TPS)
	if err := g.scene.OnUpdate(dt); err != nil {
		return err
	}
	if g.fps != nil {
		g.fps.update(dt, g.renderer.Stats())
	}
	// once per second
	g.ticks++
	if g.ticks%g.cfg.Window.TPS == 0 {
		g.scene.DebugSummary(g.renderer)
	}
	// ebiten may run several updates per draw, or none; change flags
	// cover one tick.
	g.scene.EndFrame()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.device.SetTarget(screen)
	g.scene.OnRender(g.renderer)
	if g.shotPending {
		g.shotPending = false
		if _, err := SaveScreenshot(screen, g.cfg.ScreenshotDir, g.cfg.Window.Title); err != nil {
			logger.Warn("screenshot failed", zap.Error(err))
		}
	}
	if g.fps != nil {
		g.fps.draw(screen)
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.scene.SetViewportSize(uint32(outsideWidth), uint32(outsideHeight))
	}
	return outsideWidth, outsideHeight
}
