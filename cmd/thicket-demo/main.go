// thicket-demo drops textured boxes onto a static floor under a following
// camera. Edit the config file while it runs to toggle debug logging or
// change the log level.
package main

import (
	"context"
	"flag"
	"image"
	"image/color"
	"log"
	"math/rand/v2"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/profile"
	"github.com/tanema/gween/ease"
	"github.com/yohamta/donburi"
	"go.uber.org/zap"

	"github.com/phanxgames/thicket"
	"github.com/phanxgames/thicket/ecs"
	"github.com/phanxgames/thicket/physics2d"
)

const (
	boxCount = 40
	floorY   = -4
	respawnY = -30
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or TOML config file")
	atlasPath := flag.String("atlas", "", "TexturePacker JSON atlas")
	pagePath := flag.String("page", "", "atlas page image")
	region := flag.String("region", "", "atlas region used for the boxes")
	profileMode := flag.String("profile", "", "cpu or mem")
	shotDir := flag.String("screenshots", "screenshots", "directory for F12 screenshots; empty disables")
	flag.Parse()

	cfg := thicket.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = thicket.LoadConfig(*configPath); err != nil {
			log.Fatal(err)
		}
	}

	zl, err := thicket.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync()
	thicket.SetLogger(zl)

	switch *profileMode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	dev := thicket.NewEbitenDevice(cfg.Renderer.MaxTextureSlots)
	boxTex := checkerTexture(dev)
	if *atlasPath != "" {
		if tex, err := atlasTexture(dev, *atlasPath, *pagePath, *region); err != nil {
			zl.Warn("atlas not loaded, using checker texture", zap.Error(err))
		} else {
			boxTex = tex
		}
	}

	world := donburi.NewWorld()
	mirror := ecs.NewMirror(world)

	scene := thicket.NewScene()
	scene.SetEventSink(mirror)
	camEntity, boxes := buildScene(scene, boxTex)
	scene.InitializePhysics(cfg.Physics.WorldConfig())

	cam, _ := thicket.GetComponent(scene, camEntity, thicket.CameraType)
	cam.ScrollTo(0, 2, 1.5, ease.OutCubic)

	scene.SetUpdateFunc(func(dt float64) error {
		ecs.SceneEventType.ProcessEvents(world)
		for _, b := range boxes {
			t := scene.Transform(b)
			if t.Position()[1] < respawnY {
				t.SetPosition(mgl32.Vec3{rand.Float32()*10 - 5, 12, 0})
			}
		}
		if !cam.Scrolling() {
			cam.Follow(boxes[0], mgl32.Vec2{0, 2}, 0.05)
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var updates <-chan thicket.Config
	if *configPath != "" {
		if updates, err = thicket.WatchConfig(ctx, *configPath); err != nil {
			zl.Warn("config watch disabled", zap.Error(err))
		}
	}

	err = thicket.Run(scene, thicket.RunConfig{
		Window:        cfg.Window,
		Renderer:      cfg.Renderer,
		Device:        dev,
		ConfigUpdates: updates,
		ScreenshotDir: *shotDir,
		OnConfig: func(s *thicket.Scene, r *thicket.Renderer2D, c thicket.Config) {
			s.SetDebugMode(c.Renderer.Debug)
			r.SetDebug(c.Renderer.Debug)
			if l, err := thicket.NewLogger(c.Logging); err == nil {
				thicket.SetLogger(l)
			}
		},
	})
	zl.Info("exiting", zap.Int("mirroredEntities", mirror.Len()))
	if err != nil {
		zl.Error("game loop failed", zap.Error(err))
		os.Exit(1)
	}
}

// buildScene creates the camera, the floor and the falling boxes.
func buildScene(scene *thicket.Scene, boxTex *thicket.Texture2D) (thicket.Entity, []thicket.Entity) {
	cam := scene.CreateEntity("Camera")
	sc := thicket.NewSceneCamera()
	sc.SetOrthographicSize(24)
	sc.SetClearColor(thicket.Color{R: 0.06, G: 0.06, B: 0.09, A: 1})
	thicket.AddComponent(scene, cam, thicket.CameraType, thicket.NewCameraComponent(sc))

	floor := scene.CreateEntity("Floor")
	ft := scene.Transform(floor)
	ft.SetLocalPosition(mgl32.Vec3{0, floorY, 0})
	ft.SetLocalScale(mgl32.Vec3{30, 1, 1})
	floorSprite := thicket.NewSpriteRenderer(nil)
	floorSprite.Tint = thicket.Color{R: 0.3, G: 0.35, B: 0.4, A: 1}
	thicket.AddComponent(scene, floor, thicket.SpriteRendererType, floorSprite)
	thicket.AddComponent(scene, floor, thicket.RigidBody2DType, thicket.NewRigidBody2D(physics2d.DefaultRigidBodyProps()))
	floorShape := physics2d.DefaultColliderProps()
	floorShape.Size = mgl32.Vec2{30, 1}
	floorColliders := thicket.Colliders2DComponent{}
	floorColliders.Add(floorShape)
	thicket.AddComponent(scene, floor, thicket.Colliders2DType, floorColliders)

	boxes := make([]thicket.Entity, boxCount)
	for i := range boxes {
		e := scene.CreateEntity("Box")
		t := scene.Transform(e)
		t.SetLocalPosition(mgl32.Vec3{rand.Float32()*10 - 5, float32(i)*1.5 + 2, 0})
		t.SetLocalEulerAngles(mgl32.Vec3{0, 0, rand.Float32() * 90})

		sprite := thicket.NewSpriteRenderer(boxTex)
		sprite.Tint = thicket.Color{
			R: 0.5 + rand.Float32()*0.5,
			G: 0.5 + rand.Float32()*0.5,
			B: 0.5 + rand.Float32()*0.5,
			A: 1,
		}
		thicket.AddComponent(scene, e, thicket.SpriteRendererType, sprite)

		props := physics2d.DefaultRigidBodyProps()
		props.Type = physics2d.BodyDynamic
		thicket.AddComponent(scene, e, thicket.RigidBody2DType, thicket.NewRigidBody2D(props))

		col := physics2d.DefaultColliderProps()
		col.Restitution = 0.25
		colliders := thicket.Colliders2DComponent{}
		colliders.Add(col)
		thicket.AddComponent(scene, e, thicket.Colliders2DType, colliders)
		boxes[i] = e
	}
	return cam, boxes
}

// checkerTexture builds a 16x16 two-tone checkerboard.
func checkerTexture(dev thicket.Device) *thicket.Texture2D {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := range 16 {
		for x := range 16 {
			c := color.RGBA{255, 255, 255, 255}
			if (x/4+y/4)%2 == 1 {
				c = color.RGBA{180, 180, 180, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return thicket.NewTexture2DFromImage(dev, img)
}

func atlasTexture(dev thicket.Device, atlasPath, pagePath, region string) (*thicket.Texture2D, error) {
	page, err := thicket.LoadTexture2D(dev, pagePath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(atlasPath)
	if err != nil {
		return nil, err
	}
	atlas, err := thicket.LoadAtlas(data, []*thicket.Texture2D{page})
	if err != nil {
		return nil, err
	}
	if region == "" {
		if names := atlas.Names(); len(names) > 0 {
			region = names[0]
		}
	}
	return atlas.Texture(region), nil
}
