package thicket

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// SceneCamera is an orthographic projection. Size is the visible height in
// world units; the width follows from the aspect ratio.
type SceneCamera struct {
	size        float32
	near, far   float32
	aspectRatio float32

	clearColor Color
	clearFlags ClearFlags

	projection mgl32.Mat4
}

// NewSceneCamera returns a camera 10 units tall looking down -Z with a
// near/far range of [-1, 1], clearing the color buffer to opaque black.
func NewSceneCamera() SceneCamera {
	c := SceneCamera{
		size:        10,
		near:        -1,
		far:         1,
		aspectRatio: 1,
		clearColor:  Color{0, 0, 0, 1},
		clearFlags:  ClearColorBuffer | ClearDepthBuffer,
	}
	c.recalculate()
	return c
}

func (c *SceneCamera) recalculate() {
	halfH := c.size * 0.5
	halfW := halfH * c.aspectRatio
	c.projection = mgl32.Ortho(-halfW, halfW, -halfH, halfH, c.near, c.far)
}

// Projection returns the projection matrix.
func (c *SceneCamera) Projection() mgl32.Mat4 {
	return c.projection
}

// SetOrthographic sets size, near and far together.
func (c *SceneCamera) SetOrthographic(size, near, far float32) {
	c.size, c.near, c.far = size, near, far
	c.recalculate()
}

// OrthographicSize returns the visible height in world units.
func (c *SceneCamera) OrthographicSize() float32 { return c.size }

// SetOrthographicSize sets the visible height in world units.
func (c *SceneCamera) SetOrthographicSize(size float32) {
	c.size = size
	c.recalculate()
}

// NearClip returns the near plane.
func (c *SceneCamera) NearClip() float32 { return c.near }

// FarClip returns the far plane.
func (c *SceneCamera) FarClip() float32 { return c.far }

// AspectRatio returns width divided by height.
func (c *SceneCamera) AspectRatio() float32 { return c.aspectRatio }

// SetAspectRatio sets width divided by height.
func (c *SceneCamera) SetAspectRatio(aspect float32) {
	c.aspectRatio = aspect
	c.recalculate()
}

// SetViewportSize derives the aspect ratio from a viewport in pixels. A zero
// height is ignored.
func (c *SceneCamera) SetViewportSize(width, height uint32) {
	if height == 0 {
		return
	}
	c.SetAspectRatio(float32(width) / float32(height))
}

// ClearColor returns the color the camera clears to.
func (c *SceneCamera) ClearColor() Color { return c.clearColor }

// SetClearColor sets the clear color.
func (c *SceneCamera) SetClearColor(col Color) { c.clearColor = col }

// ClearFlags returns the buffers cleared before rendering.
func (c *SceneCamera) ClearFlags() ClearFlags { return c.clearFlags }

// SetClearFlags sets the buffers cleared before rendering.
func (c *SceneCamera) SetClearFlags(f ClearFlags) { c.clearFlags = f }

// ViewportToWorld maps normalized device coordinates in [-1, 1] to world
// space for a camera whose local-to-world matrix is cameraToWorld.
func (c *SceneCamera) ViewportToWorld(cameraToWorld mgl32.Mat4, ndc mgl32.Vec2) mgl32.Vec3 {
	inv := c.projection.Mul4(cameraToWorld.Inv()).Inv()
	p := inv.Mul4x1(mgl32.Vec4{ndc[0], ndc[1], 0, 1})
	if p[3] != 0 {
		p = p.Mul(1 / p[3])
	}
	return p.Vec3()
}

// --- camera component ---

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// CameraComponent renders the scene from its entity's transform. Enabled
// cameras render in hierarchy order.
type CameraComponent struct {
	Camera SceneCamera
	// FixedAspectRatio cameras follow Scene.SetViewportSize.
	FixedAspectRatio bool
	Enabled          bool

	scene  *Scene
	entity Entity

	scroll       *scrollAnim
	followTarget Entity
	followOffset mgl32.Vec2
	followLerp   float32
}

// CameraType is the registry key of CameraComponent.
var CameraType = NewComponentType[CameraComponent]("Camera")

// NewCameraComponent returns an enabled camera component tracking the
// viewport aspect ratio.
func NewCameraComponent(cam SceneCamera) CameraComponent {
	return CameraComponent{
		Camera:           cam,
		FixedAspectRatio: true,
		Enabled:          true,
	}
}

func (c *CameraComponent) attach(s *Scene, e Entity) {
	c.scene = s
	c.entity = e
}

// CloneComponent implements Cloner. Running animations are not copied.
func (c *CameraComponent) CloneComponent() any {
	dup := *c
	dup.scroll = nil
	return &dup
}

// ScrollTo animates the camera entity's world X/Y to (x, y) over duration
// seconds. Any running scroll is replaced.
func (c *CameraComponent) ScrollTo(x, y float32, duration float32, easeFn ease.TweenFunc) {
	p := c.scene.Transform(c.entity).Position()
	c.scroll = &scrollAnim{
		tweenX: gween.New(p[0], x, duration, easeFn),
		tweenY: gween.New(p[1], y, duration, easeFn),
	}
}

// Scrolling reports whether a ScrollTo animation is running.
func (c *CameraComponent) Scrolling() bool {
	return c.scroll != nil
}

// Follow makes the camera move toward target plus offset each update,
// covering lerp (0..1] of the remaining distance per frame.
func (c *CameraComponent) Follow(target Entity, offset mgl32.Vec2, lerp float32) {
	c.followTarget = target
	c.followOffset = offset
	c.followLerp = lerp
}

// Unfollow stops following.
func (c *CameraComponent) Unfollow() {
	c.followTarget = NoEntity
}

// update advances follow and scroll animations. Called from Scene.Update.
func (c *CameraComponent) update(dt float32) {
	if c.followTarget == NoEntity && c.scroll == nil {
		return
	}
	t := c.scene.Transform(c.entity)
	p := t.Position()
	next := p

	if c.followTarget != NoEntity && c.scene.IsAlive(c.followTarget) {
		target := c.scene.Transform(c.followTarget).Position()
		next[0] += (target[0] + c.followOffset[0] - next[0]) * c.followLerp
		next[1] += (target[1] + c.followOffset[1] - next[1]) * c.followLerp
	}

	if c.scroll != nil {
		if !c.scroll.doneX {
			next[0], c.scroll.doneX = c.scroll.tweenX.Update(dt)
		}
		if !c.scroll.doneY {
			next[1], c.scroll.doneY = c.scroll.tweenY.Update(dt)
		}
		if c.scroll.doneX && c.scroll.doneY {
			c.scroll = nil
		}
	}

	if next != p {
		t.SetPosition(next)
	}
}
