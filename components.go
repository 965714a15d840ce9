package thicket

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/phanxgames/thicket/physics2d"
)

// NameComponent is the display name of an entity.
type NameComponent struct {
	Name string
}

// IDComponent is the persistent identity of an entity. Unlike the Entity
// handle it survives scene copies and serialization.
type IDComponent struct {
	ID uint64
}

// ActivationComponent switches an entity's rendering and cameras on or off.
// Entities without one are active.
type ActivationComponent struct {
	IsActive bool
}

// SpriteRendererComponent draws a quad at the entity's transform. A nil or
// placeholder Sprite draws a flat quad of Tint.
type SpriteRendererComponent struct {
	Sprite *Texture2D
	Tint   Color

	Tiling mgl32.Vec2
	Offset mgl32.Vec2
	FlipX  bool
	FlipY  bool

	Wrapping  [2]TextureWrapping
	Filtering TextureFiltering

	AlphaClipThreshold float32

	OverrideBorderColor bool
	BorderColor         Color

	Enabled bool
}

// NewSpriteRenderer returns an enabled, untinted sprite.
func NewSpriteRenderer(sprite *Texture2D) SpriteRendererComponent {
	return SpriteRendererComponent{
		Sprite:  sprite,
		Tint:    ColorWhite,
		Tiling:  mgl32.Vec2{1, 1},
		Enabled: true,
	}
}

// extraData returns the sampling parameters for the renderer.
func (c *SpriteRendererComponent) extraData() TexturedQuadExtraData {
	return TexturedQuadExtraData{
		Tint:                c.Tint,
		Tiling:              c.Tiling,
		Offset:              c.Offset,
		FlipX:               c.FlipX,
		FlipY:               c.FlipY,
		Wrapping:            c.Wrapping,
		Filtering:           c.Filtering,
		AlphaClipThreshold:  c.AlphaClipThreshold,
		OverrideBorderColor: c.OverrideBorderColor,
		BorderColor:         c.BorderColor,
	}
}

// RigidBodyOwner is implemented by components that own a physics body.
// Colliders attach to the nearest entity, walking up from their own, that
// carries such a component.
type RigidBodyOwner interface {
	AttachedRigidBody() *physics2d.RigidBody
}

// RigidBody2DComponent simulates its entity with a physics body. Initializer
// seeds the body when the scene initializes physics; RigidBody is the live
// body afterwards.
type RigidBody2DComponent struct {
	Initializer physics2d.RigidBodyProps
	RigidBody   *physics2d.RigidBody
	Enabled     bool
}

// NewRigidBody2D returns an enabled component created from props.
func NewRigidBody2D(props physics2d.RigidBodyProps) RigidBody2DComponent {
	return RigidBody2DComponent{Initializer: props, Enabled: true}
}

// AttachedRigidBody implements RigidBodyOwner.
func (c *RigidBody2DComponent) AttachedRigidBody() *physics2d.RigidBody {
	return c.RigidBody
}

// CloneComponent implements Cloner. The copy has no live body.
func (c *RigidBody2DComponent) CloneComponent() any {
	dup := *c
	dup.RigidBody = nil
	return &dup
}

// detach releases the live body when the component is removed.
func (c *RigidBody2DComponent) detach(s *Scene) {
	if s.physics != nil && c.RigidBody != nil {
		s.physics.DestroyBody(c.RigidBody)
	}
	c.RigidBody = nil
}

// ColliderData pairs a collider initializer with its live collider.
type ColliderData struct {
	Initializer physics2d.ColliderProps
	Collider    *physics2d.Collider
}

// Colliders2DComponent stores every collider shape of an entity. The shapes
// belong to the body found by walking up the hierarchy to the nearest
// RigidBodyOwner.
type Colliders2DComponent struct {
	Colliders []ColliderData
}

// Add appends a collider initializer.
func (c *Colliders2DComponent) Add(props physics2d.ColliderProps) {
	c.Colliders = append(c.Colliders, ColliderData{Initializer: props})
}

// CloneComponent implements Cloner. The copy has no live colliders.
func (c *Colliders2DComponent) CloneComponent() any {
	dup := &Colliders2DComponent{Colliders: make([]ColliderData, len(c.Colliders))}
	for i, d := range c.Colliders {
		dup.Colliders[i] = ColliderData{Initializer: d.Initializer}
	}
	return dup
}

// detach releases live colliders when the component is removed.
func (c *Colliders2DComponent) detach(s *Scene) {
	for i := range c.Colliders {
		col := c.Colliders[i].Collider
		if col != nil && col.Body() != nil {
			col.Body().DestroyCollider(col)
		}
		c.Colliders[i].Collider = nil
	}
}

// Registry keys of the built-in components.
var (
	NameType           = NewComponentType[NameComponent]("Name")
	IDType             = NewComponentType[IDComponent]("ID")
	ActivationType     = NewComponentType[ActivationComponent]("Activation")
	SpriteRendererType = NewComponentType[SpriteRendererComponent]("SpriteRenderer")
	RigidBody2DType    = NewComponentType[RigidBody2DComponent]("RigidBody2D")
	Colliders2DType    = NewComponentType[Colliders2DComponent]("Colliders2D")
)
