package thicket

import (
	"fmt"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/phanxgames/thicket/physics2d"
)

// SceneEventType identifies a hierarchy lifecycle event.
type SceneEventType uint8

const (
	EventEntityCreated SceneEventType = iota
	EventEntityDestroyed
	EventEntityReparented
)

func (t SceneEventType) String() string {
	switch t {
	case EventEntityCreated:
		return "EntityCreated"
	case EventEntityDestroyed:
		return "EntityDestroyed"
	case EventEntityReparented:
		return "EntityReparented"
	}
	return "Unknown"
}

// SceneEvent describes a change to the entity hierarchy.
type SceneEvent struct {
	Type   SceneEventType
	Entity Entity
	// Parent is the new parent for EventEntityCreated and
	// EventEntityReparented; NoEntity means the root list.
	Parent Entity
	// ID is the entity's persistent identity.
	ID uint64
}

// EventSink receives scene events. When set on a Scene, hierarchy changes
// are forwarded to it, e.g. to bridge them into an ECS.
type EventSink interface {
	EmitEvent(event SceneEvent)
}

// AssetResolver turns placeholder texture references into loaded textures.
type AssetResolver interface {
	ResolveTexture(path string) (*Texture2D, bool)
}

// Scene owns the entities, their components and the root list. Every entity
// with a parent appears in exactly one children list; every other entity
// appears in the root list.
type Scene struct {
	entities entityStore
	registry registry
	roots    []Entity

	viewportWidth  uint32
	viewportHeight uint32

	physics    *physics2d.World
	sink       EventSink
	debug      bool
	updateFunc func(dt float64) error
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{registry: newRegistry()}
}

// --- entities ---

// CreateEntity creates a root entity with a random persistent ID. An empty
// name becomes "Entity".
func (s *Scene) CreateEntity(name string) Entity {
	return s.create(NoEntity, rand.Uint64(), name)
}

// CreateEntityWithID creates a root entity with the given persistent ID.
func (s *Scene) CreateEntityWithID(id uint64, name string) Entity {
	return s.create(NoEntity, id, name)
}

// CreateChildEntity creates an entity as the last child of parent.
func (s *Scene) CreateChildEntity(parent Entity, name string) Entity {
	return s.CreateChildEntityWithID(parent, rand.Uint64(), name)
}

// CreateChildEntityWithID creates an entity with the given persistent ID as
// the last child of parent. Panics if parent is not alive.
func (s *Scene) CreateChildEntityWithID(parent Entity, id uint64, name string) Entity {
	if !s.IsAlive(parent) {
		panic(fmt.Sprintf("thicket: parent %v is not alive", parent))
	}
	return s.create(parent, id, name)
}

func (s *Scene) create(parent Entity, id uint64, name string) Entity {
	if name == "" {
		name = "Entity"
	}
	e := s.entities.create()
	s.registry.set(e, NameType.id, &NameComponent{Name: name})
	s.registry.set(e, IDType.id, &IDComponent{ID: id})

	t := newTransform()
	t.attach(s, e)
	s.registry.set(e, TransformType.id, &t)

	if parent == NoEntity {
		s.roots = append(s.roots, e)
	} else {
		pt := s.transform(parent)
		pt.children = append(pt.children, e)
		t.parent = parent
		t.flags |= flagLocalToWorldStale
		t.Invalidate()
		if s.debug {
			s.debugCheckTreeDepth(e)
			s.debugCheckChildCount(parent)
		}
	}

	s.emit(SceneEvent{Type: EventEntityCreated, Entity: e, Parent: parent, ID: id})
	return e
}

// DestroyEntity destroys e and its whole subtree, children first. Physics
// bodies and colliders owned by the destroyed components are released.
// Returns false if e was not alive.
func (s *Scene) DestroyEntity(e Entity) bool {
	if !s.IsAlive(e) {
		return false
	}
	t := s.transform(e)
	for _, c := range append([]Entity(nil), t.children...) {
		s.DestroyEntity(c)
	}
	s.unlink(t)

	id := s.ID(e)
	for _, v := range s.Components(e) {
		if d, ok := v.(interface{ detach(s *Scene) }); ok {
			d.detach(s)
		}
	}
	s.registry.removeAll(e)
	s.entities.destroy(e)

	s.emit(SceneEvent{Type: EventEntityDestroyed, Entity: e, ID: id})
	return true
}

// IsAlive reports whether e refers to a live entity of this scene.
func (s *Scene) IsAlive(e Entity) bool {
	return s.entities.isAlive(e)
}

// EntityCount returns the number of live entities.
func (s *Scene) EntityCount() int {
	return s.entities.count
}

// RootEntities returns the parentless entities in order. The returned slice
// MUST NOT be mutated.
func (s *Scene) RootEntities() []Entity {
	return s.roots
}

// transform is the unchecked lookup used on hot paths. e must be alive.
func (s *Scene) transform(e Entity) *Transform {
	return s.registry.get(e, TransformType.id).(*Transform)
}

// Transform returns e's transform. Panics if e is not alive.
func (s *Scene) Transform(e Entity) *Transform {
	if !s.IsAlive(e) {
		panic(fmt.Sprintf("thicket: Transform of dead entity %v", e))
	}
	return s.transform(e)
}

// Walk visits every entity depth-first in hierarchy order until fn returns
// false. fn must not change the hierarchy.
func (s *Scene) Walk(fn func(Entity) bool) {
	for _, r := range s.roots {
		if !s.walk(r, fn) {
			return
		}
	}
}

// EachEntity calls fn for every entity in hierarchy order.
func (s *Scene) EachEntity(fn func(Entity)) {
	s.Walk(func(e Entity) bool {
		fn(e)
		return true
	})
}

// Name returns e's display name, or "" when e is not alive.
func (s *Scene) Name(e Entity) string {
	if n, ok := GetComponent(s, e, NameType); ok {
		return n.Name
	}
	return ""
}

// SetName renames e.
func (s *Scene) SetName(e Entity, name string) {
	if n, ok := GetComponent(s, e, NameType); ok {
		n.Name = name
	}
}

// ID returns e's persistent identity, or 0 when e is not alive.
func (s *Scene) ID(e Entity) uint64 {
	if c, ok := GetComponent(s, e, IDType); ok {
		return c.ID
	}
	return 0
}

// FindByID returns the entity carrying the persistent identity id.
func (s *Scene) FindByID(id uint64) (Entity, bool) {
	found := NoEntity
	Each(s, IDType, func(e Entity, c *IDComponent) {
		if found == NoEntity && c.ID == id {
			found = e
		}
	})
	return found, found != NoEntity
}

// IsActive reports whether e renders. Entities without an
// ActivationComponent are active.
func (s *Scene) IsActive(e Entity) bool {
	if a, ok := GetComponent(s, e, ActivationType); ok {
		return a.IsActive
	}
	return s.IsAlive(e)
}

// Clone returns a deep copy of the scene's entities, components and root
// list. Entity handles stay valid in the copy. The physics world, event sink
// and update func are not copied; runtime bodies are dropped.
func (s *Scene) Clone() *Scene {
	dup := &Scene{
		entities:       s.entities.clone(),
		registry:       s.registry.clone(),
		roots:          append([]Entity(nil), s.roots...),
		viewportWidth:  s.viewportWidth,
		viewportHeight: s.viewportHeight,
		debug:          s.debug,
	}
	for _, p := range dup.registry.pools {
		for i, v := range p.values {
			if a, ok := v.(attacher); ok {
				a.attach(dup, p.dense[i])
			}
		}
	}
	return dup
}

// --- viewport & assets ---

// SetViewportSize records the viewport and resizes every camera whose
// FixedAspectRatio is set.
func (s *Scene) SetViewportSize(width, height uint32) {
	s.viewportWidth = width
	s.viewportHeight = height
	Each(s, CameraType, func(_ Entity, c *CameraComponent) {
		if c.FixedAspectRatio {
			c.Camera.SetViewportSize(width, height)
		}
	})
}

// ViewportSize returns the last size passed to SetViewportSize.
func (s *Scene) ViewportSize() (width, height uint32) {
	return s.viewportWidth, s.viewportHeight
}

// LoadReferences swaps placeholder sprite textures for the textures r
// resolves. Unresolved placeholders stay in place. Returns the number of
// sprites resolved.
func (s *Scene) LoadReferences(r AssetResolver) int {
	resolved := 0
	Each(s, SpriteRendererType, func(e Entity, sp *SpriteRendererComponent) {
		if sp.Sprite == nil || sp.Sprite.Type() != TexturePlaceholder {
			return
		}
		tex, ok := r.ResolveTexture(sp.Sprite.Path())
		if !ok {
			logger.Warn("unresolved texture reference",
				zap.String("entity", s.Name(e)),
				zap.String("path", sp.Sprite.Path()))
			return
		}
		sp.Sprite = tex
		resolved++
	})
	return resolved
}

// --- physics ---

// InitializePhysics (re)creates the physics world. Every rigid body
// component gets a body seeded from its entity's world position and Z
// rotation; every collider is attached to the nearest body found by
// FindAttachedBody.
func (s *Scene) InitializePhysics(cfg physics2d.WorldConfig) {
	if s.physics != nil {
		s.ShutdownPhysics()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	s.physics = physics2d.NewWorld(cfg)

	Each(s, RigidBody2DType, func(e Entity, rb *RigidBody2DComponent) {
		t := s.transform(e)
		props := rb.Initializer
		p := t.Position()
		props.Position = mgl32.Vec2{p[0], p[1]}
		props.Rotation = mgl32.DegToRad(t.EulerAngles()[2])
		rb.RigidBody = s.physics.CreateBody(props)
		t.flags &^= flagChangedForPhysics
	})

	Each(s, Colliders2DType, func(e Entity, cc *Colliders2DComponent) {
		body := s.FindAttachedBody(e)
		if body == nil {
			logger.Warn("colliders without a rigid body", zap.String("entity", s.Name(e)))
			return
		}
		for i := range cc.Colliders {
			cc.Colliders[i].Collider = body.CreateCollider(cc.Colliders[i].Initializer)
		}
	})
}

// FindAttachedBody walks from e up to the root and returns the body of the
// first entity with a RigidBodyOwner component. Returns nil if there is none.
func (s *Scene) FindAttachedBody(e Entity) *physics2d.RigidBody {
	for p := e; s.IsAlive(p); p = s.transform(p).parent {
		for _, c := range s.Components(p) {
			if owner, ok := c.(RigidBodyOwner); ok {
				return owner.AttachedRigidBody()
			}
		}
	}
	return nil
}

// PhysicsWorld returns the physics world, or nil before InitializePhysics.
func (s *Scene) PhysicsWorld() *physics2d.World {
	return s.physics
}

// ShutdownPhysics releases the physics world and every runtime body.
func (s *Scene) ShutdownPhysics() {
	if s.physics == nil {
		return
	}
	Each(s, RigidBody2DType, func(_ Entity, rb *RigidBody2DComponent) {
		rb.RigidBody = nil
	})
	Each(s, Colliders2DType, func(_ Entity, cc *Colliders2DComponent) {
		for i := range cc.Colliders {
			cc.Colliders[i].Collider = nil
		}
	})
	s.physics.Close()
	s.physics = nil
}

// OnPhysicsUpdate steps the physics world by dt seconds and synchronizes
// enabled bodies with their transforms. A transform that changed since the
// last sync is pushed into its body; otherwise the body's position and Z
// rotation are pulled into the transform.
func (s *Scene) OnPhysicsUpdate(dt float64) {
	if s.physics == nil {
		return
	}
	s.physics.Step(dt)

	Each(s, RigidBody2DType, func(e Entity, rb *RigidBody2DComponent) {
		body := rb.RigidBody
		if body == nil {
			return
		}
		body.SetEnabled(rb.Enabled)
		if !rb.Enabled {
			return
		}

		t := s.transform(e)
		if t.flags&flagChangedForPhysics != 0 {
			p := t.Position()
			body.SetTransform(mgl32.Vec2{p[0], p[1]}, mgl32.DegToRad(t.EulerAngles()[2]))
		} else {
			bp := body.Position()
			z := t.Position()[2]
			t.SetPosition(mgl32.Vec3{bp[0], bp[1], z})
			angles := t.EulerAngles()
			angles[2] = mgl32.RadToDeg(body.Rotation())
			t.SetEulerAngles(angles)
		}
		t.flags &^= flagChangedForPhysics
	})
}

// --- frame ---

// SetUpdateFunc sets a callback run at the end of every OnUpdate.
func (s *Scene) SetUpdateFunc(fn func(dt float64) error) {
	s.updateFunc = fn
}

// OnUpdate steps physics, then advances camera follow and scroll
// animations, then runs the update func.
func (s *Scene) OnUpdate(dt float64) error {
	s.OnPhysicsUpdate(dt)
	Each(s, CameraType, func(_ Entity, c *CameraComponent) {
		c.update(float32(dt))
	})
	if s.updateFunc != nil {
		return s.updateFunc(dt)
	}
	return nil
}

// OnRender renders the sprites once per enabled, active camera in hierarchy
// order. Each camera clears the target with its clear color and flags first.
// Returns false when no camera rendered.
func (s *Scene) OnRender(r *Renderer2D) bool {
	anyCamera := false
	s.EachEntity(func(e Entity) {
		cc, ok := GetComponent(s, e, CameraType)
		if !ok || !cc.Enabled || !s.IsActive(e) {
			return
		}
		anyCamera = true

		r.Device().Clear(cc.Camera.ClearColor(), cc.Camera.ClearFlags())
		r.BeginSceneCamera(s.transform(e).LocalToWorld().Inv(), &cc.Camera)
		s.renderSprites(r)
		r.EndScene()
	})
	return anyCamera
}

// renderSprites submits every enabled sprite of an active entity. Sprites
// without a drawable texture become flat quads of their tint.
func (s *Scene) renderSprites(r *Renderer2D) {
	Each(s, SpriteRendererType, func(e Entity, sp *SpriteRendererComponent) {
		if !sp.Enabled || !s.IsActive(e) {
			return
		}
		m := s.transform(e).LocalToWorld()
		if sp.Sprite != nil && sp.Sprite.Type() != TexturePlaceholder {
			r.DrawTexturedQuad(m, sp.Sprite, sp.extraData())
		} else {
			r.DrawQuad(m, sp.Tint, sp.AlphaClipThreshold)
		}
	})
}

// EndFrame clears every transform's changed-since-last-frame flag.
func (s *Scene) EndFrame() {
	Each(s, TransformType, func(_ Entity, t *Transform) {
		t.flags &^= flagChanged
	})
}

// Update runs one whole frame: OnUpdate, OnRender and EndFrame. It reports
// whether any camera rendered.
func (s *Scene) Update(dt float64, r *Renderer2D) (bool, error) {
	if err := s.OnUpdate(dt); err != nil {
		return false, err
	}
	rendered := s.OnRender(r)
	s.EndFrame()
	return rendered, nil
}

// --- hooks ---

// SetEventSink sets the optional receiver of hierarchy events.
func (s *Scene) SetEventSink(sink EventSink) {
	s.sink = sink
}

func (s *Scene) emit(ev SceneEvent) {
	if s.sink != nil {
		s.sink.EmitEvent(ev)
	}
}

// SetDebugMode enables hierarchy depth and fan-out warnings.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
}
