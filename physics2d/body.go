package physics2d

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/jakecoffman/cp"
)

// BodyType is how the solver treats a body.
type BodyType int

const (
	BodyStatic    BodyType = iota // never moves
	BodyKinematic                 // moved by velocity only, infinite mass
	BodyDynamic                   // fully simulated
)

func (t BodyType) String() string {
	switch t {
	case BodyStatic:
		return "static"
	case BodyKinematic:
		return "kinematic"
	case BodyDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

func (t BodyType) cpType() int {
	switch t {
	case BodyKinematic:
		return cp.BODY_KINEMATIC
	case BodyDynamic:
		return cp.BODY_DYNAMIC
	default:
		return cp.BODY_STATIC
	}
}

// RigidBodyProps is the initializer for a body.
type RigidBodyProps struct {
	Type BodyType `yaml:"type"`

	Position mgl32.Vec2 `yaml:"position"`
	Rotation float32    `yaml:"rotation"` // radians

	LinearVelocity  mgl32.Vec2 `yaml:"linear_velocity"`
	AngularVelocity float32    `yaml:"angular_velocity"`

	LinearDamping  float32 `yaml:"linear_damping"`
	AngularDamping float32 `yaml:"angular_damping"`

	AllowSleep    bool    `yaml:"allow_sleep"`
	Awake         bool    `yaml:"awake"`
	Enabled       bool    `yaml:"enabled"`
	FixedRotation bool    `yaml:"fixed_rotation"`
	GravityScale  float32 `yaml:"gravity_scale"`
	Bullet        bool    `yaml:"bullet"`
}

// DefaultRigidBodyProps returns an awake, enabled static body with unit
// gravity scale.
func DefaultRigidBodyProps() RigidBodyProps {
	return RigidBodyProps{
		Type:         BodyStatic,
		AllowSleep:   true,
		Awake:        true,
		Enabled:      true,
		GravityScale: 1,
	}
}

// RigidBody is a solver body owned by a World.
type RigidBody struct {
	world *World
	body  *cp.Body

	colliders []*Collider

	linearDamping float32
	gravityScale  float32
	fixedRotation bool
	freeMoment    float64 // moment to restore when rotation is unlocked
	allowSleep    bool
	held          bool // put to sleep by the caller; see SetAwake
	bullet        bool
}

func newRigidBody(w *World, props RigidBodyProps) *RigidBody {
	var body *cp.Body
	switch props.Type {
	case BodyDynamic:
		body = cp.NewBody(1, 1)
	case BodyKinematic:
		body = cp.NewKinematicBody()
	default:
		body = cp.NewStaticBody()
	}

	b := &RigidBody{
		world:         w,
		body:          body,
		linearDamping: props.LinearDamping,
		gravityScale:  props.GravityScale,
		fixedRotation: props.FixedRotation,
		allowSleep:    props.AllowSleep,
		bullet:        props.Bullet,
	}
	body.UserData = b

	body.SetPosition(toVector(props.Position))
	body.SetAngle(float64(props.Rotation))
	if props.Type != BodyStatic {
		body.SetVelocityVector(toVector(props.LinearVelocity))
		body.SetAngularVelocity(float64(props.AngularVelocity))
		// Known defect: the initializer assigns angular velocity a second
		// time from AngularDamping, and angular damping is never applied.
		body.SetAngularVelocity(float64(props.AngularDamping))
	}
	body.SetVelocityUpdateFunc(b.updateVelocity)
	b.applyFixedRotation()

	if props.Enabled {
		w.space.AddBody(body)
		if !props.Awake {
			b.SetAwake(false)
		}
	}
	return b
}

// updateVelocity integrates velocity with the body's gravity scale and
// linear damping applied on top of the space's own damping.
func (b *RigidBody) updateVelocity(body *cp.Body, gravity cp.Vector, damping, dt float64) {
	if b.held {
		b.freeze()
		return
	}
	g := gravity.Mult(float64(b.gravityScale))
	d := damping / (1 + dt*float64(b.linearDamping))
	cp.BodyUpdateVelocity(body, g, d, dt)
}

func (b *RigidBody) applyFixedRotation() {
	if !b.fixedRotation || b.body.GetType() != cp.BODY_DYNAMIC {
		return
	}
	if m := b.body.Moment(); !math.IsInf(m, 1) && m > 0 {
		b.freeMoment = m
	}
	b.body.SetMoment(math.Inf(1))
	b.body.SetAngularVelocity(0)
}

// Valid reports whether the body has not been destroyed.
func (b *RigidBody) Valid() bool {
	return b != nil && b.body != nil
}

// Body exposes the underlying cp.Body. Nil after destruction.
func (b *RigidBody) Body() *cp.Body {
	return b.body
}

// World returns the owning world, or nil after destruction.
func (b *RigidBody) World() *World {
	return b.world
}

func (b *RigidBody) inSpace() bool {
	return b.body != nil && b.world.space.ContainsBody(b.body)
}

// Type returns the body type.
func (b *RigidBody) Type() BodyType {
	switch b.body.GetType() {
	case cp.BODY_DYNAMIC:
		return BodyDynamic
	case cp.BODY_KINEMATIC:
		return BodyKinematic
	default:
		return BodyStatic
	}
}

// SetType changes the body type.
func (b *RigidBody) SetType(t BodyType) {
	b.body.SetType(t.cpType())
	if t == BodyDynamic {
		if b.body.Mass() <= 0 {
			b.body.SetMass(1)
			b.body.SetMoment(1)
		}
		b.applyFixedRotation()
	}
}

// Position returns the body position in world units.
func (b *RigidBody) Position() mgl32.Vec2 {
	return toVec2(b.body.Position())
}

// SetPosition teleports the body, keeping its rotation.
func (b *RigidBody) SetPosition(p mgl32.Vec2) {
	b.SetTransform(p, b.Rotation())
}

// Rotation returns the body angle in radians.
func (b *RigidBody) Rotation() float32 {
	return float32(b.body.Angle())
}

// SetRotation sets the body angle in radians, keeping its position.
func (b *RigidBody) SetRotation(radians float32) {
	b.SetTransform(b.Position(), radians)
}

// SetTransform sets position and angle together.
func (b *RigidBody) SetTransform(p mgl32.Vec2, radians float32) {
	b.body.SetPosition(toVector(p))
	b.body.SetAngle(float64(radians))
	if b.inSpace() && b.body.GetType() == cp.BODY_STATIC {
		b.reinsertShapes()
	}
}

// reinsertShapes refreshes the static index entries of b's colliders.
// Static shapes are only indexed when added to the space.
func (b *RigidBody) reinsertShapes() {
	space := b.world.space
	for _, c := range b.colliders {
		if space.ContainsShape(c.shape) {
			space.RemoveShape(c.shape)
			space.AddShape(c.shape)
		}
	}
}

// LinearVelocity returns the body velocity.
func (b *RigidBody) LinearVelocity() mgl32.Vec2 {
	return toVec2(b.body.Velocity())
}

// SetLinearVelocity sets the body velocity. A non-zero velocity wakes the
// body.
func (b *RigidBody) SetLinearVelocity(v mgl32.Vec2) {
	if v != (mgl32.Vec2{}) {
		b.held = false
	}
	b.body.SetVelocityVector(toVector(v))
}

// AngularVelocity returns the angular velocity in radians per second.
func (b *RigidBody) AngularVelocity() float32 {
	return float32(b.body.AngularVelocity())
}

// SetAngularVelocity sets the angular velocity in radians per second. A
// non-zero velocity wakes the body.
func (b *RigidBody) SetAngularVelocity(v float32) {
	if v != 0 {
		b.held = false
	}
	b.body.SetAngularVelocity(float64(v))
}

// LinearDamping returns the per-second linear damping.
func (b *RigidBody) LinearDamping() float32 {
	return b.linearDamping
}

// SetLinearDamping sets the per-second linear damping.
func (b *RigidBody) SetLinearDamping(d float32) {
	b.linearDamping = d
}

// GravityScale returns the multiplier applied to world gravity.
func (b *RigidBody) GravityScale() float32 {
	return b.gravityScale
}

// SetGravityScale sets the multiplier applied to world gravity.
func (b *RigidBody) SetGravityScale(s float32) {
	b.gravityScale = s
}

// FixedRotation reports whether the body is prevented from rotating.
func (b *RigidBody) FixedRotation() bool {
	return b.fixedRotation
}

// SetFixedRotation locks or unlocks rotation.
func (b *RigidBody) SetFixedRotation(fixed bool) {
	b.fixedRotation = fixed
	if fixed {
		b.applyFixedRotation()
		return
	}
	if b.body.GetType() == cp.BODY_DYNAMIC && math.IsInf(b.body.Moment(), 1) {
		m := b.freeMoment
		if m <= 0 {
			m = 1
		}
		b.body.SetMoment(m)
	}
}

// Bullet reports the continuous-collision hint. The solver has no
// equivalent; the value is only stored.
func (b *RigidBody) Bullet() bool {
	return b.bullet
}

// SetBullet stores the continuous-collision hint.
func (b *RigidBody) SetBullet(bullet bool) {
	b.bullet = bullet
}

// Enabled reports whether the body participates in the simulation.
func (b *RigidBody) Enabled() bool {
	return b.inSpace()
}

// SetEnabled adds the body and its colliders to the space or removes them.
func (b *RigidBody) SetEnabled(enabled bool) {
	if b.body == nil || enabled == b.inSpace() {
		return
	}
	space := b.world.space
	if enabled {
		space.AddBody(b.body)
		for _, c := range b.colliders {
			space.AddShape(c.shape)
		}
		b.applyFixedRotation()
		return
	}
	for _, c := range b.colliders {
		if space.ContainsShape(c.shape) {
			space.RemoveShape(c.shape)
		}
	}
	space.RemoveBody(b.body)
}

// Awake reports whether the body is being simulated rather than sleeping,
// either by the solver's idle detection or through SetAwake(false).
func (b *RigidBody) Awake() bool {
	return !b.held && !b.body.IsSleeping()
}

// SetAwake wakes the body or puts it to sleep. Only enabled dynamic bodies
// that allow sleeping can be put to sleep.
//
// The solver only sleeps bodies that have been idle for the space's sleep
// threshold, so a sleep requested here is held by the body instead: its
// velocities are zeroed and gravity is skipped until something wakes it
// again, including a contact that pushes it.
func (b *RigidBody) SetAwake(awake bool) {
	if !b.inSpace() || b.body.GetType() != cp.BODY_DYNAMIC {
		return
	}
	if awake {
		b.held = false
		b.body.Activate()
		return
	}
	if b.allowSleep && !b.held {
		b.held = true
		b.freeze()
	}
}

func (b *RigidBody) freeze() {
	b.body.SetVelocityVector(cp.Vector{})
	b.body.SetAngularVelocity(0)
	b.body.SetForce(cp.Vector{})
	b.body.SetTorque(0)
}

// wakeIfDisturbed releases a held body that the solver moved this step.
func (b *RigidBody) wakeIfDisturbed() {
	if !b.held || b.body == nil {
		return
	}
	if b.body.Velocity().LengthSq() > 0 || b.body.AngularVelocity() != 0 {
		b.held = false
	}
}

// Mass returns the body mass.
func (b *RigidBody) Mass() float32 {
	return float32(b.body.Mass())
}

// Colliders returns the body's live colliders. The returned slice MUST NOT
// be mutated.
func (b *RigidBody) Colliders() []*Collider {
	return b.colliders
}

// CreateCollider attaches a new collider to b.
func (b *RigidBody) CreateCollider(props ColliderProps) *Collider {
	c := newCollider(b, props)
	b.colliders = append(b.colliders, c)
	if b.inSpace() {
		b.world.space.AddShape(c.shape)
	}
	b.applyFixedRotation()
	return c
}

// DestroyCollider detaches and releases c. It is a no-op if c is nil,
// already destroyed or owned by another body.
func (b *RigidBody) DestroyCollider(c *Collider) {
	if c == nil || c.body != b {
		return
	}
	for i, o := range b.colliders {
		if o == c {
			b.colliders = append(b.colliders[:i], b.colliders[i+1:]...)
			break
		}
	}
	if b.world.space.ContainsShape(c.shape) {
		b.world.space.RemoveShape(c.shape)
	}
	c.body = nil
	c.shape = nil
}

// release detaches the colliders, removes everything from the space and
// clears the body handle.
func (b *RigidBody) release() {
	if b.body == nil {
		return
	}
	space := b.world.space
	for _, c := range b.colliders {
		c.body = nil
	}
	for _, c := range b.colliders {
		if space.ContainsShape(c.shape) {
			space.RemoveShape(c.shape)
		}
		c.shape = nil
	}
	b.colliders = nil
	if space.ContainsBody(b.body) {
		space.RemoveBody(b.body)
	}
	b.body.UserData = nil
	b.body = nil
	b.world = nil
}
