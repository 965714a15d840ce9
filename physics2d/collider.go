package physics2d

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/jakecoffman/cp"
)

// ColliderShape selects the collider geometry.
type ColliderShape int

const (
	ShapeBox ColliderShape = iota
	ShapeCircle
)

// ColliderProps is the initializer for a collider.
type ColliderProps struct {
	Shape  ColliderShape `yaml:"shape"`
	Size   mgl32.Vec2    `yaml:"size"`   // full box size; half-extents are Size/2
	Radius float32       `yaml:"radius"` // circle radius

	Offset   mgl32.Vec2 `yaml:"offset"`
	Rotation float32    `yaml:"rotation"` // radians, boxes only

	Sensor               bool    `yaml:"sensor"`
	Friction             float32 `yaml:"friction"`
	Density              float32 `yaml:"density"`
	Restitution          float32 `yaml:"restitution"`
	RestitutionThreshold float32 `yaml:"restitution_threshold"`
}

// DefaultColliderProps returns a unit box with density 1.
func DefaultColliderProps() ColliderProps {
	return ColliderProps{
		Shape:                ShapeBox,
		Size:                 mgl32.Vec2{1, 1},
		Radius:               0.5,
		Friction:             0.2,
		Density:              1,
		RestitutionThreshold: 1,
	}
}

// Collider is a shape attached to a RigidBody.
type Collider struct {
	body  *RigidBody
	shape *cp.Shape
	props ColliderProps
}

func newCollider(b *RigidBody, props ColliderProps) *Collider {
	var shape *cp.Shape
	switch props.Shape {
	case ShapeCircle:
		shape = cp.NewCircle(b.body, float64(props.Radius), toVector(props.Offset))
	default:
		shape = cp.NewPolyShapeRaw(b.body, 4, boxCorners(props.Size, props.Offset, props.Rotation), 0)
	}
	shape.SetSensor(props.Sensor)
	shape.SetFriction(float64(props.Friction))
	shape.SetElasticity(float64(props.Restitution))
	if props.Density > 0 {
		shape.SetDensity(float64(props.Density))
	}
	c := &Collider{body: b, shape: shape, props: props}
	shape.UserData = c
	return c
}

// boxCorners returns the counter-clockwise corners of a box of the given
// full size, rotated about its center and then offset.
func boxCorners(size, offset mgl32.Vec2, rotation float32) []cp.Vector {
	hx, hy := float64(size[0])/2, float64(size[1])/2
	sin, cos := math.Sincos(float64(rotation))
	local := [4][2]float64{{-hx, -hy}, {hx, -hy}, {hx, hy}, {-hx, hy}}
	verts := make([]cp.Vector, 4)
	for i, p := range local {
		verts[i] = cp.Vector{
			X: p[0]*cos - p[1]*sin + float64(offset[0]),
			Y: p[0]*sin + p[1]*cos + float64(offset[1]),
		}
	}
	return verts
}

// Valid reports whether the collider is still attached to a live body.
func (c *Collider) Valid() bool {
	return c != nil && c.body != nil && c.shape != nil
}

// Body returns the owning body, or nil once the body or collider has been
// destroyed.
func (c *Collider) Body() *RigidBody {
	return c.body
}

// Shape exposes the underlying cp.Shape. Nil after destruction.
func (c *Collider) Shape() *cp.Shape {
	return c.shape
}

// Props returns the initializer the collider was created from.
func (c *Collider) Props() ColliderProps {
	return c.props
}

// Sensor reports whether the collider only detects overlaps.
func (c *Collider) Sensor() bool {
	return c.props.Sensor
}

// SetSensor toggles overlap-only behavior.
func (c *Collider) SetSensor(sensor bool) {
	c.props.Sensor = sensor
	if c.shape != nil {
		c.shape.SetSensor(sensor)
	}
}

// Friction returns the friction coefficient.
func (c *Collider) Friction() float32 {
	return c.props.Friction
}

// SetFriction sets the friction coefficient.
func (c *Collider) SetFriction(f float32) {
	c.props.Friction = f
	if c.shape != nil {
		c.shape.SetFriction(float64(f))
	}
}

// Density returns the mass density.
func (c *Collider) Density() float32 {
	return c.props.Density
}

// SetDensity sets the mass density. Non-positive values are stored but
// leave the shape's mass unchanged.
func (c *Collider) SetDensity(d float32) {
	c.props.Density = d
	if c.shape != nil && d > 0 {
		c.shape.SetDensity(float64(d))
	}
}

// Restitution returns the bounciness.
func (c *Collider) Restitution() float32 {
	return c.props.Restitution
}

// SetRestitution sets the bounciness.
func (c *Collider) SetRestitution(r float32) {
	c.props.Restitution = r
	if c.shape != nil {
		c.shape.SetElasticity(float64(r))
	}
}

// RestitutionThreshold returns the stored restitution velocity threshold.
// The solver has no equivalent setting.
func (c *Collider) RestitutionThreshold() float32 {
	return c.props.RestitutionThreshold
}
