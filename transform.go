package thicket

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// transformFlags records which cached matrices are stale and which consumers
// have not yet observed a change.
type transformFlags uint8

const (
	flagLocalToParentStale transformFlags = 1 << iota // localToParent must be rebuilt from rotation and scale
	flagLocalToWorldStale                             // localToWorld must be recomputed from the parent chain
	flagChanged                                       // changed since the scene last finished a frame
	flagChangedForPhysics                             // changed since the last physics sync
)

// Transform is the per-entity spatial node. Local position, rotation and
// scale are authoritative; localToParent and localToWorld are caches that are
// valid whenever neither staleness flag is set.
//
// Every local mutation recomputes this node's caches immediately and then
// eagerly walks the subtree so that descendants' world matrices follow.
type Transform struct {
	scene  *Scene
	entity Entity

	localEulerAngles mgl32.Vec3 // degrees
	localRotation    mgl32.Quat
	localScale       mgl32.Vec3

	localToParent mgl32.Mat4 // translation lives in column 3
	localToWorld  mgl32.Mat4
	flags         transformFlags

	parent   Entity
	children []Entity
}

// TransformType is the registry key of the Transform component.
var TransformType = NewComponentType[Transform]("Transform")

func newTransform() Transform {
	return Transform{
		localRotation: mgl32.QuatIdent(),
		localScale:    mgl32.Vec3{1, 1, 1},
		localToParent: mgl32.Ident4(),
		localToWorld:  mgl32.Ident4(),
	}
}

func (t *Transform) attach(s *Scene, e Entity) {
	t.scene = s
	t.entity = e
}

// CloneComponent implements Cloner.
func (t *Transform) CloneComponent() any {
	dup := *t
	dup.children = append([]Entity(nil), t.children...)
	return &dup
}

// Entity returns the entity this transform belongs to.
func (t *Transform) Entity() Entity {
	return t.entity
}

// LocalToParent returns the cached local-to-parent matrix.
func (t *Transform) LocalToParent() mgl32.Mat4 {
	return t.localToParent
}

// LocalToWorld returns the cached local-to-world matrix.
func (t *Transform) LocalToWorld() mgl32.Mat4 {
	return t.localToWorld
}

// Dirty reports whether either cached matrix is pending recomputation.
func (t *Transform) Dirty() bool {
	return t.flags&(flagLocalToParentStale|flagLocalToWorldStale) != 0
}

// ChangedSinceLastFrame reports whether this transform or an ancestor changed
// since the scene last completed Update.
func (t *Transform) ChangedSinceLastFrame() bool {
	return t.flags&flagChanged != 0
}

// ChangedForPhysics reports whether this transform changed since the last
// physics synchronization.
func (t *Transform) ChangedForPhysics() bool {
	return t.flags&flagChangedForPhysics != 0
}

// --- local space ---

// LocalPosition returns the position relative to the parent.
func (t *Transform) LocalPosition() mgl32.Vec3 {
	return t.localToParent.Col(3).Vec3()
}

// SetLocalPosition sets the position relative to the parent.
func (t *Transform) SetLocalPosition(p mgl32.Vec3) {
	t.localToParent.SetCol(3, p.Vec4(1))
	t.flags |= flagLocalToParentStale
	t.Invalidate()
	t.change()
}

// LocalEulerAngles returns the local rotation as Euler angles in degrees.
func (t *Transform) LocalEulerAngles() mgl32.Vec3 {
	return t.localEulerAngles
}

// SetLocalEulerAngles sets the local rotation from Euler angles in degrees.
func (t *Transform) SetLocalEulerAngles(degrees mgl32.Vec3) {
	t.localEulerAngles = degrees
	t.localRotation = eulerToQuat(degrees)
	t.flags |= flagLocalToParentStale
	t.Invalidate()
	t.change()
}

// LocalRotation returns the local rotation.
func (t *Transform) LocalRotation() mgl32.Quat {
	return t.localRotation
}

// SetLocalRotation sets the local rotation.
func (t *Transform) SetLocalRotation(q mgl32.Quat) {
	t.localEulerAngles = quatToEuler(q)
	t.localRotation = q
	t.flags |= flagLocalToParentStale
	t.Invalidate()
	t.change()
}

// LocalScale returns the local scale.
func (t *Transform) LocalScale() mgl32.Vec3 {
	return t.localScale
}

// SetLocalScale sets the local scale.
func (t *Transform) SetLocalScale(scale mgl32.Vec3) {
	t.localScale = scale
	t.flags |= flagLocalToParentStale
	t.Invalidate()
	t.change()
}

// --- world space ---

// Position returns the world-space position.
func (t *Transform) Position() mgl32.Vec3 {
	return t.localToWorld.Col(3).Vec3()
}

// SetPosition moves the node so that its world-space position is p.
func (t *Transform) SetPosition(p mgl32.Vec3) {
	if !t.parent.Valid() {
		t.SetLocalPosition(p)
		return
	}
	m := t.scene.transform(t.parent).localToWorld
	for i := 0; i < 3; i++ {
		if m.At(i, i) == 0 {
			m.Set(i, i, 1)
		}
	}
	t.SetLocalPosition(m.Inv().Mul4x1(p.Vec4(1)).Vec3())
}

// Rotation returns the world-space rotation. Basis vectors are divided by the
// lossy scale first so non-uniform scale does not skew the result.
func (t *Transform) Rotation() mgl32.Quat {
	if !t.parent.Valid() {
		return t.localRotation
	}
	return rotationOf(t.localToWorld)
}

// SetRotation rotates the node so that its world-space rotation is q.
func (t *Transform) SetRotation(q mgl32.Quat) {
	if !t.parent.Valid() {
		t.SetLocalRotation(q)
		return
	}
	parentInv := t.scene.transform(t.parent).localToWorld.Inv()
	t.SetLocalRotation(rotationOf(parentInv.Mul4(q.Mat4())))
}

// EulerAngles returns the world-space rotation as Euler angles in degrees.
func (t *Transform) EulerAngles() mgl32.Vec3 {
	if !t.parent.Valid() {
		return t.localEulerAngles
	}
	return quatToEuler(t.Rotation())
}

// SetEulerAngles sets the world-space rotation from Euler angles in degrees.
func (t *Transform) SetEulerAngles(degrees mgl32.Vec3) {
	if !t.parent.Valid() {
		t.SetLocalEulerAngles(degrees)
		return
	}
	t.SetRotation(eulerToQuat(degrees))
}

// LossyScale returns the length of each basis vector of the world matrix.
func (t *Transform) LossyScale() mgl32.Vec3 {
	return lossyScaleOf(t.localToWorld)
}

// --- cache maintenance ---

// Invalidate recomputes whichever caches are flagged stale for this node
// only. Calling it on a clean node is a no-op.
func (t *Transform) Invalidate() {
	if t.flags&flagLocalToParentStale != 0 {
		translation := t.localToParent.Col(3)
		s := t.localScale
		t.localToParent = t.localRotation.Mat4().Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
		t.localToParent.SetCol(3, translation)
	}
	if t.flags&(flagLocalToParentStale|flagLocalToWorldStale) != 0 {
		if t.parent.Valid() {
			t.localToWorld = t.scene.transform(t.parent).localToWorld.Mul4(t.localToParent)
		} else {
			t.localToWorld = t.localToParent
		}
	}
	t.flags &^= flagLocalToParentStale | flagLocalToWorldStale
}

// change marks this node changed and pushes fresh world matrices down the
// whole subtree.
func (t *Transform) change() {
	t.flags |= flagChanged | flagChangedForPhysics
	for _, c := range t.children {
		ct := t.scene.transform(c)
		ct.flags |= flagLocalToWorldStale
		ct.Invalidate()
		ct.change()
	}
}

// --- math helpers ---

func lossyScaleOf(m mgl32.Mat4) mgl32.Vec3 {
	return mgl32.Vec3{
		m.Col(0).Vec3().Len(),
		m.Col(1).Vec3().Len(),
		m.Col(2).Vec3().Len(),
	}
}

// rotationOf extracts the rotation of m after normalizing its basis vectors.
func rotationOf(m mgl32.Mat4) mgl32.Quat {
	scale := lossyScaleOf(m)
	r := mgl32.Ident4()
	for i := 0; i < 3; i++ {
		col := m.Col(i).Vec3()
		if scale[i] != 0 {
			col = col.Mul(1 / scale[i])
		}
		r.SetCol(i, col.Vec4(0))
	}
	return mgl32.Mat4ToQuat(r).Normalize()
}

// eulerToQuat converts XYZ Euler angles in degrees to a quaternion
// (rotation about X applied first, then Y, then Z).
func eulerToQuat(degrees mgl32.Vec3) mgl32.Quat {
	hx := float64(mgl32.DegToRad(degrees[0])) / 2
	hy := float64(mgl32.DegToRad(degrees[1])) / 2
	hz := float64(mgl32.DegToRad(degrees[2])) / 2
	sx, cx := math.Sincos(hx)
	sy, cy := math.Sincos(hy)
	sz, cz := math.Sincos(hz)
	return mgl32.Quat{
		W: float32(cx*cy*cz + sx*sy*sz),
		V: mgl32.Vec3{
			float32(sx*cy*cz - cx*sy*sz),
			float32(cx*sy*cz + sx*cy*sz),
			float32(cx*cy*sz - sx*sy*cz),
		},
	}
}

// quatToEuler is the inverse of eulerToQuat, returning degrees.
func quatToEuler(q mgl32.Quat) mgl32.Vec3 {
	w, x, y, z := float64(q.W), float64(q.V[0]), float64(q.V[1]), float64(q.V[2])

	pitchY := 2 * (y*z + w*x)
	pitchX := w*w - x*x - y*y + z*z
	var pitch float64
	if math.Abs(pitchX) < 1e-7 && math.Abs(pitchY) < 1e-7 {
		pitch = 2 * math.Atan2(x, w)
	} else {
		pitch = math.Atan2(pitchY, pitchX)
	}

	yaw := math.Asin(math.Max(-1, math.Min(1, -2*(x*z-w*y))))
	roll := math.Atan2(2*(x*y+w*z), w*w+x*x-y*y-z*z)

	return mgl32.Vec3{
		float32(pitch * 180 / math.Pi),
		float32(yaw * 180 / math.Pi),
		float32(roll * 180 / math.Pi),
	}
}
