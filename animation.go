package thicket

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 float32 values of an entity simultaneously.
// Create one via the convenience constructors (TweenPosition, TweenScale,
// TweenRotation, TweenTint) and call Update(dt) each frame. The group applies
// the values through the entity's Transform or components, so transforms are
// invalidated as usual. If the entity is destroyed, the group stops
// immediately.
//
// There is no global animation manager; users call Update themselves, usually
// from the scene's update func.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	apply  func(v [4]float32)
	scene  *Scene
	entity Entity
	Done   bool
}

func newTweenGroup(s *Scene, e Entity, from, to []float32, duration float32, fn ease.TweenFunc, apply func([4]float32)) *TweenGroup {
	g := &TweenGroup{count: len(from), apply: apply, scene: s, entity: e}
	for i := range from {
		g.tweens[i] = gween.New(from[i], to[i], duration, fn)
	}
	return g
}

// Update advances all tweens by dt seconds and applies the values. If the
// entity has been destroyed, Done is set and nothing is written.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if !g.scene.IsAlive(g.entity) {
		g.Done = true
		return
	}

	var vals [4]float32
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		vals[i] = val
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
	g.apply(vals)
}

// TweenPosition animates the entity's world X and Y to (toX, toY). Z is
// kept.
func TweenPosition(s *Scene, e Entity, toX, toY float32, duration float32, fn ease.TweenFunc) *TweenGroup {
	t := s.Transform(e)
	p := t.Position()
	return newTweenGroup(s, e, []float32{p[0], p[1]}, []float32{toX, toY}, duration, fn, func(v [4]float32) {
		z := t.Position()[2]
		t.SetPosition(mgl32.Vec3{v[0], v[1], z})
	})
}

// TweenScale animates the entity's local X and Y scale.
func TweenScale(s *Scene, e Entity, toSX, toSY float32, duration float32, fn ease.TweenFunc) *TweenGroup {
	t := s.Transform(e)
	sc := t.LocalScale()
	return newTweenGroup(s, e, []float32{sc[0], sc[1]}, []float32{toSX, toSY}, duration, fn, func(v [4]float32) {
		t.SetLocalScale(mgl32.Vec3{v[0], v[1], t.LocalScale()[2]})
	})
}

// TweenRotation animates the entity's local Z rotation to toDegrees.
func TweenRotation(s *Scene, e Entity, toDegrees float32, duration float32, fn ease.TweenFunc) *TweenGroup {
	t := s.Transform(e)
	angles := t.LocalEulerAngles()
	return newTweenGroup(s, e, []float32{angles[2]}, []float32{toDegrees}, duration, fn, func(v [4]float32) {
		a := t.LocalEulerAngles()
		a[2] = v[0]
		t.SetLocalEulerAngles(a)
	})
}

// TweenTint animates all four components of the entity's sprite tint. An
// entity without a SpriteRendererComponent yields a group that is already
// Done.
func TweenTint(s *Scene, e Entity, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	sp, ok := GetComponent(s, e, SpriteRendererType)
	if !ok {
		return &TweenGroup{scene: s, entity: e, Done: true}
	}
	from := sp.Tint
	return newTweenGroup(s, e,
		[]float32{from.R, from.G, from.B, from.A},
		[]float32{to.R, to.G, to.B, to.A},
		duration, fn, func(v [4]float32) {
			// re-fetch; the component may have been replaced
			if sp, ok := GetComponent(s, e, SpriteRendererType); ok {
				sp.Tint = Color{v[0], v[1], v[2], v[3]}
			}
		})
}
