package physics2d

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"
)

// WorldConfig configures a World. Zero values fall back to DefaultWorldConfig.
type WorldConfig struct {
	Gravity       mgl32.Vec2
	FixedTimeStep float64 // seconds per substep
	MaxSubSteps   int     // upper bound of substeps per Step call
	Iterations    int     // solver iterations per substep
	Logger        *zap.Logger
}

// DefaultWorldConfig returns Earth-like gravity and a 60 Hz fixed step.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		Gravity:       mgl32.Vec2{0, -9.8},
		FixedTimeStep: 1.0 / 60.0,
		MaxSubSteps:   8,
		Iterations:    10,
	}
}

// World owns a cp.Space and every body created in it.
type World struct {
	space       *cp.Space
	fixedStep   float64
	maxSubSteps int
	accumulator float64

	bodies []*RigidBody
	log    *zap.Logger
}

// NewWorld creates an empty world.
func NewWorld(cfg WorldConfig) *World {
	def := DefaultWorldConfig()
	if cfg.FixedTimeStep <= 0 {
		cfg.FixedTimeStep = def.FixedTimeStep
	}
	if cfg.MaxSubSteps <= 0 {
		cfg.MaxSubSteps = def.MaxSubSteps
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = def.Iterations
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	space := cp.NewSpace()
	space.Iterations = uint(cfg.Iterations)
	space.SetGravity(toVector(cfg.Gravity))
	space.SleepTimeThreshold = 0.5

	return &World{
		space:       space,
		fixedStep:   cfg.FixedTimeStep,
		maxSubSteps: cfg.MaxSubSteps,
		log:         cfg.Logger,
	}
}

// Space exposes the underlying cp.Space for debug drawing and queries.
func (w *World) Space() *cp.Space {
	return w.space
}

// Gravity returns the world gravity.
func (w *World) Gravity() mgl32.Vec2 {
	return toVec2(w.space.Gravity())
}

// SetGravity sets the world gravity.
func (w *World) SetGravity(g mgl32.Vec2) {
	w.space.SetGravity(toVector(g))
}

// FixedTimeStep returns the duration of one substep in seconds.
func (w *World) FixedTimeStep() float64 {
	return w.fixedStep
}

// Step advances the simulation by dt seconds in fixed substeps and returns
// how many substeps ran. Time beyond MaxSubSteps substeps is dropped.
func (w *World) Step(dt float64) int {
	if dt <= 0 {
		return 0
	}
	w.accumulator += dt
	steps := 0
	for w.accumulator >= w.fixedStep && steps < w.maxSubSteps {
		w.space.Step(w.fixedStep)
		for _, b := range w.bodies {
			b.wakeIfDisturbed()
		}
		w.accumulator -= w.fixedStep
		steps++
	}
	if steps == w.maxSubSteps && w.accumulator >= w.fixedStep {
		w.log.Debug("physics step fell behind; dropping time",
			zap.Float64("dropped", w.accumulator))
		w.accumulator = 0
	}
	return steps
}

// CreateBody creates a body from props and adds it to the space when
// props.Enabled is set.
func (w *World) CreateBody(props RigidBodyProps) *RigidBody {
	b := newRigidBody(w, props)
	w.bodies = append(w.bodies, b)
	w.log.Debug("rigid body created",
		zap.Stringer("type", props.Type),
		zap.Float32("x", props.Position[0]),
		zap.Float32("y", props.Position[1]))
	return b
}

// DestroyBody releases b and all of its colliders. Destroying a nil or
// already destroyed body is a no-op.
func (w *World) DestroyBody(b *RigidBody) {
	if b == nil || b.world != w {
		return
	}
	for i, o := range w.bodies {
		if o == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			break
		}
	}
	b.release()
}

// BodyCount returns the number of live bodies.
func (w *World) BodyCount() int {
	return len(w.bodies)
}

// Bodies returns the live bodies in creation order. The returned slice MUST
// NOT be mutated.
func (w *World) Bodies() []*RigidBody {
	return w.bodies
}

// Close destroys every body.
func (w *World) Close() {
	for _, b := range w.bodies {
		b.release()
	}
	w.bodies = nil
	w.accumulator = 0
}

func toVector(v mgl32.Vec2) cp.Vector {
	return cp.Vector{X: float64(v[0]), Y: float64(v[1])}
}

func toVec2(v cp.Vector) mgl32.Vec2 {
	return mgl32.Vec2{float32(v.X), float32(v.Y)}
}
