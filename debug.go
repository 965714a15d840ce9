package thicket

import "go.uber.org/zap"

// debugMaxTreeDepth is the hierarchy depth above which debug mode warns.
const debugMaxTreeDepth = 32

// debugMaxChildCount is the fan-out above which debug mode warns.
const debugMaxChildCount = 1000

// debugCheckTreeDepth warns if e sits deeper than debugMaxTreeDepth.
func (s *Scene) debugCheckTreeDepth(e Entity) {
	depth := s.depth(e)
	if depth > debugMaxTreeDepth {
		logger.Warn("tree depth exceeds threshold",
			zap.String("entity", s.Name(e)),
			zap.Int("depth", depth),
			zap.Int("threshold", debugMaxTreeDepth))
	}
}

// debugCheckChildCount warns if e has more than debugMaxChildCount children.
func (s *Scene) debugCheckChildCount(e Entity) {
	n := len(s.transform(e).children)
	if n > debugMaxChildCount {
		logger.Warn("child count exceeds threshold",
			zap.String("entity", s.Name(e)),
			zap.Int("children", n),
			zap.Int("threshold", debugMaxChildCount))
	}
}

// depth returns the number of entities on the path from the root list to e,
// counting e.
func (s *Scene) depth(e Entity) int {
	d := 0
	for p := e; p != NoEntity; p = s.transform(p).parent {
		d++
	}
	return d
}

// DebugSummary logs the scene's size and the renderer's last frame
// statistics at debug level.
func (s *Scene) DebugSummary(r *Renderer2D) {
	maxDepth := 0
	s.EachEntity(func(e Entity) {
		maxDepth = max(maxDepth, s.depth(e))
	})
	fields := []zap.Field{
		zap.Int("entities", s.EntityCount()),
		zap.Int("roots", len(s.roots)),
		zap.Int("maxDepth", maxDepth),
		zap.Bool("physics", s.physics != nil),
	}
	if s.physics != nil {
		fields = append(fields, zap.Int("bodies", s.physics.BodyCount()))
	}
	if r != nil {
		st := r.Stats()
		fields = append(fields,
			zap.Int("quads", st.QuadCount),
			zap.Int("drawCalls", st.DrawCalls),
			zap.Int("forcedFlushes", st.ForcedFlushes))
	}
	logger.Debug("scene summary", fields...)
}
