package thicket

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// RendererConfig configures a Renderer2D.
type RendererConfig struct {
	// InitialQuadCapacity is the number of quads the GPU buffers hold before
	// the first growth.
	InitialQuadCapacity int `yaml:"initial_quad_capacity" toml:"initial_quad_capacity"`
	// MaxTextureSlots caps the texture units used per draw call. Zero or a
	// value above the device limit uses the device limit.
	MaxTextureSlots int `yaml:"max_texture_slots" toml:"max_texture_slots"`
	// Debug makes shader compile failures fatal and logs per-frame statistics.
	Debug bool `yaml:"debug" toml:"debug"`
}

// DefaultRendererConfig returns the default renderer settings.
func DefaultRendererConfig() RendererConfig {
	return RendererConfig{
		InitialQuadCapacity: 10,
		MaxTextureSlots:     16,
	}
}

// Statistics counts the work done since the last BeginScene.
type Statistics struct {
	QuadCount       int
	DrawCalls       int
	ForcedFlushes   int // flushes caused by running out of texture slots
	CapacityGrowths int
}

// IndexCount returns the number of indices submitted.
func (s Statistics) IndexCount() int { return s.QuadCount * 6 }

// VertexCount returns the number of vertices submitted.
func (s Statistics) VertexCount() int { return s.QuadCount * 4 }

// TexturedQuadExtraData controls how a textured quad samples its texture.
// Start from DefaultTexturedQuadExtraData; a zero Tiling collapses the UVs.
type TexturedQuadExtraData struct {
	Tint   Color
	Tiling mgl32.Vec2
	Offset mgl32.Vec2
	FlipX  bool
	FlipY  bool

	// Zero values defer to the texture's own defaults.
	Wrapping  [2]TextureWrapping
	Filtering TextureFiltering

	AlphaClipThreshold float32

	OverrideBorderColor bool
	BorderColor         Color
}

// DefaultTexturedQuadExtraData returns an untinted, untiled sampling setup.
func DefaultTexturedQuadExtraData() TexturedQuadExtraData {
	return TexturedQuadExtraData{
		Tint:   ColorWhite,
		Tiling: mgl32.Vec2{1, 1},
	}
}

// Material describes a quad for SubmitQuad: flat Color when Texture is nil,
// otherwise Texture sampled according to Extra.
type Material struct {
	Color              Color
	AlphaClipThreshold float32

	Texture *Texture2D
	Extra   TexturedQuadExtraData
}

// Renderer2D batches quads into depth-ordered vertex storage and draws them
// through a Device. It is not safe for concurrent use.
//
// A frame runs BeginScene, any number of Draw calls, then EndScene. Binding
// more distinct textures than the slot limit flushes the pending quads early
// and starts a new batch; quads are never reordered across such a flush.
type Renderer2D struct {
	dev    Device
	shader Shader
	vb     VertexBuffer
	ib     IndexBuffer

	batch    batch
	capacity int
	indices  []uint32
	scratch  []byte

	viewProjection mgl32.Mat4
	maxSlots       int
	stats          Statistics
	debug          bool
}

// NewRenderer2D compiles the batch shader and allocates GPU buffers for
// cfg.InitialQuadCapacity quads. A shader compile failure is logged and
// returned wrapped in ErrShaderCompile, or panics when cfg.Debug is set.
func NewRenderer2D(dev Device, cfg RendererConfig) (*Renderer2D, error) {
	shader, err := dev.NewShader(BatchShaderSource())
	if err != nil {
		logger.Error("batch shader failed to compile", zap.Error(err))
		if cfg.Debug {
			panic(fmt.Sprintf("thicket: batch shader failed to compile: %v", err))
		}
		if !errors.Is(err, ErrShaderCompile) {
			err = fmt.Errorf("%w: %w", ErrShaderCompile, err)
		}
		return nil, err
	}

	capacity := cfg.InitialQuadCapacity
	if capacity <= 0 {
		capacity = DefaultRendererConfig().InitialQuadCapacity
	}
	maxSlots := dev.MaxTextureSlots()
	if cfg.MaxTextureSlots > 0 && (maxSlots <= 0 || cfg.MaxTextureSlots < maxSlots) {
		maxSlots = cfg.MaxTextureSlots
	}
	if maxSlots <= 0 {
		maxSlots = 1
	}

	r := &Renderer2D{
		dev:            dev,
		shader:         shader,
		capacity:       capacity,
		viewProjection: mgl32.Ident4(),
		maxSlots:       maxSlots,
		debug:          cfg.Debug,
	}
	r.vb = dev.NewVertexBuffer(capacity * QuadStride)
	r.indices = appendQuadIndices(nil, capacity)
	r.ib = dev.NewIndexBuffer(len(r.indices))
	r.ib.SetData(r.indices)

	slots := make([]int32, maxSlots)
	for i := range slots {
		slots[i] = int32(i)
	}
	shader.SetIntArray("u_Slots", slots)

	logger.Debug("renderer initialized",
		zap.Int("quadCapacity", capacity),
		zap.Int("maxTextureSlots", maxSlots))
	return r, nil
}

// Shutdown drops pending quads and releases the renderer's GPU resources.
func (r *Renderer2D) Shutdown() {
	r.batch.reset()
	r.shader.Unbind()
	r.vb = nil
	r.ib = nil
	r.indices = nil
	r.scratch = nil
}

// Device returns the device the renderer draws through.
func (r *Renderer2D) Device() Device {
	return r.dev
}

// Shader returns the batch shader.
func (r *Renderer2D) Shader() Shader {
	return r.shader
}

// SetDebug toggles per-frame statistics logging. Shader compilation already
// happened, so it has no effect on compile failures.
func (r *Renderer2D) SetDebug(enabled bool) {
	r.debug = enabled
}

// Stats returns the statistics since the last BeginScene.
func (r *Renderer2D) Stats() Statistics {
	return r.stats
}

// ResetStats zeroes the statistics.
func (r *Renderer2D) ResetStats() {
	r.stats = Statistics{}
}

// QuadCapacity returns the number of quads the GPU buffers currently hold.
func (r *Renderer2D) QuadCapacity() int {
	return r.capacity
}

// PendingQuads returns the number of quads waiting for the next flush.
func (r *Renderer2D) PendingQuads() int {
	return r.batch.len()
}

// MaxTextureSlots returns the number of texture slots per draw call.
func (r *Renderer2D) MaxTextureSlots() int {
	return r.maxSlots
}

// ViewProjection returns the matrix quads are transformed by.
func (r *Renderer2D) ViewProjection() mgl32.Mat4 {
	return r.viewProjection
}

// BeginScene resets pending state and statistics and sets the
// view-projection matrix for the following submissions.
func (r *Renderer2D) BeginScene(viewProjection mgl32.Mat4) {
	r.Reset()
	r.stats = Statistics{}
	r.viewProjection = viewProjection
}

// BeginSceneView begins a scene with separate view and projection matrices.
func (r *Renderer2D) BeginSceneView(view, projection mgl32.Mat4) {
	r.BeginScene(projection.Mul4(view))
}

// BeginSceneCamera begins a scene seen through cam from the given view matrix.
func (r *Renderer2D) BeginSceneCamera(view mgl32.Mat4, cam *SceneCamera) {
	r.BeginScene(cam.Projection().Mul4(view))
}

// EndScene draws the pending quads and clears the batch.
func (r *Renderer2D) EndScene() {
	r.FlushAndReset()
	if r.debug {
		logger.Debug("renderer frame",
			zap.Int("quads", r.stats.QuadCount),
			zap.Int("drawCalls", r.stats.DrawCalls),
			zap.Int("forcedFlushes", r.stats.ForcedFlushes),
			zap.Int("capacityGrowths", r.stats.CapacityGrowths),
			zap.Int("quadCapacity", r.capacity))
	}
}

// Reset drops pending quads and texture bindings without drawing.
func (r *Renderer2D) Reset() {
	r.batch.reset()
}

// FlushAndReset draws the pending quads, then drops them.
func (r *Renderer2D) FlushAndReset() {
	r.Flush()
	r.Reset()
}

// Flush draws the pending quads in one indexed draw call. It does nothing
// when no quads are pending. Pending state is kept; see FlushAndReset.
func (r *Renderer2D) Flush() {
	n := r.batch.len()
	if n == 0 {
		return
	}

	if r.capacity < n {
		r.grow(n)
	}

	r.scratch = r.scratch[:0]
	for i := range r.batch.quads {
		for j := range r.batch.quads[i] {
			r.scratch = appendVertex(r.scratch, &r.batch.quads[i][j])
		}
	}
	r.vb.SetData(r.scratch)

	for slot, tex := range r.batch.bindList {
		r.dev.BindTexture(slot, tex)
	}
	r.shader.Bind()

	r.dev.DrawIndexed(r.vb, r.ib, n*6)
	r.stats.DrawCalls++
}

// grow resizes the GPU buffers to exactly quads quads, generating only the
// indices that do not exist yet.
func (r *Renderer2D) grow(quads int) {
	r.capacity = quads
	r.vb = r.dev.NewVertexBuffer(quads * QuadStride)
	r.indices = appendQuadIndices(r.indices, quads)
	r.ib = r.dev.NewIndexBuffer(len(r.indices))
	r.ib.SetData(r.indices)
	r.stats.CapacityGrowths++
	logger.Debug("renderer buffers grown", zap.Int("quadCapacity", quads))
}

// --- submission ---

// SubmitQuad draws a unit quad transformed by transform with material m.
func (r *Renderer2D) SubmitQuad(transform mgl32.Mat4, m Material) {
	if m.Texture == nil {
		r.DrawQuad(transform, m.Color, m.AlphaClipThreshold)
		return
	}
	r.DrawTexturedQuad(transform, m.Texture, m.Extra)
}

// quadTransform builds translate * rotateZ * scale for the *At helpers.
func quadTransform(position mgl32.Vec3, rotation float32, size mgl32.Vec2) mgl32.Mat4 {
	return mgl32.Translate3D(position[0], position[1], position[2]).
		Mul4(mgl32.HomogRotate3DZ(rotation)).
		Mul4(mgl32.Scale3D(size[0], size[1], 1))
}

// DrawQuadAt draws a flat-color quad of the given size centered at position
// and rotated by rotation radians about Z.
func (r *Renderer2D) DrawQuadAt(position mgl32.Vec3, rotation float32, size mgl32.Vec2, color Color, alphaClipThreshold float32) {
	r.DrawQuad(quadTransform(position, rotation, size), color, alphaClipThreshold)
}

// DrawTexturedQuadAt draws a textured quad of the given size centered at
// position and rotated by rotation radians about Z.
func (r *Renderer2D) DrawTexturedQuadAt(position mgl32.Vec3, rotation float32, size mgl32.Vec2, tex *Texture2D, extra TexturedQuadExtraData) {
	r.DrawTexturedQuad(quadTransform(position, rotation, size), tex, extra)
}

// DrawQuad draws a flat-color unit quad transformed by transform. Quads
// whose alpha does not exceed alphaClipThreshold are skipped.
func (r *Renderer2D) DrawQuad(transform mgl32.Mat4, color Color, alphaClipThreshold float32) {
	if color.A <= alphaClipThreshold {
		return
	}

	mvp := r.viewProjection.Mul4(transform)
	var q quad
	for i, c := range quadCorners {
		q[i] = Vertex{
			Position:  mvp.Mul4x1(c),
			Color:     color,
			TexSlot:   -1,
			AlphaClip: alphaClipThreshold,
		}
	}

	r.batch.insert(color.A < 1, transform.At(2, 3), q)
	r.stats.QuadCount++
}

// DrawTexturedQuad draws tex on a unit quad transformed by transform. Nil
// and placeholder textures draw nothing.
func (r *Renderer2D) DrawTexturedQuad(transform mgl32.Mat4, tex *Texture2D, extra TexturedQuadExtraData) {
	if tex == nil || tex.Type() == TexturePlaceholder {
		return
	}
	gpu := tex.GPUTexture()
	if gpu == nil {
		return
	}

	slot := r.batch.slotOf(gpu)
	if slot < 0 {
		if len(r.batch.bindList)+1 > r.maxSlots {
			r.Flush()
			r.Reset()
			r.stats.ForcedFlushes++
		}
		slot = r.batch.bind(gpu)
	}

	// The texture stays bound even when the quad itself is clipped.
	if extra.AlphaClipThreshold >= 1 || extra.Tint.A <= extra.AlphaClipThreshold {
		return
	}

	transparent := extra.Tint.A < 1 || tex.Format() == TextureFormatRGBA

	filter := extra.Filtering
	if filter == TextureFilteringNone {
		filter = tex.Filtering()
	}
	wrapS, wrapT := extra.Wrapping[0], extra.Wrapping[1]
	if wrapS == TextureWrappingNone {
		wrapS = tex.XWrapping()
	}
	if wrapT == TextureWrappingNone {
		wrapT = tex.YWrapping()
	}
	border := tex.BorderColor()
	if extra.OverrideBorderColor {
		border = extra.BorderColor
	}

	tiling, offset := extra.Tiling, extra.Offset
	minU, minV := offset[0], offset[1]
	maxU, maxV := tiling[0]+offset[0], tiling[1]+offset[1]
	if extra.FlipX {
		minU, maxU = tiling[0]-minU, tiling[0]-maxU
	}
	if extra.FlipY {
		minV, maxV = tiling[1]-minV, tiling[1]-maxV
	}
	uvRange := mgl32.Vec4{minU, minV, maxU, maxV}

	mvp := r.viewProjection.Mul4(transform)
	rect := tex.Rect()
	size := mgl32.Vec2{float32(tex.Width()), float32(tex.Height())}

	var q quad
	for i, c := range quadCorners {
		u, v := offset[0], offset[1]
		if c[0] > 0 {
			u += tiling[0]
		}
		if c[1] > 0 {
			v += tiling[1]
		}
		if extra.FlipX {
			u = tiling[0] - u
		}
		if extra.FlipY {
			v = tiling[1] - v
		}

		q[i] = Vertex{
			Position:      mvp.Mul4x1(c),
			Color:         extra.Tint,
			TexSlot:       float32(slot),
			TexFilter:     float32(filter),
			AlphaClip:     extra.AlphaClipThreshold,
			TexWrapping:   mgl32.Vec2{float32(wrapS), float32(wrapT)},
			BorderColor:   border,
			TexRect:       rect,
			TexSize:       size,
			TexCoord:      mgl32.Vec2{u, v},
			TexCoordRange: uvRange,
		}
	}

	r.batch.insert(transparent, transform.At(2, 3), q)
	r.stats.QuadCount++
}
