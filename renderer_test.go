package thicket

import (
	"errors"
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func newTestRenderer(t testing.TB, maxSlots, capacity int) (*Renderer2D, *HeadlessDevice) {
	t.Helper()
	dev := NewHeadlessDevice(32)
	r, err := NewRenderer2D(dev, RendererConfig{
		InitialQuadCapacity: capacity,
		MaxTextureSlots:     maxSlots,
	})
	if err != nil {
		t.Fatalf("NewRenderer2D: %v", err)
	}
	return r, dev
}

func rgbTexture(w, h int) *Texture2D {
	return NewTexture2D(NewHeadlessTexture(w, h), TextureFormatRGB)
}

// drawnVertex decodes corner corner of quad index from a recorded draw call.
func drawnVertex(call HeadlessDrawCall, index, corner int) Vertex {
	return DecodeVertex(call.Vertices[index*QuadStride+corner*VertexStride:])
}

func at(z float32) mgl32.Mat4 {
	return mgl32.Translate3D(0, 0, z)
}

// --- ordering ---

func TestRendererTransparentDepthOrder(t *testing.T) {
	r, dev := newTestRenderer(t, 16, 10)
	r.BeginScene(mgl32.Ident4())
	for _, z := range []float32{5, 1, 3} {
		r.DrawQuad(at(z), Color{1, 1, 1, 0.5}, 0)
	}
	r.EndScene()

	if len(dev.DrawCalls) != 1 {
		t.Fatalf("draw calls = %d, want 1", len(dev.DrawCalls))
	}
	var got []float32
	for i := 0; i < 3; i++ {
		got = append(got, drawnVertex(dev.DrawCalls[0], i, 0).Position[2])
	}
	assertFloats(t, "depths", got, []float32{1, 3, 5})
}

func TestRendererOpaqueThenTransparent(t *testing.T) {
	r, dev := newTestRenderer(t, 16, 10)
	r.BeginScene(mgl32.Ident4())
	r.DrawQuad(at(0.5), Color{0, 0, 1, 1}, 0)
	r.DrawQuad(at(2), Color{1, 0, 0, 0.5}, 0)
	r.DrawQuad(at(1), Color{0, 1, 0, 0.5}, 0)
	r.EndScene()

	call := dev.DrawCalls[0]
	first := drawnVertex(call, 0, 0)
	if first.Color.A != 1 || first.Color.B != 1 {
		t.Errorf("quad 0 = %+v, want the opaque quad", first.Color)
	}
	assertNear(t, "quad 1 depth", float64(drawnVertex(call, 1, 0).Position[2]), 1)
	assertNear(t, "quad 2 depth", float64(drawnVertex(call, 2, 0).Position[2]), 2)
}

// --- texture slots ---

func TestRendererSlotExhaustionDrawCalls(t *testing.T) {
	const maxSlots = 4
	for _, n := range []int{1, 3, 4, 5, 8, 9, 16, 17} {
		r, dev := newTestRenderer(t, maxSlots, 10)
		r.BeginScene(mgl32.Ident4())
		for i := 0; i < n; i++ {
			r.DrawTexturedQuad(at(0), rgbTexture(8, 8), DefaultTexturedQuadExtraData())
		}
		r.EndScene()

		want := (n + maxSlots - 1) / maxSlots
		if got := len(dev.DrawCalls); got != want {
			t.Errorf("n=%d: draw calls = %d, want %d", n, got, want)
		}
		if got := r.Stats().DrawCalls; got != want {
			t.Errorf("n=%d: stats draw calls = %d, want %d", n, got, want)
		}
		if got := r.Stats().ForcedFlushes; got != want-1 {
			t.Errorf("n=%d: forced flushes = %d, want %d", n, got, want-1)
		}
		if got := r.Stats().QuadCount; got != n {
			t.Errorf("n=%d: quads = %d, want %d", n, got, n)
		}
		for i, call := range dev.DrawCalls {
			if len(call.Textures) > maxSlots {
				t.Errorf("n=%d: call %d bound %d textures", n, i, len(call.Textures))
			}
		}
	}
}

func TestRendererReusesSlotForSameTexture(t *testing.T) {
	r, dev := newTestRenderer(t, 2, 10)
	master := rgbTexture(64, 64)
	left := NewSubTexture(master, image.Rect(0, 0, 32, 64))
	right := NewSubTexture(master, image.Rect(32, 0, 64, 64))

	r.BeginScene(mgl32.Ident4())
	for i := 0; i < 20; i++ {
		r.DrawTexturedQuad(at(0), master, DefaultTexturedQuadExtraData())
		r.DrawTexturedQuad(at(0), left, DefaultTexturedQuadExtraData())
		r.DrawTexturedQuad(at(0), right, DefaultTexturedQuadExtraData())
	}
	r.EndScene()

	if len(dev.DrawCalls) != 1 {
		t.Fatalf("draw calls = %d, want 1", len(dev.DrawCalls))
	}
	call := dev.DrawCalls[0]
	if len(call.Textures) != 1 || call.Textures[0] != master.GPUTexture() {
		t.Errorf("bound textures = %v, want only the master at slot 0", call.Textures)
	}
	for i := 0; i < 60; i++ {
		if slot := drawnVertex(call, i, 0).TexSlot; slot != 0 {
			t.Fatalf("quad %d slot = %v, want 0", i, slot)
		}
	}
}

func TestRenderForcedFlushStartsNewDepthContext(t *testing.T) {
	r, dev := newTestRenderer(t, 1, 10)
	a, b := rgbTexture(1, 1), rgbTexture(1, 1)
	extra := DefaultTexturedQuadExtraData()
	extra.Tint.A = 0.5

	r.BeginScene(mgl32.Ident4())
	r.DrawTexturedQuad(at(5), a, extra)
	r.DrawTexturedQuad(at(1), b, extra)
	r.EndScene()

	if len(dev.DrawCalls) != 2 {
		t.Fatalf("draw calls = %d, want 2", len(dev.DrawCalls))
	}
	assertNear(t, "first call depth", float64(drawnVertex(dev.DrawCalls[0], 0, 0).Position[2]), 5)
	assertNear(t, "second call depth", float64(drawnVertex(dev.DrawCalls[1], 0, 0).Position[2]), 1)
}

// --- flush & growth ---

func TestRendererFlushEmpty(t *testing.T) {
	r, dev := newTestRenderer(t, 16, 10)
	r.BeginScene(mgl32.Ident4())
	r.Flush()
	r.EndScene()

	if len(dev.DrawCalls) != 0 || r.Stats().DrawCalls != 0 {
		t.Errorf("draw calls = %d (stats %d), want 0", len(dev.DrawCalls), r.Stats().DrawCalls)
	}
	if dev.UploadedVertexBytes() != 0 {
		t.Errorf("uploaded %d bytes, want 0", dev.UploadedVertexBytes())
	}
}

func TestRendererUploadsOnlyUsedBytes(t *testing.T) {
	r, dev := newTestRenderer(t, 16, 100)
	r.BeginScene(mgl32.Ident4())
	for i := 0; i < 3; i++ {
		r.DrawQuad(at(0), ColorWhite, 0)
	}
	r.EndScene()

	if got := dev.UploadedVertexBytes(); got != 3*QuadStride {
		t.Errorf("uploaded = %d, want %d", got, 3*QuadStride)
	}
	if got := dev.DrawCalls[0].IndexCount; got != 18 {
		t.Errorf("index count = %d, want 18", got)
	}
	if !dev.DrawCalls[0].ShaderBound {
		t.Error("shader should be bound at draw time")
	}
}

func TestRendererGrowsToExactCount(t *testing.T) {
	r, dev := newTestRenderer(t, 16, 10)
	r.BeginScene(mgl32.Ident4())
	for i := 0; i < 25; i++ {
		r.DrawQuad(at(0), ColorWhite, 0)
	}
	r.EndScene()

	if r.QuadCapacity() != 25 {
		t.Errorf("capacity = %d, want 25", r.QuadCapacity())
	}
	if r.Stats().CapacityGrowths != 1 {
		t.Errorf("growths = %d, want 1", r.Stats().CapacityGrowths)
	}
	if dev.VertexBufferAllocations() != 2 || dev.IndexBufferAllocations() != 2 {
		t.Errorf("allocations vb=%d ib=%d, want 2 each",
			dev.VertexBufferAllocations(), dev.IndexBufferAllocations())
	}

	call := dev.DrawCalls[0]
	if call.IndexCount != 150 {
		t.Fatalf("index count = %d, want 150", call.IndexCount)
	}
	for q := 0; q < 25; q++ {
		for i, p := range quadIndexPattern {
			if got, want := call.Indices[q*6+i], uint32(4*q)+p; got != want {
				t.Fatalf("index[%d] = %d, want %d", q*6+i, got, want)
			}
		}
	}

	// A second smaller frame keeps the grown buffers.
	r.BeginScene(mgl32.Ident4())
	r.DrawQuad(at(0), ColorWhite, 0)
	r.EndScene()
	if dev.VertexBufferAllocations() != 2 {
		t.Error("smaller frame should not reallocate")
	}
}

func TestAppendQuadIndicesIncremental(t *testing.T) {
	prefix := appendQuadIndices(nil, 10)
	snapshot := append([]uint32(nil), prefix...)
	grown := appendQuadIndices(prefix, 25)

	want := appendQuadIndices(nil, 25)
	if len(grown) != len(want) {
		t.Fatalf("len = %d, want %d", len(grown), len(want))
	}
	for i := range want {
		if grown[i] != want[i] {
			t.Fatalf("index[%d] = %d, want %d", i, grown[i], want[i])
		}
	}
	for i := range snapshot {
		if grown[i] != snapshot[i] {
			t.Fatalf("existing index %d changed", i)
		}
	}
	if got := appendQuadIndices(grown, 5); len(got) != len(grown) {
		t.Error("shrinking request should not change indices")
	}
}

func TestRendererStatsResetOnBeginScene(t *testing.T) {
	r, _ := newTestRenderer(t, 16, 10)
	r.BeginScene(mgl32.Ident4())
	r.DrawQuad(at(0), ColorWhite, 0)
	r.EndScene()
	if r.Stats().QuadCount != 1 {
		t.Fatalf("quads = %d, want 1", r.Stats().QuadCount)
	}
	if r.Stats().IndexCount() != 6 || r.Stats().VertexCount() != 4 {
		t.Errorf("index/vertex count = %d/%d", r.Stats().IndexCount(), r.Stats().VertexCount())
	}
	r.BeginScene(mgl32.Ident4())
	if (r.Stats() != Statistics{}) {
		t.Errorf("stats = %+v, want zero", r.Stats())
	}
}

func TestRendererResetDropsPending(t *testing.T) {
	r, dev := newTestRenderer(t, 16, 10)
	r.BeginScene(mgl32.Ident4())
	r.DrawQuad(at(0), ColorWhite, 0)
	r.Reset()
	r.EndScene()
	if len(dev.DrawCalls) != 0 || r.PendingQuads() != 0 {
		t.Errorf("draws = %d pending = %d, want 0", len(dev.DrawCalls), r.PendingQuads())
	}
}

// --- clipping & placeholders ---

func TestRendererDrawQuadAlphaClip(t *testing.T) {
	r, _ := newTestRenderer(t, 16, 10)
	r.BeginScene(mgl32.Ident4())
	r.DrawQuad(at(0), Color{1, 1, 1, 0.5}, 0.5)
	if r.PendingQuads() != 0 {
		t.Error("alpha equal to the threshold should be clipped")
	}
	r.DrawQuad(at(0), Color{1, 1, 1, 0.6}, 0.5)
	if r.PendingQuads() != 1 {
		t.Error("alpha above the threshold should be drawn")
	}
}

func TestRendererTexturedClipStillBinds(t *testing.T) {
	r, _ := newTestRenderer(t, 16, 10)
	tex := rgbTexture(4, 4)
	extra := DefaultTexturedQuadExtraData()
	extra.AlphaClipThreshold = 1

	r.BeginScene(mgl32.Ident4())
	r.DrawTexturedQuad(at(0), tex, extra)
	if r.PendingQuads() != 0 {
		t.Error("threshold 1 should clip the quad")
	}
	if len(r.batch.bindList) != 1 {
		t.Errorf("bound = %d, want 1", len(r.batch.bindList))
	}

	extra.AlphaClipThreshold = 0.5
	extra.Tint.A = 0.4
	r.DrawTexturedQuad(at(0), tex, extra)
	if r.PendingQuads() != 0 {
		t.Error("tint alpha under the threshold should clip the quad")
	}
}

func TestRendererSkipsPlaceholderAndNil(t *testing.T) {
	r, dev := newTestRenderer(t, 16, 10)
	r.BeginScene(mgl32.Ident4())
	r.DrawTexturedQuad(at(0), NewPlaceholderTexture("missing.png"), DefaultTexturedQuadExtraData())
	r.DrawTexturedQuad(at(0), nil, DefaultTexturedQuadExtraData())
	r.SubmitQuad(at(0), Material{Texture: NewPlaceholderTexture("x.png")})
	r.EndScene()

	if len(dev.DrawCalls) != 0 || len(r.batch.bindList) != 0 {
		t.Errorf("draws = %d binds = %d, want nothing", len(dev.DrawCalls), len(r.batch.bindList))
	}
}

func TestRendererOpacityClassification(t *testing.T) {
	rgba := NewTexture2D(NewHeadlessTexture(2, 2), TextureFormatRGBA)
	rgb := rgbTexture(2, 2)
	tinted := DefaultTexturedQuadExtraData()
	tinted.Tint.A = 0.5

	tests := []struct {
		name   string
		tex    *Texture2D
		extra  TexturedQuadExtraData
		opaque bool
	}{
		{"rgb", rgb, DefaultTexturedQuadExtraData(), true},
		{"rgba", rgba, DefaultTexturedQuadExtraData(), false},
		{"rgb tinted", rgb, tinted, false},
	}
	for _, tt := range tests {
		r, _ := newTestRenderer(t, 16, 10)
		r.BeginScene(mgl32.Ident4())
		r.DrawTexturedQuad(at(0), tt.tex, tt.extra)
		if got := r.batch.opaqueInsertIndex == 1; got != tt.opaque {
			t.Errorf("%s: opaque = %v, want %v", tt.name, got, tt.opaque)
		}
	}
}

// --- per-vertex parameters ---

func TestRendererResolvesTextureDefaults(t *testing.T) {
	r, _ := newTestRenderer(t, 16, 10)
	tex := rgbTexture(16, 8)
	tex.SetFiltering(TextureFilteringNearest)
	tex.SetWrapping(TextureWrappingClampToEdge, TextureWrappingMirroredRepeat)
	tex.SetBorderColor(Color{1, 0, 0, 1})

	extra := DefaultTexturedQuadExtraData()
	extra.Wrapping[0] = TextureWrappingClampToBorder
	r.BeginScene(mgl32.Ident4())
	r.DrawTexturedQuad(at(0), tex, extra)

	v := r.batch.quads[0][0]
	if v.TexFilter != float32(TextureFilteringNearest) {
		t.Errorf("filter = %v, want texture default", v.TexFilter)
	}
	if v.TexWrapping != (mgl32.Vec2{float32(TextureWrappingClampToBorder), float32(TextureWrappingMirroredRepeat)}) {
		t.Errorf("wrapping = %v, want override S and default T", v.TexWrapping)
	}
	if v.BorderColor != (Color{1, 0, 0, 1}) {
		t.Errorf("border = %v, want texture default", v.BorderColor)
	}
	if v.TexSize != (mgl32.Vec2{16, 8}) {
		t.Errorf("size = %v, want 16x8", v.TexSize)
	}

	extra.OverrideBorderColor = true
	extra.BorderColor = Color{0, 0, 1, 1}
	extra.Filtering = TextureFilteringLinear
	r.DrawTexturedQuad(at(0), tex, extra)
	v = r.batch.quads[0][0]
	if v.BorderColor != (Color{0, 0, 1, 1}) || v.TexFilter != float32(TextureFilteringLinear) {
		t.Errorf("overrides not applied: border %v filter %v", v.BorderColor, v.TexFilter)
	}
}

func TestRendererTilingAndFlip(t *testing.T) {
	r, _ := newTestRenderer(t, 16, 10)
	extra := DefaultTexturedQuadExtraData()
	extra.Tiling = mgl32.Vec2{2, 1}
	extra.FlipX = true

	r.BeginScene(mgl32.Ident4())
	r.DrawTexturedQuad(at(0), rgbTexture(4, 4), extra)
	q := r.batch.quads[0]

	wantUV := []mgl32.Vec2{{2, 0}, {0, 0}, {0, 1}, {2, 1}}
	for i, want := range wantUV {
		if q[i].TexCoord != want {
			t.Errorf("corner %d uv = %v, want %v", i, q[i].TexCoord, want)
		}
	}
	if q[0].TexCoordRange != (mgl32.Vec4{2, 0, 0, 1}) {
		t.Errorf("uv range = %v, want {2 0 0 1}", q[0].TexCoordRange)
	}
}

func TestRendererDrawQuadVertices(t *testing.T) {
	r, _ := newTestRenderer(t, 16, 10)
	r.BeginScene(mgl32.Ident4())
	r.DrawQuadAt(mgl32.Vec3{1, 2, 0}, 0, mgl32.Vec2{2, 4}, ColorWhite, 0)

	q := r.batch.quads[0]
	assertVec3(t, "corner 0", q[0].Position.Vec3(), mgl32.Vec3{0, 0, 0})
	assertVec3(t, "corner 2", q[2].Position.Vec3(), mgl32.Vec3{2, 4, 0})
	if q[0].TexSlot != -1 {
		t.Errorf("flat quad slot = %v, want -1", q[0].TexSlot)
	}
}

func TestRendererBeginSceneCamera(t *testing.T) {
	r, _ := newTestRenderer(t, 16, 10)
	cam := NewSceneCamera()
	cam.SetViewportSize(200, 100)

	r.BeginSceneCamera(mgl32.Ident4(), &cam)
	r.DrawQuadAt(mgl32.Vec3{10, 5, 0}, 0, mgl32.Vec2{0, 0}, ColorWhite, 0)
	p := r.batch.quads[0][0].Position
	assertNear(t, "clip x", float64(p[0]), 1)
	assertNear(t, "clip y", float64(p[1]), 1)
}

// --- setup ---

func TestRendererSetsSlotUniform(t *testing.T) {
	r, dev := newTestRenderer(t, 4, 10)
	if r.MaxTextureSlots() != 4 {
		t.Fatalf("MaxTextureSlots = %d, want 4", r.MaxTextureSlots())
	}
	slots, ok := dev.Shader().Uniform("u_Slots").([]int32)
	if !ok || len(slots) != 4 || slots[3] != 3 {
		t.Errorf("u_Slots = %v, want [0 1 2 3]", dev.Shader().Uniform("u_Slots"))
	}
}

func TestRendererSlotLimitCappedByDevice(t *testing.T) {
	dev := NewHeadlessDevice(8)
	r, err := NewRenderer2D(dev, RendererConfig{MaxTextureSlots: 32})
	if err != nil {
		t.Fatal(err)
	}
	if r.MaxTextureSlots() != 8 {
		t.Errorf("MaxTextureSlots = %d, want 8", r.MaxTextureSlots())
	}
	if r.QuadCapacity() != DefaultRendererConfig().InitialQuadCapacity {
		t.Errorf("QuadCapacity = %d, want default", r.QuadCapacity())
	}
}

func TestRendererShaderCompileError(t *testing.T) {
	dev := NewHeadlessDevice(16)
	dev.ShaderErr = errors.New("syntax error")

	_, err := NewRenderer2D(dev, DefaultRendererConfig())
	if !errors.Is(err, ErrShaderCompile) {
		t.Errorf("err = %v, want ErrShaderCompile", err)
	}

	cfg := DefaultRendererConfig()
	cfg.Debug = true
	expectPanic(t, "debug shader failure", func() { _, _ = NewRenderer2D(dev, cfg) })
}

func TestVertexLayoutOffsets(t *testing.T) {
	offset, floats := 0, 0
	for _, a := range VertexLayout {
		if a.Offset != offset {
			t.Errorf("%s offset = %d, want %d", a.Name, a.Offset, offset)
		}
		offset += a.Components * 4
		floats += a.Components
	}
	if floats != VertexFloats || offset != VertexStride {
		t.Errorf("layout = %d floats / %d bytes, want %d / %d", floats, offset, VertexFloats, VertexStride)
	}
	if VertexStride != 116 {
		t.Errorf("VertexStride = %d, want 116", VertexStride)
	}
}

func TestVertexEncoding(t *testing.T) {
	v := Vertex{
		Position:      mgl32.Vec4{1, 2, 3, 4},
		Color:         Color{0.1, 0.2, 0.3, 0.4},
		TexSlot:       5,
		TexFilter:     2,
		AlphaClip:     0.25,
		TexWrapping:   mgl32.Vec2{1, 4},
		BorderColor:   Color{1, 0, 1, 1},
		TexRect:       Rect{0.5, 0, 0.5, 1},
		TexSize:       mgl32.Vec2{32, 64},
		TexCoord:      mgl32.Vec2{1, 0},
		TexCoordRange: mgl32.Vec4{0, 0, 1, 1},
	}
	b := appendVertex(nil, &v)
	if len(b) != VertexStride {
		t.Fatalf("encoded %d bytes, want %d", len(b), VertexStride)
	}
	if got := DecodeVertex(b); got != v {
		t.Errorf("decoded %+v, want %+v", got, v)
	}
}

// --- benchmarks ---

func BenchmarkRendererFrame1000(b *testing.B) {
	r, _ := newTestRenderer(b, 16, 1000)
	textures := make([]*Texture2D, 24)
	for i := range textures {
		textures[i] = rgbTexture(16, 16)
	}
	extra := DefaultTexturedQuadExtraData()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.BeginScene(mgl32.Ident4())
		for j := 0; j < 1000; j++ {
			extra.Tint.A = float32(j%2) * 0.5
			r.DrawTexturedQuad(at(float32(j%13)), textures[j%len(textures)], extra)
		}
		r.EndScene()
	}
}
