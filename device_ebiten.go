package thicket

import (
	"fmt"
	"image"
	"image/color"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
)

var nextEbitenTextureID atomic.Uint64

// EbitenDevice draws batches onto an ebiten image. Each renderer draw call
// becomes one DrawTrianglesShader32 call per run of quads that sample the
// same texture region.
type EbitenDevice struct {
	target   *ebiten.Image
	maxSlots int
	bindings map[int]*EbitenTexture
	shader   *ebitenShader

	verts    []ebiten.Vertex
	inds     []uint32
	uniforms map[string]any
}

// NewEbitenDevice returns a device exposing maxSlots texture units.
func NewEbitenDevice(maxSlots int) *EbitenDevice {
	return &EbitenDevice{
		maxSlots: maxSlots,
		bindings: make(map[int]*EbitenTexture),
		uniforms: make(map[string]any),
	}
}

// SetTarget sets the image subsequent draws render into.
func (d *EbitenDevice) SetTarget(target *ebiten.Image) {
	d.target = target
}

// Target returns the current render target.
func (d *EbitenDevice) Target() *ebiten.Image {
	return d.target
}

// EbitenTexture is a GPUTexture backed by an ebiten image.
type EbitenTexture struct {
	id  uint64
	img *ebiten.Image
}

// NewEbitenTexture wraps an existing ebiten image.
func NewEbitenTexture(img *ebiten.Image) *EbitenTexture {
	return &EbitenTexture{id: nextEbitenTextureID.Add(1), img: img}
}

func (t *EbitenTexture) RendererID() uint64 { return t.id }
func (t *EbitenTexture) Width() int         { return t.img.Bounds().Dx() }
func (t *EbitenTexture) Height() int        { return t.img.Bounds().Dy() }

// Image returns the backing ebiten image.
func (t *EbitenTexture) Image() *ebiten.Image { return t.img }

type byteVertexBuffer struct {
	data []byte
	size int
}

func (b *byteVertexBuffer) SetData(data []byte) {
	if len(data) > b.size {
		panic("thicket: vertex upload exceeds buffer size")
	}
	b.data = append(b.data[:0], data...)
}

func (b *byteVertexBuffer) Size() int { return b.size }

type uint32IndexBuffer struct {
	data  []uint32
	count int
}

func (b *uint32IndexBuffer) SetData(indices []uint32) {
	if len(indices) > b.count {
		panic("thicket: index upload exceeds buffer size")
	}
	b.data = append(b.data[:0], indices...)
}

func (b *uint32IndexBuffer) Count() int { return b.count }

func (d *EbitenDevice) NewVertexBuffer(size int) VertexBuffer {
	return &byteVertexBuffer{data: make([]byte, 0, size), size: size}
}

func (d *EbitenDevice) NewIndexBuffer(count int) IndexBuffer {
	return &uint32IndexBuffer{data: make([]uint32, 0, count), count: count}
}

func (d *EbitenDevice) NewTexture(img image.Image) GPUTexture {
	return NewEbitenTexture(ebiten.NewImageFromImage(img))
}

func (d *EbitenDevice) NewShader(src []byte) (Shader, error) {
	s, err := ebiten.NewShader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShaderCompile, err)
	}
	return &ebitenShader{uniformSet: uniformSet{}, dev: d, shader: s}, nil
}

func (d *EbitenDevice) BindTexture(slot int, tex GPUTexture) {
	et, ok := tex.(*EbitenTexture)
	if !ok {
		panic(fmt.Sprintf("thicket: texture %T was not created by an EbitenDevice", tex))
	}
	d.bindings[slot] = et
}

func (d *EbitenDevice) MaxTextureSlots() int { return d.maxSlots }

func (d *EbitenDevice) Clear(c Color, flags ClearFlags) {
	if d.target == nil || flags&ClearColorBuffer == 0 {
		return
	}
	d.target.Fill(color.NRGBA{
		R: uint8(clamp01(c.R) * 255),
		G: uint8(clamp01(c.G) * 255),
		B: uint8(clamp01(c.B) * 255),
		A: uint8(clamp01(c.A) * 255),
	})
}

// runKey identifies quads that can share one ebiten draw.
type runKey struct {
	slot   int
	rect   Rect
	border Color
}

func quadRunKey(v *Vertex) runKey {
	k := runKey{slot: int(v.TexSlot)}
	if k.slot >= 0 {
		k.rect = v.TexRect
		k.border = v.BorderColor
	}
	return k
}

func (d *EbitenDevice) DrawIndexed(vb VertexBuffer, ib IndexBuffer, indexCount int) {
	if d.target == nil || d.shader == nil {
		return
	}
	data := vb.(*byteVertexBuffer).data
	indices := ib.(*uint32IndexBuffer).data
	quads := indexCount / 6
	if quads*QuadStride > len(data) {
		quads = len(data) / QuadStride
	}

	bounds := d.target.Bounds()
	w, h := float32(bounds.Dx()), float32(bounds.Dy())

	start := 0
	var key runKey
	for q := 0; q <= quads; q++ {
		var v Vertex
		if q < quads {
			v = DecodeVertex(data[q*QuadStride:])
			if q == start {
				key = quadRunKey(&v)
				continue
			}
			if quadRunKey(&v) == key {
				continue
			}
		}
		d.drawRun(data, indices, start, q, key, w, h)
		start = q
		key = quadRunKey(&v)
	}
	clear(d.bindings)
}

// drawRun draws quads [from, to) which all share key.
func (d *EbitenDevice) drawRun(data []byte, indices []uint32, from, to int, key runKey, w, h float32) {
	if from >= to {
		return
	}
	var src *ebiten.Image
	var region image.Rectangle
	if key.slot >= 0 {
		tex := d.bindings[key.slot]
		if tex == nil {
			return
		}
		region = pixelRect(key.rect, tex.Width(), tex.Height())
		src = tex.img.SubImage(region).(*ebiten.Image)
	}

	d.verts = d.verts[:0]
	for i := from * 4; i < to*4; i++ {
		v := DecodeVertex(data[i*VertexStride:])
		d.verts = append(d.verts, toEbitenVertex(&v, region, w, h))
	}
	d.inds = d.inds[:0]
	base := uint32(from * 4)
	for _, idx := range indices[from*6 : to*6] {
		d.inds = append(d.inds, idx-base)
	}

	clear(d.uniforms)
	for k, v := range d.shader.uniformSet {
		d.uniforms[k] = v
	}
	op := &ebiten.DrawTrianglesShaderOptions{Uniforms: d.uniforms}
	if src != nil {
		op.Images[0] = src
		d.uniforms["Textured"] = float32(1)
		d.uniforms["BorderColor"] = []float32{key.border.R, key.border.G, key.border.B, key.border.A}
	} else {
		d.uniforms["Textured"] = float32(0)
	}
	d.target.DrawTrianglesShader32(d.verts, d.inds, d.shader.shader, op)
}

// pixelRect converts a normalized rect to pixels of a w by h image.
func pixelRect(r Rect, w, h int) image.Rectangle {
	return image.Rect(
		int(r.X*float32(w)+0.5),
		int(r.Y*float32(h)+0.5),
		int((r.X+r.Width)*float32(w)+0.5),
		int((r.Y+r.Height)*float32(h)+0.5),
	)
}

// toEbitenVertex maps a clip-space vertex onto a w by h target. UVs are
// expressed in pixels of region with V pointing down.
func toEbitenVertex(v *Vertex, region image.Rectangle, w, h float32) ebiten.Vertex {
	p := v.Position
	if p[3] != 0 {
		p = p.Mul(1 / p[3])
	}
	ev := ebiten.Vertex{
		DstX:    (p[0]*0.5 + 0.5) * w,
		DstY:    (0.5 - p[1]*0.5) * h,
		ColorR:  v.Color.R,
		ColorG:  v.Color.G,
		ColorB:  v.Color.B,
		ColorA:  v.Color.A,
		Custom0: v.AlphaClip,
		Custom1: v.TexWrapping[0],
		Custom2: v.TexWrapping[1],
		Custom3: v.TexFilter,
	}
	if !region.Empty() {
		ev.SrcX = float32(region.Min.X) + v.TexCoord[0]*float32(region.Dx())
		ev.SrcY = float32(region.Min.Y) + (1-v.TexCoord[1])*float32(region.Dy())
	}
	return ev
}

func clamp01(f float32) float32 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
