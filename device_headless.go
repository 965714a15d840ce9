package thicket

import (
	"image"
	"sync/atomic"
)

var nextHeadlessTextureID atomic.Uint64

// HeadlessDevice is a Device that draws nothing and records every call. It
// backs tests and tooling that run without a window.
type HeadlessDevice struct {
	MaxSlots int

	Bindings  map[int]GPUTexture // current slot bindings
	DrawCalls []HeadlessDrawCall
	Clears    int
	ShaderErr error // returned by NewShader when set

	shader     *HeadlessShader
	allocsVB   int
	allocsIB   int
	uploadedVB int
}

// HeadlessDrawCall is one recorded DrawIndexed call.
type HeadlessDrawCall struct {
	IndexCount  int
	Vertices    []byte             // copy of the bytes uploaded before the draw
	Indices     []uint32           // copy of the first IndexCount indices
	Textures    map[int]GPUTexture // slot bindings at draw time
	ShaderBound bool
}

// NewHeadlessDevice returns a device reporting maxSlots texture units.
func NewHeadlessDevice(maxSlots int) *HeadlessDevice {
	return &HeadlessDevice{
		MaxSlots: maxSlots,
		Bindings: make(map[int]GPUTexture),
	}
}

// HeadlessTexture is a texture of a HeadlessDevice.
type HeadlessTexture struct {
	id   uint64
	w, h int
}

// NewHeadlessTexture returns a texture with a fresh identity.
func NewHeadlessTexture(w, h int) *HeadlessTexture {
	return &HeadlessTexture{id: nextHeadlessTextureID.Add(1), w: w, h: h}
}

func (t *HeadlessTexture) RendererID() uint64 { return t.id }
func (t *HeadlessTexture) Width() int         { return t.w }
func (t *HeadlessTexture) Height() int        { return t.h }

type headlessVertexBuffer struct {
	dev  *HeadlessDevice
	data []byte
	size int
}

func (b *headlessVertexBuffer) SetData(data []byte) {
	if len(data) > b.size {
		panic("thicket: vertex upload exceeds buffer size")
	}
	b.data = append(b.data[:0], data...)
	b.dev.uploadedVB += len(data)
}

func (b *headlessVertexBuffer) Size() int { return b.size }

type headlessIndexBuffer struct {
	data  []uint32
	count int
}

func (b *headlessIndexBuffer) SetData(indices []uint32) {
	if len(indices) > b.count {
		panic("thicket: index upload exceeds buffer size")
	}
	b.data = append(b.data[:0], indices...)
}

func (b *headlessIndexBuffer) Count() int { return b.count }

// HeadlessShader records its uniforms and bind state.
type HeadlessShader struct {
	uniformSet
	Bound bool
}

func (s *HeadlessShader) Bind()   { s.Bound = true }
func (s *HeadlessShader) Unbind() { s.Bound = false }

// Uniform returns the stored value of a uniform.
func (s *HeadlessShader) Uniform(name string) any {
	return s.uniformSet[name]
}

func (d *HeadlessDevice) NewVertexBuffer(size int) VertexBuffer {
	d.allocsVB++
	return &headlessVertexBuffer{dev: d, size: size}
}

func (d *HeadlessDevice) NewIndexBuffer(count int) IndexBuffer {
	d.allocsIB++
	return &headlessIndexBuffer{count: count}
}

func (d *HeadlessDevice) NewTexture(img image.Image) GPUTexture {
	b := img.Bounds()
	return NewHeadlessTexture(b.Dx(), b.Dy())
}

func (d *HeadlessDevice) NewShader(src []byte) (Shader, error) {
	if d.ShaderErr != nil {
		return nil, d.ShaderErr
	}
	d.shader = &HeadlessShader{uniformSet: uniformSet{}}
	return d.shader, nil
}

func (d *HeadlessDevice) BindTexture(slot int, tex GPUTexture) {
	d.Bindings[slot] = tex
}

func (d *HeadlessDevice) DrawIndexed(vb VertexBuffer, ib IndexBuffer, indexCount int) {
	v := vb.(*headlessVertexBuffer)
	i := ib.(*headlessIndexBuffer)
	call := HeadlessDrawCall{
		IndexCount:  indexCount,
		Vertices:    append([]byte(nil), v.data...),
		Indices:     append([]uint32(nil), i.data[:indexCount]...),
		Textures:    make(map[int]GPUTexture, len(d.Bindings)),
		ShaderBound: d.shader != nil && d.shader.Bound,
	}
	for slot, tex := range d.Bindings {
		call.Textures[slot] = tex
	}
	d.DrawCalls = append(d.DrawCalls, call)
	clear(d.Bindings)
}

func (d *HeadlessDevice) MaxTextureSlots() int { return d.MaxSlots }

func (d *HeadlessDevice) Clear(Color, ClearFlags) { d.Clears++ }

// Shader returns the last shader created by NewShader.
func (d *HeadlessDevice) Shader() *HeadlessShader {
	return d.shader
}

// VertexBufferAllocations returns how many vertex buffers were allocated.
func (d *HeadlessDevice) VertexBufferAllocations() int {
	return d.allocsVB
}

// IndexBufferAllocations returns how many index buffers were allocated.
func (d *HeadlessDevice) IndexBufferAllocations() int {
	return d.allocsIB
}

// UploadedVertexBytes returns the total number of vertex bytes uploaded.
func (d *HeadlessDevice) UploadedVertexBytes() int {
	return d.uploadedVB
}
