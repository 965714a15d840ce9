package thicket

import (
	"errors"
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrShaderCompile wraps shader compilation failures.
var ErrShaderCompile = errors.New("thicket: shader compile failed")

// Device is the graphics backend the renderer draws through. Every call is
// synchronous from the caller's point of view.
type Device interface {
	// NewVertexBuffer allocates a vertex buffer of size bytes.
	NewVertexBuffer(size int) VertexBuffer
	// NewIndexBuffer allocates an index buffer holding count indices.
	NewIndexBuffer(count int) IndexBuffer
	// NewTexture uploads img.
	NewTexture(img image.Image) GPUTexture
	// NewShader compiles the batch shader from source.
	NewShader(src []byte) (Shader, error)
	// BindTexture binds tex to a texture slot for the next draw.
	BindTexture(slot int, tex GPUTexture)
	// DrawIndexed draws indexCount indices of ib over vb with the bound
	// textures and shader.
	DrawIndexed(vb VertexBuffer, ib IndexBuffer, indexCount int)
	// MaxTextureSlots returns the number of texture units per draw.
	MaxTextureSlots() int
	// Clear clears the selected buffers of the current target.
	Clear(c Color, flags ClearFlags)
}

// VertexBuffer is GPU vertex storage.
type VertexBuffer interface {
	// SetData uploads data at offset zero. len(data) must not exceed Size.
	SetData(data []byte)
	Size() int
}

// IndexBuffer is GPU index storage.
type IndexBuffer interface {
	// SetData uploads indices at offset zero. len(indices) must not exceed Count.
	SetData(indices []uint32)
	Count() int
}

// Shader is a compiled batch shader with named uniforms.
type Shader interface {
	Bind()
	Unbind()
	SetInt(name string, v int32)
	SetIntArray(name string, v []int32)
	SetFloat(name string, v float32)
	SetFloat2(name string, v mgl32.Vec2)
	SetFloat3(name string, v mgl32.Vec3)
	SetFloat4(name string, v mgl32.Vec4)
	SetMat3(name string, v mgl32.Mat3)
	SetMat4(name string, v mgl32.Mat4)
}

// uniformSet stores shader uniforms by name in the value shapes ebiten
// accepts for Kage uniforms.
type uniformSet map[string]any

func (u uniformSet) SetInt(name string, v int32)        { u[name] = v }
func (u uniformSet) SetIntArray(name string, v []int32) { u[name] = append([]int32(nil), v...) }
func (u uniformSet) SetFloat(name string, v float32)    { u[name] = v }
func (u uniformSet) SetFloat2(name string, v mgl32.Vec2) {
	u[name] = []float32{v[0], v[1]}
}
func (u uniformSet) SetFloat3(name string, v mgl32.Vec3) {
	u[name] = []float32{v[0], v[1], v[2]}
}
func (u uniformSet) SetFloat4(name string, v mgl32.Vec4) {
	u[name] = []float32{v[0], v[1], v[2], v[3]}
}

// Matrices are stored column-major, matching mgl32.
func (u uniformSet) SetMat3(name string, v mgl32.Mat3) { u[name] = append([]float32(nil), v[:]...) }
func (u uniformSet) SetMat4(name string, v mgl32.Mat4) { u[name] = append([]float32(nil), v[:]...) }
