package thicket

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is one corner of a batched quad. Field order matches VertexLayout.
type Vertex struct {
	Position      mgl32.Vec4 // clip space
	Color         Color
	TexSlot       float32 // -1 for flat-color quads
	TexFilter     float32
	AlphaClip     float32
	TexWrapping   mgl32.Vec2 // S, T
	BorderColor   Color
	TexRect       Rect       // normalized region of the master texture
	TexSize       mgl32.Vec2 // region size in pixels
	TexCoord      mgl32.Vec2
	TexCoordRange mgl32.Vec4 // min U, min V, max U, max V
}

// VertexAttribute describes one interleaved float attribute.
type VertexAttribute struct {
	Name       string
	Components int
	Offset     int // bytes from the start of the vertex
}

// VertexLayout is the interleaved attribute layout of Vertex. There is no
// padding between attributes.
var VertexLayout = []VertexAttribute{
	{"a_Position", 4, 0},
	{"a_Color", 4, 16},
	{"a_TexSlot", 1, 32},
	{"a_TexFilter", 1, 36},
	{"a_TexAlphaClippingThreshold", 1, 40},
	{"a_TexWrapping", 2, 44},
	{"a_TexBorderColor", 4, 52},
	{"a_TexRect", 4, 68},
	{"a_TexSize", 2, 84},
	{"a_TexCoord", 2, 92},
	{"a_TexCoordRange", 4, 100},
}

const (
	// VertexFloats is the number of float32 values per vertex.
	VertexFloats = 29
	// VertexStride is the size of one encoded vertex in bytes.
	VertexStride = VertexFloats * 4
	// QuadStride is the size of one encoded quad in bytes.
	QuadStride = 4 * VertexStride
)

// quadCorners are the object-space corners of the unit quad in vertex order.
var quadCorners = [4]mgl32.Vec4{
	{-0.5, -0.5, 0, 1},
	{0.5, -0.5, 0, 1},
	{0.5, 0.5, 0, 1},
	{-0.5, 0.5, 0, 1},
}

// quadIndexPattern forms two triangles from the four corners of a quad.
var quadIndexPattern = [6]uint32{0, 1, 2, 2, 3, 0}

// quad is the four vertices of one submission.
type quad [4]Vertex

// floats flattens v in layout order.
func (v *Vertex) floats() [VertexFloats]float32 {
	return [VertexFloats]float32{
		v.Position[0], v.Position[1], v.Position[2], v.Position[3],
		v.Color.R, v.Color.G, v.Color.B, v.Color.A,
		v.TexSlot,
		v.TexFilter,
		v.AlphaClip,
		v.TexWrapping[0], v.TexWrapping[1],
		v.BorderColor.R, v.BorderColor.G, v.BorderColor.B, v.BorderColor.A,
		v.TexRect.X, v.TexRect.Y, v.TexRect.Width, v.TexRect.Height,
		v.TexSize[0], v.TexSize[1],
		v.TexCoord[0], v.TexCoord[1],
		v.TexCoordRange[0], v.TexCoordRange[1], v.TexCoordRange[2], v.TexCoordRange[3],
	}
}

// appendVertex appends the little-endian encoding of v to buf.
func appendVertex(buf []byte, v *Vertex) []byte {
	for _, f := range v.floats() {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

// DecodeVertex decodes one vertex from the first VertexStride bytes of b.
func DecodeVertex(b []byte) Vertex {
	var f [VertexFloats]float32
	for i := range f {
		f[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return Vertex{
		Position:      mgl32.Vec4{f[0], f[1], f[2], f[3]},
		Color:         Color{f[4], f[5], f[6], f[7]},
		TexSlot:       f[8],
		TexFilter:     f[9],
		AlphaClip:     f[10],
		TexWrapping:   mgl32.Vec2{f[11], f[12]},
		BorderColor:   Color{f[13], f[14], f[15], f[16]},
		TexRect:       Rect{f[17], f[18], f[19], f[20]},
		TexSize:       mgl32.Vec2{f[21], f[22]},
		TexCoord:      mgl32.Vec2{f[23], f[24]},
		TexCoordRange: mgl32.Vec4{f[25], f[26], f[27], f[28]},
	}
}

// appendQuadIndices extends indices so that it covers quadCount quads.
// Only indices for quads beyond those already present are generated.
func appendQuadIndices(indices []uint32, quadCount int) []uint32 {
	for q := len(indices) / 6; q < quadCount; q++ {
		base := uint32(4 * q)
		for _, i := range quadIndexPattern {
			indices = append(indices, base+i)
		}
	}
	return indices
}
