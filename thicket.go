package thicket

import "github.com/go-gl/mathgl/mgl32"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float32
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// Vec4 returns the color as an mgl32 vector in RGBA order.
func (c Color) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{c.R, c.G, c.B, c.A}
}

// Rect is an axis-aligned rectangle. Texture rects are normalized to the
// master texture, so X, Y, Width and Height lie in [0, 1].
type Rect struct {
	X, Y, Width, Height float32
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// TextureType distinguishes textures that own GPU storage from views into
// another texture and from unresolved asset references.
type TextureType int8

const (
	TextureMaster      TextureType = iota // owns its GPU texture
	TextureSubtexture                     // region of a master texture
	TexturePlaceholder                    // unresolved asset reference; never drawn
)

// TextureFiltering selects the sampling filter. TextureFilteringNone on a draw
// call means "use the texture's own default".
type TextureFiltering int8

const (
	TextureFilteringNone TextureFiltering = iota
	TextureFilteringNearest
	TextureFilteringLinear
)

// TextureWrapping selects the wrap mode for one texture axis.
// TextureWrappingNone on a draw call means "use the texture's own default".
type TextureWrapping int8

const (
	TextureWrappingNone TextureWrapping = iota
	TextureWrappingRepeat
	TextureWrappingMirroredRepeat
	TextureWrappingClampToEdge
	TextureWrappingClampToBorder
)

// TextureFormat is the channel layout of a texture. It decides whether quads
// drawn with it can go through the opaque path.
type TextureFormat int8

const (
	TextureFormatNone TextureFormat = iota
	TextureFormatRGB
	TextureFormatRGBA
)

// ClearFlags selects which buffers a camera clears before rendering.
type ClearFlags uint8

const (
	ClearColorBuffer ClearFlags = 1 << iota
	ClearDepthBuffer
)
