package thicket

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// batchShaderSrc is the Kage program used by EbitenDevice to draw batched
// quads. Per-vertex custom values carry the alpha-clip threshold (x), the
// S and T wrap modes (y, z) and the filter mode (w).
const batchShaderSrc = `//kage:unit pixels
package main

var Textured float
var BorderColor vec4

func wrapCoord(t float, mode float) float {
	if mode < 1.5 {
		return fract(t)
	}
	if mode < 2.5 {
		m := mod(t, 2.0)
		if m > 1.0 {
			return 2.0 - m
		}
		return m
	}
	return clamp(t, 0.0, 1.0)
}

func outside(t float, mode float) bool {
	return mode > 3.5 && (t < 0.0 || t > 1.0)
}

func sampleNearest(origin vec2, size vec2, p vec2) vec4 {
	return imageSrc0UnsafeAt(origin + clamp(floor(p)+0.5, vec2(0.5), size-0.5))
}

func sampleLinear(origin vec2, size vec2, p vec2) vec4 {
	q := clamp(p-0.5, vec2(0.0), size-1.0)
	f := fract(q)
	base := origin + floor(q) + 0.5
	next := vec2(0.0)
	if q.x < size.x-1.0 {
		next.x = 1.0
	}
	if q.y < size.y-1.0 {
		next.y = 1.0
	}
	c00 := imageSrc0UnsafeAt(base)
	c10 := imageSrc0UnsafeAt(base + vec2(next.x, 0.0))
	c01 := imageSrc0UnsafeAt(base + vec2(0.0, next.y))
	c11 := imageSrc0UnsafeAt(base + next)
	return mix(mix(c00, c10, f.x), mix(c01, c11, f.x), f.y)
}

func Fragment(dstPos vec4, srcPos vec2, color vec4, custom vec4) vec4 {
	tint := vec4(color.rgb*color.a, color.a)
	if Textured < 0.5 {
		return tint
	}

	origin := imageSrc0Origin()
	size := imageSrc0Size()
	uv := (srcPos - origin) / size

	var c vec4
	if outside(uv.x, custom.y) || outside(uv.y, custom.z) {
		c = vec4(BorderColor.rgb*BorderColor.a, BorderColor.a)
	} else {
		uv = vec2(wrapCoord(uv.x, custom.y), wrapCoord(uv.y, custom.z))
		if custom.w > 1.5 {
			c = sampleLinear(origin, size, uv*size)
		} else {
			c = sampleNearest(origin, size, uv*size)
		}
	}

	c *= tint
	if c.a <= custom.x {
		discard()
	}
	return c
}
`

// BatchShaderSource returns the Kage source of the batch shader.
func BatchShaderSource() []byte {
	return []byte(batchShaderSrc)
}

// ebitenShader is the Shader of an EbitenDevice.
type ebitenShader struct {
	uniformSet
	dev    *EbitenDevice
	shader *ebiten.Shader
}

func (s *ebitenShader) Bind() {
	s.dev.shader = s
}

func (s *ebitenShader) Unbind() {
	if s.dev.shader == s {
		s.dev.shader = nil
	}
}
