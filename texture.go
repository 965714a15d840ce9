package thicket

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"os"

	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

// GPUTexture is a texture resident on a Device. RendererID must be stable
// for the lifetime of the texture and unique among live textures; the
// renderer uses it to deduplicate texture bindings.
type GPUTexture interface {
	RendererID() uint64
	Width() int
	Height() int
}

// Texture2D is a drawable texture asset. A master texture owns a GPUTexture;
// a subtexture is a pixel region of a master and shares its GPUTexture; a
// placeholder names an asset that has not been resolved yet and is never
// drawn.
type Texture2D struct {
	typ    TextureType
	gpu    GPUTexture
	master *Texture2D
	path   string

	rect          Rect // normalized to the master; {0,0,1,1} for masters
	width, height int
	format        TextureFormat

	filtering   TextureFiltering
	wrapS       TextureWrapping
	wrapT       TextureWrapping
	borderColor Color
}

// NewTexture2D wraps gpu as a master texture. Sampling defaults to linear
// filtering with repeat wrapping.
func NewTexture2D(gpu GPUTexture, format TextureFormat) *Texture2D {
	return &Texture2D{
		typ:       TextureMaster,
		gpu:       gpu,
		rect:      Rect{0, 0, 1, 1},
		width:     gpu.Width(),
		height:    gpu.Height(),
		format:    format,
		filtering: TextureFilteringLinear,
		wrapS:     TextureWrappingRepeat,
		wrapT:     TextureWrappingRepeat,
	}
}

// NewSubTexture returns the region r (in master pixels) of master. Passing a
// subtexture as master slices its own master instead.
func NewSubTexture(master *Texture2D, r image.Rectangle) *Texture2D {
	for master.typ == TextureSubtexture {
		r = r.Add(image.Pt(
			int(master.rect.X*float32(master.master.width)),
			int(master.rect.Y*float32(master.master.height)),
		))
		master = master.master
	}
	if master.typ != TextureMaster {
		panic("thicket: subtexture of a placeholder texture")
	}
	mw, mh := float32(master.width), float32(master.height)
	return &Texture2D{
		typ:    TextureSubtexture,
		master: master,
		rect: Rect{
			X:      float32(r.Min.X) / mw,
			Y:      float32(r.Min.Y) / mh,
			Width:  float32(r.Dx()) / mw,
			Height: float32(r.Dy()) / mh,
		},
		width:  r.Dx(),
		height: r.Dy(),
		format: master.format,
	}
}

// NewPlaceholderTexture returns an unresolved reference to the asset at path.
func NewPlaceholderTexture(path string) *Texture2D {
	return &Texture2D{typ: TexturePlaceholder, path: path}
}

// LoadTexture2D decodes the image file at path (png, jpeg, bmp or webp) and
// uploads it to dev.
func LoadTexture2D(dev Device, path string) (*Texture2D, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("thicket: open texture: %w", err)
	}
	defer f.Close()
	tex, err := DecodeTexture2D(dev, f)
	if err != nil {
		return nil, fmt.Errorf("thicket: load texture %q: %w", path, err)
	}
	tex.path = path
	return tex, nil
}

// DecodeTexture2D decodes an image from r and uploads it to dev. Images
// without any translucent pixel are classified as RGB.
func DecodeTexture2D(dev Device, r io.Reader) (*Texture2D, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return NewTexture2DFromImage(dev, img), nil
}

// NewTexture2DFromImage uploads img to dev as a master texture.
func NewTexture2DFromImage(dev Device, img image.Image) *Texture2D {
	format := TextureFormatRGBA
	if isOpaque(img) {
		format = TextureFormatRGB
	}
	return NewTexture2D(dev.NewTexture(img), format)
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba.Opaque()
}

// Type returns the texture kind.
func (t *Texture2D) Type() TextureType {
	return t.typ
}

// Path returns the asset path the texture was loaded from or refers to.
func (t *Texture2D) Path() string {
	return t.path
}

// GPUTexture returns the backing GPU texture, shared with the master for
// subtextures. Nil for placeholders.
func (t *Texture2D) GPUTexture() GPUTexture {
	switch t.typ {
	case TextureMaster:
		return t.gpu
	case TextureSubtexture:
		return t.master.gpu
	default:
		return nil
	}
}

// MasterTexture returns the master of a subtexture, t itself for masters and
// nil for placeholders.
func (t *Texture2D) MasterTexture() *Texture2D {
	switch t.typ {
	case TextureMaster:
		return t
	case TextureSubtexture:
		return t.master
	default:
		return nil
	}
}

// Rect returns the region of the master texture, normalized to [0, 1].
func (t *Texture2D) Rect() Rect {
	return t.rect
}

// Width returns the width of the region in pixels.
func (t *Texture2D) Width() int {
	return t.width
}

// Height returns the height of the region in pixels.
func (t *Texture2D) Height() int {
	return t.height
}

// Format returns the channel layout.
func (t *Texture2D) Format() TextureFormat {
	return t.format
}

// Filtering returns the default filter. Subtextures without their own
// setting inherit the master's.
func (t *Texture2D) Filtering() TextureFiltering {
	if t.filtering == TextureFilteringNone && t.typ == TextureSubtexture {
		return t.master.Filtering()
	}
	return t.filtering
}

// SetFiltering sets the default filter.
func (t *Texture2D) SetFiltering(f TextureFiltering) {
	t.filtering = f
}

// XWrapping returns the default wrap mode along S.
func (t *Texture2D) XWrapping() TextureWrapping {
	if t.wrapS == TextureWrappingNone && t.typ == TextureSubtexture {
		return t.master.XWrapping()
	}
	return t.wrapS
}

// YWrapping returns the default wrap mode along T.
func (t *Texture2D) YWrapping() TextureWrapping {
	if t.wrapT == TextureWrappingNone && t.typ == TextureSubtexture {
		return t.master.YWrapping()
	}
	return t.wrapT
}

// SetWrapping sets the default wrap modes.
func (t *Texture2D) SetWrapping(s, tw TextureWrapping) {
	t.wrapS = s
	t.wrapT = tw
}

// BorderColor returns the color sampled outside the texture with
// TextureWrappingClampToBorder.
func (t *Texture2D) BorderColor() Color {
	if t.typ == TextureSubtexture && t.borderColor == (Color{}) {
		return t.master.BorderColor()
	}
	return t.borderColor
}

// SetBorderColor sets the border color.
func (t *Texture2D) SetBorderColor(c Color) {
	t.borderColor = c
}
