package thicket

import (
	"encoding/json"
	"fmt"
	"image"
	"sort"

	"go.uber.org/zap"
)

// AtlasRegion describes a named sprite within an atlas page, in page pixels.
type AtlasRegion struct {
	Page                int
	X, Y, Width, Height int
	OriginalW           int // untrimmed sprite width as authored
	OriginalH           int // untrimmed sprite height as authored
	OffsetX, OffsetY    int // trim offset from TexturePacker
	Rotated             bool
}

// Atlas holds atlas page textures and one subtexture per named region.
type Atlas struct {
	// Pages contains the atlas page textures indexed by page number.
	Pages    []*Texture2D
	regions  map[string]AtlasRegion
	textures map[string]*Texture2D
}

// Region returns the named region.
func (a *Atlas) Region(name string) (AtlasRegion, bool) {
	r, ok := a.regions[name]
	return r, ok
}

// Texture returns the subtexture for name. Unknown names yield a
// placeholder, which the renderer skips, and a warning.
func (a *Atlas) Texture(name string) *Texture2D {
	if t, ok := a.textures[name]; ok {
		return t
	}
	logger.Warn("atlas region not found, using placeholder", zap.String("region", name))
	return NewPlaceholderTexture(name)
}

// ResolveTexture implements AssetResolver by region name.
func (a *Atlas) ResolveTexture(name string) (*Texture2D, bool) {
	t, ok := a.textures[name]
	return t, ok
}

// Names returns the region names in sorted order.
func (a *Atlas) Names() []string {
	names := make([]string, 0, len(a.regions))
	for n := range a.regions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LoadAtlas parses TexturePacker JSON and slices the given page textures.
// Supports both the hash format (single "frames" object) and the array format
// ("textures" array with per-page frame lists).
func LoadAtlas(jsonData []byte, pages []*Texture2D) (*Atlas, error) {
	var probe struct {
		Frames   json.RawMessage `json:"frames"`
		Textures json.RawMessage `json:"textures"`
	}
	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("thicket: failed to parse atlas JSON: %w", err)
	}

	atlas := &Atlas{
		Pages:    pages,
		regions:  make(map[string]AtlasRegion),
		textures: make(map[string]*Texture2D),
	}

	switch {
	case probe.Textures != nil:
		if err := parseArrayFormat(probe.Textures, atlas); err != nil {
			return nil, err
		}
	case probe.Frames != nil:
		if err := parseHashFrames(probe.Frames, 0, atlas); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("thicket: atlas JSON has neither \"frames\" nor \"textures\" key")
	}

	for name, r := range atlas.regions {
		if r.Page >= len(pages) || pages[r.Page] == nil {
			return nil, fmt.Errorf("thicket: atlas region %q references missing page %d", name, r.Page)
		}
		sub := NewSubTexture(pages[r.Page], image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height))
		sub.path = name
		atlas.textures[name] = sub
	}
	return atlas, nil
}

type jsonRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type jsonSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

type jsonFrame struct {
	Frame            jsonRect `json:"frame"`
	Rotated          bool     `json:"rotated"`
	Trimmed          bool     `json:"trimmed"`
	SpriteSourceSize jsonRect `json:"spriteSourceSize"`
	SourceSize       jsonSize `json:"sourceSize"`
}

type jsonTexturePage struct {
	Image  string               `json:"image"`
	Frames map[string]jsonFrame `json:"frames"`
}

func parseHashFrames(raw json.RawMessage, page int, atlas *Atlas) error {
	var frames map[string]jsonFrame
	if err := json.Unmarshal(raw, &frames); err != nil {
		return fmt.Errorf("thicket: failed to parse atlas frames: %w", err)
	}
	for name, f := range frames {
		atlas.regions[name] = f.region(page)
	}
	return nil
}

func parseArrayFormat(raw json.RawMessage, atlas *Atlas) error {
	var textures []jsonTexturePage
	if err := json.Unmarshal(raw, &textures); err != nil {
		return fmt.Errorf("thicket: failed to parse atlas textures array: %w", err)
	}
	for i, tex := range textures {
		for name, f := range tex.Frames {
			atlas.regions[name] = f.region(i)
		}
	}
	return nil
}

func (f jsonFrame) region(page int) AtlasRegion {
	return AtlasRegion{
		Page:      page,
		X:         f.Frame.X,
		Y:         f.Frame.Y,
		Width:     f.Frame.W,
		Height:    f.Frame.H,
		OriginalW: f.SourceSize.W,
		OriginalH: f.SourceSize.H,
		OffsetX:   f.SpriteSourceSize.X,
		OffsetY:   f.SpriteSourceSize.Y,
		Rotated:   f.Rotated,
	}
}
