package thicket

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// fpsRefresh is how often the overlay text is redrawn, in seconds.
const fpsRefresh = 0.5

// fpsOverlay draws FPS, TPS and the renderer statistics of the last frame in
// the top-left corner of the screen.
type fpsOverlay struct {
	img     *ebiten.Image
	elapsed float64
}

func newFPSOverlay() *fpsOverlay {
	// 160x48 fits three lines of debug text
	return &fpsOverlay{img: ebiten.NewImage(160, 48), elapsed: fpsRefresh}
}

func (o *fpsOverlay) update(dt float64, stats Statistics) {
	o.elapsed += dt
	if o.elapsed < fpsRefresh {
		return
	}
	o.elapsed = 0

	o.img.Clear()
	o.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(o.img, fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nQuads: %d  Calls: %d",
		ebiten.ActualFPS(), ebiten.ActualTPS(), stats.QuadCount, stats.DrawCalls))
}

func (o *fpsOverlay) draw(screen *ebiten.Image) {
	screen.DrawImage(o.img, nil)
}
