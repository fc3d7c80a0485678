//go:build !headless

// previewbackend_ebiten.go - a live preview window for the GPU core's
// framebuffer, adapted from video_backend_ebiten.go's EbitenOutput: same
// ebiten.Game-driven window loop and frame-buffer-to-image blit, trimmed
// to what a software rasterizer preview needs (no keyboard input
// forwarding, no clipboard paste, no palette/sprite capability flags,
// none of which this core has a counterpart for).

package picagpu

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
)

func init() {
	registerFeature("preview:ebiten")
}

// PreviewWindow blits Core.Frame() to a resizable ebiten window once per
// Draw call. It implements ebiten.Game directly, same shape as the
// teacher's EbitenOutput.
type PreviewWindow struct {
	core   *Core
	scale  int
	mu     sync.RWMutex
	pixels []byte
	img    *ebiten.Image
}

func NewPreviewWindow(core *Core, scale int) *PreviewWindow {
	if scale < 1 {
		scale = 1
	}
	return &PreviewWindow{
		core:  core,
		scale: scale,
		img:   ebiten.NewImage(core.FB.Width, core.FB.Height),
	}
}

// Run starts the ebiten main loop and blocks until the window is closed.
func (w *PreviewWindow) Run(title string) error {
	ebiten.SetWindowSize(w.core.FB.Width*w.scale, w.core.FB.Height*w.scale)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizable(true)
	ebiten.SetVsyncEnabled(true)
	return ebiten.RunGame(w)
}

// Update implements ebiten.Game. The core's own Tick drives simulation;
// the preview window only needs to refresh its backing image.
func (w *PreviewWindow) Update() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pixels = rgba8ToBytes(w.core.Frame(), w.pixels)
	w.img.WritePixels(w.pixels)
	return nil
}

func (w *PreviewWindow) Draw(screen *ebiten.Image) {
	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(float64(w.scale), float64(w.scale))
	screen.DrawImage(w.img, opts)
}

func (w *PreviewWindow) Layout(outsideWidth, outsideHeight int) (int, int) {
	return w.core.FB.Width * w.scale, w.core.FB.Height * w.scale
}

// rgba8ToBytes packs the RGBA8 framebuffer into the tightly-packed byte
// slice ebiten.Image.WritePixels expects, reusing buf's backing array
// across calls when it is already the right size.
func rgba8ToBytes(px []RGBA8, buf []byte) []byte {
	need := len(px) * 4
	if cap(buf) < need {
		buf = make([]byte, need)
	}
	buf = buf[:need]
	for i, p := range px {
		r, g, b, a := p.R(), p.G(), p.B(), p.A()
		buf[i*4+0] = r
		buf[i*4+1] = g
		buf[i*4+2] = b
		buf[i*4+3] = a
	}
	return buf
}
