//go:build headless

// previewbackend_headless.go - no-op stand-in for PreviewWindow when built
// with the headless tag, adapted from video_backend_headless.go's
// HeadlessVideoOutput: same "count frames, do nothing else" shape, for
// CI and batch-rendering runs with no display.

package picagpu

import "sync/atomic"

func init() {
	registerFeature("preview:headless")
}

type PreviewWindow struct {
	core       *Core
	scale      int
	frameCount uint64
}

func NewPreviewWindow(core *Core, scale int) *PreviewWindow {
	if scale < 1 {
		scale = 1
	}
	return &PreviewWindow{core: core, scale: scale}
}

// Run immediately returns nil: there is no display to drive. Callers
// that want headless batch output should read Core.Frame() directly.
func (w *PreviewWindow) Run(title string) error {
	atomic.AddUint64(&w.frameCount, 1)
	return nil
}
