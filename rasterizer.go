// rasterizer.go - fixed-point edge-function rasterizer with perspective
// correct interpolation, grounded on voodoo_software.go's rasterizeTriangle
// and edgeFunction. Unlike the teacher, there is no backface cull/vertex
// swap and no depth test: spec requires an explicit top-left/right-edge
// bias per edge and an unconditional depth write.

package picagpu

import (
	"math"

	"golang.org/x/sync/errgroup"
)

// toQ12_4 converts a float32 screen coordinate to Q12.4 fixed point by
// truncation, per spec §4.5.
func toQ12_4(f float32) int32 {
	return int32(f * 16)
}

// orient2d is the signed edge function: twice the signed area of triangle
// a,b,c, computed here in the caller's chosen fixed-point or float domain.
func orient2d(ax, ay, bx, by, cx, cy int32) int32 {
	return (bx-ax)*(cy-ay) - (by-ay)*(cx-ax)
}

func orient2dF(ax, ay, bx, by, cx, cy float32) float32 {
	return (bx-ax)*(cy-ay) - (by-ay)*(cx-ax)
}

// edgeBias computes the top-left/right-edge fill rule bias for one
// directed edge (A,B) with opposing vertex C, per spec §4.5: -1 for a
// "right side or flat bottom" edge, 0 otherwise.
func edgeBias(ax, ay, bx, by, cx, cy float32) int32 {
	if ay == by {
		if cy < ay {
			return -1
		}
		return 0
	}
	if orient2dF(ax, ay, bx, by, cx, cy) < 0 {
		return -1
	}
	return 0
}

func min3f(a, b, c float32) float32 { return minf(minf(a, b), c) }
func max3f(a, b, c float32) float32 { return maxf(maxf(a, b), c) }
func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// Framebuffer is the color+depth target the rasterizer writes into.
type Framebuffer struct {
	Width, Height int
	Color         []RGBA8
	Depth         []uint16
}

func NewFramebuffer(w, h int) *Framebuffer {
	return &Framebuffer{Width: w, Height: h, Color: make([]RGBA8, w*h), Depth: make([]uint16, w*h)}
}

func (fb *Framebuffer) Clear(color RGBA8) {
	for i := range fb.Color {
		fb.Color[i] = color
		fb.Depth[i] = 0
	}
}

// TextureSampler samples texture unit `unit` at interpolated (u,v), or
// returns opaque black if the unit is disabled, per spec §4.6.
type TextureSampler interface {
	Sample(unit int, u, v float32) (r, g, b, a uint8)
}

// Combiner evaluates the TEV pipeline for one fragment, per spec §4.7.
type Combiner interface {
	Evaluate(primary [4]uint8, tex [3][4]uint8) (color [4]uint8)
}

// RasterizeTriangle scans tri into fb, sampling textures via tex and
// combining via comb, per spec §4.5. Pixel writes within one triangle
// happen in row-major order, satisfying the ordering guarantee in §5.
func RasterizeTriangle(fb *Framebuffer, tri Triangle, tex TextureSampler, comb Combiner) {
	v0, v1, v2 := tri.V[0], tri.V[1], tri.V[2]
	x0, y0 := v0.ScreenPos[0], v0.ScreenPos[1]
	x1, y1 := v1.ScreenPos[0], v1.ScreenPos[1]
	x2, y2 := v2.ScreenPos[0], v2.ScreenPos[1]

	minX := int(math.Floor(float64(min3f(x0, x1, x2))))
	maxX := int(math.Ceil(float64(max3f(x0, x1, x2))))
	minY := int(math.Floor(float64(min3f(y0, y1, y2))))
	maxY := int(math.Ceil(float64(max3f(y0, y1, y2))))

	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX > fb.Width {
		maxX = fb.Width
	}
	if maxY > fb.Height {
		maxY = fb.Height
	}
	if minX >= maxX || minY >= maxY {
		return
	}

	bias0 := edgeBias(x1, y1, x2, y2, x0, y0)
	bias1 := edgeBias(x2, y2, x0, y0, x1, y1)
	bias2 := edgeBias(x0, y0, x1, y1, x2, y2)

	qx0, qy0 := toQ12_4(x0), toQ12_4(y0)
	qx1, qy1 := toQ12_4(x1), toQ12_4(y1)
	qx2, qy2 := toQ12_4(x2), toQ12_4(y2)

	w0v := v0.Pos.W().ToF32()
	w1v := v1.Pos.W().ToF32()
	w2v := v2.Pos.W().ToF32()

	rasterizeRows(fb, tex, comb, minX, maxX, minY, maxY,
		bias0, bias1, bias2, qx0, qy0, qx1, qy1, qx2, qy2, w0v, w1v, w2v, v0, v1, v2)
}

// RasterizeTriangleParallel is the optional parallel-scanline path the
// concurrency model allows (spec §5): each goroutine owns a disjoint band
// of rows, so there is no shared-pixel race.
func RasterizeTriangleParallel(fb *Framebuffer, tri Triangle, tex TextureSampler, comb Combiner, workers int) error {
	if workers <= 1 {
		RasterizeTriangle(fb, tri, tex, comb)
		return nil
	}

	v0, v1, v2 := tri.V[0], tri.V[1], tri.V[2]
	x0, y0 := v0.ScreenPos[0], v0.ScreenPos[1]
	x1, y1 := v1.ScreenPos[0], v1.ScreenPos[1]
	x2, y2 := v2.ScreenPos[0], v2.ScreenPos[1]

	minX := int(math.Floor(float64(min3f(x0, x1, x2))))
	maxX := int(math.Ceil(float64(max3f(x0, x1, x2))))
	minY := int(math.Floor(float64(min3f(y0, y1, y2))))
	maxY := int(math.Ceil(float64(max3f(y0, y1, y2))))
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX > fb.Width {
		maxX = fb.Width
	}
	if maxY > fb.Height {
		maxY = fb.Height
	}
	if minX >= maxX || minY >= maxY {
		return nil
	}

	bias0 := edgeBias(x1, y1, x2, y2, x0, y0)
	bias1 := edgeBias(x2, y2, x0, y0, x1, y1)
	bias2 := edgeBias(x0, y0, x1, y1, x2, y2)
	qx0, qy0 := toQ12_4(x0), toQ12_4(y0)
	qx1, qy1 := toQ12_4(x1), toQ12_4(y1)
	qx2, qy2 := toQ12_4(x2), toQ12_4(y2)
	w0v := v0.Pos.W().ToF32()
	w1v := v1.Pos.W().ToF32()
	w2v := v2.Pos.W().ToF32()

	rows := maxY - minY
	band := (rows + workers - 1) / workers

	var g errgroup.Group
	for bandStart := minY; bandStart < maxY; bandStart += band {
		bandStart := bandStart
		bandEnd := bandStart + band
		if bandEnd > maxY {
			bandEnd = maxY
		}
		g.Go(func() error {
			rasterizeRows(fb, tex, comb, minX, maxX, bandStart, bandEnd,
				bias0, bias1, bias2, qx0, qy0, qx1, qy1, qx2, qy2, w0v, w1v, w2v, v0, v1, v2)
			return nil
		})
	}
	return g.Wait()
}

func rasterizeRows(fb *Framebuffer, tex TextureSampler, comb Combiner,
	minX, maxX, minY, maxY int,
	bias0, bias1, bias2, qx0, qy0, qx1, qy1, qx2, qy2 int32,
	w0v, w1v, w2v float32,
	v0, v1, v2 OutputVertex) {

	for y := minY; y < maxY; y++ {
		sampleY := toQ12_4(float32(y) + 0.5)
		rowBase := y * fb.Width
		for x := minX; x < maxX; x++ {
			sampleX := toQ12_4(float32(x) + 0.5)

			w0 := bias0 + orient2d(qx1, qy1, qx2, qy2, sampleX, sampleY)
			w1 := bias1 + orient2d(qx2, qy2, qx0, qy0, sampleX, sampleY)
			w2 := bias2 + orient2d(qx0, qy0, qx1, qy1, sampleX, sampleY)
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			fw0 := FromF32(float32(w0))
			fw1 := FromF32(float32(w1))
			fw2 := FromF32(float32(w2))
			wsum := fw0.Add(fw1).Add(fw2).ToF32()
			if wsum == 0 {
				continue
			}

			invWSum := fw0.ToF32()/w0v + fw1.ToF32()/w1v + fw2.ToF32()/w2v

			perspInterp := func(a0, a1, a2 Float24) float32 {
				if invWSum == 0 {
					return 0
				}
				sum := (a0.ToF32()/w0v)*fw0.ToF32() + (a1.ToF32()/w1v)*fw1.ToF32() + (a2.ToF32()/w2v)*fw2.ToF32()
				return sum / invWSum
			}

			r := perspInterp(v0.Color.R(), v1.Color.R(), v2.Color.R())
			g := perspInterp(v0.Color.G(), v1.Color.G(), v2.Color.G())
			b := perspInterp(v0.Color.B(), v1.Color.B(), v2.Color.B())
			a := perspInterp(v0.Color.A(), v1.Color.A(), v2.Color.A())

			tc0u := perspInterp(v0.TC0[0], v1.TC0[0], v2.TC0[0])
			tc0v := perspInterp(v0.TC0[1], v1.TC0[1], v2.TC0[1])
			tc1u := perspInterp(v0.TC1[0], v1.TC1[0], v2.TC1[0])
			tc1v := perspInterp(v0.TC1[1], v1.TC1[1], v2.TC1[1])
			tc2u := perspInterp(v0.TC2[0], v1.TC2[0], v2.TC2[0])
			tc2v := perspInterp(v0.TC2[1], v1.TC2[1], v2.TC2[1])

			z := (v0.ScreenPos[2]*w0f(w0) + v1.ScreenPos[2]*w0f(w1) + v2.ScreenPos[2]*w0f(w2)) / wsum * 65535
			depth := uint16(clampf01to(z, 0, 65535))

			primary := [4]uint8{to8(r), to8(g), to8(b), to8(a)}
			var texColors [3][4]uint8
			if tex != nil {
				tr, tg, tb, ta := tex.Sample(0, tc0u, tc0v)
				texColors[0] = [4]uint8{tr, tg, tb, ta}
				tr, tg, tb, ta = tex.Sample(1, tc1u, tc1v)
				texColors[1] = [4]uint8{tr, tg, tb, ta}
				tr, tg, tb, ta = tex.Sample(2, tc2u, tc2v)
				texColors[2] = [4]uint8{tr, tg, tb, ta}
			}

			var final [4]uint8
			if comb != nil {
				final = comb.Evaluate(primary, texColors)
			} else {
				final = primary
			}

			idx := rowBase + x
			fb.Color[idx] = PackRGBA8(final[0], final[1], final[2], final[3])
			fb.Depth[idx] = depth
		}
	}
}

func w0f(q int32) float32 { return float32(q) }

func to8(f float32) uint8 {
	return clamp8(int32(f*255 + 0.5))
}

func clampf01to(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
