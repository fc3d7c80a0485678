// primitive.go - the primitive assembler: turns three shaded OutputVertex
// values into a Triangle ready for the rasterizer, grounded on
// video_voodoo.go's executeTriangleCmd (which likewise takes a batch of
// shaded vertices and hands them to the backend as one triangle).

package picagpu

// Triangle is three post-VS vertices after perspective divide.
type Triangle struct {
	V [3]OutputVertex
}

// AssembleTriangle runs the fixed post-VS pipeline described in spec §4.4:
// perspective divide for x/y, z carried through for later depth scaling.
// The viewport transform is out of scope here (folded into the VS program
// itself, which is expected to emit positions already in the desired
// screen/viewport space before the divide).
func AssembleTriangle(v0, v1, v2 OutputVertex) Triangle {
	var tri Triangle
	tri.V[0] = assembleVertex(v0)
	tri.V[1] = assembleVertex(v1)
	tri.V[2] = assembleVertex(v2)
	return tri
}

func assembleVertex(v OutputVertex) OutputVertex {
	w := v.Pos.W().ToF32()
	var invW float32
	if w != 0 {
		invW = 1 / w
	} else {
		// perspective divide by zero must not trap; substitute a finite value.
		invW = 1
	}
	v.ScreenPos[0] = v.Pos.X().ToF32() * invW
	v.ScreenPos[1] = v.Pos.Y().ToF32() * invW
	v.ScreenPos[2] = v.Pos.Z().ToF32()
	return v
}
