// tev.go - the texture environment combiner: up to 6 fixed-function
// color/alpha combine stages, grounded on voodoo_software.go's
// combineColors and the fbzColorPath bitfield layout in voodoo_constants.go
// that drives it.

package picagpu

// TEVSource selects one of the combiner inputs for a stage term.
type TEVSource uint8

const (
	SrcPrimaryColor TEVSource = iota
	SrcTexture0
	SrcTexture1
	SrcTexture2
	SrcConstant
	SrcPrevious
	tevSourceReservedStart
)

// ColorModifier (required subset per spec §4.7).
type ColorModifier uint8

const (
	ModSourceColor ColorModifier = iota
	ModSourceAlpha
	colorModifierReservedStart
)

// AlphaModifier (required subset per spec §4.7).
type AlphaModifier uint8

const (
	ModAlphaSourceAlpha AlphaModifier = iota
	ModOneMinusSourceAlpha
	alphaModifierReservedStart
)

// TEVOp (required subset per spec §4.7).
type TEVOp uint8

const (
	OpReplace TEVOp = iota
	OpModulate
	OpAdd
	OpLerp
	tevOpReservedStart
)

type colorCombine struct {
	src1, src2, src3 TEVSource
	mod1, mod2, mod3 ColorModifier
	op               TEVOp
}

type alphaCombine struct {
	src1, src2, src3 TEVSource
	mod1, mod2, mod3 AlphaModifier
	op               TEVOp
}

func decodeColorCombine(word uint32) colorCombine {
	return colorCombine{
		src1: TEVSource((word >> 28) & 0xF),
		src2: TEVSource((word >> 24) & 0xF),
		src3: TEVSource((word >> 20) & 0xF),
		mod1: ColorModifier((word >> 18) & 0x3),
		mod2: ColorModifier((word >> 16) & 0x3),
		mod3: ColorModifier((word >> 14) & 0x3),
		op:   TEVOp((word >> 10) & 0xF),
	}
}

func decodeAlphaCombine(word uint32) alphaCombine {
	return alphaCombine{
		src1: TEVSource((word >> 28) & 0xF),
		src2: TEVSource((word >> 24) & 0xF),
		src3: TEVSource((word >> 20) & 0xF),
		mod1: AlphaModifier((word >> 18) & 0x3),
		mod2: AlphaModifier((word >> 16) & 0x3),
		mod3: AlphaModifier((word >> 14) & 0x3),
		op:   TEVOp((word >> 10) & 0xF),
	}
}

// TEVPipeline implements Combiner over the register file's 6 TEV stages.
type TEVPipeline struct {
	Regs  *RegisterFile
	Trace Tracer
}

// Evaluate runs all 6 stages in order, each reading Previous as the prior
// stage's combiner_output; stage 0's Previous is seeded with PrimaryColor
// (spec §9 leaves this unspecified; PrimaryColor is the natural seed since
// PICA hardware resets the combiner buffer to it before stage 0).
func (p *TEVPipeline) Evaluate(primary [4]uint8, tex [3][4]uint8) [4]uint8 {
	previous := primary
	for stage := 0; stage < NumTEVStages; stage++ {
		regs := p.Regs.TEVStage(stage)
		cc := decodeColorCombine(regs.ColorCombine)
		ac := decodeAlphaCombine(regs.AlphaCombine)
		constant := unpackRGBA8(regs.Constant)

		lookup := func(s TEVSource) [4]uint8 {
			switch s {
			case SrcPrimaryColor:
				return primary
			case SrcTexture0:
				return tex[0]
			case SrcTexture1:
				return tex[1]
			case SrcTexture2:
				return tex[2]
			case SrcConstant:
				return constant
			case SrcPrevious:
				return previous
			default:
				p.Trace.trace("unknown TEV source %d at stage %d", s, stage)
				return [4]uint8{0, 0, 0, 0}
			}
		}

		c1 := applyColorModifier(p.Trace, cc.mod1, lookup(cc.src1))
		c2 := applyColorModifier(p.Trace, cc.mod2, lookup(cc.src2))
		c3 := applyColorModifier(p.Trace, cc.mod3, lookup(cc.src3))
		colorOut := tevOpColor(p.Trace, cc.op, c1, c2, c3)

		a1 := applyAlphaModifier(p.Trace, ac.mod1, lookup(ac.src1))
		a2 := applyAlphaModifier(p.Trace, ac.mod2, lookup(ac.src2))
		a3 := applyAlphaModifier(p.Trace, ac.mod3, lookup(ac.src3))
		alphaOut := tevOpAlpha(p.Trace, ac.op, a1, a2, a3)

		previous = [4]uint8{colorOut[0], colorOut[1], colorOut[2], alphaOut}
	}
	return previous
}

func unpackRGBA8(word uint32) [4]uint8 {
	c := RGBA8(word)
	return [4]uint8{c.R(), c.G(), c.B(), c.A()}
}

func applyColorModifier(trace Tracer, mod ColorModifier, src [4]uint8) [3]uint8 {
	switch mod {
	case ModSourceColor:
		return [3]uint8{src[0], src[1], src[2]}
	case ModSourceAlpha:
		return [3]uint8{src[3], src[3], src[3]}
	default:
		trace.trace("unknown TEV color modifier %d", mod)
		return [3]uint8{0, 0, 0}
	}
}

func applyAlphaModifier(trace Tracer, mod AlphaModifier, src [4]uint8) uint8 {
	switch mod {
	case ModAlphaSourceAlpha:
		return src[3]
	case ModOneMinusSourceAlpha:
		return 255 - src[3]
	default:
		trace.trace("unknown TEV alpha modifier %d", mod)
		return 0
	}
}

func tevOpColor(trace Tracer, op TEVOp, c1, c2, c3 [3]uint8) [3]uint8 {
	var out [3]uint8
	for ch := 0; ch < 3; ch++ {
		out[ch] = tevOpChannel(trace, op, c1[ch], c2[ch], c3[ch])
	}
	return out
}

func tevOpAlpha(trace Tracer, op TEVOp, a1, a2, a3 uint8) uint8 {
	return tevOpChannel(trace, op, a1, a2, a3)
}

// tevOpChannel implements Replace/Modulate/Add/Lerp per spec §4.7.
// Division truncates; Add saturates at 255.
func tevOpChannel(trace Tracer, op TEVOp, in0, in1, in2 uint8) uint8 {
	switch op {
	case OpReplace:
		return in0
	case OpModulate:
		return uint8((uint32(in0) * uint32(in1)) / 255)
	case OpAdd:
		sum := uint32(in0) + uint32(in1)
		if sum > 255 {
			return 255
		}
		return uint8(sum)
	case OpLerp:
		num := uint32(in0)*uint32(in2) + uint32(in1)*(255-uint32(in2))
		return uint8(num / 255)
	default:
		trace.trace("unknown TEV op %d", op)
		return 0
	}
}
