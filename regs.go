// regs.go - the GPU register file: a dense array of 32-bit words plus typed
// bit-field overlay views, grounded on video_voodoo.go's shadow regs[256]
// array and voodoo_constants.go's bitfield layout constants.

package picagpu

// NumRegs is the size of the register file, word-indexed.
const NumRegs = 0x100

// Register index layout. Each block below is a typed "overlay view" over a
// contiguous slice of the word array; RegisterFile itself only knows about
// plain uint32 storage; the side effects of writing a trigger register live
// in Core.WriteRegister (regs.go stays a dumb array on purpose, same split
// the teacher keeps between VoodooEngine.regs and the handler switch).
const (
	RegStatus      = 0x00
	RegVSMainEntry = 0x01

	RegVSInputMapBase  = 0x10 // 16 words, one per VS input attribute slot
	RegVSOutputMapBase = 0x20 // 8 words, one per output register o0-o7 (x|y|z|w semantic codes packed)

	RegFBColorAddr  = 0x30
	RegFBDepthAddr  = 0x31
	RegFBWidth      = 0x32
	RegFBHeight     = 0x33
	RegFBColorFmt   = 0x34
	RegFBDepthFmt   = 0x35
	RegFBActiveSwap = 0x36 // trigger: present frame

	RegTexUnitBase  = 0x40 // 3 units * 8 words
	texUnitStride   = 8
	texEnabled      = 0
	texPhysAddr     = 1
	texWidth        = 2
	texHeight       = 3
	texWrapS        = 4
	texWrapT        = 5
	texFormat       = 6

	RegTEVStageBase = 0x60 // 6 stages * 3 words
	tevStageStride  = 3
	tevColorCombine = 0
	tevAlphaCombine = 1
	tevConstant     = 2

	RegTransferBase    = 0x80
	xferInputAddr      = 0
	xferOutputAddr     = 1
	xferInWidth        = 2
	xferInHeight       = 3
	xferOutWidth       = 4
	xferOutHeight      = 5
	xferFormats        = 6
	xferTrigger        = 7 // trigger: bit 0, run transfer engine

	RegFillBase  = 0x90 // 2 fill units * 4 words
	fillStride   = 4
	fillStart    = 0
	fillEnd      = 1
	fillValue    = 2
	fillTrigger  = 3 // trigger: bit 0

	RegCmdProcBase    = 0xA0
	cmdBufAddr        = 0
	cmdBufSize        = 1
	cmdTrigger        = 2 // trigger: bit 0, submit command list
)

const NumTextureUnits = 3
const NumTEVStages = 6
const NumFillUnits = 2

// WrapMode is a texture wrap mode for one coordinate axis.
type WrapMode uint32

const (
	WrapClampToEdge WrapMode = 0
	WrapRepeat      WrapMode = 1
)

// TextureFormat enumerates supported texel formats. Only RGB8 is required
// by spec; others are accepted by the register file but the sampler
// defaults unknown formats to opaque black per §7.
type TextureFormat uint32

const (
	TexFormatRGB8 TextureFormat = 0
)

// RegisterFile is a plain array of 32-bit words. It knows nothing about
// side effects; Read/Write are unconditional stores, matching spec §4.2's
// "all other writes are plain stores."
type RegisterFile struct {
	words [NumRegs]uint32
}

func (r *RegisterFile) Read(index uint32) uint32 {
	if index >= NumRegs {
		return 0
	}
	return r.words[index]
}

func (r *RegisterFile) Write(index uint32, value uint32) {
	if index >= NumRegs {
		return
	}
	r.words[index] = value
}

func (r *RegisterFile) Reset() {
	for i := range r.words {
		r.words[i] = 0
	}
	for i := 0; i < 16; i++ {
		r.words[RegVSInputMapBase+i] = uint32(i)
	}
}

// --- typed overlay views ---

func (r *RegisterFile) VSInputMap(slot int) uint32 {
	return r.words[RegVSInputMapBase+slot]
}

// VSOutputMap returns the four packed 8-bit semantic codes (x,y,z,w) for
// output attribute slot a.
func (r *RegisterFile) VSOutputMap(a int) (x, y, z, w uint8) {
	word := r.words[RegVSOutputMapBase+a]
	return uint8(word), uint8(word >> 8), uint8(word >> 16), uint8(word >> 24)
}

type FramebufferConfig struct {
	ColorAddr  uint32
	DepthAddr  uint32
	Width      uint32
	Height     uint32
	ColorFmt   uint32
	DepthFmt   uint32
}

func (r *RegisterFile) Framebuffer() FramebufferConfig {
	return FramebufferConfig{
		ColorAddr: r.words[RegFBColorAddr],
		DepthAddr: r.words[RegFBDepthAddr],
		Width:     r.words[RegFBWidth],
		Height:    r.words[RegFBHeight],
		ColorFmt:  r.words[RegFBColorFmt],
		DepthFmt:  r.words[RegFBDepthFmt],
	}
}

// TextureUnit is the typed view of one of the 3 texture-unit register
// blocks described in spec §3/§4.6.
type TextureUnit struct {
	Enabled  bool
	PhysAddr uint32
	Width    uint32
	Height   uint32
	WrapS    WrapMode
	WrapT    WrapMode
	Format   TextureFormat
}

func (r *RegisterFile) TextureUnit(unit int) TextureUnit {
	base := RegTexUnitBase + unit*texUnitStride
	return TextureUnit{
		Enabled:  r.words[base+texEnabled] != 0,
		PhysAddr: r.words[base+texPhysAddr],
		Width:    r.words[base+texWidth],
		Height:   r.words[base+texHeight],
		WrapS:    WrapMode(r.words[base+texWrapS]),
		WrapT:    WrapMode(r.words[base+texWrapT]),
		Format:   TextureFormat(r.words[base+texFormat]),
	}
}

// TEVStageRegs is the raw packed view of one TEV stage's three control
// words, unpacked into the richer TEVStage type by tev.go.
type TEVStageRegs struct {
	ColorCombine uint32
	AlphaCombine uint32
	Constant     uint32
}

func (r *RegisterFile) TEVStage(stage int) TEVStageRegs {
	base := RegTEVStageBase + stage*tevStageStride
	return TEVStageRegs{
		ColorCombine: r.words[base+tevColorCombine],
		AlphaCombine: r.words[base+tevAlphaCombine],
		Constant:     r.words[base+tevConstant],
	}
}

type TransferConfig struct {
	InputAddr  uint32
	OutputAddr uint32
	InWidth    uint32
	InHeight   uint32
	OutWidth   uint32
	OutHeight  uint32
	Formats    uint32
}

func (r *RegisterFile) Transfer() TransferConfig {
	base := RegTransferBase
	return TransferConfig{
		InputAddr:  r.words[base+xferInputAddr],
		OutputAddr: r.words[base+xferOutputAddr],
		InWidth:    r.words[base+xferInWidth],
		InHeight:   r.words[base+xferInHeight],
		OutWidth:   r.words[base+xferOutWidth],
		OutHeight:  r.words[base+xferOutHeight],
		Formats:    r.words[base+xferFormats],
	}
}

type FillConfig struct {
	Start uint32
	End   uint32
	Value uint32
}

func (r *RegisterFile) Fill(unit int) FillConfig {
	base := RegFillBase + unit*fillStride
	return FillConfig{
		Start: r.words[base+fillStart],
		End:   r.words[base+fillEnd],
		Value: r.words[base+fillValue],
	}
}

type CmdProcConfig struct {
	BufAddr uint32
	BufSize uint32
}

func (r *RegisterFile) CmdProc() CmdProcConfig {
	base := RegCmdProcBase
	return CmdProcConfig{
		BufAddr: r.words[base+cmdBufAddr],
		BufSize: r.words[base+cmdBufSize],
	}
}

// isTrigger reports whether a write to index should fire a side effect,
// per the trigger table in spec §4.2.
func isTrigger(index uint32) bool {
	switch index {
	case RegFBActiveSwap:
		return true
	case RegTransferBase + xferTrigger:
		return true
	case RegCmdProcBase + cmdTrigger:
		return true
	}
	for i := 0; i < NumFillUnits; i++ {
		if index == RegFillBase+uint32(i*fillStride)+fillTrigger {
			return true
		}
	}
	return false
}
