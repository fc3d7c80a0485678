// vsvm.go - the programmable vertex shader virtual machine.
//
// Instruction words and swizzle words are raw uint32s written incrementally
// by the host through ShaderMemory; decode happens here. Rather than one
// giant bit-packed struct, decode is a tagged union (per the "replace
// opcode switch with a tagged variant" design note): common-format
// arithmetic ops decode one shape, CALL decodes another, NOP/END decode
// neither.

package picagpu

const (
	InvalidAddress uint32 = 0xFFFFFFFF
	CallStackDepth        = 8
	NumTemporaries        = 16
	NumInputSlots         = 16
	NumFloatUniforms      = 32
)

// Opcode is the 6-bit instruction opcode.
type Opcode uint8

const (
	OpADD Opcode = iota
	OpMUL
	OpDP3
	OpDP4
	OpRCP
	OpRSQ
	OpMOV
	OpCALL
	OpNOP
	OpEND
	opReservedStart // anything >= this is "reserved"; trace and continue
)

// RegisterType selects which register bank a source operand reads from.
type RegisterType uint8

const (
	RegInput RegisterType = iota
	RegTemporary
	RegFloatUniform
)

// decoded instruction shapes
type commonInstr struct {
	opcode            Opcode
	dest              uint8
	src1Type, src2Type RegisterType
	src1Idx, src2Idx  uint8
	inverse           bool
	opdescID          uint8
}

type callInstr struct {
	destOffset uint32
}

func decodeOpcode(word uint32) Opcode {
	return Opcode((word >> 26) & 0x3F)
}

func decodeCommon(word uint32) commonInstr {
	return commonInstr{
		opcode:   decodeOpcode(word),
		dest:     uint8((word >> 20) & 0x3F),
		src1Type: RegisterType((word >> 18) & 0x3),
		src1Idx:  uint8((word >> 13) & 0x1F),
		src2Type: RegisterType((word >> 11) & 0x3),
		src2Idx:  uint8((word >> 6) & 0x1F),
		inverse:  (word>>5)&1 != 0,
		opdescID: uint8(word & 0x1F),
	}
}

func decodeCall(word uint32) callInstr {
	return callInstr{destOffset: (word >> 16) & 0x3FF}
}

// swizzlePattern is the decoded form of an operand-descriptor word.
type swizzlePattern struct {
	src1Sel   [4]uint8
	src2Sel   [4]uint8
	destMask  [4]bool
	negateSrc1 bool
	negateSrc2 bool
}

func decodeSwizzle(word uint32) swizzlePattern {
	var p swizzlePattern
	for lane := 0; lane < 4; lane++ {
		p.src1Sel[lane] = uint8((word >> (30 - 2*lane)) & 0x3)
		p.src2Sel[lane] = uint8((word >> (22 - 2*lane)) & 0x3)
	}
	mask := uint8((word >> 4) & 0xF)
	for lane := 0; lane < 4; lane++ {
		p.destMask[lane] = mask&(1<<uint(3-lane)) != 0
	}
	p.negateSrc1 = (word>>3)&1 != 0
	p.negateSrc2 = (word>>2)&1 != 0
	return p
}

func swizzle(src Vec4, sel [4]uint8, negate bool) Vec4 {
	var out Vec4
	for lane := 0; lane < 4; lane++ {
		v := src[sel[lane]]
		if negate {
			v = FromF32(-v.ToF32())
		}
		out[lane] = v
	}
	return out
}

// SemanticCode selects which OutputVertex lane a VS output component maps
// to. SemScratch is the sentinel unused slots point to.
type SemanticCode uint8

const (
	SemPosX SemanticCode = iota
	SemPosY
	SemPosZ
	SemPosW
	SemColorR
	SemColorG
	SemColorB
	SemColorA
	SemTC0U
	SemTC0V
	SemTC1U
	SemTC1V
	SemTC2U
	SemTC2V
	SemScratch
)

// VSVM is the vertex-shader virtual machine's execution state. One VSVM
// instance is reused across vertices (Run resets the per-vertex state).
type VSVM struct {
	mem    *ShaderMemory
	regs   *RegisterFile
	uniform [NumFloatUniforms]Vec4
	trace  Tracer

	pc        uint32
	temp      [NumTemporaries]Vec4
	status    [2]bool
	callStack [CallStackDepth]uint32
	callTop   int // number of valid entries on the stack

	maxOffset   uint32
	maxOpDescID uint32

	scratch Vec4 // sentinel destination for unused output slots
}

func NewVSVM(mem *ShaderMemory, regs *RegisterFile, trace Tracer) *VSVM {
	return &VSVM{mem: mem, regs: regs, trace: trace}
}

func (vm *VSVM) SetFloatUniform(index int, v Vec4) {
	if index < 0 || index >= NumFloatUniforms {
		vm.trace.trace("set_float_uniform out of range: index=%d", index)
		return
	}
	vm.uniform[index] = v
}

func (vm *VSVM) Reset() {
	*vm = VSVM{mem: vm.mem, regs: vm.regs, uniform: vm.uniform, trace: vm.trace}
}

// Run executes the shader program against one input vertex, per spec §4.3.
func (vm *VSVM) Run(input InputVertex, numAttributes int) (OutputVertex, error) {
	var inputTable [NumInputSlots]Vec4
	for i := 0; i < numAttributes && i < 16; i++ {
		slot := vm.regs.VSInputMap(i) & 0xF
		inputTable[slot] = input.Attr[i]
	}

	var out OutputVertex
	outputPtrs := vm.buildOutputPointers(&out)

	vm.temp = [NumTemporaries]Vec4{}
	vm.status = [2]bool{}
	for i := range vm.callStack {
		vm.callStack[i] = InvalidAddress
	}
	vm.callTop = 0
	vm.pc = vm.regs.Read(RegVSMainEntry)

	for {
		if vm.pc > vm.maxOffset {
			vm.maxOffset = vm.pc
		}
		if vm.pc >= ShaderMemSize {
			return out, &GPUError{Operation: "vs execute", Details: "pc out of range"}
		}
		word := vm.mem.Instructions[vm.pc]
		op := decodeOpcode(word)

		switch op {
		case OpCALL:
			ci := decodeCall(word)
			if vm.callTop >= CallStackDepth {
				return out, &GPUError{Operation: "vs execute", Details: "call stack overflow"}
			}
			vm.callStack[vm.callTop] = vm.pc + 1
			vm.callTop++
			vm.pc = ci.destOffset
			continue

		case OpEND:
			if vm.callTop == 0 {
				return out, nil
			}
			vm.callTop--
			vm.pc = vm.callStack[vm.callTop]
			continue

		case OpNOP:
			vm.pc++
			continue
		}

		ci := decodeCommon(word)
		if uint32(ci.opdescID) > vm.maxOpDescID {
			vm.maxOpDescID = uint32(ci.opdescID)
		}
		if uint32(ci.opdescID) >= ShaderMemSize {
			vm.trace.trace("operand descriptor id out of range: %d", ci.opdescID)
			vm.pc++
			continue
		}
		sp := decodeSwizzle(vm.mem.Swizzles[ci.opdescID])

		src1Raw := vm.resolveSource(ci.src1Type, ci.src1Idx, inputTable)
		src2Raw := vm.resolveSource(ci.src2Type, ci.src2Idx, inputTable)
		if ci.inverse {
			src1Raw, src2Raw = src2Raw, src1Raw
		}
		src1 := swizzle(src1Raw, sp.src1Sel, sp.negateSrc1)
		src2 := swizzle(src2Raw, sp.src2Sel, sp.negateSrc2)

		dest := vm.resolveDest(ci.dest, outputPtrs)
		if dest == nil {
			vm.trace.trace("write to reserved destination register %d", ci.dest)
			vm.pc++
			continue
		}

		switch op {
		case OpADD:
			for lane := 0; lane < 4; lane++ {
				if sp.destMask[lane] {
					*dest[lane] = src1[lane].Add(src2[lane])
				}
			}
		case OpMUL:
			for lane := 0; lane < 4; lane++ {
				if sp.destMask[lane] {
					*dest[lane] = src1[lane].Mul(src2[lane])
				}
			}
		case OpDP3:
			dot := dotN(src1, src2, 3)
			for lane := 0; lane < 4; lane++ {
				if sp.destMask[lane] {
					*dest[lane] = dot
				}
			}
		case OpDP4:
			dot := dotN(src1, src2, 4)
			for lane := 0; lane < 4; lane++ {
				if sp.destMask[lane] {
					*dest[lane] = dot
				}
			}
		case OpRCP:
			r := Rcp(src1[0])
			for lane := 0; lane < 4; lane++ {
				if sp.destMask[lane] {
					*dest[lane] = r
				}
			}
		case OpRSQ:
			r := Rsq(src1[0])
			for lane := 0; lane < 4; lane++ {
				if sp.destMask[lane] {
					*dest[lane] = r
				}
			}
		case OpMOV:
			for lane := 0; lane < 4; lane++ {
				if sp.destMask[lane] {
					*dest[lane] = src1[lane]
				}
			}
		default:
			vm.trace.trace("unimplemented opcode %d at pc=%d, treated as NOP", op, vm.pc)
		}
		vm.pc++
	}
}

func dotN(a, b Vec4, n int) Float24 {
	sum := float32(0)
	for i := 0; i < n; i++ {
		sum += a[i].ToF32() * b[i].ToF32()
	}
	return FromF32(sum)
}

func (vm *VSVM) resolveSource(t RegisterType, idx uint8, inputTable [NumInputSlots]Vec4) Vec4 {
	switch t {
	case RegInput:
		if int(idx) < len(inputTable) {
			return inputTable[idx]
		}
	case RegTemporary:
		if int(idx) < NumTemporaries {
			return vm.temp[idx]
		}
	case RegFloatUniform:
		if int(idx) < NumFloatUniforms {
			return vm.uniform[idx]
		}
	}
	vm.trace.trace("source register out of range: type=%d idx=%d", t, idx)
	return Vec4{}
}

// outputLanePtrs collects, for one output attribute slot (0-7), the 4
// pointers-into-OutputVertex selected by its semantic-code register.
type outputLanePtrs [8][4]*Float24

func (vm *VSVM) buildOutputPointers(out *OutputVertex) outputLanePtrs {
	lanes := [15]*Float24{
		SemPosX: &out.Pos[0], SemPosY: &out.Pos[1], SemPosZ: &out.Pos[2], SemPosW: &out.Pos[3],
		SemColorR: &out.Color[0], SemColorG: &out.Color[1], SemColorB: &out.Color[2], SemColorA: &out.Color[3],
		SemTC0U: &out.TC0[0], SemTC0V: &out.TC0[1],
		SemTC1U: &out.TC1[0], SemTC1V: &out.TC1[1],
		SemTC2U: &out.TC2[0], SemTC2V: &out.TC2[1],
		SemScratch: &vm.scratch[0],
	}

	var table outputLanePtrs
	for a := 0; a < 8; a++ {
		cx, cy, cz, cw := vm.regs.VSOutputMap(a)
		codes := [4]uint8{cx, cy, cz, cw}
		for lane := 0; lane < 4; lane++ {
			code := codes[lane]
			if int(code) >= len(lanes) || lanes[code] == nil {
				table[a][lane] = &vm.scratch[lane]
				continue
			}
			table[a][lane] = lanes[code]
		}
	}
	return table
}

// resolveDest returns the 4 lane pointers for a decoded dest field, or nil
// for a reserved range (spec: "treated as a no-op write").
func (vm *VSVM) resolveDest(dest uint8, outputPtrs outputLanePtrs) []*Float24 {
	switch {
	case dest < 0x08:
		ptrs := outputPtrs[dest]
		return ptrs[:]
	case dest >= 0x10 && dest < 0x20:
		idx := dest - 0x10
		t := &vm.temp[idx]
		return []*Float24{&t[0], &t[1], &t[2], &t[3]}
	default:
		return nil
	}
}
