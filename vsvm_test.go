package picagpu

import "testing"

// encodeCommon packs one common-shape instruction word. It is the
// encode-side mirror of decodeCommon/decodeOpcode, written only for
// tests: ShaderMemory accepts raw words the same way a real command
// stream would submit them.
func encodeCommon(op Opcode, dest uint8, src1Type RegisterType, src1Idx uint8, src2Type RegisterType, src2Idx uint8, inverse bool, opdescID uint8) uint32 {
	var inv uint32
	if inverse {
		inv = 1
	}
	return uint32(op)<<26 |
		uint32(dest)<<20 |
		uint32(src1Type)<<18 |
		uint32(src1Idx)<<13 |
		uint32(src2Type)<<11 |
		uint32(src2Idx)<<6 |
		inv<<5 |
		uint32(opdescID)
}

func encodeEnd() uint32 {
	return uint32(OpEND) << 26
}

func encodeCall(dest uint32) uint32 {
	return uint32(OpCALL)<<26 | (dest&0x3FF)<<16
}

// encodeSwizzle packs an identity-or-custom swizzle/write-mask word for
// operand descriptor memory.
func encodeSwizzle(src1Sel, src2Sel [4]uint8, mask [4]bool, negateSrc1, negateSrc2 bool) uint32 {
	var word uint32
	for lane := 0; lane < 4; lane++ {
		word |= uint32(src1Sel[lane]&0x3) << (30 - 2*lane)
		word |= uint32(src2Sel[lane]&0x3) << (22 - 2*lane)
	}
	var maskBits uint32
	for lane := 0; lane < 4; lane++ {
		if mask[lane] {
			maskBits |= 1 << uint(3-lane)
		}
	}
	word |= maskBits << 4
	if negateSrc1 {
		word |= 1 << 3
	}
	if negateSrc2 {
		word |= 1 << 2
	}
	return word
}

func identitySwizzle() uint32 {
	return encodeSwizzle([4]uint8{0, 1, 2, 3}, [4]uint8{0, 1, 2, 3}, [4]bool{true, true, true, true}, false, false)
}

// newTestVM builds a VM whose output-map registers send attribute 0 to
// Pos.xyzw and attribute 1 to Color.rgba, the minimum wiring any
// shader-semantics test needs.
func newTestVM() (*VSVM, *RegisterFile, *ShaderMemory) {
	regs := &RegisterFile{}
	regs.Reset()
	regs.Write(RegVSOutputMapBase+0, uint32(SemPosX)|uint32(SemPosY)<<8|uint32(SemPosZ)<<16|uint32(SemPosW)<<24)
	regs.Write(RegVSOutputMapBase+1, uint32(SemColorR)|uint32(SemColorG)<<8|uint32(SemColorB)<<16|uint32(SemColorA)<<24)
	shader := &ShaderMemory{}
	vm := NewVSVM(shader, regs, nil)
	return vm, regs, shader
}

func vec4f(x, y, z, w float32) Vec4 {
	return Vec4{FromF32(x), FromF32(y), FromF32(z), FromF32(w)}
}

func TestVSVMPassthroughMOV(t *testing.T) {
	vm, regs, shader := newTestVM()
	regs.Write(RegVSMainEntry, 0)
	shader.Swizzles[0] = identitySwizzle()
	// MOV o0 (dest 0x00), i0 (input slot 0)
	shader.Instructions[0] = encodeCommon(OpMOV, 0x00, RegInput, 0, RegInput, 0, false, 0)
	shader.Instructions[1] = encodeEnd()

	var in InputVertex
	in.Attr[0] = vec4f(1, 2, 3, 1)
	out, err := vm.Run(in, 1)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Pos.X().ToF32() != 1 || out.Pos.Y().ToF32() != 2 || out.Pos.Z().ToF32() != 3 {
		t.Fatalf("unexpected pos: %v", out.Pos)
	}
}

func TestVSVMDP4(t *testing.T) {
	vm, regs, shader := newTestVM()
	regs.Write(RegVSMainEntry, 0)
	shader.Swizzles[0] = identitySwizzle()
	// DP4 writes all 4 lanes of o0 with the same dot product, input0 . input1
	shader.Instructions[0] = encodeCommon(OpDP4, 0x00, RegInput, 0, RegInput, 1, false, 0)
	shader.Instructions[1] = encodeEnd()

	var in InputVertex
	in.Attr[0] = vec4f(1, 2, 3, 4)
	in.Attr[1] = vec4f(5, 6, 7, 8)
	out, err := vm.Run(in, 2)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := float32(1*5 + 2*6 + 3*7 + 4*8)
	if !approxEqual(out.Pos.X().ToF32(), want, 0.01) {
		t.Fatalf("dp4 = %v, want %v", out.Pos.X().ToF32(), want)
	}
}

func TestVSVMCallReturn(t *testing.T) {
	vm, regs, shader := newTestVM()
	regs.Write(RegVSMainEntry, 0)
	shader.Swizzles[0] = identitySwizzle()
	// main: CALL sub; END
	shader.Instructions[0] = encodeCall(2)
	shader.Instructions[1] = encodeEnd()
	// sub at 2: MOV o0, i0; END (returns to pc=1)
	shader.Instructions[2] = encodeCommon(OpMOV, 0x00, RegInput, 0, RegInput, 0, false, 0)
	shader.Instructions[3] = encodeEnd()

	var in InputVertex
	in.Attr[0] = vec4f(9, 8, 7, 6)
	out, err := vm.Run(in, 1)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Pos.X().ToF32() != 9 {
		t.Fatalf("call/return did not execute subroutine: pos=%v", out.Pos)
	}
}

func TestVSVMCallStackOverflow(t *testing.T) {
	vm, regs, shader := newTestVM()
	regs.Write(RegVSMainEntry, 0)
	// An infinite recursive call: CALL 0 forever, must overflow the
	// 8-deep call stack rather than loop forever or panic.
	shader.Instructions[0] = encodeCall(0)

	var in InputVertex
	_, err := vm.Run(in, 1)
	if err == nil {
		t.Fatalf("expected call stack overflow error")
	}
}

func TestVSVMRCPScalarBroadcast(t *testing.T) {
	vm, regs, shader := newTestVM()
	regs.Write(RegVSMainEntry, 0)
	shader.Swizzles[0] = identitySwizzle()
	// RCP o0, i0: result is 1/i0.x broadcast to every masked lane.
	shader.Instructions[0] = encodeCommon(OpRCP, 0x00, RegInput, 0, RegInput, 0, false, 0)
	shader.Instructions[1] = encodeEnd()

	var in InputVertex
	in.Attr[0] = vec4f(4, 100, 100, 100)
	out, err := vm.Run(in, 1)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := float32(0.25)
	if !approxEqual(out.Pos.X().ToF32(), want, 0.01) {
		t.Fatalf("rcp x = %v, want %v", out.Pos.X().ToF32(), want)
	}
	if !approxEqual(out.Pos.Y().ToF32(), want, 0.01) {
		t.Fatalf("rcp broadcast to y = %v, want %v", out.Pos.Y().ToF32(), want)
	}
}

func TestVSVMPCOutOfRange(t *testing.T) {
	vm, regs, _ := newTestVM()
	regs.Write(RegVSMainEntry, ShaderMemSize+1)

	var in InputVertex
	_, err := vm.Run(in, 1)
	if err == nil {
		t.Fatalf("expected out-of-range pc error")
	}
}
