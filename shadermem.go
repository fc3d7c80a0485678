// shadermem.go - shader instruction and swizzle/operand-descriptor banks.

package picagpu

// ShaderMemSize is the number of instruction words and, separately, the
// number of swizzle/operand-descriptor words; both banks are capped at
// 1024 entries per spec §2/§3 invariants.
const ShaderMemSize = 1024

// ShaderMemory holds the two independently addressed banks the host
// incrementally writes via submit_shader_word/submit_swizzle_word.
type ShaderMemory struct {
	Instructions [ShaderMemSize]uint32
	Swizzles     [ShaderMemSize]uint32
}

func (m *ShaderMemory) Reset() {
	for i := range m.Instructions {
		m.Instructions[i] = 0
		m.Swizzles[i] = 0
	}
}

// SubmitInstruction writes one instruction word. Addresses beyond
// ShaderMemSize are out-of-range writes: logged and ignored per §7.
func (m *ShaderMemory) SubmitInstruction(addr uint32, value uint32, trace Tracer) {
	if addr >= ShaderMemSize {
		trace.trace("shader instruction write out of range: addr=%d", addr)
		return
	}
	m.Instructions[addr] = value
}

func (m *ShaderMemory) SubmitSwizzle(addr uint32, value uint32, trace Tracer) {
	if addr >= ShaderMemSize {
		trace.trace("swizzle word write out of range: addr=%d", addr)
		return
	}
	m.Swizzles[addr] = value
}
