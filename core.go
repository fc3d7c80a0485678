// core.go - ties together register file, shader memory, VS VM, primitive
// assembler, rasterizer, texture units and TEV into the external interface
// surface spec §6 describes. Grounded on video_voodoo.go's VoodooEngine,
// which plays the identical role for the Voodoo subsystem (owns the
// regs array, dispatches HandleRead/HandleWrite, and drives the software
// backend's FlushTriangles/SwapBuffers from trigger writes).

package picagpu

// GPUBase is the MMIO base address of the register file, per spec §6.
const GPUBase = 0x1EF00000

// kFrameTicks is a nominal per-frame tick budget for Tick's line-timing
// model. Spec explicitly excludes bit-exact hardware parity, so this is
// a representative constant, not a hardware-measured one.
const kFrameTicks = 400000

// Core is the GPU core: register file, shader memory, VS VM, and the
// rasterizer pipeline, plus the guest memory it reads command buffers,
// vertex data and textures from.
type Core struct {
	Regs   *RegisterFile
	Shader *ShaderMemory
	VM     *VSVM
	Mem    GuestMemoryRW
	FB     *Framebuffer
	Tex    *TextureUnits
	TEV    *TEVPipeline
	Trace  Tracer

	// Parallel, when > 1, rasterizes with that many scanline workers
	// (spec §5 allows, but does not require, per-scanline parallelism).
	Parallel int

	lineTicks uint32
	curLine   uint32

	// PDC0/PDC1/Present are the two suspension points spec §5 names:
	// PDC0 fires once per scanline, PDC1 once per frame together with a
	// present request. A nil callback is a no-op (useful in tests that
	// only want to exercise register/shader/raster state).
	PDC0    func()
	PDC1    func()
	Present func(frame []RGBA8)
}

// NewCore wires a fresh GPU core around guest memory mem with a
// framebuffer of the given dimensions.
func NewCore(mem GuestMemoryRW, width, height int, trace Tracer) *Core {
	regs := &RegisterFile{}
	regs.Reset()
	shader := &ShaderMemory{}
	c := &Core{
		Regs:   regs,
		Shader: shader,
		Mem:    mem,
		FB:     NewFramebuffer(width, height),
		Trace:  trace,
	}
	c.VM = NewVSVM(shader, regs, trace)
	c.Tex = &TextureUnits{Regs: regs, Mem: mem}
	c.TEV = &TEVPipeline{Regs: regs, Trace: trace}
	regs.Write(RegFBWidth, uint32(width))
	regs.Write(RegFBHeight, uint32(height))
	return c
}

// MMIORead implements mmio_read(addr, width). Only 32-bit accesses are
// defined; others are diagnostic errors and return 0, per spec §6/§7.
func (c *Core) MMIORead(addr uint32, width int) uint32 {
	if width != 32 {
		c.Trace.trace("mmio_read: unsupported width %d at addr=%#x", width, addr)
		return 0
	}
	if addr < GPUBase {
		c.Trace.trace("mmio_read: addr %#x below GPU base", addr)
		return 0
	}
	return c.Regs.Read((addr - GPUBase) / 4)
}

// MMIOWrite implements mmio_write(addr, width, value).
func (c *Core) MMIOWrite(addr uint32, width int, value uint32) {
	if width != 32 {
		c.Trace.trace("mmio_write: unsupported width %d at addr=%#x", width, addr)
		return
	}
	if addr < GPUBase {
		c.Trace.trace("mmio_write: addr %#x below GPU base", addr)
		return
	}
	c.WriteRegister((addr-GPUBase)/4, value)
}

// WriteRegister is a plain store into the register file followed by
// synchronous trigger dispatch, per spec §4.2's trigger table. It
// implements RegisterWriter, so the command processor's register writes
// (spec §4.8) go through the identical path as a direct mmio_write.
func (c *Core) WriteRegister(index uint32, value uint32) {
	c.Regs.Write(index, value)

	switch index {
	case RegFBActiveSwap:
		c.requestPresent()
		return
	case RegTransferBase + xferTrigger:
		if value&1 != 0 {
			RunTransferEngine(c.Mem, c.Regs.Transfer())
		}
		return
	case RegCmdProcBase + cmdTrigger:
		if value&1 != 0 {
			cfg := c.Regs.CmdProc()
			if err := SubmitCommandList(c, c.Mem, cfg.BufAddr, cfg.BufSize, c.Trace); err != nil {
				c.Trace.trace("command processor: %v", err)
			}
		}
		return
	}
	for i := 0; i < NumFillUnits; i++ {
		if index == RegFillBase+uint32(i*fillStride)+fillTrigger {
			if value&1 != 0 {
				cfg := c.Regs.Fill(i)
				RunFillEngine(c.Mem, cfg.Start, cfg.End, cfg.Value)
			}
			return
		}
	}
}

// ReadRegister is a plain load from the register file. It implements
// RegisterReader, so the command processor can merge masked parameter
// writes (spec §4.8 parameter_mask) against the current contents.
func (c *Core) ReadRegister(index uint32) uint32 {
	return c.Regs.Read(index)
}

func (c *Core) requestPresent() {
	if c.Present != nil {
		c.Present(c.FB.Color)
	}
}

// SubmitShaderWord implements submit_shader_word(addr, value).
func (c *Core) SubmitShaderWord(addr, value uint32) {
	c.Shader.SubmitInstruction(addr, value, c.Trace)
}

// SubmitSwizzleWord implements submit_swizzle_word(addr, value).
func (c *Core) SubmitSwizzleWord(addr, value uint32) {
	c.Shader.SubmitSwizzle(addr, value, c.Trace)
}

// SetFloatUniform implements set_float_uniform(index, value).
func (c *Core) SetFloatUniform(index int, v Vec4) {
	c.VM.SetFloatUniform(index, v)
}

// Tick implements tick(cycles): advances the line counter, emitting PDC0
// per scanline and PDC1 plus a present request once per frame, per spec
// §5/§6.
func (c *Core) Tick(cycles uint32) {
	height := uint32(c.FB.Height)
	if height == 0 {
		return
	}
	ticksPerLine := kFrameTicks / height
	if ticksPerLine == 0 {
		ticksPerLine = 1
	}
	c.lineTicks += cycles
	for c.lineTicks >= ticksPerLine {
		c.lineTicks -= ticksPerLine
		c.curLine++
		if c.PDC0 != nil {
			c.PDC0()
		}
		if c.curLine >= height {
			c.curLine = 0
			if c.PDC1 != nil {
				c.PDC1()
			}
			c.requestPresent()
		}
	}
}

// RunShader implements run_shader(input, num_attributes) -> output,
// spec §4.3.
func (c *Core) RunShader(input InputVertex, numAttributes int) (OutputVertex, error) {
	return c.VM.Run(input, numAttributes)
}

// DrawTriangle runs the primitive assembler and rasterizer over three
// already-shaded output vertices, per spec §4.4/§4.5.
func (c *Core) DrawTriangle(v0, v1, v2 OutputVertex) {
	tri := AssembleTriangle(v0, v1, v2)
	if c.Parallel > 1 {
		_ = RasterizeTriangleParallel(c.FB, tri, c.Tex, c.TEV, c.Parallel)
		return
	}
	RasterizeTriangle(c.FB, tri, c.Tex, c.TEV)
}

// DrawVertices runs the VS VM over three input vertices and draws the
// resulting triangle, the full data flow described in spec §2.
func (c *Core) DrawVertices(i0, i1, i2 InputVertex, numAttributes int) error {
	o0, err := c.RunShader(i0, numAttributes)
	if err != nil {
		return err
	}
	o1, err := c.RunShader(i1, numAttributes)
	if err != nil {
		return err
	}
	o2, err := c.RunShader(i2, numAttributes)
	if err != nil {
		return err
	}
	c.DrawTriangle(o0, o1, o2)
	return nil
}

// Frame returns the current color framebuffer contents.
func (c *Core) Frame() []RGBA8 {
	return c.FB.Color
}
