// reset.go - Reset() for the GPU core, grounded on component_reset.go's
// VoodooEngine.Reset(): zero the shadow register array, then restore the
// handful of fields that need a non-zero default.

package picagpu

// Reset clears the register file and shader memory, per spec §5
// ("a reset clears the register file and shader memory"). It does not
// touch guest memory or the framebuffer, matching §5's statement that
// guest memory and the framebuffer are owned by the GPU core only in
// response to writes, not by reset.
func (c *Core) Reset() {
	c.Regs.Reset()
	c.Shader.Reset()
	c.VM.Reset()
	c.lineTicks = 0
	c.curLine = 0
	c.Regs.Write(RegFBWidth, uint32(c.FB.Width))
	c.Regs.Write(RegFBHeight, uint32(c.FB.Height))
}
