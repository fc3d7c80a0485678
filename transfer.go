// transfer.go - the Transfer and Fill engines, triggered synchronously by
// register writes per spec §4.2/§4.8, grounded on video_voodoo.go's
// executeFastFillCmd.

package picagpu

// GuestMemoryRW extends GuestMemory with the writes the fill and transfer
// engines need.
type GuestMemoryRW interface {
	GuestMemory
	WriteBytes(addr uint32, data []byte)
}

// RunFillEngine fills [start,end) words with bswap32(value), per spec
// §4.8 and invariant 7.
func RunFillEngine(mem GuestMemoryRW, start, end, value uint32) {
	swapped := bswap32(value)
	var word [4]byte
	word[0] = byte(swapped)
	word[1] = byte(swapped >> 8)
	word[2] = byte(swapped >> 16)
	word[3] = byte(swapped >> 24)

	for addr := start; addr+4 <= end; addr += 4 {
		mem.WriteBytes(addr, word[:])
	}
}

func bswap32(v uint32) uint32 {
	return (v>>24)&0xFF | (v>>8)&0xFF00 | (v<<8)&0xFF0000 | (v << 24)
}

// RunTransferEngine converts an RGBA8 source region to packed RGB8, per
// spec §4.8's required pair. Spec §4.8 iterates (x,y) over
// (output_width/2, output_height): the transfer engine processes two
// adjacent output columns per step. For an odd output_width the trailing
// column is genuinely dropped, matching the literal bound rather than
// ceil-dividing it away.
func RunTransferEngine(mem GuestMemoryRW, cfg TransferConfig) {
	if cfg.InWidth == 0 || cfg.InHeight == 0 || cfg.OutWidth == 0 || cfg.OutHeight == 0 {
		return
	}
	for y := uint32(0); y < cfg.OutHeight; y++ {
		srcY := y * cfg.InHeight / cfg.OutHeight
		for xPair := uint32(0); xPair < cfg.OutWidth/2; xPair++ {
			for _, x := range [2]uint32{xPair * 2, xPair*2 + 1} {
				srcX := x * cfg.InWidth / cfg.OutWidth

				srcOff := cfg.InputAddr + (srcY*cfg.InWidth+srcX)*4
				px := mem.ReadBytes(srcOff, 4)
				if len(px) < 4 {
					continue
				}
				// RGBA8 source, packed 3 bytes per pixel on output, in
				// the order produced by the source (spec §4.8: "packed
				// as 3 bytes per pixel in the order produced by the
				// source").
				dstOff := cfg.OutputAddr + (y*cfg.OutWidth+x)*3
				mem.WriteBytes(dstOff, px[:3])
			}
		}
	}
}
