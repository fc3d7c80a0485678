// texture.go - tiled (Z-order) RGB8 texture sampling, grounded on
// voodoo_software.go's sampleTexture but replacing its linear/4-byte texel
// addressing with the 8x8 Morton-tiled 3-byte layout spec §4.6 requires.

package picagpu

// GuestMemory is the minimal byte-addressable guest memory surface the
// texture sampler, command processor and transfer engine consume (spec §6:
// "guest memory interface (consumed)").
type GuestMemory interface {
	ReadBytes(addr uint32, n int) []byte
}

// TextureUnits implements TextureSampler over the register file's texture
// unit configuration and a guest memory backing store.
type TextureUnits struct {
	Regs *RegisterFile
	Mem  GuestMemory
}

// morton8x8 reproduces the diagonal Z-order pattern documented in spec
// §4.6 for an 8x8 tile: for each bit plane b in {0,1,2}, interleave s and t.
func morton8x8(s, t uint32) uint32 {
	var idx uint32
	for b := uint(0); b < 3; b++ {
		sub := ((s & (1 << b)) << b) + 2*((t&(1<<b))<<b)
		idx += sub
	}
	return idx
}

// Sample implements TextureSampler. Per spec §4.6 only RGB8 is required;
// other formats and disabled units read opaque black.
func (t *TextureUnits) Sample(unit int, u, v float32) (r, g, b, a uint8) {
	if unit < 0 || unit >= NumTextureUnits {
		return 0, 0, 0, 0xFF
	}
	cfg := t.Regs.TextureUnit(unit)
	if !cfg.Enabled || cfg.Format != TexFormatRGB8 || cfg.Width == 0 || cfg.Height == 0 {
		return 0, 0, 0, 0xFF
	}

	s := int32(u * float32(cfg.Width))
	tt := int32(v * float32(cfg.Height))

	s = wrapCoord(s, int32(cfg.Width), cfg.WrapS)
	tt = wrapCoord(tt, int32(cfg.Height), cfg.WrapT)

	rowStride := cfg.Width * 3
	coarseS := uint32(s/8) * 8
	coarseT := uint32(tt/8) * 8
	tileIdx := morton8x8(uint32(s)&7, uint32(tt)&7)

	byteOffset := cfg.PhysAddr + coarseS*8*3 + coarseT*rowStride + tileIdx*3
	texel := t.Mem.ReadBytes(byteOffset, 3)
	if len(texel) < 3 {
		return 0, 0, 0, 0xFF
	}
	// spec §9: RGB8 channel order in source is marked uncertain; we follow
	// the likely intent (b0=B, b1=G, b2=R) matching a little-endian RGB8
	// store, same as the open question calls out.
	return texel[2], texel[1], texel[0], 0xFF
}

// EncodeTiledRGB8 repacks a row-major RGB8 image (3 bytes/pixel, width
// and height both multiples of 8) into the 8x8 Morton-tiled layout
// Sample expects, for loading a decoded source image as a texture.
func EncodeTiledRGB8(width, height int, rowMajor []byte) []byte {
	out := make([]byte, len(rowMajor))
	rowStride := width * 3
	for y := 0; y < height; y++ {
		coarseT := uint32(y/8) * 8
		for x := 0; x < width; x++ {
			coarseS := uint32(x/8) * 8
			tileIdx := morton8x8(uint32(x)&7, uint32(y)&7)
			dst := coarseS*8*3 + coarseT*uint32(rowStride) + tileIdx*3
			src := y*rowStride + x*3
			copy(out[dst:dst+3], rowMajor[src:src+3])
		}
	}
	return out
}

func wrapCoord(v, size int32, mode WrapMode) int32 {
	if size <= 0 {
		return 0
	}
	switch mode {
	case WrapRepeat:
		m := v % size
		if m < 0 {
			m += size
		}
		return m
	default: // ClampToEdge
		if v < 0 {
			return 0
		}
		if v >= size {
			return size - 1
		}
		return v
	}
}
