// Command picademo drives the picagpu core from the command line: it
// loads a command-buffer file into guest memory, submits it through the
// command processor, and writes the resulting framebuffer out as a PNG.
// A Lua demo-scene script can supply the command buffer and shader
// program instead of a raw binary file, adapted from the teacher's
// boilerPlate/main-flag-driven entry point in main.go.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"

	lua "github.com/yuin/gopher-lua"
	"golang.org/x/image/bmp"
	"golang.org/x/term"

	"github.com/kestrel-emu/picagpu"
)

func main() {
	var (
		cmdFile  = flag.String("cmdbuf", "", "path to a raw command-buffer file")
		luaFile  = flag.String("scene", "", "path to a Lua demo-scene script")
		out      = flag.String("out", "frame.png", "output PNG path")
		width    = flag.Int("width", 256, "framebuffer width")
		height   = flag.Int("height", 256, "framebuffer height")
		memSize  = flag.Int("memsize", 16<<20, "guest memory size in bytes")
		preview  = flag.Bool("preview", false, "open a live preview window instead of exiting after one frame")
		features = flag.Bool("features", false, "print the feature banner and exit")
		texFile  = flag.String("texture", "", "BMP file to load into texture unit 0")
		texAddr  = flag.Uint("texaddr", 0, "guest memory address for -texture")
		monitor  = flag.Bool("monitor", false, "open the debug console on stdin/stdout instead of running once")
	)
	flag.Parse()

	if *features {
		picagpu.PrintFeatures(os.Stdout)
		return
	}

	mem := picagpu.NewGuestBus(*memSize)
	core := picagpu.NewCore(mem, *width, *height, traceToStderr)

	if *texFile != "" {
		if err := loadTextureBMP(*texFile, core, mem, uint32(*texAddr)); err != nil {
			fmt.Fprintf(os.Stderr, "texture %s: %v\n", *texFile, err)
			os.Exit(1)
		}
	}

	switch {
	case *luaFile != "":
		if err := runLuaScene(*luaFile, core, mem); err != nil {
			fmt.Fprintf(os.Stderr, "scene %s: %v\n", *luaFile, err)
			os.Exit(1)
		}
	case *cmdFile != "":
		if err := submitCommandFile(*cmdFile, core, mem); err != nil {
			fmt.Fprintf(os.Stderr, "command buffer %s: %v\n", *cmdFile, err)
			os.Exit(1)
		}
	case *monitor:
		// the console itself drives register writes and single-steps,
		// there is nothing to preload.
	default:
		fmt.Fprintln(os.Stderr, "one of -cmdbuf, -scene or -monitor is required (try -features)")
		os.Exit(1)
	}

	if *monitor {
		runMonitor(core)
		return
	}

	if *preview {
		win := picagpu.NewPreviewWindow(core, 2)
		if err := win.Run("picagpu preview"); err != nil {
			fmt.Fprintf(os.Stderr, "preview: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := writePNG(*out, core); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *out, err)
		os.Exit(1)
	}
}

func traceToStderr(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "picagpu: "+format+"\n", args...)
}

// submitCommandFile loads a raw command-buffer file into guest memory at
// offset 0 and submits it whole through the command processor's wire
// format, bypassing the command-processor trigger register (the file IS the
// buffer, there is nothing to point a trigger at first).
func submitCommandFile(path string, core *picagpu.Core, mem *picagpu.GuestBus) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	mem.WriteBytes(0, data)
	return picagpu.SubmitCommandList(core, mem, 0, uint32(len(data)), traceToStderr)
}

func writePNG(path string, core *picagpu.Core) error {
	fb := core.Frame()
	w, h := core.FB.Width, core.FB.Height
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, px := range fb {
		img.Pix[i*4+0] = px.R()
		img.Pix[i*4+1] = px.G()
		img.Pix[i*4+2] = px.B()
		img.Pix[i*4+3] = px.A()
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// loadTextureBMP decodes a BMP file with golang.org/x/image/bmp, repacks
// it into the 8x8 Morton-tiled RGB8 layout texture.go's sampler expects,
// and points texture unit 0 at it. Width and height must both be
// multiples of 8, matching the tiled addressing's tile granularity.
func loadTextureBMP(path string, core *picagpu.Core, mem *picagpu.GuestBus, addr uint32) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	img, err := bmp.Decode(f)
	if err != nil {
		return err
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w%8 != 0 || h%8 != 0 {
		return fmt.Errorf("texture dimensions %dx%d must be multiples of 8", w, h)
	}

	rowMajor := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r16, g16, b16, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			off := (y*w + x) * 3
			// stored B,G,R per texel to match texture.go's Sample read order.
			rowMajor[off+0] = byte(b16 >> 8)
			rowMajor[off+1] = byte(g16 >> 8)
			rowMajor[off+2] = byte(r16 >> 8)
		}
	}
	tiled := picagpu.EncodeTiledRGB8(w, h, rowMajor)
	mem.WriteBytes(addr, tiled)

	// Texture unit 0's 8-word block: enabled, phys_addr, width, height,
	// wrap_s, wrap_t, format (offsets per regs.go's TextureUnit layout).
	base := uint32(picagpu.RegTexUnitBase)
	core.WriteRegister(base+0, 1)
	core.WriteRegister(base+1, addr)
	core.WriteRegister(base+2, uint32(w))
	core.WriteRegister(base+3, uint32(h))
	core.WriteRegister(base+6, uint32(picagpu.TexFormatRGB8))
	return nil
}

// runMonitor opens the debug console. When stdin is an interactive
// terminal it single-steps a keypress at a time via golang.org/x/term
// raw mode; otherwise (piped input, e.g. scripted testing) it falls
// back to the line-buffered reader.
func runMonitor(core *picagpu.Core) {
	m := picagpu.NewMonitor(core, os.Stdout)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		if err := m.RunInteractive(os.Stdin); err != nil {
			fmt.Fprintf(os.Stderr, "monitor: %v\n", err)
			os.Exit(1)
		}
		return
	}
	m.Run(os.Stdin)
}

// runLuaScene runs a Lua script that builds a demo scene by calling into
// a small API table exposed as the global "gpu": gpu.write_reg(index,
// value), gpu.shader_word(addr, value), gpu.swizzle_word(addr, value),
// gpu.mem_write_u32(addr, value). This lets a demo author script a
// vertex shader program and register setup without a binary command
// buffer, in the spirit of the teacher's Lua-scriptable tooling.
func runLuaScene(path string, core *picagpu.Core, mem *picagpu.GuestBus) error {
	L := lua.NewState()
	defer L.Close()

	gpu := L.NewTable()
	L.SetField(gpu, "write_reg", L.NewFunction(func(L *lua.LState) int {
		idx := L.CheckInt(1)
		val := L.CheckInt(2)
		core.WriteRegister(uint32(idx), uint32(val))
		return 0
	}))
	L.SetField(gpu, "shader_word", L.NewFunction(func(L *lua.LState) int {
		addr := L.CheckInt(1)
		val := L.CheckInt(2)
		core.SubmitShaderWord(uint32(addr), uint32(val))
		return 0
	}))
	L.SetField(gpu, "swizzle_word", L.NewFunction(func(L *lua.LState) int {
		addr := L.CheckInt(1)
		val := L.CheckInt(2)
		core.SubmitSwizzleWord(uint32(addr), uint32(val))
		return 0
	}))
	L.SetField(gpu, "mem_write_u32", L.NewFunction(func(L *lua.LState) int {
		addr := L.CheckInt(1)
		val := uint32(L.CheckInt(2))
		mem.WriteBytes(uint32(addr), []byte{byte(val), byte(val >> 8), byte(val >> 16), byte(val >> 24)})
		return 0
	}))
	L.SetGlobal("gpu", gpu)

	return L.DoFile(path)
}
