// monitor.go - an interactive debug console for the GPU core, adapted from
// debug_commands.go's MonitorCommand/ParseCommand/ParseAddress/EvalAddress
// and debug_monitor.go's command-dispatch shape. There is only ever one
// "CPU" to focus here (the core itself), so the teacher's multi-CPU
// registry (RegisterCPU/focusedID) collapses to a single embedded *Core.

package picagpu

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// MonitorCommand is a parsed command with name and arguments.
type MonitorCommand struct {
	Name string
	Args []string
}

// ParseCommand splits a raw input line into a command name and arguments.
func ParseCommand(input string) MonitorCommand {
	input = strings.TrimSpace(input)
	if input == "" {
		return MonitorCommand{}
	}
	parts := strings.Fields(input)
	return MonitorCommand{
		Name: strings.ToLower(parts[0]),
		Args: parts[1:],
	}
}

// ParseAddress parses a monitor address in $hex, 0xhex, bare hex or
// #decimal form.
func ParseAddress(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.HasPrefix(s, "#") {
		v, err := strconv.ParseUint(s[1:], 10, 64)
		return v, err == nil
	}
	if strings.HasPrefix(s, "$") {
		v, err := strconv.ParseUint(s[1:], 16, 64)
		return v, err == nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		return v, err == nil
	}
	v, err := strconv.ParseUint(s, 16, 64)
	return v, err == nil
}

// EvalAddress evaluates <term> [+|- <term>]*, where a term is either a
// register-file name (rNN, NN in decimal) or a numeric address. No other
// register names are resolved.
func EvalAddress(expr string, m *Monitor) (uint64, bool) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, false
	}

	type token struct {
		text string
		op   byte
	}

	var tokens []token
	current := strings.Builder{}
	currentOp := byte(0)

	for i := 0; i < len(expr); i++ {
		ch := expr[i]
		if (ch == '+' || ch == '-') && i > 0 {
			t := strings.TrimSpace(current.String())
			if t != "" {
				tokens = append(tokens, token{text: t, op: currentOp})
			}
			currentOp = ch
			current.Reset()
		} else {
			current.WriteByte(ch)
		}
	}
	t := strings.TrimSpace(current.String())
	if t != "" {
		tokens = append(tokens, token{text: t, op: currentOp})
	}
	if len(tokens) == 0 {
		return 0, false
	}

	var result uint64
	for _, tok := range tokens {
		val, ok := m.namedValue(tok.text)
		if !ok {
			val, ok = ParseAddress(tok.text)
		}
		if !ok {
			return 0, false
		}
		switch tok.op {
		case 0, '+':
			result += val
		case '-':
			result -= val
		}
	}
	return result, true
}

// Monitor is a debug console wrapped around a Core: register dumps,
// shader memory disassembly and single-step shader execution.
type Monitor struct {
	Core *Core
	Out  io.Writer

	lastInput  InputVertex
	numAttrs   int
	history    []string
}

func NewMonitor(core *Core, out io.Writer) *Monitor {
	return &Monitor{Core: core, Out: out, numAttrs: NumInputSlots}
}

// namedValue resolves rNN (register file index, decimal) names for
// EvalAddress; any other name is reported as unresolved.
func (m *Monitor) namedValue(name string) (uint64, bool) {
	upper := strings.ToUpper(name)
	if strings.HasPrefix(upper, "R") {
		if idx, err := strconv.Atoi(upper[1:]); err == nil && idx >= 0 && idx < NumRegs {
			return uint64(m.Core.Regs.Read(uint32(idx))), true
		}
	}
	return 0, false
}

// Run drives the console over in/out until "x" or EOF. It is a plain
// line-buffered loop, used for piped/scripted input and by tests; for an
// interactive terminal, RunInteractive below steps a key at a time.
func (m *Monitor) Run(in io.Reader) {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(m.Out, "gpu> ")
	for scanner.Scan() {
		line := scanner.Text()
		m.history = append(m.history, line)
		if m.Execute(line) {
			return
		}
		fmt.Fprint(m.Out, "gpu> ")
	}
}

// RunInteractive drives the console a single keypress at a time against
// f (os.Stdin in practice), putting the terminal into raw mode so each
// one-letter command (see cmdHelp: r, d, m, s, ?, x) dispatches the
// instant it is pressed, with no Enter and no OS-level echo - the same
// term.MakeRaw/term.Restore pairing terminal_host.go uses, here driving
// single-keypress stepping through shader execution rather than a
// line-oriented terminal device. Multi-argument commands ("r 5 10")
// are only reachable through Run/Execute, not this raw loop.
func (m *Monitor) RunInteractive(f *os.File) error {
	fd := int(f.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return &GPUError{Operation: "monitor", Details: fmt.Sprintf("raw mode: %v", err)}
	}
	defer term.Restore(fd, oldState)

	fmt.Fprint(m.Out, "gpu> ")
	buf := make([]byte, 1)
	for {
		n, err := f.Read(buf)
		if err != nil || n == 0 {
			return nil
		}
		ch := buf[0]
		if ch == '\r' || ch == '\n' {
			continue
		}
		fmt.Fprintf(m.Out, "%c\r\n", ch)
		line := string(ch)
		m.history = append(m.history, line)
		if m.Execute(line) {
			return nil
		}
		fmt.Fprint(m.Out, "gpu> ")
	}
}

// Execute dispatches one parsed command. Returns true if the console
// should exit.
func (m *Monitor) Execute(input string) bool {
	cmd := ParseCommand(input)
	switch cmd.Name {
	case "":
		return false
	case "x", "q", "quit", "exit":
		return true
	case "r":
		return m.cmdRegisters(cmd)
	case "d":
		return m.cmdDisassemble(cmd)
	case "m":
		return m.cmdMemoryDump(cmd)
	case "s":
		return m.cmdStep(cmd)
	case "?", "help":
		return m.cmdHelp(cmd)
	default:
		fmt.Fprintf(m.Out, "unknown command %q (try ?)\n", cmd.Name)
		return false
	}
}

// cmdRegisters: "r" dumps the register file; "r <idx> <value>" writes one.
func (m *Monitor) cmdRegisters(cmd MonitorCommand) bool {
	if len(cmd.Args) >= 2 {
		idx, ok := ParseAddress(cmd.Args[0])
		if !ok {
			fmt.Fprintf(m.Out, "invalid register index: %s\n", cmd.Args[0])
			return false
		}
		val, ok := ParseAddress(cmd.Args[1])
		if !ok {
			fmt.Fprintf(m.Out, "invalid value: %s\n", cmd.Args[1])
			return false
		}
		m.Core.WriteRegister(uint32(idx), uint32(val))
		fmt.Fprintf(m.Out, "r%d = $%08X\n", idx, val)
		return false
	}

	start := uint32(0)
	if len(cmd.Args) == 1 {
		if v, ok := EvalAddress(cmd.Args[0], m); ok {
			start = uint32(v)
		}
	}
	end := start + 16
	if end > NumRegs {
		end = NumRegs
	}
	for i := start; i < end; i++ {
		fmt.Fprintf(m.Out, "r%-3d = $%08X\n", i, m.Core.Regs.Read(i))
	}
	return false
}

// cmdDisassemble: "d [addr] [count]" lists decoded shader instructions
// starting at addr (default 0).
func (m *Monitor) cmdDisassemble(cmd MonitorCommand) bool {
	addr := uint64(0)
	count := 16

	if len(cmd.Args) >= 1 {
		if v, ok := EvalAddress(cmd.Args[0], m); ok {
			addr = v
		}
	}
	if len(cmd.Args) >= 2 {
		if v, ok := ParseAddress(cmd.Args[1]); ok {
			count = int(v)
		}
	}

	for i := 0; i < count; i++ {
		idx := addr + uint64(i)
		if idx >= ShaderMemSize {
			break
		}
		word := m.Core.Shader.Instructions[idx]
		fmt.Fprintf(m.Out, "%04X: %08X  %s\n", idx, word, disassemble(word))
	}
	return false
}

// cmdMemoryDump: "m [addr] [lines]" hex-dumps guest memory, 16 bytes/line.
func (m *Monitor) cmdMemoryDump(cmd MonitorCommand) bool {
	addr := uint64(0)
	lines := 8

	if len(cmd.Args) >= 1 {
		if v, ok := EvalAddress(cmd.Args[0], m); ok {
			addr = v
		}
	}
	if len(cmd.Args) >= 2 {
		if v, ok := ParseAddress(cmd.Args[1]); ok {
			lines = int(v)
		}
	}

	for i := 0; i < lines; i++ {
		data := m.Core.Mem.ReadBytes(uint32(addr), 16)
		fmt.Fprintf(m.Out, "%08X: ", addr)
		for _, b := range data {
			fmt.Fprintf(m.Out, "%02X ", b)
		}
		fmt.Fprintln(m.Out)
		addr += 16
	}
	return false
}

// cmdStep: "s" runs the shader VM once over the console's held input
// vertex and prints the resulting output vertex. No command sets the held
// input vertex, so every attribute reads as zero.
func (m *Monitor) cmdStep(cmd MonitorCommand) bool {
	out, err := m.Core.RunShader(m.lastInput, m.numAttrs)
	if err != nil {
		fmt.Fprintf(m.Out, "shader run failed: %v\n", err)
		return false
	}
	fmt.Fprintf(m.Out, "pos    = %v\n", out.Pos)
	fmt.Fprintf(m.Out, "color  = %v\n", out.Color)
	fmt.Fprintf(m.Out, "tc0    = %v\n", out.TC0)
	return false
}

func (m *Monitor) cmdHelp(cmd MonitorCommand) bool {
	fmt.Fprintln(m.Out, "r [addr]          dump 16 registers from addr")
	fmt.Fprintln(m.Out, "r <idx> <value>   write one register")
	fmt.Fprintln(m.Out, "d [addr] [count]  disassemble shader instructions")
	fmt.Fprintln(m.Out, "m [addr] [lines]  hex-dump guest memory")
	fmt.Fprintln(m.Out, "s                 run the shader once over the held input vertex")
	fmt.Fprintln(m.Out, "x                 exit")
	return false
}

// disassemble renders one decoded instruction word in a short mnemonic
// form, for "d" output.
func disassemble(word uint32) string {
	op := decodeOpcode(word)
	name, ok := opcodeNames[op]
	if !ok {
		return fmt.Sprintf("??? (op=%02X)", op)
	}
	if op == OpCALL || op == OpEND || op == OpNOP {
		return name
	}
	c := decodeCommon(word)
	return fmt.Sprintf("%-4s d%d, s%d, s%d", name, c.dest, c.src1Idx, c.src2Idx)
}

var opcodeNames = map[Opcode]string{
	OpADD:  "ADD",
	OpMUL:  "MUL",
	OpDP3:  "DP3",
	OpDP4:  "DP4",
	OpRCP:  "RCP",
	OpRSQ:  "RSQ",
	OpMOV:  "MOV",
	OpCALL: "CALL",
	OpNOP:  "NOP",
	OpEND:  "END",
}
