package picagpu

import (
	"strings"
	"testing"
)

func TestParseCommand(t *testing.T) {
	cmd := ParseCommand("  R 10 20 ")
	if cmd.Name != "r" || len(cmd.Args) != 2 || cmd.Args[0] != "10" || cmd.Args[1] != "20" {
		t.Fatalf("got %+v", cmd)
	}
	if got := ParseCommand("   "); got.Name != "" || got.Args != nil {
		t.Fatalf("blank input should parse to zero value, got %+v", got)
	}
}

func TestParseAddress(t *testing.T) {
	cases := []struct {
		in     string
		want   uint64
		wantOK bool
	}{
		{"$1F", 0x1F, true},
		{"0x20", 0x20, true},
		{"0X20", 0x20, true},
		{"#10", 10, true},
		{"2A", 0x2A, true},
		{"", 0, false},
		{"zzz", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseAddress(c.in)
		if ok != c.wantOK || (ok && got != c.want) {
			t.Errorf("ParseAddress(%q) = (%d,%v), want (%d,%v)", c.in, got, ok, c.want, c.wantOK)
		}
	}
}

func TestEvalAddress(t *testing.T) {
	core := NewCore(NewGuestBus(4096), 8, 8, nil)
	core.Regs.Write(5, 0x100)
	m := NewMonitor(core, &strings.Builder{})

	if v, ok := EvalAddress("r5", m); !ok || v != 0x100 {
		t.Fatalf("r5 = (%d,%v), want (0x100,true)", v, ok)
	}
	if v, ok := EvalAddress("r5 + $10", m); !ok || v != 0x110 {
		t.Fatalf("r5+$10 = (%d,%v), want (0x110,true)", v, ok)
	}
	if v, ok := EvalAddress("r5 - #16", m); !ok || v != 0xF0 {
		t.Fatalf("r5-#16 = (%d,%v), want (0xF0,true)", v, ok)
	}
	if _, ok := EvalAddress("rNotAReg", m); ok {
		t.Fatalf("expected failure resolving an unknown name")
	}
	if _, ok := EvalAddress("", m); ok {
		t.Fatalf("expected failure on empty expression")
	}
}

func TestMonitorRegistersDumpAndWrite(t *testing.T) {
	core := NewCore(NewGuestBus(4096), 8, 8, nil)
	var out strings.Builder
	m := NewMonitor(core, &out)

	if m.Execute("r 7 99") {
		t.Fatalf("register write should not exit the console")
	}
	// bare numbers are hex, so "99" stores 0x99.
	if core.Regs.Read(7) != 0x99 {
		t.Fatalf("register 7 = %#x, want 0x99", core.Regs.Read(7))
	}

	out.Reset()
	m.Execute("r")
	if !strings.Contains(out.String(), "r7") {
		t.Fatalf("expected register dump to mention r7, got %q", out.String())
	}
}

func TestMonitorDisassemble(t *testing.T) {
	core := NewCore(NewGuestBus(4096), 8, 8, nil)
	core.SubmitShaderWord(0, encodeCommon(OpMOV, 0x00, RegInput, 0, RegInput, 0, false, 0))
	core.SubmitShaderWord(1, encodeEnd())

	var out strings.Builder
	m := NewMonitor(core, &out)
	m.Execute("d 0 2")

	got := out.String()
	if !strings.Contains(got, "MOV") || !strings.Contains(got, "END") {
		t.Fatalf("expected MOV and END in disassembly, got %q", got)
	}
}

func TestMonitorMemoryDump(t *testing.T) {
	mem := NewGuestBus(4096)
	core := NewCore(mem, 8, 8, nil)
	mem.WriteBytes(0, []byte{0xAA, 0xBB, 0xCC, 0xDD})

	var out strings.Builder
	m := NewMonitor(core, &out)
	m.Execute("m 0 1")

	if !strings.Contains(out.String(), "AA BB CC DD") {
		t.Fatalf("expected hex dump to show AA BB CC DD, got %q", out.String())
	}
}

func TestMonitorStep(t *testing.T) {
	core := NewCore(NewGuestBus(4096), 8, 8, nil)
	core.Regs.Write(RegVSOutputMapBase+0, uint32(SemPosX)|uint32(SemPosY)<<8|uint32(SemPosZ)<<16|uint32(SemPosW)<<24)
	core.SubmitSwizzleWord(0, identitySwizzle())
	core.SubmitShaderWord(0, encodeCommon(OpMOV, 0x00, RegInput, 0, RegInput, 0, false, 0))
	core.SubmitShaderWord(1, encodeEnd())

	var out strings.Builder
	m := NewMonitor(core, &out)
	if m.Execute("s") {
		t.Fatalf("step should not exit the console")
	}
	if !strings.Contains(out.String(), "pos") {
		t.Fatalf("expected step output to include pos, got %q", out.String())
	}
}

func TestMonitorRunQuitsOnX(t *testing.T) {
	core := NewCore(NewGuestBus(4096), 8, 8, nil)
	var out strings.Builder
	m := NewMonitor(core, &out)

	m.Run(strings.NewReader("r\nx\n"))
	if len(m.history) != 2 {
		t.Fatalf("expected 2 lines of history, got %d", len(m.history))
	}
}

func TestMonitorUnknownCommand(t *testing.T) {
	core := NewCore(NewGuestBus(4096), 8, 8, nil)
	var out strings.Builder
	m := NewMonitor(core, &out)

	if m.Execute("bogus") {
		t.Fatalf("unknown command should not exit the console")
	}
	if !strings.Contains(out.String(), "unknown command") {
		t.Fatalf("expected unknown-command message, got %q", out.String())
	}
}

func TestDisassembleUnknownOpcode(t *testing.T) {
	got := disassemble(0xFFFFFFFF)
	if !strings.Contains(got, "???") {
		t.Fatalf("expected ??? for an undecodable opcode, got %q", got)
	}
}
