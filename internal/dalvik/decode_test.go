package dalvik

import (
	"testing"

	"github.com/deploymenttheory/garlic/internal/arena"
)

func packI32(v int32) (lo, hi uint16) {
	u := uint32(v)
	return uint16(u), uint16(u >> 16)
}

func TestDecodeNop(t *testing.T) {
	insns := []uint16{0x0000}
	out, err := Decode(insns, arena.New())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out) != 1 || out[0].Mnemonic != "nop" {
		t.Fatalf("got %+v", out)
	}
}

func TestDecodeMove12x(t *testing.T) {
	// move vA=1, vB=2: opcode 0x01, hi byte = (B<<4)|A = 0x21
	insns := []uint16{0x2101}
	out, err := Decode(insns, arena.New())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	ins := out[0]
	if ins.Mnemonic != "move" || len(ins.Regs) != 2 || ins.Regs[0] != 1 || ins.Regs[1] != 2 {
		t.Fatalf("got %+v", ins)
	}
}

func TestDecodeConst4NegativeLiteral(t *testing.T) {
	// const/4 vA=0, lit=-1: opcode 0x12, hi byte = (0xF<<4)|0 = 0xF0
	insns := []uint16{0xF012}
	out, err := Decode(insns, arena.New())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	ins := out[0]
	if ins.Mnemonic != "const/4" || ins.Regs[0] != 0 || ins.Literal != -1 {
		t.Fatalf("got %+v", ins)
	}
}

func TestDecodeGotoNegativeBranch(t *testing.T) {
	// goto, branch=-2: opcode 0x28, hi byte = int8(-2) = 0xFE
	insns := []uint16{0xFE28}
	out, err := Decode(insns, arena.New())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out[0].Mnemonic != "goto" || out[0].Branch != -2 {
		t.Fatalf("got %+v", out[0])
	}
}

func TestDecodeInvokeVirtual35c(t *testing.T) {
	// invoke-virtual {v5}, method@7: opcode 0x6e, argCount=1, G=0 -> hi=0x10
	insns := []uint16{0x106e, 0x0007, 0x0005}
	out, err := Decode(insns, arena.New())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	ins := out[0]
	if ins.Mnemonic != "invoke-virtual" || ins.Index != 7 || len(ins.Regs) != 1 || ins.Regs[0] != 5 {
		t.Fatalf("got %+v", ins)
	}
	if ins.Kind != KindMethod {
		t.Fatalf("expected KindMethod, got %v", ins.Kind)
	}
}

func TestDecodeInvokeRange3rc(t *testing.T) {
	// invoke-static/range {v2..v4}, method@9: opcode 0x77, count=3
	insns := []uint16{0x0377, 0x0009, 0x0002}
	out, err := Decode(insns, arena.New())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	ins := out[0]
	want := []uint16{2, 3, 4}
	if len(ins.Regs) != 3 {
		t.Fatalf("got %+v", ins)
	}
	for i, r := range want {
		if ins.Regs[i] != r {
			t.Fatalf("reg %d = %d, want %d", i, ins.Regs[i], r)
		}
	}
}

func TestDecodePackedSwitchPayload(t *testing.T) {
	t0lo, t0hi := packI32(100)
	t1lo, t1hi := packI32(-50)
	fklo, fkhi := packI32(10)
	insns := []uint16{0x0100, 2, fklo, fkhi, t0lo, t0hi, t1lo, t1hi}
	out, err := Decode(insns, arena.New())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out) != 1 || out[0].Payload == nil {
		t.Fatalf("got %+v", out)
	}
	p := out[0].Payload
	if p.Kind != "packed-switch" || p.FirstKey != 10 {
		t.Fatalf("got %+v", p)
	}
	if len(p.Targets) != 2 || p.Targets[0] != 100 || p.Targets[1] != -50 {
		t.Fatalf("got targets %+v", p.Targets)
	}
}

func TestDecodeFillArrayDataPayload(t *testing.T) {
	// element_width=1, size=3, data bytes {1,2,3} packed into 2 units (padded)
	insns := []uint16{0x0300, 1, 3, 0, 0x0201, 0x0003}
	out, err := Decode(insns, arena.New())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	p := out[0].Payload
	if p.Kind != "fill-array-data" || p.ElementWidth != 1 {
		t.Fatalf("got %+v", p)
	}
	if len(p.Data) != 3 || p.Data[0] != 1 || p.Data[1] != 2 || p.Data[2] != 3 {
		t.Fatalf("got data %v", p.Data)
	}
}

func TestDecodeUnknownOpcodeErrors(t *testing.T) {
	// 0x3e is in the unused/reserved range.
	insns := []uint16{0x003e}
	if _, err := Decode(insns, arena.New()); err == nil {
		t.Fatal("expected an error for an unused opcode")
	}
}

func TestDecodeTruncatedInstructionErrors(t *testing.T) {
	// const/16 (21s) needs 2 units, only 1 given.
	insns := []uint16{0x0013}
	if _, err := Decode(insns, arena.New()); err == nil {
		t.Fatal("expected an error for a truncated instruction")
	}
}
