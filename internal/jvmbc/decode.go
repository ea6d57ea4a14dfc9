package jvmbc

import (
	"fmt"

	"github.com/deploymenttheory/garlic/internal/errs"
)

// Decode walks a Code attribute's raw bytecode (jvmclass.CodeAttribute
// .Code) and returns every instruction it contains, in offset order.
// Offsets and branch targets are byte offsets from the start of code,
// matching the JVM spec's own addressing and the exception table's
// start_pc/end_pc/handler_pc fields.
func Decode(code []byte) ([]Instruction, error) {
	var out []Instruction
	pos := 0
	for pos < len(code) {
		op := code[pos]
		info, ok := opcodes[op]
		if !ok {
			return nil, fmt.Errorf("%w: unknown JVM opcode 0x%02x at offset %d", errs.ErrFormat, op, pos)
		}

		var ins Instruction
		var n int
		var err error
		switch info.fmt {
		case fmtTableSwitch:
			ins, n, err = decodeTableSwitch(code, pos)
		case fmtLookupSwitch:
			ins, n, err = decodeLookupSwitch(code, pos)
		case fmtWide:
			ins, n, err = decodeWide(code, pos)
		default:
			ins, n, err = decodeFixed(code, pos, info)
		}
		if err != nil {
			return nil, err
		}
		ins.Offset = uint32(pos)
		ins.Width = uint32(n)
		out = append(out, ins)
		pos += n
	}
	return out, nil
}

func decodeFixed(code []byte, pos int, info opInfo) (Instruction, int, error) {
	width := int(fixedWidth(info.fmt))
	if pos+width > len(code) {
		return Instruction{}, 0, fmt.Errorf("%w: JVM instruction %q at offset %d truncated", errs.ErrTruncated, info.mnemonic, pos)
	}
	ins := Instruction{Opcode: code[pos], Mnemonic: info.mnemonic}

	switch info.fmt {
	case fmtNone:
	case fmtU8:
		if info.mnemonic == "newarray" {
			ins.ArrayType = code[pos+1]
		} else {
			ins.Index = uint16(code[pos+1])
		}
	case fmtS8:
		ins.Literal = int64(int8(code[pos+1]))
	case fmtU16:
		ins.Index = be16(code[pos+1:])
	case fmtS16:
		if info.mnemonic == "sipush" {
			ins.Literal = int64(int16(be16(code[pos+1:])))
		} else {
			ins.Branch = int32(int16(be16(code[pos+1:])))
		}
	case fmtLocalU8:
		ins.Slot = uint16(code[pos+1])
	case fmtIinc:
		ins.Slot = uint16(code[pos+1])
		ins.Literal = int64(int8(code[pos+2]))
	case fmtS32:
		ins.Branch = int32(be32(code[pos+1:]))
	case fmtInvokeInterface:
		ins.Index = be16(code[pos+1:])
		ins.InvokeInterfaceCount = code[pos+3]
		// code[pos+4] is a reserved zero byte.
	case fmtInvokeDynamic:
		ins.Index = be16(code[pos+1:])
		// code[pos+3], code[pos+4] are reserved zero bytes.
	case fmtMultiANewArray:
		ins.Index = be16(code[pos+1:])
		ins.Dims = code[pos+3]
	default:
		return Instruction{}, 0, fmt.Errorf("%w: unhandled JVM operand format for %q", errs.ErrFormat, info.mnemonic)
	}
	return ins, width, nil
}

// decodeWide handles the 0xc4 prefix: it widens the local-slot index
// of the following iload/lload/fload/dload/aload/istore/lstore/fstore
// /dstore/astore/ret to 16 bits, or (wide iinc) widens both the slot
// and the increment. Returned as a single Instruction carrying the
// widened operands under the wrapped mnemonic, so the lifter never
// has to know "wide" happened.
func decodeWide(code []byte, pos int) (Instruction, int, error) {
	if pos+2 > len(code) {
		return Instruction{}, 0, fmt.Errorf("%w: wide prefix at offset %d truncated", errs.ErrTruncated, pos)
	}
	sub := code[pos+1]
	info, ok := opcodes[sub]
	if !ok {
		return Instruction{}, 0, fmt.Errorf("%w: wide prefix names unknown opcode 0x%02x at offset %d", errs.ErrFormat, sub, pos)
	}
	if sub == 0x84 { // iinc
		if pos+6 > len(code) {
			return Instruction{}, 0, fmt.Errorf("%w: wide iinc at offset %d truncated", errs.ErrTruncated, pos)
		}
		ins := Instruction{
			Opcode:   sub,
			Mnemonic: info.mnemonic,
			Slot:     be16(code[pos+2:]),
			Literal:  int64(int16(be16(code[pos+4:]))),
		}
		return ins, 6, nil
	}
	if pos+4 > len(code) {
		return Instruction{}, 0, fmt.Errorf("%w: wide %s at offset %d truncated", errs.ErrTruncated, info.mnemonic, pos)
	}
	ins := Instruction{Opcode: sub, Mnemonic: info.mnemonic, Slot: be16(code[pos+2:])}
	return ins, 4, nil
}

func decodeTableSwitch(code []byte, pos int) (Instruction, int, error) {
	p := pos + 1
	for p%4 != 0 {
		p++
	}
	if p+12 > len(code) {
		return Instruction{}, 0, fmt.Errorf("%w: tableswitch header at offset %d truncated", errs.ErrTruncated, pos)
	}
	def := int32(be32(code[p:]))
	low := int32(be32(code[p+4:]))
	high := int32(be32(code[p+8:]))
	p += 12
	n := int(high - low + 1)
	if n < 0 {
		return Instruction{}, 0, fmt.Errorf("%w: tableswitch at offset %d has high < low", errs.ErrFormat, pos)
	}
	if p+n*4 > len(code) {
		return Instruction{}, 0, fmt.Errorf("%w: tableswitch targets at offset %d truncated", errs.ErrTruncated, pos)
	}
	targets := make([]int32, n)
	for i := 0; i < n; i++ {
		targets[i] = int32(be32(code[p+i*4:]))
	}
	p += n * 4
	ins := Instruction{
		Opcode:   0xaa,
		Mnemonic: "tableswitch",
		Switch:   &SwitchPayload{Kind: "table", Default: def, Low: low, High: high, Targets: targets},
	}
	return ins, p - pos, nil
}

func decodeLookupSwitch(code []byte, pos int) (Instruction, int, error) {
	p := pos + 1
	for p%4 != 0 {
		p++
	}
	if p+8 > len(code) {
		return Instruction{}, 0, fmt.Errorf("%w: lookupswitch header at offset %d truncated", errs.ErrTruncated, pos)
	}
	def := int32(be32(code[p:]))
	npairs := int(be32(code[p+4:]))
	p += 8
	if npairs < 0 || p+npairs*8 > len(code) {
		return Instruction{}, 0, fmt.Errorf("%w: lookupswitch pairs at offset %d truncated", errs.ErrTruncated, pos)
	}
	keys := make([]int32, npairs)
	targets := make([]int32, npairs)
	for i := 0; i < npairs; i++ {
		keys[i] = int32(be32(code[p+i*8:]))
		targets[i] = int32(be32(code[p+i*8+4:]))
	}
	p += npairs * 8
	ins := Instruction{
		Opcode:   0xab,
		Mnemonic: "lookupswitch",
		Switch:   &SwitchPayload{Kind: "lookup", Default: def, Keys: keys, Targets: targets},
	}
	return ins, p - pos, nil
}

func be16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }
func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
