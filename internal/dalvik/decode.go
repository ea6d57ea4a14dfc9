package dalvik

import (
	"fmt"

	"github.com/deploymenttheory/garlic/internal/arena"
	"github.com/deploymenttheory/garlic/internal/errs"
)

// Decode walks insns (a code_item's instruction buffer) from the
// start and returns every Instruction and inline payload it contains,
// in offset order. Payload pseudo-instructions are recognized inline
// by their distinguished first code unit (0x0100, 0x0200, 0x0300) per
// spec.md §4.4 and returned as ordinary Instructions carrying a
// non-nil Payload; callers resolve a switch/fill-array-data target by
// looking up the Instruction whose Offset matches the branch/array
// operand of the instruction that referenced it.
//
// a is the caller's per-task scratch arena (spec.md §5): the
// fill-array-data-payload's raw element bytes are carved from it
// instead of an ordinary heap slice, since that buffer never outlives
// the decoding task.
func Decode(insns []uint16, a *arena.Arena) ([]Instruction, error) {
	var out []Instruction
	pos := 0
	for pos < len(insns) {
		unit := insns[pos]
		low := byte(unit)
		high := byte(unit >> 8)

		if low == 0x00 && unit != 0x0000 {
			switch high {
			case 0x01:
				ins, n, err := decodePackedSwitch(insns, pos)
				if err != nil {
					return nil, err
				}
				out = append(out, ins)
				pos += n
				continue
			case 0x02:
				ins, n, err := decodeSparseSwitch(insns, pos)
				if err != nil {
					return nil, err
				}
				out = append(out, ins)
				pos += n
				continue
			case 0x03:
				ins, n, err := decodeFillArrayData(insns, pos, a)
				if err != nil {
					return nil, err
				}
				out = append(out, ins)
				pos += n
				continue
			default:
				return nil, fmt.Errorf("%w: reserved pseudo-opcode 0x%02x00 at unit %d", errs.ErrFormat, high, pos)
			}
		}

		info, ok := opcodes[low]
		if !ok {
			return nil, fmt.Errorf("%w: unknown opcode 0x%02x at unit %d", errs.ErrFormat, low, pos)
		}
		width := formatWidth[info.format]
		if pos+int(width) > len(insns) {
			return nil, fmt.Errorf("%w: instruction at unit %d truncated", errs.ErrTruncated, pos)
		}
		ins, err := decodeOne(insns, pos, low, info)
		if err != nil {
			return nil, err
		}
		out = append(out, ins)
		pos += int(width)
	}
	return out, nil
}

func decodeOne(insns []uint16, pos int, opcode byte, info opInfo) (Instruction, error) {
	ins := Instruction{
		Offset:   uint32(pos),
		Width:    formatWidth[info.format],
		Opcode:   opcode,
		Mnemonic: info.mnemonic,
		Format:   info.format,
		Kind:     info.kind,
	}
	u0 := insns[pos]
	hi0 := byte(u0 >> 8)

	switch info.format {
	case "10x":
		// no operands
	case "12x":
		a, b := byte(hi0&0x0f), byte(hi0>>4)
		ins.Regs = []uint16{uint16(a), uint16(b)}
	case "11n":
		a := hi0 & 0x0f
		lit := int64(int8(hi0) >> 4) // sign-extend the high nibble
		ins.Regs = []uint16{uint16(a)}
		ins.Literal = lit
	case "11x":
		ins.Regs = []uint16{uint16(hi0)}
	case "10t":
		ins.Branch = int32(int8(hi0))
	case "20t":
		ins.Branch = int32(int16(insns[pos+1]))
	case "20bc":
		ins.Index = uint32(insns[pos+1])
	case "22x":
		ins.Regs = []uint16{uint16(hi0)}
		ins.Index = uint32(insns[pos+1])
	case "21t":
		ins.Regs = []uint16{uint16(hi0)}
		ins.Branch = int32(int16(insns[pos+1]))
	case "21s":
		ins.Regs = []uint16{uint16(hi0)}
		ins.Literal = int64(int16(insns[pos+1]))
	case "21h":
		ins.Regs = []uint16{uint16(hi0)}
		ins.Literal = int64(int16(insns[pos+1])) << 16 // const/high16 shift; const-wide/high16 shifts further at the lift stage
	case "21c":
		ins.Regs = []uint16{uint16(hi0)}
		ins.Index = uint32(insns[pos+1])
	case "23x":
		u1 := insns[pos+1]
		ins.Regs = []uint16{uint16(hi0), uint16(byte(u1)), uint16(byte(u1 >> 8))}
	case "22b":
		u1 := insns[pos+1]
		ins.Regs = []uint16{uint16(hi0), uint16(byte(u1))}
		ins.Literal = int64(int8(byte(u1 >> 8)))
	case "22t":
		a, b := hi0&0x0f, hi0>>4
		ins.Regs = []uint16{uint16(a), uint16(b)}
		ins.Branch = int32(int16(insns[pos+1]))
	case "22s":
		a, b := hi0&0x0f, hi0>>4
		ins.Regs = []uint16{uint16(a), uint16(b)}
		ins.Literal = int64(int16(insns[pos+1]))
	case "22c":
		a, b := hi0&0x0f, hi0>>4
		ins.Regs = []uint16{uint16(a), uint16(b)}
		ins.Index = uint32(insns[pos+1])
	case "30t":
		ins.Branch = int32(uint32(insns[pos+1]) | uint32(insns[pos+2])<<16)
	case "32x":
		ins.Regs = []uint16{insns[pos+1], insns[pos+2]}
	case "31i":
		ins.Regs = []uint16{uint16(hi0)}
		ins.Literal = int64(int32(uint32(insns[pos+1]) | uint32(insns[pos+2])<<16))
	case "31t":
		ins.Regs = []uint16{uint16(hi0)}
		ins.Branch = int32(uint32(insns[pos+1]) | uint32(insns[pos+2])<<16)
	case "31c":
		ins.Regs = []uint16{uint16(hi0)}
		ins.Index = uint32(insns[pos+1]) | uint32(insns[pos+2])<<16
	case "35c":
		argCount := hi0 >> 4
		g := hi0 & 0x0f
		index := insns[pos+1]
		u2 := insns[pos+2]
		c, d, e, f := byte(u2&0x0f), byte((u2>>4)&0x0f), byte((u2>>8)&0x0f), byte((u2>>12)&0x0f)
		all := []uint16{uint16(c), uint16(d), uint16(e), uint16(f), uint16(g)}
		ins.Regs = all[:argCount]
		ins.Index = uint32(index)
	case "3rc":
		count := hi0
		index := insns[pos+1]
		first := insns[pos+2]
		regs := make([]uint16, count)
		for i := range regs {
			regs[i] = first + uint16(i)
		}
		ins.Regs = regs
		ins.Index = uint32(index)
	case "45cc":
		argCount := hi0 >> 4
		g := hi0 & 0x0f
		index := insns[pos+1]
		u2 := insns[pos+2]
		c, d, e, f := byte(u2&0x0f), byte((u2>>4)&0x0f), byte((u2>>8)&0x0f), byte((u2>>12)&0x0f)
		all := []uint16{uint16(c), uint16(d), uint16(e), uint16(f), uint16(g)}
		ins.Regs = all[:argCount]
		ins.Index = uint32(index)
		ins.Index2 = uint32(insns[pos+3])
	case "4rcc":
		count := hi0
		index := insns[pos+1]
		first := insns[pos+2]
		regs := make([]uint16, count)
		for i := range regs {
			regs[i] = first + uint16(i)
		}
		ins.Regs = regs
		ins.Index = uint32(index)
		ins.Index2 = uint32(insns[pos+3])
	case "51l":
		ins.Regs = []uint16{uint16(hi0)}
		var v uint64
		for i := 0; i < 4; i++ {
			v |= uint64(insns[pos+1+i]) << (16 * i)
		}
		ins.Literal = int64(v)
	default:
		return Instruction{}, fmt.Errorf("%w: unhandled format %q", errs.ErrFormat, info.format)
	}
	return ins, nil
}

func decodePackedSwitch(insns []uint16, pos int) (Instruction, int, error) {
	if pos+4 > len(insns) {
		return Instruction{}, 0, fmt.Errorf("%w: packed-switch-payload header", errs.ErrTruncated)
	}
	size := int(insns[pos+1])
	firstKey := int32(uint32(insns[pos+2]) | uint32(insns[pos+3])<<16)
	n := 4 + size*2
	if pos+n > len(insns) {
		return Instruction{}, 0, fmt.Errorf("%w: packed-switch-payload targets", errs.ErrTruncated)
	}
	targets := make([]int32, size)
	for i := 0; i < size; i++ {
		lo := insns[pos+4+i*2]
		hi := insns[pos+4+i*2+1]
		targets[i] = int32(uint32(lo) | uint32(hi)<<16)
	}
	return Instruction{
		Offset: uint32(pos),
		Width:  uint16(n),
		Format: "packed-switch-payload",
		Payload: &Payload{
			Kind:     "packed-switch",
			FirstKey: firstKey,
			Targets:  targets,
		},
	}, n, nil
}

func decodeSparseSwitch(insns []uint16, pos int) (Instruction, int, error) {
	if pos+2 > len(insns) {
		return Instruction{}, 0, fmt.Errorf("%w: sparse-switch-payload header", errs.ErrTruncated)
	}
	size := int(insns[pos+1])
	n := 2 + size*4
	if pos+n > len(insns) {
		return Instruction{}, 0, fmt.Errorf("%w: sparse-switch-payload body", errs.ErrTruncated)
	}
	keys := make([]int32, size)
	for i := 0; i < size; i++ {
		lo := insns[pos+2+i*2]
		hi := insns[pos+2+i*2+1]
		keys[i] = int32(uint32(lo) | uint32(hi)<<16)
	}
	targetsStart := pos + 2 + size*2
	targets := make([]int32, size)
	for i := 0; i < size; i++ {
		lo := insns[targetsStart+i*2]
		hi := insns[targetsStart+i*2+1]
		targets[i] = int32(uint32(lo) | uint32(hi)<<16)
	}
	return Instruction{
		Offset: uint32(pos),
		Width:  uint16(n),
		Format: "sparse-switch-payload",
		Payload: &Payload{
			Kind:    "sparse-switch",
			Keys:    keys,
			Targets: targets,
		},
	}, n, nil
}

func decodeFillArrayData(insns []uint16, pos int, a *arena.Arena) (Instruction, int, error) {
	if pos+4 > len(insns) {
		return Instruction{}, 0, fmt.Errorf("%w: fill-array-data-payload header", errs.ErrTruncated)
	}
	elementWidth := insns[pos+1]
	size := uint32(insns[pos+2]) | uint32(insns[pos+3])<<16
	byteLen := uint64(elementWidth) * uint64(size)
	unitLen := (byteLen + 1) / 2
	n := 4 + int(unitLen)
	if pos+n > len(insns) {
		return Instruction{}, 0, fmt.Errorf("%w: fill-array-data-payload body", errs.ErrTruncated)
	}
	data := a.Bytes(int(byteLen))
	for i := uint64(0); i < unitLen; i++ {
		u := insns[pos+4+int(i)]
		if i*2 < byteLen {
			data[i*2] = byte(u)
		}
		if i*2+1 < byteLen {
			data[i*2+1] = byte(u >> 8)
		}
	}
	return Instruction{
		Offset: uint32(pos),
		Width:  uint16(n),
		Format: "fill-array-data-payload",
		Payload: &Payload{
			Kind:         "fill-array-data",
			ElementWidth: elementWidth,
			Data:         data,
		},
	}, n, nil
}
