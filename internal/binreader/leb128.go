package binreader

import "github.com/deploymenttheory/garlic/internal/errs"

// maxLEB128Bytes is the longest encoding of a 64-bit value: ceil(64/7).
const maxLEB128Bytes = 10

// ReadULEB128 reads an unsigned LEB128 varint. It fails with
// ErrBadEncoding if maxLEB128Bytes bytes are read without a
// terminating byte (property 2 of spec.md §8).
func (b *Buffer) ReadULEB128() (uint64, error) {
	var result uint64
	var shift uint
	for i := 0; i < maxLEB128Bytes; i++ {
		byt, err := b.ReadU8()
		if err != nil {
			return 0, err
		}
		result |= uint64(byt&0x7f) << shift
		if byt&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, errs.ErrBadEncoding
}

// ReadULEB128p1 reads a DEX "ULEB128p1" value, the format's own name
// for a ULEB128 of (value+1) used where -1 (NO_INDEX-like "absent") is
// common; 0 decodes to -1.
func (b *Buffer) ReadULEB128p1() (int64, error) {
	v, err := b.ReadULEB128()
	if err != nil {
		return 0, err
	}
	return int64(v) - 1, nil
}

// ReadSLEB128 reads a signed LEB128 varint with sign extension from the
// last group's high bit, per the standard DWARF/DEX SLEB128 definition.
func (b *Buffer) ReadSLEB128() (int64, error) {
	var result int64
	var shift uint
	var byt uint8
	var err error
	for i := 0; i < maxLEB128Bytes; i++ {
		byt, err = b.ReadU8()
		if err != nil {
			return 0, err
		}
		result |= int64(byt&0x7f) << shift
		shift += 7
		if byt&0x80 == 0 {
			if shift < 64 && byt&0x40 != 0 {
				result |= -1 << shift
			}
			return result, nil
		}
	}
	return 0, errs.ErrBadEncoding
}

// EncodeULEB128 appends the ULEB128 encoding of v to dst, for callers
// (and tests) that need the encode side of the round-trip property.
func EncodeULEB128(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			dst = append(dst, b|0x80)
		} else {
			dst = append(dst, b)
			return dst
		}
	}
}

// EncodeSLEB128 appends the SLEB128 encoding of v to dst.
func EncodeSLEB128(dst []byte, v int64) []byte {
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			more = false
		} else {
			b |= 0x80
		}
		dst = append(dst, b)
	}
	return dst
}
