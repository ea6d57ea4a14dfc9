package binreader

import (
	"unicode/utf16"

	"github.com/deploymenttheory/garlic/internal/errs"
)

// DecodeMUTF8 decodes a NUL-unterminated MUTF-8 byte sequence into a Go
// string. MUTF-8 deviates from UTF-8 in two ways (spec.md §4.1):
//
//   - U+0000 is encoded as the two-byte overlong sequence 0xC0 0x80,
//     so an embedded raw 0x00 is never a valid encoded code point.
//   - Code points above U+FFFF are encoded as two 3-byte sequences
//     representing the UTF-16 surrogate pair, instead of UTF-8's
//     native 4-byte encoding.
func DecodeMUTF8(data []byte) (string, error) {
	units, err := decodeMUTF8Units(data)
	if err != nil {
		return "", err
	}
	return string(utf16.Decode(units)), nil
}

func decodeMUTF8Units(data []byte) ([]uint16, error) {
	units := make([]uint16, 0, len(data))
	i := 0
	for i < len(data) {
		b0 := data[i]
		switch {
		case b0 == 0x00:
			return nil, errs.ErrBadEncoding
		case b0&0x80 == 0:
			units = append(units, uint16(b0))
			i++
		case b0&0xE0 == 0xC0:
			if i+1 >= len(data) || data[i+1]&0xC0 != 0x80 {
				return nil, errs.ErrBadEncoding
			}
			b1 := data[i+1]
			cp := (uint16(b0&0x1F) << 6) | uint16(b1&0x3F)
			units = append(units, cp)
			i += 2
		case b0&0xF0 == 0xE0:
			if i+2 >= len(data) || data[i+1]&0xC0 != 0x80 || data[i+2]&0xC0 != 0x80 {
				return nil, errs.ErrBadEncoding
			}
			b1, b2 := data[i+1], data[i+2]
			cp := (uint16(b0&0x0F) << 12) | (uint16(b1&0x3F) << 6) | uint16(b2&0x3F)
			units = append(units, cp)
			i += 3
		default:
			return nil, errs.ErrBadEncoding
		}
	}
	return units, nil
}

// EncodeMUTF8 encodes s into MUTF-8 bytes, without a terminator.
func EncodeMUTF8(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, len(units)*2)
	for _, cu := range units {
		switch {
		case cu == 0:
			out = append(out, 0xC0, 0x80)
		case cu < 0x80:
			out = append(out, byte(cu))
		case cu < 0x800:
			out = append(out,
				0xC0|byte(cu>>6),
				0x80|byte(cu&0x3F))
		default:
			out = append(out,
				0xE0|byte(cu>>12),
				0x80|byte((cu>>6)&0x3F),
				0x80|byte(cu&0x3F))
		}
	}
	return out
}

// ReadMUTF8 reads a DEX string_data_item's encoded body: units UTF-16
// code units of MUTF-8, followed by a single NUL terminator byte which
// is consumed but not included in the result.
func (b *Buffer) ReadMUTF8(units int) (string, error) {
	var decoded []uint16
	for len(decoded) < units {
		start := b.pos
		n, cp, err := decodeOneUnit(b.data, start)
		if err != nil {
			return "", err
		}
		if err := b.ensure(n); err != nil {
			return "", err
		}
		b.pos += n
		decoded = append(decoded, cp)
	}
	term, err := b.ReadU8()
	if err != nil {
		return "", err
	}
	if term != 0x00 {
		return "", errs.ErrBadEncoding
	}
	return string(utf16.Decode(decoded)), nil
}

// decodeOneUnit decodes a single MUTF-8-encoded UTF-16 code unit
// starting at data[pos], returning its byte length and value.
func decodeOneUnit(data []byte, pos int) (n int, cp uint16, err error) {
	if pos >= len(data) {
		return 0, 0, errs.ErrTruncated
	}
	b0 := data[pos]
	switch {
	case b0&0x80 == 0:
		return 1, uint16(b0), nil
	case b0&0xE0 == 0xC0:
		if pos+1 >= len(data) {
			return 0, 0, errs.ErrTruncated
		}
		b1 := data[pos+1]
		if b1&0xC0 != 0x80 {
			return 0, 0, errs.ErrBadEncoding
		}
		return 2, (uint16(b0&0x1F) << 6) | uint16(b1&0x3F), nil
	case b0&0xF0 == 0xE0:
		if pos+2 >= len(data) {
			return 0, 0, errs.ErrTruncated
		}
		b1, b2 := data[pos+1], data[pos+2]
		if b1&0xC0 != 0x80 || b2&0xC0 != 0x80 {
			return 0, 0, errs.ErrBadEncoding
		}
		return 3, (uint16(b0&0x0F) << 12) | (uint16(b1&0x3F) << 6) | uint16(b2&0x3F), nil
	default:
		return 0, 0, errs.ErrBadEncoding
	}
}
