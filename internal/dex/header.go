// Package dex implements the DEX container parser of spec.md §4.2: the
// header, the interned id pools (strings/types/protos/fields/methods),
// the class-def table, and the code-item/debug-info streams, decoded
// into a typed in-memory model.
//
// Field naming is grounded on thanm-go-read-a-dex/dexread/struct.go and
// dutchcoders-godex/dex.go, which both mirror the Android Open Source
// Project's dex-format.html section names.
package dex

import "github.com/deploymenttheory/garlic/internal/errs"

// HeaderSize is the fixed size of a DEX header (0x70 bytes).
const HeaderSize = 0x70

var fileMagicPrefix = [4]byte{'d', 'e', 'x', '\n'}

const (
	endianConstant        = 0x12345678
	reverseEndianConstant = 0x78563412
)

// Section describes an (offset, size) pair for one of the header's id
// tables. Size is a record count, not a byte count, except where noted.
type Section struct {
	Size   uint32
	Offset uint32
}

// Header is the decoded DEX header_item.
type Header struct {
	Magic      [8]byte
	Checksum   uint32
	Signature  [20]byte
	FileSize   uint32
	HeaderSize uint32
	EndianTag  uint32

	Link       Section
	MapOff     uint32
	StringIDs  Section
	TypeIDs    Section
	ProtoIDs   Section
	FieldIDs   Section
	MethodIDs  Section
	ClassDefs  Section
	Data       Section
}

// validate checks the header invariants from spec.md §4.2: magic,
// endianness, header size, and that every section lies within the
// file.
func (h *Header) validate(fileLen int) error {
	if h.Magic[0] != fileMagicPrefix[0] || h.Magic[1] != fileMagicPrefix[1] ||
		h.Magic[2] != fileMagicPrefix[2] || h.Magic[3] != fileMagicPrefix[3] {
		return errs.ErrFormat
	}
	// bytes 4-6 are a three-digit version, byte 7 is 0x00.
	for i := 4; i < 7; i++ {
		if h.Magic[i] < '0' || h.Magic[i] > '9' {
			return errs.ErrFormat
		}
	}
	if h.Magic[7] != 0x00 {
		return errs.ErrFormat
	}
	if h.EndianTag == reverseEndianConstant {
		return errs.ErrFormat
	}
	if h.EndianTag != endianConstant {
		return errs.ErrFormat
	}
	if h.HeaderSize != HeaderSize {
		return errs.ErrFormat
	}
	if int(h.FileSize) != fileLen && fileLen != 0 {
		return errs.ErrFormat
	}
	sections := []struct {
		sec       Section
		entrySize uint32
	}{
		{h.StringIDs, 4},
		{h.TypeIDs, 4},
		{h.ProtoIDs, 12},
		{h.FieldIDs, 8},
		{h.MethodIDs, 8},
		{h.ClassDefs, 32},
	}
	for _, s := range sections {
		end := uint64(s.sec.Offset) + uint64(s.sec.Size)*uint64(s.entrySize)
		if end > uint64(fileLen) {
			return errs.ErrFormat
		}
	}
	return nil
}
