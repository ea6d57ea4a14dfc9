// Package binreader implements the bounds-checked binary reader
// primitives of spec.md §4.1: a cursor over an immutable byte range,
// little-endian fixed-width reads, ULEB128/SLEB128 varints, and the
// MUTF-8 string encoding DEX and JVM class files both use.
package binreader

import (
	"encoding/binary"

	"github.com/deploymenttheory/garlic/internal/errs"
)

// Buffer is an immutable byte range with a read cursor. It never
// copies the underlying bytes; SubBuffer shares the same backing array.
type Buffer struct {
	data []byte
	pos  int
}

// New wraps data in a Buffer positioned at offset 0.
func New(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Len returns the total length of the underlying byte range.
func (b *Buffer) Len() int { return len(b.data) }

// Pos returns the current cursor position.
func (b *Buffer) Pos() int { return b.pos }

// Bytes returns the full backing byte slice (read-only use expected).
func (b *Buffer) Bytes() []byte { return b.data }

// Seek repositions the cursor to an absolute offset. It fails with
// ErrTruncated if offset is outside [0, len(data)].
func (b *Buffer) Seek(offset int) error {
	if offset < 0 || offset > len(b.data) {
		return errs.ErrTruncated
	}
	b.pos = offset
	return nil
}

// ensure verifies n more bytes are available from the cursor.
func (b *Buffer) ensure(n int) error {
	if n < 0 || b.pos+n > len(b.data) {
		return errs.ErrTruncated
	}
	return nil
}

// Peek returns the next n bytes without advancing the cursor.
func (b *Buffer) Peek(n int) ([]byte, error) {
	if err := b.ensure(n); err != nil {
		return nil, err
	}
	return b.data[b.pos : b.pos+n], nil
}

// ReadBytes returns the next n bytes and advances the cursor.
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	out, err := b.Peek(n)
	if err != nil {
		return nil, err
	}
	b.pos += n
	return out, nil
}

// ReadU8 reads one unsigned byte.
func (b *Buffer) ReadU8() (uint8, error) {
	if err := b.ensure(1); err != nil {
		return 0, err
	}
	v := b.data[b.pos]
	b.pos++
	return v, nil
}

// ReadU16LE reads a little-endian uint16.
func (b *Buffer) ReadU16LE() (uint16, error) {
	if err := b.ensure(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(b.data[b.pos:])
	b.pos += 2
	return v, nil
}

// ReadU32LE reads a little-endian uint32.
func (b *Buffer) ReadU32LE() (uint32, error) {
	if err := b.ensure(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(b.data[b.pos:])
	b.pos += 4
	return v, nil
}

// ReadU64LE reads a little-endian uint64.
func (b *Buffer) ReadU64LE() (uint64, error) {
	if err := b.ensure(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(b.data[b.pos:])
	b.pos += 8
	return v, nil
}

// SubBuffer returns a new Buffer sharing the same backing array,
// covering [offset, offset+length), positioned at its own start.
func (b *Buffer) SubBuffer(offset, length int) (*Buffer, error) {
	if offset < 0 || length < 0 || offset+length > len(b.data) {
		return nil, errs.ErrTruncated
	}
	return &Buffer{data: b.data[offset : offset+length]}, nil
}
