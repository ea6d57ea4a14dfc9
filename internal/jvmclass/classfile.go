// Package jvmclass implements the standalone .class file path: a
// constant-pool and method-table parser for the JVM class file format,
// used for the dump (-p) and S1 scenario alongside the DEX path.
//
// Grounded on other_examples/AzulSystems-JDowser__classfile.go's
// constant-pool tag dispatch and reader-driven field/method/attribute
// loop, reworked onto internal/binreader.Buffer instead of that
// example's bespoke ClassFileReader, and onto an explicit tag-switch
// instead of a polymorphic ConstantPoolEntry.Read interface — a class
// file's constant pool is a closed, fixed set of 17 tags, so one flat
// switch over binreader reads the same ground without the extra
// interface indirection.
package jvmclass

import (
	"fmt"
	"math"

	"github.com/deploymenttheory/garlic/internal/arena"
	"github.com/deploymenttheory/garlic/internal/binreader"
	"github.com/deploymenttheory/garlic/internal/errs"
)

func float32FromBits(v uint32) float32 { return math.Float32frombits(v) }
func float64FromBits(v uint64) float64 { return math.Float64frombits(v) }

const magic = 0xcafebabe

// Constant pool tags, JVM class file spec §4.4.
const (
	tagUtf8              = 1
	tagInteger           = 3
	tagFloat             = 4
	tagLong              = 5
	tagDouble            = 6
	tagClass             = 7
	tagString            = 8
	tagFieldref          = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// ConstantPoolEntry is one slot of the constant pool. A Long/Double
// entry occupies two slots; the second is left as a zero-value entry
// with Tag == 0, per the class file format's own quirk.
type ConstantPoolEntry struct {
	Tag int

	Utf8          string
	Int32         int32
	Float32       float32
	Int64         int64
	Float64       float64
	ClassNameIdx  uint16
	StringIdx     uint16
	ClassIdx      uint16
	NameTypeIdx   uint16
	NameIdx       uint16
	DescriptorIdx uint16
	RefKind       uint8
	RefIdx        uint16
}

// Member is a field_info or method_info entry.
type Member struct {
	AccessFlags uint16
	NameIdx     uint16
	DescIdx     uint16
	Attributes  []Attribute
}

// Attribute is one attribute_info entry, kept as raw bytes. Parse
// leaves Code nil for every attribute; a "Code" attribute's body is
// decoded on demand by FindCode/ParseCode.
type Attribute struct {
	NameIdx uint16
	Raw     []byte
	Code    *CodeAttribute
}

// CodeAttribute is a method's "Code" attribute: its bytecode plus
// exception table.
type CodeAttribute struct {
	MaxStack     uint16
	MaxLocals    uint16
	Code         []byte
	ExceptionTbl []ExceptionEntry
}

// ExceptionEntry is one entry of a Code attribute's exception table.
type ExceptionEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16 // 0 means catch-all
}

// ClassFile is a fully parsed .class file.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool []ConstantPoolEntry // index 0 unused, matches the spec's 1-based pool
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []Member
	Methods      []Member
	Attributes   []Attribute
}

// Parse decodes data as a JVM class file. a is the caller's per-task
// scratch arena (spec.md §5): constant-pool UTF8 entries are copied
// through it by Arena.String, which returns an ordinary heap string.
func Parse(data []byte, a *arena.Arena) (*ClassFile, error) {
	b := binreader.New(data)

	gotMagic, err := readU32BE(b)
	if err != nil {
		return nil, errs.ErrFormat
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("%w: not a class file (bad magic)", errs.ErrFormat)
	}

	cf := &ClassFile{}
	var e error
	if cf.MinorVersion, e = readU16BE(b); e != nil {
		return nil, e
	}
	if cf.MajorVersion, e = readU16BE(b); e != nil {
		return nil, e
	}
	if cf.ConstantPool, e = readConstantPool(b, a); e != nil {
		return nil, e
	}
	if cf.AccessFlags, e = readU16BE(b); e != nil {
		return nil, e
	}
	if cf.ThisClass, e = readU16BE(b); e != nil {
		return nil, e
	}
	if cf.SuperClass, e = readU16BE(b); e != nil {
		return nil, e
	}
	if cf.Interfaces, e = readU16SliceBE(b); e != nil {
		return nil, e
	}
	if cf.Fields, e = readMembers(b); e != nil {
		return nil, e
	}
	if cf.Methods, e = readMembers(b); e != nil {
		return nil, e
	}
	if cf.Attributes, e = readAttributes(b); e != nil {
		return nil, e
	}
	return cf, nil
}

// readU16BE/readU32BE read big-endian fields: the class file format is
// big-endian throughout, opposite of DEX's little-endian encoding, so
// binreader.Buffer's *LE readers can't be reused directly here; these
// helpers byte-swap its raw ReadBytes output instead.
func readU16BE(b *binreader.Buffer) (uint16, error) {
	raw, err := b.ReadBytes(2)
	if err != nil {
		return 0, errs.ErrFormat
	}
	return uint16(raw[0])<<8 | uint16(raw[1]), nil
}

func readU32BE(b *binreader.Buffer) (uint32, error) {
	raw, err := b.ReadBytes(4)
	if err != nil {
		return 0, errs.ErrFormat
	}
	return uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3]), nil
}

func readU16SliceBE(b *binreader.Buffer) ([]uint16, error) {
	n, err := readU16BE(b)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, n)
	for i := range out {
		if out[i], err = readU16BE(b); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readConstantPool(b *binreader.Buffer, a *arena.Arena) ([]ConstantPoolEntry, error) {
	count, err := readU16BE(b)
	if err != nil {
		return nil, err
	}
	pool := make([]ConstantPoolEntry, count)
	for i := 1; i < int(count); i++ {
		tagByte, err := b.ReadU8()
		if err != nil {
			return nil, errs.ErrFormat
		}
		entry, wide, err := readConstantEntry(b, int(tagByte), a)
		if err != nil {
			return nil, err
		}
		pool[i] = entry
		if wide {
			i++ // Long/Double occupy two slots, per the format's own quirk
		}
	}
	return pool, nil
}

func readConstantEntry(b *binreader.Buffer, tag int, a *arena.Arena) (ConstantPoolEntry, bool, error) {
	e := ConstantPoolEntry{Tag: tag}
	var err error
	switch tag {
	case tagUtf8:
		n, e1 := readU16BE(b)
		if e1 != nil {
			return e, false, e1
		}
		raw, e2 := b.ReadBytes(int(n))
		if e2 != nil {
			return e, false, errs.ErrFormat
		}
		s, e3 := binreader.DecodeMUTF8(raw)
		if e3 != nil {
			return e, false, errs.ErrFormat
		}
		e.Utf8 = a.String([]byte(s))
	case tagInteger:
		v, e1 := readU32BE(b)
		err = e1
		e.Int32 = int32(v)
	case tagFloat:
		v, e1 := readU32BE(b)
		err = e1
		e.Float32 = float32FromBits(v)
	case tagLong:
		hi, e1 := readU32BE(b)
		lo, e2 := readU32BE(b)
		if e1 != nil {
			err = e1
		} else {
			err = e2
		}
		e.Int64 = int64(hi)<<32 | int64(lo)
		return e, true, err
	case tagDouble:
		hi, e1 := readU32BE(b)
		lo, e2 := readU32BE(b)
		if e1 != nil {
			err = e1
		} else {
			err = e2
		}
		e.Float64 = float64FromBits(uint64(hi)<<32 | uint64(lo))
		return e, true, err
	case tagClass, tagMethodType, tagModule, tagPackage:
		e.ClassNameIdx, err = readU16BE(b)
	case tagString:
		e.StringIdx, err = readU16BE(b)
	case tagFieldref, tagMethodref, tagInterfaceMethodref:
		e.ClassIdx, err = readU16BE(b)
		if err == nil {
			e.NameTypeIdx, err = readU16BE(b)
		}
	case tagNameAndType:
		e.NameIdx, err = readU16BE(b)
		if err == nil {
			e.DescriptorIdx, err = readU16BE(b)
		}
	case tagMethodHandle:
		kind, e1 := b.ReadU8()
		e.RefKind = kind
		err = e1
		if err == nil {
			e.RefIdx, err = readU16BE(b)
		}
	case tagDynamic, tagInvokeDynamic:
		e.ClassIdx, err = readU16BE(b) // bootstrap_method_attr_index, reused field
		if err == nil {
			e.NameTypeIdx, err = readU16BE(b)
		}
	default:
		return e, false, fmt.Errorf("%w: unknown constant pool tag %d", errs.ErrFormat, tag)
	}
	if err != nil {
		return e, false, errs.ErrFormat
	}
	return e, false, nil
}

func readMembers(b *binreader.Buffer) ([]Member, error) {
	n, err := readU16BE(b)
	if err != nil {
		return nil, err
	}
	out := make([]Member, n)
	for i := range out {
		if out[i].AccessFlags, err = readU16BE(b); err != nil {
			return nil, err
		}
		if out[i].NameIdx, err = readU16BE(b); err != nil {
			return nil, err
		}
		if out[i].DescIdx, err = readU16BE(b); err != nil {
			return nil, err
		}
		if out[i].Attributes, err = readAttributes(b); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readAttributes(b *binreader.Buffer) ([]Attribute, error) {
	n, err := readU16BE(b)
	if err != nil {
		return nil, err
	}
	out := make([]Attribute, n)
	for i := range out {
		nameIdx, err := readU16BE(b)
		if err != nil {
			return nil, err
		}
		length, err := readU32BE(b)
		if err != nil {
			return nil, err
		}
		raw, err := b.ReadBytes(int(length))
		if err != nil {
			return nil, errs.ErrFormat
		}
		out[i] = Attribute{NameIdx: nameIdx, Raw: raw}
	}
	return out, nil
}

// ParseCode decodes a "Code" attribute's body (already isolated in
// Raw) into its max_stack/max_locals/code/exception_table fields.
// Attribute parsing defers this until FindCode asks for a method's
// bytecode, since most attributes (LineNumberTable, SourceFile, ...)
// are never inspected by the -p dump.
func ParseCode(raw []byte) (*CodeAttribute, error) {
	b := binreader.New(raw)
	ca := &CodeAttribute{}
	var err error
	if ca.MaxStack, err = readU16BE(b); err != nil {
		return nil, err
	}
	if ca.MaxLocals, err = readU16BE(b); err != nil {
		return nil, err
	}
	codeLen, err := readU32BE(b)
	if err != nil {
		return nil, err
	}
	if ca.Code, err = b.ReadBytes(int(codeLen)); err != nil {
		return nil, errs.ErrFormat
	}
	excCount, err := readU16BE(b)
	if err != nil {
		return nil, err
	}
	ca.ExceptionTbl = make([]ExceptionEntry, excCount)
	for i := range ca.ExceptionTbl {
		entry := &ca.ExceptionTbl[i]
		if entry.StartPC, err = readU16BE(b); err != nil {
			return nil, err
		}
		if entry.EndPC, err = readU16BE(b); err != nil {
			return nil, err
		}
		if entry.HandlerPC, err = readU16BE(b); err != nil {
			return nil, err
		}
		if entry.CatchType, err = readU16BE(b); err != nil {
			return nil, err
		}
	}
	return ca, nil
}
