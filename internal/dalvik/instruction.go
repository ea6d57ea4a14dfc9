// Package dalvik implements the instruction decoder of spec.md §4.4: it
// turns a code_item's instruction buffer (an array of 16-bit code
// units) into a sequence of typed Instructions and Payloads, using the
// fixed Dalvik opcode→format table.
//
// No example repo in the retrieval pack decodes Dalvik instructions
// byte-for-byte (dutchcoders/godex and thanm/go-read-a-dex both stop at
// the class/method-table level), so this package is grounded directly
// on spec.md §4.4's format and payload descriptions rather than on a
// corpus file.
package dalvik

// Kind identifies which interned pool (if any) an instruction's Index
// operand resolves against.
type Kind int

const (
	KindNone Kind = iota
	KindString
	KindType
	KindField
	KindMethod
	KindProto
)

// Instruction is one decoded Dalvik instruction.
type Instruction struct {
	Offset   uint32 // code-unit offset of this instruction within the method
	Width    uint16 // length in 16-bit code units
	Opcode   byte
	Mnemonic string
	Format   string

	Regs    []uint16 // operand registers, in the format's defined order
	Literal int64    // sign-extended immediate (const/lit ops)
	Index   uint32   // pool index (format-dependent meaning, see Kind)
	Kind    Kind
	Index2  uint32 // second pool index, used only by invoke-polymorphic's proto operand
	Branch  int32  // branch target, in code units relative to Offset

	Payload *Payload // non-nil only for packed-switch/sparse-switch/fill-array-data
}

// Payload is a decoded packed-switch-payload, sparse-switch-payload, or
// fill-array-data-payload pseudo-instruction.
type Payload struct {
	Kind         string // "packed-switch", "sparse-switch", "fill-array-data"
	FirstKey     int32
	Keys         []int32 // sparse-switch only
	Targets      []int32 // switch targets, in code units relative to the referencing instruction
	ElementWidth uint16  // fill-array-data only
	Data         []byte  // fill-array-data only, ElementWidth-sized elements packed little-endian
}
