// Package jvmbc decodes the JVM's stack-machine bytecode format (JVM
// spec §6) into a typed instruction stream, the JVM-path counterpart
// to internal/dalvik's register-machine decoder. spec.md §2 gives DEX
// and JVM their own container parser and instruction decoder but has
// them share the control-flow/expression lifter (internal/lift); this
// package supplies that decoder so internal/lift's jvmmethod.go has
// something to lift from.
//
// Grounded on internal/dalvik/decode.go's own shape: a flat opcode
// table keyed by the first byte, a decodeOne dispatch over each
// instruction's operand layout, and a Decode entry point that walks
// the whole buffer front to back.
package jvmbc

// Instruction is one decoded bytecode instruction. Not every field is
// populated for every mnemonic; which ones matter is determined by
// the opcode table entry (opcodes.go).
type Instruction struct {
	Offset   uint32
	Width    uint32
	Opcode   byte
	Mnemonic string

	Slot    uint16 // local variable slot: *load, *store (not their _0.._3 forms), iinc, ret
	Literal int64  // bipush/sipush's immediate, iinc's increment
	Index   uint16 // constant pool index: ldc*, get/putfield, invoke*, new, (a)checkcast, instanceof
	Branch  int32  // relative branch offset in bytes, from this instruction's own offset

	ArrayType byte // newarray's atype operand
	Dims      byte // multianewarray's dimension count

	InvokeInterfaceCount byte // invokeinterface's count operand (argument slot width, redundant with the descriptor but present on the wire)

	Switch *SwitchPayload // tableswitch/lookupswitch
}

// SwitchPayload is a decoded tableswitch or lookupswitch's jump table.
// Default/Targets are byte offsets relative to the switch instruction's
// own offset (JVM spec §6.5's tableswitch/lookupswitch), the same
// convention as Instruction.Branch; the caller adds the switch
// instruction's Offset to get an absolute address. Keys is parallel to
// Targets for lookupswitch only; tableswitch cases are indexed by
// case value - Low instead.
type SwitchPayload struct {
	Kind    string // "table" or "lookup"
	Default int32
	Low     int32
	High    int32
	Targets []int32
	Keys    []int32 // lookupswitch only, parallel to Targets
}
