package jvmbc

// format names the operand layout decodeFixed switches on. Most JVM
// instructions have a fixed width; tableswitch/lookupswitch/wide have
// a variable one computed in decode.go.
type format int

const (
	fmtNone   format = iota // no operands
	fmtU8            // one unsigned byte (ldc's index, newarray's atype)
	fmtS8            // one signed byte (bipush)
	fmtU16           // one unsigned short (ldc_w/ldc2_w/new/checkcast/instanceof/get*/put*/invoke{virtual,special,static})
	fmtS16           // one signed short (branch offset for if*/goto/jsr; sipush's immediate)
	fmtS32           // one signed int (branch offset for goto_w/jsr_w)
	fmtLocalU8       // local slot as unsigned byte (*load, *store)
	fmtIinc          // local slot (u8) + signed byte increment
	fmtInvokeInterface
	fmtInvokeDynamic
	fmtMultiANewArray
	fmtTableSwitch
	fmtLookupSwitch
	fmtWide // 0xc4 prefix, width resolved against the following opcode
)

type opInfo struct {
	mnemonic string
	fmt      format
}

// opcodes maps a JVM opcode byte to its mnemonic and operand layout,
// JVM spec §6.5.
var opcodes = map[byte]opInfo{
	0x00: {"nop", fmtNone},
	0x01: {"aconst_null", fmtNone},
	0x02: {"iconst_m1", fmtNone},
	0x03: {"iconst_0", fmtNone},
	0x04: {"iconst_1", fmtNone},
	0x05: {"iconst_2", fmtNone},
	0x06: {"iconst_3", fmtNone},
	0x07: {"iconst_4", fmtNone},
	0x08: {"iconst_5", fmtNone},
	0x09: {"lconst_0", fmtNone},
	0x0a: {"lconst_1", fmtNone},
	0x0b: {"fconst_0", fmtNone},
	0x0c: {"fconst_1", fmtNone},
	0x0d: {"fconst_2", fmtNone},
	0x0e: {"dconst_0", fmtNone},
	0x0f: {"dconst_1", fmtNone},
	0x10: {"bipush", fmtS8},
	0x11: {"sipush", fmtS16},
	0x12: {"ldc", fmtU8},
	0x13: {"ldc_w", fmtU16},
	0x14: {"ldc2_w", fmtU16},
	0x15: {"iload", fmtLocalU8},
	0x16: {"lload", fmtLocalU8},
	0x17: {"fload", fmtLocalU8},
	0x18: {"dload", fmtLocalU8},
	0x19: {"aload", fmtLocalU8},
	0x1a: {"iload_0", fmtNone},
	0x1b: {"iload_1", fmtNone},
	0x1c: {"iload_2", fmtNone},
	0x1d: {"iload_3", fmtNone},
	0x1e: {"lload_0", fmtNone},
	0x1f: {"lload_1", fmtNone},
	0x20: {"lload_2", fmtNone},
	0x21: {"lload_3", fmtNone},
	0x22: {"fload_0", fmtNone},
	0x23: {"fload_1", fmtNone},
	0x24: {"fload_2", fmtNone},
	0x25: {"fload_3", fmtNone},
	0x26: {"dload_0", fmtNone},
	0x27: {"dload_1", fmtNone},
	0x28: {"dload_2", fmtNone},
	0x29: {"dload_3", fmtNone},
	0x2a: {"aload_0", fmtNone},
	0x2b: {"aload_1", fmtNone},
	0x2c: {"aload_2", fmtNone},
	0x2d: {"aload_3", fmtNone},
	0x2e: {"iaload", fmtNone},
	0x2f: {"laload", fmtNone},
	0x30: {"faload", fmtNone},
	0x31: {"daload", fmtNone},
	0x32: {"aaload", fmtNone},
	0x33: {"baload", fmtNone},
	0x34: {"caload", fmtNone},
	0x35: {"saload", fmtNone},
	0x36: {"istore", fmtLocalU8},
	0x37: {"lstore", fmtLocalU8},
	0x38: {"fstore", fmtLocalU8},
	0x39: {"dstore", fmtLocalU8},
	0x3a: {"astore", fmtLocalU8},
	0x3b: {"istore_0", fmtNone},
	0x3c: {"istore_1", fmtNone},
	0x3d: {"istore_2", fmtNone},
	0x3e: {"istore_3", fmtNone},
	0x3f: {"lstore_0", fmtNone},
	0x40: {"lstore_1", fmtNone},
	0x41: {"lstore_2", fmtNone},
	0x42: {"lstore_3", fmtNone},
	0x43: {"fstore_0", fmtNone},
	0x44: {"fstore_1", fmtNone},
	0x45: {"fstore_2", fmtNone},
	0x46: {"fstore_3", fmtNone},
	0x47: {"dstore_0", fmtNone},
	0x48: {"dstore_1", fmtNone},
	0x49: {"dstore_2", fmtNone},
	0x4a: {"dstore_3", fmtNone},
	0x4b: {"astore_0", fmtNone},
	0x4c: {"astore_1", fmtNone},
	0x4d: {"astore_2", fmtNone},
	0x4e: {"astore_3", fmtNone},
	0x4f: {"iastore", fmtNone},
	0x50: {"lastore", fmtNone},
	0x51: {"fastore", fmtNone},
	0x52: {"dastore", fmtNone},
	0x53: {"aastore", fmtNone},
	0x54: {"bastore", fmtNone},
	0x55: {"castore", fmtNone},
	0x56: {"sastore", fmtNone},
	0x57: {"pop", fmtNone},
	0x58: {"pop2", fmtNone},
	0x59: {"dup", fmtNone},
	0x5a: {"dup_x1", fmtNone},
	0x5b: {"dup_x2", fmtNone},
	0x5c: {"dup2", fmtNone},
	0x5d: {"dup2_x1", fmtNone},
	0x5e: {"dup2_x2", fmtNone},
	0x5f: {"swap", fmtNone},
	0x60: {"iadd", fmtNone},
	0x61: {"ladd", fmtNone},
	0x62: {"fadd", fmtNone},
	0x63: {"dadd", fmtNone},
	0x64: {"isub", fmtNone},
	0x65: {"lsub", fmtNone},
	0x66: {"fsub", fmtNone},
	0x67: {"dsub", fmtNone},
	0x68: {"imul", fmtNone},
	0x69: {"lmul", fmtNone},
	0x6a: {"fmul", fmtNone},
	0x6b: {"dmul", fmtNone},
	0x6c: {"idiv", fmtNone},
	0x6d: {"ldiv", fmtNone},
	0x6e: {"fdiv", fmtNone},
	0x6f: {"ddiv", fmtNone},
	0x70: {"irem", fmtNone},
	0x71: {"lrem", fmtNone},
	0x72: {"frem", fmtNone},
	0x73: {"drem", fmtNone},
	0x74: {"ineg", fmtNone},
	0x75: {"lneg", fmtNone},
	0x76: {"fneg", fmtNone},
	0x77: {"dneg", fmtNone},
	0x78: {"ishl", fmtNone},
	0x79: {"lshl", fmtNone},
	0x7a: {"ishr", fmtNone},
	0x7b: {"lshr", fmtNone},
	0x7c: {"iushr", fmtNone},
	0x7d: {"lushr", fmtNone},
	0x7e: {"iand", fmtNone},
	0x7f: {"land", fmtNone},
	0x80: {"ior", fmtNone},
	0x81: {"lor", fmtNone},
	0x82: {"ixor", fmtNone},
	0x83: {"lxor", fmtNone},
	0x84: {"iinc", fmtIinc},
	0x85: {"i2l", fmtNone},
	0x86: {"i2f", fmtNone},
	0x87: {"i2d", fmtNone},
	0x88: {"l2i", fmtNone},
	0x89: {"l2f", fmtNone},
	0x8a: {"l2d", fmtNone},
	0x8b: {"f2i", fmtNone},
	0x8c: {"f2l", fmtNone},
	0x8d: {"f2d", fmtNone},
	0x8e: {"d2i", fmtNone},
	0x8f: {"d2l", fmtNone},
	0x90: {"d2f", fmtNone},
	0x91: {"i2b", fmtNone},
	0x92: {"i2c", fmtNone},
	0x93: {"i2s", fmtNone},
	0x94: {"lcmp", fmtNone},
	0x95: {"fcmpl", fmtNone},
	0x96: {"fcmpg", fmtNone},
	0x97: {"dcmpl", fmtNone},
	0x98: {"dcmpg", fmtNone},
	0x99: {"ifeq", fmtS16},
	0x9a: {"ifne", fmtS16},
	0x9b: {"iflt", fmtS16},
	0x9c: {"ifge", fmtS16},
	0x9d: {"ifgt", fmtS16},
	0x9e: {"ifle", fmtS16},
	0x9f: {"if_icmpeq", fmtS16},
	0xa0: {"if_icmpne", fmtS16},
	0xa1: {"if_icmplt", fmtS16},
	0xa2: {"if_icmpge", fmtS16},
	0xa3: {"if_icmpgt", fmtS16},
	0xa4: {"if_icmple", fmtS16},
	0xa5: {"if_acmpeq", fmtS16},
	0xa6: {"if_acmpne", fmtS16},
	0xa7: {"goto", fmtS16},
	0xa8: {"jsr", fmtS16},
	0xa9: {"ret", fmtLocalU8},
	0xaa: {"tableswitch", fmtTableSwitch},
	0xab: {"lookupswitch", fmtLookupSwitch},
	0xac: {"ireturn", fmtNone},
	0xad: {"lreturn", fmtNone},
	0xae: {"freturn", fmtNone},
	0xaf: {"dreturn", fmtNone},
	0xb0: {"areturn", fmtNone},
	0xb1: {"return", fmtNone},
	0xb2: {"getstatic", fmtU16},
	0xb3: {"putstatic", fmtU16},
	0xb4: {"getfield", fmtU16},
	0xb5: {"putfield", fmtU16},
	0xb6: {"invokevirtual", fmtU16},
	0xb7: {"invokespecial", fmtU16},
	0xb8: {"invokestatic", fmtU16},
	0xb9: {"invokeinterface", fmtInvokeInterface},
	0xba: {"invokedynamic", fmtInvokeDynamic},
	0xbb: {"new", fmtU16},
	0xbc: {"newarray", fmtU8},
	0xbd: {"anewarray", fmtU16},
	0xbe: {"arraylength", fmtNone},
	0xbf: {"athrow", fmtNone},
	0xc0: {"checkcast", fmtU16},
	0xc1: {"instanceof", fmtU16},
	0xc2: {"monitorenter", fmtNone},
	0xc3: {"monitorexit", fmtNone},
	0xc4: {"wide", fmtWide},
	0xc5: {"multianewarray", fmtMultiANewArray},
	0xc6: {"ifnull", fmtS16},
	0xc7: {"ifnonnull", fmtS16},
	0xc8: {"goto_w", fmtS32},
	0xc9: {"jsr_w", fmtS32},
}

// fixedWidth returns the instruction width in bytes (including the
// opcode byte itself) for every format except the variable-width ones
// (tableswitch/lookupswitch/wide), which decode.go sizes explicitly.
func fixedWidth(f format) uint32 {
	switch f {
	case fmtNone:
		return 1
	case fmtU8, fmtS8, fmtLocalU8:
		return 2
	case fmtU16, fmtS16:
		return 3
	case fmtIinc:
		return 3
	case fmtS32:
		return 5
	case fmtInvokeInterface:
		return 5
	case fmtInvokeDynamic:
		return 5
	case fmtMultiANewArray:
		return 4
	}
	return 0
}
