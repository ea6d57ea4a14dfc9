package dalvik

// opInfo is one row of the fixed Dalvik opcode table (spec.md §4.4).
type opInfo struct {
	mnemonic string
	format   string
	kind     Kind
}

// opcodes maps an instruction's low opcode byte to its table entry.
// Opcode values with no entry are unused/reserved in the Dalvik
// instruction set and decode as an unknown-opcode error.
var opcodes = map[byte]opInfo{
	0x00: {"nop", "10x", KindNone},
	0x01: {"move", "12x", KindNone},
	0x02: {"move/from16", "22x", KindNone},
	0x03: {"move/16", "32x", KindNone},
	0x04: {"move-wide", "12x", KindNone},
	0x05: {"move-wide/from16", "22x", KindNone},
	0x06: {"move-wide/16", "32x", KindNone},
	0x07: {"move-object", "12x", KindNone},
	0x08: {"move-object/from16", "22x", KindNone},
	0x09: {"move-object/16", "32x", KindNone},
	0x0a: {"move-result", "11x", KindNone},
	0x0b: {"move-result-wide", "11x", KindNone},
	0x0c: {"move-result-object", "11x", KindNone},
	0x0d: {"move-exception", "11x", KindNone},
	0x0e: {"return-void", "10x", KindNone},
	0x0f: {"return", "11x", KindNone},
	0x10: {"return-wide", "11x", KindNone},
	0x11: {"return-object", "11x", KindNone},
	0x12: {"const/4", "11n", KindNone},
	0x13: {"const/16", "21s", KindNone},
	0x14: {"const", "31i", KindNone},
	0x15: {"const/high16", "21h", KindNone},
	0x16: {"const-wide/16", "21s", KindNone},
	0x17: {"const-wide/32", "31i", KindNone},
	0x18: {"const-wide", "51l", KindNone},
	0x19: {"const-wide/high16", "21h", KindNone},
	0x1a: {"const-string", "21c", KindString},
	0x1b: {"const-string/jumbo", "31c", KindString},
	0x1c: {"const-class", "21c", KindType},
	0x1d: {"monitor-enter", "11x", KindNone},
	0x1e: {"monitor-exit", "11x", KindNone},
	0x1f: {"check-cast", "21c", KindType},
	0x20: {"instance-of", "22c", KindType},
	0x21: {"array-length", "12x", KindNone},
	0x22: {"new-instance", "21c", KindType},
	0x23: {"new-array", "22c", KindType},
	0x24: {"filled-new-array", "35c", KindType},
	0x25: {"filled-new-array/range", "3rc", KindType},
	0x26: {"fill-array-data", "31t", KindNone},
	0x27: {"throw", "11x", KindNone},
	0x28: {"goto", "10t", KindNone},
	0x29: {"goto/16", "20t", KindNone},
	0x2a: {"goto/32", "30t", KindNone},
	0x2b: {"packed-switch", "31t", KindNone},
	0x2c: {"sparse-switch", "31t", KindNone},
	0x2d: {"cmpl-float", "23x", KindNone},
	0x2e: {"cmpg-float", "23x", KindNone},
	0x2f: {"cmpl-double", "23x", KindNone},
	0x30: {"cmpg-double", "23x", KindNone},
	0x31: {"cmp-long", "23x", KindNone},
	0x32: {"if-eq", "22t", KindNone},
	0x33: {"if-ne", "22t", KindNone},
	0x34: {"if-lt", "22t", KindNone},
	0x35: {"if-ge", "22t", KindNone},
	0x36: {"if-gt", "22t", KindNone},
	0x37: {"if-le", "22t", KindNone},
	0x38: {"if-eqz", "21t", KindNone},
	0x39: {"if-nez", "21t", KindNone},
	0x3a: {"if-ltz", "21t", KindNone},
	0x3b: {"if-gez", "21t", KindNone},
	0x3c: {"if-gtz", "21t", KindNone},
	0x3d: {"if-lez", "21t", KindNone},
	// 0x3e-0x43 unused
	0x44: {"aget", "23x", KindNone},
	0x45: {"aget-wide", "23x", KindNone},
	0x46: {"aget-object", "23x", KindNone},
	0x47: {"aget-boolean", "23x", KindNone},
	0x48: {"aget-byte", "23x", KindNone},
	0x49: {"aget-char", "23x", KindNone},
	0x4a: {"aget-short", "23x", KindNone},
	0x4b: {"aput", "23x", KindNone},
	0x4c: {"aput-wide", "23x", KindNone},
	0x4d: {"aput-object", "23x", KindNone},
	0x4e: {"aput-boolean", "23x", KindNone},
	0x4f: {"aput-byte", "23x", KindNone},
	0x50: {"aput-char", "23x", KindNone},
	0x51: {"aput-short", "23x", KindNone},
	0x52: {"iget", "22c", KindField},
	0x53: {"iget-wide", "22c", KindField},
	0x54: {"iget-object", "22c", KindField},
	0x55: {"iget-boolean", "22c", KindField},
	0x56: {"iget-byte", "22c", KindField},
	0x57: {"iget-char", "22c", KindField},
	0x58: {"iget-short", "22c", KindField},
	0x59: {"iput", "22c", KindField},
	0x5a: {"iput-wide", "22c", KindField},
	0x5b: {"iput-object", "22c", KindField},
	0x5c: {"iput-boolean", "22c", KindField},
	0x5d: {"iput-byte", "22c", KindField},
	0x5e: {"iput-char", "22c", KindField},
	0x5f: {"iput-short", "22c", KindField},
	0x60: {"sget", "21c", KindField},
	0x61: {"sget-wide", "21c", KindField},
	0x62: {"sget-object", "21c", KindField},
	0x63: {"sget-boolean", "21c", KindField},
	0x64: {"sget-byte", "21c", KindField},
	0x65: {"sget-char", "21c", KindField},
	0x66: {"sget-short", "21c", KindField},
	0x67: {"sput", "21c", KindField},
	0x68: {"sput-wide", "21c", KindField},
	0x69: {"sput-object", "21c", KindField},
	0x6a: {"sput-boolean", "21c", KindField},
	0x6b: {"sput-byte", "21c", KindField},
	0x6c: {"sput-char", "21c", KindField},
	0x6d: {"sput-short", "21c", KindField},
	0x6e: {"invoke-virtual", "35c", KindMethod},
	0x6f: {"invoke-super", "35c", KindMethod},
	0x70: {"invoke-direct", "35c", KindMethod},
	0x71: {"invoke-static", "35c", KindMethod},
	0x72: {"invoke-interface", "35c", KindMethod},
	// 0x73 unused
	0x74: {"invoke-virtual/range", "3rc", KindMethod},
	0x75: {"invoke-super/range", "3rc", KindMethod},
	0x76: {"invoke-direct/range", "3rc", KindMethod},
	0x77: {"invoke-static/range", "3rc", KindMethod},
	0x78: {"invoke-interface/range", "3rc", KindMethod},
	// 0x79-0x7a unused
	0x7b: {"neg-int", "12x", KindNone},
	0x7c: {"not-int", "12x", KindNone},
	0x7d: {"neg-long", "12x", KindNone},
	0x7e: {"not-long", "12x", KindNone},
	0x7f: {"neg-float", "12x", KindNone},
	0x80: {"neg-double", "12x", KindNone},
	0x81: {"int-to-long", "12x", KindNone},
	0x82: {"int-to-float", "12x", KindNone},
	0x83: {"int-to-double", "12x", KindNone},
	0x84: {"long-to-int", "12x", KindNone},
	0x85: {"long-to-float", "12x", KindNone},
	0x86: {"long-to-double", "12x", KindNone},
	0x87: {"float-to-int", "12x", KindNone},
	0x88: {"float-to-long", "12x", KindNone},
	0x89: {"float-to-double", "12x", KindNone},
	0x8a: {"double-to-int", "12x", KindNone},
	0x8b: {"double-to-long", "12x", KindNone},
	0x8c: {"double-to-float", "12x", KindNone},
	0x8d: {"int-to-byte", "12x", KindNone},
	0x8e: {"int-to-char", "12x", KindNone},
	0x8f: {"int-to-short", "12x", KindNone},
	0x90: {"add-int", "23x", KindNone},
	0x91: {"sub-int", "23x", KindNone},
	0x92: {"mul-int", "23x", KindNone},
	0x93: {"div-int", "23x", KindNone},
	0x94: {"rem-int", "23x", KindNone},
	0x95: {"and-int", "23x", KindNone},
	0x96: {"or-int", "23x", KindNone},
	0x97: {"xor-int", "23x", KindNone},
	0x98: {"shl-int", "23x", KindNone},
	0x99: {"shr-int", "23x", KindNone},
	0x9a: {"ushr-int", "23x", KindNone},
	0x9b: {"add-long", "23x", KindNone},
	0x9c: {"sub-long", "23x", KindNone},
	0x9d: {"mul-long", "23x", KindNone},
	0x9e: {"div-long", "23x", KindNone},
	0x9f: {"rem-long", "23x", KindNone},
	0xa0: {"and-long", "23x", KindNone},
	0xa1: {"or-long", "23x", KindNone},
	0xa2: {"xor-long", "23x", KindNone},
	0xa3: {"shl-long", "23x", KindNone},
	0xa4: {"shr-long", "23x", KindNone},
	0xa5: {"ushr-long", "23x", KindNone},
	0xa6: {"add-float", "23x", KindNone},
	0xa7: {"sub-float", "23x", KindNone},
	0xa8: {"mul-float", "23x", KindNone},
	0xa9: {"div-float", "23x", KindNone},
	0xaa: {"rem-float", "23x", KindNone},
	0xab: {"add-double", "23x", KindNone},
	0xac: {"sub-double", "23x", KindNone},
	0xad: {"mul-double", "23x", KindNone},
	0xae: {"div-double", "23x", KindNone},
	0xaf: {"rem-double", "23x", KindNone},
	0xb0: {"add-int/2addr", "12x", KindNone},
	0xb1: {"sub-int/2addr", "12x", KindNone},
	0xb2: {"mul-int/2addr", "12x", KindNone},
	0xb3: {"div-int/2addr", "12x", KindNone},
	0xb4: {"rem-int/2addr", "12x", KindNone},
	0xb5: {"and-int/2addr", "12x", KindNone},
	0xb6: {"or-int/2addr", "12x", KindNone},
	0xb7: {"xor-int/2addr", "12x", KindNone},
	0xb8: {"shl-int/2addr", "12x", KindNone},
	0xb9: {"shr-int/2addr", "12x", KindNone},
	0xba: {"ushr-int/2addr", "12x", KindNone},
	0xbb: {"add-long/2addr", "12x", KindNone},
	0xbc: {"sub-long/2addr", "12x", KindNone},
	0xbd: {"mul-long/2addr", "12x", KindNone},
	0xbe: {"div-long/2addr", "12x", KindNone},
	0xbf: {"rem-long/2addr", "12x", KindNone},
	0xc0: {"and-long/2addr", "12x", KindNone},
	0xc1: {"or-long/2addr", "12x", KindNone},
	0xc2: {"xor-long/2addr", "12x", KindNone},
	0xc3: {"shl-long/2addr", "12x", KindNone},
	0xc4: {"shr-long/2addr", "12x", KindNone},
	0xc5: {"ushr-long/2addr", "12x", KindNone},
	0xc6: {"add-float/2addr", "12x", KindNone},
	0xc7: {"sub-float/2addr", "12x", KindNone},
	0xc8: {"mul-float/2addr", "12x", KindNone},
	0xc9: {"div-float/2addr", "12x", KindNone},
	0xca: {"rem-float/2addr", "12x", KindNone},
	0xcb: {"add-double/2addr", "12x", KindNone},
	0xcc: {"sub-double/2addr", "12x", KindNone},
	0xcd: {"mul-double/2addr", "12x", KindNone},
	0xce: {"div-double/2addr", "12x", KindNone},
	0xcf: {"rem-double/2addr", "12x", KindNone},
	0xd0: {"add-int/lit16", "22s", KindNone},
	0xd1: {"rsub-int", "22s", KindNone},
	0xd2: {"mul-int/lit16", "22s", KindNone},
	0xd3: {"div-int/lit16", "22s", KindNone},
	0xd4: {"rem-int/lit16", "22s", KindNone},
	0xd5: {"and-int/lit16", "22s", KindNone},
	0xd6: {"or-int/lit16", "22s", KindNone},
	0xd7: {"xor-int/lit16", "22s", KindNone},
	0xd8: {"add-int/lit8", "22b", KindNone},
	0xd9: {"rsub-int/lit8", "22b", KindNone},
	0xda: {"mul-int/lit8", "22b", KindNone},
	0xdb: {"div-int/lit8", "22b", KindNone},
	0xdc: {"rem-int/lit8", "22b", KindNone},
	0xdd: {"and-int/lit8", "22b", KindNone},
	0xde: {"or-int/lit8", "22b", KindNone},
	0xdf: {"xor-int/lit8", "22b", KindNone},
	0xe0: {"shl-int/lit8", "22b", KindNone},
	0xe1: {"shr-int/lit8", "22b", KindNone},
	0xe2: {"ushr-int/lit8", "22b", KindNone},
	// 0xe3-0xf9 unused in this table; reserved by the format for
	// vendor/odex-specific opcodes this decoder does not support.
	0xfa: {"invoke-polymorphic", "45cc", KindMethod},
	0xfb: {"invoke-polymorphic/range", "4rcc", KindMethod},
	0xfc: {"invoke-custom", "35c", KindMethod},
	0xfd: {"invoke-custom/range", "3rc", KindMethod},
	0xfe: {"const-method-handle", "21c", KindNone},
	0xff: {"const-method-type", "21c", KindType},
}

// formatWidth gives the fixed length, in 16-bit code units, of every
// non-payload instruction format.
var formatWidth = map[string]uint16{
	"10x": 1, "12x": 1, "11n": 1, "11x": 1, "10t": 1,
	"20t": 2, "20bc": 2, "22x": 2, "21t": 2, "21s": 2, "21h": 2, "21c": 2,
	"23x": 2, "22b": 2, "22t": 2, "22s": 2, "22c": 2,
	"30t": 3, "32x": 3, "31i": 3, "31t": 3, "31c": 3, "35c": 3, "3rc": 3,
	"45cc": 4, "4rcc": 4,
	"51l": 5,
}
