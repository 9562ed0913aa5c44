package jvm

import "fmt"

// Opcode is a JVM instruction opcode. Values follow the class-file format;
// OpLabel is a pseudo-instruction marking a branch target.
type Opcode uint8

const (
	NOP         Opcode = 0x00
	ACONST_NULL Opcode = 0x01
	ICONST_M1   Opcode = 0x02
	ICONST_0    Opcode = 0x03
	ICONST_1    Opcode = 0x04
	ICONST_2    Opcode = 0x05
	ICONST_3    Opcode = 0x06
	ICONST_4    Opcode = 0x07
	ICONST_5    Opcode = 0x08
	LCONST_0    Opcode = 0x09
	LCONST_1    Opcode = 0x0a
	FCONST_0    Opcode = 0x0b
	FCONST_1    Opcode = 0x0c
	FCONST_2    Opcode = 0x0d
	DCONST_0    Opcode = 0x0e
	DCONST_1    Opcode = 0x0f
	BIPUSH      Opcode = 0x10
	SIPUSH      Opcode = 0x11
	LDC         Opcode = 0x12
	LDC2_W      Opcode = 0x14
	ILOAD       Opcode = 0x15
	LLOAD       Opcode = 0x16
	FLOAD       Opcode = 0x17
	DLOAD       Opcode = 0x18
	ALOAD       Opcode = 0x19
	ISTORE      Opcode = 0x36
	LSTORE      Opcode = 0x37
	FSTORE      Opcode = 0x38
	DSTORE      Opcode = 0x39
	ASTORE      Opcode = 0x3a
	IASTORE     Opcode = 0x4f
	LASTORE     Opcode = 0x50
	FASTORE     Opcode = 0x51
	DASTORE     Opcode = 0x52
	AASTORE     Opcode = 0x53
	BASTORE     Opcode = 0x54
	CASTORE     Opcode = 0x55
	SASTORE     Opcode = 0x56
	POP         Opcode = 0x57
	POP2        Opcode = 0x58
	DUP         Opcode = 0x59
	IADD        Opcode = 0x60
	LADD        Opcode = 0x61
	FADD        Opcode = 0x62
	DADD        Opcode = 0x63
	ISUB        Opcode = 0x64
	LSUB        Opcode = 0x65
	FSUB        Opcode = 0x66
	DSUB        Opcode = 0x67
	IMUL        Opcode = 0x68
	LMUL        Opcode = 0x69
	FMUL        Opcode = 0x6a
	DMUL        Opcode = 0x6b
	IAND        Opcode = 0x7e
	I2L         Opcode = 0x85
	I2F         Opcode = 0x86
	I2D         Opcode = 0x87
	L2I         Opcode = 0x88
	L2F         Opcode = 0x89
	L2D         Opcode = 0x8a
	F2I         Opcode = 0x8b
	F2L         Opcode = 0x8c
	F2D         Opcode = 0x8d
	D2I         Opcode = 0x8e
	D2L         Opcode = 0x8f
	D2F         Opcode = 0x90
	I2B         Opcode = 0x91
	I2C         Opcode = 0x92
	I2S         Opcode = 0x93
	LCMP        Opcode = 0x94
	FCMPL       Opcode = 0x95
	FCMPG       Opcode = 0x96
	DCMPL       Opcode = 0x97
	DCMPG       Opcode = 0x98
	IFEQ        Opcode = 0x99
	IFNE        Opcode = 0x9a
	IFLT        Opcode = 0x9b
	IFGE        Opcode = 0x9c
	IF_ICMPEQ   Opcode = 0x9f
	IF_ICMPNE   Opcode = 0xa0
	IF_ICMPLT   Opcode = 0xa1
	IF_ICMPGE   Opcode = 0xa2
	IF_ACMPEQ   Opcode = 0xa5
	IF_ACMPNE   Opcode = 0xa6
	GOTO        Opcode = 0xa7
	IRETURN     Opcode = 0xac
	LRETURN     Opcode = 0xad
	FRETURN     Opcode = 0xae
	DRETURN     Opcode = 0xaf
	ARETURN     Opcode = 0xb0
	RETURN      Opcode = 0xb1
	GETSTATIC   Opcode = 0xb2
	PUTSTATIC   Opcode = 0xb3
	GETFIELD    Opcode = 0xb4
	PUTFIELD    Opcode = 0xb5

	INVOKEVIRTUAL   Opcode = 0xb6
	INVOKESPECIAL   Opcode = 0xb7
	INVOKESTATIC    Opcode = 0xb8
	INVOKEINTERFACE Opcode = 0xb9
	NEW             Opcode = 0xbb
	NEWARRAY        Opcode = 0xbc
	ANEWARRAY       Opcode = 0xbd
	CHECKCAST       Opcode = 0xc0
	INSTANCEOF      Opcode = 0xc1
	IFNULL          Opcode = 0xc6
	IFNONNULL       Opcode = 0xc7

	OpLabel Opcode = 0xff
)

var opcodeNames = map[Opcode]string{
	NOP: "nop", ACONST_NULL: "aconst_null",
	ICONST_M1: "iconst_m1", ICONST_0: "iconst_0", ICONST_1: "iconst_1", ICONST_2: "iconst_2",
	ICONST_3: "iconst_3", ICONST_4: "iconst_4", ICONST_5: "iconst_5",
	LCONST_0: "lconst_0", LCONST_1: "lconst_1",
	FCONST_0: "fconst_0", FCONST_1: "fconst_1", FCONST_2: "fconst_2",
	DCONST_0: "dconst_0", DCONST_1: "dconst_1",
	BIPUSH: "bipush", SIPUSH: "sipush", LDC: "ldc", LDC2_W: "ldc2_w",
	ILOAD: "iload", LLOAD: "lload", FLOAD: "fload", DLOAD: "dload", ALOAD: "aload",
	ISTORE: "istore", LSTORE: "lstore", FSTORE: "fstore", DSTORE: "dstore", ASTORE: "astore",
	IASTORE: "iastore", LASTORE: "lastore", FASTORE: "fastore", DASTORE: "dastore",
	AASTORE: "aastore", BASTORE: "bastore", CASTORE: "castore", SASTORE: "sastore",
	POP: "pop", POP2: "pop2", DUP: "dup",
	IADD: "iadd", LADD: "ladd", FADD: "fadd", DADD: "dadd",
	ISUB: "isub", LSUB: "lsub", FSUB: "fsub", DSUB: "dsub",
	IMUL: "imul", LMUL: "lmul", FMUL: "fmul", DMUL: "dmul",
	IAND: "iand",
	I2L: "i2l", I2F: "i2f", I2D: "i2d", L2I: "l2i", L2F: "l2f", L2D: "l2d",
	F2I: "f2i", F2L: "f2l", F2D: "f2d", D2I: "d2i", D2L: "d2l", D2F: "d2f",
	I2B: "i2b", I2C: "i2c", I2S: "i2s",
	LCMP: "lcmp", FCMPL: "fcmpl", FCMPG: "fcmpg", DCMPL: "dcmpl", DCMPG: "dcmpg",
	IFEQ: "ifeq", IFNE: "ifne", IFLT: "iflt", IFGE: "ifge",
	IF_ICMPEQ: "if_icmpeq", IF_ICMPNE: "if_icmpne", IF_ICMPLT: "if_icmplt", IF_ICMPGE: "if_icmpge",
	IF_ACMPEQ: "if_acmpeq", IF_ACMPNE: "if_acmpne", GOTO: "goto",
	IRETURN: "ireturn", LRETURN: "lreturn", FRETURN: "freturn", DRETURN: "dreturn",
	ARETURN: "areturn", RETURN: "return",
	GETSTATIC: "getstatic", PUTSTATIC: "putstatic", GETFIELD: "getfield", PUTFIELD: "putfield",
	INVOKEVIRTUAL: "invokevirtual", INVOKESPECIAL: "invokespecial",
	INVOKESTATIC: "invokestatic", INVOKEINTERFACE: "invokeinterface",
	NEW: "new", NEWARRAY: "newarray", ANEWARRAY: "anewarray",
	CHECKCAST: "checkcast", INSTANCEOF: "instanceof",
	IFNULL: "ifnull", IFNONNULL: "ifnonnull",
	OpLabel: "label",
}

// String returns the mnemonic of the opcode.
func (op Opcode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return fmt.Sprintf("op_%#02x", uint8(op))
}

// IsBranch reports whether op takes a label operand.
func (op Opcode) IsBranch() bool {
	switch op {
	case IFEQ, IFNE, IFLT, IFGE, IF_ICMPEQ, IF_ICMPNE, IF_ICMPLT, IF_ICMPGE,
		IF_ACMPEQ, IF_ACMPNE, GOTO, IFNULL, IFNONNULL:
		return true
	}
	return false
}

// negate returns the conditional branch taken exactly when op is not.
func negate(op Opcode) Opcode {
	switch op {
	case IFEQ:
		return IFNE
	case IFNE:
		return IFEQ
	case IFLT:
		return IFGE
	case IFGE:
		return IFLT
	case IF_ICMPEQ:
		return IF_ICMPNE
	case IF_ICMPNE:
		return IF_ICMPEQ
	case IF_ICMPLT:
		return IF_ICMPGE
	case IF_ICMPGE:
		return IF_ICMPLT
	case IF_ACMPEQ:
		return IF_ACMPNE
	case IF_ACMPNE:
		return IF_ACMPEQ
	case IFNULL:
		return IFNONNULL
	case IFNONNULL:
		return IFNULL
	}
	return op
}

// Array type codes of NEWARRAY.
const (
	T_BOOLEAN = 4
	T_CHAR    = 5
	T_FLOAT   = 6
	T_DOUBLE  = 7
	T_BYTE    = 8
	T_SHORT   = 9
	T_INT     = 10
	T_LONG    = 11
)

var arrayTypeNames = map[int]string{
	T_BOOLEAN: "boolean", T_CHAR: "char", T_FLOAT: "float", T_DOUBLE: "double",
	T_BYTE: "byte", T_SHORT: "short", T_INT: "int", T_LONG: "long",
}
