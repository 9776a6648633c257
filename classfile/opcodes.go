package classfile

import "fmt"

// JVM opcodes used by the generator and understood by the disassembler. The values are those of
// chapter 6 of the JVM specification.

const (
	NOP           byte = 0x00
	ACONST_NULL   byte = 0x01
	ICONST_M1     byte = 0x02
	ICONST_0      byte = 0x03
	ICONST_1      byte = 0x04
	ICONST_2      byte = 0x05
	ICONST_3      byte = 0x06
	ICONST_4      byte = 0x07
	ICONST_5      byte = 0x08
	LCONST_0      byte = 0x09
	LCONST_1      byte = 0x0a
	BIPUSH        byte = 0x10
	SIPUSH        byte = 0x11
	LDC           byte = 0x12
	LDC_W         byte = 0x13
	LDC2_W        byte = 0x14
	ILOAD         byte = 0x15
	LLOAD         byte = 0x16
	ALOAD         byte = 0x19
	ILOAD_0       byte = 0x1a
	ILOAD_1       byte = 0x1b
	ILOAD_2       byte = 0x1c
	ILOAD_3       byte = 0x1d
	ALOAD_0       byte = 0x2a
	ALOAD_1       byte = 0x2b
	ALOAD_2       byte = 0x2c
	ALOAD_3       byte = 0x2d
	ISTORE        byte = 0x36
	ASTORE        byte = 0x3a
	ISTORE_0      byte = 0x3b
	ISTORE_1      byte = 0x3c
	ISTORE_2      byte = 0x3d
	ISTORE_3      byte = 0x3e
	ASTORE_0      byte = 0x4b
	ASTORE_1      byte = 0x4c
	ASTORE_2      byte = 0x4d
	ASTORE_3      byte = 0x4e
	POP           byte = 0x57
	POP2          byte = 0x58
	DUP           byte = 0x59
	DUP_X1        byte = 0x5a
	DUP2          byte = 0x5c
	SWAP          byte = 0x5f
	IADD          byte = 0x60
	LADD          byte = 0x61
	ISUB          byte = 0x64
	IINC          byte = 0x84
	IFEQ          byte = 0x99
	IFNE          byte = 0x9a
	IF_ICMPEQ     byte = 0x9f
	IF_ICMPNE     byte = 0xa0
	GOTO          byte = 0xa7
	RETURN        byte = 0xb1
	GETSTATIC     byte = 0xb2
	PUTSTATIC     byte = 0xb3
	INVOKEVIRTUAL byte = 0xb6
	INVOKESPECIAL byte = 0xb7
	INVOKESTATIC  byte = 0xb8
	IFNULL        byte = 0xc6
	IFNONNULL     byte = 0xc7
)

type opcodeInfo struct {
	name         string
	operandBytes int
	branch       bool
}

var opcodeTable = map[byte]opcodeInfo{
	NOP:           {"nop", 0, false},
	ACONST_NULL:   {"aconst_null", 0, false},
	ICONST_M1:     {"iconst_m1", 0, false},
	ICONST_0:      {"iconst_0", 0, false},
	ICONST_1:      {"iconst_1", 0, false},
	ICONST_2:      {"iconst_2", 0, false},
	ICONST_3:      {"iconst_3", 0, false},
	ICONST_4:      {"iconst_4", 0, false},
	ICONST_5:      {"iconst_5", 0, false},
	LCONST_0:      {"lconst_0", 0, false},
	LCONST_1:      {"lconst_1", 0, false},
	BIPUSH:        {"bipush", 1, false},
	SIPUSH:        {"sipush", 2, false},
	LDC:           {"ldc", 1, false},
	LDC_W:         {"ldc_w", 2, false},
	LDC2_W:        {"ldc2_w", 2, false},
	ILOAD:         {"iload", 1, false},
	LLOAD:         {"lload", 1, false},
	ALOAD:         {"aload", 1, false},
	ILOAD_0:       {"iload_0", 0, false},
	ILOAD_1:       {"iload_1", 0, false},
	ILOAD_2:       {"iload_2", 0, false},
	ILOAD_3:       {"iload_3", 0, false},
	ALOAD_0:       {"aload_0", 0, false},
	ALOAD_1:       {"aload_1", 0, false},
	ALOAD_2:       {"aload_2", 0, false},
	ALOAD_3:       {"aload_3", 0, false},
	ISTORE:        {"istore", 1, false},
	ASTORE:        {"astore", 1, false},
	ISTORE_0:      {"istore_0", 0, false},
	ISTORE_1:      {"istore_1", 0, false},
	ISTORE_2:      {"istore_2", 0, false},
	ISTORE_3:      {"istore_3", 0, false},
	ASTORE_0:      {"astore_0", 0, false},
	ASTORE_1:      {"astore_1", 0, false},
	ASTORE_2:      {"astore_2", 0, false},
	ASTORE_3:      {"astore_3", 0, false},
	POP:           {"pop", 0, false},
	POP2:          {"pop2", 0, false},
	DUP:           {"dup", 0, false},
	DUP_X1:        {"dup_x1", 0, false},
	DUP2:          {"dup2", 0, false},
	SWAP:          {"swap", 0, false},
	IADD:          {"iadd", 0, false},
	LADD:          {"ladd", 0, false},
	ISUB:          {"isub", 0, false},
	IINC:          {"iinc", 2, false},
	IFEQ:          {"ifeq", 2, true},
	IFNE:          {"ifne", 2, true},
	IF_ICMPEQ:     {"if_icmpeq", 2, true},
	IF_ICMPNE:     {"if_icmpne", 2, true},
	GOTO:          {"goto", 2, true},
	RETURN:        {"return", 0, false},
	GETSTATIC:     {"getstatic", 2, false},
	PUTSTATIC:     {"putstatic", 2, false},
	INVOKEVIRTUAL: {"invokevirtual", 2, false},
	INVOKESPECIAL: {"invokespecial", 2, false},
	INVOKESTATIC:  {"invokestatic", 2, false},
	IFNULL:        {"ifnull", 2, true},
	IFNONNULL:     {"ifnonnull", 2, true},
}

// OpcodeName returns the mnemonic of op, or a hex form for opcodes outside the supported subset.
func OpcodeName(op byte) string {
	info, ok := opcodeTable[op]
	if !ok {
		return fmt.Sprintf("op_0x%02x", op)
	}
	return info.name
}

// IsBranch reports whether op transfers control to a 16-bit relative target.
func IsBranch(op byte) bool {
	return opcodeTable[op].branch
}

// EndsBlock reports whether execution never falls through op.
func EndsBlock(op byte) bool {
	return op == GOTO || op == RETURN
}
