package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Instruction is one decoded bytecode instruction.
type Instruction struct {
	Offset   int
	Opcode   byte
	Operands []byte
}

func (insn Instruction) U1() byte {
	return insn.Operands[0]
}

func (insn Instruction) U2() uint16 {
	return binary.BigEndian.Uint16(insn.Operands)
}

// Target is the absolute offset a branch instruction jumps to.
func (insn Instruction) Target() int {
	return insn.Offset + int(int16(insn.U2()))
}

func (insn Instruction) Length() int {
	return 1 + len(insn.Operands)
}

func (insn Instruction) String() string {
	name := OpcodeName(insn.Opcode)
	switch {
	case IsBranch(insn.Opcode):
		return fmt.Sprintf("%4d: %s %d", insn.Offset, name, insn.Target())
	case insn.Opcode == BIPUSH:
		return fmt.Sprintf("%4d: %s %d", insn.Offset, name, int8(insn.U1()))
	case insn.Opcode == SIPUSH:
		return fmt.Sprintf("%4d: %s %d", insn.Offset, name, int16(insn.U2()))
	case insn.Opcode == IINC:
		return fmt.Sprintf("%4d: %s %d %d", insn.Offset, name, insn.Operands[0], int8(insn.Operands[1]))
	case len(insn.Operands) == 1:
		return fmt.Sprintf("%4d: %s %d", insn.Offset, name, insn.U1())
	case len(insn.Operands) == 2:
		return fmt.Sprintf("%4d: %s #%d", insn.Offset, name, insn.U2())
	}
	return fmt.Sprintf("%4d: %s", insn.Offset, name)
}

// Disassemble splits bytecode into instructions. Only the opcodes listed in this package are
// recognized.
func Disassemble(bytecode []byte) ([]Instruction, error) {
	var instructions []Instruction
	for pc := 0; pc < len(bytecode); {
		op := bytecode[pc]
		info, exist := opcodeTable[op]
		if !exist {
			return nil, MalformedError.New("unsupported opcode 0x%02x at %d", op, pc)
		}
		end := pc + 1 + info.operandBytes
		if end > len(bytecode) {
			return nil, MalformedError.New("truncated %s at %d", info.name, pc)
		}
		instructions = append(instructions, Instruction{Offset: pc, Opcode: op, Operands: bytecode[pc+1 : end]})
		pc = end
	}
	return instructions, nil
}

// Listing renders a method in a javap like format, resolving member references through cf.
func (cf *ClassFile) Listing(method *MethodInfo) (string, error) {
	bf := bytes.Buffer{}
	bf.WriteString(fmt.Sprintf("%s%s\n", method.Name, method.Descriptor))
	if method.Code == nil {
		return bf.String(), nil
	}
	bf.WriteString(fmt.Sprintf("  stack=%d, locals=%d\n", method.Code.MaxStack, method.Code.MaxLocals))
	instructions, err := Disassemble(method.Code.Bytecode)
	if err != nil {
		return "", err
	}
	for _, insn := range instructions {
		bf.WriteString("  " + insn.String())
		switch insn.Opcode {
		case GETSTATIC, PUTSTATIC, INVOKEVIRTUAL, INVOKESPECIAL, INVOKESTATIC:
			owner, name, descriptor, err := cf.MemberRef(insn.U2())
			if err != nil {
				return "", err
			}
			bf.WriteString(fmt.Sprintf(" // %s.%s:%s", owner, name, descriptor))
		}
		bf.WriteString("\n")
	}
	for _, frame := range method.Code.Frames {
		bf.WriteString(fmt.Sprintf("  frame %d: type=%d locals=%d stack=%d\n", frame.Offset, frame.Type, len(frame.Locals), len(frame.Stack)))
	}
	return bf.String(), nil
}
