package interpreter

import (
	"github.com/xiaobogaga/hq9plus/classfile"
)

// checkFrames applies the structural part of type checking verification: every branch target and
// every instruction following an unconditional transfer must carry a stack map frame, and frames
// may only sit on instruction boundaries.
func checkFrames(method *classfile.MethodInfo) error {
	instructions, err := classfile.Disassemble(method.Code.Bytecode)
	if err != nil {
		return VerifyError.Wrap(err, "method %s", method.Name)
	}
	starts := map[int]bool{}
	for _, insn := range instructions {
		starts[insn.Offset] = true
	}
	framed := map[int]bool{}
	for _, frame := range method.Code.Frames {
		if !starts[frame.Offset] {
			return VerifyError.New("method %s: frame at %d is not on an instruction boundary", method.Name, frame.Offset)
		}
		framed[frame.Offset] = true
	}
	for i, insn := range instructions {
		if classfile.IsBranch(insn.Opcode) {
			target := insn.Target()
			if !starts[target] {
				return VerifyError.New("method %s: branch at %d to %d leaves the code", method.Name, insn.Offset, target)
			}
			if !framed[target] {
				return VerifyError.New("method %s: branch target %d has no stack map frame", method.Name, target)
			}
		}
		if classfile.EndsBlock(insn.Opcode) && i+1 < len(instructions) && !framed[instructions[i+1].Offset] {
			return VerifyError.New("method %s: instruction at %d follows %s without a stack map frame",
				method.Name, instructions[i+1].Offset, classfile.OpcodeName(insn.Opcode))
		}
	}
	last := instructions[len(instructions)-1]
	if !classfile.EndsBlock(last.Opcode) {
		return VerifyError.New("method %s: execution can fall off the end of the code", method.Name)
	}
	return nil
}

func matchesType(item classfile.VerificationType, value interface{}) bool {
	switch item.Tag {
	case classfile.ItemTop:
		return true
	case classfile.ItemInteger:
		_, ok := value.(int32)
		return ok
	case classfile.ItemLong:
		_, ok := value.(int64)
		return ok
	case classfile.ItemNull:
		return value == nil
	case classfile.ItemObject:
		if value == nil {
			return true
		}
		if size(value) == 2 {
			return false
		}
		if _, isInt := value.(int32); isInt {
			return false
		}
		return item.Class == classfile.ObjectClass || className(value) == item.Class
	}
	return false
}

// matchFrame checks the live state against the frame recorded for the current instruction.
func matchFrame(method string, frame classfile.FrameInfo, locals []interface{}, stack *operandStack) error {
	if len(frame.Stack) != len(stack.values) {
		return VerifyError.New("method %s: frame at %d declares %d stack entries, found %d",
			method, frame.Offset, len(frame.Stack), len(stack.values))
	}
	for i, item := range frame.Stack {
		if !matchesType(item, stack.values[i]) {
			return VerifyError.New("method %s: frame at %d: stack entry %d is %T", method, frame.Offset, i, stack.values[i])
		}
	}
	slot := 0
	for _, item := range frame.Locals {
		if slot >= len(locals) {
			return VerifyError.New("method %s: frame at %d declares more locals than max_locals", method, frame.Offset)
		}
		if !matchesType(item, locals[slot]) {
			return VerifyError.New("method %s: frame at %d: local %d is %T", method, frame.Offset, slot, locals[slot])
		}
		slot++
		if item.Tag == classfile.ItemLong || item.Tag == classfile.ItemDouble {
			slot++
		}
	}
	return nil
}
