package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xiaobogaga/hq9plus/classfile"
)

func TestNewCounter(t *testing.T) {
	testData := []struct {
		allowOverflow bool
		descriptor    string
		initial       interface{}
		maxStack      uint16
	}{
		{allowOverflow: true, descriptor: classfile.LongDescriptor, initial: int64(0), maxStack: 4},
		{allowOverflow: false, descriptor: classfile.BigIntegerDescriptor, initial: nil, maxStack: 2},
	}
	for _, data := range testData {
		counter := NewCounter(data.allowOverflow)
		assert.Equal(t, data.descriptor, counter.FieldDescriptor())
		assert.Equal(t, data.initial, counter.InitialValue())
		assert.Equal(t, data.maxStack, counter.MaxStack())
	}
}

func TestWrappingCounter_Bytecode(t *testing.T) {
	class := classfile.NewClass(classfile.AccPublic, "Acc", classfile.ObjectClass)
	method := class.AddMethod(classfile.AccStatic, "+", classfile.VoidMethodDescriptor, 4, 0)
	WrappingCounter{}.EmitIncrement(method.Code, "Acc", "counter")
	data, err := class.Bytes()
	assert.Nil(t, err)
	cf, err := classfile.Parse(data)
	assert.Nil(t, err)
	instructions, err := classfile.Disassemble(cf.Methods[0].Code.Bytecode)
	assert.Nil(t, err)
	var opcodes []byte
	for _, insn := range instructions {
		opcodes = append(opcodes, insn.Opcode)
	}
	assert.Equal(t, []byte{classfile.GETSTATIC, classfile.LCONST_1, classfile.LADD, classfile.PUTSTATIC, classfile.RETURN}, opcodes)
}
