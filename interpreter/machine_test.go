package interpreter

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/xiaobogaga/hq9plus/classfile"
)

const testClass = "Test"

func newTestClass() *classfile.Class {
	return classfile.NewClass(classfile.AccPublic|classfile.AccSuper, testClass, classfile.ObjectClass)
}

func load(t *testing.T, class *classfile.Class) (*Machine, *bytes.Buffer) {
	data, err := class.Bytes()
	assert.Nil(t, err)
	out := &bytes.Buffer{}
	machine, err := Load(data, out)
	assert.Nil(t, err)
	return machine, out
}

func TestMachine_PrintAndCall(t *testing.T) {
	class := newTestClass()
	main := class.AddMethod(classfile.AccPublic|classfile.AccStatic, classfile.MainMethodName, classfile.VoidStringArrayMethodDescriptor, 0, 1)
	main.Code.InvokeStatic(testClass, "hello", classfile.VoidMethodDescriptor).
		InvokeStatic(testClass, "hello", classfile.VoidMethodDescriptor).
		Op(classfile.RETURN)
	hello := class.AddMethod(classfile.AccStatic, "hello", classfile.VoidMethodDescriptor, 3, 0)
	hello.Code.GetStatic(classfile.SystemClass, classfile.OutFieldName, classfile.PrintStreamDescriptor).
		Op(classfile.DUP).
		PushInt(-7).
		InvokeVirtual(classfile.PrintStreamClass, classfile.PrintName, classfile.VoidIntMethodDescriptor).
		Op(classfile.DUP).
		PushString(" hi").
		InvokeVirtual(classfile.PrintStreamClass, classfile.PrintlnName, classfile.VoidStringMethodDescriptor).
		InvokeVirtual(classfile.PrintStreamClass, classfile.PrintlnName, classfile.VoidMethodDescriptor).
		Op(classfile.RETURN)

	machine, out := load(t, class)
	assert.Nil(t, machine.Run())
	assert.Equal(t, "-7 hi\n\n-7 hi\n\n", out.String())
}

func TestMachine_Loop(t *testing.T) {
	class := newTestClass()
	method := class.AddMethod(classfile.AccStatic, "loop", classfile.VoidMethodDescriptor, 4, 1)
	begin, end := &classfile.Label{}, &classfile.Label{}
	method.Code.GetStatic(classfile.SystemClass, classfile.OutFieldName, classfile.PrintStreamDescriptor).
		PushInt(3).
		Var(classfile.ISTORE, 0).
		Bind(begin).
		Frame(classfile.NewFullFrame([]classfile.VerificationType{classfile.IntegerType},
			[]classfile.VerificationType{classfile.ObjectType(classfile.PrintStreamClass)})).
		Var(classfile.ILOAD, 0).
		Op(classfile.ICONST_1).
		Jump(classfile.IF_ICMPEQ, end).
		Var(classfile.ILOAD, 0).
		Op(classfile.DUP2).
		InvokeVirtual(classfile.PrintStreamClass, classfile.PrintName, classfile.VoidIntMethodDescriptor).
		Op(classfile.SWAP).
		Op(classfile.DUP_X1).
		Op(classfile.SWAP).
		InvokeVirtual(classfile.PrintStreamClass, classfile.PrintlnName, classfile.VoidIntMethodDescriptor).
		Iinc(0, -1).
		Jump(classfile.GOTO, begin).
		Bind(end).
		Frame(classfile.NewSameLocals1StackItemFrame(classfile.ObjectType(classfile.PrintStreamClass))).
		InvokeVirtual(classfile.PrintStreamClass, classfile.PrintlnName, classfile.VoidMethodDescriptor).
		Op(classfile.RETURN)

	machine, out := load(t, class)
	assert.Nil(t, machine.Invoke("loop"))
	assert.Equal(t, "33\n22\n\n", out.String())
	assert.True(t, machine.Executed > 0)
}

func TestMachine_LongCounter(t *testing.T) {
	class := newTestClass()
	class.AddField(classfile.AccPrivate|classfile.AccStatic|classfile.AccSynthetic, "counter", classfile.LongDescriptor, int64(0))
	method := class.AddMethod(classfile.AccStatic, "inc", classfile.VoidMethodDescriptor, 4, 0)
	method.Code.GetStatic(testClass, "counter", classfile.LongDescriptor).
		Op(classfile.LCONST_1).
		Op(classfile.LADD).
		PutStatic(testClass, "counter", classfile.LongDescriptor).
		Op(classfile.RETURN)

	machine, _ := load(t, class)
	value, exist := machine.Static("counter")
	assert.True(t, exist)
	assert.Equal(t, int64(0), value)
	for i := 0; i < 3; i++ {
		assert.Nil(t, machine.Invoke("inc"))
	}
	value, _ = machine.Static("counter")
	assert.Equal(t, int64(3), value)

	assert.NotNil(t, machine.SetStatic("counter", "wrong"))
	assert.Nil(t, machine.SetStatic("counter", int64(9223372036854775807)))
	assert.Nil(t, machine.Invoke("inc"))
	value, _ = machine.Static("counter")
	assert.Equal(t, int64(-9223372036854775808), value)
}

func TestMachine_BigInteger(t *testing.T) {
	class := newTestClass()
	class.AddField(classfile.AccPrivate|classfile.AccStatic, "counter", classfile.BigIntegerDescriptor, nil)
	method := class.AddMethod(classfile.AccStatic, "inc", classfile.VoidMethodDescriptor, 2, 0)
	present := &classfile.Label{}
	method.Code.GetStatic(testClass, "counter", classfile.BigIntegerDescriptor).
		Op(classfile.DUP).
		Jump(classfile.IFNONNULL, present).
		Op(classfile.POP).
		GetStatic(classfile.BigIntegerClass, classfile.OneFieldName, classfile.BigIntegerDescriptor).
		PutStatic(testClass, "counter", classfile.BigIntegerDescriptor).
		Op(classfile.RETURN).
		Bind(present).
		Frame(classfile.NewSameLocals1StackItemFrame(classfile.ObjectType(classfile.BigIntegerClass))).
		GetStatic(classfile.BigIntegerClass, classfile.OneFieldName, classfile.BigIntegerDescriptor).
		InvokeVirtual(classfile.BigIntegerClass, classfile.AddName, classfile.BigIntegerAddDescriptor).
		PutStatic(testClass, "counter", classfile.BigIntegerDescriptor).
		Op(classfile.RETURN)

	machine, _ := load(t, class)
	value, _ := machine.Static("counter")
	assert.Nil(t, value)
	for i := 0; i < 5; i++ {
		assert.Nil(t, machine.Invoke("inc"))
	}
	value, _ = machine.Static("counter")
	assert.Equal(t, 0, big.NewInt(5).Cmp(value.(*big.Int)))
}

func TestMachine_StackOverflow(t *testing.T) {
	class := newTestClass()
	method := class.AddMethod(classfile.AccStatic, "push", classfile.VoidMethodDescriptor, 1, 0)
	method.Code.Op(classfile.ICONST_0).Op(classfile.ICONST_1).Op(classfile.POP).Op(classfile.POP).Op(classfile.RETURN)

	machine, _ := load(t, class)
	err := machine.Invoke("push")
	assert.NotNil(t, err)
	assert.True(t, errorx.IsOfType(err, RuntimeError))
}

func TestMachine_MissingFrame(t *testing.T) {
	class := newTestClass()
	method := class.AddMethod(classfile.AccStatic, "jump", classfile.VoidMethodDescriptor, 1, 0)
	end := &classfile.Label{}
	method.Code.Op(classfile.ICONST_0).Jump(classfile.IFEQ, end).Bind(end).Op(classfile.RETURN)
	data, err := class.Bytes()
	assert.Nil(t, err)
	_, err = Load(data, &bytes.Buffer{})
	assert.NotNil(t, err)
	assert.True(t, errorx.IsOfType(err, VerifyError))
}

func TestMachine_FrameMismatch(t *testing.T) {
	class := newTestClass()
	method := class.AddMethod(classfile.AccStatic, "jump", classfile.VoidMethodDescriptor, 1, 0)
	end := &classfile.Label{}
	method.Code.Op(classfile.ICONST_0).
		Jump(classfile.IFEQ, end).
		Bind(end).
		Frame(classfile.NewSameLocals1StackItemFrame(classfile.IntegerType)).
		Op(classfile.RETURN)

	machine, _ := load(t, class)
	err := machine.Invoke("jump")
	assert.NotNil(t, err)
	assert.True(t, errorx.IsOfType(err, VerifyError))
}

func TestMachine_UnknownMethod(t *testing.T) {
	machine, _ := load(t, newTestClass())
	assert.NotNil(t, machine.Run())
	assert.NotNil(t, machine.Invoke("absent"))
}
