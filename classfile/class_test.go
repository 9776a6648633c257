package classfile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func buildSample(t *testing.T) []byte {
	class := NewClass(AccPublic|AccSuper, "demo/Sample", ObjectClass)
	class.AddField(AccPrivate|AccStatic|AccSynthetic, "counter", LongDescriptor, int64(0))
	class.AddField(AccPrivate|AccStatic, "big", BigIntegerDescriptor, nil)

	loop := class.AddMethod(AccPublic|AccStatic, "count", VoidMethodDescriptor, 3, 1)
	begin, end := &Label{}, &Label{}
	loop.Code.GetStatic(SystemClass, OutFieldName, PrintStreamDescriptor).
		PushInt(3).
		Var(ISTORE, 0).
		Bind(begin).
		Frame(NewFullFrame([]VerificationType{IntegerType}, []VerificationType{ObjectType(PrintStreamClass)})).
		Var(ILOAD, 0).
		Jump(IFEQ, end).
		Op(DUP).
		Var(ILOAD, 0).
		InvokeVirtual(PrintStreamClass, PrintlnName, VoidIntMethodDescriptor).
		Iinc(0, -1).
		Jump(GOTO, begin).
		Bind(end).
		Frame(NewSameLocals1StackItemFrame(ObjectType(PrintStreamClass))).
		Op(POP).
		Op(RETURN)

	init := class.AddMethod(AccPublic, ConstructorName, VoidMethodDescriptor, 1, 1)
	init.Code.Var(ALOAD, 0).InvokeSpecial(ObjectClass, ConstructorName, VoidMethodDescriptor).Op(RETURN)

	data, err := class.Bytes()
	assert.Nil(t, err)
	return data
}

func TestClass_RoundTrip(t *testing.T) {
	data := buildSample(t)
	assert.Equal(t, []byte{0xCA, 0xFE, 0xBA, 0xBE, 0, 0, 0, 52}, data[:8])

	cf, err := Parse(data)
	assert.Nil(t, err)
	assert.Equal(t, "demo/Sample", cf.Name)
	assert.Equal(t, ObjectClass, cf.SuperName)
	assert.Equal(t, AccPublic|AccSuper, cf.Access)
	assert.Equal(t, uint16(Java8Version), cf.MajorVersion)

	assert.Len(t, cf.Fields, 2)
	counter := cf.Field("counter")
	assert.NotNil(t, counter)
	assert.Equal(t, AccPrivate|AccStatic|AccSynthetic, counter.Access)
	assert.NotNil(t, counter.ConstantValue)
	assert.Equal(t, TagLong, counter.ConstantValue.Tag)
	assert.Equal(t, int64(0), counter.ConstantValue.Value)
	assert.Nil(t, cf.Field("big").ConstantValue)

	method := cf.Method("count", VoidMethodDescriptor)
	assert.NotNil(t, method)
	assert.Equal(t, uint16(3), method.Code.MaxStack)
	expectedFrames := []FrameInfo{
		{Offset: 5, Type: 255, Locals: []VerificationType{IntegerType}, Stack: []VerificationType{ObjectType(PrintStreamClass)}},
		{Offset: 20, Type: 64 + 14, Locals: []VerificationType{IntegerType}, Stack: []VerificationType{ObjectType(PrintStreamClass)}},
	}
	if diff := cmp.Diff(expectedFrames, method.Code.Frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}

	instructions, err := Disassemble(method.Code.Bytecode)
	assert.Nil(t, err)
	var opcodes []byte
	for _, insn := range instructions {
		opcodes = append(opcodes, insn.Opcode)
	}
	assert.Equal(t, []byte{GETSTATIC, ICONST_3, ISTORE_0, ILOAD_0, IFEQ, DUP, ILOAD_0, INVOKEVIRTUAL, IINC, GOTO, POP, RETURN}, opcodes)
	assert.Equal(t, 20, instructions[4].Target())
	assert.Equal(t, 5, instructions[9].Target())

	owner, name, descriptor, err := cf.MemberRef(instructions[7].U2())
	assert.Nil(t, err)
	assert.Equal(t, []string{PrintStreamClass, PrintlnName, VoidIntMethodDescriptor}, []string{owner, name, descriptor})

	listing, err := cf.Listing(method)
	assert.Nil(t, err)
	assert.Contains(t, listing, "invokevirtual")
	assert.Contains(t, listing, "java/io/PrintStream.println:(I)V")
	assert.Contains(t, listing, "goto 5")
}

func TestParse_Malformed(t *testing.T) {
	data := buildSample(t)
	testData := [][]byte{
		nil,
		{0xCA, 0xFE, 0xBA, 0xBF},
		data[:len(data)-1],
		append(append([]byte(nil), data...), 0),
	}
	for _, raw := range testData {
		_, err := Parse(raw)
		assert.NotNil(t, err)
	}
}

func TestDisassemble_Unsupported(t *testing.T) {
	_, err := Disassemble([]byte{0xfe})
	assert.NotNil(t, err)
	_, err = Disassemble([]byte{GOTO, 0})
	assert.NotNil(t, err)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "com/example/Main", InternalName("com.example.Main"))
	assert.True(t, IsUnqualifiedName("hello"))
	assert.True(t, IsUnqualifiedName("+"))
	assert.False(t, IsUnqualifiedName(""))
	assert.False(t, IsUnqualifiedName("<init>"))
	assert.False(t, IsUnqualifiedName("a.b"))
	assert.True(t, IsInternalClassName("com/example/Main"))
	assert.False(t, IsInternalClassName("com//Main"))
	assert.False(t, IsInternalClassName("Main;"))
}
