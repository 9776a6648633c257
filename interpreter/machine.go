package interpreter

import (
	"bufio"
	"io"
	"math/big"
	"strconv"

	"github.com/xiaobogaga/hq9plus/classfile"
)

// A small interpreter for the static methods of one class. It understands the bytecode subset
// the HQ9+ compiler produces together with the handful of platform members that code touches:
// System.out, PrintStream.print/println and BigInteger.ONE/add.

const maxCallDepth = 256

type loadedMethod struct {
	info         *classfile.MethodInfo
	instructions map[int]classfile.Instruction
	frames       map[int]classfile.FrameInfo
}

type Machine struct {
	class   *classfile.ClassFile
	out     *bufio.Writer
	statics map[string]interface{}
	methods map[string]*loadedMethod
	depth   int
	// Executed counts the instructions run so far.
	Executed int
}

// Load parses a class file and prepares it for execution. Output of the program goes to out.
func Load(data []byte, out io.Writer) (*Machine, error) {
	class, err := classfile.Parse(data)
	if err != nil {
		return nil, err
	}
	return New(class, out)
}

func New(class *classfile.ClassFile, out io.Writer) (*Machine, error) {
	machine := &Machine{
		class:   class,
		out:     bufio.NewWriter(out),
		statics: map[string]interface{}{},
		methods: map[string]*loadedMethod{},
	}
	for _, field := range class.Fields {
		if field.Access&classfile.AccStatic == 0 {
			continue
		}
		value, err := machine.initialValue(field)
		if err != nil {
			return nil, err
		}
		machine.statics[field.Name] = value
	}
	for i := range class.Methods {
		method := &class.Methods[i]
		if method.Code == nil {
			continue
		}
		if err := checkFrames(method); err != nil {
			return nil, err
		}
		instructions, err := classfile.Disassemble(method.Code.Bytecode)
		if err != nil {
			return nil, err
		}
		loaded := &loadedMethod{
			info:         method,
			instructions: map[int]classfile.Instruction{},
			frames:       map[int]classfile.FrameInfo{},
		}
		for _, insn := range instructions {
			loaded.instructions[insn.Offset] = insn
		}
		for _, frame := range method.Code.Frames {
			loaded.frames[frame.Offset] = frame
		}
		machine.methods[method.Name+method.Descriptor] = loaded
	}
	return machine, nil
}

func (machine *Machine) initialValue(field classfile.FieldInfo) (interface{}, error) {
	if field.ConstantValue != nil {
		c := field.ConstantValue
		switch {
		case c.Tag == classfile.TagLong && field.Descriptor == classfile.LongDescriptor:
			return c.Value, nil
		case c.Tag == classfile.TagInteger && field.Descriptor == classfile.IntDescriptor:
			return int32(c.Value), nil
		case c.Tag == classfile.TagString && field.Descriptor == classfile.StringDescriptor:
			return machine.class.Utf8(c.Ref1)
		}
		return nil, VerifyError.New("field %s: constant value does not match descriptor %s", field.Name, field.Descriptor)
	}
	switch field.Descriptor {
	case classfile.LongDescriptor:
		return int64(0), nil
	case classfile.IntDescriptor:
		return int32(0), nil
	}
	return nil, nil
}

// Run invokes public static void main(String[]) with a null argument array.
func (machine *Machine) Run() error {
	return machine.call(classfile.MainMethodName, classfile.VoidStringArrayMethodDescriptor, []interface{}{nil})
}

// Invoke runs the static no-argument method name.
func (machine *Machine) Invoke(name string) error {
	return machine.call(name, classfile.VoidMethodDescriptor, nil)
}

func (machine *Machine) call(name, descriptor string, args []interface{}) error {
	err := machine.execute(name, descriptor, args)
	if flushErr := machine.out.Flush(); err == nil {
		err = flushErr
	}
	return err
}

// Static returns the current value of a static field declared by the class.
func (machine *Machine) Static(name string) (interface{}, bool) {
	value, exist := machine.statics[name]
	return value, exist
}

// SetStatic overwrites a static field declared by the class.
func (machine *Machine) SetStatic(name string, value interface{}) error {
	field := machine.class.Field(name)
	if field == nil {
		return RuntimeError.New("no such field %s", name)
	}
	if !assignable(field.Descriptor, value) {
		return RuntimeError.New("cannot store %T in field %s of type %s", value, name, field.Descriptor)
	}
	machine.statics[name] = value
	return nil
}

func assignable(descriptor string, value interface{}) bool {
	switch descriptor {
	case classfile.LongDescriptor:
		_, ok := value.(int64)
		return ok
	case classfile.IntDescriptor:
		_, ok := value.(int32)
		return ok
	}
	if value == nil {
		return true
	}
	name := className(value)
	return name != "" && descriptor == "L"+name+";"
}

func (machine *Machine) execute(name, descriptor string, args []interface{}) error {
	method, exist := machine.methods[name+descriptor]
	if !exist {
		return RuntimeError.New("no such method %s%s in %s", name, descriptor, machine.class.Name)
	}
	if method.info.Access&classfile.AccStatic == 0 {
		return RuntimeError.New("method %s%s is not static", name, descriptor)
	}
	if machine.depth >= maxCallDepth {
		return RuntimeError.New("call depth exceeds %d", maxCallDepth)
	}
	machine.depth++
	defer func() { machine.depth-- }()

	code := method.info.Code
	if len(args) > int(code.MaxLocals) {
		return RuntimeError.New("method %s: %d arguments exceed max_locals %d", name, len(args), code.MaxLocals)
	}
	locals := make([]interface{}, code.MaxLocals)
	copy(locals, args)
	stack := &operandStack{max: int(code.MaxStack)}
	pc := 0
	for {
		insn, exist := method.instructions[pc]
		if !exist {
			return RuntimeError.New("method %s: no instruction at %d", name, pc)
		}
		if frame, framed := method.frames[pc]; framed {
			if err := matchFrame(name, frame, locals, stack); err != nil {
				return err
			}
		}
		machine.Executed++
		next := pc + insn.Length()
		done, target, err := machine.step(name, insn, locals, stack)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if target >= 0 {
			next = target
		}
		pc = next
	}
}

func localIndex(op, base byte, insn classfile.Instruction) int {
	if op >= base && op <= base+3 {
		return int(op - base)
	}
	return int(insn.U1())
}

func (machine *Machine) load(name string, locals []interface{}, index int) (interface{}, error) {
	if index >= len(locals) {
		return nil, RuntimeError.New("method %s: local %d exceeds max_locals %d", name, index, len(locals))
	}
	return locals[index], nil
}

func (machine *Machine) store(name string, locals []interface{}, index int, value interface{}) error {
	if index+size(value) > len(locals) {
		return RuntimeError.New("method %s: local %d exceeds max_locals %d", name, index, len(locals))
	}
	locals[index] = value
	return nil
}

// step executes one instruction. It returns done on return and a non negative target when the
// instruction branched.
func (machine *Machine) step(name string, insn classfile.Instruction, locals []interface{}, stack *operandStack) (done bool, target int, err error) {
	target = -1
	op := insn.Opcode
	switch op {
	case classfile.NOP:
	case classfile.ACONST_NULL:
		err = stack.push(nil)
	case classfile.ICONST_M1, classfile.ICONST_0, classfile.ICONST_1, classfile.ICONST_2,
		classfile.ICONST_3, classfile.ICONST_4, classfile.ICONST_5:
		err = stack.push(int32(op) - int32(classfile.ICONST_0))
	case classfile.LCONST_0, classfile.LCONST_1:
		err = stack.push(int64(op - classfile.LCONST_0))
	case classfile.BIPUSH:
		err = stack.push(int32(int8(insn.U1())))
	case classfile.SIPUSH:
		err = stack.push(int32(int16(insn.U2())))
	case classfile.LDC, classfile.LDC_W, classfile.LDC2_W:
		var index uint16
		if op == classfile.LDC {
			index = uint16(insn.U1())
		} else {
			index = insn.U2()
		}
		var value interface{}
		if value, err = machine.constant(index, op == classfile.LDC2_W); err == nil {
			err = stack.push(value)
		}
	case classfile.ILOAD, classfile.ILOAD_0, classfile.ILOAD_1, classfile.ILOAD_2, classfile.ILOAD_3:
		var value interface{}
		if value, err = machine.load(name, locals, localIndex(op, classfile.ILOAD_0, insn)); err != nil {
			return
		}
		if _, isInt := value.(int32); !isInt {
			return false, target, RuntimeError.New("method %s: iload of %T", name, value)
		}
		err = stack.push(value)
	case classfile.LLOAD:
		var value interface{}
		if value, err = machine.load(name, locals, int(insn.U1())); err != nil {
			return
		}
		if _, isLong := value.(int64); !isLong {
			return false, target, RuntimeError.New("method %s: lload of %T", name, value)
		}
		err = stack.push(value)
	case classfile.ALOAD, classfile.ALOAD_0, classfile.ALOAD_1, classfile.ALOAD_2, classfile.ALOAD_3:
		var value interface{}
		if value, err = machine.load(name, locals, localIndex(op, classfile.ALOAD_0, insn)); err == nil {
			err = stack.push(value)
		}
	case classfile.ISTORE, classfile.ISTORE_0, classfile.ISTORE_1, classfile.ISTORE_2, classfile.ISTORE_3:
		var value int32
		if value, err = stack.popInt(); err == nil {
			err = machine.store(name, locals, localIndex(op, classfile.ISTORE_0, insn), value)
		}
	case classfile.ASTORE, classfile.ASTORE_0, classfile.ASTORE_1, classfile.ASTORE_2, classfile.ASTORE_3:
		var value interface{}
		if value, err = stack.popCategory1(); err == nil {
			err = machine.store(name, locals, localIndex(op, classfile.ASTORE_0, insn), value)
		}
	case classfile.POP:
		_, err = stack.popCategory1()
	case classfile.POP2:
		var value interface{}
		if value, err = stack.pop(); err == nil && size(value) == 1 {
			_, err = stack.popCategory1()
		}
	case classfile.DUP:
		var value interface{}
		if value, err = stack.peek(); err == nil {
			if size(value) != 1 {
				return false, target, RuntimeError.New("method %s: dup of a long", name)
			}
			err = stack.push(value)
		}
	case classfile.DUP_X1:
		err = machine.dupX1(stack)
	case classfile.DUP2:
		err = machine.dup2(stack)
	case classfile.SWAP:
		var first, second interface{}
		if first, err = stack.popCategory1(); err != nil {
			return
		}
		if second, err = stack.popCategory1(); err != nil {
			return
		}
		if err = stack.push(first); err == nil {
			err = stack.push(second)
		}
	case classfile.IADD, classfile.ISUB:
		var right, left int32
		if right, err = stack.popInt(); err != nil {
			return
		}
		if left, err = stack.popInt(); err != nil {
			return
		}
		if op == classfile.IADD {
			err = stack.push(left + right)
		} else {
			err = stack.push(left - right)
		}
	case classfile.LADD:
		var right, left int64
		if right, err = stack.popLong(); err != nil {
			return
		}
		if left, err = stack.popLong(); err != nil {
			return
		}
		err = stack.push(left + right)
	case classfile.IINC:
		index := int(insn.Operands[0])
		var value interface{}
		if value, err = machine.load(name, locals, index); err != nil {
			return
		}
		i, isInt := value.(int32)
		if !isInt {
			return false, target, RuntimeError.New("method %s: iinc of %T", name, value)
		}
		locals[index] = i + int32(int8(insn.Operands[1]))
	case classfile.IFEQ, classfile.IFNE:
		var value int32
		if value, err = stack.popInt(); err != nil {
			return
		}
		if (value == 0) == (op == classfile.IFEQ) {
			target = insn.Target()
		}
	case classfile.IF_ICMPEQ, classfile.IF_ICMPNE:
		var right, left int32
		if right, err = stack.popInt(); err != nil {
			return
		}
		if left, err = stack.popInt(); err != nil {
			return
		}
		if (left == right) == (op == classfile.IF_ICMPEQ) {
			target = insn.Target()
		}
	case classfile.IFNULL, classfile.IFNONNULL:
		var value interface{}
		if value, err = stack.popCategory1(); err != nil {
			return
		}
		if (value == nil) == (op == classfile.IFNULL) {
			target = insn.Target()
		}
	case classfile.GOTO:
		target = insn.Target()
	case classfile.RETURN:
		if len(stack.values) != 0 {
			// the JVM allows this, but the generator never leaves values behind
			return false, target, RuntimeError.New("method %s: return with %d values on the stack", name, len(stack.values))
		}
		done = true
	case classfile.GETSTATIC:
		err = machine.getStatic(insn.U2(), stack)
	case classfile.PUTSTATIC:
		err = machine.putStatic(insn.U2(), stack)
	case classfile.INVOKESTATIC:
		err = machine.invokeStatic(insn.U2())
	case classfile.INVOKEVIRTUAL:
		err = machine.invokeVirtual(insn.U2(), stack)
	case classfile.INVOKESPECIAL:
		err = machine.invokeSpecial(insn.U2(), stack)
	default:
		err = RuntimeError.New("method %s: unsupported instruction %s", name, classfile.OpcodeName(op))
	}
	return
}

func (machine *Machine) dupX1(stack *operandStack) error {
	first, err := stack.popCategory1()
	if err != nil {
		return err
	}
	second, err := stack.popCategory1()
	if err != nil {
		return err
	}
	for _, value := range []interface{}{first, second, first} {
		if err = stack.push(value); err != nil {
			return err
		}
	}
	return nil
}

func (machine *Machine) dup2(stack *operandStack) error {
	first, err := stack.pop()
	if err != nil {
		return err
	}
	if size(first) == 2 {
		if err = stack.push(first); err != nil {
			return err
		}
		return stack.push(first)
	}
	second, err := stack.popCategory1()
	if err != nil {
		return err
	}
	for _, value := range []interface{}{second, first, second, first} {
		if err = stack.push(value); err != nil {
			return err
		}
	}
	return nil
}

func (machine *Machine) constant(index uint16, wide bool) (interface{}, error) {
	if int(index) <= 0 || int(index) >= len(machine.class.Constants) {
		return nil, RuntimeError.New("ldc of constant #%d out of range", index)
	}
	c := machine.class.Constants[index]
	switch {
	case wide && c.Tag == classfile.TagLong:
		return c.Value, nil
	case !wide && c.Tag == classfile.TagInteger:
		return int32(c.Value), nil
	case !wide && c.Tag == classfile.TagString:
		return machine.class.Utf8(c.Ref1)
	}
	return nil, RuntimeError.New("unsupported constant #%d with tag %d", index, c.Tag)
}

func (machine *Machine) getStatic(index uint16, stack *operandStack) error {
	owner, name, descriptor, err := machine.class.MemberRef(index)
	if err != nil {
		return err
	}
	switch {
	case owner == machine.class.Name:
		value, exist := machine.statics[name]
		if !exist {
			return RuntimeError.New("no such field %s", name)
		}
		if field := machine.class.Field(name); field.Descriptor != descriptor {
			return RuntimeError.New("field %s has type %s, accessed as %s", name, field.Descriptor, descriptor)
		}
		return stack.push(value)
	case owner == classfile.SystemClass && name == classfile.OutFieldName && descriptor == classfile.PrintStreamDescriptor:
		return stack.push(&printStream{})
	case owner == classfile.BigIntegerClass && name == classfile.OneFieldName && descriptor == classfile.BigIntegerDescriptor:
		return stack.push(big.NewInt(1))
	}
	return RuntimeError.New("unsupported static field %s.%s:%s", owner, name, descriptor)
}

func (machine *Machine) putStatic(index uint16, stack *operandStack) error {
	owner, name, descriptor, err := machine.class.MemberRef(index)
	if err != nil {
		return err
	}
	if owner != machine.class.Name {
		return RuntimeError.New("cannot write static field %s.%s", owner, name)
	}
	field := machine.class.Field(name)
	if field == nil || field.Descriptor != descriptor {
		return RuntimeError.New("no such field %s:%s", name, descriptor)
	}
	value, err := stack.pop()
	if err != nil {
		return err
	}
	if !assignable(descriptor, value) {
		return RuntimeError.New("cannot store %T in field %s of type %s", value, name, descriptor)
	}
	machine.statics[name] = value
	return nil
}

func (machine *Machine) invokeStatic(index uint16) error {
	owner, name, descriptor, err := machine.class.MemberRef(index)
	if err != nil {
		return err
	}
	if owner != machine.class.Name {
		return RuntimeError.New("unsupported static method %s.%s%s", owner, name, descriptor)
	}
	if descriptor != classfile.VoidMethodDescriptor {
		return RuntimeError.New("unsupported static method descriptor %s", descriptor)
	}
	return machine.execute(name, descriptor, nil)
}

func (machine *Machine) invokeVirtual(index uint16, stack *operandStack) error {
	owner, name, descriptor, err := machine.class.MemberRef(index)
	if err != nil {
		return err
	}
	switch owner {
	case classfile.PrintStreamClass:
		return machine.invokePrintStream(name, descriptor, stack)
	case classfile.BigIntegerClass:
		if name != classfile.AddName || descriptor != classfile.BigIntegerAddDescriptor {
			break
		}
		argument, err := stack.popCategory1()
		if err != nil {
			return err
		}
		receiver, err := stack.popCategory1()
		if err != nil {
			return err
		}
		left, leftOk := receiver.(*big.Int)
		right, rightOk := argument.(*big.Int)
		if receiver == nil || argument == nil {
			return RuntimeError.New("NullPointerException in BigInteger.add")
		}
		if !leftOk || !rightOk {
			return RuntimeError.New("BigInteger.add on %T and %T", receiver, argument)
		}
		return stack.push(new(big.Int).Add(left, right))
	}
	return RuntimeError.New("unsupported method %s.%s%s", owner, name, descriptor)
}

func (machine *Machine) invokePrintStream(name, descriptor string, stack *operandStack) error {
	var text string
	switch descriptor {
	case classfile.VoidMethodDescriptor:
		if name != classfile.PrintlnName {
			return RuntimeError.New("unsupported PrintStream.%s%s", name, descriptor)
		}
	case classfile.VoidIntMethodDescriptor:
		value, err := stack.popInt()
		if err != nil {
			return err
		}
		text = strconv.FormatInt(int64(value), 10)
	case classfile.VoidLongMethodDescriptor:
		value, err := stack.popLong()
		if err != nil {
			return err
		}
		text = strconv.FormatInt(value, 10)
	case classfile.VoidStringMethodDescriptor:
		value, err := stack.popCategory1()
		if err != nil {
			return err
		}
		switch s := value.(type) {
		case nil:
			text = "null"
		case string:
			text = s
		default:
			return RuntimeError.New("PrintStream.%s(String) of %T", name, value)
		}
	default:
		return RuntimeError.New("unsupported PrintStream.%s%s", name, descriptor)
	}
	receiver, err := stack.popCategory1()
	if err != nil {
		return err
	}
	if _, ok := receiver.(*printStream); !ok {
		if receiver == nil {
			return RuntimeError.New("NullPointerException in PrintStream.%s", name)
		}
		return RuntimeError.New("PrintStream.%s invoked on %T", name, receiver)
	}
	if name == classfile.PrintlnName {
		text += "\n"
	} else if name != classfile.PrintName {
		return RuntimeError.New("unsupported PrintStream.%s%s", name, descriptor)
	}
	_, err = machine.out.WriteString(text)
	return err
}

func (machine *Machine) invokeSpecial(index uint16, stack *operandStack) error {
	owner, name, descriptor, err := machine.class.MemberRef(index)
	if err != nil {
		return err
	}
	if owner != classfile.ObjectClass || name != classfile.ConstructorName || descriptor != classfile.VoidMethodDescriptor {
		return RuntimeError.New("unsupported special method %s.%s%s", owner, name, descriptor)
	}
	_, err = stack.popCategory1()
	return err
}
