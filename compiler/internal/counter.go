package internal

import (
	"github.com/xiaobogaga/hq9plus/classfile"
)

// Counter is how the + instruction stores and increments the accumulator. It is chosen once per
// compilation from Options.AllowNumericOverflow.
type Counter interface {
	FieldDescriptor() string
	// InitialValue is the field's ConstantValue, nil for none.
	InitialValue() interface{}
	MaxStack() uint16
	// EmitIncrement writes the complete body of the increment method.
	EmitIncrement(code *classfile.Code, owner, field string)
}

func NewCounter(allowNumericOverflow bool) Counter {
	if allowNumericOverflow {
		return WrappingCounter{}
	}
	return BigIntegerCounter{}
}

// WrappingCounter keeps a long that silently wraps from Long.MAX_VALUE to Long.MIN_VALUE.
type WrappingCounter struct{}

func (WrappingCounter) FieldDescriptor() string {
	return classfile.LongDescriptor
}

func (WrappingCounter) InitialValue() interface{} {
	return int64(0)
}

func (WrappingCounter) MaxStack() uint16 {
	return 4
}

// getstatic counter; lconst_1; ladd; putstatic counter; return
func (WrappingCounter) EmitIncrement(code *classfile.Code, owner, field string) {
	code.GetStatic(owner, field, classfile.LongDescriptor).
		PushLong(1).
		Op(classfile.LADD).
		PutStatic(owner, field, classfile.LongDescriptor).
		Op(classfile.RETURN)
}

// BigIntegerCounter keeps a java.math.BigInteger that never overflows. The field starts out null
// and the first increment stores BigInteger.ONE.
type BigIntegerCounter struct{}

func (BigIntegerCounter) FieldDescriptor() string {
	return classfile.BigIntegerDescriptor
}

func (BigIntegerCounter) InitialValue() interface{} {
	return nil
}

func (BigIntegerCounter) MaxStack() uint16 {
	return 2
}

func (BigIntegerCounter) EmitIncrement(code *classfile.Code, owner, field string) {
	initialized := &classfile.Label{}
	code.GetStatic(owner, field, classfile.BigIntegerDescriptor).
		Op(classfile.DUP).
		Jump(classfile.IFNONNULL, initialized).
		// first increment: counter = BigInteger.ONE
		Op(classfile.POP).
		GetStatic(classfile.BigIntegerClass, classfile.OneFieldName, classfile.BigIntegerDescriptor).
		PutStatic(owner, field, classfile.BigIntegerDescriptor).
		Op(classfile.RETURN).
		Bind(initialized).
		Frame(classfile.NewSameLocals1StackItemFrame(classfile.ObjectType(classfile.BigIntegerClass))).
		GetStatic(classfile.BigIntegerClass, classfile.OneFieldName, classfile.BigIntegerDescriptor).
		InvokeVirtual(classfile.BigIntegerClass, classfile.AddName, classfile.BigIntegerAddDescriptor).
		PutStatic(owner, field, classfile.BigIntegerDescriptor).
		Op(classfile.RETURN)
}
