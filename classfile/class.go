package classfile

import "encoding/binary"

const (
	Magic = 0xCAFEBABE
	// Java8Version is the first major version whose verifier requires StackMapTable frames.
	Java8Version = 52
)

// Field is a field declaration. ConstantValue, when not nil, is an int32, int64 or string written
// as the field's ConstantValue attribute.
type Field struct {
	Access        uint16
	Name          string
	Descriptor    string
	ConstantValue interface{}
}

type Method struct {
	Access     uint16
	Name       string
	Descriptor string
	MaxStack   uint16
	MaxLocals  uint16
	Code       *Code
}

// Class is a class file under construction. Fields and methods are written in the order they
// were added.
type Class struct {
	MajorVersion uint16
	MinorVersion uint16
	Access       uint16
	Name         string
	SuperName    string
	pool         *ConstantPool
	fields       []*Field
	methods      []*Method
}

func NewClass(access uint16, internalName, superName string) *Class {
	return &Class{
		MajorVersion: Java8Version,
		Access:       access,
		Name:         internalName,
		SuperName:    superName,
		pool:         NewConstantPool(),
	}
}

func (class *Class) Pool() *ConstantPool {
	return class.pool
}

func (class *Class) AddField(access uint16, name, descriptor string, constantValue interface{}) *Field {
	field := &Field{Access: access, Name: name, Descriptor: descriptor, ConstantValue: constantValue}
	class.fields = append(class.fields, field)
	return field
}

// AddMethod appends a method with an empty body. The body can be written until Bytes is called.
func (class *Class) AddMethod(access uint16, name, descriptor string, maxStack, maxLocals uint16) *Method {
	method := &Method{
		Access:     access,
		Name:       name,
		Descriptor: descriptor,
		MaxStack:   maxStack,
		MaxLocals:  maxLocals,
		Code:       newCode(class.pool),
	}
	class.methods = append(class.methods, method)
	return method
}

func (class *Class) Methods() []*Method {
	return class.methods
}

func (class *Class) Fields() []*Field {
	return class.fields
}

// Bytes serializes the class. Member bodies are encoded first so every constant they reference is
// in the pool before the pool itself is written.
func (class *Class) Bytes() ([]byte, error) {
	pool := class.pool
	thisIndex := pool.Class(class.Name)
	superIndex := pool.Class(class.SuperName)

	body := binary.BigEndian.AppendUint16(nil, class.Access)
	body = binary.BigEndian.AppendUint16(body, thisIndex)
	body = binary.BigEndian.AppendUint16(body, superIndex)
	// no interfaces
	body = binary.BigEndian.AppendUint16(body, 0)

	body = binary.BigEndian.AppendUint16(body, uint16(len(class.fields)))
	for _, field := range class.fields {
		var err error
		body, err = class.appendField(body, field)
		if err != nil {
			return nil, err
		}
	}
	body = binary.BigEndian.AppendUint16(body, uint16(len(class.methods)))
	for _, method := range class.methods {
		var err error
		body, err = class.appendMethod(body, method)
		if err != nil {
			return nil, err
		}
	}
	// no class attributes
	body = binary.BigEndian.AppendUint16(body, 0)

	if err := pool.Err(); err != nil {
		return nil, err
	}
	out := binary.BigEndian.AppendUint32(nil, Magic)
	out = binary.BigEndian.AppendUint16(out, class.MinorVersion)
	out = binary.BigEndian.AppendUint16(out, class.MajorVersion)
	out = pool.appendTo(out)
	return append(out, body...), nil
}

func (class *Class) appendField(dst []byte, field *Field) ([]byte, error) {
	pool := class.pool
	dst = binary.BigEndian.AppendUint16(dst, field.Access)
	dst = binary.BigEndian.AppendUint16(dst, pool.Utf8(field.Name))
	dst = binary.BigEndian.AppendUint16(dst, pool.Utf8(field.Descriptor))
	if field.ConstantValue == nil {
		return binary.BigEndian.AppendUint16(dst, 0), nil
	}
	var valueIndex uint16
	switch value := field.ConstantValue.(type) {
	case int32:
		valueIndex = pool.Integer(value)
	case int64:
		valueIndex = pool.Long(value)
	case string:
		valueIndex = pool.String(value)
	default:
		return nil, FormatError.New("unsupported constant value %T for field %s", value, field.Name)
	}
	dst = binary.BigEndian.AppendUint16(dst, 1)
	return appendAttribute(dst, pool, "ConstantValue", binary.BigEndian.AppendUint16(nil, valueIndex)), nil
}

func (class *Class) appendMethod(dst []byte, method *Method) ([]byte, error) {
	pool := class.pool
	dst = binary.BigEndian.AppendUint16(dst, method.Access)
	dst = binary.BigEndian.AppendUint16(dst, pool.Utf8(method.Name))
	dst = binary.BigEndian.AppendUint16(dst, pool.Utf8(method.Descriptor))
	bytecode, err := method.Code.resolve()
	if err != nil {
		return nil, FormatError.Wrap(err, "method %s%s", method.Name, method.Descriptor)
	}

	code := binary.BigEndian.AppendUint16(nil, method.MaxStack)
	code = binary.BigEndian.AppendUint16(code, method.MaxLocals)
	code = binary.BigEndian.AppendUint32(code, uint32(len(bytecode)))
	code = append(code, bytecode...)
	// no exception handlers
	code = binary.BigEndian.AppendUint16(code, 0)
	if len(method.Code.frames) == 0 {
		code = binary.BigEndian.AppendUint16(code, 0)
	} else {
		table, err := encodeStackMapTable(pool, method.Code.frames)
		if err != nil {
			return nil, FormatError.Wrap(err, "method %s%s", method.Name, method.Descriptor)
		}
		code = binary.BigEndian.AppendUint16(code, 1)
		code = appendAttribute(code, pool, "StackMapTable", table)
	}
	// one attribute: Code
	dst = binary.BigEndian.AppendUint16(dst, 1)
	return appendAttribute(dst, pool, "Code", code), nil
}

func appendAttribute(dst []byte, pool *ConstantPool, name string, info []byte) []byte {
	dst = binary.BigEndian.AppendUint16(dst, pool.Utf8(name))
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(info)))
	return append(dst, info...)
}
