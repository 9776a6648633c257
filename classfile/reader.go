package classfile

import (
	"encoding/binary"
	"math"
)

// Constant is a decoded constant pool entry. Text holds Utf8 contents, Value holds Integer and Long
// values, Ref1 and Ref2 hold the indexes of the other entry kinds.
type Constant struct {
	Tag   byte
	Text  string
	Value int64
	Ref1  uint16
	Ref2  uint16
}

type FieldInfo struct {
	Access        uint16
	Name          string
	Descriptor    string
	ConstantValue *Constant
}

// FrameInfo is a decoded stack map frame with the effective local variable types at Offset.
type FrameInfo struct {
	Offset int
	Type   byte
	Locals []VerificationType
	Stack  []VerificationType
}

type CodeInfo struct {
	MaxStack  uint16
	MaxLocals uint16
	Bytecode  []byte
	Frames    []FrameInfo
}

type MethodInfo struct {
	Access     uint16
	Name       string
	Descriptor string
	Code       *CodeInfo
}

// ClassFile is the parsed form of a class file.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	Constants    []Constant
	Access       uint16
	Name         string
	SuperName    string
	Fields       []FieldInfo
	Methods      []MethodInfo
}

func (cf *ClassFile) Method(name, descriptor string) *MethodInfo {
	for i := range cf.Methods {
		if cf.Methods[i].Name == name && cf.Methods[i].Descriptor == descriptor {
			return &cf.Methods[i]
		}
	}
	return nil
}

func (cf *ClassFile) Field(name string) *FieldInfo {
	for i := range cf.Fields {
		if cf.Fields[i].Name == name {
			return &cf.Fields[i]
		}
	}
	return nil
}

func (cf *ClassFile) constant(index uint16, tag byte) (*Constant, error) {
	if int(index) <= 0 || int(index) >= len(cf.Constants) || cf.Constants[index].Tag != tag {
		return nil, MalformedError.New("constant #%d is not of tag %d", index, tag)
	}
	return &cf.Constants[index], nil
}

// Utf8 returns the text of the CONSTANT_Utf8 entry at index.
func (cf *ClassFile) Utf8(index uint16) (string, error) {
	c, err := cf.constant(index, TagUtf8)
	if err != nil {
		return "", err
	}
	return c.Text, nil
}

// ClassName returns the internal name referenced by the CONSTANT_Class entry at index.
func (cf *ClassFile) ClassName(index uint16) (string, error) {
	c, err := cf.constant(index, TagClass)
	if err != nil {
		return "", err
	}
	return cf.Utf8(c.Ref1)
}

// MemberRef resolves a Fieldref or Methodref entry.
func (cf *ClassFile) MemberRef(index uint16) (owner, name, descriptor string, err error) {
	if int(index) <= 0 || int(index) >= len(cf.Constants) {
		return "", "", "", MalformedError.New("constant #%d out of range", index)
	}
	ref := cf.Constants[index]
	if ref.Tag != TagFieldref && ref.Tag != TagMethodref {
		return "", "", "", MalformedError.New("constant #%d is not a member reference", index)
	}
	if owner, err = cf.ClassName(ref.Ref1); err != nil {
		return
	}
	nameAndType, err := cf.constant(ref.Ref2, TagNameAndType)
	if err != nil {
		return
	}
	if name, err = cf.Utf8(nameAndType.Ref1); err != nil {
		return
	}
	descriptor, err = cf.Utf8(nameAndType.Ref2)
	return
}

type classReader struct {
	data []byte
	pos  int
}

func (reader *classReader) need(n int) error {
	if reader.pos+n > len(reader.data) {
		return MalformedError.New("unexpected end of class file at %d", reader.pos)
	}
	return nil
}

func (reader *classReader) u1() (byte, error) {
	if err := reader.need(1); err != nil {
		return 0, err
	}
	b := reader.data[reader.pos]
	reader.pos++
	return b, nil
}

func (reader *classReader) u2() (uint16, error) {
	if err := reader.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(reader.data[reader.pos:])
	reader.pos += 2
	return v, nil
}

func (reader *classReader) u4() (uint32, error) {
	if err := reader.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(reader.data[reader.pos:])
	reader.pos += 4
	return v, nil
}

func (reader *classReader) bytes(n int) ([]byte, error) {
	if err := reader.need(n); err != nil {
		return nil, err
	}
	b := reader.data[reader.pos : reader.pos+n]
	reader.pos += n
	return b, nil
}

// Parse decodes a class file. Attributes other than Code, StackMapTable and ConstantValue are
// skipped.
func Parse(data []byte) (*ClassFile, error) {
	reader := &classReader{data: data}
	magic, err := reader.u4()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, MalformedError.New("bad magic 0x%08x", magic)
	}
	cf := &ClassFile{}
	if cf.MinorVersion, err = reader.u2(); err != nil {
		return nil, err
	}
	if cf.MajorVersion, err = reader.u2(); err != nil {
		return nil, err
	}
	if err = reader.readConstantPool(cf); err != nil {
		return nil, err
	}
	if cf.Access, err = reader.u2(); err != nil {
		return nil, err
	}
	thisIndex, err := reader.u2()
	if err != nil {
		return nil, err
	}
	if cf.Name, err = cf.ClassName(thisIndex); err != nil {
		return nil, err
	}
	superIndex, err := reader.u2()
	if err != nil {
		return nil, err
	}
	if cf.SuperName, err = cf.ClassName(superIndex); err != nil {
		return nil, err
	}
	interfaces, err := reader.u2()
	if err != nil {
		return nil, err
	}
	if _, err = reader.bytes(int(interfaces) * 2); err != nil {
		return nil, err
	}
	if err = reader.readFields(cf); err != nil {
		return nil, err
	}
	if err = reader.readMethods(cf); err != nil {
		return nil, err
	}
	if err = reader.skipAttributes(); err != nil {
		return nil, err
	}
	if reader.pos != len(data) {
		return nil, MalformedError.New("%d trailing bytes", len(data)-reader.pos)
	}
	return cf, nil
}

func (reader *classReader) readConstantPool(cf *ClassFile) error {
	count, err := reader.u2()
	if err != nil {
		return err
	}
	cf.Constants = make([]Constant, count)
	for i := 1; i < int(count); i++ {
		tag, err := reader.u1()
		if err != nil {
			return err
		}
		c := Constant{Tag: tag}
		switch tag {
		case TagUtf8:
			length, err := reader.u2()
			if err != nil {
				return err
			}
			raw, err := reader.bytes(int(length))
			if err != nil {
				return err
			}
			if c.Text, err = DecodeModifiedUTF8(raw); err != nil {
				return err
			}
		case TagInteger:
			v, err := reader.u4()
			if err != nil {
				return err
			}
			c.Value = int64(int32(v))
		case TagLong:
			high, err := reader.u4()
			if err != nil {
				return err
			}
			low, err := reader.u4()
			if err != nil {
				return err
			}
			c.Value = int64(uint64(high)<<32 | uint64(low))
		case TagClass, TagString:
			if c.Ref1, err = reader.u2(); err != nil {
				return err
			}
		case TagFieldref, TagMethodref, TagNameAndType:
			if c.Ref1, err = reader.u2(); err != nil {
				return err
			}
			if c.Ref2, err = reader.u2(); err != nil {
				return err
			}
		default:
			return MalformedError.New("unsupported constant tag %d at #%d", tag, i)
		}
		cf.Constants[i] = c
		if tag == TagLong {
			// the slot after a long is unusable
			i++
		}
	}
	return nil
}

type attribute struct {
	name string
	info []byte
}

func (reader *classReader) readAttributes(cf *ClassFile) ([]attribute, error) {
	count, err := reader.u2()
	if err != nil {
		return nil, err
	}
	attributes := make([]attribute, 0, count)
	for i := 0; i < int(count); i++ {
		nameIndex, err := reader.u2()
		if err != nil {
			return nil, err
		}
		name, err := cf.Utf8(nameIndex)
		if err != nil {
			return nil, err
		}
		length, err := reader.u4()
		if err != nil {
			return nil, err
		}
		if length > math.MaxInt32 {
			return nil, MalformedError.New("attribute %s too long", name)
		}
		info, err := reader.bytes(int(length))
		if err != nil {
			return nil, err
		}
		attributes = append(attributes, attribute{name: name, info: info})
	}
	return attributes, nil
}

func (reader *classReader) skipAttributes() error {
	count, err := reader.u2()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		if _, err = reader.u2(); err != nil {
			return err
		}
		length, err := reader.u4()
		if err != nil {
			return err
		}
		if _, err = reader.bytes(int(length)); err != nil {
			return err
		}
	}
	return nil
}

func (reader *classReader) readMember(cf *ClassFile) (access uint16, name, descriptor string, attributes []attribute, err error) {
	if access, err = reader.u2(); err != nil {
		return
	}
	nameIndex, err := reader.u2()
	if err != nil {
		return
	}
	if name, err = cf.Utf8(nameIndex); err != nil {
		return
	}
	descriptorIndex, err := reader.u2()
	if err != nil {
		return
	}
	if descriptor, err = cf.Utf8(descriptorIndex); err != nil {
		return
	}
	attributes, err = reader.readAttributes(cf)
	return
}

func (reader *classReader) readFields(cf *ClassFile) error {
	count, err := reader.u2()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		access, name, descriptor, attributes, err := reader.readMember(cf)
		if err != nil {
			return err
		}
		field := FieldInfo{Access: access, Name: name, Descriptor: descriptor}
		for _, attr := range attributes {
			if attr.name != "ConstantValue" {
				continue
			}
			if len(attr.info) != 2 {
				return MalformedError.New("ConstantValue of field %s has length %d", name, len(attr.info))
			}
			index := binary.BigEndian.Uint16(attr.info)
			if int(index) <= 0 || int(index) >= len(cf.Constants) {
				return MalformedError.New("ConstantValue of field %s points at #%d", name, index)
			}
			value := cf.Constants[index]
			field.ConstantValue = &value
		}
		cf.Fields = append(cf.Fields, field)
	}
	return nil
}

func (reader *classReader) readMethods(cf *ClassFile) error {
	count, err := reader.u2()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		access, name, descriptor, attributes, err := reader.readMember(cf)
		if err != nil {
			return err
		}
		method := MethodInfo{Access: access, Name: name, Descriptor: descriptor}
		for _, attr := range attributes {
			if attr.name != "Code" {
				continue
			}
			if method.Code, err = readCode(cf, attr.info); err != nil {
				return MalformedError.Wrap(err, "method %s%s", name, descriptor)
			}
		}
		cf.Methods = append(cf.Methods, method)
	}
	return nil
}

func readCode(cf *ClassFile, info []byte) (*CodeInfo, error) {
	reader := &classReader{data: info}
	code := &CodeInfo{}
	var err error
	if code.MaxStack, err = reader.u2(); err != nil {
		return nil, err
	}
	if code.MaxLocals, err = reader.u2(); err != nil {
		return nil, err
	}
	length, err := reader.u4()
	if err != nil {
		return nil, err
	}
	if length == 0 || length > MaxCodeLength {
		return nil, MalformedError.New("code length %d", length)
	}
	if code.Bytecode, err = reader.bytes(int(length)); err != nil {
		return nil, err
	}
	handlers, err := reader.u2()
	if err != nil {
		return nil, err
	}
	if _, err = reader.bytes(int(handlers) * 8); err != nil {
		return nil, err
	}
	attributes, err := reader.readAttributes(cf)
	if err != nil {
		return nil, err
	}
	for _, attr := range attributes {
		if attr.name != "StackMapTable" {
			continue
		}
		if code.Frames, err = readStackMapTable(cf, attr.info); err != nil {
			return nil, err
		}
	}
	return code, nil
}

func (reader *classReader) verificationType(cf *ClassFile) (VerificationType, error) {
	tag, err := reader.u1()
	if err != nil {
		return VerificationType{}, err
	}
	item := VerificationType{Tag: tag}
	switch tag {
	case ItemTop, ItemInteger, ItemFloat, ItemDouble, ItemLong, ItemNull, ItemUninitializedThis:
	case ItemObject:
		index, err := reader.u2()
		if err != nil {
			return item, err
		}
		if item.Class, err = cf.ClassName(index); err != nil {
			return item, err
		}
	case ItemUninitialized:
		if item.Offset, err = reader.u2(); err != nil {
			return item, err
		}
	default:
		return item, MalformedError.New("unknown verification type %d", tag)
	}
	return item, nil
}

func (reader *classReader) verificationTypes(cf *ClassFile, n int) ([]VerificationType, error) {
	items := make([]VerificationType, 0, n)
	for i := 0; i < n; i++ {
		item, err := reader.verificationType(cf)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// readStackMapTable decodes every frame kind of the JVM specification. Locals start out empty,
// which holds for the static no-argument methods the generator writes; callers checking other
// methods must prepend the implicit argument types themselves.
func readStackMapTable(cf *ClassFile, info []byte) ([]FrameInfo, error) {
	reader := &classReader{data: info}
	count, err := reader.u2()
	if err != nil {
		return nil, err
	}
	var frames []FrameInfo
	var locals []VerificationType
	offset := -1
	for i := 0; i < int(count); i++ {
		frameType, err := reader.u1()
		if err != nil {
			return nil, err
		}
		frame := FrameInfo{Type: frameType}
		var delta int
		switch {
		case frameType < 64:
			delta = int(frameType)
		case frameType < 128:
			delta = int(frameType) - 64
			if frame.Stack, err = reader.verificationTypes(cf, 1); err != nil {
				return nil, err
			}
		case frameType == 247:
			d, err := reader.u2()
			if err != nil {
				return nil, err
			}
			delta = int(d)
			if frame.Stack, err = reader.verificationTypes(cf, 1); err != nil {
				return nil, err
			}
		case frameType >= 248 && frameType <= 251:
			d, err := reader.u2()
			if err != nil {
				return nil, err
			}
			delta = int(d)
			chop := 251 - int(frameType)
			if chop > len(locals) {
				return nil, MalformedError.New("chop frame removes %d of %d locals", chop, len(locals))
			}
			locals = locals[:len(locals)-chop]
		case frameType >= 252 && frameType <= 254:
			d, err := reader.u2()
			if err != nil {
				return nil, err
			}
			delta = int(d)
			appended, err := reader.verificationTypes(cf, int(frameType)-251)
			if err != nil {
				return nil, err
			}
			locals = append(append([]VerificationType(nil), locals...), appended...)
		case frameType == 255:
			d, err := reader.u2()
			if err != nil {
				return nil, err
			}
			delta = int(d)
			n, err := reader.u2()
			if err != nil {
				return nil, err
			}
			if locals, err = reader.verificationTypes(cf, int(n)); err != nil {
				return nil, err
			}
			n, err = reader.u2()
			if err != nil {
				return nil, err
			}
			if frame.Stack, err = reader.verificationTypes(cf, int(n)); err != nil {
				return nil, err
			}
		default:
			return nil, MalformedError.New("reserved frame type %d", frameType)
		}
		offset += delta + 1
		frame.Offset = offset
		frame.Locals = locals
		frames = append(frames, frame)
	}
	return frames, nil
}
