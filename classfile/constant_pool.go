package classfile

import (
	"encoding/binary"
	"math"
)

// Constant pool tags.
const (
	TagUtf8        byte = 1
	TagInteger     byte = 3
	TagLong        byte = 5
	TagClass       byte = 7
	TagString      byte = 8
	TagFieldref    byte = 9
	TagMethodref   byte = 10
	TagNameAndType byte = 12
)

// constant is both the pool entry and its deduplication key.
type constant struct {
	tag  byte
	text string
	num  int64
	ref1 uint16
	ref2 uint16
}

// ConstantPool collects the constants of one class. Equal constants share one index. The first
// failure (an overflowing pool or an oversized string) sticks and is reported by Err.
type ConstantPool struct {
	entries []constant
	indexes map[constant]uint16
	next    int
	err     error
}

func NewConstantPool() *ConstantPool {
	return &ConstantPool{indexes: map[constant]uint16{}, next: 1}
}

func (pool *ConstantPool) add(c constant) uint16 {
	if index, exist := pool.indexes[c]; exist {
		return index
	}
	if pool.err != nil {
		return 0
	}
	slots := 1
	// Long and double entries take two indexes.
	if c.tag == TagLong {
		slots = 2
	}
	if pool.next+slots > math.MaxUint16 {
		pool.err = FormatError.New("constant pool exceeds %d entries", math.MaxUint16-1)
		return 0
	}
	index := uint16(pool.next)
	pool.next += slots
	pool.entries = append(pool.entries, c)
	pool.indexes[c] = index
	return index
}

// Utf8 adds a CONSTANT_Utf8 entry.
func (pool *ConstantPool) Utf8(text string) uint16 {
	if size := len(EncodeModifiedUTF8(text)); size > MaxUtf8Length {
		if pool.err == nil {
			pool.err = FormatError.New("string constant of %d bytes exceeds %d bytes", size, MaxUtf8Length)
		}
		return 0
	}
	return pool.add(constant{tag: TagUtf8, text: text})
}

func (pool *ConstantPool) Integer(value int32) uint16 {
	return pool.add(constant{tag: TagInteger, num: int64(value)})
}

func (pool *ConstantPool) Long(value int64) uint16 {
	return pool.add(constant{tag: TagLong, num: value})
}

// Class adds a CONSTANT_Class entry for an internal name such as java/lang/Object.
func (pool *ConstantPool) Class(internalName string) uint16 {
	return pool.add(constant{tag: TagClass, ref1: pool.Utf8(internalName)})
}

func (pool *ConstantPool) String(value string) uint16 {
	return pool.add(constant{tag: TagString, ref1: pool.Utf8(value)})
}

func (pool *ConstantPool) NameAndType(name, descriptor string) uint16 {
	return pool.add(constant{tag: TagNameAndType, ref1: pool.Utf8(name), ref2: pool.Utf8(descriptor)})
}

func (pool *ConstantPool) Fieldref(owner, name, descriptor string) uint16 {
	return pool.add(constant{tag: TagFieldref, ref1: pool.Class(owner), ref2: pool.NameAndType(name, descriptor)})
}

func (pool *ConstantPool) Methodref(owner, name, descriptor string) uint16 {
	return pool.add(constant{tag: TagMethodref, ref1: pool.Class(owner), ref2: pool.NameAndType(name, descriptor)})
}

// Count is the constant_pool_count value written in the class file header.
func (pool *ConstantPool) Count() int {
	return pool.next
}

func (pool *ConstantPool) Err() error {
	return pool.err
}

func (pool *ConstantPool) appendTo(dst []byte) []byte {
	dst = binary.BigEndian.AppendUint16(dst, uint16(pool.next))
	for _, c := range pool.entries {
		dst = append(dst, c.tag)
		switch c.tag {
		case TagUtf8:
			encoded := EncodeModifiedUTF8(c.text)
			dst = binary.BigEndian.AppendUint16(dst, uint16(len(encoded)))
			dst = append(dst, encoded...)
		case TagInteger:
			dst = binary.BigEndian.AppendUint32(dst, uint32(int32(c.num)))
		case TagLong:
			dst = binary.BigEndian.AppendUint64(dst, uint64(c.num))
		case TagClass, TagString:
			dst = binary.BigEndian.AppendUint16(dst, c.ref1)
		case TagFieldref, TagMethodref, TagNameAndType:
			dst = binary.BigEndian.AppendUint16(dst, c.ref1)
			dst = binary.BigEndian.AppendUint16(dst, c.ref2)
		}
	}
	return dst
}
