package classfile

import "encoding/binary"

// Verification type tags of the StackMapTable attribute.
const (
	ItemTop               byte = 0
	ItemInteger           byte = 1
	ItemFloat             byte = 2
	ItemDouble            byte = 3
	ItemLong              byte = 4
	ItemNull              byte = 5
	ItemUninitializedThis byte = 6
	ItemObject            byte = 7
	ItemUninitialized     byte = 8
)

// VerificationType describes one local variable or operand stack entry in a stack map frame.
// Class is set for ItemObject, Offset for ItemUninitialized.
type VerificationType struct {
	Tag    byte
	Class  string
	Offset uint16
}

var IntegerType = VerificationType{Tag: ItemInteger}

// ObjectType is the verification type of an instance of the given internal class name.
func ObjectType(internalName string) VerificationType {
	return VerificationType{Tag: ItemObject, Class: internalName}
}

type FrameKind int

const (
	// SameFrame keeps the locals of the previous frame with an empty stack.
	SameFrame FrameKind = iota
	// SameLocals1StackItemFrame keeps the previous locals with exactly one stack entry.
	SameLocals1StackItemFrame
	// FullFrame lists every local and stack entry explicitly.
	FullFrame
)

// Frame is the state the verifier must assume at a branch target or after an unconditional jump.
type Frame struct {
	Kind   FrameKind
	Locals []VerificationType
	Stack  []VerificationType
}

func NewSameFrame() Frame {
	return Frame{Kind: SameFrame}
}

func NewSameLocals1StackItemFrame(item VerificationType) Frame {
	return Frame{Kind: SameLocals1StackItemFrame, Stack: []VerificationType{item}}
}

func NewFullFrame(locals, stack []VerificationType) Frame {
	return Frame{Kind: FullFrame, Locals: locals, Stack: stack}
}

type placedFrame struct {
	offset int
	frame  Frame
}

func appendVerificationType(dst []byte, pool *ConstantPool, item VerificationType) []byte {
	dst = append(dst, item.Tag)
	switch item.Tag {
	case ItemObject:
		dst = binary.BigEndian.AppendUint16(dst, pool.Class(item.Class))
	case ItemUninitialized:
		dst = binary.BigEndian.AppendUint16(dst, item.Offset)
	}
	return dst
}

// encodeStackMapTable writes the body of a StackMapTable attribute. Frames must be sorted by offset
// with no two frames at one offset.
func encodeStackMapTable(pool *ConstantPool, frames []placedFrame) ([]byte, error) {
	dst := binary.BigEndian.AppendUint16(nil, uint16(len(frames)))
	previous := -1
	for _, placed := range frames {
		if placed.offset <= previous {
			return nil, FormatError.New("stack map frames out of order at offset %d", placed.offset)
		}
		delta := placed.offset - previous - 1
		previous = placed.offset
		frame := placed.frame
		switch frame.Kind {
		case SameFrame:
			if delta < 64 {
				dst = append(dst, byte(delta))
			} else {
				dst = append(dst, 251)
				dst = binary.BigEndian.AppendUint16(dst, uint16(delta))
			}
		case SameLocals1StackItemFrame:
			if len(frame.Stack) != 1 {
				return nil, FormatError.New("same_locals_1_stack_item frame with %d stack entries", len(frame.Stack))
			}
			if delta < 64 {
				dst = append(dst, byte(64+delta))
			} else {
				dst = append(dst, 247)
				dst = binary.BigEndian.AppendUint16(dst, uint16(delta))
			}
			dst = appendVerificationType(dst, pool, frame.Stack[0])
		case FullFrame:
			dst = append(dst, 255)
			dst = binary.BigEndian.AppendUint16(dst, uint16(delta))
			dst = binary.BigEndian.AppendUint16(dst, uint16(len(frame.Locals)))
			for _, item := range frame.Locals {
				dst = appendVerificationType(dst, pool, item)
			}
			dst = binary.BigEndian.AppendUint16(dst, uint16(len(frame.Stack)))
			for _, item := range frame.Stack {
				dst = appendVerificationType(dst, pool, item)
			}
		default:
			return nil, FormatError.New("unknown frame kind %d", frame.Kind)
		}
	}
	return dst, nil
}
