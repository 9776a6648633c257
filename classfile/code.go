package classfile

import (
	"encoding/binary"
	"math"
)

// MaxCodeLength is the largest method body the class file format can describe.
const MaxCodeLength = 0xFFFF

// Label is a bytecode position that may be referenced before it is bound.
type Label struct {
	offset int
	bound  bool
}

type labelReference struct {
	label       *Label
	instruction int // offset of the branch opcode
	operand     int // offset of the 16-bit branch operand
}

// Code builds the body of one method. Branches are written with placeholder offsets and patched
// once every label is bound.
type Code struct {
	pool       *ConstantPool
	bytecode   []byte
	references []labelReference
	frames     []placedFrame
}

func newCode(pool *ConstantPool) *Code {
	return &Code{pool: pool}
}

func (code *Code) Op(op byte) *Code {
	code.bytecode = append(code.bytecode, op)
	return code
}

func (code *Code) opU1(op, operand byte) *Code {
	code.bytecode = append(code.bytecode, op, operand)
	return code
}

func (code *Code) opU2(op byte, operand uint16) *Code {
	code.bytecode = append(code.bytecode, op)
	code.bytecode = binary.BigEndian.AppendUint16(code.bytecode, operand)
	return code
}

// PushInt pushes value with the shortest instruction able to encode it: iconst_<n>, bipush,
// sipush and finally ldc of an Integer constant.
func (code *Code) PushInt(value int32) *Code {
	switch {
	case value >= -1 && value <= 5:
		return code.Op(byte(int32(ICONST_0) + value))
	case value >= math.MinInt8 && value <= math.MaxInt8:
		return code.opU1(BIPUSH, byte(int8(value)))
	case value >= math.MinInt16 && value <= math.MaxInt16:
		return code.opU2(SIPUSH, uint16(int16(value)))
	default:
		return code.ldc(code.pool.Integer(value))
	}
}

func (code *Code) ldc(index uint16) *Code {
	if index <= math.MaxUint8 {
		return code.opU1(LDC, byte(index))
	}
	return code.opU2(LDC_W, index)
}

// PushString loads a String constant.
func (code *Code) PushString(value string) *Code {
	return code.ldc(code.pool.String(value))
}

// PushLong loads a long, using lconst_<n> for 0 and 1.
func (code *Code) PushLong(value int64) *Code {
	switch value {
	case 0:
		return code.Op(LCONST_0)
	case 1:
		return code.Op(LCONST_1)
	}
	return code.opU2(LDC2_W, code.pool.Long(value))
}

var shortVariableOps = map[byte]byte{
	ILOAD:  ILOAD_0,
	ALOAD:  ALOAD_0,
	ISTORE: ISTORE_0,
	ASTORE: ASTORE_0,
}

// Var emits a load or store of the local at index, preferring the <op>_<n> forms.
func (code *Code) Var(op byte, index uint8) *Code {
	if short, exist := shortVariableOps[op]; exist && index <= 3 {
		return code.Op(short + index)
	}
	return code.opU1(op, index)
}

func (code *Code) Iinc(index uint8, delta int8) *Code {
	code.bytecode = append(code.bytecode, IINC, index, byte(delta))
	return code
}

func (code *Code) GetStatic(owner, name, descriptor string) *Code {
	return code.opU2(GETSTATIC, code.pool.Fieldref(owner, name, descriptor))
}

func (code *Code) PutStatic(owner, name, descriptor string) *Code {
	return code.opU2(PUTSTATIC, code.pool.Fieldref(owner, name, descriptor))
}

func (code *Code) InvokeVirtual(owner, name, descriptor string) *Code {
	return code.opU2(INVOKEVIRTUAL, code.pool.Methodref(owner, name, descriptor))
}

func (code *Code) InvokeStatic(owner, name, descriptor string) *Code {
	return code.opU2(INVOKESTATIC, code.pool.Methodref(owner, name, descriptor))
}

func (code *Code) InvokeSpecial(owner, name, descriptor string) *Code {
	return code.opU2(INVOKESPECIAL, code.pool.Methodref(owner, name, descriptor))
}

// Jump emits a branch instruction to label.
func (code *Code) Jump(op byte, label *Label) *Code {
	code.references = append(code.references, labelReference{
		label:       label,
		instruction: len(code.bytecode),
		operand:     len(code.bytecode) + 1,
	})
	return code.opU2(op, 0)
}

// Bind places label at the current offset.
func (code *Code) Bind(label *Label) *Code {
	label.offset = len(code.bytecode)
	label.bound = true
	return code
}

// Frame records the verifier state at the current offset.
func (code *Code) Frame(frame Frame) *Code {
	code.frames = append(code.frames, placedFrame{offset: len(code.bytecode), frame: frame})
	return code
}

// resolve patches every branch and returns the final bytecode.
func (code *Code) resolve() ([]byte, error) {
	if len(code.bytecode) > MaxCodeLength {
		return nil, FormatError.New("method body of %d bytes exceeds %d bytes", len(code.bytecode), MaxCodeLength)
	}
	for _, ref := range code.references {
		if !ref.label.bound {
			return nil, FormatError.New("branch at %d targets an unbound label", ref.instruction)
		}
		delta := ref.label.offset - ref.instruction
		if delta < math.MinInt16 || delta > math.MaxInt16 {
			return nil, FormatError.New("branch at %d is out of range", ref.instruction)
		}
		binary.BigEndian.PutUint16(code.bytecode[ref.operand:], uint16(int16(delta)))
	}
	return code.bytecode, nil
}
