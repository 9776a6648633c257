package classfile

import (
	"strings"
	"testing"

	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
)

func TestConstantPool_Dedup(t *testing.T) {
	pool := NewConstantPool()
	first := pool.Methodref(PrintStreamClass, PrintlnName, VoidStringMethodDescriptor)
	second := pool.Methodref(PrintStreamClass, PrintlnName, VoidStringMethodDescriptor)
	assert.Equal(t, first, second)
	count := pool.Count()
	pool.Utf8(PrintlnName)
	pool.Class(PrintStreamClass)
	assert.Equal(t, count, pool.Count())
	assert.NotEqual(t, first, pool.Methodref(PrintStreamClass, PrintName, VoidStringMethodDescriptor))
}

func TestConstantPool_LongTakesTwoSlots(t *testing.T) {
	pool := NewConstantPool()
	assert.Equal(t, uint16(1), pool.Long(42))
	assert.Equal(t, uint16(3), pool.Utf8("next"))
	assert.Equal(t, uint16(1), pool.Long(42))
	// count is the next free index, as written to the class file
	assert.Equal(t, 4, pool.Count())
}

func TestConstantPool_OversizedUtf8(t *testing.T) {
	pool := NewConstantPool()
	pool.Utf8(strings.Repeat("a", MaxUtf8Length))
	assert.Nil(t, pool.Err())
	pool.Utf8(strings.Repeat("b", MaxUtf8Length+1))
	assert.NotNil(t, pool.Err())
	assert.True(t, errorx.IsOfType(pool.Err(), FormatError))
}

func TestConstantPool_Overflow(t *testing.T) {
	pool := NewConstantPool()
	for i := int32(0); i < 70000 && pool.Err() == nil; i++ {
		pool.Integer(i)
	}
	assert.NotNil(t, pool.Err())
	assert.True(t, errorx.IsOfType(pool.Err(), FormatError))
}
