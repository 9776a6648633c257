package classfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModifiedUTF8(t *testing.T) {
	testData := []struct {
		text    string
		encoded []byte
	}{
		{text: "Hello", encoded: []byte("Hello")},
		{text: "\x00", encoded: []byte{0xC0, 0x80}},
		{text: "é", encoded: []byte{0xC3, 0xA9}},
		{text: "€", encoded: []byte{0xE2, 0x82, 0xAC}},
		{text: "😀", encoded: []byte{0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80}},
	}
	for _, data := range testData {
		encoded := EncodeModifiedUTF8(data.text)
		assert.Equal(t, data.encoded, encoded, data.text)
		decoded, err := DecodeModifiedUTF8(encoded)
		assert.Nil(t, err)
		assert.Equal(t, data.text, decoded)
	}
}

func TestDecodeModifiedUTF8_Malformed(t *testing.T) {
	for _, raw := range [][]byte{{0x00}, {0xC3}, {0xE2, 0x82}, {0xFF}} {
		_, err := DecodeModifiedUTF8(raw)
		assert.NotNil(t, err, "%v", raw)
	}
}

func TestSplitModifiedUTF8(t *testing.T) {
	assert.Equal(t, []string{""}, SplitModifiedUTF8("", 4))
	assert.Equal(t, []string{"abcd", "ef"}, SplitModifiedUTF8("abcdef", 4))
	// the three byte euro sign never straddles two pieces
	assert.Equal(t, []string{"ab", "€a"}, SplitModifiedUTF8("ab€a", 4))

	long := strings.Repeat("é", MaxUtf8Length)
	pieces := SplitModifiedUTF8(long, MaxUtf8Length)
	assert.Len(t, pieces, 3)
	assert.Equal(t, long, strings.Join(pieces, ""))
	for _, piece := range pieces {
		assert.True(t, len(EncodeModifiedUTF8(piece)) <= MaxUtf8Length)
	}
}
