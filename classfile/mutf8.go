package classfile

import (
	"unicode/utf16"
)

// MaxUtf8Length is the largest byte length of a CONSTANT_Utf8 entry.
const MaxUtf8Length = 0xFFFF

// The class file stores strings in "modified UTF-8": U+0000 takes two bytes and any code point
// above the BMP is written as a surrogate pair, three bytes per surrogate.

func modifiedUTF8Len(r rune) int {
	switch {
	case r >= 0x01 && r <= 0x7F:
		return 1
	case r <= 0x7FF:
		return 2
	case r <= 0xFFFF:
		return 3
	default:
		return 6
	}
}

func appendModifiedUTF8Char(dst []byte, c uint16) []byte {
	switch {
	case c >= 0x01 && c <= 0x7F:
		return append(dst, byte(c))
	case c <= 0x7FF:
		return append(dst, byte(0xC0|(c>>6)), byte(0x80|(c&0x3F)))
	default:
		return append(dst, byte(0xE0|(c>>12)), byte(0x80|((c>>6)&0x3F)), byte(0x80|(c&0x3F)))
	}
}

// EncodeModifiedUTF8 encodes s the way the JVM expects CONSTANT_Utf8 contents.
func EncodeModifiedUTF8(s string) []byte {
	encoded := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFFFF {
			high, low := utf16.EncodeRune(r)
			encoded = appendModifiedUTF8Char(encoded, uint16(high))
			encoded = appendModifiedUTF8Char(encoded, uint16(low))
			continue
		}
		encoded = appendModifiedUTF8Char(encoded, uint16(r))
	}
	return encoded
}

// DecodeModifiedUTF8 is the inverse of EncodeModifiedUTF8.
func DecodeModifiedUTF8(b []byte) (string, error) {
	chars := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c&0x80 == 0:
			if c == 0 {
				return "", MalformedError.New("raw zero byte in modified UTF-8 at %d", i)
			}
			chars = append(chars, uint16(c))
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", MalformedError.New("truncated two byte sequence at %d", i)
			}
			chars = append(chars, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return "", MalformedError.New("truncated three byte sequence at %d", i)
			}
			chars = append(chars, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return "", MalformedError.New("illegal modified UTF-8 byte 0x%02x at %d", c, i)
		}
	}
	return string(utf16.Decode(chars)), nil
}

// SplitModifiedUTF8 cuts s into pieces whose encoded size never exceeds limit bytes. Code points are
// never split. The result always has at least one element.
func SplitModifiedUTF8(s string, limit int) []string {
	var pieces []string
	start, size := 0, 0
	for i, r := range s {
		n := modifiedUTF8Len(r)
		if size+n > limit {
			pieces = append(pieces, s[start:i])
			start, size = i, 0
		}
		size += n
	}
	return append(pieces, s[start:])
}
