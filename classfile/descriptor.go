package classfile

import "strings"

// Internal names and descriptors of the platform classes and members the generated code touches.
const (
	ObjectClass      = "java/lang/Object"
	StringClass      = "java/lang/String"
	SystemClass      = "java/lang/System"
	PrintStreamClass = "java/io/PrintStream"
	BigIntegerClass  = "java/math/BigInteger"

	LongDescriptor        = "J"
	IntDescriptor         = "I"
	StringDescriptor      = "L" + StringClass + ";"
	PrintStreamDescriptor = "L" + PrintStreamClass + ";"
	BigIntegerDescriptor  = "L" + BigIntegerClass + ";"

	VoidMethodDescriptor            = "()V"
	VoidIntMethodDescriptor         = "(I)V"
	VoidLongMethodDescriptor        = "(J)V"
	VoidStringMethodDescriptor      = "(" + StringDescriptor + ")V"
	VoidStringArrayMethodDescriptor = "([" + StringDescriptor + ")V"
	BigIntegerAddDescriptor         = "(" + BigIntegerDescriptor + ")" + BigIntegerDescriptor

	ConstructorName = "<init>"
	MainMethodName  = "main"
	OutFieldName    = "out"
	OneFieldName    = "ONE"
	PrintName       = "print"
	PrintlnName     = "println"
	AddName         = "add"
)

// Access flags.
const (
	AccPublic    uint16 = 0x0001
	AccPrivate   uint16 = 0x0002
	AccProtected uint16 = 0x0004
	AccStatic    uint16 = 0x0008
	AccSuper     uint16 = 0x0020
	AccSynthetic uint16 = 0x1000
)

// InternalName turns a binary name like com.example.Main into com/example/Main.
func InternalName(className string) string {
	return strings.ReplaceAll(className, ".", "/")
}

// IsUnqualifiedName reports whether name may be used as a method or field name: it must be non
// empty and contain none of . ; [ / < >.
func IsUnqualifiedName(name string) bool {
	return name != "" && !strings.ContainsAny(name, ".;[/<>")
}

// IsInternalClassName reports whether name is a legal internal class name, that is a list of
// unqualified names separated by '/'.
func IsInternalClassName(name string) bool {
	for _, segment := range strings.Split(name, "/") {
		if !IsUnqualifiedName(segment) {
			return false
		}
	}
	return true
}
