package classfile

import "github.com/joomcode/errorx"

var (
	Errors = errorx.NewNamespace("classfile")
	// FormatError is raised when the class being written exceeds a limit of the class file format.
	FormatError = Errors.NewType("format")
	// MalformedError is raised when parsing bytes that are not a well formed class file.
	MalformedError = Errors.NewType("malformed")
)
