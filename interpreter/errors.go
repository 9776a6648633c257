package interpreter

import "github.com/joomcode/errorx"

var (
	Errors = errorx.NewNamespace("interpreter")
	// VerifyError is raised at load time for code the JVM verifier would reject before running it.
	VerifyError = Errors.NewType("verify")
	// RuntimeError is raised while executing, e.g. on a stack overflow beyond max_stack or a null receiver.
	RuntimeError = Errors.NewType("runtime")
)
