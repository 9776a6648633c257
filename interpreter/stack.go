package interpreter

import (
	"math/big"
)

// Values on the operand stack and in locals are int32, int64, string, *big.Int, *printStream or
// nil for the null reference.

type printStream struct{}

// size is the number of stack slots a value occupies.
func size(value interface{}) int {
	if _, long := value.(int64); long {
		return 2
	}
	return 1
}

func className(value interface{}) string {
	switch value.(type) {
	case string:
		return "java/lang/String"
	case *big.Int:
		return "java/math/BigInteger"
	case *printStream:
		return "java/io/PrintStream"
	}
	return ""
}

// operandStack enforces the max_stack value of the running method.
type operandStack struct {
	values []interface{}
	depth  int
	max    int
}

func (stack *operandStack) push(value interface{}) error {
	if stack.depth+size(value) > stack.max {
		return RuntimeError.New("operand stack overflow: max_stack is %d", stack.max)
	}
	stack.values = append(stack.values, value)
	stack.depth += size(value)
	return nil
}

func (stack *operandStack) pop() (interface{}, error) {
	if len(stack.values) == 0 {
		return nil, RuntimeError.New("operand stack underflow")
	}
	value := stack.values[len(stack.values)-1]
	stack.values = stack.values[:len(stack.values)-1]
	stack.depth -= size(value)
	return value, nil
}

// popCategory1 pops a value that is not a long.
func (stack *operandStack) popCategory1() (interface{}, error) {
	value, err := stack.pop()
	if err != nil {
		return nil, err
	}
	if size(value) != 1 {
		return nil, RuntimeError.New("expected a category 1 value, found a long")
	}
	return value, nil
}

func (stack *operandStack) popInt() (int32, error) {
	value, err := stack.pop()
	if err != nil {
		return 0, err
	}
	i, ok := value.(int32)
	if !ok {
		return 0, RuntimeError.New("expected int on the stack, found %T", value)
	}
	return i, nil
}

func (stack *operandStack) popLong() (int64, error) {
	value, err := stack.pop()
	if err != nil {
		return 0, err
	}
	l, ok := value.(int64)
	if !ok {
		return 0, RuntimeError.New("expected long on the stack, found %T", value)
	}
	return l, nil
}

func (stack *operandStack) peek() (interface{}, error) {
	if len(stack.values) == 0 {
		return nil, RuntimeError.New("operand stack underflow")
	}
	return stack.values[len(stack.values)-1], nil
}
