package internal

import (
	"fmt"

	"github.com/xiaobogaga/hq9plus/classfile"
	"go.uber.org/zap"
)

// Verses of "99 Bottles of Beer". A loop iteration prints
//
//	n bottles of beer on the wall, n bottles of beer.
//	Take one down and pass it around, n-1 bottles of beer on the wall.
//
// and the song always ends with closingVerse followed by the "Go to the store" line.
const (
	bottlesOnTheWallComma = " bottles of beer on the wall, "
	bottlesOfBeerDot      = " bottles of beer."
	takeOneDown           = "Take one down and pass it around, "
	bottlesOnTheWallDot   = " bottles of beer on the wall."
	lastBottle            = "1 bottle of beer on the wall, 1 bottle of beer."
	lastTakeOneDown       = "Take one down and pass it around, no more bottles of beer on the wall."
	noMoreBottles         = "No more bottles of beer on the wall, no more bottles of beer."
	goToTheStore          = "Go to the store and buy some more, "
)

const (
	helperAccess = classfile.AccProtected | classfile.AccStatic | classfile.AccSynthetic
	verseAccess  = classfile.AccPublic | classfile.AccStatic | classfile.AccSynthetic
	fieldAccess  = classfile.AccPrivate | classfile.AccStatic | classfile.AccSynthetic

	// the countdown keeps the remaining bottles in local 0
	bottlesLocal = 0
)

// codeGenerator appends the method implementing one instruction to the class.
type codeGenerator struct {
	class   *classfile.Class
	options Options
	counter Counter
	logger  *zap.Logger
}

func newCodeGenerator(class *classfile.Class, options Options, logger *zap.Logger) *codeGenerator {
	return &codeGenerator{
		class:   class,
		options: options,
		counter: NewCounter(options.AllowNumericOverflow),
		logger:  logger,
	}
}

// generate emits the method of instruction. source is only read for EchoSource.
func (generator *codeGenerator) generate(instruction Instruction, source string) {
	name := generator.options.MethodName(instruction)
	generator.logger.Debug("synthesize method",
		zap.String("method", name), zap.Stringer("instruction", instruction))
	switch instruction {
	case PrintGreeting:
		generator.generateTextMethod(helperAccess, name, generator.options.HelloWorldText)
	case EchoSource:
		generator.generateTextMethod(helperAccess, name, source)
	case CountdownVerse:
		generator.generateBottlesOfBeerMethod(name, int32(generator.options.BottlesOfBeer))
	case IncrementCounter:
		generator.generateIncrementMethod(name)
	}
}

// generateTextMethod writes a method equivalent to System.out.println(text). A text too long
// for one string constant is printed piecewise before the final println.
func (generator *codeGenerator) generateTextMethod(access uint16, name, text string) {
	pieces := classfile.SplitModifiedUTF8(text, classfile.MaxUtf8Length)
	var maxStack uint16 = 2
	if len(pieces) > 1 {
		maxStack = 3
	}
	code := generator.class.AddMethod(access, name, classfile.VoidMethodDescriptor, maxStack, 0).Code
	code.GetStatic(classfile.SystemClass, classfile.OutFieldName, classfile.PrintStreamDescriptor)
	for _, piece := range pieces[:len(pieces)-1] {
		code.Op(classfile.DUP).
			PushString(piece).
			InvokeVirtual(classfile.PrintStreamClass, classfile.PrintName, classfile.VoidStringMethodDescriptor)
	}
	code.PushString(pieces[len(pieces)-1]).
		InvokeVirtual(classfile.PrintStreamClass, classfile.PrintlnName, classfile.VoidStringMethodDescriptor).
		Op(classfile.RETURN)
}

// loopHeaderFrame describes the countdown loop entry: the bottle count in local 0 and System.out
// on the stack.
func loopHeaderFrame() classfile.Frame {
	return classfile.NewFullFrame(
		[]classfile.VerificationType{classfile.IntegerType},
		[]classfile.VerificationType{classfile.ObjectType(classfile.PrintStreamClass)})
}

// loopExitFrame is the state after the loop: locals unchanged, System.out still on the stack.
func loopExitFrame() classfile.Frame {
	return classfile.NewSameLocals1StackItemFrame(classfile.ObjectType(classfile.PrintStreamClass))
}

func printString(code *classfile.Code, text string, newline bool) *classfile.Code {
	method := classfile.PrintName
	if newline {
		method = classfile.PrintlnName
	}
	return code.PushString(text).InvokeVirtual(classfile.PrintStreamClass, method, classfile.VoidStringMethodDescriptor)
}

func printInt(code *classfile.Code) *classfile.Code {
	return code.InvokeVirtual(classfile.PrintStreamClass, classfile.PrintName, classfile.VoidIntMethodDescriptor)
}

// generateBottlesOfBeerMethod keeps System.out at the bottom of the operand stack for the whole
// method and duplicates it before every call. With a single bottle the loop is left out.
func (generator *codeGenerator) generateBottlesOfBeerMethod(name string, bottles int32) {
	code := generator.class.AddMethod(verseAccess, name, classfile.VoidMethodDescriptor, 4, 1).Code
	code.GetStatic(classfile.SystemClass, classfile.OutFieldName, classfile.PrintStreamDescriptor)
	if bottles > 1 {
		begin, end := &classfile.Label{}, &classfile.Label{}
		code.PushInt(bottles).
			Var(classfile.ISTORE, bottlesLocal).
			Bind(begin).
			Frame(loopHeaderFrame()).
			Var(classfile.ILOAD, bottlesLocal).
			Op(classfile.ICONST_1).
			Jump(classfile.IF_ICMPEQ, end)

		// out, n -> out, n, out, n: print n
		code.Var(classfile.ILOAD, bottlesLocal).Op(classfile.DUP2)
		printInt(code)
		// print " bottles of beer on the wall, " below n
		code.Op(classfile.SWAP).Op(classfile.DUP)
		printString(code, bottlesOnTheWallComma, false)
		// n, out -> out, n, out -> out, out, n: print n again
		code.Op(classfile.DUP_X1).Op(classfile.SWAP)
		printInt(code)
		printString(code.Op(classfile.DUP), bottlesOfBeerDot, true)

		printString(code.Op(classfile.DUP), takeOneDown, false)
		code.Op(classfile.DUP).
			Iinc(bottlesLocal, -1).
			Var(classfile.ILOAD, bottlesLocal)
		printInt(code)
		printString(code.Op(classfile.DUP), bottlesOnTheWallDot, true)
		code.Op(classfile.DUP).
			InvokeVirtual(classfile.PrintStreamClass, classfile.PrintlnName, classfile.VoidMethodDescriptor).
			Jump(classfile.GOTO, begin).
			Bind(end).
			Frame(loopExitFrame())
	}
	generator.generateClosingVerse(code, bottles)
	code.Op(classfile.RETURN)
}

// generateClosingVerse expects System.out on the stack and consumes it.
func (generator *codeGenerator) generateClosingVerse(code *classfile.Code, bottles int32) {
	printString(code.Op(classfile.DUP), lastBottle, true)
	printString(code.Op(classfile.DUP), lastTakeOneDown, true)
	code.Op(classfile.DUP).
		InvokeVirtual(classfile.PrintStreamClass, classfile.PrintlnName, classfile.VoidMethodDescriptor)
	printString(code.Op(classfile.DUP), noMoreBottles, true)
	if generator.options.AllowValuePreComputation {
		printString(code, fmt.Sprintf("%s%d%s", goToTheStore, bottles, bottlesOnTheWallDot), true)
		return
	}
	printString(code.Op(classfile.DUP), goToTheStore, false)
	printInt(code.Op(classfile.DUP).PushInt(bottles))
	printString(code, bottlesOnTheWallDot, true)
}

// generateIncrementMethod adds the counter field together with the method incrementing it.
func (generator *codeGenerator) generateIncrementMethod(name string) {
	owner := generator.options.InternalName()
	field := generator.options.CounterFieldName
	counter := generator.counter
	generator.class.AddField(fieldAccess, field, counter.FieldDescriptor(), counter.InitialValue())
	code := generator.class.AddMethod(helperAccess, name, classfile.VoidMethodDescriptor, counter.MaxStack(), 0).Code
	counter.EmitIncrement(code, owner, field)
}

// generateMain starts main(String[]). The assembler appends one invokestatic per instruction.
func (generator *codeGenerator) generateMain() *classfile.Code {
	return generator.class.AddMethod(classfile.AccPublic|classfile.AccStatic, classfile.MainMethodName,
		classfile.VoidStringArrayMethodDescriptor, 0, 1).Code
}

func (generator *codeGenerator) emitCall(main *classfile.Code, instruction Instruction) {
	main.InvokeStatic(generator.options.InternalName(), generator.options.MethodName(instruction), classfile.VoidMethodDescriptor)
}

// generateConstructor writes the default constructor calling Object.<init>.
func (generator *codeGenerator) generateConstructor() {
	generator.class.AddMethod(classfile.AccPublic, classfile.ConstructorName, classfile.VoidMethodDescriptor, 1, 1).Code.
		Var(classfile.ALOAD, 0).
		InvokeSpecial(classfile.ObjectClass, classfile.ConstructorName, classfile.VoidMethodDescriptor).
		Op(classfile.RETURN)
}
