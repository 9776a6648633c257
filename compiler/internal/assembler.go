package internal

import (
	"strings"

	"github.com/xiaobogaga/hq9plus/classfile"
	"go.uber.org/zap"
)

type AssemblerState int

const (
	OpenState       AssemblerState = iota // class created, main started
	StreamingState                        // at least one character fed
	FinalizingState                       // emitting deferred methods and the constructor
	ClosedState                           // done, or failed
)

var assemblerStateNames = map[AssemblerState]string{
	OpenState:       "open",
	StreamingState:  "streaming",
	FinalizingState: "finalizing",
	ClosedState:     "closed",
}

func (state AssemblerState) String() string {
	return assemblerStateNames[state]
}

// SynthesisState tracks the method of one instruction.
type SynthesisState int

const (
	NotRequested SynthesisState = iota
	// Requested is only seen for EchoSource, whose method needs the whole source.
	Requested
	Emitted
)

var synthesisStateNames = map[SynthesisState]string{
	NotRequested: "not requested",
	Requested:    "requested",
	Emitted:      "emitted",
}

func (state SynthesisState) String() string {
	return synthesisStateNames[state]
}

// Assembler builds the class in a single forward pass over the source. Each instruction's method
// is written the first time the instruction is seen, except EchoSource whose method is written by
// Finish. Every character adds one invokestatic to main.
type Assembler struct {
	options   Options
	logger    *zap.Logger
	state     AssemblerState
	class     *classfile.Class
	generator *codeGenerator
	main      *classfile.Code
	synthesis [len(instructionTable)]SynthesisState
	source    strings.Builder
	position  int
}

// NewAssembler validates options and starts the class. Nothing is emitted for invalid options.
func NewAssembler(options Options, logger *zap.Logger) (*Assembler, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	class := classfile.NewClass(classfile.AccPublic|classfile.AccSuper, options.InternalName(), classfile.ObjectClass)
	generator := newCodeGenerator(class, options, logger)
	return &Assembler{
		options:   options,
		logger:    logger,
		state:     OpenState,
		class:     class,
		generator: generator,
		main:      generator.generateMain(),
	}, nil
}

func (assembler *Assembler) State() AssemblerState {
	return assembler.state
}

func (assembler *Assembler) Synthesis(instruction Instruction) SynthesisState {
	return assembler.synthesis[instruction]
}

// Calls is the number of characters compiled into main so far.
func (assembler *Assembler) Calls() int {
	return assembler.position
}

// Feed compiles one source character. Any error closes the assembler.
func (assembler *Assembler) Feed(r rune) error {
	if assembler.state != OpenState && assembler.state != StreamingState {
		return IllegalStateError.New("cannot feed %q to a %s assembler", r, assembler.state)
	}
	assembler.state = StreamingState
	instruction, err := Match(r, assembler.position, assembler.options.RespectCase)
	if err != nil {
		assembler.state = ClosedState
		return err
	}
	assembler.source.WriteRune(r)
	assembler.position++
	switch assembler.synthesis[instruction] {
	case NotRequested:
		if instruction == EchoSource {
			assembler.synthesis[instruction] = Requested
			break
		}
		assembler.generator.generate(instruction, "")
		assembler.synthesis[instruction] = Emitted
	}
	assembler.generator.emitCall(assembler.main, instruction)
	return nil
}

// Finish writes the deferred echo method and the constructor, then serializes the class.
func (assembler *Assembler) Finish() ([]byte, error) {
	if assembler.state != OpenState && assembler.state != StreamingState {
		return nil, IllegalStateError.New("cannot finish a %s assembler", assembler.state)
	}
	assembler.state = FinalizingState
	defer func() { assembler.state = ClosedState }()

	if assembler.synthesis[EchoSource] == Requested {
		assembler.logger.Debug("emit deferred echo method", zap.Int("sourceLength", assembler.source.Len()))
		assembler.generator.generate(EchoSource, assembler.source.String())
		assembler.synthesis[EchoSource] = Emitted
	}
	assembler.main.Op(classfile.RETURN)
	assembler.generator.generateConstructor()
	return assembler.class.Bytes()
}
