package internal

import (
	"bufio"
	"io"

	"github.com/joomcode/errorx"
	"go.uber.org/zap"
)

type Compiler struct {
	logger *zap.Logger
}

// NewCompiler returns a compiler logging to logger, or nowhere when logger is nil.
func NewCompiler(logger *zap.Logger) *Compiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{logger: logger}
}

// Compile reads the whole source and returns the class file. Errors of the reader are returned
// as they are.
func (compiler *Compiler) Compile(source io.Reader, options Options) ([]byte, error) {
	compiler.logger.Debug("compiler: start",
		zap.String("class", options.ClassName),
		zap.Int("bottles", options.BottlesOfBeer),
		zap.Bool("respectCase", options.RespectCase),
		zap.Bool("allowNumericOverflow", options.AllowNumericOverflow),
		zap.Bool("allowValuePreComputation", options.AllowValuePreComputation))
	assembler, err := NewAssembler(options, compiler.logger)
	if err != nil {
		return nil, err
	}
	reader, ok := source.(io.RuneReader)
	if !ok {
		reader = bufio.NewReader(source)
	}
	for {
		r, _, err := reader.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if err = assembler.Feed(r); err != nil {
			return nil, err
		}
	}
	data, err := assembler.Finish()
	if err != nil {
		return nil, err
	}
	compiler.logger.Debug("compiler: done", zap.Int("calls", assembler.Calls()), zap.Int("bytes", len(data)))
	return data, nil
}

// CompileTo compiles source into sink. Nothing is written when compilation fails. Both ends are
// closed before returning when they implement io.Closer, a failing sink close after a failed
// compilation is logged and attached to the compile error.
func (compiler *Compiler) CompileTo(source io.Reader, sink io.Writer, options Options) (err error) {
	defer func() {
		if closer, ok := source.(io.Closer); ok {
			if closeErr := closer.Close(); err == nil {
				err = closeErr
			}
		}
	}()
	data, err := compiler.Compile(source, options)
	if err != nil {
		if closer, ok := sink.(io.Closer); ok {
			if closeErr := closer.Close(); closeErr != nil {
				compiler.logger.Warn("compiler: closing sink failed", zap.Error(closeErr))
				// reader errors stay untouched, ours carry the close failure along
				if typed := errorx.Cast(err); typed != nil {
					err = typed.WithUnderlyingErrors(closeErr)
				}
			}
		}
		return err
	}
	return WriteTo(sink, data)
}

// Compile compiles with a compiler that does not log.
func Compile(source io.Reader, options Options) ([]byte, error) {
	return NewCompiler(nil).Compile(source, options)
}
