package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joomcode/errorx"
	"github.com/xiaobogaga/hq9plus/classfile"
	"github.com/xiaobogaga/hq9plus/interpreter"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// a simple program runs the main method of a class file produced by the HQ9+ compiler without a
// JVM, printing to stdout.

var (
	inputPath   = flag.String("in", "", "the class file to run, the first argument is used when empty")
	counterName = flag.String("counter", "", "when set, print the value of this static field after main returns")
	disassemble = flag.Bool("d", false, "print a listing of every method instead of running main")
	verbose     = flag.Bool("v", false, "whether print debug logs")
)

func setupLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(os.Stderr), level))
}

func main() {
	flag.Parse()
	logger := setupLogger(*verbose)
	if err := run(logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(logger *zap.Logger) error {
	path := *inputPath
	if path == "" {
		path = flag.Arg(0)
	}
	if path == "" {
		flag.Usage()
		return errorx.IllegalArgument.New("no class file given")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	class, err := classfile.Parse(data)
	if err != nil {
		return err
	}
	logger.Debug("loaded class", zap.String("class", class.Name),
		zap.Int("methods", len(class.Methods)), zap.Int("constants", len(class.Constants)))
	if *disassemble {
		for i := range class.Methods {
			listing, err := class.Listing(&class.Methods[i])
			if err != nil {
				return err
			}
			fmt.Print(listing)
		}
		return nil
	}

	machine, err := interpreter.New(class, os.Stdout)
	if err != nil {
		return err
	}
	if err = machine.Run(); err != nil {
		return err
	}
	logger.Debug("main returned", zap.Int("instructions", machine.Executed))
	if *counterName != "" {
		value, exist := machine.Static(*counterName)
		if !exist {
			return errorx.IllegalArgument.New("class %s has no static field %s", class.Name, *counterName)
		}
		fmt.Println(formatValue(value))
	}
	return nil
}

func formatValue(value interface{}) string {
	if value == nil {
		return "null"
	}
	return fmt.Sprint(value)
}
