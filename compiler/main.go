package main

import (
	"flag"
	"io"
	"os"
	"path/filepath"

	"github.com/xiaobogaga/hq9plus/compiler/internal"
	"github.com/xiaobogaga/hq9plus/util"
	"gitlab.com/efronlicht/enve"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// a simple program compiles a HQ9+ source file into a java class file. Options come from the
// defaults, then HQ9_* environment variables, then the -config file and finally flags.

var (
	inputPath  = flag.String("in", "", "the HQ9+ source file, the first argument is used when empty")
	outputDir  = flag.String("out", "", "the directory receiving the class file, defaults to the source's directory")
	className  = flag.String("class", "", "the class name, defaults to the source file name up to its first dot")
	configPath = flag.String("config", "", "an optional .hcl options file")
	encoding   = flag.String("encoding", "", "the charset of the source file, UTF-8 by default")
	checkOnly  = flag.Bool("check", false, "only check that the source contains valid instructions")
	verbose    = flag.Bool("v", false, "whether print debug logs")

	helloWorldText           = flag.String("hwt", internal.DefaultHelloWorldText, "the text printed by H")
	bottlesOfBeer            = flag.Int("bbc", internal.DefaultBottlesOfBeer, "the bottle count 9 starts from")
	disrespectCase           = flag.Bool("drc", false, "whether h and q are accepted as H and Q")
	allowNumericOverflow     = flag.Bool("ano", true, "whether the accumulator is a wrapping long instead of a BigInteger")
	allowValuePreComputation = flag.Bool("apc", true, "whether constant output may be folded at compile time")
	hMethodName              = flag.String("hmn", "H", "the name of the method implementing H")
	qMethodName              = flag.String("qmn", "Q", "the name of the method implementing Q")
	nineMethodName           = flag.String("nmn", "9", "the name of the method implementing 9")
	plusMethodName           = flag.String("pmn", "+", "the name of the method implementing +")
	counterFieldName         = flag.String("cfn", internal.DefaultCounterFieldName, "the name of the accumulator field")
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
		logger.Error("compile failed", zap.Error(err))
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
		return internal.InvalidConfigurationError.New("no source file given")
	}
	options, sourceEncoding, err := buildOptions(util.ClassNameFromPath(path))
	if err != nil {
		return err
	}
	if err = options.Validate(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	source, err := internal.NewSourceReader(f, sourceEncoding)
	if err != nil {
		return err
	}
	if *checkOnly {
		return checkSource(logger, source, options.RespectCase)
	}

	data, err := internal.NewCompiler(logger).Compile(source, options)
	if err != nil {
		return err
	}
	dir := *outputDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	target := util.ClassFilePath(dir, options.ClassName)
	if err = os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if err = internal.WriteTo(out, data); err != nil {
		return err
	}
	logger.Info("compiled", zap.String("source", path), zap.String("class", target), zap.Int("bytes", len(data)))
	return nil
}

// buildOptions layers the environment, the config file and explicitly set flags over the
// defaults. It also returns the source encoding.
func buildOptions(defaultClassName string) (internal.Options, string, error) {
	options := internal.DefaultOptions(defaultClassName)
	options.HelloWorldText = enve.StringOr("HQ9_HELLO_TEXT", options.HelloWorldText)
	options.BottlesOfBeer = enve.IntOr("HQ9_BOTTLES", options.BottlesOfBeer)
	options.RespectCase = enve.BoolOr("HQ9_RESPECT_CASE", options.RespectCase)
	options.AllowNumericOverflow = enve.BoolOr("HQ9_ALLOW_OVERFLOW", options.AllowNumericOverflow)
	options.AllowValuePreComputation = enve.BoolOr("HQ9_ALLOW_PRECOMPUTATION", options.AllowValuePreComputation)
	sourceEncoding := enve.StringOr("HQ9_SOURCE_ENCODING", "")

	if *configPath != "" {
		file, err := internal.LoadOptionsFile(*configPath)
		if err != nil {
			return options, "", err
		}
		options = file.Apply(options)
		if file.SourceEncoding != nil {
			sourceEncoding = *file.SourceEncoding
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "class":
			options.ClassName = *className
		case "encoding":
			sourceEncoding = *encoding
		case "hwt":
			options.HelloWorldText = *helloWorldText
		case "bbc":
			options.BottlesOfBeer = *bottlesOfBeer
		case "drc":
			options.RespectCase = !*disrespectCase
		case "ano":
			options.AllowNumericOverflow = *allowNumericOverflow
		case "apc":
			options.AllowValuePreComputation = *allowValuePreComputation
		case "hmn":
			options.HMethodName = *hMethodName
		case "qmn":
			options.QMethodName = *qMethodName
		case "nmn":
			options.NineMethodName = *nineMethodName
		case "pmn":
			options.PlusMethodName = *plusMethodName
		case "cfn":
			options.CounterFieldName = *counterFieldName
		}
	})
	return options, sourceEncoding, nil
}

// checkSource reports every character that is not an instruction and fails if there was one.
func checkSource(logger *zap.Logger, source io.RuneReader, respectCase bool) error {
	var first error
	for position := 0; ; position++ {
		r, _, err := source.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if instruction, ok := internal.MatchOptionally(r, respectCase); ok {
			logger.Debug("instruction", zap.Int("position", position), zap.String("description", instruction.Description()))
			continue
		}
		logger.Warn("unrecognized token", zap.Int("position", position), zap.String("token", string(r)))
		if first == nil {
			_, first = internal.Match(r, position, respectCase)
		}
	}
	if first == nil {
		logger.Info("source is valid")
	}
	return first
}
