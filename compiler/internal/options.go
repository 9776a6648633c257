package internal

import (
	"math"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/xiaobogaga/hq9plus/classfile"
)

const (
	DefaultHelloWorldText   = "Hello, world!"
	DefaultBottlesOfBeer    = 99
	DefaultCounterFieldName = "counter"
)

// Options configures one compilation. It is passed by value and never changed by the compiler.
type Options struct {
	// ClassName is the binary name of the generated class, e.g. "Hello" or "com.example.Hello".
	ClassName      string
	HelloWorldText string
	BottlesOfBeer  int

	HMethodName      string
	QMethodName      string
	NineMethodName   string
	PlusMethodName   string
	CounterFieldName string

	RespectCase bool
	// AllowNumericOverflow selects a wrapping long counter over a BigInteger one.
	AllowNumericOverflow bool
	// AllowValuePreComputation lets the compiler fold output text into constants when the program's
	// output stays the same.
	AllowValuePreComputation bool
}

func DefaultOptions(className string) Options {
	return Options{
		ClassName:                className,
		HelloWorldText:           DefaultHelloWorldText,
		BottlesOfBeer:            DefaultBottlesOfBeer,
		HMethodName:              PrintGreeting.String(),
		QMethodName:              EchoSource.String(),
		NineMethodName:           CountdownVerse.String(),
		PlusMethodName:           IncrementCounter.String(),
		CounterFieldName:         DefaultCounterFieldName,
		RespectCase:              true,
		AllowNumericOverflow:     true,
		AllowValuePreComputation: true,
	}
}

// MethodName is the name of the static method implementing instruction.
func (options Options) MethodName(instruction Instruction) string {
	switch instruction {
	case PrintGreeting:
		return options.HMethodName
	case EchoSource:
		return options.QMethodName
	case CountdownVerse:
		return options.NineMethodName
	default:
		return options.PlusMethodName
	}
}

func (options Options) methodOption(instruction Instruction) string {
	switch instruction {
	case PrintGreeting:
		return "HMethodName"
	case EchoSource:
		return "QMethodName"
	case CountdownVerse:
		return "NineMethodName"
	default:
		return "PlusMethodName"
	}
}

// InternalName is the class name with '/' separators, as the class file stores it.
func (options Options) InternalName() string {
	return classfile.InternalName(options.ClassName)
}

// Validate reports the first option a class file could not represent.
func (options Options) Validate() error {
	if options.ClassName == "" {
		return makeConfigurationErr("ClassName", "class name is empty")
	}
	if !classfile.IsInternalClassName(options.InternalName()) {
		return makeConfigurationErr("ClassName", "illegal class name %q", options.ClassName)
	}
	if options.BottlesOfBeer < 1 {
		return makeConfigurationErr("BottlesOfBeer", "bottles of beer must be at least 1, got %d", options.BottlesOfBeer)
	}
	if options.BottlesOfBeer > math.MaxInt32 {
		return makeConfigurationErr("BottlesOfBeer", "bottles of beer %d does not fit an int", options.BottlesOfBeer)
	}
	used := map[string]Instruction{}
	for _, instruction := range Instructions() {
		name := options.MethodName(instruction)
		option := options.methodOption(instruction)
		if !classfile.IsUnqualifiedName(name) {
			return makeConfigurationErr(option, "illegal method name %q for %s", name, instruction)
		}
		if name == classfile.MainMethodName {
			return makeConfigurationErr(option, "method name %q for %s is reserved", name, instruction)
		}
		if other, exist := used[name]; exist {
			return makeConfigurationErr(option, "method name %q is used by both %s and %s", name, other, instruction)
		}
		used[name] = instruction
	}
	if !classfile.IsUnqualifiedName(options.CounterFieldName) {
		return makeConfigurationErr("CounterFieldName", "illegal field name %q", options.CounterFieldName)
	}
	return nil
}

// OptionsFile is the HCL form of Options. Every attribute is optional and only the ones present
// override the options they are applied to.
type OptionsFile struct {
	ClassName                *string `hcl:"class_name,optional"`
	HelloWorldText           *string `hcl:"hello_world_text,optional"`
	BottlesOfBeer            *int    `hcl:"bottles_of_beer,optional"`
	HMethodName              *string `hcl:"h_method_name,optional"`
	QMethodName              *string `hcl:"q_method_name,optional"`
	NineMethodName           *string `hcl:"nine_method_name,optional"`
	PlusMethodName           *string `hcl:"plus_method_name,optional"`
	CounterFieldName         *string `hcl:"counter_field_name,optional"`
	RespectCase              *bool   `hcl:"respect_case,optional"`
	AllowNumericOverflow     *bool   `hcl:"allow_numeric_overflow,optional"`
	AllowValuePreComputation *bool   `hcl:"allow_value_precomputation,optional"`
	SourceEncoding           *string `hcl:"source_encoding,optional"`
}

// LoadOptionsFile decodes an .hcl (or .hcl.json) options file.
func LoadOptionsFile(path string) (*OptionsFile, error) {
	file := &OptionsFile{}
	if err := hclsimple.DecodeFile(path, nil, file); err != nil {
		return nil, InvalidConfigurationError.Wrap(err, "read options file %s", path)
	}
	return file, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// Apply returns options with every attribute present in the file overriding it.
func (file *OptionsFile) Apply(options Options) Options {
	setString(&options.ClassName, file.ClassName)
	setString(&options.HelloWorldText, file.HelloWorldText)
	if file.BottlesOfBeer != nil {
		options.BottlesOfBeer = *file.BottlesOfBeer
	}
	setString(&options.HMethodName, file.HMethodName)
	setString(&options.QMethodName, file.QMethodName)
	setString(&options.NineMethodName, file.NineMethodName)
	setString(&options.PlusMethodName, file.PlusMethodName)
	setString(&options.CounterFieldName, file.CounterFieldName)
	setBool(&options.RespectCase, file.RespectCase)
	setBool(&options.AllowNumericOverflow, file.AllowNumericOverflow)
	setBool(&options.AllowValuePreComputation, file.AllowValuePreComputation)
	return options
}
