package internal

import "github.com/joomcode/errorx"

var (
	Errors = errorx.NewNamespace("hq9")
	// UnrecognizedTokenError is raised for a source character that is none of the four instructions.
	UnrecognizedTokenError = Errors.NewType("unrecognized_token")
	// InvalidConfigurationError is raised by Options.Validate, before anything is emitted.
	InvalidConfigurationError = Errors.NewType("invalid_configuration")
	IllegalStateError         = Errors.NewType("illegal_state")

	TokenProperty    = errorx.RegisterProperty("token")
	PositionProperty = errorx.RegisterProperty("position")
	OptionProperty   = errorx.RegisterProperty("option")
)

func makeUnrecognizedTokenErr(r rune, position int) error {
	return UnrecognizedTokenError.New("unrecognized token %q at position %d", r, position).
		WithProperty(TokenProperty, r).
		WithProperty(PositionProperty, position)
}

func makeConfigurationErr(option string, format string, args ...interface{}) error {
	return InvalidConfigurationError.New(format, args...).WithProperty(OptionProperty, option)
}

func IsUnrecognizedToken(err error) bool {
	return errorx.IsOfType(err, UnrecognizedTokenError)
}

func IsInvalidConfiguration(err error) bool {
	return errorx.IsOfType(err, InvalidConfigurationError)
}
