package argx

import "fmt"

// ConfigurationError reports a structural problem while building a parser,
// such as a duplicate destination or a scalar option colliding with a
// namespace. Construction errors are fatal: builder methods panic with a
// *ConfigurationError, and FromConfig converts the panic into an error.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

func configErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// ValueError reports a supplied argument value that failed its declared
// converter. The offending flag is named so the whole invocation can be
// aborted with a useful message.
type ValueError struct {
	Flag  string
	Value string
	Err   error
}

func (e *ValueError) Error() string {
	if e.Flag == "" {
		return fmt.Sprintf("invalid value %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("invalid value %q for %s: %v", e.Value, e.Flag, e.Err)
}

func (e *ValueError) Unwrap() error { return e.Err }

// ExitError carries a user-facing message together with the process exit
// code that Parse applies when the exit-on-error policy is active.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}
