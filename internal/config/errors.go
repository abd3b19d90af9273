package config

import "fmt"

type ErrorKind string

const (
	ErrMalformed      ErrorKind = "malformed"
	ErrUnknownSection ErrorKind = "unknown_section"
	ErrMissingOption  ErrorKind = "missing_option"
	ErrInvalidOption  ErrorKind = "invalid_option"
)

// Error describes a configuration failure: an unparsable file, a lookup of
// a section that does not exist, a section without one of the mandatory
// options, or an option value that does not coerce to its declared type.
type Error struct {
	Kind    ErrorKind
	Section string
	Option  string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrMalformed:
		return fmt.Sprintf("malformed configuration: %v", e.Err)
	case ErrUnknownSection:
		return fmt.Sprintf("unknown datacenter %s", e.Section)
	case ErrMissingOption:
		return fmt.Sprintf("datacenter %s: missing mandatory option %s", e.Section, e.Option)
	case ErrInvalidOption:
		return fmt.Sprintf("datacenter %s: invalid value for %s: %v", e.Section, e.Option, e.Err)
	default:
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}
