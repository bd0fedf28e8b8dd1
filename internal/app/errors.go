package app

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedEnvironment matches *UnsupportedEnvironmentError.
	ErrUnsupportedEnvironment = errors.New("unsupported environment")
	// ErrInvalidPath matches *InvalidPathError.
	ErrInvalidPath = errors.New("invalid path")
)

// UnsupportedEnvironmentError reports a legacy config.status variable that
// this implementation refuses to honour.
type UnsupportedEnvironmentError struct {
	Variable string
}

func (e *UnsupportedEnvironmentError) Error() string {
	return fmt.Sprintf("Using the %s environment variable is not supported.", e.Variable)
}

func (e *UnsupportedEnvironmentError) Is(target error) bool {
	return target == ErrUnsupportedEnvironment
}

// InvalidPathError reports a topsrcdir that is not absolute.
type InvalidPathError struct {
	Path string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("topsrcdir must be defined as an absolute directory: %s", e.Path)
}

func (e *InvalidPathError) Is(target error) bool {
	return target == ErrInvalidPath
}
