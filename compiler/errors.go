package compiler

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported is matched by every UnsupportedError.
	ErrUnsupported = errors.New("compiler: unsupported feature")
	// ErrInvalidAST reports a tree the compiler refuses to render.
	ErrInvalidAST = errors.New("compiler: invalid AST")
)

// UnsupportedError reports a feature the target dialect cannot express.
type UnsupportedError struct {
	Dialect string
	Feature string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s dialect: %s", e.Dialect, e.Feature)
}

func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

// Unsupported returns an UnsupportedError. Feature reads as a sentence
// fragment: "DELETE ... USING is not supported".
func Unsupported(dialect, feature string) error {
	return &UnsupportedError{Dialect: dialect, Feature: feature}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidAST, fmt.Sprintf(format, args...))
}
