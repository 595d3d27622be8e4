// Package classfile implements a buffered, allocation-conscious parser for
// the binary JVM classfile format.
package classfile

import (
	"fmt"

	apperrors "github.com/classgraph/classgraph/pkg/errors"
)

// ErrUnexpectedEOF is returned by the byte reader when a required read runs
// past the end of the underlying stream.
var ErrUnexpectedEOF = apperrors.New(apperrors.CodeMalformedClassfile, "unexpected end of input")

// ParseError wraps a structural parse failure with the relative path of the
// classfile that produced it. It is always handled inside Parse and never
// escapes to the caller.
type ParseError struct {
	RelativePath string
	Err          error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.RelativePath, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(relativePath string, err error) *ParseError {
	return &ParseError{RelativePath: relativePath, Err: err}
}

// malformed builds a CodeMalformedClassfile error from a formatted message.
func malformed(format string, args ...interface{}) error {
	return apperrors.New(apperrors.CodeMalformedClassfile, fmt.Sprintf(format, args...))
}

// unsupportedConstant reports a ConstantValue whose constant-pool tag cannot
// be coerced to the descriptor-implied field type.
func unsupportedConstant(format string, args ...interface{}) error {
	return apperrors.New(apperrors.CodeUnsupportedConstant, fmt.Sprintf(format, args...))
}
