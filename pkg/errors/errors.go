// Package errors defines common error types for the application.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the application.
const (
	CodeUnknown       = "UNKNOWN_ERROR"
	CodeDatabaseError = "DATABASE_ERROR"
	CodeUploadError   = "UPLOAD_ERROR"
	CodeDownloadError = "DOWNLOAD_ERROR"
	CodeAnalysisError = "ANALYSIS_ERROR"
	CodeEmptyFile     = "EMPTY_FILE"
	CodeParseError    = "PARSE_ERROR"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeTimeout       = "TIMEOUT_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeConfigError   = "CONFIG_ERROR"

	// CodeMalformedClassfile marks a structural parse error in a classfile
	// (bad magic, unknown constant-pool tag, malformed modified UTF-8,
	// unknown annotation element-value tag, unexpected EOF). The classfile
	// is discarded; the scan continues.
	CodeMalformedClassfile = "MALFORMED_CLASSFILE"
	// CodeUnsupportedConstant marks a constant-pool tag that cannot be
	// coerced to the field-value type requested by a ConstantValue attribute.
	CodeUnsupportedConstant = "UNSUPPORTED_CONSTANT"
	// CodeNameMismatch marks a classfile whose this_class disagrees with
	// its relative path; the classfile is silently skipped.
	CodeNameMismatch = "NAME_MISMATCH"
	// CodeDuplicateClass marks a class scanned twice under the same base
	// name. Unlike the other parse codes this one is fatal to the scan.
	CodeDuplicateClass = "DUPLICATE_CLASS"
)

// AppError represents an application error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error instances.
var (
	ErrDatabaseError         = New(CodeDatabaseError, "database error")
	ErrUploadError           = New(CodeUploadError, "upload error")
	ErrDownloadError         = New(CodeDownloadError, "download error")
	ErrAnalysisError         = New(CodeAnalysisError, "analysis error")
	ErrEmptyFile             = New(CodeEmptyFile, "empty file")
	ErrParseError            = New(CodeParseError, "parse error")
	ErrInvalidInput          = New(CodeInvalidInput, "invalid input")
	ErrTimeout               = New(CodeTimeout, "operation timeout")
	ErrNotFound              = New(CodeNotFound, "resource not found")
	ErrConfigError           = New(CodeConfigError, "configuration error")
	ErrMalformedClassfile    = New(CodeMalformedClassfile, "malformed classfile")
	ErrUnsupportedConstant   = New(CodeUnsupportedConstant, "unsupported constant type")
	ErrNameMismatch          = New(CodeNameMismatch, "this_class does not match relative path")
	ErrDuplicateClass        = New(CodeDuplicateClass, "class scanned twice under the same name")
)

// IsDatabaseError checks if the error is a database error.
func IsDatabaseError(err error) bool {
	return errors.Is(err, ErrDatabaseError)
}

// IsUploadError checks if the error is an upload error.
func IsUploadError(err error) bool {
	return errors.Is(err, ErrUploadError)
}

// IsDownloadError checks if the error is a download error.
func IsDownloadError(err error) bool {
	return errors.Is(err, ErrDownloadError)
}

// IsAnalysisError checks if the error is an analysis error.
func IsAnalysisError(err error) bool {
	return errors.Is(err, ErrAnalysisError)
}

// IsEmptyFileError checks if the error is an empty file error.
func IsEmptyFileError(err error) bool {
	return errors.Is(err, ErrEmptyFile)
}

// IsMalformedClassfileError checks if the error is a structural classfile parse error.
func IsMalformedClassfileError(err error) bool {
	return GetErrorCode(err) == CodeMalformedClassfile
}

// IsDuplicateClassError checks if the error is the fatal duplicate-scan linker error.
func IsDuplicateClassError(err error) bool {
	return GetErrorCode(err) == CodeDuplicateClass
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// ErrorInfo provides error information mapping (compatible with Python version).
var ErrorInfo = map[string]string{
	"DatabaseError": CodeDatabaseError,
	"UploadError":   CodeUploadError,
	"DownloadError": CodeDownloadError,
	"AnalysisError": CodeAnalysisError,
	"EmptyFile":     CodeEmptyFile,
}
