package errors

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeIO                ErrorCode = "IO_ERROR"
	CodeParse             ErrorCode = "PARSE_ERROR"
	CodeResolution        ErrorCode = "RESOLUTION_ERROR"
	CodeInternalInvariant ErrorCode = "INTERNAL_INVARIANT"
	CodeValidationError   ErrorCode = "VALIDATION_ERROR"
	CodeNotSupported      ErrorCode = "NOT_SUPPORTED"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxPath      = "path"
	CtxImporter  = "importer"
	CtxSpecifier = "specifier"
	CtxBaseDir   = "base_dir"
	CtxLine      = "line"
	CtxColumn    = "column"
	CtxOperation = "operation"
)

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// Invariant reports a broken internal assumption of the graph or cycle logic.
func Invariant(format string, args ...interface{}) error {
	return &DomainError{Code: CodeInternalInvariant, Message: fmt.Sprintf(format, args...)}
}

// AddContext attaches a key to the nearest DomainError in err's chain, or
// wraps err as an internal error when there is none.
func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return err
	}
	return &DomainError{
		Code:    CodeInternalInvariant,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code of the first DomainError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}
