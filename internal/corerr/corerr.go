// Package corerr defines the error taxonomy shared by every layer of the
// query execution core: parse/translate, type inference, compilation,
// runtime concept/data-validation errors, interrupts, and commit errors.
package corerr

import "fmt"

// Code classifies an error into one of the taxonomy buckets from the
// error handling design. Callers should switch on Code, not on message text.
type Code string

const (
	ParseTranslate Code = "PARSE_TRANSLATE"
	TypeInference  Code = "TYPE_INFERENCE"
	Compile        Code = "COMPILE"
	Concept        Code = "CONCEPT"
	DataValidation Code = "DATA_VALIDATION"
	Interrupt      Code = "INTERRUPT"
	Commit         Code = "COMMIT"
)

// Span points into the original query text for parse/translate/compile
// errors. Line and Column are 1-indexed; Length is in runes.
type Span struct {
	Line   int
	Column int
	Length int
}

// CoreError is the single error type returned across package boundaries.
// Domain is a short namespace ("Concept", "Executor", "Server", ...) used
// by the (out-of-scope) service layer to group errors for clients.
type CoreError struct {
	Code    Code
	Domain  string
	Message string
	Args    map[string]any
	Span    *Span
	cause   error
}

func (e *CoreError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s[%s]: %s: %v", e.Domain, e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Domain, e.Code, e.Message)
}

func (e *CoreError) Unwrap() error { return e.cause }

// New builds a CoreError with no wrapped cause.
func New(code Code, domain, message string, args map[string]any) *CoreError {
	return &CoreError{Code: code, Domain: domain, Message: message, Args: args}
}

// Wrap builds a CoreError that wraps an underlying cause, preserving it
// for errors.As/errors.Is.
func Wrap(code Code, domain, message string, cause error) *CoreError {
	return &CoreError{Code: code, Domain: domain, Message: message, cause: cause}
}

// WithSpan attaches a source span and returns the receiver for chaining.
func (e *CoreError) WithSpan(s Span) *CoreError {
	e.Span = &s
	return e
}
