package errors

import "fmt"

// Category represents the type of error.
type Category string

const (
	CategoryRuntime Category = "runtime"
	CategoryConfig  Category = "config"
	CategoryCLI     Category = "cli"
)

// SigilError is a structured error with a code, hint, and documentation link.
type SigilError struct {
	// Code is a unique error identifier (e.g., "E101").
	Code string

	// Category is the error type (runtime, config, cli).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *SigilError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *SigilError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *SigilError) WithDetail(d string) *SigilError {
	e.Detail = d
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *SigilError) WithSuggestion(s string) *SigilError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *SigilError) Wrap(err error) *SigilError {
	e.Wrapped = err
	return e
}

// New creates a SigilError from a registered error code.
func New(code string) *SigilError {
	template, ok := registry[code]
	if !ok {
		return &SigilError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &SigilError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new SigilError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *SigilError {
	return &SigilError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a SigilError.
func FromError(err error, code string) *SigilError {
	if err == nil {
		return nil
	}
	if se, ok := err.(*SigilError); ok {
		return se
	}
	return New(code).Wrap(err)
}
