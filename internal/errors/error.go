package errors

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig     Category = "config"
	CategoryValidation Category = "validation"
	CategorySubmission Category = "submission"
	CategoryCLI        Category = "cli"
)

// Location represents a position in an input file.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// SignupError is a structured error with location, suggestion and
// per-field messages.
type SignupError struct {
	// Code is a unique error identifier (e.g., "E101").
	Code string

	// Category is the error type (config, validation, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the input file position where the error occurred.
	Location *Location

	// Context contains surrounding input lines, the first being line
	// ContextStart.
	Context      []string
	ContextStart int

	// Fields holds validation messages keyed by field name.
	Fields map[string][]string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *SignupError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *SignupError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds an input file location to the error.
func (e *SignupError) WithLocation(file string, line, column int) *SignupError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context, e.ContextStart = readContextLines(file, line, 5)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *SignupError) WithSuggestion(s string) *SignupError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *SignupError) WithDetail(d string) *SignupError {
	e.Detail = d
	return e
}

// WithFields attaches per-field validation messages.
func (e *SignupError) WithFields(fields map[string][]string) *SignupError {
	e.Fields = fields
	return e
}

// Wrap wraps another error.
func (e *SignupError) Wrap(err error) *SignupError {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around the specified line number from a file
// and returns them with the number of the first one.
func readContextLines(filename string, targetLine, contextSize int) ([]string, int) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, 0
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := max(targetLine-contextSize/2, 1)
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines, startLine
}

// New creates a SignupError from a registered error code.
func New(code string) *SignupError {
	template, ok := registry[code]
	if !ok {
		return &SignupError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &SignupError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new SignupError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *SignupError {
	return &SignupError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a SignupError. An error that
// already is one, or wraps one, is returned as is.
func FromError(err error, code string) *SignupError {
	if err == nil {
		return nil
	}
	var se *SignupError
	if errors.As(err, &se) {
		return se
	}
	return New(code).Wrap(err)
}
