// Package errors provides error handling utilities for clipforge.
// Includes error wrapping with context, stack traces, and error codes
// that map onto HTTP statuses and job failure reasons.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Code represents an error code for categorization.
type Code string

// Generic codes.
const (
	CodeInternal    Code = "INTERNAL_ERROR"
	CodeValidation  Code = "VALIDATION_ERROR"
	CodeNotFound    Code = "NOT_FOUND"
	CodeConflict    Code = "CONFLICT"
	CodeTimeout     Code = "TIMEOUT"
	CodeUnavailable Code = "UNAVAILABLE"
	CodeBadRequest  Code = "BAD_REQUEST"
)

// Domain codes for the clip rendering pipeline.
const (
	CodeTemplateNotFound      Code = "TEMPLATE_NOT_FOUND"
	CodeJobNotFound           Code = "JOB_NOT_FOUND"
	CodeInvalidPositionPreset Code = "INVALID_POSITION_PRESET"
	CodeInvalidSizePreset     Code = "INVALID_SIZE_PRESET"
	CodeFontNotFound          Code = "FONT_NOT_FOUND"
	CodeRenderTimeout         Code = "RENDER_TIMEOUT"
	CodeRenderFailed          Code = "RENDER_FAILED"
	CodeJobNotReady           Code = "JOB_NOT_READY"
)

// Error is a custom error type with additional context.
type Error struct {
	// Code is the error code for categorization.
	Code Code
	// Message is the human-readable error message.
	Message string
	// Op is the operation that failed (e.g., "template.resolve").
	Op string
	// Err is the underlying error.
	Err error
	// Fields contains additional context fields.
	Fields map[string]any
	// Stack contains the stack trace at error creation.
	Stack []Frame
}

// Frame represents a single stack frame.
type Frame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}

	if e.Code != "" {
		b.WriteString("[")
		b.WriteString(string(e.Code))
		b.WriteString("] ")
	}

	b.WriteString(e.Message)

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithField adds a field to the error.
func (e *Error) WithField(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

// HTTPStatus returns the appropriate HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation, CodeBadRequest, CodeInvalidPositionPreset, CodeInvalidSizePreset:
		return 400
	case CodeNotFound, CodeTemplateNotFound, CodeJobNotFound, CodeFontNotFound:
		return 404
	case CodeConflict, CodeJobNotReady:
		return 409
	case CodeTimeout, CodeRenderTimeout:
		return 504
	case CodeUnavailable:
		return 503
	default:
		return 500
	}
}

// New creates a new error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, op string, message string) *Error {
	if err == nil {
		return nil
	}

	// If it's already our error type, preserve the code
	var e *Error
	if errors.As(err, &e) {
		return &Error{
			Code:    e.Code,
			Message: message,
			Op:      op,
			Err:     err,
			Fields:  e.Fields,
			Stack:   captureStack(2),
		}
	}

	return &Error{
		Code:    CodeInternal,
		Message: message,
		Op:      op,
		Err:     err,
		Stack:   captureStack(2),
	}
}

// WrapWithCode wraps an error with a specific code.
func WrapWithCode(err error, code Code, op string, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
		Stack:   captureStack(2),
	}
}

// Internal creates an internal error.
func Internal(message string) *Error {
	return New(CodeInternal, message)
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return Newf(CodeValidation, format, args...)
}

// ValidationField creates a validation error for a specific field.
func ValidationField(field string, message string) *Error {
	return New(CodeValidation, message).WithField("field", field)
}

// TemplateNotFound creates a template lookup failure.
func TemplateNotFound(id string) *Error {
	return Newf(CodeTemplateNotFound, "template not found: %s", id).
		WithField("template_id", id)
}

// JobNotFound creates a job lookup failure.
func JobNotFound(id string) *Error {
	return Newf(CodeJobNotFound, "job not found: %s", id).
		WithField("job_id", id)
}

// InvalidPositionPreset creates a shorthand position expansion failure.
func InvalidPositionPreset(preset string) *Error {
	return Newf(CodeInvalidPositionPreset, "unknown position preset: %q", preset).
		WithField("preset", preset)
}

// InvalidSizePreset creates a shorthand size expansion failure.
func InvalidSizePreset(preset string) *Error {
	return Newf(CodeInvalidSizePreset, "unknown size preset: %q", preset).
		WithField("preset", preset)
}

// FontNotFound creates a font resolution failure.
func FontNotFound(family string) *Error {
	return Newf(CodeFontNotFound, "font family not available: %s", family).
		WithField("font_family", family)
}

// RenderTimeout creates a render timeout failure.
func RenderTimeout(jobID string) *Error {
	return Newf(CodeRenderTimeout, "render exceeded timeout").
		WithField("job_id", jobID)
}

// GetCode extracts the error code from an error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// GetHTTPStatus extracts the HTTP status from an error.
func GetHTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPStatus()
	}
	return 500
}

// GetFields extracts fields from an error.
func GetFields(err error) map[string]any {
	var e *Error
	if errors.As(err, &e) && e.Fields != nil {
		return e.Fields
	}
	return nil
}

// IsCode checks if an error has a specific code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// IsNotFound checks if an error is any of the not-found conditions.
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case CodeNotFound, CodeTemplateNotFound, CodeJobNotFound, CodeFontNotFound:
		return true
	}
	return false
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return IsCode(err, CodeValidation)
}

// captureStack captures the current stack trace.
func captureStack(skip int) []Frame {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(skip+1, pcs[:])

	frames := make([]Frame, 0, n)
	callersFrames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := callersFrames.Next()

		// Skip runtime frames
		if strings.Contains(frame.File, "runtime/") {
			if !more {
				break
			}
			continue
		}

		frames = append(frames, Frame{
			File:     frame.File,
			Line:     frame.Line,
			Function: frame.Function,
		})

		if !more || len(frames) >= 10 {
			break
		}
	}

	return frames
}

// As is a convenience wrapper for errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is a convenience wrapper for errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
