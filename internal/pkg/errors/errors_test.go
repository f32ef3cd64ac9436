package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "invalid input")

	if err.Code != CodeValidation {
		t.Errorf("expected code=%s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "invalid input" {
		t.Errorf("expected message='invalid input', got %s", err.Message)
	}
	if len(err.Stack) == 0 {
		t.Error("expected stack trace to be captured")
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name:     "simple error",
			err:      New(CodeValidation, "invalid"),
			contains: []string{"VALIDATION_ERROR", "invalid"},
		},
		{
			name: "error with op",
			err: &Error{
				Code:    CodeRenderFailed,
				Message: "ffmpeg exited",
				Op:      "render.run",
			},
			contains: []string{"render.run", "RENDER_FAILED", "ffmpeg exited"},
		},
		{
			name: "error with underlying",
			err: &Error{
				Code:    CodeInternal,
				Message: "wrapper",
				Err:     fmt.Errorf("underlying error"),
			},
			contains: []string{"wrapper", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			str := tt.err.Error()
			for _, c := range tt.contains {
				if !strings.Contains(str, c) {
					t.Errorf("expected error string to contain %q, got: %s", c, str)
				}
			}
		})
	}
}

func TestWrapPreservesCode(t *testing.T) {
	original := TemplateNotFound("multi_element_reel")
	wrapped := Wrap(original, "resolver.resolve", "resolve failed")

	if wrapped.Code != CodeTemplateNotFound {
		t.Errorf("expected preserved code, got %s", wrapped.Code)
	}
	if !errors.Is(wrapped, original) {
		t.Error("expected wrapped error to match original via errors.Is")
	}
	if GetFields(wrapped)["template_id"] != "multi_element_reel" {
		t.Error("expected fields to be carried through wrap")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "op", "msg") != nil {
		t.Error("expected Wrap(nil) to return nil")
	}
	if WrapWithCode(nil, CodeRenderFailed, "op", "msg") != nil {
		t.Error("expected WrapWithCode(nil) to return nil")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeValidation, 400},
		{CodeInvalidPositionPreset, 400},
		{CodeInvalidSizePreset, 400},
		{CodeTemplateNotFound, 404},
		{CodeJobNotFound, 404},
		{CodeFontNotFound, 404},
		{CodeJobNotReady, 409},
		{CodeRenderTimeout, 504},
		{CodeInternal, 500},
		{CodeRenderFailed, 500},
	}

	for _, tt := range tests {
		if got := New(tt.code, "x").HTTPStatus(); got != tt.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestDomainConstructors(t *testing.T) {
	if err := JobNotFound("abc"); err.Code != CodeJobNotFound || err.Fields["job_id"] != "abc" {
		t.Errorf("unexpected JobNotFound error: %+v", err)
	}
	if err := InvalidPositionPreset("middle"); err.Code != CodeInvalidPositionPreset {
		t.Errorf("unexpected InvalidPositionPreset error: %+v", err)
	}
	if err := InvalidSizePreset("gigantic"); err.Code != CodeInvalidSizePreset {
		t.Errorf("unexpected InvalidSizePreset error: %+v", err)
	}
	if err := FontNotFound("Comic Sans"); err.Code != CodeFontNotFound {
		t.Errorf("unexpected FontNotFound error: %+v", err)
	}
}

func TestIsNotFound(t *testing.T) {
	for _, err := range []error{
		TemplateNotFound("t"),
		JobNotFound("j"),
		FontNotFound("f"),
		New(CodeNotFound, "generic"),
	} {
		if !IsNotFound(err) {
			t.Errorf("expected IsNotFound for %v", err)
		}
	}
	if IsNotFound(Validation("nope")) {
		t.Error("validation error should not be not-found")
	}
	if IsNotFound(fmt.Errorf("plain")) {
		t.Error("plain error should not be not-found")
	}
}

func TestGetCodeFallback(t *testing.T) {
	if GetCode(fmt.Errorf("plain")) != CodeInternal {
		t.Error("expected CodeInternal for non-coded errors")
	}
	if GetHTTPStatus(fmt.Errorf("plain")) != 500 {
		t.Error("expected 500 for non-coded errors")
	}
}
