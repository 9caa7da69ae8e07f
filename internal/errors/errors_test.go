package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "message only",
			err: &AppError{
				Code:    ErrCodeNotFound,
				Message: "profile not found",
			},
			want: "profile not found",
		},
		{
			name: "message with cause",
			err: &AppError{
				Code:    ErrCodeInternal,
				Message: "failed to save debt",
				Cause:   errors.New("connection reset"),
			},
			want: "failed to save debt: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &AppError{
		Code:    ErrCodeInternal,
		Message: "wrapped",
		Cause:   cause,
	}

	if unwrapped := err.Unwrap(); !errors.Is(unwrapped, cause) {
		t.Errorf("AppError.Unwrap() = %v, want %v", unwrapped, cause)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantCode ErrorCode
	}{
		{"NotFound", NotFound("missing"), ErrCodeNotFound},
		{"Conflict", Conflict("taken"), ErrCodeConflict},
		{"Validation", Validation("bad input"), ErrCodeValidation},
		{"ForeignKey", ForeignKey("in use"), ErrCodeForeignKey},
		{"Internal", Internal("boom"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.wantCode)
			}
		})
	}
}

func TestValidationField(t *testing.T) {
	err := ValidationField("document", "document is required")
	if err.Code != ErrCodeValidation {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeValidation)
	}
	if err.Field != "document" {
		t.Errorf("Field = %v, want document", err.Field)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("db down")
	err := Wrap(cause, ErrCodeInternal, "failed to list profiles")

	if err.Code != ErrCodeInternal {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInternal)
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
}

func TestWrap_NilError(t *testing.T) {
	if err := Wrap(nil, ErrCodeInternal, "ignored"); err != nil {
		t.Errorf("Wrap(nil, ...) = %v, want nil", err)
	}
}

func TestWrapf(t *testing.T) {
	cause := errors.New("no rows")
	err := Wrapf(cause, ErrCodeNotFound, "debt %s not found", "abc-123")

	if want := "debt abc-123 not found: no rows"; err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
	if err2 := Wrapf(nil, ErrCodeNotFound, "ignored"); err2 != nil {
		t.Errorf("Wrapf(nil, ...) = %v, want nil", err2)
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		pred func(error) bool
		err  error
		want bool
	}{
		{"IsNotFound matches", IsNotFound, NotFound("x"), true},
		{"IsNotFound rejects other code", IsNotFound, Conflict("x"), false},
		{"IsConflict matches", IsConflict, Conflict("x"), true},
		{"IsValidation matches", IsValidation, Validation("x"), true},
		{"IsForeignKey matches", IsForeignKey, ForeignKey("x"), true},
		{"IsInternal matches", IsInternal, Internal("x"), true},
		{"IsTimeout matches", IsTimeout, &AppError{Code: ErrCodeTimeout}, true},
		{"IsCanceled matches", IsCanceled, &AppError{Code: ErrCodeCanceled}, true},
		{"plain error", IsNotFound, errors.New("plain"), false},
		{"nil error", IsNotFound, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred(tt.err); got != tt.want {
				t.Errorf("predicate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPredicates_WrappedError(t *testing.T) {
	inner := NotFound("profile not found")
	outer := fmt.Errorf("loading dashboard: %w", inner)

	if !IsNotFound(outer) {
		t.Error("IsNotFound should see through fmt.Errorf wrapping")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(Conflict("dup")); got != ErrCodeConflict {
		t.Errorf("GetCode = %v, want %v", got, ErrCodeConflict)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
}

func TestGetField(t *testing.T) {
	if got := GetField(ValidationField("email", "required")); got != "email" {
		t.Errorf("GetField = %v, want email", got)
	}
	if got := GetField(Validation("no field")); got != "" {
		t.Errorf("GetField(no field) = %v, want empty", got)
	}
}
