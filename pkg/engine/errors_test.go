package engine

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessageCarriesContext(t *testing.T) {
	cause := errors.New("exit status 1")
	err := NewStepExecutionError("tofu apply failed", cause).
		WithEnvironment("staging").
		WithOperation("provision").
		WithHint("run 'envlane provision staging' to retry")

	msg := err.Error()
	for _, want := range []string{
		"step_execution",
		"tofu apply failed",
		"environment=staging",
		"operation=provision",
		"exit status 1",
		"hint:",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q missing %q", msg, want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewPersistenceError("save failed", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is must see through to the cause")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	var e *Error
	if !errors.As(wrapped, &e) {
		t.Fatal("errors.As must find the classified error through wrapping")
	}
	if e.Kind != KindPersistence {
		t.Errorf("Kind = %q, want %q", e.Kind, KindPersistence)
	}
}

func TestErrorIsMatchesOnKind(t *testing.T) {
	err := NewTimeoutError("ssh wait", nil).WithEnvironment("staging")
	if !errors.Is(err, &Error{Kind: KindTimeout}) {
		t.Error("errors.Is must match on kind")
	}
	if errors.Is(err, &Error{Kind: KindNotFound}) {
		t.Error("errors.Is must not match a different kind")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"classified", NewValidationError("bad name", nil), KindValidation},
		{"wrapped classified", fmt.Errorf("ctx: %w", NewNotFoundError("missing", nil)), KindNotFound},
		{"unclassified defaults to step execution", errors.New("plain"), KindStepExecution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindPredicates(t *testing.T) {
	if !IsNotFound(NewNotFoundError("x", nil)) {
		t.Error("IsNotFound")
	}
	if !IsTypeMismatch(NewTypeMismatchError("x", nil)) {
		t.Error("IsTypeMismatch")
	}
	if !IsValidation(NewValidationError("x", nil)) {
		t.Error("IsValidation")
	}
	if !IsTimeout(NewTimeoutError("x", nil)) {
		t.Error("IsTimeout")
	}
	if IsTimeout(errors.New("plain")) {
		t.Error("IsTimeout must not match unclassified errors")
	}
}
