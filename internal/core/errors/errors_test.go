package errors

import (
	"errors"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "file not found")
		if err.Error() != "[NOT_FOUND] file not found" {
			t.Errorf("expected [NOT_FOUND] file not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("unexpected token")
		err := Wrap(original, CodeParseError, "parse failed")
		expected := "[PARSE_ERROR] parse failed: unexpected token"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to be reachable via errors.Is")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeUnknownCategory, "unknown category")
		if !IsCode(err, CodeUnknownCategory) {
			t.Error("expected IsCode to return true for CodeUnknownCategory")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("ContextIsSorted", func(t *testing.T) {
		err := AddContext(New(CodeValidationError, "bad input"), CtxPath, "src/lib.rs")
		err = AddContext(err, CtxCategory, "async-usage")
		expected := "[VALIDATION_ERROR] bad input (category=async-usage path=src/lib.rs)"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("AddContextOnPlainError", func(t *testing.T) {
		err := AddContext(errors.New("boom"), CtxOperation, "review.file")
		if CodeOf(err) != CodeInternal {
			t.Errorf("expected internal code, got %s", CodeOf(err))
		}
	})
}
