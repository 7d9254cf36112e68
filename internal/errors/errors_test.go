package errors

import (
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{
		Code:    ErrNotFound,
		Status:  404,
		Message: "entry not found: 42",
	}

	expected := "NOT_FOUND: entry not found: 42"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("title is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "title is required" {
		t.Errorf("Message = %q, want %q", err.Message, "title is required")
	}
}

func TestNewUnauthorized(t *testing.T) {
	err := NewUnauthorized("missing Authorization header")

	if err.Code != ErrUnauthorized {
		t.Errorf("Code = %q, want %q", err.Code, ErrUnauthorized)
	}
	if err.Status != 401 {
		t.Errorf("Status = %d, want 401", err.Status)
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("42")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["identifier"] != "42" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "42")
	}
}

func TestNewNotConfigured(t *testing.T) {
	err := NewNotConfigured("EMBEDDING_API_KEY")

	if err.Code != ErrNotConfigured {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotConfigured)
	}
	if err.Status != 500 {
		t.Errorf("Status = %d, want 500", err.Status)
	}
	if err.Details["setting"] != "EMBEDDING_API_KEY" {
		t.Errorf("Details[setting] = %v, want EMBEDDING_API_KEY", err.Details["setting"])
	}
}

func TestNewUnavailable(t *testing.T) {
	err := NewUnavailable("embedding service unavailable")

	if err.Code != ErrUnavailable {
		t.Errorf("Code = %q, want %q", err.Code, ErrUnavailable)
	}
	if err.Status != 503 {
		t.Errorf("Status = %d, want 503", err.Status)
	}
}

func TestNewInternal(t *testing.T) {
	err := NewInternal(fmt.Errorf("connection reset"))

	if err.Code != ErrInternal {
		t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
	}
	if err.Status != 500 {
		t.Errorf("Status = %d, want 500", err.Status)
	}
	if err.Message != "connection reset" {
		t.Errorf("Message = %q, want %q", err.Message, "connection reset")
	}
}

func TestNewInternal_NilError(t *testing.T) {
	err := NewInternal(nil)

	if err.Message != "internal error" {
		t.Errorf("Message = %q, want %q", err.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	err := NewNotFound("42")

	if !Is(err, ErrNotFound) {
		t.Error("Is() = false for matching code")
	}
	if Is(err, ErrInvalidRequest) {
		t.Error("Is() = true for non-matching code")
	}
	if Is(fmt.Errorf("plain error"), ErrNotFound) {
		t.Error("Is() = true for non-Error type")
	}
	if Is(nil, ErrNotFound) {
		t.Error("Is() = true for nil error")
	}
}
