package model

import (
	"errors"
	"testing"
	"time"
)

func TestNewValidationError_MessageFollowsFieldPriority(t *testing.T) {
	apiErr := NewValidationError(map[string]string{
		"message": "Message must be at least 10 characters",
		"email":   "Invalid email address",
	})

	if apiErr.Message != "Invalid email address" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "Invalid email address")
	}
	if apiErr.Code != ErrCodeValidationFailed {
		t.Errorf("Code = %q, want %q", apiErr.Code, ErrCodeValidationFailed)
	}
	if len(apiErr.Fields) != 2 {
		t.Errorf("len(Fields) = %d, want 2", len(apiErr.Fields))
	}
}

func TestNewValidationError_UnknownFieldUsesItsMessage(t *testing.T) {
	apiErr := NewValidationError(map[string]string{"publishedAt": "must be a valid date"})

	if apiErr.Message != "must be a valid date" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "must be a valid date")
	}
}

func TestNewRateLimitError_CarriesResetAt(t *testing.T) {
	resetAt := time.Date(2026, 5, 1, 12, 15, 0, 0, time.UTC)
	apiErr := NewRateLimitError(resetAt)

	if !apiErr.ResetAt.Equal(resetAt) {
		t.Errorf("ResetAt = %v, want %v", apiErr.ResetAt, resetAt)
	}
	if apiErr.Category != CategoryRateLimit {
		t.Errorf("Category = %q, want %q", apiErr.Category, CategoryRateLimit)
	}
}

func TestAPIError_ErrorIncludesCode(t *testing.T) {
	apiErr := NewContentNotFoundError("post", "missing")

	if got := apiErr.Error(); got == "" {
		t.Fatal("Error() should not be empty")
	}
	if apiErr.Message != "No post found for slug: missing" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "No post found for slug: missing")
	}
}

func TestWrapStoreError_KeepsBothErrors(t *testing.T) {
	cause := errors.New("database is locked")
	err := WrapStoreError("購読者の登録に失敗しました", cause)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("errors.As should find the APIError")
	}
	if apiErr.Code != ErrCodeStoreFailed {
		t.Errorf("Code = %q, want %q", apiErr.Code, ErrCodeStoreFailed)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the original cause")
	}
}

func TestWrapDispatchError_Category(t *testing.T) {
	err := WrapDispatchError("送信に失敗しました", errors.New("502"))

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("errors.As should find the APIError")
	}
	if apiErr.Category != CategoryDispatch {
		t.Errorf("Category = %q, want %q", apiErr.Category, CategoryDispatch)
	}
}
