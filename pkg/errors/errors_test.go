package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(CodeStateConflict, "payout already settled")
	if got := err.Error(); got != "STATE_CONFLICT: payout already settled" {
		t.Fatalf("unexpected error string: %s", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("row lock timeout")
	err := Wrap(CodeDependency, cause, "payment executor call failed")

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to survive errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code: %s", err.Code())
	}
}

func TestAsUnwrapsThroughChain(t *testing.T) {
	typed := New(CodeNotFound, "payout not found")
	wrapped := fmt.Errorf("handling request: %w", typed)

	got := As(wrapped)
	if got == nil {
		t.Fatal("expected typed error from chain")
	}
	if got.Code() != CodeNotFound {
		t.Fatalf("unexpected code: %s", got.Code())
	}
}

func TestAsReturnsNilForPlainErrors(t *testing.T) {
	if got := As(errors.New("plain")); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeAmountInvalid, "amount exceeds remaining").
		WithDetails(map[string]any{"remaining": "120.00"})
	details, ok := err.Details().(map[string]any)
	if !ok || details["remaining"] != "120.00" {
		t.Fatalf("unexpected details: %v", err.Details())
	}
}
