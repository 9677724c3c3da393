package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected, safe to retry", retryable: true},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeExpired, status: http.StatusGone, publicMsg: "auction has ended"},
		{code: CodeInsufficientFunds, status: http.StatusPaymentRequired, publicMsg: "insufficient funds"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			meta := MetadataFor(tt.code)
			if meta.HTTPStatus != tt.status {
				t.Errorf("status: want %d got %d", tt.status, meta.HTTPStatus)
			}
			if meta.PublicMessage != tt.publicMsg {
				t.Errorf("public message: want %q got %q", tt.publicMsg, meta.PublicMessage)
			}
			if meta.Retryable != tt.retryable {
				t.Errorf("retryable: want %v got %v", tt.retryable, meta.Retryable)
			}
			if meta.DetailsAllowed != tt.detailsOK {
				t.Errorf("details allowed: want %v got %v", tt.detailsOK, meta.DetailsAllowed)
			}
		})
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
	if meta.DetailsAllowed {
		t.Fatal("unknown codes must not leak details")
	}
}

func TestNewAndWithDetails(t *testing.T) {
	err := New(CodeValidation, "missing amount")
	if err.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", err.Code())
	}
	if err.Message() != "missing amount" {
		t.Fatalf("unexpected message %q", err.Message())
	}
	if err.Details() != nil {
		t.Fatal("details should be nil by default")
	}

	err.WithDetails(map[string]any{"field": "amount"})
	if err.Details() == nil {
		t.Fatal("details should be preserved")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("deadlock detected")
	wrapped := Wrap(CodeConflict, cause, "placing bid")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatal("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}

	// A nil cause degrades to a plain New.
	plain := Wrap(CodeInternal, nil, "no cause")
	if plain.Unwrap() != nil {
		t.Fatal("expected no cause")
	}
}

func TestAsWalksErrorChain(t *testing.T) {
	inner := New(CodeForbidden, "cannot bid on your own auction")
	outer := fmt.Errorf("handling request: %w", inner)

	if got := As(outer); got == nil || got.Code() != CodeForbidden {
		t.Fatal("As failed to find the typed error in the chain")
	}
	if As(stdErrors.New("plain")) != nil {
		t.Fatal("As should return nil for untyped errors")
	}
	if As(nil) != nil {
		t.Fatal("As(nil) should return nil")
	}
}
