package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   string
		status int
	}{
		{"not found", fmt.Errorf("project p1: %w", ErrNotFound), KindNotFound, http.StatusNotFound},
		{"validation", fmt.Errorf("%w: message required", ErrValidation), KindInvalidInput, http.StatusBadRequest},
		{"unauthorized", ErrUnauthorized, KindUnauthorized, http.StatusUnauthorized},
		{"insufficient", ErrInsufficientCredits, KindInsufficientCredits, http.StatusPaymentRequired},
		{"conflict", &ConflictError{Message: "exists", ResourceType: "purchase"}, KindConflict, http.StatusConflict},
		{"generation wins over cause", &GenerationError{Reason: "empty", Cause: ErrNotFound}, KindGenerationFailed, http.StatusBadGateway},
		{"unknown", errors.New("disk on fire"), KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind := KindOf(tt.err)
			if kind != tt.kind {
				t.Fatalf("KindOf = %q, want %q", kind, tt.kind)
			}
			if got := StatusForKind(kind); got != tt.status {
				t.Errorf("StatusForKind(%q) = %d, want %d", kind, got, tt.status)
			}
		})
	}

	if KindOf(nil) != "" {
		t.Error("nil error should have no kind")
	}
}
