package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad %s", "input"), KindValidation},
		{"field", Field("note", "is required"), KindValidation},
		{"not found", NotFound("case not found"), KindNotFound},
		{"wrapped conflict", fmt.Errorf("cancel: %w", Conflict("case cannot be cancelled")), KindConflict},
		{"plain error", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKind_HTTPStatus(t *testing.T) {
	if KindValidation.HTTPStatus() != http.StatusBadRequest {
		t.Error("validation should map to 400")
	}
	if KindForbidden.HTTPStatus() != http.StatusForbidden {
		t.Error("forbidden should map to 403")
	}
	if KindNotFound.HTTPStatus() != http.StatusNotFound {
		t.Error("not found should map to 404")
	}
	if KindConflict.HTTPStatus() != http.StatusConflict {
		t.Error("conflict should map to 409")
	}
	if KindInternal.HTTPStatus() != http.StatusInternalServerError {
		t.Error("internal should map to 500")
	}
}

func TestError_Is(t *testing.T) {
	sentinel := NotFound("case not found")
	err := fmt.Errorf("load: %w", NotFound("case not found"))
	if !errors.Is(err, sentinel) {
		t.Error("expected errors.Is to match equal kind and message")
	}
	if errors.Is(err, NotFound("appointment not found")) {
		t.Error("expected different message not to match")
	}
}

func TestField_Error(t *testing.T) {
	err := Field("symptoms", "must not be empty")
	if err.Error() != "symptoms: must not be empty" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
