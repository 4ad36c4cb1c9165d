package pkg

import (
	"errors"
	"net/http"
	"testing"
)

func TestAppError(t *testing.T) {
	cause := errors.New("dynamo down")
	err := NewDomainError("INTERNAL_ERROR", "An internal error occurred", cause, http.StatusInternalServerError)

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause")
	}
	if err.Error() != "INTERNAL_ERROR: An internal error occurred: dynamo down" {
		t.Fatalf("unexpected message: %s", err.Error())
	}

	body := err.ToHTTPError()
	if body.Code != "INTERNAL_ERROR" || body.Message != "An internal error occurred" {
		t.Fatalf("unexpected body: %+v", body)
	}

	simple := NewDomainErrorSimple("AUDIT_NOT_FOUND", "Audit not found", http.StatusNotFound)
	if simple.HTTPStatus != http.StatusNotFound || simple.Unwrap() != nil {
		t.Fatalf("unexpected simple error: %+v", simple)
	}
}
