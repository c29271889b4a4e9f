package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[*Error]int{
		NotFound("Lead not found"):  http.StatusNotFound,
		Validation("Missing email"): http.StatusBadRequest,
		Conflict("duplicate"):       http.StatusConflict,
		Unauthorized("no token"):    http.StatusUnauthorized,
		Internal("boom"):            http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := err.HTTPStatus(); got != want {
			t.Fatalf("%s: expected %d, got %d", err.Message, want, got)
		}
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("dashboard: %w", NotFound("Task not found"))
	if !Is(wrapped, KindNotFound) {
		t.Fatalf("expected wrapped error to keep KindNotFound")
	}
	if got := Message(wrapped); got != "Task not found" {
		t.Fatalf("expected bare message, got %q", got)
	}
	if got := Message(errors.New("plain")); got != "plain" {
		t.Fatalf("expected plain message, got %q", got)
	}
}

func TestOpPrefixesErrorButNotMessage(t *testing.T) {
	err := Conflict("lead id already exists").WithOp("append lead").WithDetails(map[string]string{"leadId": "LEAD-7"})
	if err.Error() != "append lead: lead id already exists" {
		t.Fatalf("unexpected error text %q", err.Error())
	}
	if Message(err) != "lead id already exists" {
		t.Fatalf("unexpected message %q", Message(err))
	}
	if d, ok := err.Details.(map[string]string); !ok || d["leadId"] != "LEAD-7" {
		t.Fatalf("unexpected details %#v", err.Details)
	}
}
