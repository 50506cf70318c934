package utils

import (
	"errors"
	"net/http"
	"testing"
)

func TestIsCode(t *testing.T) {
	err := E(CodeSchemaMismatch, "FeedbackService.Generate", "bad response", errors.New("missing totalScore"))

	if !IsCode(err, CodeSchemaMismatch) {
		t.Fatal("expected SCHEMA_MISMATCH")
	}
	if IsCode(err, CodeInternal) {
		t.Fatal("unexpected code match")
	}
	if IsCode(errors.New("plain"), CodeInternal) {
		t.Fatal("plain errors carry no code")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeInvalidArgument, http.StatusBadRequest},
		{CodeFailedPrecondition, http.StatusPreconditionFailed},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeSchemaMismatch, http.StatusBadGateway},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(E(tc.code, "op", "msg", nil)); got != tc.want {
			t.Fatalf("HTTPStatus(%s) = %d, want %d", tc.code, got, tc.want)
		}
	}

	if got := HTTPStatus(errors.New("plain")); got != http.StatusInternalServerError {
		t.Fatalf("fallback = %d", got)
	}
}
