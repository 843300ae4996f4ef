package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataFor(t *testing.T) {
	tests := []struct {
		code       Code
		httpStatus int
		details    bool
	}{
		{CodeValidation, http.StatusBadRequest, true},
		{CodePaymentFailed, http.StatusPaymentRequired, true},
		{CodeRecordingFailed, http.StatusInternalServerError, true},
		{CodeInternal, http.StatusInternalServerError, false},
		{Code("made_up"), http.StatusInternalServerError, false},
	}

	for _, tc := range tests {
		meta := MetadataFor(tc.code)
		if meta.HTTPStatus != tc.httpStatus {
			t.Fatalf("%s: status = %d, want %d", tc.code, meta.HTTPStatus, tc.httpStatus)
		}
		if meta.DetailsAllowed != tc.details {
			t.Fatalf("%s: details allowed = %v, want %v", tc.code, meta.DetailsAllowed, tc.details)
		}
	}
}

func TestRecordingFailedIsDistinctFromPaymentFailed(t *testing.T) {
	recording := MetadataFor(CodeRecordingFailed)
	failed := MetadataFor(CodePaymentFailed)
	if recording.PublicMessage == failed.PublicMessage {
		t.Fatal("recording-failed must not share the plain payment failure message")
	}
	if recording.Retryable {
		t.Fatal("recording-failed must not be marked retryable")
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := errors.New("socket closed")
	wrapped := Wrap(CodeDependency, cause, "record transaction")

	if !errors.Is(wrapped, cause) {
		t.Fatal("wrapped error should unwrap to cause")
	}
	if got := As(fmt.Errorf("outer: %w", wrapped)); got == nil || got.Code() != CodeDependency {
		t.Fatalf("As should find typed error through wrapping, got %v", got)
	}
	if wrapped.Error() != "DEPENDENCY_ERROR: record transaction" {
		t.Fatalf("unexpected error string %q", wrapped.Error())
	}
}

func TestAsNil(t *testing.T) {
	if As(nil) != nil {
		t.Fatal("As(nil) should be nil")
	}
	if As(errors.New("plain")) != nil {
		t.Fatal("As should not match untyped errors")
	}
}
