package provider

import (
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/fitpulse/checkout-gateway/pkg/errors"
)

func TestIntentIDFromClientSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		want    string
		wantErr bool
	}{
		{"well formed", "pi_3Abc_secret_xyz", "pi_3Abc", false},
		{"trailing content", "pi_1_secret_a_b_c", "pi_1", false},
		{"empty", "", "", true},
		{"no marker", "pi_3Abc", "", true},
		{"marker first", "_secret_xyz", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := IntentIDFromClientSecret(tc.secret)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("id = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClassifyErrorCardDeclineKeepsMessage(t *testing.T) {
	cause := &stripe.Error{Type: stripe.ErrorTypeCard, Msg: "Your card was declined."}
	err := classifyError(cause)

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePaymentFailed {
		t.Fatalf("expected payment error, got %v", err)
	}
	if typed.Message() != "Your card was declined." {
		t.Fatalf("card decline message must be verbatim, got %q", typed.Message())
	}
	if !errors.Is(err, error(cause)) {
		t.Fatal("cause should be preserved")
	}
}

func TestClassifyErrorHidesInternalDetail(t *testing.T) {
	tests := []struct {
		name  string
		cause error
	}{
		{"api error", &stripe.Error{Type: stripe.ErrorTypeAPI, Msg: "internal upstream timeout on shard 7"}},
		{"invalid request", &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, Msg: "No such payment_intent: pi_3Abc"}},
		{"idempotency error", &stripe.Error{Type: stripe.ErrorTypeIdempotency, Msg: "key reuse detected"}},
		{"transport error", errors.New("dial tcp: connection refused")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			typed := pkgerrors.As(classifyError(tc.cause))
			if typed == nil || typed.Code() != pkgerrors.CodePaymentFailed {
				t.Fatalf("expected payment error, got %v", typed)
			}
			if typed.Message() != genericDeclineMessage {
				t.Fatalf("internal detail leaked: %q", typed.Message())
			}
		})
	}
}

func TestClassifyErrorEmptyCardMessageFallsBack(t *testing.T) {
	typed := pkgerrors.As(classifyError(&stripe.Error{Type: stripe.ErrorTypeCard}))
	if typed.Message() != genericDeclineMessage {
		t.Fatalf("empty provider message should fall back, got %q", typed.Message())
	}
}

func TestNewStripeClientNil(t *testing.T) {
	if NewStripeClient(nil) != nil {
		t.Fatal("nil api must yield nil confirmer")
	}
}
