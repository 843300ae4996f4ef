package platform

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fitpulse/checkout-gateway/pkg/config"
	"github.com/fitpulse/checkout-gateway/pkg/enums"
	pkgerrors "github.com/fitpulse/checkout-gateway/pkg/errors"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.PlatformConfig{BaseURL: server.URL, Timeout: 5 * time.Second})
}

func mustCredential(t *testing.T) Credential {
	t.Helper()
	cred, err := NewCredential("token-abc")
	if err != nil {
		t.Fatalf("NewCredential: %v", err)
	}
	return cred
}

func TestCreatePaymentIntent(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payment/create-payment-intent" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		payload, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(payload, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"clientSecret":"pi_123_secret_456"}`))
	})

	out, err := client.CreatePaymentIntent(context.Background(), mustCredential(t), CreateIntentRequest{Amount: 999, PlanType: "Premium"})
	if err != nil {
		t.Fatalf("CreatePaymentIntent: %v", err)
	}
	if out.ClientSecret != "pi_123_secret_456" {
		t.Fatalf("clientSecret = %q", out.ClientSecret)
	}
	if gotAuth != "Bearer token-abc" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotBody["amount"] != float64(999) || gotBody["planType"] != "Premium" {
		t.Fatalf("unexpected body %v", gotBody)
	}
}

func TestCreatePaymentIntentValidation(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request should be sent")
	})

	if _, err := client.CreatePaymentIntent(context.Background(), mustCredential(t), CreateIntentRequest{Amount: 0, PlanType: "Premium"}); err == nil {
		t.Fatal("expected error for non-positive amount")
	}
	if _, err := client.CreatePaymentIntent(context.Background(), mustCredential(t), CreateIntentRequest{Amount: 999}); err == nil {
		t.Fatal("expected error for empty plan type")
	}
	if _, err := client.CreatePaymentIntent(context.Background(), Credential{}, CreateIntentRequest{Amount: 999, PlanType: "Premium"}); err == nil {
		t.Fatal("expected error for empty credential")
	}
}

func TestCreatePaymentIntentMissingSecret(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	_, err := client.CreatePaymentIntent(context.Background(), mustCredential(t), CreateIntentRequest{Amount: 999, PlanType: "Premium"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestRecordTransaction(t *testing.T) {
	var gotBody map[string]any
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payment" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		payload, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(payload, &gotBody)
		w.WriteHeader(http.StatusCreated)
	})

	record := TransactionRecord{
		Amount: json.Number("9.99"),
		Method: "Card (Stripe)",
		Status: enums.TransactionStatusCompleted,
		Notes:  "Premium plan payment - Transaction ID: pi_123",
	}
	if err := client.RecordTransaction(context.Background(), mustCredential(t), record); err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
	if gotBody["amount"] != float64(9.99) {
		t.Fatalf("amount should serialize as a JSON number, got %v", gotBody["amount"])
	}
	if gotBody["status"] != "Completed" {
		t.Fatalf("status = %v", gotBody["status"])
	}
}

func TestRecordTransactionErrors(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	err := client.RecordTransaction(context.Background(), mustCredential(t), TransactionRecord{
		Amount: json.Number("9.99"),
		Method: "Card (Stripe)",
		Status: enums.TransactionStatusCompleted,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestUnauthorizedMapsToTypedError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := client.CreatePaymentIntent(context.Background(), mustCredential(t), CreateIntentRequest{Amount: 999, PlanType: "Premium"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

// Retries are scoped to intent creation. A retried ledger write could
// record the same charge twice.
func TestRetryCountDoesNotApplyToLedgerWrites(t *testing.T) {
	client := NewClient(config.PlatformConfig{BaseURL: "http://platform.test", Timeout: time.Second, RetryCount: 2})
	if client.http.RetryCount != 2 {
		t.Fatalf("intent client retry count = %d, want 2", client.http.RetryCount)
	}
	if client.record.RetryCount != 0 {
		t.Fatalf("record client retry count = %d, want 0", client.record.RetryCount)
	}
}

func TestRecordTransactionAttemptedExactlyOnce(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		// Drop the connection so the client sees a transport error, the
		// case resty would otherwise retry.
		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Fatalf("hijack: %v", err)
		}
		_ = conn.Close()
	}))
	t.Cleanup(server.Close)

	client := NewClient(config.PlatformConfig{BaseURL: server.URL, Timeout: 5 * time.Second, RetryCount: 2})
	err := client.RecordTransaction(context.Background(), mustCredential(t), TransactionRecord{
		Amount: json.Number("9.99"),
		Method: "Card (Stripe)",
		Status: enums.TransactionStatusCompleted,
	})
	if err == nil {
		t.Fatal("expected transport error")
	}
	if hits != 1 {
		t.Fatalf("ledger write attempted %d times, want exactly 1", hits)
	}
}

func TestCredentialFromHeader(t *testing.T) {
	cred, err := CredentialFromHeader("Bearer  abc123 ")
	if err != nil {
		t.Fatalf("CredentialFromHeader: %v", err)
	}
	if cred.bearer() != "abc123" {
		t.Fatalf("token = %q", cred.bearer())
	}
	if _, err := CredentialFromHeader(""); err == nil {
		t.Fatal("expected error for empty header")
	}
	if _, err := CredentialFromHeader("Bearer "); err == nil {
		t.Fatal("expected error for bearer with no token")
	}
}
