package intent

import (
	"context"
	"testing"

	"github.com/fitpulse/checkout-gateway/pkg/logger"
	"github.com/fitpulse/checkout-gateway/pkg/platform"
	pkgerrors "github.com/fitpulse/checkout-gateway/pkg/errors"
	"github.com/rs/zerolog"
)

type fakePlatform struct {
	calls   int
	lastReq platform.CreateIntentRequest
	secret  string
	err     error
}

func (f *fakePlatform) CreatePaymentIntent(ctx context.Context, cred platform.Credential, req platform.CreateIntentRequest) (platform.CreateIntentResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return platform.CreateIntentResponse{}, f.err
	}
	return platform.CreateIntentResponse{ClientSecret: f.secret}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled})
}

func testCredential(t *testing.T) platform.Credential {
	t.Helper()
	cred, err := platform.NewCredential("token")
	if err != nil {
		t.Fatalf("NewCredential: %v", err)
	}
	return cred
}

func TestCreateReturnsClientSecret(t *testing.T) {
	api := &fakePlatform{secret: "pi_1_secret_2"}
	svc, err := NewService(api, testLogger(), nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	secret, err := svc.Create(context.Background(), testCredential(t), CreateInput{AmountCents: 1999, PlanType: "Elite"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if secret != "pi_1_secret_2" {
		t.Fatalf("secret = %q", secret)
	}
	if api.lastReq.Amount != 1999 || api.lastReq.PlanType != "Elite" {
		t.Fatalf("unexpected request %+v", api.lastReq)
	}
}

func TestCreateValidatesTerms(t *testing.T) {
	api := &fakePlatform{secret: "pi_1_secret_2"}
	svc, _ := NewService(api, testLogger(), nil)

	if _, err := svc.Create(context.Background(), testCredential(t), CreateInput{AmountCents: 0, PlanType: "Elite"}); err == nil {
		t.Fatal("expected error for zero amount")
	}
	if _, err := svc.Create(context.Background(), testCredential(t), CreateInput{AmountCents: -5, PlanType: "Elite"}); err == nil {
		t.Fatal("expected error for negative amount")
	}
	if _, err := svc.Create(context.Background(), testCredential(t), CreateInput{AmountCents: 999}); err == nil {
		t.Fatal("expected error for missing plan type")
	}
	if api.calls != 0 {
		t.Fatalf("platform should not be called on invalid input, got %d calls", api.calls)
	}
}

func TestCreatePropagatesPlatformError(t *testing.T) {
	api := &fakePlatform{err: pkgerrors.New(pkgerrors.CodeDependency, "platform down")}
	svc, _ := NewService(api, testLogger(), nil)

	_, err := svc.Create(context.Background(), testCredential(t), CreateInput{AmountCents: 999, PlanType: "Premium"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewServiceGuards(t *testing.T) {
	if _, err := NewService(nil, testLogger(), nil); err == nil {
		t.Fatal("expected error for nil api")
	}
	if _, err := NewService(&fakePlatform{}, nil, nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
}
