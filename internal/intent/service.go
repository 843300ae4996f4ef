package intent

import (
	"context"
	"fmt"

	"github.com/fitpulse/checkout-gateway/pkg/logger"
	"github.com/fitpulse/checkout-gateway/pkg/metrics"
	"github.com/fitpulse/checkout-gateway/pkg/platform"
	pkgerrors "github.com/fitpulse/checkout-gateway/pkg/errors"
)

// PlatformAPI is the slice of the platform client used to mint intents.
type PlatformAPI interface {
	CreatePaymentIntent(ctx context.Context, cred platform.Credential, req platform.CreateIntentRequest) (platform.CreateIntentResponse, error)
}

// CreateInput carries the purchase terms for a new payment intent.
type CreateInput struct {
	AmountCents int
	PlanType    string
}

// Service mints a fresh provider payment intent for a checkout session.
// Every open of the payment dialog gets its own intent; intents are never
// reused across sessions.
type Service interface {
	Create(ctx context.Context, cred platform.Credential, in CreateInput) (string, error)
}

type service struct {
	api  PlatformAPI
	logg *logger.Logger
	mtr  *metrics.CheckoutMetrics
}

func NewService(api PlatformAPI, logg *logger.Logger, mtr *metrics.CheckoutMetrics) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("platform api is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{api: api, logg: logg, mtr: mtr}, nil
}

// Create validates the purchase terms and asks the platform for a payment
// intent, returning the provider client secret.
func (s *service) Create(ctx context.Context, cred platform.Credential, in CreateInput) (string, error) {
	if in.AmountCents <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if in.PlanType == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "plan type required")
	}

	out, err := s.api.CreatePaymentIntent(ctx, cred, platform.CreateIntentRequest{
		Amount:   in.AmountCents,
		PlanType: in.PlanType,
	})
	if err != nil {
		s.mtr.ObserveIntent("failed")
		s.logg.Error(s.logg.WithField(ctx, "plan_type", in.PlanType), "payment intent creation failed", err)
		return "", err
	}

	s.mtr.ObserveIntent("created")
	return out.ClientSecret, nil
}
