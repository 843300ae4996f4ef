package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"

	pkgerrors "github.com/fitpulse/checkout-gateway/pkg/errors"
	pkgstripe "github.com/fitpulse/checkout-gateway/pkg/stripe"
)

// genericDeclineMessage is shown for provider failures that are not card or
// validation errors. Provider diagnostics must not leak to the user.
const genericDeclineMessage = "An unexpected error occurred."

// PaymentConfirmer exposes the subset of Stripe operations required by the
// confirmation flow.
type PaymentConfirmer interface {
	Confirm(ctx context.Context, clientSecret, paymentMethodID string) (*stripe.PaymentIntent, error)
	Retrieve(ctx context.Context, clientSecret string) (*stripe.PaymentIntent, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the provided Stripe client so the confirmation flow
// can be tested against a fake.
func NewStripeClient(api *pkgstripe.Client) PaymentConfirmer {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) Confirm(ctx context.Context, clientSecret, paymentMethodID string) (*stripe.PaymentIntent, error) {
	id, err := IntentIDFromClientSecret(clientSecret)
	if err != nil {
		return nil, err
	}
	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethodID),
	}
	params.Context = ctx
	intent, err := paymentintent.Confirm(id, params)
	if err != nil {
		return nil, classifyError(err)
	}
	return intent, nil
}

func (w *stripeClientWrapper) Retrieve(ctx context.Context, clientSecret string) (*stripe.PaymentIntent, error) {
	id, err := IntentIDFromClientSecret(clientSecret)
	if err != nil {
		return nil, err
	}
	params := &stripe.PaymentIntentParams{
		ClientSecret: stripe.String(clientSecret),
	}
	params.Context = ctx
	intent, err := paymentintent.Get(id, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieve payment intent")
	}
	return intent, nil
}

// IntentIDFromClientSecret derives the payment intent id from its client
// secret ("pi_XXX_secret_YYY").
func IntentIDFromClientSecret(clientSecret string) (string, error) {
	secret := strings.TrimSpace(clientSecret)
	idx := strings.Index(secret, "_secret")
	if secret == "" || idx <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "malformed client secret")
	}
	return secret[:idx], nil
}

// classifyError converts a Stripe failure into a typed payment error whose
// message is safe to surface. Only card errors keep the provider's wording
// verbatim; invalid_request errors describe API misuse, not user input, so
// they get the generic message like everything else.
func classifyError(err error) error {
	var sErr *stripe.Error
	if errors.As(err, &sErr) && sErr.Type == stripe.ErrorTypeCard {
		msg := strings.TrimSpace(sErr.Msg)
		if msg == "" {
			msg = genericDeclineMessage
		}
		return pkgerrors.Wrap(pkgerrors.CodePaymentFailed, err, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodePaymentFailed, err, genericDeclineMessage)
}
