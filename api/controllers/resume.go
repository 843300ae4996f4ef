package controllers

import (
	"net/http"

	"github.com/fitpulse/checkout-gateway/api/responses"
	"github.com/fitpulse/checkout-gateway/api/validators"
	checkoutsvc "github.com/fitpulse/checkout-gateway/internal/checkout"
	"github.com/fitpulse/checkout-gateway/internal/provider"
	"github.com/fitpulse/checkout-gateway/pkg/logger"
	pkgerrors "github.com/fitpulse/checkout-gateway/pkg/errors"
)

// CheckoutResume maps a payment intent's status to a user-facing outcome
// after the browser returns from an off-site redirect step. Query-only: it
// never triggers a confirmation.
func CheckoutResume(confirmer provider.PaymentConfirmer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if confirmer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment provider unavailable"))
			return
		}

		clientSecret, err := validators.RequireQuery(r, "payment_intent_client_secret")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := checkoutsvc.Resume(r.Context(), confirmer, clientSecret)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, outcome)
	}
}
