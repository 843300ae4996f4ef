package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fitpulse/checkout-gateway/api/middleware"
	"github.com/fitpulse/checkout-gateway/api/responses"
	"github.com/fitpulse/checkout-gateway/api/validators"
	checkoutsvc "github.com/fitpulse/checkout-gateway/internal/checkout"
	"github.com/fitpulse/checkout-gateway/pkg/logger"
	pkgerrors "github.com/fitpulse/checkout-gateway/pkg/errors"
)

// SessionManager is the checkout surface the controllers depend on.
type SessionManager interface {
	Open(ctx context.Context, in checkoutsvc.OpenInput) (checkoutsvc.SessionView, error)
	Get(sessionID uuid.UUID) (checkoutsvc.SessionView, error)
	Confirm(ctx context.Context, sessionID uuid.UUID, paymentMethodID string) (checkoutsvc.SessionView, error)
	Acknowledge(sessionID uuid.UUID) (checkoutsvc.SessionView, error)
	Close(ctx context.Context, sessionID uuid.UUID) error
}

type openSessionRequest struct {
	AmountCents int    `json:"amount_cents" validate:"required,gt=0"`
	PlanType    string `json:"plan_type" validate:"required"`
}

type confirmSessionRequest struct {
	PaymentMethodID string `json:"payment_method_id" validate:"required"`
}

// OpenCheckoutSession opens a payment dialog session and mints a fresh
// payment intent for its terms.
func OpenCheckoutSession(mgr SessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if mgr == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout manager unavailable"))
			return
		}

		var payload openSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := mgr.Open(r.Context(), checkoutsvc.OpenInput{
			AmountCents: payload.AmountCents,
			PlanType:    payload.PlanType,
			Credential:  middleware.CredentialFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// CheckoutSessionStatus returns the current state and message of a session.
func CheckoutSessionStatus(mgr SessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if mgr == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout manager unavailable"))
			return
		}

		sessionID, err := sessionIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := mgr.Get(sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// ConfirmCheckoutSession submits the session's payment for confirmation.
// Provider declines come back as a 200 with the flow in Failed; only
// request-level failures produce an error envelope.
func ConfirmCheckoutSession(mgr SessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if mgr == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout manager unavailable"))
			return
		}

		sessionID, err := sessionIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload confirmSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := mgr.Confirm(r.Context(), sessionID, payload.PaymentMethodID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AcknowledgeCheckoutSession marks a recording failure as seen, unblocking
// close.
func AcknowledgeCheckoutSession(mgr SessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if mgr == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout manager unavailable"))
			return
		}

		sessionID, err := sessionIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := mgr.Acknowledge(sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CloseCheckoutSession discards a session, honoring the recording-failure
// close guard.
func CloseCheckoutSession(mgr SessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if mgr == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout manager unavailable"))
			return
		}

		sessionID, err := sessionIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := mgr.Close(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "closed"})
	}
}

func sessionIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "sessionID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid session id")
	}
	return id, nil
}
