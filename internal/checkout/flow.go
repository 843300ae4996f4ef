package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/fitpulse/checkout-gateway/internal/incidents"
	"github.com/fitpulse/checkout-gateway/internal/ledger"
	"github.com/fitpulse/checkout-gateway/internal/provider"
	"github.com/fitpulse/checkout-gateway/pkg/enums"
	"github.com/fitpulse/checkout-gateway/pkg/logger"
	"github.com/fitpulse/checkout-gateway/pkg/metrics"
	"github.com/fitpulse/checkout-gateway/pkg/platform"
	pkgerrors "github.com/fitpulse/checkout-gateway/pkg/errors"
)

// User-facing status messages. RecordingFailed wording must stay distinct
// from a failed charge: the card was charged, only the ledger write failed.
const (
	MsgSucceeded       = "Payment succeeded!"
	MsgProcessing      = "Your payment is processing."
	MsgRequiresAction  = "Your payment requires an additional verification step."
	MsgTryAgain        = "Your payment was not successful, please try again."
	MsgDefault         = "Something went wrong."
	MsgRecordingFailed = "Your payment succeeded but could not be recorded. Please contact support."
)

// Receipt identifies a completed, recorded payment, handed to the success
// callback.
type Receipt struct {
	SessionID             uuid.UUID
	ProviderTransactionID string
	AmountCents           int
	PlanType              string
}

// Snapshot is the externally visible view of a confirmation flow.
type Snapshot struct {
	State         enums.FlowState `json:"state"`
	Message       string          `json:"message"`
	Resubmittable bool            `json:"resubmittable"`
	Recorded      bool            `json:"recorded"`
}

type flowDeps struct {
	provider  provider.PaymentConfirmer
	recorder  ledger.Service
	incidents incidents.Service
	mtr       *metrics.CheckoutMetrics
	logg      *logger.Logger
}

// Flow drives one payment confirmation from Idle to a terminal outcome.
// Each checkout session owns exactly one Flow; instances share nothing.
type Flow struct {
	mu   sync.Mutex
	deps flowDeps

	sessionID    uuid.UUID
	cred         platform.Credential
	amountCents  int
	planType     string
	clientSecret string
	onSuccess    func(Receipt)

	state    enums.FlowState
	message  string
	intentID string
	recorded bool
	notified bool
}

func newFlow(deps flowDeps, sessionID uuid.UUID, cred platform.Credential, amountCents int, planType, clientSecret string, onSuccess func(Receipt)) *Flow {
	return &Flow{
		deps:         deps,
		sessionID:    sessionID,
		cred:         cred,
		amountCents:  amountCents,
		planType:     planType,
		clientSecret: clientSecret,
		onSuccess:    onSuccess,
		state:        enums.FlowStateIdle,
	}
}

// Confirm submits the payment to the provider and applies the resulting
// transition. Provider declines are flow outcomes, not errors: they land the
// flow in Failed with a user-facing message and a nil error. Errors are
// reserved for requests that never reached the provider (missing secret,
// submission already in flight, disallowed state).
func (f *Flow) Confirm(ctx context.Context, paymentMethodID string) (Snapshot, error) {
	f.mu.Lock()
	if f.deps.provider == nil {
		// Provider not initialized: confirmation is a no-op, no transition.
		snap := f.snapshotLocked()
		f.mu.Unlock()
		return snap, nil
	}
	if f.clientSecret == "" {
		f.mu.Unlock()
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeStateConflict, "payment context not ready, intent creation failed")
	}
	if f.state == enums.FlowStateSubmitting {
		f.mu.Unlock()
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeConflict, "confirmation already in progress")
	}
	if !f.state.Resubmittable() {
		state := f.state
		f.mu.Unlock()
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot confirm from state %q", state))
	}
	f.state = enums.FlowStateSubmitting
	f.message = ""
	secret := f.clientSecret
	f.mu.Unlock()

	// The lock is released while the provider call is in flight so the
	// Submitting state keeps acting as a reentrancy guard.
	pi, err := f.deps.provider.Confirm(ctx, secret, paymentMethodID)

	f.mu.Lock()
	defer f.mu.Unlock()

	ctx = f.deps.logg.WithSessionID(ctx, f.sessionID.String())
	if err != nil {
		f.state = enums.FlowStateFailed
		f.message = declineMessage(err)
		f.deps.logg.Warn(ctx, "payment confirmation declined")
		f.deps.mtr.ObserveConfirmation(f.state.String())
		return f.snapshotLocked(), nil
	}

	f.intentID = pi.ID
	ctx = f.deps.logg.WithIntentID(ctx, pi.ID)
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		f.settleLocked(ctx)
	case stripe.PaymentIntentStatusProcessing:
		f.state = enums.FlowStateProcessing
		f.message = MsgProcessing
	case stripe.PaymentIntentStatusRequiresAction:
		f.state = enums.FlowStateRequiresAction
		f.message = MsgRequiresAction
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		f.state = enums.FlowStateFailed
		f.message = MsgTryAgain
	default:
		f.state = enums.FlowStateFailed
		f.message = MsgDefault
	}

	f.deps.mtr.ObserveConfirmation(f.state.String())
	return f.snapshotLocked(), nil
}

// settleLocked records the charge on the platform ledger and fires the
// success callback. Called with the mutex held, after the provider reported
// a synchronous succeeded status.
func (f *Flow) settleLocked(ctx context.Context) {
	recorded, err := f.deps.recorder.RecordCardPayment(ctx, f.cred, ledger.RecordInput{
		AmountCents:           f.amountCents,
		PlanType:              f.planType,
		ProviderTransactionID: f.intentID,
	})
	if err != nil {
		f.state = enums.FlowStateRecordingFailed
		f.message = MsgRecordingFailed
		f.reportIncidentLocked(ctx, err)
		return
	}

	// recorded=false means the cross-instance guard saw a prior write; the
	// ledger row exists either way.
	_ = recorded
	f.recorded = true
	f.state = enums.FlowStateSucceeded
	f.message = MsgSucceeded
	if !f.notified && f.onSuccess != nil {
		f.notified = true
		f.onSuccess(Receipt{
			SessionID:             f.sessionID,
			ProviderTransactionID: f.intentID,
			AmountCents:           f.amountCents,
			PlanType:              f.planType,
		})
	}
}

func (f *Flow) reportIncidentLocked(ctx context.Context, cause error) {
	if f.deps.incidents == nil {
		return
	}
	_, err := f.deps.incidents.ReportUnrecorded(ctx, incidents.ReportInput{
		SessionID:             f.sessionID,
		ProviderTransactionID: f.intentID,
		AmountCents:           f.amountCents,
		PlanType:              f.planType,
		FailureMessage:        cause.Error(),
	})
	if err != nil {
		f.deps.logg.Error(ctx, "persisting payment incident failed", err)
	}
}

// State returns the current flow state.
func (f *Flow) State() enums.FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Snapshot returns the externally visible flow view.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Flow) snapshotLocked() Snapshot {
	return Snapshot{
		State:         f.state,
		Message:       f.message,
		Resubmittable: f.state.Resubmittable(),
		Recorded:      f.recorded,
	}
}

// declineMessage extracts the user-facing text for a failed confirmation.
// Typed payment errors already carry a safe message (verbatim for card and
// validation failures); anything else falls back to the generic one.
func declineMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodePaymentFailed {
		if msg := typed.Message(); msg != "" {
			return msg
		}
	}
	return MsgDefault
}

// ResumeOutcome is the status shown after returning from an off-site
// redirect step.
type ResumeOutcome struct {
	State   enums.FlowState `json:"state"`
	Message string          `json:"message"`
}

// Resume re-queries a payment intent once, mapping its status to a
// user-facing outcome. It never triggers a confirmation.
func Resume(ctx context.Context, confirmer provider.PaymentConfirmer, clientSecret string) (ResumeOutcome, error) {
	if confirmer == nil {
		return ResumeOutcome{}, pkgerrors.New(pkgerrors.CodeDependency, "payment provider not configured")
	}
	if clientSecret == "" {
		return ResumeOutcome{}, pkgerrors.New(pkgerrors.CodeValidation, "client secret required")
	}

	pi, err := confirmer.Retrieve(ctx, clientSecret)
	if err != nil {
		return ResumeOutcome{}, err
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return ResumeOutcome{State: enums.FlowStateSucceeded, Message: MsgSucceeded}, nil
	case stripe.PaymentIntentStatusProcessing:
		return ResumeOutcome{State: enums.FlowStateProcessing, Message: MsgProcessing}, nil
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		return ResumeOutcome{State: enums.FlowStateRequiresAction, Message: MsgTryAgain}, nil
	default:
		return ResumeOutcome{State: enums.FlowStateFailed, Message: MsgDefault}, nil
	}
}
