package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fitpulse/checkout-gateway/internal/incidents"
	"github.com/fitpulse/checkout-gateway/internal/intent"
	"github.com/fitpulse/checkout-gateway/internal/ledger"
	"github.com/fitpulse/checkout-gateway/internal/provider"
	"github.com/fitpulse/checkout-gateway/pkg/config"
	"github.com/fitpulse/checkout-gateway/pkg/enums"
	"github.com/fitpulse/checkout-gateway/pkg/logger"
	"github.com/fitpulse/checkout-gateway/pkg/metrics"
	"github.com/fitpulse/checkout-gateway/pkg/platform"
	pkgerrors "github.com/fitpulse/checkout-gateway/pkg/errors"
)

// OpenInput carries the purchase terms for a new checkout session.
type OpenInput struct {
	AmountCents int
	PlanType    string
	Credential  platform.Credential
}

// SessionView is the API-facing representation of a checkout session.
type SessionView struct {
	ID            uuid.UUID       `json:"id"`
	PlanType      string          `json:"plan_type"`
	AmountCents   int             `json:"amount_cents"`
	DisplayAmount json.Number     `json:"display_amount"`
	ClientSecret  string          `json:"client_secret,omitempty"`
	IntentReady   bool            `json:"intent_ready"`
	State         enums.FlowState `json:"state"`
	Message       string          `json:"message"`
	Resubmittable bool            `json:"resubmittable"`
	Recorded      bool            `json:"recorded"`
	Acknowledged  bool            `json:"acknowledged"`
	CreatedAt     time.Time       `json:"created_at"`
}

type session struct {
	id           uuid.UUID
	createdAt    time.Time
	planType     string
	amountCents  int
	clientSecret string
	acknowledged bool
	flow         *Flow
}

// ManagerParams wires the session manager's collaborators.
type ManagerParams struct {
	Intents   intent.Service
	Recorder  ledger.Service
	Incidents incidents.Service
	Provider  provider.PaymentConfirmer
	Metrics   *metrics.CheckoutMetrics
	Logger    *logger.Logger
	Config    config.CheckoutConfig
	OnSuccess func(Receipt)
}

// Manager owns the live checkout sessions of this gateway instance. Every
// open mints a fresh payment intent; sessions are never shared across
// instances and expire after the configured TTL.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session

	intents   intent.Service
	deps      flowDeps
	onSuccess func(Receipt)
	ttl       time.Duration
	now       func() time.Time
}

func NewManager(p ManagerParams) (*Manager, error) {
	if p.Intents == nil {
		return nil, fmt.Errorf("intent service is required")
	}
	if p.Recorder == nil {
		return nil, fmt.Errorf("ledger recorder is required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	ttl := p.Config.SessionTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{
		sessions: make(map[uuid.UUID]*session),
		intents:  p.Intents,
		deps: flowDeps{
			provider:  p.Provider,
			recorder:  p.Recorder,
			incidents: p.Incidents,
			mtr:       p.Metrics,
			logg:      p.Logger,
		},
		onSuccess: p.OnSuccess,
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

// Open starts a checkout session and mints a fresh payment intent for the
// given terms. Intent creation failure does not fail the open: the session
// is returned with submission blocked, matching a dialog that stays visible
// but cannot submit.
func (m *Manager) Open(ctx context.Context, in OpenInput) (SessionView, error) {
	if in.AmountCents <= 0 {
		return SessionView{}, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if in.PlanType == "" {
		return SessionView{}, pkgerrors.New(pkgerrors.CodeValidation, "plan type required")
	}

	id := uuid.New()
	ctx = m.deps.logg.WithSessionID(ctx, id.String())

	secret, err := m.intents.Create(ctx, in.Credential, intent.CreateInput{
		AmountCents: in.AmountCents,
		PlanType:    in.PlanType,
	})
	if err != nil {
		secret = ""
		m.deps.logg.Warn(ctx, "session opened without payment intent, submission blocked")
	}

	s := &session{
		id:           id,
		createdAt:    m.now(),
		planType:     in.PlanType,
		amountCents:  in.AmountCents,
		clientSecret: secret,
	}
	s.flow = newFlow(m.deps, id, in.Credential, in.AmountCents, in.PlanType, secret, m.onSuccess)

	m.mu.Lock()
	m.purgeExpiredLocked()
	m.sessions[id] = s
	view := m.viewLocked(s)
	m.mu.Unlock()

	m.deps.logg.Info(ctx, "checkout session opened")
	return view, nil
}

// Get returns the current session view.
func (m *Manager) Get(sessionID uuid.UUID) (SessionView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookupLocked(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return m.viewLocked(s), nil
}

// Confirm submits the session's payment for confirmation. The manager lock
// is not held across the flow call; the flow serializes itself.
func (m *Manager) Confirm(ctx context.Context, sessionID uuid.UUID, paymentMethodID string) (SessionView, error) {
	m.mu.Lock()
	s, err := m.lookupLocked(sessionID)
	m.mu.Unlock()
	if err != nil {
		return SessionView{}, err
	}

	if _, err := s.flow.Confirm(ctx, paymentMethodID); err != nil {
		return SessionView{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked(s), nil
}

// Acknowledge marks a recording failure as seen by the user, unblocking
// close. Only valid while the session sits in RecordingFailed.
func (m *Manager) Acknowledge(sessionID uuid.UUID) (SessionView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookupLocked(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if s.flow.State() != enums.FlowStateRecordingFailed {
		return SessionView{}, pkgerrors.New(pkgerrors.CodeStateConflict, "nothing to acknowledge")
	}
	s.acknowledged = true
	return m.viewLocked(s), nil
}

// Close discards the session. A session stuck in RecordingFailed cannot be
// closed until the failure has been acknowledged; money was charged and the
// user must see that before the dialog goes away.
func (m *Manager) Close(ctx context.Context, sessionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookupLocked(sessionID)
	if err != nil {
		return err
	}
	switch {
	case s.flow.State() == enums.FlowStateSubmitting:
		return pkgerrors.New(pkgerrors.CodeConflict, "confirmation in flight")
	case s.flow.State() == enums.FlowStateRecordingFailed && !s.acknowledged:
		return pkgerrors.New(pkgerrors.CodeRecordingFailed, MsgRecordingFailed)
	}
	delete(m.sessions, sessionID)
	m.deps.logg.Info(m.deps.logg.WithSessionID(ctx, sessionID.String()), "checkout session closed")
	return nil
}

func (m *Manager) lookupLocked(sessionID uuid.UUID) (*session, error) {
	m.purgeExpiredLocked()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
	}
	return s, nil
}

// purgeExpiredLocked drops sessions past their TTL. Unacknowledged recording
// failures are kept; expiry must not hide a charged-but-unrecorded payment.
func (m *Manager) purgeExpiredLocked() {
	cutoff := m.now().Add(-m.ttl)
	for id, s := range m.sessions {
		if !s.createdAt.Before(cutoff) {
			continue
		}
		if s.flow.State() == enums.FlowStateRecordingFailed && !s.acknowledged {
			continue
		}
		delete(m.sessions, id)
	}
}

// viewLocked reads the session's mutable fields; callers hold m.mu.
func (m *Manager) viewLocked(s *session) SessionView {
	snap := s.flow.Snapshot()
	return SessionView{
		ID:            s.id,
		PlanType:      s.planType,
		AmountCents:   s.amountCents,
		DisplayAmount: ledger.DisplayAmount(s.amountCents),
		ClientSecret:  s.clientSecret,
		IntentReady:   s.clientSecret != "",
		State:         snap.State,
		Message:       snap.Message,
		Resubmittable: snap.Resubmittable,
		Recorded:      snap.Recorded,
		Acknowledged:  s.acknowledged,
		CreatedAt:     s.createdAt,
	}
}
