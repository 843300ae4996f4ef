package incidents

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitpulse/checkout-gateway/pkg/db/models"
	"github.com/fitpulse/checkout-gateway/pkg/logger"
	"github.com/fitpulse/checkout-gateway/pkg/metrics"
	pkgerrors "github.com/fitpulse/checkout-gateway/pkg/errors"
)

// ReportInput describes a charged-but-unrecorded payment.
type ReportInput struct {
	SessionID             uuid.UUID
	ProviderTransactionID string
	AmountCents           int
	PlanType              string
	FailureMessage        string
}

// Service tracks payments that were charged by the provider but never made it
// to the platform ledger, so support can reconcile them by hand.
type Service interface {
	ReportUnrecorded(ctx context.Context, in ReportInput) (*models.PaymentIncident, error)
	ListOpen(ctx context.Context) ([]models.PaymentIncident, error)
	Resolve(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
	logg *logger.Logger
	mtr  *metrics.CheckoutMetrics
}

func NewService(repo Repository, logg *logger.Logger, mtr *metrics.CheckoutMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: repo, logg: logg, mtr: mtr}, nil
}

func (s *service) ReportUnrecorded(ctx context.Context, in ReportInput) (*models.PaymentIncident, error) {
	if in.ProviderTransactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider transaction id required")
	}

	incident := &models.PaymentIncident{
		SessionID:             in.SessionID,
		ProviderTransactionID: in.ProviderTransactionID,
		AmountCents:           in.AmountCents,
		PlanType:              in.PlanType,
		FailureMessage:        in.FailureMessage,
	}
	if err := s.repo.Create(ctx, incident); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment incident")
	}

	s.mtr.ObserveIncident()
	s.logg.Warn(s.logg.WithIntentID(ctx, in.ProviderTransactionID), "payment incident recorded for support follow-up")
	return incident, nil
}

func (s *service) ListOpen(ctx context.Context) ([]models.PaymentIncident, error) {
	out, err := s.repo.ListOpen(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open incidents")
	}
	return out, nil
}

func (s *service) Resolve(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "incident id required")
	}
	if err := s.repo.Resolve(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "incident not found or already resolved")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve incident")
	}
	return nil
}
