package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fitpulse/checkout-gateway/pkg/config"
	"github.com/fitpulse/checkout-gateway/pkg/enums"
	"github.com/fitpulse/checkout-gateway/pkg/logger"
	"github.com/fitpulse/checkout-gateway/pkg/platform"
	pkgerrors "github.com/fitpulse/checkout-gateway/pkg/errors"
)

// PlatformAPI is the slice of the platform client used to write ledger rows.
type PlatformAPI interface {
	RecordTransaction(ctx context.Context, cred platform.Credential, record platform.TransactionRecord) error
}

// Guard deduplicates recording attempts per payment intent across gateway
// instances. Satisfied by the redis client.
type Guard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ConfirmGuardKey(intentID string) string
}

// RecordInput identifies a successful provider charge to be written to the
// platform ledger.
type RecordInput struct {
	AmountCents           int
	PlanType              string
	ProviderTransactionID string
}

// Service records a completed card payment on the platform ledger. Recording
// is fire-once: a failed write is never retried here, the flow escalates it
// instead.
type Service interface {
	RecordCardPayment(ctx context.Context, cred platform.Credential, in RecordInput) (bool, error)
}

type service struct {
	api         PlatformAPI
	guard       Guard
	guardTTL    time.Duration
	methodLabel string
	logg        *logger.Logger
}

func NewService(api PlatformAPI, guard Guard, cfg config.CheckoutConfig, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("platform api is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		api:         api,
		guard:       guard,
		guardTTL:    cfg.ConfirmGuardTTL,
		methodLabel: cfg.LedgerMethodLabel,
		logg:        logg,
	}, nil
}

// RecordCardPayment writes one ledger row for the charge. Returns false with
// a nil error when the guard shows the intent was already recorded. A guard
// outage is logged and the write proceeds; a duplicate row is preferable to
// a silently dropped one.
func (s *service) RecordCardPayment(ctx context.Context, cred platform.Credential, in RecordInput) (bool, error) {
	if in.ProviderTransactionID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "provider transaction id required")
	}
	if in.AmountCents <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	ctx = s.logg.WithIntentID(ctx, in.ProviderTransactionID)

	if s.guard != nil {
		key := s.guard.ConfirmGuardKey(in.ProviderTransactionID)
		acquired, err := s.guard.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), s.guardTTL)
		if err != nil {
			s.logg.Warn(ctx, "confirm guard unavailable, recording without dedup")
		} else if !acquired {
			s.logg.Info(ctx, "ledger entry already recorded for intent, skipping")
			return false, nil
		}
	}

	record := platform.TransactionRecord{
		Amount: DisplayAmount(in.AmountCents),
		Method: s.methodLabel,
		Status: enums.TransactionStatusCompleted,
		Notes:  fmt.Sprintf("%s plan payment - Transaction ID: %s", in.PlanType, in.ProviderTransactionID),
	}
	if err := s.api.RecordTransaction(ctx, cred, record); err != nil {
		s.logg.Error(ctx, "ledger recording failed for successful charge", err)
		return false, pkgerrors.Wrap(pkgerrors.CodeRecordingFailed, err, "payment succeeded but was not recorded")
	}

	s.logg.Info(ctx, "ledger entry recorded")
	return true, nil
}

// DisplayAmount converts minor units to decimal currency units with two
// decimal places, serialized as a JSON number (9.99, not "9.99").
func DisplayAmount(cents int) json.Number {
	amount := decimal.NewFromInt(int64(cents)).Div(decimal.NewFromInt(100))
	return json.Number(amount.StringFixed(2))
}
