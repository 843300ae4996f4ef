package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentIncident is a charged-but-unrecorded payment awaiting manual
// reconciliation by support. Rows are append-only.
type PaymentIncident struct {
	// The id is assigned in Go; a DB-side uuid default would tie the schema
	// to postgres and break the sqlite dev path.
	ID                    uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	SessionID             uuid.UUID  `gorm:"column:session_id;type:uuid;not null"`
	ProviderTransactionID string     `gorm:"column:provider_transaction_id;not null"`
	AmountCents           int        `gorm:"column:amount_cents;not null"`
	PlanType              string     `gorm:"column:plan_type;not null"`
	FailureMessage        string     `gorm:"column:failure_message;not null"`
	ResolvedAt            *time.Time `gorm:"column:resolved_at"`
	CreatedAt             time.Time  `gorm:"column:created_at;autoCreateTime"`
}
