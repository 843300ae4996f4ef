package incidents

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitpulse/checkout-gateway/pkg/db"
	"github.com/fitpulse/checkout-gateway/pkg/db/models"
)

// Repository persists payment incidents. Rows are append-only; resolution
// only stamps resolved_at.
type Repository interface {
	Create(ctx context.Context, incident *models.PaymentIncident) error
	ListOpen(ctx context.Context) ([]models.PaymentIncident, error)
	Resolve(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	client *db.Client
}

func NewRepository(client *db.Client) (Repository, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &repository{client: client}, nil
}

func (r *repository) Create(ctx context.Context, incident *models.PaymentIncident) error {
	if incident == nil {
		return fmt.Errorf("incident is required")
	}
	if incident.ID == uuid.Nil {
		incident.ID = uuid.New()
	}
	return r.client.DB().WithContext(ctx).Create(incident).Error
}

func (r *repository) ListOpen(ctx context.Context) ([]models.PaymentIncident, error) {
	var out []models.PaymentIncident
	err := r.client.DB().WithContext(ctx).
		Where("resolved_at IS NULL").
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Resolve(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	result := r.client.DB().WithContext(ctx).
		Model(&models.PaymentIncident{}).
		Where("id = ? AND resolved_at IS NULL", id).
		Update("resolved_at", &now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
