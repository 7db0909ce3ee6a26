package refunds

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partsdeskhq/partsdesk-backend/pkg/db/models"
)

// Repository defines the persistence operations for the per-yard refund
// workflow.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrderByNo(ctx context.Context, orderNo string) (*models.Order, error)
	FindYard(ctx context.Context, orderID uuid.UUID, position int) (*models.Yard, error)
	UpdateYard(ctx context.Context, yardID uuid.UUID, updates map[string]any) error
}
