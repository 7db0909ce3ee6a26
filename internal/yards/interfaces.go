package yards

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partsdeskhq/partsdesk-backend/pkg/db/models"
)

// Repository defines persistence operations for orders and their yard rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrderByNo(ctx context.Context, orderNo string) (*models.Order, error)
	FindYard(ctx context.Context, orderID uuid.UUID, position int) (*models.Yard, error)
	FindYardByStatus(ctx context.Context, orderID uuid.UUID, status string) (*models.Yard, error)
	CreateYard(ctx context.Context, yard *models.Yard) (*models.Yard, error)
	NextPosition(ctx context.Context, orderID uuid.UUID) (int, error)
	UpdateYard(ctx context.Context, yardID uuid.UUID, updates map[string]any) error
	UpdateYardVersioned(ctx context.Context, yardID uuid.UUID, expectedVersion int, updates map[string]any) (bool, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
}
