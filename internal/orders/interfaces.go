package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partsdeskhq/partsdesk-backend/pkg/db/models"
	"github.com/partsdeskhq/partsdesk-backend/pkg/pagination"
	"github.com/partsdeskhq/partsdesk-backend/pkg/window"
)

// ListQuery is the storage-level order list request. SearchTerm shorter
// than two characters falls back to the plain range query.
type ListQuery struct {
	Window     window.Window
	SearchTerm string
	Page       pagination.Params
}

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByNo(ctx context.Context, orderNo string) (*models.Order, error)
	List(ctx context.Context, query ListQuery) ([]models.Order, int64, error)
	Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
}
