package escalations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partsdeskhq/partsdesk-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an escalations repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindOrderByNo(ctx context.Context, orderNo string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("order_no = ?", orderNo).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindYard(ctx context.Context, orderID uuid.UUID, position int) (*models.Yard, error) {
	var yard models.Yard
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND position = ?", orderID, position).
		First(&yard).Error
	if err != nil {
		return nil, err
	}
	return &yard, nil
}

func (r *repository) UpdateYard(ctx context.Context, yardID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Yard{}).
		Where("id = ?", yardID).
		Updates(updates).Error
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}
