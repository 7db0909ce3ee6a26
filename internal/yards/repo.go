package yards

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partsdeskhq/partsdesk-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a yards repository bound to the provided DB.
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
		Preload("Yards", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
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

func (r *repository) FindYardByStatus(ctx context.Context, orderID uuid.UUID, status string) (*models.Yard, error) {
	var yard models.Yard
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, status).
		Order("position ASC").
		First(&yard).Error
	if err != nil {
		return nil, err
	}
	return &yard, nil
}

func (r *repository) CreateYard(ctx context.Context, yard *models.Yard) (*models.Yard, error) {
	if err := r.db.WithContext(ctx).Create(yard).Error; err != nil {
		return nil, err
	}
	return yard, nil
}

func (r *repository) NextPosition(ctx context.Context, orderID uuid.UUID) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&models.Yard{}).
		Where("order_id = ?", orderID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

func (r *repository) UpdateYard(ctx context.Context, yardID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Yard{}).
		Where("id = ?", yardID).
		Updates(updates).Error
}

// UpdateYardVersioned applies updates only when the stored version matches.
// Returns false when the row was not updated (stale version).
func (r *repository) UpdateYardVersioned(ctx context.Context, yardID uuid.UUID, expectedVersion int, updates map[string]any) (bool, error) {
	updates["version"] = gorm.Expr("version + 1")
	res := r.db.WithContext(ctx).
		Model(&models.Yard{}).
		Where("id = ? AND version = ?", yardID, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}
