package leads

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partsdeskhq/partsdesk-backend/pkg/db/models"
	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a leads repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, leadID uuid.UUID) (*models.GmailLead, error) {
	var lead models.GmailLead
	err := r.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("posted_at ASC")
		}).
		Where("id = ?", leadID).
		First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *repository) FindByMessageID(ctx context.Context, messageID string) (*models.GmailLead, error) {
	var lead models.GmailLead
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.GmailLead, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.GmailLead{})
	if filter.Status != "" {
		base = base.Where("status = ?", filter.Status)
	}
	if filter.Label != "" {
		base = base.Where("labels @> ?", `["`+filter.Label+`"]`)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var rows []models.GmailLead
	err := base.Session(&gorm.Session{}).
		Order("received_at DESC").
		Limit(page.Limit).
		Offset(filter.Page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) Create(ctx context.Context, lead *models.GmailLead) (*models.GmailLead, error) {
	if err := r.db.WithContext(ctx).Create(lead).Error; err != nil {
		return nil, err
	}
	return lead, nil
}

func (r *repository) Update(ctx context.Context, leadID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.GmailLead{}).
		Where("id = ?", leadID).
		Updates(updates).Error
}

func (r *repository) ClaimLead(ctx context.Context, leadID, userID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.GmailLead{}).
		Where("id = ? AND status = ?", leadID, enums.LeadStatusActive).
		Updates(map[string]any{
			"status":     enums.LeadStatusClaimed,
			"claimed_by": userID,
			"claimed_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) AddComment(ctx context.Context, comment *models.LeadComment) (*models.LeadComment, error) {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}
