package leads

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partsdeskhq/partsdesk-backend/pkg/db/models"
	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
	"github.com/partsdeskhq/partsdesk-backend/pkg/pagination"
)

// ListFilter narrows the lead listing.
type ListFilter struct {
	Status enums.LeadStatus
	Label  string
	Page   pagination.Params
}

// Repository defines persistence operations for Gmail leads.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, leadID uuid.UUID) (*models.GmailLead, error)
	FindByMessageID(ctx context.Context, messageID string) (*models.GmailLead, error)
	List(ctx context.Context, filter ListFilter) ([]models.GmailLead, int64, error)
	Create(ctx context.Context, lead *models.GmailLead) (*models.GmailLead, error)
	Update(ctx context.Context, leadID uuid.UUID, updates map[string]any) error
	// ClaimLead conditionally moves an active lead to claimed. Returns
	// false when the lead was not active anymore.
	ClaimLead(ctx context.Context, leadID, userID uuid.UUID, at time.Time) (bool, error)
	AddComment(ctx context.Context, comment *models.LeadComment) (*models.LeadComment, error)
}
