package refunds

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/partsdeskhq/partsdesk-backend/pkg/db/models"
	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
	pkgerrors "github.com/partsdeskhq/partsdesk-backend/pkg/errors"
	"github.com/partsdeskhq/partsdesk-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Actor identifies the dashboard user performing a mutation.
type Actor struct {
	UserID    uuid.UUID
	FirstName string
}

// Service defines the per-yard refund workflow operations.
type Service interface {
	SetRefundStatus(ctx context.Context, input SetRefundStatusInput) (*models.Yard, error)
	ToggleCheckbox(ctx context.Context, orderNo string, yardPos int, action enums.RefundAction, actor Actor) (*models.Yard, error)
	SendRefundEmail(ctx context.Context, input SendRefundEmailInput) error
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// SetRefundStatusInput carries a refund-status update for one yard.
type SetRefundStatusInput struct {
	OrderNo string
	YardPos int
	Status  enums.YardRefundStatus
	Amount  *decimal.Decimal
	Date    *time.Time
	Reason  string
	Actor   Actor
}

// SendRefundEmailInput carries a refund-request email to the yard.
type SendRefundEmailInput struct {
	OrderNo     string
	YardPos     int
	ToCollect   string
	Reason      string
	Attachments []outbox.Attachment
	Actor       Actor
}

// RefundEmailEvent requests the refund email to the yard.
type RefundEmailEvent struct {
	OrderNo     string              `json:"orderNo"`
	Position    int                 `json:"position"`
	YardEmail   string              `json:"yardEmail"`
	YardName    string              `json:"yardName"`
	ToCollect   string              `json:"toCollect"`
	Reason      string              `json:"reason"`
	Attachments []outbox.Attachment `json:"attachments,omitempty"`
}

// NewService builds the refund workflow service.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("refunds repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) SetRefundStatus(ctx context.Context, input SetRefundStatusInput) (*models.Yard, error) {
	if err := validateAddress(input.OrderNo, input.YardPos); err != nil {
		return nil, err
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid refund status %q", input.Status))
	}

	updates := map[string]any{
		"refund_status": input.Status,
		"updated_by":    input.Actor.FirstName,
	}
	if strings.TrimSpace(input.Reason) != "" {
		updates["refund_reason"] = strings.TrimSpace(input.Reason)
	}

	switch input.Status {
	case enums.YardRefundCollected:
		missing := make([]string, 0, 2)
		if input.Amount == nil || input.Amount.IsZero() {
			missing = append(missing, "refundedAmount")
		}
		if input.Date == nil {
			missing = append(missing, "refundDate")
		}
		if len(missing) > 0 {
			return nil, pkgerrors.MissingFields("refund collected requires amount and date", missing)
		}
		updates["refunded_amount"] = *input.Amount
		updates["refund_date"] = *input.Date
		// A collected refund supersedes an open collect or claim.
		updates["collect_refund_checkbox"] = enums.CheckboxUnticked
		updates["ups_claim_checkbox"] = enums.CheckboxUnticked
	case enums.YardRefundNotCollected:
		// Forced to zero regardless of what was submitted.
		updates["refunded_amount"] = decimal.Zero
		if input.Date != nil {
			updates["refund_date"] = *input.Date
		}
	}

	return s.writeYard(ctx, input.OrderNo, input.YardPos, updates)
}

// checkboxColumns maps each refund action to its yard column.
var checkboxColumns = map[enums.RefundAction]string{
	enums.RefundActionCollect:     "collect_refund_checkbox",
	enums.RefundActionUPSClaim:    "ups_claim_checkbox",
	enums.RefundActionStoreCredit: "store_credit_checkbox",
}

func (s *service) ToggleCheckbox(ctx context.Context, orderNo string, yardPos int, action enums.RefundAction, actor Actor) (*models.Yard, error) {
	if err := validateAddress(orderNo, yardPos); err != nil {
		return nil, err
	}
	if !action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid refund action %q", action))
	}

	var updated *models.Yard
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, yard, err := s.loadOrderYard(ctx, repo, orderNo, yardPos)
		if err != nil {
			return err
		}

		// All three reset; the chosen one flips. Checking unchecks the
		// other two, re-checking an already ticked box clears it.
		updates := map[string]any{
			"collect_refund_checkbox": enums.CheckboxUnticked,
			"ups_claim_checkbox":      enums.CheckboxUnticked,
			"store_credit_checkbox":   enums.CheckboxUnticked,
			"updated_by":              actor.FirstName,
		}
		if !currentState(yard, action).IsTicked() {
			updates[checkboxColumns[action]] = enums.CheckboxTicked
		}
		if err := repo.UpdateYard(ctx, yard.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle refund checkbox")
		}

		fresh, err := repo.FindYard(ctx, order.ID, yardPos)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload yard")
		}
		updated = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) SendRefundEmail(ctx context.Context, input SendRefundEmailInput) error {
	if err := validateAddress(input.OrderNo, input.YardPos); err != nil {
		return err
	}
	missing := make([]string, 0, 3)
	if !hasPDF(input.Attachments) {
		missing = append(missing, "attachment")
	}
	if strings.TrimSpace(input.ToCollect) == "" {
		missing = append(missing, "refundToCollect")
	}
	if strings.TrimSpace(input.Reason) == "" {
		missing = append(missing, "refundReason")
	}
	if len(missing) > 0 {
		return pkgerrors.MissingFields("refund email requires a PDF, amount to collect, and reason", missing)
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, yard, err := s.loadOrderYard(ctx, repo, input.OrderNo, input.YardPos)
		if err != nil {
			return err
		}
		if strings.TrimSpace(yard.YardEmail) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "yard has no email on file")
		}

		if err := repo.UpdateYard(ctx, yard.ID, map[string]any{
			"refund_to_collect": strings.TrimSpace(input.ToCollect),
			"refund_reason":     strings.TrimSpace(input.Reason),
			"updated_by":        input.Actor.FirstName,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist refund request")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRefundEmailRequested,
			AggregateType: enums.AggregateYard,
			AggregateID:   yard.ID,
			Version:       1,
			Actor:         actorRef(input.Actor),
			Data: RefundEmailEvent{
				OrderNo:     order.OrderNo,
				Position:    yard.Position,
				YardEmail:   yard.YardEmail,
				YardName:    yard.YardName,
				ToCollect:   strings.TrimSpace(input.ToCollect),
				Reason:      strings.TrimSpace(input.Reason),
				Attachments: input.Attachments,
			},
		})
	})
}

func (s *service) writeYard(ctx context.Context, orderNo string, yardPos int, updates map[string]any) (*models.Yard, error) {
	var updated *models.Yard
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, yard, err := s.loadOrderYard(ctx, repo, orderNo, yardPos)
		if err != nil {
			return err
		}
		if err := repo.UpdateYard(ctx, yard.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update refund fields")
		}
		fresh, err := repo.FindYard(ctx, order.ID, yardPos)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload yard")
		}
		updated = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) loadOrderYard(ctx context.Context, repo Repository, orderNo string, yardPos int) (*models.Order, *models.Yard, error) {
	order, err := repo.FindOrderByNo(ctx, orderNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	yard, err := repo.FindYard(ctx, order.ID, yardPos)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "yard not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load yard")
	}
	return order, yard, nil
}

func currentState(yard *models.Yard, action enums.RefundAction) enums.Checkbox {
	switch action {
	case enums.RefundActionCollect:
		return yard.CollectRefundCheckbox
	case enums.RefundActionUPSClaim:
		return yard.UPSClaimCheckbox
	case enums.RefundActionStoreCredit:
		return yard.StoreCreditCheckbox
	}
	return enums.CheckboxUnticked
}

func validateAddress(orderNo string, yardPos int) error {
	if strings.TrimSpace(orderNo) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	if yardPos < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "yard position must be >= 1")
	}
	return nil
}

func hasPDF(attachments []outbox.Attachment) bool {
	for _, att := range attachments {
		if att.ContentType == "application/pdf" || bytes.HasPrefix(att.Data, []byte("%PDF-")) {
			return true
		}
	}
	return false
}

func actorRef(actor Actor) *outbox.ActorRef {
	ref := &outbox.ActorRef{FirstName: actor.FirstName}
	if actor.UserID != uuid.Nil {
		ref.UserID = actor.UserID.String()
	}
	return ref
}
