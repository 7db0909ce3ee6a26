package yards

import (
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

// Service defines yard-level workflow operations.
type Service interface {
	Attach(ctx context.Context, input AttachInput) (*models.Yard, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Yard, error)
	VoidLabel(ctx context.Context, orderNo string, yardPos int, actor Actor) (*models.Yard, error)
	CancelShipment(ctx context.Context, orderNo string, actor Actor) (*models.Yard, error)
	SetPaymentStatus(ctx context.Context, orderNo string, yardPos int, status enums.PaymentStatus, actor Actor) error
	SendPO(ctx context.Context, input SendPOInput) error
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// AttachInput carries the data to attach a new sourcing yard to an order.
type AttachInput struct {
	OrderNo      string
	YardName     string
	YardPhone    string
	YardEmail    string
	Contact      string
	PartPrice    decimal.Decimal
	ShippingCost decimal.Decimal
	OtherFees    decimal.Decimal
	Actor        Actor
}

// UpdateStatusInput carries a yard status transition request.
type UpdateStatusInput struct {
	OrderNo string
	YardPos int
	Target  enums.YardStatus
	Fields  StatusFields
	// Version, when set, makes the write conditional on the stored version.
	Version *int
	Actor   Actor
}

// SendPOInput carries a purchase-order email request.
type SendPOInput struct {
	OrderNo     string
	YardPos     int
	Attachments []outbox.Attachment
	Actor       Actor
}

// YardStatusEvent is emitted on every yard status change.
type YardStatusEvent struct {
	OrderNo  string           `json:"orderNo"`
	Position int              `json:"position"`
	From     enums.YardStatus `json:"from"`
	To       enums.YardStatus `json:"to"`
	Action   string           `json:"action,omitempty"`
}

// TrackingEmailEvent requests the tracking-info email for a shipped part.
type TrackingEmailEvent struct {
	OrderNo       string `json:"orderNo"`
	Position      int    `json:"position"`
	CustomerEmail string `json:"customerEmail"`
	TrackingNo    string `json:"trackingNo"`
	Eta           string `json:"eta"`
	ShipperName   string `json:"shipperName"`
	TrackingLink  string `json:"trackingLink"`
}

// DeliveryEmailEvent requests the delivery-confirmation email.
type DeliveryEmailEvent struct {
	OrderNo       string `json:"orderNo"`
	Position      int    `json:"position"`
	CustomerEmail string `json:"customerEmail"`
}

// POEmailEvent requests a purchase-order email to the yard.
type POEmailEvent struct {
	OrderNo     string              `json:"orderNo"`
	Position    int                 `json:"position"`
	YardEmail   string              `json:"yardEmail"`
	YardName    string              `json:"yardName"`
	Attachments []outbox.Attachment `json:"attachments,omitempty"`
}

// YardEscalatedEvent is emitted when a yard first enters escalation.
type YardEscalatedEvent struct {
	OrderNo  string                `json:"orderNo"`
	Position int                   `json:"position"`
	Cause    enums.EscalationCause `json:"cause"`
}

// NewService builds the yard workflow service.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("yards repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) Attach(ctx context.Context, input AttachInput) (*models.Yard, error) {
	if strings.TrimSpace(input.OrderNo) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	if strings.TrimSpace(input.YardName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "yard name required")
	}

	var created *models.Yard
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, input.OrderNo)
		if err != nil {
			return err
		}
		position, err := repo.NextPosition(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "next yard position")
		}
		yard := &models.Yard{
			OrderID:      order.ID,
			Position:     position,
			YardName:     strings.TrimSpace(input.YardName),
			YardPhone:    strings.TrimSpace(input.YardPhone),
			YardEmail:    strings.TrimSpace(input.YardEmail),
			Contact:      strings.TrimSpace(input.Contact),
			Status:       enums.YardStatusLocated,
			PartPrice:    input.PartPrice,
			ShippingCost: input.ShippingCost,
			OtherFees:    input.OtherFees,
			UpdatedBy:    input.Actor.FirstName,
		}
		created, err = repo.CreateYard(ctx, yard)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create yard")
		}
		if ShouldPromoteOrder(order.Status) {
			if derived, ok := DeriveOrderStatus(enums.YardStatusLocated); ok && order.Status != derived {
				if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
					"status":     derived,
					"updated_by": input.Actor.FirstName,
				}); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote order status")
				}
			}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventYardStatusChanged,
			AggregateType: enums.AggregateYard,
			AggregateID:   created.ID,
			Version:       1,
			Actor:         actorRef(input.Actor),
			Data: YardStatusEvent{
				OrderNo:  input.OrderNo,
				Position: position,
				From:     "",
				To:       enums.YardStatusLocated,
				Action:   "attach",
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Yard, error) {
	if strings.TrimSpace(input.OrderNo) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	if input.YardPos < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "yard position must be >= 1")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid yard status %q", input.Target))
	}
	if missing := MissingForStatus(input.Target, input.Fields); len(missing) > 0 {
		return nil, pkgerrors.MissingFields(
			fmt.Sprintf("status %q requires fields", input.Target), missing)
	}

	var updated *models.Yard
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, yard, err := s.loadOrderYard(ctx, repo, input.OrderNo, input.YardPos)
		if err != nil {
			return err
		}
		if yard.Status == input.Target {
			updated = yard
			return nil
		}
		if !CanTransition(yard.Status, input.Target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("yard cannot move from %q to %q", yard.Status, input.Target))
		}

		updates := map[string]any{
			"status":     input.Target,
			"updated_by": input.Actor.FirstName,
		}
		switch input.Target {
		case enums.YardStatusLabelMade, enums.YardStatusShipped:
			updates["tracking_no"] = strings.TrimSpace(input.Fields.TrackingNo)
			updates["eta"] = strings.TrimSpace(input.Fields.Eta)
			updates["shipper_name"] = strings.TrimSpace(input.Fields.ShipperName)
			updates["tracking_link"] = strings.TrimSpace(input.Fields.TrackingLink)
		case enums.YardStatusEscalation:
			updates["escalation_cause"] = input.Fields.EscalationCause
			updates["esc_ticked"] = enums.FlagYes
			if yard.EscalationDate == nil {
				updates["escalation_date"] = time.Now().UTC()
			}
		}

		if err := s.applyYardUpdates(ctx, repo, yard, input.Version, updates); err != nil {
			return err
		}

		if ShouldPromoteOrder(order.Status) {
			if derived, ok := DeriveOrderStatus(input.Target); ok && order.Status != derived {
				if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
					"status":     derived,
					"updated_by": input.Actor.FirstName,
				}); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote order status")
				}
			}
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventYardStatusChanged,
			AggregateType: enums.AggregateYard,
			AggregateID:   yard.ID,
			Version:       1,
			Actor:         actorRef(input.Actor),
			Data: YardStatusEvent{
				OrderNo:  input.OrderNo,
				Position: input.YardPos,
				From:     yard.Status,
				To:       input.Target,
			},
		}); err != nil {
			return err
		}

		switch input.Target {
		case enums.YardStatusShipped:
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventTrackingEmailRequested,
				AggregateType: enums.AggregateYard,
				AggregateID:   yard.ID,
				Version:       1,
				Actor:         actorRef(input.Actor),
				Data: TrackingEmailEvent{
					OrderNo:       input.OrderNo,
					Position:      input.YardPos,
					CustomerEmail: order.CustomerEmail,
					TrackingNo:    strings.TrimSpace(input.Fields.TrackingNo),
					Eta:           strings.TrimSpace(input.Fields.Eta),
					ShipperName:   strings.TrimSpace(input.Fields.ShipperName),
					TrackingLink:  strings.TrimSpace(input.Fields.TrackingLink),
				},
			}); err != nil {
				return err
			}
		case enums.YardStatusDelivered:
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventDeliveryEmailRequested,
				AggregateType: enums.AggregateYard,
				AggregateID:   yard.ID,
				Version:       1,
				Actor:         actorRef(input.Actor),
				Data: DeliveryEmailEvent{
					OrderNo:       input.OrderNo,
					Position:      input.YardPos,
					CustomerEmail: order.CustomerEmail,
				},
			}); err != nil {
				return err
			}
		case enums.YardStatusEscalation:
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventYardEscalated,
				AggregateType: enums.AggregateYard,
				AggregateID:   yard.ID,
				Version:       1,
				Actor:         actorRef(input.Actor),
				Data: YardEscalatedEvent{
					OrderNo:  input.OrderNo,
					Position: input.YardPos,
					Cause:    input.Fields.EscalationCause,
				},
			}); err != nil {
				return err
			}
		}

		fresh, err := repo.FindYard(ctx, order.ID, input.YardPos)
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

func (s *service) VoidLabel(ctx context.Context, orderNo string, yardPos int, actor Actor) (*models.Yard, error) {
	return s.resetShipment(ctx, orderNo, yardPos, enums.YardStatusLabelMade, "void_label", actor)
}

func (s *service) CancelShipment(ctx context.Context, orderNo string, actor Actor) (*models.Yard, error) {
	if strings.TrimSpace(orderNo) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}

	var updated *models.Yard
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, orderNo)
		if err != nil {
			return err
		}
		yard, err := repo.FindYardByStatus(ctx, order.ID, enums.YardStatusShipped.String())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "no shipped yard to cancel")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipped yard")
		}

		var resetErr error
		updated, resetErr = s.doReset(ctx, tx, repo, order, yard, "cancel_shipment", actor)
		return resetErr
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) SetPaymentStatus(ctx context.Context, orderNo string, yardPos int, status enums.PaymentStatus, actor Actor) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment status %q", status))
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		_, yard, err := s.loadOrderYard(ctx, repo, orderNo, yardPos)
		if err != nil {
			return err
		}
		if err := repo.UpdateYard(ctx, yard.ID, map[string]any{
			"payment_status": status,
			"updated_by":     actor.FirstName,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}
		return nil
	})
}

func (s *service) SendPO(ctx context.Context, input SendPOInput) error {
	if len(input.Attachments) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "po email requires at least one attachment")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		_, yard, err := s.loadOrderYard(ctx, repo, input.OrderNo, input.YardPos)
		if err != nil {
			return err
		}
		if strings.TrimSpace(yard.YardEmail) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "yard has no email on file")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPOEmailRequested,
			AggregateType: enums.AggregateYard,
			AggregateID:   yard.ID,
			Version:       1,
			Actor:         actorRef(input.Actor),
			Data: POEmailEvent{
				OrderNo:     input.OrderNo,
				Position:    input.YardPos,
				YardEmail:   yard.YardEmail,
				YardName:    yard.YardName,
				Attachments: input.Attachments,
			},
		})
	})
}

// resetShipment handles voidLabel-style resets that require a specific
// current status on the addressed yard.
func (s *service) resetShipment(ctx context.Context, orderNo string, yardPos int, requiredStatus enums.YardStatus, action string, actor Actor) (*models.Yard, error) {
	if strings.TrimSpace(orderNo) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	if yardPos < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "yard position must be >= 1")
	}

	var updated *models.Yard
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, yard, err := s.loadOrderYard(ctx, repo, orderNo, yardPos)
		if err != nil {
			return err
		}
		if yard.Status != requiredStatus {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("%s only allowed from %q, yard is %q", action, requiredStatus, yard.Status))
		}

		var resetErr error
		updated, resetErr = s.doReset(ctx, tx, repo, order, yard, action, actor)
		return resetErr
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// doReset clears the forward tracking fields and returns the yard to
// "Yard PO Sent", emitting the audit event for the named action.
func (s *service) doReset(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, yard *models.Yard, action string, actor Actor) (*models.Yard, error) {
	updates := map[string]any{
		"status":        enums.YardStatusPOSent,
		"tracking_no":   "",
		"eta":           "",
		"shipper_name":  "",
		"tracking_link": "",
		"updated_by":    actor.FirstName,
	}
	if err := repo.UpdateYard(ctx, yard.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
	}

	if ShouldPromoteOrder(order.Status) {
		if derived, ok := DeriveOrderStatus(enums.YardStatusPOSent); ok && order.Status != derived {
			if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
				"status":     derived,
				"updated_by": actor.FirstName,
			}); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "demote order status")
			}
		}
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventYardStatusChanged,
		AggregateType: enums.AggregateYard,
		AggregateID:   yard.ID,
		Version:       1,
		Actor:         actorRef(actor),
		Data: YardStatusEvent{
			OrderNo:  order.OrderNo,
			Position: yard.Position,
			From:     yard.Status,
			To:       enums.YardStatusPOSent,
			Action:   action,
		},
	}); err != nil {
		return nil, err
	}

	fresh, err := repo.FindYard(ctx, order.ID, yard.Position)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload yard")
	}
	return fresh, nil
}

func (s *service) applyYardUpdates(ctx context.Context, repo Repository, yard *models.Yard, version *int, updates map[string]any) error {
	if version == nil {
		if err := repo.UpdateYard(ctx, yard.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update yard")
		}
		return nil
	}
	ok, err := repo.UpdateYardVersioned(ctx, yard.ID, *version, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update yard")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "yard was modified by another user")
	}
	return nil
}

func (s *service) loadOrder(ctx context.Context, repo Repository, orderNo string) (*models.Order, error) {
	order, err := repo.FindOrderByNo(ctx, orderNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) loadOrderYard(ctx context.Context, repo Repository, orderNo string, yardPos int) (*models.Order, *models.Yard, error) {
	order, err := s.loadOrder(ctx, repo, orderNo)
	if err != nil {
		return nil, nil, err
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

func actorRef(actor Actor) *outbox.ActorRef {
	ref := &outbox.ActorRef{FirstName: actor.FirstName}
	if actor.UserID != uuid.Nil {
		ref.UserID = actor.UserID.String()
	}
	return ref
}
