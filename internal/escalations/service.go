package escalations

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
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

// LegName addresses one escalation leg for email sends and voids.
type LegName string

const (
	LegReplacementCustomer LegName = "rep-cust"
	LegReplacementYard     LegName = "rep-yard"
	LegReturn              LegName = "return"
)

// Service defines the escalation sub-workflow operations.
type Service interface {
	Save(ctx context.Context, input SaveInput) (*models.Yard, error)
	SendEmail(ctx context.Context, input SendEmailInput) error
	VoidLeg(ctx context.Context, orderNo string, yardPos int, leg LegName, actor Actor) (*models.Yard, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// SaveInput carries a full escalation save for one yard.
type SaveInput struct {
	OrderNo string
	YardPos int
	Plan    Plan
	Actor   Actor
}

// SendEmailInput carries a per-leg escalation email request. The plan is
// persisted before the email event is recorded.
type SendEmailInput struct {
	OrderNo     string
	YardPos     int
	Leg         LegName
	Plan        Plan
	Attachments []outbox.Attachment
	Actor       Actor
}

// EscalationSavedEvent is emitted on every escalation save.
type EscalationSavedEvent struct {
	OrderNo  string                  `json:"orderNo"`
	Position int                     `json:"position"`
	Process  enums.EscalationProcess `json:"process"`
	Cause    enums.EscalationCause   `json:"cause"`
}

// ReplacementCustomerEmailEvent requests the part-from-customer email.
type ReplacementCustomerEmailEvent struct {
	OrderNo       string               `json:"orderNo"`
	Position      int                  `json:"position"`
	CustomerEmail string               `json:"customerEmail"`
	ShipTo        string               `json:"shipTo"`
	Method        enums.ShippingMethod `json:"method"`
	Attachments   []outbox.Attachment  `json:"attachments,omitempty"`
}

// ReplacementYardEmailEvent requests the part-from-yard email.
type ReplacementYardEmailEvent struct {
	OrderNo     string               `json:"orderNo"`
	Position    int                  `json:"position"`
	YardEmail   string               `json:"yardEmail"`
	YardName    string               `json:"yardName"`
	Method      enums.ShippingMethod `json:"method"`
	Shipper     string               `json:"shipper"`
	Tracking    string               `json:"tracking"`
	Eta         string               `json:"eta"`
	Attachments []outbox.Attachment  `json:"attachments,omitempty"`
}

// ReturnEmailEvent requests the return-instructions email.
type ReturnEmailEvent struct {
	OrderNo       string               `json:"orderNo"`
	Position      int                  `json:"position"`
	CustomerEmail string               `json:"customerEmail"`
	ShipTo        string               `json:"shipTo"`
	Method        enums.ShippingMethod `json:"method"`
	Attachments   []outbox.Attachment  `json:"attachments,omitempty"`
}

// NewService builds the escalation workflow service.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("escalations repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) Save(ctx context.Context, input SaveInput) (*models.Yard, error) {
	if err := validateAddress(input.OrderNo, input.YardPos); err != nil {
		return nil, err
	}
	if err := input.Plan.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "escalation plan invalid")
	}

	var saved *models.Yard
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		saved, err = s.persistPlan(ctx, tx, input.OrderNo, input.YardPos, input.Plan, input.Actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *service) SendEmail(ctx context.Context, input SendEmailInput) error {
	if err := validateAddress(input.OrderNo, input.YardPos); err != nil {
		return err
	}
	if err := input.Plan.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "escalation plan invalid")
	}
	if err := s.validateEmailGate(input); err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		yard, err := s.persistPlan(ctx, tx, input.OrderNo, input.YardPos, input.Plan, input.Actor)
		if err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderByNo(ctx, input.OrderNo)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return s.emitEmailEvent(ctx, tx, order, yard, input)
	})
}

// validateEmailGate enforces the per-leg send requirements on top of the
// base plan validation.
func (s *service) validateEmailGate(input SendEmailInput) error {
	switch input.Leg {
	case LegReplacementCustomer:
		if !input.Plan.customerLegActive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "customer replacement leg is not active")
		}
		leg := input.Plan.Replacement.Customer
		if !leg.Method.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "customer replacement email requires a shipping method")
		}
		if strings.TrimSpace(leg.ShipTo) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "customer replacement email requires a ship-to address")
		}
		if leg.Method == enums.ShippingMethodOwn || leg.Method == enums.ShippingMethodYard {
			if !hasPDF(input.Attachments) {
				return pkgerrors.New(pkgerrors.CodeValidation, "customer replacement email requires a PDF label attachment")
			}
		}
		return nil
	case LegReplacementYard:
		if !input.Plan.yardLegActive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "yard replacement leg is not active")
		}
		leg := input.Plan.Replacement.Yard
		missing := make([]string, 0, 5)
		if !leg.Method.IsValid() {
			missing = append(missing, "method")
		}
		if strings.TrimSpace(leg.Shipper) == "" {
			missing = append(missing, "shipper")
		}
		if strings.TrimSpace(leg.Tracking) == "" {
			missing = append(missing, "tracking")
		}
		if strings.TrimSpace(leg.Eta) == "" {
			missing = append(missing, "eta")
		}
		if strings.TrimSpace(leg.TrackingLink) == "" {
			missing = append(missing, "trackingLink")
		}
		if len(missing) > 0 {
			return pkgerrors.MissingFields("yard replacement email requires all leg fields", missing)
		}
		return nil
	case LegReturn:
		if !input.Plan.returnLegActive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "return leg is not active")
		}
		if input.Plan.Return.Method == enums.ShippingMethodOwn && !hasPDF(input.Attachments) {
			return pkgerrors.New(pkgerrors.CodeValidation, "return email with own shipping requires a PDF label attachment")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown escalation leg %q", input.Leg))
	}
}

func (s *service) emitEmailEvent(ctx context.Context, tx *gorm.DB, order *models.Order, yard *models.Yard, input SendEmailInput) error {
	event := outbox.DomainEvent{
		AggregateType: enums.AggregateYard,
		AggregateID:   yard.ID,
		Version:       1,
		Actor:         actorRef(input.Actor),
	}
	switch input.Leg {
	case LegReplacementCustomer:
		leg := input.Plan.Replacement.Customer
		event.EventType = enums.EventReplacementCustEmail
		event.Data = ReplacementCustomerEmailEvent{
			OrderNo:       order.OrderNo,
			Position:      yard.Position,
			CustomerEmail: order.CustomerEmail,
			ShipTo:        strings.TrimSpace(leg.ShipTo),
			Method:        leg.Method,
			Attachments:   input.Attachments,
		}
	case LegReplacementYard:
		leg := input.Plan.Replacement.Yard
		event.EventType = enums.EventReplacementYardEmail
		event.Data = ReplacementYardEmailEvent{
			OrderNo:     order.OrderNo,
			Position:    yard.Position,
			YardEmail:   yard.YardEmail,
			YardName:    yard.YardName,
			Method:      leg.Method,
			Shipper:     strings.TrimSpace(leg.Shipper),
			Tracking:    strings.TrimSpace(leg.Tracking),
			Eta:         strings.TrimSpace(leg.Eta),
			Attachments: input.Attachments,
		}
	case LegReturn:
		leg := input.Plan.Return
		event.EventType = enums.EventReturnEmailRequested
		event.Data = ReturnEmailEvent{
			OrderNo:       order.OrderNo,
			Position:      yard.Position,
			CustomerEmail: order.CustomerEmail,
			ShipTo:        strings.TrimSpace(leg.ShipTo),
			Method:        leg.Method,
			Attachments:   input.Attachments,
		}
	}
	return s.outbox.Emit(ctx, tx, event)
}

// legVoidColumns maps each leg to the method/shipper/tracking columns its
// void action clears. Other leg fields survive a void.
var legVoidColumns = map[LegName][]string{
	LegReplacementCustomer: {
		"customer_shipping_method_replacement",
		"cust_shipper_replacement",
		"cust_tracking_replacement",
	},
	LegReplacementYard: {
		"yard_shipping_method_replacement",
		"yard_shipper_replacement",
		"yard_tracking_replacement",
	},
	LegReturn: {
		"shipping_method_return",
		"shipper_return",
		"tracking_return",
	},
}

func (s *service) VoidLeg(ctx context.Context, orderNo string, yardPos int, leg LegName, actor Actor) (*models.Yard, error) {
	if err := validateAddress(orderNo, yardPos); err != nil {
		return nil, err
	}
	columns, ok := legVoidColumns[leg]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown escalation leg %q", leg))
	}

	var updated *models.Yard
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, yard, err := s.loadOrderYard(ctx, repo, orderNo, yardPos)
		if err != nil {
			return err
		}

		updates := map[string]any{"updated_by": actor.FirstName}
		for _, column := range columns {
			updates[column] = ""
		}
		if err := repo.UpdateYard(ctx, yard.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void escalation leg")
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

// persistPlan writes the full shaped escalation payload for the yard,
// stamps the sticky markers, and promotes the order unless already
// escalated. Runs inside the caller's transaction.
func (s *service) persistPlan(ctx context.Context, tx *gorm.DB, orderNo string, yardPos int, plan Plan, actor Actor) (*models.Yard, error) {
	repo := s.repo.WithTx(tx)
	order, yard, err := s.loadOrderYard(ctx, repo, orderNo, yardPos)
	if err != nil {
		return nil, err
	}

	updates := Shape(plan)
	updates["esc_ticked"] = enums.FlagYes
	updates["updated_by"] = actor.FirstName
	if yard.EscalationDate == nil {
		updates["escalation_date"] = time.Now().UTC()
	}
	if yard.Status != enums.YardStatusEscalation {
		updates["status"] = enums.YardStatusEscalation
	}
	if err := repo.UpdateYard(ctx, yard.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save escalation")
	}

	if order.Status != enums.OrderStatusEscalation {
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":     enums.OrderStatusEscalation,
			"updated_by": actor.FirstName,
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote order to escalation")
		}
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventYardEscalated,
		AggregateType: enums.AggregateYard,
		AggregateID:   yard.ID,
		Version:       1,
		Actor:         actorRef(actor),
		Data: EscalationSavedEvent{
			OrderNo:  orderNo,
			Position: yardPos,
			Process:  plan.Process,
			Cause:    plan.Cause,
		},
	}); err != nil {
		return nil, err
	}

	fresh, err := repo.FindYard(ctx, order.ID, yardPos)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload yard")
	}
	return fresh, nil
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
