package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	sq "github.com/square/square-go-sdk"
	"gorm.io/gorm"

	"github.com/partsdeskhq/partsdesk-backend/pkg/db"
	"github.com/partsdeskhq/partsdesk-backend/pkg/db/models"
	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
	pkgerrors "github.com/partsdeskhq/partsdesk-backend/pkg/errors"
	"github.com/partsdeskhq/partsdesk-backend/pkg/outbox"
	"github.com/partsdeskhq/partsdesk-backend/pkg/pagination"
	"github.com/partsdeskhq/partsdesk-backend/pkg/square"
	"github.com/partsdeskhq/partsdesk-backend/pkg/window"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// cardRefunder issues card refunds against the payment provider.
// *square.Client satisfies it.
type cardRefunder interface {
	RefundPayment(ctx context.Context, params square.RefundCreateParams) (*sq.PaymentRefund, error)
	NewIdempotencyKey(prefix string) string
}

// Actor identifies the dashboard user performing a mutation.
type Actor struct {
	UserID    uuid.UUID
	FirstName string
}

// Service defines order-level operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	GetByNo(ctx context.Context, orderNo string) (*models.Order, error)
	List(ctx context.Context, input ListInput) ([]models.Order, ListMeta, error)
	UpdateStatus(ctx context.Context, orderNo string, status enums.OrderStatus, actor Actor) (*models.Order, error)
	CustomerRefund(ctx context.Context, input CustomerRefundInput) (*models.Order, error)
	Dispute(ctx context.Context, input DisputeInput) (*models.Order, error)
}

type service struct {
	repo          Repository
	tx            txRunner
	outbox        outboxPublisher
	card          cardRefunder
	squareRefunds bool
	now           func() time.Time
}

// CreateInput carries a new order submission.
type CreateInput struct {
	OrderNo         string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	PartName        string
	BillingAddress  string
	ShippingAddress string
	SalePrice       decimal.Decimal
	PartCost        decimal.Decimal
	ShippingFee     decimal.Decimal
	OrderDate       time.Time
	SquarePaymentID string
	Actor           Actor
}

// ListInput carries the monthly-orders query surface.
type ListInput struct {
	Window     window.Request
	SearchTerm string
	Page       int
	Limit      int
}

// ListMeta describes the returned page.
type ListMeta struct {
	Total int64
	Page  int
	Limit int
	Pages int
}

// CustomerRefundInput records an order-level customer refund.
type CustomerRefundInput struct {
	OrderNo string
	Amount  decimal.Decimal
	Date    *time.Time
	Receipt *outbox.Attachment
	Actor   Actor
}

// DisputeInput records a payment dispute against an order.
type DisputeInput struct {
	OrderNo string
	Reason  string
	Amount  decimal.Decimal
	Date    *time.Time
	Actor   Actor
}

// OrderCreatedEvent is emitted when an order is accepted.
type OrderCreatedEvent struct {
	OrderNo      string          `json:"orderNo"`
	CustomerName string          `json:"customerName"`
	PartName     string          `json:"partName"`
	SalePrice    decimal.Decimal `json:"salePrice"`
	GrossProfit  decimal.Decimal `json:"grossProfit"`
}

// OrderStatusEvent is emitted on order-level status changes.
type OrderStatusEvent struct {
	OrderNo string            `json:"orderNo"`
	From    enums.OrderStatus `json:"from"`
	To      enums.OrderStatus `json:"to"`
}

// OrderRefundedEvent is emitted when a customer refund is recorded.
type OrderRefundedEvent struct {
	OrderNo        string          `json:"orderNo"`
	Amount         decimal.Decimal `json:"amount"`
	Date           time.Time       `json:"date"`
	SquareRefundID string          `json:"squareRefundId,omitempty"`
}

// RefundConfirmationEvent requests the refund-confirmation email, with the
// receipt attached when one was uploaded.
type RefundConfirmationEvent struct {
	OrderNo       string             `json:"orderNo"`
	CustomerEmail string             `json:"customerEmail"`
	Amount        decimal.Decimal    `json:"amount"`
	Receipt       *outbox.Attachment `json:"receipt,omitempty"`
}

// OrderDisputedEvent is emitted when a dispute is recorded.
type OrderDisputedEvent struct {
	OrderNo string          `json:"orderNo"`
	Reason  string          `json:"reason"`
	Amount  decimal.Decimal `json:"amount"`
	Date    time.Time       `json:"date"`
}

// Option tunes the order service.
type Option func(*service)

// WithCardRefunds wires the payment provider for refund issuance. enabled
// follows the deployment's feature flag.
func WithCardRefunds(card cardRefunder, enabled bool) Option {
	return func(s *service) {
		s.card = card
		s.squareRefunds = enabled
	}
}

// WithClock overrides the clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// NewService builds the orders service.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, opts ...Option) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	s := &service{
		repo:   repo,
		tx:     tx,
		outbox: outboxSvc,
		now:    window.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	missing := make([]string, 0, 4)
	if strings.TrimSpace(input.OrderNo) == "" {
		missing = append(missing, "orderNo")
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		missing = append(missing, "customerName")
	}
	if strings.TrimSpace(input.PartName) == "" {
		missing = append(missing, "partName")
	}
	if len(missing) > 0 {
		return nil, pkgerrors.MissingFields("order submission incomplete", missing)
	}

	order := &models.Order{
		OrderNo:         strings.TrimSpace(input.OrderNo),
		CustomerName:    strings.TrimSpace(input.CustomerName),
		CustomerEmail:   strings.TrimSpace(input.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(input.CustomerPhone),
		PartName:        strings.TrimSpace(input.PartName),
		BillingAddress:  strings.TrimSpace(input.BillingAddress),
		ShippingAddress: strings.TrimSpace(input.ShippingAddress),
		SalePrice:       input.SalePrice,
		PartCost:        input.PartCost,
		ShippingFee:     input.ShippingFee,
		Status:          enums.OrderStatusPlaced,
		OrderDate:       input.OrderDate,
		SquarePaymentID: strings.TrimSpace(input.SquarePaymentID),
		UpdatedBy:       input.Actor.FirstName,
	}
	if order.OrderDate.IsZero() {
		order.OrderDate = s.now().UTC()
	}
	order.RecomputeGP()

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		created, err = repo.Create(ctx, order)
		if err != nil {
			if db.IsUniqueViolation(err, "idx_orders_order_no") {
				return pkgerrors.New(pkgerrors.CodeConflict,
					fmt.Sprintf("order %s already exists", order.OrderNo))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   created.ID,
			Version:       1,
			Actor:         actorRef(input.Actor),
			Data: OrderCreatedEvent{
				OrderNo:      created.OrderNo,
				CustomerName: created.CustomerName,
				PartName:     created.PartName,
				SalePrice:    created.SalePrice,
				GrossProfit:  created.GrossProfit,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) GetByNo(ctx context.Context, orderNo string) (*models.Order, error) {
	if strings.TrimSpace(orderNo) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	order, err := s.repo.FindByNo(ctx, orderNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]models.Order, ListMeta, error) {
	win, err := window.Resolve(input.Window, s.now())
	if err != nil {
		return nil, ListMeta{}, err
	}
	page := pagination.Params{Page: input.Page, Limit: input.Limit}.Normalize()

	rows, total, err := s.repo.List(ctx, ListQuery{
		Window:     win,
		SearchTerm: input.SearchTerm,
		Page:       page,
	})
	if err != nil {
		return nil, ListMeta{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, ListMeta{
		Total: total,
		Page:  page.Page,
		Limit: page.Limit,
		Pages: page.Pages(total),
	}, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderNo string, status enums.OrderStatus, actor Actor) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", status))
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, orderNo)
		if err != nil {
			return err
		}
		if order.Status == status {
			updated = order
			return nil
		}

		if err := repo.Update(ctx, order.ID, map[string]any{
			"status":     status,
			"updated_by": actor.FirstName,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actorRef(actor),
			Data: OrderStatusEvent{
				OrderNo: order.OrderNo,
				From:    order.Status,
				To:      status,
			},
		}); err != nil {
			return err
		}

		fresh, err := repo.FindByNo(ctx, orderNo)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		updated = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) CustomerRefund(ctx context.Context, input CustomerRefundInput) (*models.Order, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}
	refundDate := s.now().UTC()
	if input.Date != nil {
		refundDate = input.Date.UTC()
	}

	order, err := s.GetByNo(ctx, input.OrderNo)
	if err != nil {
		return nil, err
	}

	// Card refund goes out before the record is written, so a provider
	// failure never leaves the order marked Refunded.
	var squareRefundID string
	if s.squareRefunds && s.card != nil && order.SquarePaymentID != "" {
		refund, err := s.card.RefundPayment(ctx, square.RefundCreateParams{
			PaymentID:      order.SquarePaymentID,
			AmountCents:    input.Amount.Mul(decimal.NewFromInt(100)).IntPart(),
			Currency:       "USD",
			Reason:         fmt.Sprintf("customer refund for order %s", order.OrderNo),
			IdempotencyKey: s.card.NewIdempotencyKey("refund"),
		})
		if err != nil {
			return nil, err
		}
		if refund != nil {
			squareRefundID = refund.GetID()
		}
	}

	var updated *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, order.ID, map[string]any{
			"status":             enums.OrderStatusRefunded,
			"cust_refund_amount": input.Amount,
			"cust_refund_date":   refundDate,
			"updated_by":         input.Actor.FirstName,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record customer refund")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderRefunded,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actorRef(input.Actor),
			Data: OrderRefundedEvent{
				OrderNo:        order.OrderNo,
				Amount:         input.Amount,
				Date:           refundDate,
				SquareRefundID: squareRefundID,
			},
		}); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRefundConfirmationNeeded,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actorRef(input.Actor),
			Data: RefundConfirmationEvent{
				OrderNo:       order.OrderNo,
				CustomerEmail: order.CustomerEmail,
				Amount:        input.Amount,
				Receipt:       input.Receipt,
			},
		}); err != nil {
			return err
		}

		fresh, err := repo.FindByNo(ctx, input.OrderNo)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		updated = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Dispute(ctx context.Context, input DisputeInput) (*models.Order, error) {
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute reason required")
	}
	disputeDate := s.now()
	if input.Date != nil {
		disputeDate = *input.Date
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, input.OrderNo)
		if err != nil {
			return err
		}

		// Dispute fields coexist with the current status; the status
		// itself is not touched here.
		if err := repo.Update(ctx, order.ID, map[string]any{
			"dispute_date":            disputeDate.UTC(),
			"dispute_reason":          strings.TrimSpace(input.Reason),
			"dispute_refunded_amount": input.Amount,
			"updated_by":              input.Actor.FirstName,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record dispute")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderDisputed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actorRef(input.Actor),
			Data: OrderDisputedEvent{
				OrderNo: order.OrderNo,
				Reason:  strings.TrimSpace(input.Reason),
				Amount:  input.Amount,
				Date:    disputeDate.UTC(),
			},
		}); err != nil {
			return err
		}

		fresh, err := repo.FindByNo(ctx, input.OrderNo)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		updated = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) loadOrder(ctx context.Context, repo Repository, orderNo string) (*models.Order, error) {
	if strings.TrimSpace(orderNo) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	order, err := repo.FindByNo(ctx, orderNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func actorRef(actor Actor) *outbox.ActorRef {
	ref := &outbox.ActorRef{FirstName: actor.FirstName}
	if actor.UserID != uuid.Nil {
		ref.UserID = actor.UserID.String()
	}
	return ref
}
