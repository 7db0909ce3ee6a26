package stripewebhook

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/partsdeskhq/partsdesk-backend/internal/orders"
	"github.com/partsdeskhq/partsdesk-backend/pkg/db/models"
	pkgerrors "github.com/partsdeskhq/partsdesk-backend/pkg/errors"
	"github.com/partsdeskhq/partsdesk-backend/pkg/logger"
)

const orderNoMetadataKey = "order_no"

type orderDisputer interface {
	Dispute(ctx context.Context, input orders.DisputeInput) (*models.Order, error)
}

// Service maps Stripe dispute webhooks onto order-level dispute records.
type Service struct {
	orders orderDisputer
	logg   *logger.Logger
}

func NewService(orderSvc orderDisputer, logg *logger.Logger) (*Service, error) {
	if orderSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{orders: orderSvc, logg: logg}, nil
}

// HandleEvent processes one verified Stripe event. Event types the dashboard
// does not care about are acknowledged without action.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"stripe_event_id": event.ID,
		"event_type":      event.Type,
	})

	switch event.Type {
	case stripe.EventTypeChargeDisputeCreated:
		var dispute stripe.Dispute
		if err := json.Unmarshal(event.Data.Raw, &dispute); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode dispute event")
		}
		return s.recordDispute(logCtx, event, &dispute)
	case stripe.EventTypeChargeDisputeClosed, stripe.EventTypeChargeDisputeUpdated:
		s.logg.Info(logCtx, "dispute lifecycle event acknowledged")
		return nil
	default:
		s.logg.Debug(logCtx, "stripe event ignored")
		return nil
	}
}

func (s *Service) recordDispute(ctx context.Context, event *stripe.Event, dispute *stripe.Dispute) error {
	orderNo := resolveOrderNo(dispute)
	if orderNo == "" {
		// Without the order reference there is nothing to attach the
		// dispute to; surface it so the delivery retries after a fix.
		return pkgerrors.New(pkgerrors.CodeValidation, "dispute missing order_no metadata").
			WithDetails(map[string]any{"dispute_id": dispute.ID})
	}

	disputedAt := time.Unix(event.Created, 0).UTC()
	input := orders.DisputeInput{
		OrderNo: orderNo,
		Reason:  disputeReason(dispute),
		Amount:  decimal.New(dispute.Amount, -2),
		Date:    &disputedAt,
	}

	order, err := s.orders.Dispute(ctx, input)
	if err != nil {
		return err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_no":   order.OrderNo,
		"dispute_id": dispute.ID,
		"amount":     input.Amount.String(),
	}), "dispute recorded from stripe webhook")
	return nil
}

func resolveOrderNo(dispute *stripe.Dispute) string {
	if no := strings.TrimSpace(dispute.Metadata[orderNoMetadataKey]); no != "" {
		return no
	}
	if dispute.Charge != nil {
		return strings.TrimSpace(dispute.Charge.Metadata[orderNoMetadataKey])
	}
	return ""
}

func disputeReason(dispute *stripe.Dispute) string {
	reason := strings.TrimSpace(string(dispute.Reason))
	if reason == "" {
		return "Chargeback"
	}
	return reason
}
