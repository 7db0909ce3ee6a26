package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
	"github.com/partsdeskhq/partsdesk-backend/pkg/logger"
	"github.com/partsdeskhq/partsdesk-backend/pkg/mail"
	"github.com/partsdeskhq/partsdesk-backend/pkg/outbox"
)

const consumerName = "notifier"

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer, eventID string) (bool, error)
	Delete(ctx context.Context, consumer, eventID string) error
}

// Consumer watches the domain subscription and sends the transactional
// emails requested by the workflow services.
type Consumer struct {
	subscription *gcppubsub.Subscriber
	sender       mail.Sender
	idempotency  idempotencyChecker
	logg         *logger.Logger
}

// NewConsumer builds the email consumer.
func NewConsumer(subscription *gcppubsub.Subscriber, sender mail.Sender, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: subscription,
		sender:       sender,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	rawType := strings.TrimSpace(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": rawType,
	})

	eventType, err := enums.ParseOutboxEventType(rawType)
	if err != nil {
		c.logg.Warn(logCtx, "unknown event type")
		return processResult{}
	}
	if !RendersEmail(eventType) {
		c.logg.Debug(logCtx, "event does not request an email")
		return processResult{}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{}
	}
	if strings.TrimSpace(envelope.EventID) == "" {
		c.logg.Warn(logCtx, "envelope missing event id")
		return processResult{}
	}
	logCtx = c.logg.WithField(logCtx, "event_id", envelope.EventID)

	already, err := c.idempotency.CheckAndMarkProcessed(logCtx, consumerName, envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "email already sent")
		return processResult{}
	}

	message, err := Render(eventType, envelope.Data)
	if err != nil {
		// A payload that cannot render will never render; drop it.
		c.logg.Error(logCtx, "failed to render email", err)
		return processResult{}
	}

	if err := c.sender.Send(logCtx, message); err != nil {
		c.logg.Error(logCtx, "failed to send email", err)
		if delErr := c.idempotency.Delete(logCtx, consumerName, envelope.EventID); delErr != nil && !errors.Is(delErr, context.Canceled) {
			c.logg.Error(logCtx, "failed to release processed marker", delErr)
		}
		return processResult{nack: true}
	}

	c.logg.Info(c.logg.WithField(logCtx, "to", strings.Join(message.To, ",")), "email sent")
	return processResult{}
}
