package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/partsdeskhq/partsdesk-backend/pkg/config"
	"github.com/partsdeskhq/partsdesk-backend/pkg/db"
	"github.com/partsdeskhq/partsdesk-backend/pkg/db/models"
	pkgerrors "github.com/partsdeskhq/partsdesk-backend/pkg/errors"
	"github.com/partsdeskhq/partsdesk-backend/pkg/logger"
)

// InboundMessage is the mailbox-agnostic form of a new inquiry email.
type InboundMessage struct {
	MessageID  string
	ThreadID   string
	From       string
	Subject    string
	Snippet    string
	ReceivedAt time.Time
}

// MessageSource lists new inquiry emails from the sales mailbox.
type MessageSource interface {
	FetchNew(ctx context.Context) ([]InboundMessage, error)
}

// GmailSource reads the sales mailbox through the Gmail API.
type GmailSource struct {
	svc      *gmail.Service
	mailbox  string
	query    string
	pageSize int64
}

// NewGmailSource builds a Gmail-backed message source.
func NewGmailSource(ctx context.Context, cfg config.LeadsConfig, gcp config.GCPConfig) (*GmailSource, error) {
	opts := []option.ClientOption{option.WithScopes(gmail.GmailReadonlyScope)}
	if gcp.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(gcp.CredentialsFile))
	}
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}
	mailbox := strings.TrimSpace(cfg.Mailbox)
	if mailbox == "" {
		mailbox = "me"
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 25
	}
	return &GmailSource{
		svc:      svc,
		mailbox:  mailbox,
		query:    cfg.LabelQuery,
		pageSize: pageSize,
	}, nil
}

func (g *GmailSource) FetchNew(ctx context.Context) ([]InboundMessage, error) {
	listed, err := g.svc.Users.Messages.List(g.mailbox).
		Q(g.query).
		MaxResults(g.pageSize).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list mailbox %s: %w", g.mailbox, err)
	}

	out := make([]InboundMessage, 0, len(listed.Messages))
	for _, ref := range listed.Messages {
		full, err := g.svc.Users.Messages.Get(g.mailbox, ref.Id).
			Format("metadata").
			MetadataHeaders("From", "Subject").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("get message %s: %w", ref.Id, err)
		}
		out = append(out, toInbound(full))
	}
	return out, nil
}

func toInbound(msg *gmail.Message) InboundMessage {
	inbound := InboundMessage{
		MessageID:  msg.Id,
		ThreadID:   msg.ThreadId,
		Snippet:    msg.Snippet,
		ReceivedAt: time.UnixMilli(msg.InternalDate).UTC(),
	}
	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			switch header.Name {
			case "From":
				inbound.From = header.Value
			case "Subject":
				inbound.Subject = header.Value
			}
		}
	}
	return inbound
}

// Ingestor pulls new mailbox messages into the leads table. Sweeps are
// idempotent: the unique message-id index makes re-delivery harmless.
type Ingestor struct {
	source MessageSource
	repo   Repository
	tx     txRunner
	logger *logger.Logger
}

// NewIngestor builds a lead ingestor.
func NewIngestor(source MessageSource, repo Repository, tx txRunner, logg *logger.Logger) (*Ingestor, error) {
	if source == nil {
		return nil, fmt.Errorf("message source required")
	}
	if repo == nil {
		return nil, fmt.Errorf("leads repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Ingestor{source: source, repo: repo, tx: tx, logger: logg}, nil
}

// Sweep fetches the current batch of new messages and stores the unseen
// ones. Returns how many leads were created.
func (i *Ingestor) Sweep(ctx context.Context) (int, error) {
	messages, err := i.source.FetchNew(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch mailbox")
	}

	created := 0
	for _, msg := range messages {
		stored, err := i.storeOne(ctx, msg)
		if err != nil {
			return created, err
		}
		if stored {
			created++
		}
	}
	if i.logger != nil {
		i.logger.Info(i.logger.WithFields(ctx, map[string]any{
			"fetched": len(messages),
			"created": created,
		}), "lead sweep finished")
	}
	return created, nil
}

func (i *Ingestor) storeOne(ctx context.Context, msg InboundMessage) (bool, error) {
	if strings.TrimSpace(msg.MessageID) == "" {
		return false, nil
	}

	var stored bool
	err := i.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := i.repo.WithTx(tx)
		if _, err := repo.FindByMessageID(ctx, msg.MessageID); err == nil {
			return nil
		} else if !isNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check message id")
		}

		lead := &models.GmailLead{
			MessageID:   msg.MessageID,
			ThreadID:    msg.ThreadID,
			FromAddress: strings.TrimSpace(msg.From),
			Subject:     strings.TrimSpace(msg.Subject),
			Snippet:     msg.Snippet,
			ReceivedAt:  msg.ReceivedAt,
		}
		if _, err := repo.Create(ctx, lead); err != nil {
			// A concurrent sweep may have stored the same message.
			if db.IsUniqueViolation(err, "") {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store lead")
		}
		stored = true
		return nil
	})
	return stored, err
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
