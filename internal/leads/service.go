package leads

import (
	"context"
	"encoding/json"
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
	"github.com/partsdeskhq/partsdesk-backend/pkg/pagination"
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

// Service defines the lead-claiming workflow operations.
type Service interface {
	List(ctx context.Context, input ListInput) ([]models.GmailLead, ListMeta, error)
	Get(ctx context.Context, leadID uuid.UUID) (*models.GmailLead, error)
	Claim(ctx context.Context, leadID uuid.UUID, actor Actor) (*models.GmailLead, error)
	Release(ctx context.Context, leadID uuid.UUID, actor Actor) (*models.GmailLead, error)
	Close(ctx context.Context, leadID uuid.UUID, actor Actor) (*models.GmailLead, error)
	AddLabel(ctx context.Context, leadID uuid.UUID, label string, actor Actor) (*models.GmailLead, error)
	RemoveLabel(ctx context.Context, leadID uuid.UUID, label string, actor Actor) (*models.GmailLead, error)
	AddComment(ctx context.Context, leadID uuid.UUID, body string, actor Actor) (*models.LeadComment, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	now    func() time.Time
}

// ListInput carries the lead-list query surface.
type ListInput struct {
	Status string
	Label  string
	Page   int
	Limit  int
}

// ListMeta describes the returned page.
type ListMeta struct {
	Total int64
	Page  int
	Limit int
	Pages int
}

// LeadClaimedEvent is emitted when a lead is claimed.
type LeadClaimedEvent struct {
	LeadID    uuid.UUID `json:"leadId"`
	MessageID string    `json:"messageId"`
	ClaimedBy string    `json:"claimedBy"`
}

// NewService builds the leads service.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("leads repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]models.GmailLead, ListMeta, error) {
	filter := ListFilter{
		Label: strings.TrimSpace(input.Label),
		Page:  pagination.Params{Page: input.Page, Limit: input.Limit}.Normalize(),
	}
	if trimmed := strings.TrimSpace(input.Status); trimmed != "" {
		status, err := enums.ParseLeadStatus(trimmed)
		if err != nil {
			return nil, ListMeta{}, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		filter.Status = status
	}

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, ListMeta{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list leads")
	}
	return rows, ListMeta{
		Total: total,
		Page:  filter.Page.Page,
		Limit: filter.Page.Limit,
		Pages: filter.Page.Pages(total),
	}, nil
}

func (s *service) Get(ctx context.Context, leadID uuid.UUID) (*models.GmailLead, error) {
	return s.loadLead(ctx, s.repo, leadID)
}

func (s *service) Claim(ctx context.Context, leadID uuid.UUID, actor Actor) (*models.GmailLead, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "claiming user required")
	}

	var claimed *models.GmailLead
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lead, err := s.loadLead(ctx, repo, leadID)
		if err != nil {
			return err
		}

		ok, err := repo.ClaimLead(ctx, leadID, actor.UserID, s.now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim lead")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("lead is already %s", lead.Status))
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLeadClaimed,
			AggregateType: enums.AggregateLead,
			AggregateID:   leadID,
			Version:       1,
			Actor:         actorRef(actor),
			Data: LeadClaimedEvent{
				LeadID:    leadID,
				MessageID: lead.MessageID,
				ClaimedBy: actor.FirstName,
			},
		}); err != nil {
			return err
		}

		fresh, err := repo.FindByID(ctx, leadID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload lead")
		}
		claimed = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (s *service) Release(ctx context.Context, leadID uuid.UUID, actor Actor) (*models.GmailLead, error) {
	return s.transition(ctx, leadID, enums.LeadStatusClaimed, map[string]any{
		"status":     enums.LeadStatusActive,
		"claimed_by": nil,
		"claimed_at": nil,
	}, "release")
}

func (s *service) Close(ctx context.Context, leadID uuid.UUID, actor Actor) (*models.GmailLead, error) {
	var closed *models.GmailLead
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lead, err := s.loadLead(ctx, repo, leadID)
		if err != nil {
			return err
		}
		if lead.Status == enums.LeadStatusClosed {
			closed = lead
			return nil
		}
		if err := repo.Update(ctx, leadID, map[string]any{
			"status":    enums.LeadStatusClosed,
			"closed_at": s.now(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close lead")
		}
		fresh, err := repo.FindByID(ctx, leadID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload lead")
		}
		closed = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

func (s *service) AddLabel(ctx context.Context, leadID uuid.UUID, label string, actor Actor) (*models.GmailLead, error) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "label required")
	}
	return s.mutateLabels(ctx, leadID, func(labels []string) []string {
		for _, existing := range labels {
			if existing == trimmed {
				return labels
			}
		}
		return append(labels, trimmed)
	})
}

func (s *service) RemoveLabel(ctx context.Context, leadID uuid.UUID, label string, actor Actor) (*models.GmailLead, error) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "label required")
	}
	return s.mutateLabels(ctx, leadID, func(labels []string) []string {
		out := labels[:0]
		for _, existing := range labels {
			if existing != trimmed {
				out = append(out, existing)
			}
		}
		return out
	})
}

func (s *service) AddComment(ctx context.Context, leadID uuid.UUID, body string, actor Actor) (*models.LeadComment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment body required")
	}
	if strings.TrimSpace(actor.FirstName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment author required")
	}

	var created *models.LeadComment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.loadLead(ctx, repo, leadID); err != nil {
			return err
		}
		comment := &models.LeadComment{
			LeadID: leadID,
			Author: strings.TrimSpace(actor.FirstName),
			Body:   strings.TrimSpace(body),
		}
		var err error
		created, err = repo.AddComment(ctx, comment)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add comment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) transition(ctx context.Context, leadID uuid.UUID, required enums.LeadStatus, updates map[string]any, action string) (*models.GmailLead, error) {
	var updated *models.GmailLead
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lead, err := s.loadLead(ctx, repo, leadID)
		if err != nil {
			return err
		}
		if lead.Status != required {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("%s only allowed from %q, lead is %q", action, required, lead.Status))
		}
		if err := repo.Update(ctx, leadID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
		}
		fresh, err := repo.FindByID(ctx, leadID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload lead")
		}
		updated = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) mutateLabels(ctx context.Context, leadID uuid.UUID, mutate func([]string) []string) (*models.GmailLead, error) {
	var updated *models.GmailLead
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lead, err := s.loadLead(ctx, repo, leadID)
		if err != nil {
			return err
		}
		labels := mutate(append([]string(nil), lead.Labels...))
		// Map updates bypass the model's JSON serializer, so the column
		// value is marshalled here.
		payload, err := json.Marshal(labels)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal labels")
		}
		if err := repo.Update(ctx, leadID, map[string]any{"labels": string(payload)}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update labels")
		}
		fresh, err := repo.FindByID(ctx, leadID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload lead")
		}
		updated = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) loadLead(ctx context.Context, repo Repository, leadID uuid.UUID) (*models.GmailLead, error) {
	if leadID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lead id required")
	}
	lead, err := repo.FindByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lead not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lead")
	}
	return lead, nil
}

func actorRef(actor Actor) *outbox.ActorRef {
	ref := &outbox.ActorRef{FirstName: actor.FirstName}
	if actor.UserID != uuid.Nil {
		ref.UserID = actor.UserID.String()
	}
	return ref
}
