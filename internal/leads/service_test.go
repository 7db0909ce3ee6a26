package leads

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partsdeskhq/partsdesk-backend/pkg/db/models"
	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
	pkgerrors "github.com/partsdeskhq/partsdesk-backend/pkg/errors"
	"github.com/partsdeskhq/partsdesk-backend/pkg/outbox"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubRepo struct {
	lead        *models.GmailLead
	leadUpdates map[string]any
	claimOK     bool
	comments    []*models.LeadComment
	created     []*models.GmailLead
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) FindByID(ctx context.Context, leadID uuid.UUID) (*models.GmailLead, error) {
	if s.lead == nil || s.lead.ID != leadID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.lead, nil
}

func (s *stubRepo) FindByMessageID(ctx context.Context, messageID string) (*models.GmailLead, error) {
	if s.lead != nil && s.lead.MessageID == messageID {
		return s.lead, nil
	}
	for _, lead := range s.created {
		if lead.MessageID == messageID {
			return lead, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) List(ctx context.Context, filter ListFilter) ([]models.GmailLead, int64, error) {
	if s.lead == nil {
		return nil, 0, nil
	}
	return []models.GmailLead{*s.lead}, 1, nil
}

func (s *stubRepo) Create(ctx context.Context, lead *models.GmailLead) (*models.GmailLead, error) {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	s.created = append(s.created, lead)
	return lead, nil
}

func (s *stubRepo) Update(ctx context.Context, leadID uuid.UUID, updates map[string]any) error {
	s.leadUpdates = updates
	return nil
}

func (s *stubRepo) ClaimLead(ctx context.Context, leadID, userID uuid.UUID, at time.Time) (bool, error) {
	return s.claimOK, nil
}

func (s *stubRepo) AddComment(ctx context.Context, comment *models.LeadComment) (*models.LeadComment, error) {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	s.comments = append(s.comments, comment)
	return comment, nil
}

func fixtureLead(status enums.LeadStatus) *models.GmailLead {
	return &models.GmailLead{
		ID:          uuid.New(),
		MessageID:   "msg-100",
		ThreadID:    "thread-1",
		FromAddress: "buyer@example.com",
		Subject:     "Need a 2014 Accord alternator",
		Status:      status,
		ReceivedAt:  time.Date(2025, 10, 2, 14, 0, 0, 0, time.UTC),
	}
}

func newTestService(t *testing.T, repo *stubRepo, ob *stubOutbox) Service {
	t.Helper()
	svc, err := NewService(repo, stubTx{}, ob)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestClaimActiveLead(t *testing.T) {
	lead := fixtureLead(enums.LeadStatusActive)
	repo := &stubRepo{lead: lead, claimOK: true}
	ob := &stubOutbox{}
	svc := newTestService(t, repo, ob)

	_, err := svc.Claim(context.Background(), lead.ID, Actor{UserID: uuid.New(), FirstName: "Dana"})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventLeadClaimed {
		t.Fatalf("expected lead_claimed event, got %+v", ob.events)
	}
	payload := ob.events[0].Data.(LeadClaimedEvent)
	if payload.MessageID != "msg-100" || payload.ClaimedBy != "Dana" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestClaimTakenLeadConflicts(t *testing.T) {
	lead := fixtureLead(enums.LeadStatusClaimed)
	repo := &stubRepo{lead: lead, claimOK: false}
	ob := &stubOutbox{}
	svc := newTestService(t, repo, ob)

	_, err := svc.Claim(context.Background(), lead.ID, Actor{UserID: uuid.New()})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
	if len(ob.events) != 0 {
		t.Fatal("failed claim must not emit")
	}
}

func TestClaimRequiresUser(t *testing.T) {
	lead := fixtureLead(enums.LeadStatusActive)
	svc := newTestService(t, &stubRepo{lead: lead}, &stubOutbox{})

	_, err := svc.Claim(context.Background(), lead.ID, Actor{})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestReleaseOnlyFromClaimed(t *testing.T) {
	lead := fixtureLead(enums.LeadStatusActive)
	repo := &stubRepo{lead: lead}
	svc := newTestService(t, repo, &stubOutbox{})

	_, err := svc.Release(context.Background(), lead.ID, Actor{})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}

	lead.Status = enums.LeadStatusClaimed
	if _, err := svc.Release(context.Background(), lead.ID, Actor{}); err != nil {
		t.Fatalf("release: %v", err)
	}
	if repo.leadUpdates["status"] != enums.LeadStatusActive {
		t.Fatalf("status = %v, want active", repo.leadUpdates["status"])
	}
	if repo.leadUpdates["claimed_by"] != nil {
		t.Fatal("claimed_by should be cleared")
	}
}

func TestCloseStampsClosedAt(t *testing.T) {
	lead := fixtureLead(enums.LeadStatusClaimed)
	repo := &stubRepo{lead: lead}
	svc := newTestService(t, repo, &stubOutbox{})

	if _, err := svc.Close(context.Background(), lead.ID, Actor{}); err != nil {
		t.Fatalf("close: %v", err)
	}
	if repo.leadUpdates["status"] != enums.LeadStatusClosed {
		t.Fatalf("status = %v, want closed", repo.leadUpdates["status"])
	}
	if _, ok := repo.leadUpdates["closed_at"]; !ok {
		t.Fatal("closed_at should be stamped")
	}
}

func TestAddLabelDeduplicates(t *testing.T) {
	lead := fixtureLead(enums.LeadStatusActive)
	lead.Labels = []string{"hot"}
	repo := &stubRepo{lead: lead}
	svc := newTestService(t, repo, &stubOutbox{})

	if _, err := svc.AddLabel(context.Background(), lead.ID, "hot", Actor{}); err != nil {
		t.Fatalf("add label: %v", err)
	}
	if repo.leadUpdates["labels"] != `["hot"]` {
		t.Fatalf("labels = %v, want no duplicate", repo.leadUpdates["labels"])
	}

	if _, err := svc.AddLabel(context.Background(), lead.ID, "engine", Actor{}); err != nil {
		t.Fatalf("add label: %v", err)
	}
	if repo.leadUpdates["labels"] != `["hot","engine"]` {
		t.Fatalf("labels = %v", repo.leadUpdates["labels"])
	}
}

func TestRemoveLabel(t *testing.T) {
	lead := fixtureLead(enums.LeadStatusActive)
	lead.Labels = []string{"hot", "engine"}
	repo := &stubRepo{lead: lead}
	svc := newTestService(t, repo, &stubOutbox{})

	if _, err := svc.RemoveLabel(context.Background(), lead.ID, "hot", Actor{}); err != nil {
		t.Fatalf("remove label: %v", err)
	}
	if repo.leadUpdates["labels"] != `["engine"]` {
		t.Fatalf("labels = %v", repo.leadUpdates["labels"])
	}
}

func TestAddCommentRequiresAuthorAndBody(t *testing.T) {
	lead := fixtureLead(enums.LeadStatusActive)
	repo := &stubRepo{lead: lead}
	svc := newTestService(t, repo, &stubOutbox{})

	if _, err := svc.AddComment(context.Background(), lead.ID, "", Actor{FirstName: "Dana"}); err == nil {
		t.Fatal("empty body must be rejected")
	}
	if _, err := svc.AddComment(context.Background(), lead.ID, "called them back", Actor{}); err == nil {
		t.Fatal("missing author must be rejected")
	}

	comment, err := svc.AddComment(context.Background(), lead.ID, "called them back", Actor{FirstName: "Dana"})
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if comment.Author != "Dana" || comment.Body != "called them back" {
		t.Fatalf("unexpected comment %+v", comment)
	}
}
