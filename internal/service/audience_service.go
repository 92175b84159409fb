package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/dripline/internal/errors"
	"github.com/unclebandit/dripline/internal/model"
	"github.com/unclebandit/dripline/internal/repository"
)

// AudienceService turns a campaign's audience into participant rows.
type AudienceService struct {
	ContactRepo     repository.ContactRepositoryInterface
	AccountRepo     repository.AccountRepositoryInterface
	ParticipantRepo repository.ParticipantRepositoryInterface
	PipelineRepo    repository.PipelineRepositoryInterface
	Log             *zap.Logger
	Now             func() time.Time
}

type MaterializeResult struct {
	Resolved int `json:"resolved"`
	Enrolled int `json:"enrolled"`
	Existing int `json:"existing"`
	Skipped  int `json:"skipped"`
}

// Materialize resolves the audience and enrolls every contact with a usable
// destination. Contacts already in the campaign are left alone, so running it
// again is safe.
func (s *AudienceService) Materialize(ctx context.Context, c *model.Campaign) (*MaterializeResult, error) {
	contacts, err := s.resolve(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("resolve audience for campaign %d: %w", c.ID, err)
	}
	res, err := s.Enroll(ctx, c, contacts)
	if err != nil {
		return nil, err
	}
	s.logger().Info("audience materialized",
		zap.Int("campaign_id", c.ID),
		zap.Int("resolved", res.Resolved),
		zap.Int("enrolled", res.Enrolled),
		zap.Int("existing", res.Existing),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// Enroll binds each contact to a sending account and destination and inserts
// a participant due immediately.
func (s *AudienceService) Enroll(ctx context.Context, c *model.Campaign, contacts []model.Contact) (*MaterializeResult, error) {
	accounts, err := s.accounts(ctx, c)
	if err != nil {
		return nil, err
	}

	now := s.now()
	res := &MaterializeResult{Resolved: len(contacts)}
	for i := range contacts {
		contact := &contacts[i]
		account, destination, ok := bind(accounts, contact)
		if !ok {
			res.Skipped++
			s.logger().Debug("contact has no destination",
				zap.Int("campaign_id", c.ID),
				zap.Int("contact_id", contact.ID),
			)
			continue
		}

		p := &model.Participant{
			CampaignID:       c.ID,
			ContactID:        contact.ID,
			SendingAccountID: account.ID,
			ChannelID:        destination,
			Status:           model.ParticipantPending,
			CurrentStep:      0,
		}
		p.Apply(model.ScheduleAt(now))

		inserted, err := s.ParticipantRepo.InsertIgnore(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("enroll contact %d: %w", contact.ID, err)
		}
		if inserted {
			res.Enrolled++
		} else {
			res.Existing++
		}
	}
	return res, nil
}

func (s *AudienceService) resolve(ctx context.Context, c *model.Campaign) ([]model.Contact, error) {
	a := c.Audience
	switch a.Kind {
	case model.AudienceKindContacts:
		return s.ContactRepo.ListByIDs(ctx, c.OrganizationID, a.ContactIDs)
	case model.AudienceKindFilter:
		var f model.AudienceFilter
		if a.Filter != nil {
			f = *a.Filter
		}
		return s.ContactRepo.Search(ctx, c.OrganizationID, f, a.ExcludeEnrolled)
	case model.AudienceKindPipelineStage:
		ids, err := s.PipelineRepo.ContactsInStage(ctx, a.PipelineID, a.StageID)
		if err != nil {
			return nil, err
		}
		return s.ContactRepo.ListByIDs(ctx, c.OrganizationID, ids)
	}
	return nil, appErrors.NewValidation("audience.kind", fmt.Sprintf("unknown audience kind %q", a.Kind))
}

// accounts lists the sending accounts a participant may be bound to: the
// campaign's own account, or every active account of the organization.
func (s *AudienceService) accounts(ctx context.Context, c *model.Campaign) ([]model.SendingAccount, error) {
	if c.SendingAccountID != nil {
		a, err := s.AccountRepo.GetByID(ctx, *c.SendingAccountID)
		if err != nil {
			return nil, err
		}
		if !a.Active {
			return nil, appErrors.NewValidation("sending_account_id", fmt.Sprintf("account %d is inactive", a.ID))
		}
		return []model.SendingAccount{*a}, nil
	}
	accounts, err := s.AccountRepo.ListActive(ctx, c.OrganizationID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, appErrors.NewValidation("sending_account_id", "organization has no active sending account")
	}
	return accounts, nil
}

func bind(accounts []model.SendingAccount, contact *model.Contact) (model.SendingAccount, string, bool) {
	for _, a := range accounts {
		if dest := a.Destination(contact); dest != "" {
			return a, dest, true
		}
	}
	return model.SendingAccount{}, "", false
}

func (s *AudienceService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AudienceService) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
