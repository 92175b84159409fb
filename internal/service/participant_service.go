package service

import (
	"context"
	"fmt"
	"time"

	"github.com/unclebandit/dripline/internal/model"
	"github.com/unclebandit/dripline/internal/ratelimit"
	"github.com/unclebandit/dripline/internal/repository"
)

// ParticipantService is the read side of enrollment: who is in a campaign,
// what they were sent, and how much of today's quota each account used.
type ParticipantService struct {
	CampaignRepo    repository.CampaignRepositoryInterface
	ParticipantRepo repository.ParticipantRepositoryInterface
	SendRecordRepo  repository.SendRecordRepositoryInterface
	QuotaLoc        *time.Location
	Now             func() time.Time
}

type ParticipantHistory struct {
	*model.Participant
	Sends []model.SendRecord `json:"sends"`
}

func (s *ParticipantService) ListParticipants(ctx context.Context, campaignID, page, pageSize int) ([]model.Participant, error) {
	if _, err := s.CampaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}
	return s.ParticipantRepo.ListByCampaign(ctx, campaignID, (page-1)*pageSize, pageSize)
}

func (s *ParticipantService) History(ctx context.Context, participantID int) (*ParticipantHistory, error) {
	p, err := s.ParticipantRepo.GetByID(ctx, participantID)
	if err != nil {
		return nil, err
	}
	sends, err := s.SendRecordRepo.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("list sends for participant %d: %w", participantID, err)
	}
	return &ParticipantHistory{Participant: p, Sends: sends}, nil
}

// SendsToday counts sends per sending account since the start of the quota day.
func (s *ParticipantService) SendsToday(ctx context.Context) (map[int]int, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	return s.SendRecordRepo.CountsSince(ctx, ratelimit.DayStart(now, s.QuotaLoc))
}
