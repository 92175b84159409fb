package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/unclebandit/dripline/internal/events"
	"github.com/unclebandit/dripline/internal/metrics"
	"github.com/unclebandit/dripline/internal/model"
	"github.com/unclebandit/dripline/internal/repository"
)

// Enroller adds specific contacts to a running campaign.
type Enroller interface {
	Enroll(ctx context.Context, c *model.Campaign, contacts []model.Contact) (*MaterializeResult, error)
}

// EnrollmentService reacts to pipeline stage changes: it records the new
// stage and enrolls the contact in every active campaign whose audience is
// that stage.
type EnrollmentService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	PipelineRepo repository.PipelineRepositoryInterface
	Audience     Enroller
	Log          *zap.Logger
}

type EnrollmentResult struct {
	Campaigns []int `json:"campaigns"`
	Enrolled  int   `json:"enrolled"`
}

func (s *EnrollmentService) HandleStageChange(ctx context.Context, ev events.StageChange) (*EnrollmentResult, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	if err := s.PipelineRepo.SetStage(ctx, ev.ContactID, ev.PipelineID, ev.StageID); err != nil {
		metrics.InboundEvents.WithLabelValues("stage_change", "error").Inc()
		return nil, fmt.Errorf("record stage: %w", err)
	}

	campaigns, err := s.CampaignRepo.ListByAudienceStage(ctx, ev.PipelineID, ev.StageID)
	if err != nil {
		metrics.InboundEvents.WithLabelValues("stage_change", "error").Inc()
		return nil, fmt.Errorf("campaigns for stage %d: %w", ev.StageID, err)
	}
	res := &EnrollmentResult{Campaigns: []int{}}
	if len(campaigns) == 0 {
		metrics.InboundEvents.WithLabelValues("stage_change", "applied").Inc()
		return res, nil
	}

	contact, err := s.ContactRepo.GetByID(ctx, ev.ContactID)
	if err != nil {
		metrics.InboundEvents.WithLabelValues("stage_change", "error").Inc()
		return nil, err
	}

	for _, c := range campaigns {
		r, err := s.Audience.Enroll(ctx, c, []model.Contact{*contact})
		if err != nil {
			metrics.InboundEvents.WithLabelValues("stage_change", "error").Inc()
			return nil, fmt.Errorf("enroll contact %d in campaign %d: %w", contact.ID, c.ID, err)
		}
		res.Campaigns = append(res.Campaigns, c.ID)
		res.Enrolled += r.Enrolled
		if r.Enrolled > 0 {
			s.logger().Info("contact enrolled on stage change",
				zap.Int("campaign_id", c.ID),
				zap.Int("contact_id", contact.ID),
				zap.Int("stage_id", ev.StageID),
			)
		}
	}
	metrics.InboundEvents.WithLabelValues("stage_change", "applied").Inc()
	return res, nil
}

func (s *EnrollmentService) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
