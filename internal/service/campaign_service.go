// internal/service/campaign_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/dripline/internal/errors"
	"github.com/unclebandit/dripline/internal/model"
	"github.com/unclebandit/dripline/internal/ratelimit"
	"github.com/unclebandit/dripline/internal/repository"
	"github.com/unclebandit/dripline/internal/sequence"
	"github.com/unclebandit/dripline/internal/validation"
)

// Materializer enrolls a campaign's audience.
type Materializer interface {
	Materialize(ctx context.Context, c *model.Campaign) (*MaterializeResult, error)
}

type CampaignService struct {
	CampaignRepo    repository.CampaignRepositoryInterface
	ContactRepo     repository.ContactRepositoryInterface
	TemplateRepo    repository.TemplateRepositoryInterface
	StepRepo        repository.StepRepositoryInterface
	ParticipantRepo repository.ParticipantRepositoryInterface
	Audience        Materializer
	Log             *zap.Logger
	QuotaLoc        *time.Location
	Now             func() time.Time
}

type CampaignDetails struct {
	*model.Campaign
	Steps []model.Step   `json:"steps"`
	Stats map[string]int `json:"stats"`
}

type StartCampaignResult struct {
	CampaignID int                `json:"campaign_id"`
	Status     string             `json:"status"`
	Restarted  bool               `json:"restarted"`
	Audience   *MaterializeResult `json:"audience"`
}

// CreateCampaign stores a new campaign in draft.
func (s *CampaignService) CreateCampaign(ctx context.Context, c *model.Campaign) (*model.Campaign, error) {
	c.Status = model.CampaignDraft
	if c.LeadSettings.Trigger == "" {
		c.LeadSettings.Trigger = model.LeadNone
	}
	if err := validation.Campaign(c); err != nil {
		return nil, err
	}
	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	s.logger().Info("campaign created", zap.Int("campaign_id", c.ID), zap.String("name", c.Name))
	return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(ctx, offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// GetCampaignDetailsWithStats returns the campaign, its steps and the
// participant and send counts. "messages_today" counts from the start of the
// current quota day.
func (s *CampaignService) GetCampaignDetailsWithStats(ctx context.Context, campaignID int) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	steps, err := s.StepRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	stats, err := s.CampaignRepo.GetCampaignStats(ctx, campaignID, ratelimit.DayStart(s.now(), s.QuotaLoc))
	if err != nil {
		return nil, fmt.Errorf("campaign stats: %w", err)
	}
	return &CampaignDetails{Campaign: campaign, Steps: steps, Stats: stats}, nil
}

// StartCampaign activates the campaign and materializes its audience. A
// completed campaign starts over: its participants and their send records
// are removed first. Starting an active campaign only enrolls contacts that
// joined the audience since.
func (s *CampaignService) StartCampaign(ctx context.Context, campaignID int) (*StartCampaignResult, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	steps, err := s.StepRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	if len(steps) == 0 {
		return nil, appErrors.NewValidation("steps", "campaign has no sequence steps")
	}

	result := &StartCampaignResult{CampaignID: campaignID, Status: model.CampaignActive}
	if campaign.Status == model.CampaignCompleted {
		removed, err := s.ParticipantRepo.DeleteByCampaign(ctx, campaignID)
		if err != nil {
			return nil, fmt.Errorf("reset participants: %w", err)
		}
		result.Restarted = true
		s.logger().Info("campaign restarted", zap.Int("campaign_id", campaignID), zap.Int64("participants_removed", removed))
	}

	// Participants become claimable once the campaign is active, so enroll
	// first and flip the status after.
	audience, err := s.Audience.Materialize(ctx, campaign)
	if err != nil {
		return nil, err
	}
	result.Audience = audience

	if campaign.Status != model.CampaignActive {
		if err := s.CampaignRepo.UpdateStatus(ctx, campaignID, model.CampaignActive); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// PauseCampaign stops new claims. Sends already in flight finish.
func (s *CampaignService) PauseCampaign(ctx context.Context, campaignID int) error {
	return s.transition(ctx, campaignID, model.CampaignPaused, model.CampaignActive)
}

func (s *CampaignService) CompleteCampaign(ctx context.Context, campaignID int) error {
	return s.transition(ctx, campaignID, model.CampaignCompleted, model.CampaignActive, model.CampaignPaused, model.CampaignDraft)
}

func (s *CampaignService) transition(ctx context.Context, campaignID int, to string, from ...string) error {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	allowed := false
	for _, f := range from {
		if campaign.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return appErrors.NewInvalidTransition(campaign.Status, to)
	}
	if err := s.CampaignRepo.UpdateStatus(ctx, campaignID, to); err != nil {
		return err
	}
	s.logger().Info("campaign status changed",
		zap.Int("campaign_id", campaignID),
		zap.String("from", campaign.Status),
		zap.String("to", to),
	)
	return nil
}

// CampaignUpdate carries the editable campaign fields. Nil fields are kept.
type CampaignUpdate struct {
	Name             *string             `json:"name,omitempty"`
	Audience         *model.AudienceSpec `json:"audience,omitempty"`
	Schedule         *model.ScheduleSpec `json:"schedule,omitempty"`
	LeadSettings     *model.LeadSettings `json:"lead_settings,omitempty"`
	PipelineID       *int                `json:"pipeline_id,omitempty"`
	SendingAccountID *int                `json:"sending_account_id,omitempty"`
}

// UpdateCampaign applies an update. Schedule and lead settings take effect
// on the next tick; audience changes only matter for the next start.
func (s *CampaignService) UpdateCampaign(ctx context.Context, campaignID int, u CampaignUpdate) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Status == model.CampaignCompleted {
		return nil, appErrors.NewInvalidTransition(c.Status, "updated")
	}
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Audience != nil {
		c.Audience = *u.Audience
	}
	if u.Schedule != nil {
		c.Schedule = *u.Schedule
	}
	if u.LeadSettings != nil {
		c.LeadSettings = *u.LeadSettings
	}
	if u.PipelineID != nil {
		c.PipelineID = u.PipelineID
	}
	if u.SendingAccountID != nil {
		c.SendingAccountID = u.SendingAccountID
	}
	if err := validation.Campaign(c); err != nil {
		return nil, err
	}
	if err := s.CampaignRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RenderPreview renders the template of the step at stepIndex for a contact
// without sending anything. A non-blank override replaces the template text.
func (s *CampaignService) RenderPreview(ctx context.Context, campaignID, stepIndex, contactID int, overrideTemplate *string) (string, error) {
	if _, err := s.CampaignRepo.GetByID(ctx, campaignID); err != nil {
		return "", err
	}

	contact, err := s.ContactRepo.GetByID(ctx, contactID)
	if err != nil {
		return "", err
	}

	var content string
	if overrideTemplate != nil && strings.TrimSpace(*overrideTemplate) != "" {
		content = *overrideTemplate
	} else {
		steps, err := s.StepRepo.ListByCampaign(ctx, campaignID)
		if err != nil {
			return "", err
		}
		step, ok := findStep(steps, stepIndex)
		if !ok {
			return "", appErrors.NewValidation("step", fmt.Sprintf("campaign %d has no step %d", campaignID, stepIndex))
		}
		tmpl, err := s.TemplateRepo.GetByID(ctx, step.TemplateID)
		if err != nil {
			return "", err
		}
		content = tmpl.Content
	}

	if strings.TrimSpace(content) == "" {
		return "", appErrors.NewValidation("template", "template cannot be empty")
	}
	return sequence.Render(content, contact), nil
}

func findStep(steps []model.Step, index int) (model.Step, bool) {
	for _, st := range steps {
		if st.OrderIndex == index {
			return st, true
		}
	}
	return model.Step{}, false
}

func (s *CampaignService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *CampaignService) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
