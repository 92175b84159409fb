package service

import (
	"context"
	"strings"

	appErrors "github.com/unclebandit/dripline/internal/errors"
	"github.com/unclebandit/dripline/internal/model"
	"github.com/unclebandit/dripline/internal/repository"
	"github.com/unclebandit/dripline/internal/validation"
)

// SequenceService manages templates and the ordered steps that use them.
type SequenceService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	TemplateRepo repository.TemplateRepositoryInterface
	StepRepo     repository.StepRepositoryInterface
}

func (s *SequenceService) CreateTemplate(ctx context.Context, t *model.Template) (*model.Template, error) {
	if err := s.checkTemplate(ctx, t); err != nil {
		return nil, err
	}
	if err := s.TemplateRepo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *SequenceService) UpdateTemplate(ctx context.Context, t *model.Template) (*model.Template, error) {
	existing, err := s.TemplateRepo.GetByID(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.CampaignID = existing.CampaignID
	if strings.TrimSpace(t.Content) == "" {
		return nil, appErrors.NewValidation("content", "template cannot be empty")
	}
	if err := s.TemplateRepo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *SequenceService) DeleteTemplate(ctx context.Context, id int) error {
	return s.TemplateRepo.Delete(ctx, id)
}

func (s *SequenceService) GetTemplate(ctx context.Context, id int) (*model.Template, error) {
	return s.TemplateRepo.GetByID(ctx, id)
}

// ListTemplates lists a campaign's templates, or the presets when campaignID
// is nil.
func (s *SequenceService) ListTemplates(ctx context.Context, campaignID *int) ([]model.Template, error) {
	return s.TemplateRepo.List(ctx, campaignID)
}

func (s *SequenceService) checkTemplate(ctx context.Context, t *model.Template) error {
	if strings.TrimSpace(t.Content) == "" {
		return appErrors.NewValidation("content", "template cannot be empty")
	}
	if t.CampaignID != nil {
		if _, err := s.CampaignRepo.GetByID(ctx, *t.CampaignID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SequenceService) ListSteps(ctx context.Context, campaignID int) ([]model.Step, error) {
	if _, err := s.CampaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.StepRepo.ListByCampaign(ctx, campaignID)
}

// CreateStep inserts a step at st.OrderIndex, shifting later steps down. A
// negative index appends.
func (s *SequenceService) CreateStep(ctx context.Context, st *model.Step) (*model.Step, error) {
	if st.Trigger == "" {
		st.Trigger = model.TriggerDelay
	}
	if err := validation.Step(st); err != nil {
		return nil, err
	}
	if _, err := s.CampaignRepo.GetByID(ctx, st.CampaignID); err != nil {
		return nil, err
	}
	if err := s.checkStepTemplate(ctx, st); err != nil {
		return nil, err
	}
	if err := s.StepRepo.Insert(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// UpdateStep changes a step in place; its position is kept.
func (s *SequenceService) UpdateStep(ctx context.Context, st *model.Step) (*model.Step, error) {
	existing, err := s.StepRepo.GetByID(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	st.CampaignID = existing.CampaignID
	st.OrderIndex = existing.OrderIndex
	if st.Trigger == "" {
		st.Trigger = existing.Trigger
	}
	if err := validation.Step(st); err != nil {
		return nil, err
	}
	if err := s.checkStepTemplate(ctx, st); err != nil {
		return nil, err
	}
	if err := s.StepRepo.Update(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// DeleteStep removes a step and closes the gap in the order.
func (s *SequenceService) DeleteStep(ctx context.Context, id int) error {
	return s.StepRepo.Delete(ctx, id)
}

// checkStepTemplate requires the template to be a preset or to belong to
// the step's campaign.
func (s *SequenceService) checkStepTemplate(ctx context.Context, st *model.Step) error {
	tmpl, err := s.TemplateRepo.GetByID(ctx, st.TemplateID)
	if err != nil {
		return err
	}
	if tmpl.CampaignID != nil && *tmpl.CampaignID != st.CampaignID {
		return appErrors.NewValidation("template_id", "template belongs to another campaign")
	}
	return nil
}
