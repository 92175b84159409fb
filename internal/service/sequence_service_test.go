package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/dripline/internal/errors"
	"github.com/unclebandit/dripline/internal/model"
	"github.com/unclebandit/dripline/internal/service"
)

func newSequenceService() (*service.SequenceService, *MockStepRepo, *MockTemplateRepo) {
	steps := &MockStepRepo{steps: map[int][]model.Step{}}
	templates := &MockTemplateRepo{templates: map[int]model.Template{
		1: {ID: 1, Content: "preset"},
		2: {ID: 2, CampaignID: intPtr(2), Content: "other campaign"},
	}}
	svc := &service.SequenceService{
		CampaignRepo: NewMockCampaignRepo(draftCampaign(1), draftCampaign(2)),
		TemplateRepo: templates,
		StepRepo:     steps,
	}
	return svc, steps, templates
}

func TestCreateTemplate(t *testing.T) {
	svc, _, _ := newSequenceService()
	ctx := context.Background()

	tmpl, err := svc.CreateTemplate(ctx, &model.Template{CampaignID: intPtr(1), Content: "Hi {{first_name}}"})
	require.NoError(t, err)
	assert.NotZero(t, tmpl.ID)

	_, err = svc.CreateTemplate(ctx, &model.Template{Content: "   "})
	var ve *appErrors.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = svc.CreateTemplate(ctx, &model.Template{CampaignID: intPtr(77), Content: "x"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUpdateTemplateKeepsOwner(t *testing.T) {
	svc, _, templates := newSequenceService()

	updated, err := svc.UpdateTemplate(context.Background(), &model.Template{ID: 2, CampaignID: intPtr(1), Content: "changed"})
	require.NoError(t, err)
	assert.Equal(t, 2, *updated.CampaignID)
	assert.Equal(t, "changed", templates.templates[2].Content)
}

func TestListTemplatesPresets(t *testing.T) {
	svc, _, _ := newSequenceService()

	presets, err := svc.ListTemplates(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, presets, 1)
	assert.Equal(t, 1, presets[0].ID)
}

func TestCreateStep(t *testing.T) {
	svc, steps, _ := newSequenceService()
	ctx := context.Background()

	st, err := svc.CreateStep(ctx, &model.Step{CampaignID: 1, OrderIndex: -1, TemplateID: 1, DelayHours: 24})
	require.NoError(t, err)
	assert.Equal(t, model.TriggerDelay, st.Trigger)
	assert.Equal(t, 0, st.OrderIndex)
	assert.Len(t, steps.steps[1], 1)

	_, err = svc.CreateStep(ctx, &model.Step{CampaignID: 1, TemplateID: 2})
	assert.ErrorContains(t, err, "another campaign")

	_, err = svc.CreateStep(ctx, &model.Step{CampaignID: 1, TemplateID: 1, Trigger: "sometime"})
	var ve *appErrors.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = svc.CreateStep(ctx, &model.Step{CampaignID: 1, TemplateID: 55})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUpdateStepKeepsPosition(t *testing.T) {
	svc, steps, _ := newSequenceService()
	steps.steps[1] = []model.Step{
		{ID: 10, CampaignID: 1, OrderIndex: 0, TemplateID: 1, Trigger: model.TriggerDelay},
		{ID: 11, CampaignID: 1, OrderIndex: 1, TemplateID: 1, Trigger: model.TriggerAfterReply},
	}

	st, err := svc.UpdateStep(context.Background(), &model.Step{ID: 11, OrderIndex: 0, TemplateID: 1, DelayMinutes: 30})
	require.NoError(t, err)
	assert.Equal(t, 1, st.OrderIndex)
	assert.Equal(t, model.TriggerAfterReply, st.Trigger)
	assert.Equal(t, 30, steps.steps[1][1].DelayMinutes)
}

func TestDeleteStepMissing(t *testing.T) {
	svc, _, _ := newSequenceService()
	assert.ErrorIs(t, svc.DeleteStep(context.Background(), 404), appErrors.ErrNotFound)
}
