package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/unclebandit/dripline/internal/errors"
	"github.com/unclebandit/dripline/internal/model"
)

func intPtr(i int) *int { return &i }

func TestConditions(t *testing.T) {
	tests := []struct {
		name    string
		spec    model.ConditionSpec
		wantErr bool
	}{
		{"empty", model.ConditionSpec{}, false},
		{"rule ok", model.ConditionSpec{Rules: []model.FieldRule{{Field: "contact.email", Operator: model.OpNotEmpty}}}, false},
		{"unknown operator", model.ConditionSpec{Rules: []model.FieldRule{{Field: "email", Operator: "matches"}}}, true},
		{"empty field", model.ConditionSpec{Rules: []model.FieldRule{{Field: "", Operator: model.OpEquals}}}, true},
		{"stages ok", model.ConditionSpec{InStages: &model.StageConstraint{PipelineID: 1, StageIDs: []int{2}}}, false},
		{"stages without ids", model.ConditionSpec{NotInStages: &model.StageConstraint{PipelineID: 1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Conditions(tt.spec)
			if tt.wantErr {
				var ve *appErrors.ValidationError
				assert.True(t, errors.As(err, &ve), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAudience(t *testing.T) {
	assert.NoError(t, Audience(model.AudienceSpec{Kind: model.AudienceKindContacts, ContactIDs: []int{1, 2}}))
	assert.NoError(t, Audience(model.AudienceSpec{Kind: model.AudienceKindFilter, Filter: &model.AudienceFilter{HasPhone: true}}))
	assert.NoError(t, Audience(model.AudienceSpec{Kind: model.AudienceKindPipelineStage, PipelineID: 1, StageID: 2}))

	assert.Error(t, Audience(model.AudienceSpec{}))
	assert.Error(t, Audience(model.AudienceSpec{Kind: "everyone"}))
	assert.Error(t, Audience(model.AudienceSpec{Kind: model.AudienceKindContacts}))
	assert.Error(t, Audience(model.AudienceSpec{Kind: model.AudienceKindPipelineStage, PipelineID: 1}))
}

func TestSchedule(t *testing.T) {
	assert.NoError(t, Schedule(model.ScheduleSpec{}))
	assert.NoError(t, Schedule(model.ScheduleSpec{Timezone: "Africa/Nairobi", StartHour: 9, EndHour: 18, Days: []int{1, 2, 3, 4, 5}}))

	assert.Error(t, Schedule(model.ScheduleSpec{StartHour: 9, EndHour: 25, Days: []int{1}}))
	assert.Error(t, Schedule(model.ScheduleSpec{StartHour: 9, EndHour: 17, Days: []int{7}}))
	assert.Error(t, Schedule(model.ScheduleSpec{StartHour: 9, EndHour: 17, Days: []int{1, 1}}))
	assert.Error(t, Schedule(model.ScheduleSpec{StartHour: 18, EndHour: 9, Days: []int{1}}))
	assert.ErrorContains(t, Schedule(model.ScheduleSpec{Timezone: "Mars/Olympus"}), "unknown timezone")
}

func TestSchedule_HoursWithoutDays(t *testing.T) {
	err := Schedule(model.ScheduleSpec{Timezone: "UTC", StartHour: 9, EndHour: 18})
	assert.ErrorContains(t, err, "schedule.days")

	assert.ErrorContains(t, Schedule(model.ScheduleSpec{EndHour: 18}), "schedule.days")
}

func TestCampaign(t *testing.T) {
	base := func() *model.Campaign {
		return &model.Campaign{
			Name:     "Spring",
			Audience: model.AudienceSpec{Kind: model.AudienceKindContacts, ContactIDs: []int{1}},
		}
	}

	assert.NoError(t, Campaign(base()))

	c := base()
	c.Name = "  "
	assert.ErrorContains(t, Campaign(c), "name")

	c = base()
	c.LeadSettings = model.LeadSettings{Trigger: model.LeadOnReply}
	assert.ErrorContains(t, Campaign(c), "pipeline_id")

	c.PipelineID = intPtr(3)
	assert.ErrorContains(t, Campaign(c), "lead_settings.stage_id")

	c.LeadSettings.StageID = 4
	assert.NoError(t, Campaign(c))

	c.LeadSettings = model.LeadSettings{Trigger: model.LeadOnFirstSend}
	assert.ErrorContains(t, Campaign(c), "lead_settings.stage_id")

	c.LeadSettings = model.LeadSettings{Trigger: model.LeadNone}
	assert.NoError(t, Campaign(c))

	c.LeadSettings = model.LeadSettings{Trigger: "sometimes", StageID: 4}
	assert.Error(t, Campaign(c))
}

func TestStep(t *testing.T) {
	assert.NoError(t, Step(&model.Step{TemplateID: 1, Trigger: model.TriggerDelay, DelayHours: 24}))
	assert.NoError(t, Step(&model.Step{TemplateID: 1, Trigger: model.TriggerAfterReply}))

	assert.ErrorContains(t, Step(&model.Step{Trigger: model.TriggerDelay}), "template_id")
	assert.ErrorContains(t, Step(&model.Step{TemplateID: 1, Trigger: "whenever"}), "trigger_type")
	assert.ErrorContains(t, Step(&model.Step{TemplateID: 1, DelayMinutes: -5}), "delay")
	assert.Error(t, Step(&model.Step{TemplateID: 1, Conditions: model.ConditionSpec{
		Rules: []model.FieldRule{{Field: "email", Operator: "like"}},
	}}))
}
