// Package validation checks the JSON documents embedded in campaigns and
// steps against JSON schemas before they are stored.
package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	appErrors "github.com/unclebandit/dripline/internal/errors"
	"github.com/unclebandit/dripline/internal/model"
)

var (
	conditions   = mustSchema(conditionsSchema)
	audience     = mustSchema(audienceSchema)
	scheduleSpec = mustSchema(scheduleSchema)
	leadSettings = mustSchema(leadSettingsSchema)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return s
}

func Conditions(c model.ConditionSpec) error {
	return validate("conditions", conditions, c)
}

func Audience(a model.AudienceSpec) error {
	return validate("audience", audience, a)
}

// Schedule also rejects unknown timezones, an empty hour range when days
// are given, and hours without days.
func Schedule(s model.ScheduleSpec) error {
	if err := validate("schedule", scheduleSpec, s); err != nil {
		return err
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return appErrors.NewValidation("schedule.timezone", fmt.Sprintf("unknown timezone %q", s.Timezone))
		}
	}
	if len(s.Days) == 0 && (s.StartHour != 0 || s.EndHour != 0) {
		return appErrors.NewValidation("schedule.days", "is required when hours are set")
	}
	if len(s.Days) > 0 && s.StartHour >= s.EndHour {
		return appErrors.NewValidation("schedule", "start_hour must be before end_hour")
	}
	return nil
}

func LeadSettings(l model.LeadSettings) error {
	return validate("lead_settings", leadSettings, l)
}

// Campaign validates every embedded document of a campaign.
func Campaign(c *model.Campaign) error {
	if strings.TrimSpace(c.Name) == "" {
		return appErrors.NewValidation("name", "is required")
	}
	if err := Audience(c.Audience); err != nil {
		return err
	}
	if err := Schedule(c.Schedule); err != nil {
		return err
	}
	if c.LeadSettings.Trigger == "" {
		return nil
	}
	if err := LeadSettings(c.LeadSettings); err != nil {
		return err
	}
	if c.LeadSettings.Trigger == model.LeadNone {
		return nil
	}
	if c.PipelineID == nil {
		return appErrors.NewValidation("pipeline_id", "is required when leads are created")
	}
	if c.LeadSettings.StageID < 1 {
		return appErrors.NewValidation("lead_settings.stage_id", "is required when leads are created")
	}
	return nil
}

// Step validates trigger, delay and conditions.
func Step(s *model.Step) error {
	if s.TemplateID <= 0 {
		return appErrors.NewValidation("template_id", "is required")
	}
	switch s.Trigger {
	case "", model.TriggerDelay, model.TriggerAfterReply:
	default:
		return appErrors.NewValidation("trigger_type", fmt.Sprintf("unknown trigger %q", s.Trigger))
	}
	if s.DelayHours < 0 || s.DelayMinutes < 0 {
		return appErrors.NewValidation("delay", "must not be negative")
	}
	return Conditions(s.Conditions)
}

func validate(field string, schema *gojsonschema.Schema, doc any) error {
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return appErrors.NewValidation(field, err.Error())
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		msgs[i] = desc.String()
	}
	return appErrors.NewValidation(field, strings.Join(msgs, "; "))
}
