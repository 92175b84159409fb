// internal/model/step.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

const (
	TriggerDelay      = "delay"
	TriggerAfterReply = "after_reply"
)

const (
	OpEquals    = "equals"
	OpNotEquals = "not_equals"
	OpContains  = "contains"
	OpEmpty     = "empty"
	OpNotEmpty  = "not_empty"
)

type Step struct {
	ID           int           `db:"id" json:"id"`
	CampaignID   int           `db:"campaign_id" json:"campaign_id"`
	OrderIndex   int           `db:"order_index" json:"order_index"`
	TemplateID   int           `db:"template_id" json:"template_id"`
	DelayHours   int           `db:"delay_hours" json:"delay_hours"`
	DelayMinutes int           `db:"delay_minutes" json:"delay_minutes"`
	Trigger      string        `db:"trigger_type" json:"trigger_type"`
	Conditions   ConditionSpec `db:"conditions" json:"conditions"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// Delay is only meaningful for TriggerDelay steps.
func (s Step) Delay() time.Duration {
	return time.Duration(s.DelayHours)*time.Hour + time.Duration(s.DelayMinutes)*time.Minute
}

type ConditionSpec struct {
	StopIfReplied bool             `json:"stopIfReplied,omitempty"`
	Rules         []FieldRule      `json:"rules,omitempty"`
	InStages      *StageConstraint `json:"inStages,omitempty"`
	NotInStages   *StageConstraint `json:"notInStages,omitempty"`
}

type FieldRule struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value,omitempty"`
}

type StageConstraint struct {
	PipelineID int   `json:"pipelineId"`
	StageIDs   []int `json:"stageIds"`
}

func (c ConditionSpec) IsZero() bool {
	return !c.StopIfReplied && len(c.Rules) == 0 && c.InStages == nil && c.NotInStages == nil
}

func (c ConditionSpec) Value() (driver.Value, error) { return json.Marshal(c) }
func (c *ConditionSpec) Scan(src any) error          { return scanJSON(src, c) }
