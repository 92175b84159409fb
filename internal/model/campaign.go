// internal/model/campaign.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	CampaignDraft     = "draft"
	CampaignActive    = "active"
	CampaignPaused    = "paused"
	CampaignCompleted = "completed"
)

const (
	AudienceKindContacts      = "contacts"
	AudienceKindFilter        = "filter"
	AudienceKindPipelineStage = "pipeline_stage"
)

const (
	LeadOnFirstSend = "on_first_send"
	LeadOnReply     = "on_reply"
	LeadNone        = "none"
)

type Campaign struct {
	ID               int          `db:"id" json:"id"`
	OrganizationID   int          `db:"organization_id" json:"organization_id"`
	Name             string       `db:"name" json:"name"`
	Status           string       `db:"status" json:"status"`
	Audience         AudienceSpec `db:"audience" json:"audience"`
	Schedule         ScheduleSpec `db:"schedule" json:"schedule"`
	LeadSettings     LeadSettings `db:"lead_settings" json:"lead_settings"`
	PipelineID       *int         `db:"pipeline_id" json:"pipeline_id,omitempty"`
	SendingAccountID *int         `db:"sending_account_id" json:"sending_account_id,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt        *time.Time   `db:"updated_at" json:"updated_at,omitempty"`
}

// AudienceSpec describes who gets enrolled when the campaign starts.
// Kind "contacts" uses ContactIDs, "filter" uses Filter and "pipeline_stage"
// enrolls contacts sitting in PipelineID/StageID, now and on later stage changes.
type AudienceSpec struct {
	Kind            string          `json:"kind"`
	ContactIDs      []int           `json:"contact_ids,omitempty"`
	Filter          *AudienceFilter `json:"filter,omitempty"`
	PipelineID      int             `json:"pipeline_id,omitempty"`
	StageID         int             `json:"stage_id,omitempty"`
	ExcludeEnrolled bool            `json:"exclude_enrolled,omitempty"`
}

type AudienceFilter struct {
	Search   string `json:"search,omitempty"`
	Company  string `json:"company,omitempty"`
	HasEmail bool   `json:"has_email,omitempty"`
	HasPhone bool   `json:"has_phone,omitempty"`
}

// ScheduleSpec is the business-hours window. Hours are local to Timezone,
// Start inclusive and End exclusive. Days use time.Weekday numbering.
type ScheduleSpec struct {
	Timezone  string `json:"timezone,omitempty"`
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
	Days      []int  `json:"days,omitempty"`
}

type LeadSettings struct {
	Trigger string `json:"trigger"`
	StageID int    `json:"stage_id,omitempty"`
	OwnerID int    `json:"owner_id,omitempty"`
}

// Value and Scan store the spec types as JSONB.

func (a AudienceSpec) Value() (driver.Value, error) { return json.Marshal(a) }
func (a *AudienceSpec) Scan(src any) error          { return scanJSON(src, a) }
func (s ScheduleSpec) Value() (driver.Value, error) { return json.Marshal(s) }
func (s *ScheduleSpec) Scan(src any) error          { return scanJSON(src, s) }
func (l LeadSettings) Value() (driver.Value, error) { return json.Marshal(l) }
func (l *LeadSettings) Scan(src any) error          { return scanJSON(src, l) }

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported json source %T", src)
	}
}
