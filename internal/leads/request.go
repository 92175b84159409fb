// Package leads turns first sends and replies into pipeline records.
//
// Requests travel through the queue after the triggering transaction has
// committed, so a slow or unavailable CRM never affects dispatch.
package leads

import (
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/dripline/internal/model"
)

const (
	ReasonFirstSend = "first_send"
	ReasonReply     = "reply"
)

type Request struct {
	ID          string    `json:"id"`
	CampaignID  int       `json:"campaign_id"`
	ContactID   int       `json:"contact_id"`
	PipelineID  int       `json:"pipeline_id"`
	StageID     int       `json:"stage_id"`
	OwnerID     int       `json:"owner_id,omitempty"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// RequestFor builds the lead request a campaign asks for. It reports false
// when the campaign is not linked to a pipeline.
func RequestFor(c *model.Campaign, contactID int, reason string) (Request, bool) {
	if c == nil || c.PipelineID == nil {
		return Request{}, false
	}
	return Request{
		ID:          uuid.NewString(),
		CampaignID:  c.ID,
		ContactID:   contactID,
		PipelineID:  *c.PipelineID,
		StageID:     c.LeadSettings.StageID,
		OwnerID:     c.LeadSettings.OwnerID,
		Reason:      reason,
		RequestedAt: time.Now().UTC(),
	}, true
}
