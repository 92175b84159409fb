// Package events holds the inbound notifications the worker and the webhook
// endpoints accept, and the de-duplication applied to them.
package events

import (
	"time"

	appErrors "github.com/unclebandit/dripline/internal/errors"
)

// Reply says a contact answered. Delivery is at-least-once; EventID lets
// redeliveries be dropped.
type Reply struct {
	EventID    string    `json:"event_id"`
	ContactID  int       `json:"contact_id"`
	ReceivedAt time.Time `json:"received_at,omitempty"`
}

func (r Reply) Validate() error {
	if r.ContactID <= 0 {
		return appErrors.NewValidation("contact_id", "is required")
	}
	return nil
}

// StageChange says a contact moved to a pipeline stage.
type StageChange struct {
	EventID    string `json:"event_id,omitempty"`
	ContactID  int    `json:"contact_id"`
	PipelineID int    `json:"pipeline_id"`
	StageID    int    `json:"stage_id"`
}

func (s StageChange) Validate() error {
	switch {
	case s.ContactID <= 0:
		return appErrors.NewValidation("contact_id", "is required")
	case s.PipelineID <= 0:
		return appErrors.NewValidation("pipeline_id", "is required")
	case s.StageID <= 0:
		return appErrors.NewValidation("stage_id", "is required")
	}
	return nil
}
