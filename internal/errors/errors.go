// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every typed not-found error via errors.Is.
var ErrNotFound = errors.New("not found")

// ErrInvalidTransition is returned for campaign status changes the lifecycle forbids.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrCampaignNotFound is returned when a campaign id does not exist
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

func (e *ErrCampaignNotFound) Is(target error) bool { return target == ErrNotFound }

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrResourceNotFound covers templates, steps, contacts and participants.
type ErrResourceNotFound struct {
	Resource string
	ID       int
}

func (e *ErrResourceNotFound) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Resource, e.ID)
}

func (e *ErrResourceNotFound) Is(target error) bool { return target == ErrNotFound }

func NewTemplateNotFound(id int) error    { return &ErrResourceNotFound{Resource: "template", ID: id} }
func NewStepNotFound(id int) error        { return &ErrResourceNotFound{Resource: "step", ID: id} }
func NewContactNotFound(id int) error     { return &ErrResourceNotFound{Resource: "contact", ID: id} }
func NewParticipantNotFound(id int) error { return &ErrResourceNotFound{Resource: "participant", ID: id} }

// ValidationError reports a rejected request payload.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func NewValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewInvalidTransition wraps ErrInvalidTransition with the offending statuses.
func NewInvalidTransition(from, to string) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
