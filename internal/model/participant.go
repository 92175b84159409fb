// internal/model/participant.go
package model

import "time"

const (
	ParticipantPending   = "pending"
	ParticipantSent      = "sent"
	ParticipantReplied   = "replied"
	ParticipantCompleted = "completed"
	ParticipantFailed    = "failed"
)

// Participant is one contact's progress through one campaign.
type Participant struct {
	ID               int        `db:"id" json:"id"`
	CampaignID       int        `db:"campaign_id" json:"campaign_id"`
	ContactID        int        `db:"contact_id" json:"contact_id"`
	SendingAccountID int        `db:"sending_account_id" json:"sending_account_id"`
	ChannelID        string     `db:"channel_id" json:"channel_id"`
	Status           string     `db:"status" json:"status"`
	CurrentStep      int        `db:"current_step" json:"current_step"`
	NextSendAt       *time.Time `db:"next_send_at" json:"next_send_at,omitempty"`
	AwaitingReply    bool       `db:"awaiting_reply" json:"awaiting_reply"`
	LastError        string     `db:"last_error" json:"last_error,omitempty"`
	LastSentAt       *time.Time `db:"last_sent_at" json:"last_sent_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// Active reports whether the dispatch loop may still pick the participant up.
func (p Participant) Active() bool {
	return p.Status == ParticipantPending || p.Status == ParticipantSent
}

// Schedule returns the tagged wait state behind next_send_at/awaiting_reply.
func (p Participant) Schedule() Schedule {
	switch {
	case p.AwaitingReply:
		return AwaitReply()
	case p.NextSendAt != nil:
		return ScheduleAt(*p.NextSendAt)
	default:
		return Schedule{}
	}
}

// Apply writes the schedule back onto the row fields.
func (p *Participant) Apply(s Schedule) {
	p.AwaitingReply = s.Kind == ScheduleAwaitingReply
	if s.Kind == ScheduleScheduled {
		at := s.At
		p.NextSendAt = &at
		return
	}
	p.NextSendAt = nil
}

type ScheduleKind int

const (
	ScheduleIdle ScheduleKind = iota
	ScheduleScheduled
	ScheduleAwaitingReply
)

// Schedule distinguishes "due at a time" from "waiting for an inbound reply"
// and from "nothing left to do".
type Schedule struct {
	Kind ScheduleKind
	At   time.Time
}

func ScheduleAt(t time.Time) Schedule { return Schedule{Kind: ScheduleScheduled, At: t} }
func AwaitReply() Schedule            { return Schedule{Kind: ScheduleAwaitingReply} }
