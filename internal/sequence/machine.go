// Package sequence advances one participant through its campaign's steps.
//
// A Tick is a pure decision over already-claimed state plus one channel
// send; persisting the result is the caller's job.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/dripline/internal/channel"
	appErrors "github.com/unclebandit/dripline/internal/errors"
	"github.com/unclebandit/dripline/internal/model"
	"github.com/unclebandit/dripline/internal/ratelimit"
	"github.com/unclebandit/dripline/internal/schedule"
)

// Outcome names what a tick did to a participant.
type Outcome string

const (
	OutcomeSent           Outcome = "sent"
	OutcomeSkipped        Outcome = "skipped"
	OutcomeDeferredWindow Outcome = "deferred_window"
	OutcomeDeferredQuota  Outcome = "deferred_quota"
	OutcomeCompleted      Outcome = "completed"
	OutcomeFailed         Outcome = "failed"
)

// Catalog is the read-only data a tick needs.
type Catalog interface {
	Steps(ctx context.Context, campaignID int) ([]model.Step, error)
	Template(ctx context.Context, id int) (*model.Template, error)
	Contact(ctx context.Context, id int) (*model.Contact, error)
}

// ConditionChecker decides whether a step goes out to a contact.
type ConditionChecker interface {
	ShouldSend(ctx context.Context, spec model.ConditionSpec, contact *model.Contact, status string) (bool, error)
}

// Tick is one claimed participant with the batch-scoped state around it.
type Tick struct {
	Participant model.Participant
	Campaign    *model.Campaign
	Quota       *ratelimit.Quota
	Now         time.Time
}

// Result carries the participant as it should be persisted. Record is set
// only for OutcomeSent.
type Result struct {
	Outcome     Outcome
	Participant model.Participant
	StepIndex   int
	Record      *model.SendRecord
}

// FirstSend reports whether this result delivered the campaign's opening step.
func (r Result) FirstSend() bool {
	return r.Outcome == OutcomeSent && r.StepIndex == 0
}

// Machine advances a participant one step per tick.
type Machine struct {
	catalog     Catalog
	conditions  ConditionChecker
	sender      channel.Sender
	quotaLoc    *time.Location
	windowRetry time.Duration
	log         *zap.Logger
}

// Option configures a Machine.
type Option func(*Machine)

// WithQuotaLocation sets the calendar a quota day is counted in.
func WithQuotaLocation(loc *time.Location) Option {
	return func(m *Machine) { m.quotaLoc = loc }
}

func WithWindowRetry(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.windowRetry = d
		}
	}
}

func NewMachine(catalog Catalog, conditions ConditionChecker, sender channel.Sender, log *zap.Logger, opts ...Option) *Machine {
	m := &Machine{
		catalog:     catalog,
		conditions:  conditions,
		sender:      sender,
		quotaLoc:    time.UTC,
		windowRetry: schedule.RetryInterval,
		log:         log.Named("sequence"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Tick runs one transition. Window and quota are checked before anything is
// looked up. An error means nothing should be persisted; send failures are
// not errors but OutcomeFailed.
func (m *Machine) Tick(ctx context.Context, t Tick) (Result, error) {
	p := t.Participant
	res := Result{Participant: p, StepIndex: p.CurrentStep}
	window := schedule.FromSpec(t.Campaign.Schedule)

	if !window.Sendable(t.Now) {
		res.Outcome = OutcomeDeferredWindow
		res.Participant.Apply(model.ScheduleAt(window.Next(t.Now, m.windowRetry)))
		return res, nil
	}

	if t.Quota != nil {
		if !t.Quota.Reserve(p.SendingAccountID) {
			res.Outcome = OutcomeDeferredQuota
			res.Participant.Apply(model.ScheduleAt(window.Next(ratelimit.NextDay(t.Now, m.quotaLoc), 0)))
			return res, nil
		}
	}

	res, err := m.advance(ctx, t, window)
	if t.Quota != nil && (err != nil || res.Outcome != OutcomeSent) {
		t.Quota.Release(p.SendingAccountID)
	}
	return res, err
}

func (m *Machine) advance(ctx context.Context, t Tick, window schedule.Window) (Result, error) {
	p := t.Participant
	res := Result{Participant: p, StepIndex: p.CurrentStep}

	steps, err := m.catalog.Steps(ctx, p.CampaignID)
	if err != nil {
		return res, fmt.Errorf("load steps for campaign %d: %w", p.CampaignID, err)
	}
	step, ok := stepAt(steps, p.CurrentStep)
	if !ok {
		res.Outcome = OutcomeCompleted
		complete(&res.Participant)
		return res, nil
	}

	contact, err := m.catalog.Contact(ctx, p.ContactID)
	if errors.Is(err, appErrors.ErrNotFound) {
		return m.fail(res, fmt.Sprintf("contact %d not found", p.ContactID)), nil
	}
	if err != nil {
		return res, fmt.Errorf("load contact %d: %w", p.ContactID, err)
	}

	send, err := m.conditions.ShouldSend(ctx, step.Conditions, contact, p.Status)
	if err != nil {
		return res, fmt.Errorf("evaluate step %d conditions: %w", step.OrderIndex, err)
	}
	if !send {
		res.Outcome = OutcomeSkipped
		moveOn(&res.Participant, steps, t.Now, window)
		return res, nil
	}

	tmpl, err := m.catalog.Template(ctx, step.TemplateID)
	if errors.Is(err, appErrors.ErrNotFound) {
		return m.fail(res, fmt.Sprintf("template %d not found", step.TemplateID)), nil
	}
	if err != nil {
		return res, fmt.Errorf("load template %d: %w", step.TemplateID, err)
	}

	messageID, err := m.sender.Send(ctx, channel.Message{
		ContactID: p.ContactID,
		ChannelID: p.ChannelID,
		Content:   Render(tmpl.Content, contact),
		AccountID: p.SendingAccountID,
	})
	if err != nil {
		m.log.Warn("send failed",
			zap.Int("participant_id", p.ID),
			zap.Int("step", p.CurrentStep),
			zap.Error(err),
		)
		return m.fail(res, err.Error()), nil
	}

	res.Outcome = OutcomeSent
	res.Record = &model.SendRecord{
		ParticipantID:    p.ID,
		CampaignID:       p.CampaignID,
		SendingAccountID: p.SendingAccountID,
		StepIndex:        p.CurrentStep,
		MessageID:        messageID,
		Outcome:          model.SendOutcomeSent,
		SentAt:           t.Now,
	}
	sentAt := t.Now
	res.Participant.LastSentAt = &sentAt
	res.Participant.LastError = ""
	moveOn(&res.Participant, steps, t.Now, window)
	return res, nil
}

func (m *Machine) fail(res Result, reason string) Result {
	res.Outcome = OutcomeFailed
	res.Participant.Status = model.ParticipantFailed
	res.Participant.LastError = reason
	res.Participant.Apply(model.Schedule{})
	return res
}

// moveOn advances past the current step and schedules the following one by
// its own trigger, or completes the participant when none is left.
func moveOn(p *model.Participant, steps []model.Step, now time.Time, window schedule.Window) {
	p.CurrentStep++
	next, ok := stepAt(steps, p.CurrentStep)
	if !ok {
		complete(p)
		return
	}
	p.Status = model.ParticipantSent
	p.Apply(ScheduleFor(next, now, window))
}

func complete(p *model.Participant) {
	p.Status = model.ParticipantCompleted
	p.Apply(model.Schedule{})
}

// ScheduleFor is when step becomes due if the previous step finished at now.
func ScheduleFor(step model.Step, now time.Time, window schedule.Window) model.Schedule {
	if step.Trigger == model.TriggerAfterReply {
		return model.AwaitReply()
	}
	return model.ScheduleAt(window.Next(now, step.Delay()))
}

func stepAt(steps []model.Step, index int) (model.Step, bool) {
	for _, s := range steps {
		if s.OrderIndex == index {
			return s, true
		}
	}
	return model.Step{}, false
}
