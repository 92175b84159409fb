package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/dripline/internal/events"
	"github.com/unclebandit/dripline/internal/leads"
	"github.com/unclebandit/dripline/internal/metrics"
	"github.com/unclebandit/dripline/internal/model"
	"github.com/unclebandit/dripline/internal/repository"
)

// LeadPublisher hands lead requests to the leads subscriber.
type LeadPublisher interface {
	Publish(ctx context.Context, req leads.Request) error
}

// CampaignCompleter closes a campaign once nothing is left to send.
type CampaignCompleter interface {
	CompleteIfDrained(ctx context.Context, campaignID int) (bool, error)
}

type ReplyService struct {
	ParticipantRepo repository.ParticipantRepositoryInterface
	CampaignRepo    repository.CampaignRepositoryInterface
	Dedupe          events.Deduper
	Leads           LeadPublisher
	Completer       CampaignCompleter
	Log             *zap.Logger
	Now             func() time.Time
}

type ReplyResult struct {
	Duplicate bool  `json:"duplicate"`
	Resumed   []int `json:"resumed"`
	Replied   []int `json:"replied"`
}

// HandleReply applies an inbound reply to every open participant of the
// contact. A participant waiting on an after_reply step is resumed and
// becomes due now; any other is stopped as replied. Participants already
// replied or finished are not touched, so redelivery is harmless.
func (s *ReplyService) HandleReply(ctx context.Context, ev events.Reply) (*ReplyResult, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	res := &ReplyResult{Resumed: []int{}, Replied: []int{}}

	first, err := s.dedupe().First(ctx, ev.EventID)
	if err != nil {
		s.logger().Warn("reply dedupe unavailable", zap.String("event_id", ev.EventID), zap.Error(err))
		first = true
	}
	if !first {
		res.Duplicate = true
		metrics.InboundEvents.WithLabelValues("reply", "duplicate").Inc()
		return res, nil
	}

	if err := s.apply(ctx, ev, res); err != nil {
		if ferr := s.dedupe().Forget(ctx, ev.EventID); ferr != nil {
			s.logger().Warn("release reply event", zap.String("event_id", ev.EventID), zap.Error(ferr))
		}
		metrics.InboundEvents.WithLabelValues("reply", "error").Inc()
		return nil, err
	}
	metrics.InboundEvents.WithLabelValues("reply", "applied").Inc()
	return res, nil
}

func (s *ReplyService) apply(ctx context.Context, ev events.Reply, res *ReplyResult) error {
	open, err := s.ParticipantRepo.ListOpenByContact(ctx, ev.ContactID)
	if err != nil {
		return fmt.Errorf("participants of contact %d: %w", ev.ContactID, err)
	}

	now := s.now()
	for _, candidate := range open {
		var resumed bool
		p, err := s.ParticipantRepo.UpdateLocked(ctx, candidate.ID, func(p *model.Participant) (bool, error) {
			if !p.Active() {
				return false, nil
			}
			if p.Schedule().Kind == model.ScheduleAwaitingReply {
				p.Apply(model.ScheduleAt(now))
				resumed = true
				return true, nil
			}
			p.Status = model.ParticipantReplied
			p.Apply(model.Schedule{})
			return true, nil
		})
		if err != nil {
			return fmt.Errorf("apply reply to participant %d: %w", candidate.ID, err)
		}

		switch {
		case resumed:
			res.Resumed = append(res.Resumed, p.ID)
			s.logger().Info("reply resumed sequence", zap.Int("participant_id", p.ID), zap.Int("campaign_id", p.CampaignID))
		case p.Status == model.ParticipantReplied:
			res.Replied = append(res.Replied, p.ID)
			s.logger().Info("participant replied", zap.Int("participant_id", p.ID), zap.Int("campaign_id", p.CampaignID))
			s.afterReply(ctx, p)
		}
	}
	return nil
}

// afterReply runs the side effects of a stopping reply. Failures are logged
// only; the reply itself is already stored.
func (s *ReplyService) afterReply(ctx context.Context, p *model.Participant) {
	campaign, err := s.CampaignRepo.GetByID(ctx, p.CampaignID)
	if err != nil {
		s.logger().Warn("load campaign after reply", zap.Int("campaign_id", p.CampaignID), zap.Error(err))
		return
	}

	if s.Leads != nil && campaign.LeadSettings.Trigger == model.LeadOnReply {
		if req, ok := leads.RequestFor(campaign, p.ContactID, leads.ReasonReply); ok {
			if err := s.Leads.Publish(ctx, req); err != nil {
				s.logger().Error("publish lead request", zap.Int("contact_id", p.ContactID), zap.Error(err))
			}
		}
	}

	if s.Completer != nil {
		done, err := s.Completer.CompleteIfDrained(ctx, campaign.ID)
		if err != nil {
			s.logger().Warn("complete campaign after reply", zap.Int("campaign_id", campaign.ID), zap.Error(err))
		} else if done {
			metrics.CampaignsAutoCompleted.Inc()
			s.logger().Info("campaign completed", zap.Int("campaign_id", campaign.ID))
		}
	}
}

func (s *ReplyService) dedupe() events.Deduper {
	if s.Dedupe == nil {
		return events.NoDedupe{}
	}
	return s.Dedupe
}

func (s *ReplyService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ReplyService) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
