// Package dispatch claims due participants and runs them through the
// sequence machine, one transaction per participant.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/unclebandit/dripline/internal/leads"
	"github.com/unclebandit/dripline/internal/metrics"
	"github.com/unclebandit/dripline/internal/model"
	"github.com/unclebandit/dripline/internal/ratelimit"
	"github.com/unclebandit/dripline/internal/sequence"
)

const DefaultBatchSize = 20

type Ticker interface {
	Tick(ctx context.Context, t sequence.Tick) (sequence.Result, error)
}

// LeadPublisher receives lead requests after the triggering send committed.
type LeadPublisher interface {
	Publish(ctx context.Context, req leads.Request) error
}

type Config struct {
	BatchSize  int
	DailyLimit int
	QuotaLoc   *time.Location
}

type Dispatcher struct {
	store   Store
	machine Ticker
	leads   LeadPublisher
	cfg     Config
	now     func() time.Time
	log     *zap.Logger
	tracer  trace.Tracer
}

func NewDispatcher(store Store, machine Ticker, leadPub LeadPublisher, cfg Config, log *zap.Logger) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.QuotaLoc == nil {
		cfg.QuotaLoc = time.UTC
	}
	return &Dispatcher{
		store:   store,
		machine: machine,
		leads:   leadPub,
		cfg:     cfg,
		now:     time.Now,
		log:     log.Named("dispatch"),
		tracer:  otel.Tracer("github.com/unclebandit/dripline/internal/dispatch"),
	}
}

// WithClock replaces the time source. Used by tests.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// BatchStats summarises one RunBatch call.
type BatchStats struct {
	Claimed   int
	Outcomes  map[sequence.Outcome]int
	Errors    int
	Completed []int
}

// RunBatch claims and processes up to BatchSize due participants, then
// completes every touched campaign that has nothing left to do. Per-claim
// failures are rolled back and logged; only a failure to start the batch is
// returned.
func (d *Dispatcher) RunBatch(ctx context.Context) (BatchStats, error) {
	ctx, span := d.tracer.Start(ctx, "dispatch.batch")
	defer span.End()

	started := d.now()
	defer func() { metrics.DispatchBatchDuration.Observe(time.Since(started).Seconds()) }()

	stats := BatchStats{Outcomes: map[sequence.Outcome]int{}}

	counts, err := d.store.SendCountsSince(ctx, ratelimit.DayStart(started, d.cfg.QuotaLoc))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count sends")
		return stats, fmt.Errorf("count today's sends: %w", err)
	}
	quota := ratelimit.New(d.cfg.DailyLimit, counts)
	touched := map[int]struct{}{}
	// Rolled-back participants stay due; without this they would be claimed
	// again for the rest of the batch.
	var skip []int

	for stats.Claimed < d.cfg.BatchSize {
		if ctx.Err() != nil {
			break
		}
		claim, err := d.store.ClaimNextDue(ctx, d.now(), skip)
		if err != nil {
			stats.Errors++
			metrics.DispatchClaimErrors.Inc()
			d.log.Error("claim failed", zap.Error(err))
			break
		}
		if claim == nil {
			break
		}
		stats.Claimed++
		touched[claim.Participant().CampaignID] = struct{}{}

		res, err := d.process(ctx, claim, quota)
		if err != nil {
			skip = append(skip, claim.Participant().ID)
			stats.Errors++
			metrics.DispatchClaimErrors.Inc()
			d.log.Error("claim rolled back",
				zap.Int("participant_id", claim.Participant().ID),
				zap.Error(err),
			)
			continue
		}
		stats.Outcomes[res.Outcome]++
	}
	metrics.DispatchBatchClaims.Observe(float64(stats.Claimed))

	for campaignID := range touched {
		done, err := d.store.CompleteIfDrained(ctx, campaignID)
		if err != nil {
			d.log.Error("auto-complete check failed", zap.Int("campaign_id", campaignID), zap.Error(err))
			continue
		}
		if done {
			stats.Completed = append(stats.Completed, campaignID)
			metrics.CampaignsAutoCompleted.Inc()
			d.log.Info("campaign completed", zap.Int("campaign_id", campaignID))
		}
	}

	span.SetAttributes(
		attribute.Int("dispatch.claimed", stats.Claimed),
		attribute.Int("dispatch.errors", stats.Errors),
	)
	if stats.Claimed > 0 {
		d.log.Info("batch finished",
			zap.Int("claimed", stats.Claimed),
			zap.Int("errors", stats.Errors),
			zap.Int("campaigns_completed", len(stats.Completed)),
		)
	}
	return stats, nil
}

func (d *Dispatcher) process(ctx context.Context, claim Claim, quota *ratelimit.Quota) (sequence.Result, error) {
	p := claim.Participant()
	campaign := claim.Campaign()

	ctx, span := d.tracer.Start(ctx, "dispatch.claim", trace.WithAttributes(
		attribute.Int("participant.id", p.ID),
		attribute.Int("campaign.id", p.CampaignID),
		attribute.Int("participant.step", p.CurrentStep),
	))
	defer span.End()

	res, err := d.machine.Tick(ctx, sequence.Tick{
		Participant: p,
		Campaign:    campaign,
		Quota:       quota,
		Now:         d.now(),
	})
	if err != nil {
		if rbErr := claim.Rollback(); rbErr != nil {
			d.log.Warn("rollback failed", zap.Int("participant_id", p.ID), zap.Error(rbErr))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "tick")
		return res, err
	}

	if err := claim.Commit(ctx, Transition{Participant: res.Participant, Record: res.Record}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit")
		return res, fmt.Errorf("commit participant %d: %w", p.ID, err)
	}

	span.SetAttributes(attribute.String("dispatch.outcome", string(res.Outcome)))
	metrics.DispatchOutcomes.WithLabelValues(string(res.Outcome)).Inc()
	d.log.Debug("participant advanced",
		zap.Int("participant_id", p.ID),
		zap.Int("campaign_id", p.CampaignID),
		zap.Int("step", res.StepIndex),
		zap.String("outcome", string(res.Outcome)),
	)

	if res.FirstSend() && campaign.LeadSettings.Trigger == model.LeadOnFirstSend {
		d.requestLead(ctx, campaign, p.ContactID)
	}
	return res, nil
}

// requestLead runs after commit; its failure never touches participant state.
func (d *Dispatcher) requestLead(ctx context.Context, campaign *model.Campaign, contactID int) {
	if d.leads == nil {
		return
	}
	req, ok := leads.RequestFor(campaign, contactID, leads.ReasonFirstSend)
	if !ok {
		return
	}
	if err := d.leads.Publish(ctx, req); err != nil {
		d.log.Warn("lead request not published",
			zap.Int("campaign_id", campaign.ID),
			zap.Int("contact_id", contactID),
			zap.Error(err),
		)
	}
}
