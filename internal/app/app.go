// Package app wires configuration, storage, queue and services into the
// object graph both binaries run on.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/unclebandit/dripline/internal/channel"
	"github.com/unclebandit/dripline/internal/condition"
	"github.com/unclebandit/dripline/internal/config"
	"github.com/unclebandit/dripline/internal/controller"
	"github.com/unclebandit/dripline/internal/db"
	"github.com/unclebandit/dripline/internal/dispatch"
	"github.com/unclebandit/dripline/internal/events"
	"github.com/unclebandit/dripline/internal/handler"
	"github.com/unclebandit/dripline/internal/leads"
	"github.com/unclebandit/dripline/internal/queue"
	"github.com/unclebandit/dripline/internal/repository"
	"github.com/unclebandit/dripline/internal/sequence"
	"github.com/unclebandit/dripline/internal/service"
)

type App struct {
	Config *config.Config
	Log    *zap.Logger
	DB     *sql.DB
	Queue  queue.Queue
	// Durable is true when Queue is shared between processes.
	Durable bool

	redis *redis.Client

	Campaigns    *service.CampaignService
	Sequences    *service.SequenceService
	Participants *service.ParticipantService
	Replies      *service.ReplyService
	Enrollment   *service.EnrollmentService
	LeadTrigger  *leads.Trigger
	Leads        *leads.Publisher

	steps     *repository.StepRepository
	templates *repository.TemplateRepository
	contacts  *repository.ContactRepository
	pipelines *repository.PipelineRepository
	store     *repository.DispatchStore
}

// New opens every backing connection. Redis and AMQP are optional; without
// them replies are not de-duplicated and the queue is in-process.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	conn, err := db.Open(ctx, cfg.Database.Postgres)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Log: log, DB: conn}

	if cfg.AMQP.URL != "" {
		q, err := queue.DialAMQP(cfg.AMQP.URL, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Queue, a.Durable = q, true
	} else {
		log.Warn("amqp.url not set, using in-memory queue")
		a.Queue = queue.NewInMemoryQueue(log)
	}

	var dedupe events.Deduper = events.NoDedupe{}
	if cfg.Redis.Address != "" {
		client, err := events.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = client
		dedupe = events.NewRedisDeduper(client, "dripline:reply:", cfg.Redis.DedupeTTL)
	} else {
		log.Warn("redis.address not set, reply events are not de-duplicated")
	}

	a.wire(dedupe)
	return a, nil
}

func (a *App) wire(dedupe events.Deduper) {
	cfg := a.Config
	quotaLoc := cfg.Dispatch.QuotaLocation()

	campaignRepo := &repository.CampaignRepository{DB: a.DB}
	contactRepo := &repository.ContactRepository{DB: a.DB}
	accountRepo := &repository.AccountRepository{DB: a.DB}
	participantRepo := &repository.ParticipantRepository{DB: a.DB}
	stepRepo := &repository.StepRepository{DB: a.DB}
	templateRepo := &repository.TemplateRepository{DB: a.DB}
	pipelineRepo := &repository.PipelineRepository{DB: a.DB}
	sendRecordRepo := &repository.SendRecordRepository{DB: a.DB}

	a.steps, a.templates, a.contacts, a.pipelines = stepRepo, templateRepo, contactRepo, pipelineRepo
	a.store = &repository.DispatchStore{DB: a.DB}
	a.Leads = leads.NewPublisher(a.Queue, cfg.AMQP.Topics.LeadRequests)
	a.LeadTrigger = leads.NewTrigger(pipelineRepo, a.Log)

	audience := &service.AudienceService{
		ContactRepo:     contactRepo,
		AccountRepo:     accountRepo,
		ParticipantRepo: participantRepo,
		PipelineRepo:    pipelineRepo,
		Log:             a.Log,
	}
	a.Campaigns = &service.CampaignService{
		CampaignRepo:    campaignRepo,
		ContactRepo:     contactRepo,
		TemplateRepo:    templateRepo,
		StepRepo:        stepRepo,
		ParticipantRepo: participantRepo,
		Audience:        audience,
		Log:             a.Log,
		QuotaLoc:        quotaLoc,
	}
	a.Sequences = &service.SequenceService{
		CampaignRepo: campaignRepo,
		TemplateRepo: templateRepo,
		StepRepo:     stepRepo,
	}
	a.Participants = &service.ParticipantService{
		CampaignRepo:    campaignRepo,
		ParticipantRepo: participantRepo,
		SendRecordRepo:  sendRecordRepo,
		QuotaLoc:        quotaLoc,
	}
	a.Replies = &service.ReplyService{
		ParticipantRepo: participantRepo,
		CampaignRepo:    campaignRepo,
		Dedupe:          dedupe,
		Leads:           a.Leads,
		Completer:       a.store,
		Log:             a.Log,
	}
	a.Enrollment = &service.EnrollmentService{
		CampaignRepo: campaignRepo,
		ContactRepo:  contactRepo,
		PipelineRepo: pipelineRepo,
		Audience:     audience,
		Log:          a.Log,
	}
}

// Router builds the HTTP API.
func (a *App) Router() http.Handler {
	return handler.NewRouter(handler.Routes{
		Campaigns:    &controller.CampaignController{CampaignService: a.Campaigns, Log: a.Log},
		Sequences:    &controller.SequenceController{SequenceService: a.Sequences, Log: a.Log},
		Participants: &controller.ParticipantController{ParticipantService: a.Participants, Log: a.Log},
		Events:       &controller.EventController{Replies: a.Replies, StageChanges: a.Enrollment, Log: a.Log},
		DB:           a.DB,
		Log:          a.Log,
	})
}

func (a *App) SubscribeLeads(ctx context.Context) error {
	topic := a.Config.AMQP.Topics.LeadRequests
	if err := leads.Subscribe(ctx, a.Queue, topic, a.LeadTrigger); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

// SubscribeEvents consumes reply and stage-change events from the queue.
func (a *App) SubscribeEvents(ctx context.Context) error {
	topics := a.Config.AMQP.Topics
	if err := service.SubscribeReplies(ctx, a.Queue, topics.Replies, a.Replies); err != nil {
		return fmt.Errorf("subscribe %s: %w", topics.Replies, err)
	}
	if err := service.SubscribeStageChanges(ctx, a.Queue, topics.StageChanges, a.Enrollment); err != nil {
		return fmt.Errorf("subscribe %s: %w", topics.StageChanges, err)
	}
	return nil
}

// DispatchLoop builds the scheduled dispatcher with the configured channel.
func (a *App) DispatchLoop(ctx context.Context) (*dispatch.Loop, error) {
	cfg := a.Config.Dispatch
	sender, err := channel.New(ctx, a.Config.Channel, cfg.SendTimeout, a.Log)
	if err != nil {
		return nil, err
	}
	machine := sequence.NewMachine(
		repository.NewCatalog(a.steps, a.templates, a.contacts),
		condition.NewEvaluator(a.pipelines),
		sender,
		a.Log,
		sequence.WithQuotaLocation(cfg.QuotaLocation()),
		sequence.WithWindowRetry(cfg.WindowRetry),
	)
	d := dispatch.NewDispatcher(a.store, machine, a.Leads, dispatch.Config{
		BatchSize:  cfg.BatchSize,
		DailyLimit: cfg.DailyLimit,
		QuotaLoc:   cfg.QuotaLocation(),
	}, a.Log)
	return dispatch.NewLoop(d, cfg.Interval, a.Log), nil
}

func (a *App) Close() {
	if a.Queue != nil {
		if err := a.Queue.Close(); err != nil {
			a.Log.Warn("close queue", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Log.Warn("close redis", zap.Error(err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.Warn("close database", zap.Error(err))
		}
	}
}
