package leads

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/unclebandit/dripline/internal/metrics"
	"github.com/unclebandit/dripline/internal/model"
	"github.com/unclebandit/dripline/internal/queue"
)

// Store is the pipeline/CRM collaborator. CreateOrGetLead returns the
// existing lead for (contact, pipeline) instead of creating a second one.
type Store interface {
	CreateOrGetLead(ctx context.Context, contactID, pipelineID, stageID, ownerID int) (*model.Lead, bool, error)
}

type Trigger struct {
	store Store
	log   *zap.Logger
}

func NewTrigger(store Store, log *zap.Logger) *Trigger {
	return &Trigger{store: store, log: log.Named("leads")}
}

// EnsureLead makes sure the contact has a lead in the request's pipeline. An
// existing lead is success.
func (t *Trigger) EnsureLead(ctx context.Context, req Request) (*model.Lead, error) {
	lead, created, err := t.store.CreateOrGetLead(ctx, req.ContactID, req.PipelineID, req.StageID, req.OwnerID)
	if err != nil {
		metrics.LeadRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("ensure lead for contact %d: %w", req.ContactID, err)
	}
	result := "existing"
	if created {
		result = "created"
	}
	metrics.LeadRequests.WithLabelValues(result).Inc()
	t.log.Info("lead ensured",
		zap.String("request_id", req.ID),
		zap.Int("lead_id", lead.ID),
		zap.Int("contact_id", req.ContactID),
		zap.Int("pipeline_id", req.PipelineID),
		zap.String("reason", req.Reason),
		zap.Bool("created", created),
	)
	return lead, nil
}

// Subscribe consumes lead requests from topic. Undecodable messages are
// dropped; store failures are handed back to the queue for redelivery.
func Subscribe(ctx context.Context, q queue.Queue, topic string, t *Trigger) error {
	return q.Subscribe(ctx, topic, func(ctx context.Context, body []byte) error {
		var req Request
		if err := json.Unmarshal(body, &req); err != nil {
			t.log.Warn("invalid lead request", zap.Error(err))
			return nil
		}
		if _, err := t.EnsureLead(ctx, req); err != nil {
			t.log.Warn("lead request failed", zap.String("request_id", req.ID), zap.Error(err))
			return err
		}
		return nil
	})
}
