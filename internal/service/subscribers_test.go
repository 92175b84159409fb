package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/dripline/internal/events"
	"github.com/unclebandit/dripline/internal/model"
	"github.com/unclebandit/dripline/internal/queue"
	"github.com/unclebandit/dripline/internal/service"
)

func TestSubscribeReplies(t *testing.T) {
	ps := NewMockParticipantRepo(model.Participant{ID: 1, CampaignID: 1, ContactID: 5, Status: model.ParticipantSent})
	svc := newReplyService(ps, NewMockCampaignRepo(leadCampaign(1, model.LeadNone)), nil)
	q := queue.NewInMemoryQueue(zap.NewNop()).WithBackoff(time.Millisecond)
	ctx := context.Background()

	require.NoError(t, service.SubscribeReplies(ctx, q, "replies", svc))
	require.NoError(t, q.Publish(ctx, "replies", events.Reply{EventID: "a", ContactID: 5}))
	require.NoError(t, q.Publish(ctx, "replies", map[string]any{"contact_id": "not a number"}))
	require.NoError(t, q.Close())

	assert.Equal(t, model.ParticipantReplied, ps.all()[0].Status)
}

func TestSubscribeStageChanges_DropsUnknownContact(t *testing.T) {
	campaigns := NewMockCampaignRepo(&model.Campaign{ID: 1, OrganizationID: 1, Status: model.CampaignActive,
		Audience: model.AudienceSpec{Kind: model.AudienceKindPipelineStage, PipelineID: 9, StageID: 3}})
	pipeline := NewMockPipelineRepo()
	svc := &service.EnrollmentService{
		CampaignRepo: campaigns,
		ContactRepo:  NewMockContactRepo(),
		PipelineRepo: pipeline,
	}
	q := queue.NewInMemoryQueue(zap.NewNop()).WithBackoff(time.Millisecond)
	ctx := context.Background()

	require.NoError(t, service.SubscribeStageChanges(ctx, q, "stages", svc))
	require.NoError(t, q.Publish(ctx, "stages", events.StageChange{ContactID: 5, PipelineID: 9, StageID: 3}))
	require.NoError(t, q.Close())

	stage, ok, _ := pipeline.StageOf(ctx, 5, 9)
	assert.True(t, ok)
	assert.Equal(t, 3, stage)
}
