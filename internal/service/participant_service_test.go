package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/dripline/internal/errors"
	"github.com/unclebandit/dripline/internal/model"
	"github.com/unclebandit/dripline/internal/service"
)

func newParticipantService(now time.Time) (*service.ParticipantService, *MockSendRecordRepo) {
	var ps []model.Participant
	for i := 1; i <= 5; i++ {
		ps = append(ps, model.Participant{ID: i, CampaignID: 1, ContactID: 100 + i, Status: model.ParticipantPending})
	}
	sends := &MockSendRecordRepo{records: []model.SendRecord{
		{ID: 1, ParticipantID: 1, SendingAccountID: 7, StepIndex: 0, SentAt: now.Add(-26 * time.Hour)},
		{ID: 2, ParticipantID: 1, SendingAccountID: 7, StepIndex: 1, SentAt: now.Add(-time.Hour)},
		{ID: 3, ParticipantID: 2, SendingAccountID: 8, StepIndex: 0, SentAt: now.Add(-2 * time.Hour)},
	}}
	svc := &service.ParticipantService{
		CampaignRepo:    NewMockCampaignRepo(&model.Campaign{ID: 1, Status: model.CampaignActive}),
		ParticipantRepo: NewMockParticipantRepo(ps...),
		SendRecordRepo:  sends,
		QuotaLoc:        time.UTC,
		Now:             func() time.Time { return now },
	}
	return svc, sends
}

func TestListParticipants_Pages(t *testing.T) {
	svc, _ := newParticipantService(time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC))

	first, err := svc.ListParticipants(context.Background(), 1, 1, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, first[0].ID)

	last, err := svc.ListParticipants(context.Background(), 1, 3, 2)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, 5, last[0].ID)
}

func TestListParticipants_UnknownCampaign(t *testing.T) {
	svc, _ := newParticipantService(time.Now())
	_, err := svc.ListParticipants(context.Background(), 9, 1, 10)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestHistory(t *testing.T) {
	svc, _ := newParticipantService(time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC))

	h, err := svc.History(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 101, h.ContactID)
	assert.Len(t, h.Sends, 2)

	_, err = svc.History(context.Background(), 42)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSendsToday_CountsFromQuotaDayStart(t *testing.T) {
	now := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	svc, sends := newParticipantService(now)

	counts, err := svc.SendsToday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[int]int{7: 1, 8: 1}, counts)
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), sends.since)
}
