package dispatch_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/unclebandit/dripline/internal/dispatch"
	"github.com/unclebandit/dripline/internal/model"
)

// memStore is an in-memory Store with the same claim semantics as the
// Postgres one: a claimed row is skipped by other claimers until released.
type memStore struct {
	mu           sync.Mutex
	campaigns    map[int]*model.Campaign
	participants map[int]*model.Participant
	locked       map[int]bool
	records      []model.SendRecord
	duplicates   int
	claimErr     error
	commitErr    error
	countCalls   int
}

func newMemStore() *memStore {
	return &memStore{
		campaigns:    map[int]*model.Campaign{},
		participants: map[int]*model.Participant{},
		locked:       map[int]bool{},
	}
}

func (s *memStore) addCampaign(c *model.Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[c.ID] = c
}

func (s *memStore) addParticipant(p model.Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[p.ID] = &p
}

func (s *memStore) participant(id int) model.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.participants[id]
}

func (s *memStore) campaign(id int) model.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.campaigns[id]
}

func (s *memStore) sendRecords() []model.SendRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.SendRecord(nil), s.records...)
}

func (s *memStore) ClaimNextDue(_ context.Context, now time.Time, skip []int) (dispatch.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return nil, s.claimErr
	}

	var due []*model.Participant
	for _, p := range s.participants {
		c := s.campaigns[p.CampaignID]
		if c == nil || c.Status != model.CampaignActive || !p.Active() || s.locked[p.ID] || contains(skip, p.ID) {
			continue
		}
		if p.NextSendAt == nil || p.NextSendAt.After(now) {
			continue
		}
		due = append(due, p)
	}
	if len(due) == 0 {
		return nil, nil
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].NextSendAt.Equal(*due[j].NextSendAt) {
			return due[i].NextSendAt.Before(*due[j].NextSendAt)
		}
		return due[i].ID < due[j].ID
	})

	p := *due[0]
	s.locked[p.ID] = true
	c := *s.campaigns[p.CampaignID]
	return &memClaim{store: s, p: p, c: &c, commitErr: s.commitErr}, nil
}

func (s *memStore) SendCountsSince(_ context.Context, since time.Time) (map[int]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countCalls++
	counts := map[int]int{}
	for _, r := range s.records {
		if !r.SentAt.Before(since) {
			counts[r.SendingAccountID]++
		}
	}
	return counts, nil
}

func (s *memStore) CompleteIfDrained(_ context.Context, campaignID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.campaigns[campaignID]
	if c == nil || c.Status != model.CampaignActive {
		return false, nil
	}
	for _, p := range s.participants {
		if p.CampaignID == campaignID && p.Active() {
			return false, nil
		}
	}
	c.Status = model.CampaignCompleted
	return true, nil
}

func (s *memStore) batches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countCalls
}

type memClaim struct {
	store     *memStore
	p         model.Participant
	c         *model.Campaign
	commitErr error
	done      bool
}

func (c *memClaim) Participant() model.Participant { return c.p }
func (c *memClaim) Campaign() *model.Campaign      { return c.c }

func (c *memClaim) Commit(_ context.Context, t dispatch.Transition) error {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.done {
		return errors.New("claim already released")
	}
	c.done = true
	delete(s.locked, c.p.ID)
	if c.commitErr != nil {
		return c.commitErr
	}

	if t.Record != nil {
		for _, r := range s.records {
			if r.ParticipantID == t.Record.ParticipantID && r.StepIndex == t.Record.StepIndex {
				s.duplicates++
			}
		}
		rec := *t.Record
		rec.ID = len(s.records) + 1
		s.records = append(s.records, rec)
	}
	p := t.Participant
	s.participants[p.ID] = &p
	return nil
}

func (c *memClaim) Rollback() error {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if !c.done {
		c.done = true
		delete(s.locked, c.p.ID)
	}
	return nil
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
